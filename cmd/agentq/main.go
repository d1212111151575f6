// Package main provides agentq, a small CLI for one-shot and streaming
// prompts against the Claude agent CLI. Primarily a debugging aid for the
// library's wire handling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bazelment/claude-agent-go/claude"
)

var (
	modelFlag      string
	permissionFlag string
	configFlag     string
	streamFlag     bool
	verboseFlag    bool
	maxTurnsFlag   int
	budgetFlag     float64
	recordFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "agentq <prompt>",
	Short: "Send a prompt to the Claude agent CLI",
	Long: `agentq sends a single prompt through the streaming JSON protocol and
prints the response. With --stream, events are printed as they arrive
instead of waiting for the turn to finish.

Environment:
  CLAUDE_CLI_PATH   Path to the agent binary (default: "claude" on PATH)`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&modelFlag, "model", "", "Model to use")
	rootCmd.Flags().StringVar(&permissionFlag, "permission-mode", "", "Permission mode (default, acceptEdits, plan, bypassPermissions)")
	rootCmd.Flags().StringVar(&configFlag, "config", "", "YAML file with session defaults")
	rootCmd.Flags().BoolVar(&streamFlag, "stream", false, "Print events as they arrive")
	rootCmd.Flags().BoolVar(&verboseFlag, "verbose", false, "Print tool and turn events")
	rootCmd.Flags().IntVar(&maxTurnsFlag, "max-turns", 0, "Maximum turns before aborting")
	rootCmd.Flags().Float64Var(&budgetFlag, "max-budget-usd", 0, "Budget limit in USD")
	rootCmd.Flags().StringVar(&recordFlag, "record", "", "Record the session trace under this directory")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildOptions() ([]claude.SessionOption, error) {
	var opts []claude.SessionOption

	if configFlag != "" {
		fileOpts, err := claude.LoadConfigFile(configFlag)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileOpts...)
	}

	if modelFlag != "" {
		opts = append(opts, claude.WithModel(modelFlag))
	}
	if permissionFlag != "" {
		opts = append(opts, claude.WithPermissionMode(claude.PermissionMode(permissionFlag)))
	}
	if maxTurnsFlag > 0 {
		opts = append(opts, claude.WithMaxTurns(maxTurnsFlag))
	}
	if budgetFlag > 0 {
		opts = append(opts, claude.WithMaxBudgetUSD(budgetFlag))
	}
	if recordFlag != "" {
		opts = append(opts, claude.WithRecording(recordFlag))
	}
	if streamFlag {
		opts = append(opts, claude.WithIncludePartialMessages())
	}

	return opts, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	opts, err := buildOptions()
	if err != nil {
		return err
	}

	prompt := args[0]
	if streamFlag {
		return runStream(ctx, prompt, opts)
	}
	return runOnce(ctx, prompt, opts)
}

func runOnce(ctx context.Context, prompt string, opts []claude.SessionOption) error {
	result, err := claude.Execute(ctx, prompt, opts...)
	if err != nil {
		return err
	}

	fmt.Println(result.Text)

	if verboseFlag {
		fmt.Fprintf(os.Stderr, "status=%s session=%s model=%s turns=%d duration=%dms cost=$%.4f\n",
			result.Status, result.SessionID, result.Model, result.NumTurns, result.DurationMs, result.CostUSD)
	}

	if result.Status == claude.QueryStatusError {
		return fmt.Errorf("query failed")
	}
	return nil
}

func runStream(ctx context.Context, prompt string, opts []claude.SessionOption) error {
	events, err := claude.QueryStream(ctx, prompt, opts...)
	if err != nil {
		return err
	}

	for evt := range events {
		switch e := evt.(type) {
		case claude.TextEvent:
			fmt.Print(e.Text)
		case claude.ToolStartEvent:
			if verboseFlag {
				fmt.Fprintf(os.Stderr, "\n[tool] %s\n", e.Name)
			}
		case claude.TurnCompleteEvent:
			fmt.Println()
			if verboseFlag {
				fmt.Fprintf(os.Stderr, "[turn %d] success=%t duration=%dms cost=$%.4f\n",
					e.TurnNumber, e.Success, e.DurationMs, e.Usage.CostUSD)
			}
			if e.Error != nil {
				return e.Error
			}
		case claude.ErrorEvent:
			fmt.Fprintf(os.Stderr, "error (%s): %v\n", e.Context, e.Error)
		}
	}
	return nil
}
