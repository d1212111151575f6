package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/bazelment/claude-agent-go/internal/ndjson"
	"github.com/bazelment/claude-agent-go/internal/procattr"
)

const (
	// cliPathEnv overrides the agent binary path when CLIPath is unset.
	cliPathEnv = "CLAUDE_CLI_PATH"

	defaultCLIName = "claude"

	stopGracePeriod = 2 * time.Second
	killWaitPeriod  = 500 * time.Millisecond
)

// transport abstracts the process I/O so session logic can be driven by a
// scripted stream in tests.
type transport interface {
	Start(ctx context.Context) error
	ReadLine() ([]byte, error)
	WriteMessage(v interface{}) error
	Stderr() io.Reader
	Stop() error
	// Done is closed when the process has been reaped.
	Done() <-chan struct{}
	ExitCode() int
}

// processManager supervises the agent CLI process: argument construction,
// pipe wiring, and teardown.
type processManager struct {
	stdin    io.WriteCloser
	stdout   io.ReadCloser
	stderr   io.ReadCloser
	cmd      *exec.Cmd
	reader   *ndjson.Reader
	writer   *ndjson.Writer
	done     chan struct{}
	config   SessionConfig
	exitCode int
	mu       sync.Mutex
	started  bool
	stopping bool
}

func newProcessManager(config SessionConfig) *processManager {
	return &processManager{
		config: config,
		done:   make(chan struct{}),
	}
}

// BuildCLIArgs builds the CLI argument vector from the config.
//
// The three framing arguments are always present; everything else is derived
// from the options. dangerouslySkipPermissions maps to its dedicated flag and
// suppresses --permission-mode.
func (pm *processManager) BuildCLIArgs() ([]string, error) {
	args := []string{
		"--output-format", "stream-json",
		"--input-format", "stream-json",
		"--verbose",
	}

	c := pm.config

	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}
	if c.FallbackModel != "" {
		args = append(args, "--fallback-model", c.FallbackModel)
	}
	if c.SystemPrompt != "" {
		args = append(args, "--system-prompt", c.SystemPrompt)
	}
	if c.AppendSystemPrompt != "" {
		args = append(args, "--append-system-prompt", c.AppendSystemPrompt)
	}

	if c.ToolsSet {
		args = append(args, "--tools", strings.Join(c.Tools, ","))
	}
	if len(c.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(c.AllowedTools, ","))
	}
	if len(c.DisallowedTools) > 0 {
		args = append(args, "--disallowedTools", strings.Join(c.DisallowedTools, ","))
	}

	if c.PermissionMode == PermissionModeDangerouslySkip {
		args = append(args, "--dangerously-skip-permissions")
	} else if c.PermissionMode != "" && c.PermissionMode != PermissionModeDefault {
		args = append(args, "--permission-mode", string(c.PermissionMode))
	}
	if c.PermissionPromptToolName != "" {
		args = append(args, "--permission-prompt-tool", c.PermissionPromptToolName)
	}

	if c.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(c.MaxTurns))
	}
	if c.MaxBudgetUSD > 0 {
		args = append(args, "--max-budget-usd", strconv.FormatFloat(c.MaxBudgetUSD, 'f', -1, 64))
	}
	if c.MaxThinkingTokens > 0 {
		args = append(args, "--max-thinking-tokens", strconv.Itoa(c.MaxThinkingTokens))
	}

	if len(c.JSONSchema) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, c.JSONSchema); err != nil {
			return nil, fmt.Errorf("invalid json schema: %w", err)
		}
		args = append(args, "--json-schema", buf.String())
	}
	if c.Agents != "" {
		args = append(args, "--agents", c.Agents)
	}

	if c.MCPConfig != nil && c.MCPConfig.HasServers() {
		cfgJSON, err := json.Marshal(c.MCPConfig)
		if err != nil {
			return nil, fmt.Errorf("marshal mcp config: %w", err)
		}
		args = append(args, "--mcp-config", string(cfgJSON))
	}

	for _, dir := range c.AddDirs {
		args = append(args, "--add-dir", dir)
	}
	for _, dir := range c.Plugins {
		args = append(args, "--plugin-dir", dir)
	}

	if c.Settings != "" {
		args = append(args, "--settings", c.Settings)
	}
	if len(c.SettingSources) > 0 {
		args = append(args, "--setting-sources", strings.Join(c.SettingSources, ","))
	}

	if c.ContinueConversation {
		args = append(args, "--continue")
	}
	if c.Resume != "" {
		args = append(args, "--resume", c.Resume)
	}
	if c.ForkSession {
		args = append(args, "--fork-session")
	}
	if c.IncludePartialMessages {
		args = append(args, "--include-partial-messages")
	}

	// MaxTokens has no stable flag across CLI versions; emit it through the
	// extra-args path so the caller can see and override it.
	extra := make(map[string]*string, len(c.ExtraArgs)+1)
	for k, v := range c.ExtraArgs {
		extra[k] = v
	}
	if c.MaxTokens > 0 {
		if _, ok := extra["max-tokens"]; !ok {
			v := strconv.Itoa(c.MaxTokens)
			extra["max-tokens"] = &v
		}
	}

	// Sorted for a deterministic vector.
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := extra[k]; v != nil {
			args = append(args, "--"+k, *v)
		} else {
			args = append(args, "--"+k)
		}
	}

	return args, nil
}

// resolveBinary returns the CLI path: explicit config, then the environment
// override, then the bare name resolved through PATH.
func (pm *processManager) resolveBinary() string {
	if pm.config.CLIPath != "" {
		return pm.config.CLIPath
	}
	if p := os.Getenv(cliPathEnv); p != "" {
		return p
	}
	return defaultCLIName
}

// Start spawns the CLI process and wires its pipes.
func (pm *processManager) Start(ctx context.Context) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.started {
		return ErrAlreadyConnected
	}

	args, err := pm.BuildCLIArgs()
	if err != nil {
		return err
	}

	cliPath := pm.resolveBinary()
	pm.cmd = exec.CommandContext(ctx, cliPath, args...)

	pm.cmd.Env = os.Environ()
	for k, v := range pm.config.Env {
		pm.cmd.Env = append(pm.cmd.Env, k+"="+v)
	}

	// Own process group so teardown can signal the whole tree.
	procattr.Set(pm.cmd)

	if pm.config.WorkDir != "" {
		pm.cmd.Dir = pm.config.WorkDir
	}

	pm.stdin, err = pm.cmd.StdinPipe()
	if err != nil {
		return &ProcessError{Message: "failed to create stdin pipe", Cause: err}
	}
	pm.stdout, err = pm.cmd.StdoutPipe()
	if err != nil {
		return &ProcessError{Message: "failed to create stdout pipe", Cause: err}
	}
	pm.stderr, err = pm.cmd.StderrPipe()
	if err != nil {
		return &ProcessError{Message: "failed to create stderr pipe", Cause: err}
	}

	pm.reader = ndjson.NewReader(pm.stdout)
	pm.writer = ndjson.NewWriter(pm.stdin)

	if err := pm.cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &CLINotFoundError{Path: cliPath, Cause: err}
		}
		return &ProcessError{Message: "failed to start CLI process", Cause: err}
	}

	go pm.reap()

	pm.started = true
	return nil
}

// reap waits for the process and records its exit code.
func (pm *processManager) reap() {
	err := pm.cmd.Wait()

	pm.mu.Lock()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			pm.exitCode = exitErr.ExitCode()
		} else {
			pm.exitCode = -1
		}
	}
	pm.mu.Unlock()

	close(pm.done)
}

// ReadLine reads the next JSON line from stdout. Blocks until a line arrives,
// the stream ends, or the process dies.
func (pm *processManager) ReadLine() ([]byte, error) {
	pm.mu.Lock()
	reader := pm.reader
	pm.mu.Unlock()

	if reader == nil {
		return nil, ErrNotConnected
	}
	return reader.ReadLine()
}

// WriteMessage serializes v and writes it as one frame to stdin.
func (pm *processManager) WriteMessage(v interface{}) error {
	pm.mu.Lock()
	writer := pm.writer
	stopping := pm.stopping
	pm.mu.Unlock()

	if writer == nil {
		return ErrNotConnected
	}
	if stopping {
		return ErrClosed
	}
	return writer.WriteJSON(v)
}

// Stderr returns the stderr reader.
func (pm *processManager) Stderr() io.Reader {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.stderr
}

// Done is closed once the process has been reaped.
func (pm *processManager) Done() <-chan struct{} {
	return pm.done
}

// ExitCode returns the exit code after Done is closed.
func (pm *processManager) ExitCode() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.exitCode
}

// Stop tears the process down: close stdin so the CLI can drain, SIGTERM the
// group, then SIGKILL after the grace period. Idempotent.
func (pm *processManager) Stop() error {
	pm.mu.Lock()
	if !pm.started || pm.stopping {
		pm.mu.Unlock()
		return nil
	}
	pm.stopping = true
	stdin := pm.stdin
	pm.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}

	if pm.cmd.Process != nil {
		_ = procattr.SignalGroup(pm.cmd.Process, syscall.SIGTERM)
	}

	select {
	case <-pm.done:
		return nil
	case <-time.After(stopGracePeriod):
	}

	if pm.cmd.Process != nil {
		_ = procattr.KillGroup(pm.cmd.Process)
	}

	select {
	case <-pm.done:
	case <-time.After(killWaitPeriod):
	}

	return nil
}

var _ transport = (*processManager)(nil)
