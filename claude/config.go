package claude

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig holds session defaults loaded from a YAML file.
type FileConfig struct {
	Env                map[string]string  `yaml:"env"`
	ExtraArgs          map[string]*string `yaml:"extra_args"`
	Model              string             `yaml:"model"`
	FallbackModel      string             `yaml:"fallback_model"`
	SystemPrompt       string             `yaml:"system_prompt"`
	AppendSystemPrompt string             `yaml:"append_system_prompt"`
	PermissionMode     string             `yaml:"permission_mode"`
	CLIPath            string             `yaml:"cli_path"`
	WorkDir            string             `yaml:"work_dir"`
	Settings           string             `yaml:"settings"`
	OperationTimeout   time.Duration      `yaml:"operation_timeout"`
	AllowedTools       []string           `yaml:"allowed_tools"`
	DisallowedTools    []string           `yaml:"disallowed_tools"`
	AddDirs            []string           `yaml:"add_dirs"`
	MaxTurns           int                `yaml:"max_turns"`
	MaxBudgetUSD       float64            `yaml:"max_budget_usd"`
	MaxThinkingTokens  int                `yaml:"max_thinking_tokens"`
}

// LoadConfigFile reads session defaults from a YAML file and returns them as
// options. Returns no options when the file does not exist, so callers can
// point at a conventional location unconditionally.
func LoadConfigFile(path string) ([]SessionOption, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc.Options(), nil
}

// Options converts the file config into session options, skipping zero
// values so explicit options can layer on top.
func (fc *FileConfig) Options() []SessionOption {
	var opts []SessionOption

	if fc.Model != "" {
		opts = append(opts, WithModel(fc.Model))
	}
	if fc.FallbackModel != "" {
		opts = append(opts, WithFallbackModel(fc.FallbackModel))
	}
	if fc.SystemPrompt != "" {
		opts = append(opts, WithSystemPrompt(fc.SystemPrompt))
	}
	if fc.AppendSystemPrompt != "" {
		opts = append(opts, WithAppendSystemPrompt(fc.AppendSystemPrompt))
	}
	if fc.PermissionMode != "" {
		opts = append(opts, WithPermissionMode(PermissionMode(fc.PermissionMode)))
	}
	if len(fc.AllowedTools) > 0 {
		opts = append(opts, WithAllowedTools(fc.AllowedTools...))
	}
	if len(fc.DisallowedTools) > 0 {
		opts = append(opts, WithDisallowedTools(fc.DisallowedTools...))
	}
	if len(fc.AddDirs) > 0 {
		opts = append(opts, WithAddDirs(fc.AddDirs...))
	}
	if fc.MaxTurns > 0 {
		opts = append(opts, WithMaxTurns(fc.MaxTurns))
	}
	if fc.MaxBudgetUSD > 0 {
		opts = append(opts, WithMaxBudgetUSD(fc.MaxBudgetUSD))
	}
	if fc.MaxThinkingTokens > 0 {
		opts = append(opts, WithMaxThinkingTokens(fc.MaxThinkingTokens))
	}
	if fc.CLIPath != "" {
		opts = append(opts, WithCLIPath(fc.CLIPath))
	}
	if fc.WorkDir != "" {
		opts = append(opts, WithWorkDir(fc.WorkDir))
	}
	if fc.Settings != "" {
		opts = append(opts, WithSettings(fc.Settings))
	}
	if fc.OperationTimeout > 0 {
		opts = append(opts, WithOperationTimeout(fc.OperationTimeout))
	}
	if len(fc.Env) > 0 {
		opts = append(opts, WithEnv(fc.Env))
	}
	if len(fc.ExtraArgs) > 0 {
		opts = append(opts, WithExtraArgs(fc.ExtraArgs))
	}

	return opts
}
