package claude

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
model: opus
fallback_model: sonnet
permission_mode: acceptEdits
allowed_tools: [Read, Write]
max_turns: 5
max_budget_usd: 2.5
operation_timeout: 30s
env:
  FOO: bar
extra_args:
  custom-flag: value
`)

	opts, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.Model != "opus" || config.FallbackModel != "sonnet" {
		t.Errorf("models = %q / %q", config.Model, config.FallbackModel)
	}
	if config.PermissionMode != PermissionModeAcceptEdits {
		t.Errorf("mode = %q", config.PermissionMode)
	}
	if len(config.AllowedTools) != 2 {
		t.Errorf("allowed tools = %v", config.AllowedTools)
	}
	if config.MaxTurns != 5 || config.MaxBudgetUSD != 2.5 {
		t.Errorf("limits = %d / %v", config.MaxTurns, config.MaxBudgetUSD)
	}
	if config.OperationTimeout != 30*time.Second {
		t.Errorf("timeout = %v", config.OperationTimeout)
	}
	if config.Env["FOO"] != "bar" {
		t.Errorf("env = %v", config.Env)
	}
	if v := config.ExtraArgs["custom-flag"]; v == nil || *v != "value" {
		t.Errorf("extra args = %v", config.ExtraArgs)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	opts, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if opts != nil {
		t.Errorf("opts = %v, want nil", opts)
	}
}

func TestLoadConfigFileInvalid(t *testing.T) {
	path := writeConfig(t, "model: [not: valid: yaml")
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfigFileZeroValuesSkipped(t *testing.T) {
	path := writeConfig(t, "model: opus\n")

	opts, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Only the model option is produced; defaults stay intact.
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Model != "opus" {
		t.Errorf("model = %q", config.Model)
	}
	if config.OperationTimeout != 60*time.Second {
		t.Errorf("default timeout overridden: %v", config.OperationTimeout)
	}
	if config.PermissionMode != PermissionModeDefault {
		t.Errorf("default mode overridden: %q", config.PermissionMode)
	}
}
