package claude

import (
	"encoding/json"
	"testing"
)

func TestMCPConfigChaining(t *testing.T) {
	cfg := NewMCPConfig().
		AddStdioServer("files", "mcp-files", []string{"--root", "/data"}).
		AddHTTPServer("api", "http://localhost:8080/mcp").
		AddSSEServer("events", "http://localhost:8081/sse").
		AddSDKServer("calc", fakeToolHandler{})

	if len(cfg.MCPServers) != 4 {
		t.Fatalf("servers = %d, want 4", len(cfg.MCPServers))
	}
	if !cfg.HasServers() {
		t.Error("HasServers should be true")
	}
	if len(cfg.SDKHandlers()) != 1 {
		t.Errorf("sdk handlers = %d, want 1", len(cfg.SDKHandlers()))
	}
	if cfg.SDKHandlers()["calc"] == nil {
		t.Error("calc handler missing")
	}
}

func TestMCPConfigEmpty(t *testing.T) {
	if NewMCPConfig().HasServers() {
		t.Error("empty config reports servers")
	}
	var nilCfg *MCPConfig
	if nilCfg.HasServers() {
		t.Error("nil config reports servers")
	}
}

func TestMCPConfigMarshal(t *testing.T) {
	cfg := NewMCPConfig().
		AddStdioServer("files", "mcp-files", []string{"--root", "/data"}).
		AddSDKServer("calc", fakeToolHandler{})

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var parsed struct {
		MCPServers map[string]map[string]interface{} `json:"mcpServers"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	files := parsed.MCPServers["files"]
	if files["type"] != "stdio" || files["command"] != "mcp-files" {
		t.Errorf("files entry = %v", files)
	}

	// SDK entries advertise type and name so the CLI can route traffic back.
	calc := parsed.MCPServers["calc"]
	if calc["type"] != "sdk" || calc["name"] != "calc" {
		t.Errorf("calc entry = %v", calc)
	}
	if _, hasHandlers := calc["handler"]; hasHandlers {
		t.Error("handlers must not be serialized")
	}
}

func TestMCPConfigHTTPMarshal(t *testing.T) {
	cfg := NewMCPConfig().AddHTTPServer("api", "http://localhost:8080/mcp")

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var parsed struct {
		MCPServers map[string]map[string]interface{} `json:"mcpServers"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	api := parsed.MCPServers["api"]
	if api["type"] != "http" || api["url"] != "http://localhost:8080/mcp" {
		t.Errorf("api entry = %v", api)
	}
}

func TestWithSDKToolsOption(t *testing.T) {
	config := defaultConfig()
	WithSDKTools("calc", fakeToolHandler{})(&config)

	if config.MCPConfig == nil || !config.MCPConfig.HasServers() {
		t.Fatal("option did not install an MCP config")
	}
	if config.MCPConfig.SDKHandlers()["calc"] == nil {
		t.Error("handler not registered")
	}

	// A second server lands in the same config.
	WithSDKTools("other", fakeToolHandler{})(&config)
	if len(config.MCPConfig.MCPServers) != 2 {
		t.Errorf("servers = %d, want 2", len(config.MCPConfig.MCPServers))
	}
}

func TestBuildInitializeResult(t *testing.T) {
	result := buildInitializeResult("calc")
	if result.ServerInfo.Name != "calc" {
		t.Errorf("server name = %q", result.ServerInfo.Name)
	}
	if result.Capabilities.Tools == nil {
		t.Error("tools capability missing")
	}
	if result.ProtocolVersion == "" {
		t.Error("protocol version missing")
	}
}
