package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	want := []string{"https://servo.org", "http://example.com"}
	if strings.Join(cfg.StartURLs, ",") != strings.Join(want, ",") {
		t.Fatalf("StartURLs = %v, want %v", cfg.StartURLs, want)
	}
	if cfg.Topology != TopologyPerWindow {
		t.Fatalf("Topology = %q, want %q", cfg.Topology, TopologyPerWindow)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Files) != 0 {
		t.Fatalf("Files = %v, want none", res.Files)
	}
	if res.Config.Engine.Endpoint != DefaultEngineEndpoint {
		t.Fatalf("Endpoint = %q, want %q", res.Config.Engine.Endpoint, DefaultEngineEndpoint)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Keys.Back != "Mod1-Left" {
		t.Fatalf("Keys.Back = %q, want %q", res.Config.Keys.Back, "Mod1-Left")
	}
}

func TestLoadFromPath_Values(t *testing.T) {
	data := strings.Join([]string{
		"start_urls: \"https://example.org\"",
		"topology: shared",
		"engine:",
		"  endpoint: \"wss://engine.local/ws\"",
		"  connect_timeout: 2s",
		"keys:",
		"  reload: F5",
		"window:",
		"  width: 640",
		"external_opener: firefox",
		"display: \":1\"",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if len(cfg.StartURLs) != 1 || cfg.StartURLs[0] != "https://example.org" {
		t.Fatalf("StartURLs = %v, want [https://example.org]", cfg.StartURLs)
	}
	if cfg.Topology != TopologyShared {
		t.Fatalf("Topology = %q, want %q", cfg.Topology, TopologyShared)
	}
	if cfg.Engine.Endpoint != "wss://engine.local/ws" {
		t.Fatalf("Endpoint = %q", cfg.Engine.Endpoint)
	}
	if d, _ := cfg.ConnectTimeout(); d != 2*time.Second {
		t.Fatalf("ConnectTimeout() = %v, want 2s", d)
	}
	if cfg.Keys.Reload != "F5" || cfg.Keys.Back != "Mod1-Left" {
		t.Fatalf("Keys = %+v", cfg.Keys)
	}
	if cfg.Window.Width != 640 || cfg.Window.Height != DefaultWindowHeight {
		t.Fatalf("Window = %+v", cfg.Window)
	}
	if cfg.ExternalOpener != "firefox" || cfg.Display != ":1" {
		t.Fatalf("ExternalOpener = %q, Display = %q", cfg.ExternalOpener, cfg.Display)
	}

	src, ok := res.Sources["engine.endpoint"]
	if !ok || src.Kind != SourceFile || src.Line != 4 {
		t.Fatalf("engine.endpoint source = %+v, want file line 4", src)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") {
		t.Fatalf("expected error to mention unknown_key, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "log_level: info\ntopology: tabs\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Path != "topology" {
		t.Fatalf("Path = %q, want topology", verr.Path)
	}
	if verr.Source.Line != 2 {
		t.Fatalf("Source.Line = %d, want 2", verr.Source.Line)
	}
	if !strings.Contains(err.Error(), "config.yaml:2:") {
		t.Fatalf("error %q lacks file position", err)
	}
}

func TestLoadFromPath_IncludeOverriddenByParent(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "topology: shared\nlog_level: debug\n")
	path := writeConfig(t, dir, "config.yaml", "include: base.yaml\nlog_level: warn\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Topology != TopologyShared {
		t.Fatalf("Topology = %q, want shared from include", res.Config.Topology)
	}
	if res.Config.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want warn", res.Config.LogLevel)
	}
	if len(res.Files) != 2 || filepath.Base(res.Files[0]) != "base.yaml" {
		t.Fatalf("Files = %v, want base.yaml then config.yaml", res.Files)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(filepath.Join(dir, "a.yaml"))
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	t.Setenv(EnvEngineEndpoint, "ws://10.0.0.2:9000/")
	t.Setenv(EnvLogLevel, "debug")
	path := writeConfig(t, t.TempDir(), "config.yaml", "log_level: error\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Engine.Endpoint != "ws://10.0.0.2:9000/" {
		t.Fatalf("Endpoint = %q", res.Config.Engine.Endpoint)
	}
	if res.Config.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", res.Config.LogLevel)
	}
	if src := res.Sources["log_level"]; src.Kind != SourceEnv || src.Name != EnvLogLevel {
		t.Fatalf("log_level source = %+v, want env", src)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"no start urls", func(c *Config) { c.StartURLs = nil }, "start_urls"},
		{"blank start url", func(c *Config) { c.StartURLs = []string{" "} }, "start_urls"},
		{"bad topology", func(c *Config) { c.Topology = "tabs" }, "topology"},
		{"http endpoint", func(c *Config) { c.Engine.Endpoint = "http://localhost" }, "engine.endpoint"},
		{"bad timeout", func(c *Config) { c.Engine.ConnectTimeout = "soon" }, "engine.connect_timeout"},
		{"negative timeout", func(c *Config) { c.Engine.ConnectTimeout = "-1s" }, "engine.connect_timeout"},
		{"empty back key", func(c *Config) { c.Keys.Back = "" }, "keys.back"},
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window.width"},
		{"zero height", func(c *Config) { c.Window.Height = 0 }, "window.height"},
		{"empty opener", func(c *Config) { c.ExternalOpener = "" }, "external_opener"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("Path = %q, want %q", verr.Path, tt.path)
			}
		})
	}
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error: %v", err)
	}
	want := filepath.Join(home, ".config", "browsershell", "config.yaml")
	if got != want {
		t.Fatalf("DefaultConfigPath() = %q, want %q", got, want)
	}
}
