package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// Topology names accepted by the topology key.
const (
	TopologyPerWindow = "per-window"
	TopologyShared    = "shared"
)

const (
	DefaultEngineEndpoint = "ws://127.0.0.1:7878/engine"
	DefaultConnectTimeout = "10s"
	DefaultOpener         = "xdg-open"
	DefaultLogLevel       = "info"
	DefaultWindowWidth    = 1024
	DefaultWindowHeight   = 768
)

// EngineConfig describes how to reach the browser engine.
type EngineConfig struct {
	Endpoint       string `yaml:"endpoint"`
	ConnectTimeout string `yaml:"connect_timeout"`
}

// KeysConfig holds key sequences in xgbutil notation (e.g. "Mod1-Left").
type KeysConfig struct {
	Back    string `yaml:"back"`
	Forward string `yaml:"forward"`
	Reload  string `yaml:"reload"`
}

// WindowConfig is the initial size of each browser window.
type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config is the effective configuration after defaults, file values and
// environment overrides have been applied.
type Config struct {
	StartURLs      []string     `yaml:"start_urls"`
	Topology       string       `yaml:"topology"`
	Engine         EngineConfig `yaml:"engine"`
	Keys           KeysConfig   `yaml:"keys"`
	Window         WindowConfig `yaml:"window"`
	ExternalOpener string       `yaml:"external_opener"`
	LogLevel       string       `yaml:"log_level"`
	ControlSocket  string       `yaml:"control_socket"`
	Display        string       `yaml:"display"`
}

func DefaultConfig() *Config {
	return &Config{
		StartURLs: []string{"https://servo.org", "http://example.com"},
		Topology:  TopologyPerWindow,
		Engine: EngineConfig{
			Endpoint:       DefaultEngineEndpoint,
			ConnectTimeout: DefaultConnectTimeout,
		},
		Keys: KeysConfig{
			Back:    "Mod1-Left",
			Forward: "Mod1-Right",
			Reload:  "Control-r",
		},
		Window: WindowConfig{
			Width:  DefaultWindowWidth,
			Height: DefaultWindowHeight,
		},
		ExternalOpener: DefaultOpener,
		LogLevel:       DefaultLogLevel,
	}
}

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the configuration for values the shell cannot start with.
func (c *Config) Validate() error {
	if len(c.StartURLs) == 0 {
		return &ValidationError{Path: "start_urls", Err: fmt.Errorf("at least one start URL is required")}
	}
	for i, raw := range c.StartURLs {
		if strings.TrimSpace(raw) == "" {
			return &ValidationError{Path: "start_urls", Err: fmt.Errorf("entry %d is empty", i)}
		}
	}

	switch c.Topology {
	case TopologyPerWindow, TopologyShared:
	default:
		return &ValidationError{
			Path: "topology",
			Err:  fmt.Errorf("invalid topology %q (want %q or %q)", c.Topology, TopologyPerWindow, TopologyShared),
		}
	}

	u, err := url.Parse(c.Engine.Endpoint)
	if err != nil {
		return &ValidationError{Path: "engine.endpoint", Err: err}
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return &ValidationError{Path: "engine.endpoint", Err: fmt.Errorf("scheme must be ws or wss, got %q", u.Scheme)}
	}
	if _, err := c.ConnectTimeout(); err != nil {
		return &ValidationError{Path: "engine.connect_timeout", Err: err}
	}

	for path, seq := range map[string]string{
		"keys.back":    c.Keys.Back,
		"keys.forward": c.Keys.Forward,
		"keys.reload":  c.Keys.Reload,
	} {
		if strings.TrimSpace(seq) == "" {
			return &ValidationError{Path: path, Err: fmt.Errorf("key sequence is empty")}
		}
	}

	if c.Window.Width <= 0 {
		return &ValidationError{Path: "window.width", Err: fmt.Errorf("must be positive, got %d", c.Window.Width)}
	}
	if c.Window.Height <= 0 {
		return &ValidationError{Path: "window.height", Err: fmt.Errorf("must be positive, got %d", c.Window.Height)}
	}

	if strings.TrimSpace(c.ExternalOpener) == "" {
		return &ValidationError{Path: "external_opener", Err: fmt.Errorf("command is empty")}
	}
	if _, err := c.Level(); err != nil {
		return &ValidationError{Path: "log_level", Err: err}
	}
	return nil
}

// ConnectTimeout parses engine.connect_timeout.
func (c *Config) ConnectTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Engine.ConnectTimeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

// Level maps log_level to a slog level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}
