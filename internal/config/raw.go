package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// StringList supports either a single string:
//
//	start_urls: "https://servo.org"
//
// or a list:
//
//	start_urls:
//	  - "https://servo.org"
//	  - "http://example.com"
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("must be a string or list of strings")
	}
}

// RawConfig mirrors Config with optional fields so that later files only
// override what they set.
type RawConfig struct {
	Include        StringList `yaml:"include"`
	StartURLs      StringList `yaml:"start_urls"`
	Topology       *string    `yaml:"topology"`
	Engine         RawEngine  `yaml:"engine"`
	Keys           RawKeys    `yaml:"keys"`
	Window         RawWindow  `yaml:"window"`
	ExternalOpener *string    `yaml:"external_opener"`
	LogLevel       *string    `yaml:"log_level"`
	ControlSocket  *string    `yaml:"control_socket"`
	Display        *string    `yaml:"display"`
}

type RawEngine struct {
	Endpoint       *string `yaml:"endpoint"`
	ConnectTimeout *string `yaml:"connect_timeout"`
}

type RawKeys struct {
	Back    *string `yaml:"back"`
	Forward *string `yaml:"forward"`
	Reload  *string `yaml:"reload"`
}

type RawWindow struct {
	Width  *int `yaml:"width"`
	Height *int `yaml:"height"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil
	if overlay.StartURLs != nil {
		out.StartURLs = append(StringList(nil), overlay.StartURLs...)
	}
	out.Topology = pick(c.Topology, overlay.Topology)
	out.Engine.Endpoint = pick(c.Engine.Endpoint, overlay.Engine.Endpoint)
	out.Engine.ConnectTimeout = pick(c.Engine.ConnectTimeout, overlay.Engine.ConnectTimeout)
	out.Keys.Back = pick(c.Keys.Back, overlay.Keys.Back)
	out.Keys.Forward = pick(c.Keys.Forward, overlay.Keys.Forward)
	out.Keys.Reload = pick(c.Keys.Reload, overlay.Keys.Reload)
	out.Window.Width = pick(c.Window.Width, overlay.Window.Width)
	out.Window.Height = pick(c.Window.Height, overlay.Window.Height)
	out.ExternalOpener = pick(c.ExternalOpener, overlay.ExternalOpener)
	out.LogLevel = pick(c.LogLevel, overlay.LogLevel)
	out.ControlSocket = pick(c.ControlSocket, overlay.ControlSocket)
	out.Display = pick(c.Display, overlay.Display)
	return out
}

func pick[T any](base, overlay *T) *T {
	if overlay != nil {
		return overlay
	}
	return base
}

// apply writes every field set in raw over cfg.
func (c RawConfig) apply(cfg *Config) {
	if c.StartURLs != nil {
		cfg.StartURLs = append([]string(nil), c.StartURLs...)
	}
	set(&cfg.Topology, c.Topology)
	set(&cfg.Engine.Endpoint, c.Engine.Endpoint)
	set(&cfg.Engine.ConnectTimeout, c.Engine.ConnectTimeout)
	set(&cfg.Keys.Back, c.Keys.Back)
	set(&cfg.Keys.Forward, c.Keys.Forward)
	set(&cfg.Keys.Reload, c.Keys.Reload)
	set(&cfg.Window.Width, c.Window.Width)
	set(&cfg.Window.Height, c.Window.Height)
	set(&cfg.ExternalOpener, c.ExternalOpener)
	set(&cfg.LogLevel, c.LogLevel)
	set(&cfg.ControlSocket, c.ControlSocket)
	set(&cfg.Display, c.Display)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
