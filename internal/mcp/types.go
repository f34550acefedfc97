package mcp

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// WindowInfo describes a single browser window.
type WindowInfo struct {
	Window uint32 `json:"window"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Origin string `json:"origin,omitempty"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// StatusInput is the input for the status tool.
type StatusInput struct{}

// StatusOutput is the output for the status tool.
type StatusOutput struct {
	EngineVersion string `json:"engine_version"`
	Topology      string `json:"topology"`
	WindowCount   int    `json:"window_count"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// NavigateInput is the input for the navigate tool.
type NavigateInput struct {
	URL    string `json:"url" jsonschema:"required,Absolute URL to load (scheme required)"`
	Window uint32 `json:"window,omitempty" jsonschema:"Target window id from list_windows (default: first window)"`
}

// WindowInput targets go_back, go_forward and reload.
type WindowInput struct {
	Window uint32 `json:"window,omitempty" jsonschema:"Target window id from list_windows (default: first window)"`
}

// CommandOutput reports which window a command was sent to.
type CommandOutput struct {
	Window uint32 `json:"window"`
	Sent   bool   `json:"sent"`
}
