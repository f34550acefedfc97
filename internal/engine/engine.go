// Package engine describes the browser engine the shell embeds. The engine
// itself runs out of process; these interfaces are the only operations the
// shell issues against it.
package engine

import (
	"errors"
	"net/url"

	"github.com/1broseidon/browsershell/internal/platform"
)

var (
	// ErrEngineInit reports that the engine could not be bootstrapped.
	ErrEngineInit = errors.New("engine init failed")
	// ErrURLParse reports a malformed URL.
	ErrURLParse = errors.New("invalid url")
	// ErrNavigation reports that the engine refused to start a session.
	ErrNavigation = errors.New("navigation failed")
)

// Engine is the process-wide engine handle (the constellation).
type Engine interface {
	Version() string
	NewCompositor(surface platform.Surface, waker platform.Waker, geometry platform.Rect) (Compositor, error)
	NewBrowser(u *url.URL, view View) (Browser, error)
	Close() error
}

// Compositor renders into one window surface.
type Compositor interface {
	NewView(geometry platform.Rect) (View, error)
}

// View is a renderable surface bound to one compositor. Engine events for a
// window are delivered through its view.
type View interface {
	// Events drains and returns every event queued since the last call. It
	// never blocks.
	Events() []Event
}

// Browser is a browsing session rendered into one or more views.
type Browser interface {
	HandleEvent(ev platform.WindowEvent) error
	PerformUpdates() error
	Back() error
	Forward() error
	Reload() error
	Load(u *url.URL) error
	AddView(view View) error
}
