// Package session maps native windows to the engine sessions rendered in
// them.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/1broseidon/browsershell/internal/engine"
	"github.com/1broseidon/browsershell/internal/navpolicy"
	"github.com/1broseidon/browsershell/internal/platform"
)

// ErrUnknownWindow is returned for a window id that was never created.
var ErrUnknownWindow = errors.New("unknown window")

// Topology selects how browser sessions relate to windows.
type Topology string

const (
	// TopologyPerWindow gives every window its own browser session.
	TopologyPerWindow Topology = "per-window"
	// TopologyShared renders one browser session into every window.
	TopologyShared Topology = "shared"
)

// Entry is everything the shell tracks for one window.
type Entry struct {
	Window  platform.Window
	Browser engine.Browser
	View    engine.View
	URL     *url.URL
	Origin  navpolicy.Origin
}

// ID returns the entry's window id.
func (e *Entry) ID() platform.WindowID {
	return e.Window.ID()
}

// Registry owns the window -> session association. It is not safe for
// concurrent use: only the host loop goroutine may touch it.
type Registry struct {
	engine   engine.Engine
	windows  platform.WindowFactory
	topology Topology
	logger   *slog.Logger

	entries map[platform.WindowID]*Entry
	order   []platform.WindowID

	// shared is the single session used by TopologyShared.
	shared       engine.Browser
	sharedURL    *url.URL
	sharedOrigin navpolicy.Origin
}

// Config holds the collaborators a Registry creates sessions with.
type Config struct {
	Engine   engine.Engine
	Windows  platform.WindowFactory
	Topology Topology
	Logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) *Registry {
	topology := cfg.Topology
	if topology == "" {
		topology = TopologyPerWindow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		engine:   cfg.Engine,
		windows:  cfg.Windows,
		topology: topology,
		logger:   logger,
		entries:  make(map[platform.WindowID]*Entry),
	}
}

// Topology returns the topology sessions are created with.
func (r *Registry) Topology() Topology {
	return r.topology
}

// Create opens a window showing rawURL and registers it. In the shared
// topology rawURL only starts the session when it does not exist yet;
// later windows attach another view to it.
func (r *Registry) Create(rawURL string) (platform.WindowID, error) {
	u, err := engine.ParseURL(rawURL)
	if err != nil {
		return platform.NoWindow, err
	}

	win, err := r.windows.NewWindow()
	if err != nil {
		return platform.NoWindow, fmt.Errorf("failed to create window: %w", err)
	}

	// A window whose session could not be set up is destroyed again.
	fail := func(err error) (platform.WindowID, error) {
		win.Destroy()
		return platform.NoWindow, err
	}

	geometry := win.Geometry()
	compositor, err := r.engine.NewCompositor(win.Surface(), win.Waker(), geometry)
	if err != nil {
		return fail(fmt.Errorf("failed to create compositor: %w", err))
	}
	view, err := compositor.NewView(geometry)
	if err != nil {
		return fail(fmt.Errorf("failed to create view: %w", err))
	}

	entry := &Entry{Window: win, View: view, URL: u, Origin: navpolicy.OriginOf(u)}

	switch r.topology {
	case TopologyShared:
		if r.shared == nil {
			browser, err := r.newBrowser(u, view)
			if err != nil {
				return fail(err)
			}
			r.shared = browser
			r.sharedURL = u
			r.sharedOrigin = entry.Origin
		} else if err := r.shared.AddView(view); err != nil {
			return fail(fmt.Errorf("failed to attach view to shared session: %w", err))
		}
		entry.Browser = r.shared
		entry.URL = r.sharedURL
		entry.Origin = r.sharedOrigin
	default:
		browser, err := r.newBrowser(u, view)
		if err != nil {
			return fail(err)
		}
		entry.Browser = browser
	}

	id := win.ID()
	r.entries[id] = entry
	r.order = append(r.order, id)

	r.logger.Info("window created",
		"window_id", id,
		"url", entry.URL.String(),
		"origin", entry.Origin.Domain,
		"topology", r.topology)

	return id, nil
}

func (r *Registry) newBrowser(u *url.URL, view engine.View) (engine.Browser, error) {
	browser, err := r.engine.NewBrowser(u, view)
	if err != nil {
		if errors.Is(err, engine.ErrNavigation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", engine.ErrNavigation, u, err)
	}
	return browser, nil
}

// Get returns the entry for id. The entry is borrowed for the current
// dispatch step only.
func (r *Registry) Get(id platform.WindowID) (*Entry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWindow, id)
	}
	return entry, nil
}

// ForEach calls fn for every entry in creation order.
func (r *Registry) ForEach(fn func(*Entry)) {
	for _, id := range r.order {
		fn(r.entries[id])
	}
}

// Len returns the number of registered windows.
func (r *Registry) Len() int {
	return len(r.order)
}

// IDs returns window ids in creation order.
func (r *Registry) IDs() []platform.WindowID {
	out := make([]platform.WindowID, len(r.order))
	copy(out, r.order)
	return out
}
