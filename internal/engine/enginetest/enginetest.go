// Package enginetest provides an in-memory engine that records every call,
// for tests of code that drives an engine.
package enginetest

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/1broseidon/browsershell/internal/engine"
	"github.com/1broseidon/browsershell/internal/platform"
)

// Engine is a recording engine.Engine.
type Engine struct {
	mu          sync.Mutex
	calls       []string
	Compositors []*Compositor
	Views       []*View
	Browsers    []*Browser

	// NewBrowserErr, when set, is returned by NewBrowser.
	NewBrowserErr error
}

var _ engine.Engine = (*Engine)(nil)

// New returns an empty recording engine.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) record(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
}

// Calls returns the call log in order.
func (e *Engine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	copy(out, e.calls)
	return out
}

// ResetCalls clears the call log.
func (e *Engine) ResetCalls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

func (e *Engine) Version() string { return "enginetest/1.0" }

func (e *Engine) Close() error { return nil }

func (e *Engine) NewCompositor(surface platform.Surface, waker platform.Waker, geometry platform.Rect) (engine.Compositor, error) {
	c := &Compositor{engine: e, Surface: surface, Waker: waker, Geometry: geometry}
	e.mu.Lock()
	e.Compositors = append(e.Compositors, c)
	c.name = fmt.Sprintf("compositor%d", len(e.Compositors))
	e.mu.Unlock()
	e.record("%s.new", c.name)
	return c, nil
}

func (e *Engine) NewBrowser(u *url.URL, view engine.View) (engine.Browser, error) {
	if e.NewBrowserErr != nil {
		return nil, e.NewBrowserErr
	}
	v, ok := view.(*View)
	if !ok {
		return nil, fmt.Errorf("enginetest: foreign view %T", view)
	}
	b := &Browser{engine: e, URL: u.String(), Views: []*View{v}}
	e.mu.Lock()
	e.Browsers = append(e.Browsers, b)
	b.Name = fmt.Sprintf("browser%d", len(e.Browsers))
	e.mu.Unlock()
	e.record("%s.new %s", b.Name, u)
	return b, nil
}

// Compositor is a recording engine.Compositor.
type Compositor struct {
	engine   *Engine
	name     string
	Surface  platform.Surface
	Waker    platform.Waker
	Geometry platform.Rect
}

func (c *Compositor) NewView(geometry platform.Rect) (engine.View, error) {
	v := &View{engine: c.engine, Compositor: c, Geometry: geometry}
	c.engine.mu.Lock()
	c.engine.Views = append(c.engine.Views, v)
	v.Name = fmt.Sprintf("view%d", len(c.engine.Views))
	c.engine.mu.Unlock()
	c.engine.record("%s.new", v.Name)
	return v, nil
}

// View is a recording engine.View with a test-controlled queue.
type View struct {
	engine     *Engine
	Name       string
	Compositor *Compositor
	Geometry   platform.Rect

	mu    sync.Mutex
	queue []engine.Event
}

// Queue appends events and fires the compositor's waker, the way a real
// engine signals new work.
func (v *View) Queue(events ...engine.Event) {
	v.mu.Lock()
	v.queue = append(v.queue, events...)
	v.mu.Unlock()
	if v.Compositor != nil && v.Compositor.Waker != nil {
		v.Compositor.Waker.Wake()
	}
}

func (v *View) Events() []engine.Event {
	v.mu.Lock()
	out := v.queue
	v.queue = nil
	v.mu.Unlock()
	v.engine.record("%s.events %d", v.Name, len(out))
	return out
}

// Browser is a recording engine.Browser.
type Browser struct {
	engine *Engine
	Name   string
	URL    string
	Views  []*View

	Handled  []platform.WindowEvent
	Updates  int
	Backs    int
	Forwards int
	Reloads  int
	Loaded   []string
}

func (b *Browser) HandleEvent(ev platform.WindowEvent) error {
	b.Handled = append(b.Handled, ev)
	b.engine.record("%s.handle %T", b.Name, ev)
	return nil
}

func (b *Browser) PerformUpdates() error {
	b.Updates++
	b.engine.record("%s.update", b.Name)
	return nil
}

func (b *Browser) Back() error {
	b.Backs++
	b.engine.record("%s.back", b.Name)
	return nil
}

func (b *Browser) Forward() error {
	b.Forwards++
	b.engine.record("%s.forward", b.Name)
	return nil
}

func (b *Browser) Reload() error {
	b.Reloads++
	b.engine.record("%s.reload", b.Name)
	return nil
}

func (b *Browser) Load(u *url.URL) error {
	b.Loaded = append(b.Loaded, u.String())
	b.engine.record("%s.load %s", b.Name, u)
	return nil
}

func (b *Browser) AddView(view engine.View) error {
	v, ok := view.(*View)
	if !ok {
		return fmt.Errorf("enginetest: foreign view %T", view)
	}
	b.Views = append(b.Views, v)
	b.engine.record("%s.addview %s", b.Name, v.Name)
	return nil
}
