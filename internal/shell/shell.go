// Package shell runs the control loop that multiplexes host window events
// and engine events for every open window.
package shell

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync/atomic"

	"github.com/1broseidon/browsershell/internal/platform"
	"github.com/1broseidon/browsershell/internal/session"
)

const (
	// NoTitle is shown when a page has no title.
	NoTitle = "No Title"
	// LoadingTitle is shown while a top-level load is in progress.
	LoadingTitle = "Loading"
)

// Bindings are the key combinations the shell handles itself.
type Bindings struct {
	Back    platform.KeyBinding
	Forward platform.KeyBinding
	Reload  platform.KeyBinding
}

// DefaultBindings returns Alt+Left, Alt+Right and Ctrl+R.
func DefaultBindings() Bindings {
	return Bindings{
		Back:    platform.KeyBinding{Mods: platform.ModAlt, Key: platform.KeyLeft},
		Forward: platform.KeyBinding{Mods: platform.ModAlt, Key: platform.KeyRight},
		Reload:  platform.KeyBinding{Mods: platform.ModControl, Key: platform.KeyR},
	}
}

// Options configures a Shell.
type Options struct {
	Bindings Bindings
	Opener   Opener
	Logger   *slog.Logger
	// Exit terminates the process. Defaults to os.Exit.
	Exit func(code int)
}

// WindowInfo is a read-only view of one window, safe to hand to other
// goroutines.
type WindowInfo struct {
	ID     platform.WindowID `json:"id"`
	Title  string            `json:"title"`
	URL    string            `json:"url"` // current page, the start URL until the engine reports one
	Origin string            `json:"origin,omitempty"`
}

// Shell owns the session registry and dispatches every host event. All
// methods except Windows must be called from the host loop goroutine.
type Shell struct {
	registry *session.Registry
	bindings Bindings
	opener   Opener
	logger   *slog.Logger
	exit     func(int)

	titles   map[platform.WindowID]string
	urls     map[platform.WindowID]string
	dirty    bool
	snapshot atomic.Pointer[[]WindowInfo]
}

// New creates a shell around reg.
func New(reg *session.Registry, opts Options) *Shell {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exit := opts.Exit
	if exit == nil {
		exit = os.Exit
	}
	opener := opts.Opener
	if opener == nil {
		opener = NewCommandOpener(DefaultOpenerCommand, logger)
	}
	s := &Shell{
		registry: reg,
		bindings: opts.Bindings,
		opener:   opener,
		logger:   logger,
		exit:     exit,
		titles:   make(map[platform.WindowID]string),
		urls:     make(map[platform.WindowID]string),
	}
	s.publish()
	return s
}

// Open creates a window showing rawURL.
func (s *Shell) Open(rawURL string) (platform.WindowID, error) {
	id, err := s.registry.Create(rawURL)
	if err != nil {
		return platform.NoWindow, err
	}
	s.publish()
	return id, nil
}

// Run drives the shell from src until the host loop stops or a dispatch
// step fails.
func (s *Shell) Run(src platform.EventSource) error {
	return src.Run(s.Handle)
}

// Handle performs one dispatch step. The only error it returns wraps
// session.ErrUnknownWindow and means the host delivered an event for a
// window the shell never created.
func (s *Shell) Handle(ev platform.WindowEvent, win platform.WindowID) error {
	if win == platform.NoWindow {
		if _, ok := ev.(platform.Idle); ok {
			s.idle()
			return nil
		}
		s.logger.Warn("unexpected window-less window event", "event", fmt.Sprintf("%T", ev))
		return nil
	}

	entry, err := s.registry.Get(win)
	if err != nil {
		return err
	}
	s.forward(entry, ev)
	return nil
}

// Windows returns the most recently published window list. Safe for
// concurrent use.
func (s *Shell) Windows() []WindowInfo {
	p := s.snapshot.Load()
	if p == nil {
		return nil
	}
	out := make([]WindowInfo, len(*p))
	copy(out, *p)
	return out
}

func (s *Shell) setTitle(e *session.Entry, title string) {
	e.Window.SetTitle(title)
	if s.titles[e.ID()] != title {
		s.titles[e.ID()] = title
		s.dirty = true
	}
}

// setURL records the URL a window currently shows. The navigation origin
// stays the one the window was created with.
func (s *Shell) setURL(e *session.Entry, u *url.URL) {
	if u == nil {
		return
	}
	if current := u.String(); s.urls[e.ID()] != current {
		s.urls[e.ID()] = current
		s.dirty = true
	}
}

func (s *Shell) publish() {
	infos := make([]WindowInfo, 0, s.registry.Len())
	s.registry.ForEach(func(e *session.Entry) {
		current, ok := s.urls[e.ID()]
		if !ok {
			current = e.URL.String()
		}
		infos = append(infos, WindowInfo{
			ID:     e.ID(),
			Title:  s.titles[e.ID()],
			URL:    current,
			Origin: e.Origin.Domain,
		})
	})
	s.snapshot.Store(&infos)
	s.dirty = false
}
