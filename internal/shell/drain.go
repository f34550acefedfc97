package shell

import (
	"fmt"

	"github.com/1broseidon/browsershell/internal/engine"
	"github.com/1broseidon/browsershell/internal/navpolicy"
	"github.com/1broseidon/browsershell/internal/platform"
	"github.com/1broseidon/browsershell/internal/session"
)

// idle drains each window and lets its session make progress right after.
// A session shared by several windows is updated once, after the last of
// its views has been drained.
func (s *Shell) idle() {
	last := make(map[engine.Browser]platform.WindowID)
	s.registry.ForEach(func(e *session.Entry) {
		last[e.Browser] = e.ID()
	})

	s.registry.ForEach(func(e *session.Entry) {
		s.drain(e)
		if last[e.Browser] != e.ID() {
			return
		}
		if err := e.Browser.PerformUpdates(); err != nil {
			s.logger.Warn("perform updates failed", "window_id", e.ID(), "error", err)
		}
	})

	if s.dirty {
		s.publish()
	}
}

func (s *Shell) drain(e *session.Entry) {
	for _, ev := range e.View.Events() {
		switch ev := ev.(type) {
		case engine.Present:
			e.Window.Present()
		case engine.CursorChanged:
			e.Window.SetCursor(ev.Cursor)
		case engine.TitleChanged:
			title := NoTitle
			if ev.Title != nil {
				title = *ev.Title
			}
			s.setTitle(e, title)
		case engine.LoadStart:
			s.setTitle(e, LoadingTitle)
		case engine.URLChanged:
			s.setURL(e, ev.URL)
		case engine.LoadEnd, engine.StatusChanged:
		case engine.AllowNavigation:
			s.allowNavigation(e, ev)
		case engine.KeyEvent:
			s.pageKey(e, ev)
		case engine.Unhandled:
			s.logger.Warn("unhandled browser event", "window_id", e.ID(), "kind", ev.Kind)
		default:
			s.logger.Warn("unhandled browser event", "window_id", e.ID(), "event", fmt.Sprintf("%T", ev))
		}
	}
}

func (s *Shell) allowNavigation(e *session.Entry, ev engine.AllowNavigation) {
	if ev.Reply == nil {
		s.logger.Error("navigation request without reply channel", "window_id", e.ID())
		return
	}

	allow := ev.URL != nil && navpolicy.Allow(e.Origin, ev.URL)
	if err := ev.Reply.Send(allow); err != nil {
		s.logger.Error("navigation reply failed", "window_id", e.ID(), "error", err)
		return
	}
	if allow || ev.URL == nil {
		return
	}

	target := ev.URL.String()
	s.logger.Info("navigation leaves origin, opening externally",
		"window_id", e.ID(),
		"origin", e.Origin.Domain,
		"url", target)
	if err := s.opener.Open(target); err != nil {
		s.logger.Warn("failed to open url externally", "url", target, "error", err)
	}
}

// pageKey applies bindings to keys the page did not consume.
func (s *Shell) pageKey(e *session.Entry, ev engine.KeyEvent) {
	if ev.State != platform.KeyPressed {
		return
	}
	if s.bindings.Reload.Matches(ev.Key, ev.Mods) {
		if err := e.Browser.Reload(); err != nil {
			s.logger.Warn("reload failed", "window_id", e.ID(), "error", err)
		}
	}
}
