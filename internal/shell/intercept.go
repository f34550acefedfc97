package shell

import (
	"fmt"

	"github.com/1broseidon/browsershell/internal/platform"
	"github.com/1broseidon/browsershell/internal/session"
)

// forward hands ev to the window's session unless the shell claims it.
func (s *Shell) forward(e *session.Entry, ev platform.WindowEvent) {
	if key, ok := ev.(platform.KeyEvent); ok && s.intercept(e, key) {
		return
	}
	if err := e.Browser.HandleEvent(ev); err != nil {
		s.logger.Warn("engine rejected event",
			"window_id", e.ID(),
			"event", fmt.Sprintf("%T", ev),
			"error", err)
	}
}

// intercept reports whether key was consumed. Back and forward swallow both
// press and release so the page never sees half a combination.
func (s *Shell) intercept(e *session.Entry, key platform.KeyEvent) bool {
	pressed := key.State == platform.KeyPressed

	switch {
	case key.Key == platform.KeyEscape:
		if !pressed {
			return true
		}
		s.logger.Info("escape pressed, exiting", "window_id", e.ID())
		s.exit(0)
		return true
	case s.bindings.Back.Matches(key.Key, key.Mods):
		if pressed {
			if err := e.Browser.Back(); err != nil {
				s.logger.Warn("back navigation failed", "window_id", e.ID(), "error", err)
			}
		}
		return true
	case s.bindings.Forward.Matches(key.Key, key.Mods):
		if pressed {
			if err := e.Browser.Forward(); err != nil {
				s.logger.Warn("forward navigation failed", "window_id", e.ID(), "error", err)
			}
		}
		return true
	}
	return false
}
