package engine

import (
	"fmt"
	"net/url"

	"github.com/1broseidon/browsershell/internal/platform"
)

// Event is a browser event drained from a view's queue.
type Event interface {
	isEvent()
}

// Present asks the shell to show the frame the compositor just finished.
type Present struct{}

// CursorChanged requests a new pointer shape.
type CursorChanged struct {
	Cursor platform.Cursor
}

// TitleChanged carries the page title. Title is nil when the page has none.
type TitleChanged struct {
	Title *string
}

// StatusChanged carries the status-bar text, nil when cleared.
type StatusChanged struct {
	Status *string
}

// LoadStart fires when a top-level load begins.
type LoadStart struct{}

// LoadEnd fires when a top-level load completes.
type LoadEnd struct{}

// URLChanged reports the URL the view now shows, after a load commits or the
// session moves through its history.
type URLChanged struct {
	URL *url.URL
}

// AllowNavigation asks whether the session may follow a navigation to URL.
// Reply must be sent exactly once.
type AllowNavigation struct {
	URL   *url.URL
	Reply *Reply
}

// KeyEvent is a key the page did not consume.
type KeyEvent struct {
	Key   platform.Key
	Mods  platform.Modifiers
	State platform.KeyState
}

// Unhandled wraps an event kind this shell does not know about.
type Unhandled struct {
	Kind string
	Raw  []byte
}

func (Present) isEvent()         {}
func (CursorChanged) isEvent()   {}
func (TitleChanged) isEvent()    {}
func (StatusChanged) isEvent()   {}
func (LoadStart) isEvent()       {}
func (LoadEnd) isEvent()         {}
func (URLChanged) isEvent()      {}
func (AllowNavigation) isEvent() {}
func (KeyEvent) isEvent()        {}
func (Unhandled) isEvent()       {}

// ParseURL parses an absolute URL.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrURLParse, raw, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: %q: missing scheme", ErrURLParse, raw)
	}
	return u, nil
}
