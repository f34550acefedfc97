package remote

import (
	"testing"

	"github.com/1broseidon/browsershell/internal/engine"
	"github.com/1broseidon/browsershell/internal/platform"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		check func(engine.Event) bool
	}{
		{"present", `{"kind":"present"}`, func(ev engine.Event) bool {
			_, ok := ev.(engine.Present)
			return ok
		}},
		{"cursor", `{"kind":"cursor_changed","cursor":"pointer"}`, func(ev engine.Event) bool {
			c, ok := ev.(engine.CursorChanged)
			return ok && c.Cursor == platform.CursorPointer
		}},
		{"url changed", `{"kind":"url_changed","url":"https://example.com/about"}`, func(ev engine.Event) bool {
			u, ok := ev.(engine.URLChanged)
			return ok && u.URL.String() == "https://example.com/about"
		}},
		{"unknown kind", `{"kind":"favicon_changed"}`, func(ev engine.Event) bool {
			u, ok := ev.(engine.Unhandled)
			return ok && u.Kind == "favicon_changed"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := decodeEvent([]byte(tt.frame))
			if err != nil {
				t.Fatalf("decodeEvent(%s) error: %v", tt.frame, err)
			}
			if !tt.check(ev) {
				t.Fatalf("decodeEvent(%s) = %#v", tt.frame, ev)
			}
		})
	}
}

func TestDecodeEvent_Errors(t *testing.T) {
	for _, frame := range []string{`{"kind":`, `{"kind":"url_changed","url":"no scheme"}`} {
		if _, err := decodeEvent([]byte(frame)); err == nil {
			t.Fatalf("decodeEvent(%s) succeeded, want error", frame)
		}
	}
}
