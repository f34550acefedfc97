package remote

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/browsershell/internal/engine"
	"github.com/1broseidon/browsershell/internal/platform"
)

// MessageType identifies a frame on the engine socket.
type MessageType string

const (
	// Engine -> shell.
	MsgHello    MessageType = "hello"
	MsgResult   MessageType = "result"
	MsgEvent    MessageType = "event"
	MsgNavigate MessageType = "allow_navigation"

	// Shell -> engine.
	MsgNewCompositor  MessageType = "new_compositor"
	MsgNewView        MessageType = "new_view"
	MsgNewBrowser     MessageType = "new_browser"
	MsgAddView        MessageType = "add_view"
	MsgHandleEvent    MessageType = "handle_event"
	MsgPerformUpdates MessageType = "perform_updates"
	MsgBack           MessageType = "back"
	MsgForward        MessageType = "forward"
	MsgReload         MessageType = "reload"
	MsgLoad           MessageType = "load"
	MsgNavigateReply  MessageType = "navigation_reply"
)

// Message is one JSON frame. Requests that expect an answer carry a
// non-zero Seq that the engine echoes in its result.
type Message struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	Target  uint64          `json:"target,omitempty"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HelloPayload is the engine's greeting.
type HelloPayload struct {
	Version string `json:"version"`
}

// ResultPayload answers a creation request.
type ResultPayload struct {
	ID uint64 `json:"id"`
}

type compositorPayload struct {
	Window   uint32        `json:"window"`
	Drawable uint32        `json:"drawable"`
	Depth    uint8         `json:"depth"`
	Geometry platform.Rect `json:"geometry"`
}

type viewPayload struct {
	Compositor uint64        `json:"compositor"`
	Geometry   platform.Rect `json:"geometry"`
}

type browserPayload struct {
	URL  string `json:"url"`
	View uint64 `json:"view"`
}

type addViewPayload struct {
	View uint64 `json:"view"`
}

type loadPayload struct {
	URL string `json:"url"`
}

type navigationRequestPayload struct {
	Request uint64 `json:"request"`
	URL     string `json:"url"`
}

type navigationReplyPayload struct {
	Request uint64 `json:"request"`
	Allow   bool   `json:"allow"`
}

// eventPayload is the wire form of both engine events (engine -> shell)
// and window events (shell -> engine). Kind selects which fields apply.
type eventPayload struct {
	Kind    string        `json:"kind"`
	Cursor  string        `json:"cursor,omitempty"`
	Text    *string       `json:"text,omitempty"`
	Key     uint32        `json:"key,omitempty"`
	Mods    uint8         `json:"mods,omitempty"`
	Pressed bool          `json:"pressed,omitempty"`
	Button  uint8         `json:"button,omitempty"`
	X       int           `json:"x,omitempty"`
	Y       int           `json:"y,omitempty"`
	DX      int           `json:"dx,omitempty"`
	DY      int           `json:"dy,omitempty"`
	Size    platform.Rect `json:"size,omitempty"`
	Command string        `json:"command,omitempty"`
	URL     string        `json:"url,omitempty"`
}

// decodeEvent converts an engine event frame. Kinds this shell does not
// know become engine.Unhandled.
func decodeEvent(raw json.RawMessage) (engine.Event, error) {
	var p eventPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}

	switch p.Kind {
	case "present":
		return engine.Present{}, nil
	case "cursor_changed":
		return engine.CursorChanged{Cursor: platform.ParseCursor(p.Cursor)}, nil
	case "title_changed":
		return engine.TitleChanged{Title: p.Text}, nil
	case "status_changed":
		return engine.StatusChanged{Status: p.Text}, nil
	case "load_start":
		return engine.LoadStart{}, nil
	case "load_end":
		return engine.LoadEnd{}, nil
	case "url_changed":
		u, err := engine.ParseURL(p.URL)
		if err != nil {
			return nil, err
		}
		return engine.URLChanged{URL: u}, nil
	case "key":
		state := platform.KeyReleased
		if p.Pressed {
			state = platform.KeyPressed
		}
		return engine.KeyEvent{
			Key:   platform.Key(p.Key),
			Mods:  platform.Modifiers(p.Mods),
			State: state,
		}, nil
	default:
		return engine.Unhandled{Kind: p.Kind, Raw: raw}, nil
	}
}

// encodeWindowEvent converts a window event for handle_event.
func encodeWindowEvent(ev platform.WindowEvent) (eventPayload, error) {
	switch ev := ev.(type) {
	case platform.KeyEvent:
		return eventPayload{Kind: "key", Key: uint32(ev.Key), Mods: uint8(ev.Mods), Pressed: ev.State == platform.KeyPressed}, nil
	case platform.MouseButton:
		return eventPayload{Kind: "mouse_button", Button: ev.Button, Pressed: ev.Pressed, X: ev.X, Y: ev.Y}, nil
	case platform.MouseMove:
		return eventPayload{Kind: "mouse_move", X: ev.X, Y: ev.Y}, nil
	case platform.Scroll:
		return eventPayload{Kind: "scroll", DX: ev.DX, DY: ev.DY, X: ev.X, Y: ev.Y}, nil
	case platform.Resize:
		return eventPayload{Kind: "resize", Size: ev.Size}, nil
	case platform.Refresh:
		return eventPayload{Kind: "refresh"}, nil
	case platform.Idle:
		return eventPayload{Kind: "idle"}, nil
	case platform.Navigate:
		return eventPayload{Kind: "navigate", Command: ev.Command.String(), URL: ev.URL}, nil
	default:
		return eventPayload{}, fmt.Errorf("unsupported window event %T", ev)
	}
}
