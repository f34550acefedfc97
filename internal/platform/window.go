package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// NoWindow marks an event that was not produced by any particular window.
// X11 never hands out resource id 0, so it cannot collide with a real window.
const NoWindow WindowID = 0

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Surface is the drawable a compositor renders into. Present copies it onto
// the visible window.
type Surface struct {
	Window   WindowID
	Drawable uint32
	Depth    uint8
	Width    int
	Height   int
}

// Cursor is the pointer shape requested by a page.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorNone
	CursorPointer
	CursorText
	CursorWait
	CursorProgress
	CursorCrosshair
	CursorMove
	CursorNotAllowed
	CursorHelp
	CursorEWResize
	CursorNSResize
	CursorGrab
)

var cursorNames = map[Cursor]string{
	CursorDefault:    "default",
	CursorNone:       "none",
	CursorPointer:    "pointer",
	CursorText:       "text",
	CursorWait:       "wait",
	CursorProgress:   "progress",
	CursorCrosshair:  "crosshair",
	CursorMove:       "move",
	CursorNotAllowed: "not-allowed",
	CursorHelp:       "help",
	CursorEWResize:   "ew-resize",
	CursorNSResize:   "ns-resize",
	CursorGrab:       "grab",
}

// String returns the CSS name of the cursor.
func (c Cursor) String() string {
	if name, ok := cursorNames[c]; ok {
		return name
	}
	return "default"
}

// ParseCursor maps a CSS cursor name to a Cursor. Unknown names map to
// CursorDefault.
func ParseCursor(name string) Cursor {
	for c, n := range cursorNames {
		if n == name {
			return c
		}
	}
	return CursorDefault
}

// Waker posts an idle event to the host loop. It is safe to call from any
// goroutine.
type Waker interface {
	Wake()
}

// Window is a native top-level window owned by the shell.
type Window interface {
	ID() WindowID
	Surface() Surface
	Geometry() Rect
	Waker() Waker
	SetCursor(c Cursor)
	SetTitle(title string)
	Present()
	// Destroy releases the native window. The window must not be used
	// afterwards.
	Destroy()
}

// WindowFactory allocates native windows. It must be called from the
// goroutine that runs the host event loop.
type WindowFactory interface {
	NewWindow() (Window, error)
}
