package platform

// WindowEvent is an OS-originated event delivered by the host loop.
type WindowEvent interface {
	isWindowEvent()
}

// Key is an X keysym value.
type Key uint32

const (
	KeyBackSpace Key = 0xff08
	KeyReturn    Key = 0xff0d
	KeyEscape    Key = 0xff1b
	KeyLeft      Key = 0xff51
	KeyUp        Key = 0xff52
	KeyRight     Key = 0xff53
	KeyDown      Key = 0xff54
	KeyF5        Key = 0xffc2
	KeyR         Key = 0x0072
)

// Modifiers is a bit set of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

// KeyState distinguishes presses from releases.
type KeyState int

const (
	KeyPressed KeyState = iota
	KeyReleased
)

// KeyBinding is a modifier set plus a key.
type KeyBinding struct {
	Mods Modifiers
	Key  Key
}

// Matches reports whether the binding is triggered by key with exactly mods held.
func (b KeyBinding) Matches(key Key, mods Modifiers) bool {
	return b.Key != 0 && b.Key == key && b.Mods == mods
}

// NavCommand is a history/navigation command.
type NavCommand int

const (
	NavLoad NavCommand = iota
	NavBack
	NavForward
	NavReload
)

func (c NavCommand) String() string {
	switch c {
	case NavLoad:
		return "load"
	case NavBack:
		return "back"
	case NavForward:
		return "forward"
	case NavReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Idle signals that the engine's wake primitive fired.
type Idle struct{}

// KeyEvent is a keyboard press or release.
type KeyEvent struct {
	Key   Key
	Mods  Modifiers
	State KeyState
}

// MouseButton is a pointer button press or release.
type MouseButton struct {
	Button  uint8
	Pressed bool
	X, Y    int
}

// MouseMove is pointer motion inside a window.
type MouseMove struct {
	X, Y int
}

// Scroll is a wheel step. Positive DY scrolls down.
type Scroll struct {
	DX, DY int
	X, Y   int
}

// Resize reports a new window size.
type Resize struct {
	Size Rect
}

// Refresh asks the engine to repaint an exposed window.
type Refresh struct{}

// Navigate is a navigation command targeted at a window.
type Navigate struct {
	Command NavCommand
	URL     string
}

func (Idle) isWindowEvent()        {}
func (KeyEvent) isWindowEvent()    {}
func (MouseButton) isWindowEvent() {}
func (MouseMove) isWindowEvent()   {}
func (Scroll) isWindowEvent()      {}
func (Resize) isWindowEvent()      {}
func (Refresh) isWindowEvent()     {}
func (Navigate) isWindowEvent()    {}

// Handler processes one (event, window) pair. A non-nil error stops the host
// loop and is returned from EventSource.Run.
type Handler func(ev WindowEvent, win WindowID) error

// EventSource is the host windowing loop. Run blocks for the lifetime of the
// program.
type EventSource interface {
	Run(h Handler) error
}

// Poster injects events into a running EventSource from other goroutines.
// Posted events are delivered in order on the loop goroutine.
type Poster interface {
	Post(ev WindowEvent, win WindowID)
}
