package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xcursor"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/browsershell/internal/platform"
)

const windowEventMask = xproto.EventMaskKeyPress |
	xproto.EventMaskKeyRelease |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskStructureNotify |
	xproto.EventMaskExposure

// Glyphs from the X core cursor font (X11/cursorfont.h).
var cursorGlyphs = map[platform.Cursor]uint16{
	platform.CursorDefault:    68,  // XC_left_ptr
	platform.CursorPointer:    60,  // XC_hand2
	platform.CursorText:       152, // XC_xterm
	platform.CursorWait:       150, // XC_watch
	platform.CursorProgress:   150, // XC_watch
	platform.CursorCrosshair:  34,  // XC_crosshair
	platform.CursorMove:       52,  // XC_fleur
	platform.CursorNotAllowed: 0,   // XC_X_cursor
	platform.CursorHelp:       92,  // XC_question_arrow
	platform.CursorEWResize:   108, // XC_sb_h_double_arrow
	platform.CursorNSResize:   116, // XC_sb_v_double_arrow
	platform.CursorGrab:       58,  // XC_hand1
}

// Window is a top-level X11 window with an off-screen back buffer the engine
// renders into.
type Window struct {
	conn     *Connection
	win      *xwindow.Window
	back     xproto.Pixmap
	gc       xproto.Gcontext
	depth    byte
	bufW     int
	bufH     int
	geometry platform.Rect
}

var _ platform.Window = (*Window)(nil)

// NewWindow creates, maps and starts listening to a new top-level window.
func (c *Connection) NewWindow() (platform.Window, error) {
	xu := c.XUtil
	conn := xu.Conn()
	screen := xu.Screen()

	xwin, err := xwindow.Generate(xu)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}

	rect := c.placement(len(c.windows))
	err = xwin.CreateChecked(c.Root, rect.X, rect.Y, rect.Width, rect.Height,
		xproto.CwBackPixel|xproto.CwEventMask,
		screen.WhitePixel, windowEventMask)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w := &Window{
		conn:     c,
		win:      xwin,
		depth:    screen.RootDepth,
		bufW:     int(screen.WidthInPixels),
		bufH:     int(screen.HeightInPixels),
		geometry: rect,
	}

	// The back buffer covers the whole screen so resizes never reallocate
	// the drawable the engine holds.
	if w.back, err = xproto.NewPixmapId(conn); err != nil {
		xwin.Destroy()
		return nil, err
	}
	err = xproto.CreatePixmapChecked(conn, w.depth, w.back, xproto.Drawable(xwin.Id),
		screen.WidthInPixels, screen.HeightInPixels).Check()
	if err != nil {
		xwin.Destroy()
		return nil, fmt.Errorf("failed to create back buffer: %w", err)
	}
	if w.gc, err = xproto.NewGcontextId(conn); err != nil {
		xwin.Destroy()
		return nil, err
	}
	err = xproto.CreateGCChecked(conn, w.gc, xproto.Drawable(xwin.Id),
		xproto.GcGraphicsExposures, []uint32{0}).Check()
	if err != nil {
		xwin.Destroy()
		return nil, fmt.Errorf("failed to create graphics context: %w", err)
	}

	if err := icccm.WmClassSet(xu, xwin.Id, &icccm.WmClass{
		Instance: "browsershell",
		Class:    "Browsershell",
	}); err != nil {
		c.logger.Warn("failed to set WM_CLASS", "window_id", xwin.Id, "error", err)
	}

	w.connectEvents()
	xwin.Map()
	c.windows = append(c.windows, w)
	return w, nil
}

func (w *Window) ID() platform.WindowID {
	return platform.WindowID(w.win.Id)
}

func (w *Window) Surface() platform.Surface {
	return platform.Surface{
		Window:   w.ID(),
		Drawable: uint32(w.back),
		Depth:    w.depth,
		Width:    w.bufW,
		Height:   w.bufH,
	}
}

func (w *Window) Geometry() platform.Rect {
	return w.geometry
}

func (w *Window) Waker() platform.Waker {
	return w.conn
}

// SetCursor changes the pointer shape shown over the window.
func (w *Window) SetCursor(c platform.Cursor) {
	cursor, err := w.conn.cursor(c)
	if err != nil {
		w.conn.logger.Warn("failed to create cursor", "cursor", c.String(), "error", err)
		return
	}
	xproto.ChangeWindowAttributes(w.conn.XUtil.Conn(), w.win.Id, xproto.CwCursor, []uint32{uint32(cursor)})
}

// SetTitle sets both the EWMH and ICCCM window names.
func (w *Window) SetTitle(title string) {
	if err := ewmh.WmNameSet(w.conn.XUtil, w.win.Id, title); err != nil {
		w.conn.logger.Warn("failed to set _NET_WM_NAME", "window_id", w.win.Id, "error", err)
	}
	if err := icccm.WmNameSet(w.conn.XUtil, w.win.Id, title); err != nil {
		w.conn.logger.Warn("failed to set WM_NAME", "window_id", w.win.Id, "error", err)
	}
}

// Destroy frees the back buffer and graphics context, detaches every event
// handler and destroys the window.
func (w *Window) Destroy() {
	conn := w.conn.XUtil.Conn()
	xproto.FreeGC(conn, w.gc)
	xproto.FreePixmap(conn, w.back)
	w.win.Destroy()
	for i, other := range w.conn.windows {
		if other == w {
			w.conn.windows = append(w.conn.windows[:i], w.conn.windows[i+1:]...)
			break
		}
	}
}

// Present copies the back buffer onto the visible window.
func (w *Window) Present() {
	width := min(w.geometry.Width, w.bufW)
	height := min(w.geometry.Height, w.bufH)
	xproto.CopyArea(w.conn.XUtil.Conn(),
		xproto.Drawable(w.back), xproto.Drawable(w.win.Id), w.gc,
		0, 0, 0, 0, uint16(width), uint16(height))
}

func (c *Connection) cursor(cur platform.Cursor) (xproto.Cursor, error) {
	if cur == platform.CursorNone {
		// The core font has no blank glyph; fall back to the parent's cursor.
		return xproto.CursorNone, nil
	}
	if cached, ok := c.cursors[cur]; ok {
		return cached, nil
	}
	glyph, ok := cursorGlyphs[cur]
	if !ok {
		glyph = cursorGlyphs[platform.CursorDefault]
	}
	created, err := xcursor.CreateCursor(c.XUtil, glyph)
	if err != nil {
		return 0, err
	}
	c.cursors[cur] = created
	return created, nil
}

func (w *Window) connectEvents() {
	xu := w.conn.XUtil
	id := w.win.Id
	wid := w.ID()

	xevent.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		w.conn.dispatch(platform.KeyEvent{
			Key:   platform.Key(keybind.KeysymGet(xu, ev.Detail, 0)),
			Mods:  modsFromState(ev.State),
			State: platform.KeyPressed,
		}, wid)
	}).Connect(xu, id)

	xevent.KeyReleaseFun(func(xu *xgbutil.XUtil, ev xevent.KeyReleaseEvent) {
		w.conn.dispatch(platform.KeyEvent{
			Key:   platform.Key(keybind.KeysymGet(xu, ev.Detail, 0)),
			Mods:  modsFromState(ev.State),
			State: platform.KeyReleased,
		}, wid)
	}).Connect(xu, id)

	xevent.ButtonPressFun(func(xu *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		x, y := int(ev.EventX), int(ev.EventY)
		if dx, dy, ok := scrollDelta(byte(ev.Detail)); ok {
			w.conn.dispatch(platform.Scroll{DX: dx, DY: dy, X: x, Y: y}, wid)
			return
		}
		w.conn.dispatch(platform.MouseButton{Button: byte(ev.Detail), Pressed: true, X: x, Y: y}, wid)
	}).Connect(xu, id)

	xevent.ButtonReleaseFun(func(xu *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		if _, _, ok := scrollDelta(byte(ev.Detail)); ok {
			return
		}
		w.conn.dispatch(platform.MouseButton{
			Button: byte(ev.Detail),
			X:      int(ev.EventX),
			Y:      int(ev.EventY),
		}, wid)
	}).Connect(xu, id)

	xevent.MotionNotifyFun(func(xu *xgbutil.XUtil, ev xevent.MotionNotifyEvent) {
		w.conn.dispatch(platform.MouseMove{X: int(ev.EventX), Y: int(ev.EventY)}, wid)
	}).Connect(xu, id)

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		width, height := int(ev.Width), int(ev.Height)
		if width == w.geometry.Width && height == w.geometry.Height {
			w.geometry.X, w.geometry.Y = int(ev.X), int(ev.Y)
			return
		}
		w.geometry = platform.Rect{X: int(ev.X), Y: int(ev.Y), Width: width, Height: height}
		w.conn.dispatch(platform.Resize{Size: w.geometry}, wid)
	}).Connect(xu, id)

	xevent.ExposeFun(func(xu *xgbutil.XUtil, ev xevent.ExposeEvent) {
		// Only the last expose of a batch triggers a repaint.
		if ev.Count == 0 {
			w.conn.dispatch(platform.Refresh{}, wid)
		}
	}).Connect(xu, id)
}

// scrollDelta maps the wheel buttons 4-7 to scroll steps.
func scrollDelta(button byte) (dx, dy int, ok bool) {
	switch button {
	case 4:
		return 0, -1, true
	case 5:
		return 0, 1, true
	case 6:
		return -1, 0, true
	case 7:
		return 1, 0, true
	default:
		return 0, 0, false
	}
}
