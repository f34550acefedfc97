package x11

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/1broseidon/browsershell/internal/platform"
)

const (
	wakeAtomName = "_BROWSERSHELL_WAKE"
	postAtomName = "_BROWSERSHELL_POST"
)

// Options configures a Connection.
type Options struct {
	// Display overrides $DISPLAY when non-empty.
	Display      string
	WindowWidth  int
	WindowHeight int
	Logger       *slog.Logger
}

type postedEvent struct {
	ev  platform.WindowEvent
	win platform.WindowID
}

// Connection manages the X11 connection and implements the host event loop
// for every window the shell opens.
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	opts   Options
	logger *slog.Logger

	// loopWin is an unmapped InputOnly window that receives wake and post
	// client messages.
	loopWin  xproto.Window
	wakeAtom xproto.Atom
	postAtom xproto.Atom

	wakePending atomic.Bool
	quit        atomic.Bool

	postMu sync.Mutex
	posted []postedEvent

	// Loop goroutine only.
	handler platform.Handler
	err     error
	windows []*Window
	cursors map[platform.Cursor]xproto.Cursor
}

var (
	_ platform.EventSource   = (*Connection)(nil)
	_ platform.WindowFactory = (*Connection)(nil)
	_ platform.Poster        = (*Connection)(nil)
)

// NewConnection establishes a connection to the X11 server and prepares the
// loop window.
func NewConnection(opts Options) (*Connection, error) {
	if opts.WindowWidth <= 0 {
		opts.WindowWidth = 1024
	}
	if opts.WindowHeight <= 0 {
		opts.WindowHeight = 768
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	xu, err := xgbutil.NewConnDisplay(opts.Display)
	if err != nil {
		return nil, err
	}

	// Required before any keysym lookups.
	keybind.Initialize(xu)

	c := &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		opts:    opts,
		logger:  logger,
		cursors: make(map[platform.Cursor]xproto.Cursor),
	}

	if c.wakeAtom, err = xprop.Atm(xu, wakeAtomName); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to intern %s: %w", wakeAtomName, err)
	}
	if c.postAtom, err = xprop.Atm(xu, postAtomName); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to intern %s: %w", postAtomName, err)
	}
	if err := c.createLoopWindow(); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create loop window: %w", err)
	}

	xevent.ClientMessageFun(c.handleClientMessage).Connect(xu, c.loopWin)
	return c, nil
}

func (c *Connection) createLoopWindow() error {
	conn := c.XUtil.Conn()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return err
	}

	// InputOnly window that never draws anything; only a target for client
	// messages sent from other goroutines.
	err = xproto.CreateWindowChecked(
		conn,
		0, // depth (must be 0 for InputOnly)
		wid,
		c.Root,
		-1, -1, // x, y
		1, 1, // width, height
		0, // border_width
		xproto.WindowClassInputOnly,
		xproto.Visualid(0), // CopyFromParent
		0,
		nil,
	).Check()
	if err != nil {
		return err
	}

	c.loopWin = wid
	return nil
}

// Run starts the X11 event loop and feeds every event to h. It blocks until
// h returns an error or Shutdown is called.
func (c *Connection) Run(h platform.Handler) error {
	c.handler = h
	if c.hasPosted() {
		c.sendClientMessage(c.postAtom)
	}
	xevent.Main(c.XUtil)
	return c.err
}

// Post queues ev for delivery on the loop goroutine. Safe for concurrent use.
func (c *Connection) Post(ev platform.WindowEvent, win platform.WindowID) {
	c.postMu.Lock()
	c.posted = append(c.posted, postedEvent{ev: ev, win: win})
	c.postMu.Unlock()
	c.sendClientMessage(c.postAtom)
}

// Wake posts an idle event. Wakes that arrive while one is still pending are
// coalesced into it.
func (c *Connection) Wake() {
	if c.wakePending.CompareAndSwap(false, true) {
		c.sendClientMessage(c.wakeAtom)
	}
}

// Shutdown stops Run after the event currently being handled. Safe for
// concurrent use.
func (c *Connection) Shutdown() {
	c.quit.Store(true)
	c.sendClientMessage(c.postAtom)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

func (c *Connection) hasPosted() bool {
	c.postMu.Lock()
	defer c.postMu.Unlock()
	return len(c.posted) > 0
}

func (c *Connection) sendClientMessage(atom xproto.Atom) {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: c.loopWin,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{0, 0, 0, 0, 0}),
	}
	// An empty event mask delivers the message to the client that created
	// the destination window, which is us.
	xproto.SendEvent(c.XUtil.Conn(), false, c.loopWin, xproto.EventMaskNoEvent, string(ev.Bytes()))
}

func (c *Connection) handleClientMessage(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
	if c.quit.Load() {
		xevent.Quit(xu)
		return
	}

	switch ev.Type {
	case c.wakeAtom:
		c.wakePending.Store(false)
		c.dispatch(platform.Idle{}, platform.NoWindow)
	case c.postAtom:
		c.postMu.Lock()
		pending := c.posted
		c.posted = nil
		c.postMu.Unlock()
		for _, p := range pending {
			c.dispatch(p.ev, p.win)
		}
	}
}

// dispatch hands one event to the handler. After the first handler error
// every later event is dropped and the loop exits.
func (c *Connection) dispatch(ev platform.WindowEvent, win platform.WindowID) {
	if c.err != nil || c.handler == nil {
		return
	}
	if err := c.handler(ev, win); err != nil {
		c.err = err
		xevent.Quit(c.XUtil)
	}
}

// ResolveBinding turns an xgbutil key sequence such as "Mod1-Left" into a
// KeyBinding.
func (c *Connection) ResolveBinding(seq string) (platform.KeyBinding, error) {
	if seq == "" {
		return platform.KeyBinding{}, nil
	}
	mods, codes, err := keybind.ParseString(c.XUtil, seq)
	if err != nil {
		return platform.KeyBinding{}, fmt.Errorf("invalid key sequence %q: %w", seq, err)
	}
	if len(codes) == 0 {
		return platform.KeyBinding{}, fmt.Errorf("invalid key sequence %q: no keycode", seq)
	}
	return platform.KeyBinding{
		Mods: modsFromState(mods),
		Key:  platform.Key(keybind.KeysymGet(c.XUtil, codes[0], 0)),
	}, nil
}

// modsFromState keeps the modifiers bindings care about. Lock, NumLock and
// the mouse button bits are dropped.
func modsFromState(state uint16) platform.Modifiers {
	var mods platform.Modifiers
	if state&xproto.ModMaskShift != 0 {
		mods |= platform.ModShift
	}
	if state&xproto.ModMaskControl != 0 {
		mods |= platform.ModControl
	}
	if state&xproto.ModMask1 != 0 {
		mods |= platform.ModAlt
	}
	if state&xproto.ModMask4 != 0 {
		mods |= platform.ModSuper
	}
	return mods
}
