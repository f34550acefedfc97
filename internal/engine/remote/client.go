// Package remote binds the shell to an engine process over a websocket. All
// frames are JSON Messages; the engine pushes events and navigation requests
// at any time and the client queues them per view until the shell drains
// them.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/1broseidon/browsershell/internal/engine"
	"github.com/1broseidon/browsershell/internal/platform"
)

const (
	defaultRequestTimeout = 10 * time.Second
	writeTimeout          = 10 * time.Second
	outboxSize            = 256
)

// ErrDisconnected is returned once the engine socket has closed.
var ErrDisconnected = errors.New("engine disconnected")

// Options configures Dial.
type Options struct {
	// RequestTimeout bounds creation requests (compositor, view, browser).
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Client is an engine.Engine backed by a remote engine process.
type Client struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	version string
	timeout time.Duration

	seq    atomic.Uint64
	outbox chan Message
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	pending map[uint64]*call
	views   map[uint64]*View
	err     error
}

// call is a request waiting for its result. bind, when set, runs on the
// read goroutine with the new object's id before the caller is woken, so
// frames the engine sends right after the result already find it.
type call struct {
	ch   chan Message
	bind func(id uint64)
}

var _ engine.Engine = (*Client)(nil)

// Dial connects to the engine at endpoint and waits for its hello.
func Dial(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", engine.ErrEngineInit, endpoint, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	} else {
		conn.SetReadDeadline(time.Now().Add(timeout))
	}
	var hello Message
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: waiting for hello: %v", engine.ErrEngineInit, err)
	}
	if hello.Type != MsgHello {
		conn.Close()
		return nil, fmt.Errorf("%w: expected hello, got %q", engine.ErrEngineInit, hello.Type)
	}
	var hp HelloPayload
	if err := json.Unmarshal(hello.Payload, &hp); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: bad hello: %v", engine.ErrEngineInit, err)
	}
	conn.SetReadDeadline(time.Time{})

	c := &Client{
		conn:    conn,
		logger:  logger,
		version: hp.Version,
		timeout: timeout,
		outbox:  make(chan Message, outboxSize),
		done:    make(chan struct{}),
		pending: make(map[uint64]*call),
		views:   make(map[uint64]*View),
	}
	go c.writePump()
	go c.readLoop()
	return c, nil
}

// Version returns the version the engine announced.
func (c *Client) Version() string {
	return c.version
}

// Done is closed when the engine connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the connection ended, if it has.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close shuts the connection down.
func (c *Client) Close() error {
	c.shutdown(ErrDisconnected)
	return nil
}

func (c *Client) shutdown(reason error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.err = reason
		for seq, pc := range c.pending {
			close(pc.ch)
			delete(c.pending, seq)
		}
		c.mu.Unlock()
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.outbox:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("engine write failed", "type", msg.Type, "error", err)
				c.shutdown(fmt.Errorf("%w: %v", ErrDisconnected, err))
				return
			}
		}
	}
}

func (c *Client) readLoop() {
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Error("engine connection lost", "error", err)
			}
			c.shutdown(fmt.Errorf("%w: %v", ErrDisconnected, err))
			return
		}

		switch msg.Type {
		case MsgResult:
			c.mu.Lock()
			pc, ok := c.pending[msg.Seq]
			delete(c.pending, msg.Seq)
			c.mu.Unlock()
			if !ok {
				continue
			}
			if pc.bind != nil && msg.Error == "" {
				var p ResultPayload
				if err := json.Unmarshal(msg.Payload, &p); err == nil {
					pc.bind(p.ID)
				}
			}
			pc.ch <- msg
		case MsgEvent:
			ev, err := decodeEvent(msg.Payload)
			if err != nil {
				c.logger.Warn("dropping malformed engine event", "view", msg.Target, "error", err)
				continue
			}
			c.enqueue(msg.Target, ev)
		case MsgNavigate:
			c.navigationRequest(msg)
		default:
			c.logger.Warn("unexpected engine message", "type", msg.Type)
		}
	}
}

func (c *Client) navigationRequest(msg Message) {
	var p navigationRequestPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		c.logger.Warn("malformed navigation request", "error", err)
		return
	}
	reply := engine.NewReply(func(allow bool) {
		c.send(Message{Type: MsgNavigateReply, Target: msg.Target, Payload: mustJSON(navigationReplyPayload{Request: p.Request, Allow: allow})})
	})

	target, err := engine.ParseURL(p.URL)
	if err != nil {
		c.logger.Warn("denying navigation to unparsable url", "url", p.URL, "error", err)
		reply.Send(false)
		return
	}
	c.enqueue(msg.Target, engine.AllowNavigation{URL: target, Reply: reply})
}

func (c *Client) enqueue(viewID uint64, ev engine.Event) {
	c.mu.Lock()
	v, ok := c.views[viewID]
	c.mu.Unlock()
	if !ok {
		c.logger.Warn("engine event for unknown view", "view", viewID)
		if nav, isNav := ev.(engine.AllowNavigation); isNav {
			nav.Reply.Send(false)
		}
		return
	}
	v.push(ev)
}

// send queues msg for the write pump. It never waits for the engine: an
// engine that stops reading until the outbox fills is disconnected.
func (c *Client) send(msg Message) error {
	select {
	case <-c.done:
		return c.Err()
	default:
	}
	select {
	case c.outbox <- msg:
		return nil
	case <-c.done:
		return c.Err()
	default:
		err := fmt.Errorf("%w: outbox full after %d frames", ErrDisconnected, cap(c.outbox))
		c.logger.Error("engine is not reading, disconnecting", "type", msg.Type, "queued", cap(c.outbox))
		c.shutdown(err)
		return err
	}
}

// request sends msg and waits for the engine's result. bind is passed on to
// the read goroutine, see call.
func (c *Client) request(msg Message, bind func(id uint64)) (uint64, error) {
	msg.Seq = c.seq.Add(1)
	ch := make(chan Message, 1)

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return 0, err
	}
	c.pending[msg.Seq] = &call{ch: ch, bind: bind}
	c.mu.Unlock()

	if err := c.send(msg); err != nil {
		return 0, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case res, ok := <-ch:
		if !ok {
			return 0, c.Err()
		}
		if res.Error != "" {
			return 0, errors.New(res.Error)
		}
		if len(res.Payload) == 0 {
			return 0, nil
		}
		var p ResultPayload
		if err := json.Unmarshal(res.Payload, &p); err != nil {
			return 0, fmt.Errorf("malformed %s result: %w", msg.Type, err)
		}
		return p.ID, nil
	case <-timer.C:
		c.mu.Lock()
		delete(c.pending, msg.Seq)
		c.mu.Unlock()
		return 0, fmt.Errorf("%s timed out after %s", msg.Type, c.timeout)
	}
}

// NewCompositor asks the engine to render into surface.
func (c *Client) NewCompositor(surface platform.Surface, waker platform.Waker, geometry platform.Rect) (engine.Compositor, error) {
	id, err := c.request(Message{Type: MsgNewCompositor, Payload: mustJSON(compositorPayload{
		Window:   uint32(surface.Window),
		Drawable: surface.Drawable,
		Depth:    surface.Depth,
		Geometry: geometry,
	})}, nil)
	if err != nil {
		return nil, fmt.Errorf("new compositor: %w", err)
	}
	return &Compositor{client: c, id: id, waker: waker}, nil
}

// NewBrowser starts a browsing session on u rendered into view.
func (c *Client) NewBrowser(u *url.URL, view engine.View) (engine.Browser, error) {
	v, ok := view.(*View)
	if !ok {
		return nil, fmt.Errorf("remote: foreign view %T", view)
	}
	id, err := c.request(Message{Type: MsgNewBrowser, Payload: mustJSON(browserPayload{URL: u.String(), View: v.id})}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", engine.ErrNavigation, u, err)
	}
	return &Browser{client: c, id: id}, nil
}

// Compositor is a remote compositor.
type Compositor struct {
	client *Client
	id     uint64
	waker  platform.Waker
}

// NewView creates a view on the compositor's surface.
func (co *Compositor) NewView(geometry platform.Rect) (engine.View, error) {
	c := co.client
	v := &View{waker: co.waker}
	register := func(id uint64) {
		v.id = id
		c.mu.Lock()
		c.views[id] = v
		c.mu.Unlock()
	}
	_, err := c.request(Message{Type: MsgNewView, Payload: mustJSON(viewPayload{Compositor: co.id, Geometry: geometry})}, register)
	if err != nil {
		return nil, fmt.Errorf("new view: %w", err)
	}
	return v, nil
}

// View buffers the events the engine pushed for one view.
type View struct {
	id    uint64
	waker platform.Waker

	mu    sync.Mutex
	queue []engine.Event
}

func (v *View) push(ev engine.Event) {
	v.mu.Lock()
	v.queue = append(v.queue, ev)
	v.mu.Unlock()
	if v.waker != nil {
		v.waker.Wake()
	}
}

// Events drains the queue.
func (v *View) Events() []engine.Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.queue
	v.queue = nil
	return out
}

// Browser is a remote browsing session.
type Browser struct {
	client *Client
	id     uint64
}

func (b *Browser) command(t MessageType, payload any) error {
	msg := Message{Type: t, Target: b.id}
	if payload != nil {
		msg.Payload = mustJSON(payload)
	}
	return b.client.send(msg)
}

func (b *Browser) HandleEvent(ev platform.WindowEvent) error {
	p, err := encodeWindowEvent(ev)
	if err != nil {
		return err
	}
	return b.command(MsgHandleEvent, p)
}

func (b *Browser) PerformUpdates() error { return b.command(MsgPerformUpdates, nil) }

func (b *Browser) Back() error { return b.command(MsgBack, nil) }

func (b *Browser) Forward() error { return b.command(MsgForward, nil) }

func (b *Browser) Reload() error { return b.command(MsgReload, nil) }

func (b *Browser) Load(u *url.URL) error {
	return b.command(MsgLoad, loadPayload{URL: u.String()})
}

// AddView renders the session into another view as well.
func (b *Browser) AddView(view engine.View) error {
	v, ok := view.(*View)
	if !ok {
		return fmt.Errorf("remote: foreign view %T", view)
	}
	_, err := b.client.request(Message{Type: MsgAddView, Target: b.id, Payload: mustJSON(addViewPayload{View: v.id})}, nil)
	return err
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("remote: marshal %T: %v", v, err))
	}
	return data
}
