package engine

import (
	"errors"
	"sync"
)

// ErrReplyAlreadySent is returned by a second Reply.Send.
var ErrReplyAlreadySent = errors.New("navigation reply already sent")

// Reply is a single-use answer to an AllowNavigation request.
type Reply struct {
	mu   sync.Mutex
	sent bool
	send func(allow bool)
}

// NewReply returns a Reply that delivers its answer to send. send must not
// block.
func NewReply(send func(allow bool)) *Reply {
	return &Reply{send: send}
}

// NewChanReply returns a Reply and the channel its answer arrives on. The
// channel is buffered so Send never blocks.
func NewChanReply() (*Reply, <-chan bool) {
	ch := make(chan bool, 1)
	return NewReply(func(allow bool) { ch <- allow }), ch
}

// Send delivers the decision. Only the first call has an effect.
func (r *Reply) Send(allow bool) error {
	r.mu.Lock()
	if r.sent {
		r.mu.Unlock()
		return ErrReplyAlreadySent
	}
	r.sent = true
	r.mu.Unlock()

	if r.send != nil {
		r.send(allow)
	}
	return nil
}

// Sent reports whether the decision has been delivered.
func (r *Reply) Sent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}
