package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/yanun0323/errors"
)

var (
	ErrMailboxClosed = errors.New("mailbox closed")
	ErrNilMessage    = errors.New("nil message")
)

const defaultMailboxCapacity = 1024

// Poster is the sending side of an endpoint.
type Poster interface {
	Post(e Envelope) error
}

// Mailbox is an addressable single-consumer FIFO endpoint. Post is safe for
// concurrent use; the handler runs on exactly one worker goroutine, so no two
// envelopes for the same mailbox are processed concurrently.
type Mailbox struct {
	addr    Address
	handler func(Envelope)
	ch      chan Envelope
	done    chan struct{}
	started uint32

	mu     sync.RWMutex // excludes Post sends from the close in Stop
	closed bool
}

// NewMailbox creates a mailbox with the default capacity.
func NewMailbox(addr Address, handler func(Envelope)) *Mailbox {
	return NewMailboxWithCapacity(addr, defaultMailboxCapacity, handler)
}

// NewMailboxWithCapacity creates a mailbox with an explicit buffer size.
func NewMailboxWithCapacity(addr Address, capacity int, handler func(Envelope)) *Mailbox {
	if capacity <= 0 {
		capacity = 1
	}
	return &Mailbox{
		addr:    addr,
		handler: handler,
		ch:      make(chan Envelope, capacity),
		done:    make(chan struct{}),
	}
}

// Address returns the mailbox address.
func (m *Mailbox) Address() Address { return m.addr }

// Post enqueues an envelope, blocking while the buffer is full. The read lock
// is held across the send so Stop cannot close the channel under it.
func (m *Mailbox) Post(e Envelope) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrMailboxClosed
	}
	m.ch <- e
	return nil
}

// Start launches the worker. The worker exits when the context is done or
// when the mailbox is stopped and drained.
func (m *Mailbox) Start(ctx context.Context) {
	if !atomic.CompareAndSwapUint32(&m.started, 0, 1) {
		return
	}
	go m.run(ctx)
}

func (m *Mailbox) run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-m.ch:
			if !ok {
				return
			}
			if m.handler != nil {
				m.handler(e)
			}
		}
	}
}

// Stop closes the mailbox and waits for queued envelopes to drain. The write
// lock guarantees no Post is mid-send when the channel closes; a racing Post
// observes the closed flag and returns ErrMailboxClosed.
func (m *Mailbox) Stop() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.ch)
	m.mu.Unlock()
	if atomic.LoadUint32(&m.started) != 0 {
		<-m.done
	}
}
