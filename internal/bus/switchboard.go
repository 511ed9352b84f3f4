package bus

import (
	"fmt"
	"sync/atomic"

	"github.com/yanun0323/errors"
)

var ErrEmptyAddressMap = errors.New("switchboard address map is empty")

// DeadLetterHandler receives envelopes that could not be routed.
type DeadLetterHandler func(Envelope)

// Switchboard resolves addresses to endpoints through an immutable snapshot.
// Install replaces the snapshot wholesale; a snapshot is never mutated in
// place, so the address set is observed consistently within one dispatch.
type Switchboard struct {
	snapshot   atomic.Pointer[map[Address]*Mailbox]
	deadLetter atomic.Pointer[DeadLetterHandler]
}

// NewSwitchboard creates a switchboard from an address map. An empty map is
// a configuration error.
func NewSwitchboard(routes map[Address]*Mailbox) (*Switchboard, error) {
	if len(routes) == 0 {
		return nil, ErrEmptyAddressMap
	}
	s := EmptySwitchboard()
	s.install(routes)
	return s, nil
}

// EmptySwitchboard returns a switchboard with no routes installed. The
// default dead-letter handler panics so an incompletely wired topology
// surfaces at startup or test time instead of silently dropping messages.
func EmptySwitchboard() *Switchboard {
	s := &Switchboard{}
	empty := map[Address]*Mailbox{}
	s.snapshot.Store(&empty)
	h := DeadLetterHandler(func(e Envelope) {
		panic(fmt.Sprintf("dead letter with no handler registered: receiver=%s type=%s",
			e.Receiver, TypeName(messageType(e.Message))))
	})
	s.deadLetter.Store(&h)
	return s
}

// Install atomically replaces the whole address snapshot.
func (s *Switchboard) Install(routes map[Address]*Mailbox) error {
	if len(routes) == 0 {
		return ErrEmptyAddressMap
	}
	s.install(routes)
	return nil
}

func (s *Switchboard) install(routes map[Address]*Mailbox) {
	copied := make(map[Address]*Mailbox, len(routes))
	for addr, mb := range routes {
		copied[addr] = mb
	}
	s.snapshot.Store(&copied)
}

// SendToReceiver delivers an addressed envelope, reporting whether the
// receiver resolved. Unresolved envelopes go to the dead-letter handler,
// never silently dropped.
func (s *Switchboard) SendToReceiver(e Envelope) bool {
	routes := *s.snapshot.Load()
	mb, ok := routes[e.Receiver]
	if !ok || mb == nil {
		(*s.deadLetter.Load())(e)
		return false
	}
	if err := mb.Post(e); err != nil {
		(*s.deadLetter.Load())(e)
		return false
	}
	return true
}

// RegisterDeadLetterHandler replaces the default panic handler.
func (s *Switchboard) RegisterDeadLetterHandler(h DeadLetterHandler) {
	if h == nil {
		return
	}
	s.deadLetter.Store(&h)
}

// Len returns the number of installed routes.
func (s *Switchboard) Len() int {
	return len(*s.snapshot.Load())
}

func messageType(m Message) MessageType {
	if m == nil {
		return 0
	}
	return m.Type()
}
