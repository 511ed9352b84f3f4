package bus

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/obs"
)

// MessageBus routes one category of messages. Addressed envelopes resolve
// through the switchboard only; unaddressed envelopes fan out to subscribers
// of the exact message type plus subscribers of the category-wide token.
// Zero subscribers absorb the message silently, which is not a dead letter.
type MessageBus struct {
	category    Category
	switchboard *Switchboard
	metrics     *obs.Metrics
	mailbox     *Mailbox

	mu   sync.RWMutex
	subs map[MessageType][]*Mailbox
}

// NewMessageBus creates a bus for one category sharing the given switchboard.
func NewMessageBus(category Category, switchboard *Switchboard, metrics *obs.Metrics) *MessageBus {
	b := &MessageBus{
		category:    category,
		switchboard: switchboard,
		metrics:     metrics,
		subs:        make(map[MessageType][]*Mailbox),
	}
	b.mailbox = NewMailbox(Address("bus."+category.String()), b.dispatch)
	return b
}

// Endpoint returns the bus's own inbound mailbox.
func (b *MessageBus) Endpoint() *Mailbox { return b.mailbox }

// Send enqueues an envelope for dispatch on the bus worker.
func (b *MessageBus) Send(e Envelope) error {
	if e.Message == nil {
		return ErrNilMessage
	}
	if e.Message.Category() != b.category {
		return errors.Errorf("%s message sent to %s bus", e.Message.Category(), b.category)
	}
	return b.mailbox.Post(e)
}

// Subscribe adds a mailbox to the type's subscriber list. Subscription is
// idempotent; a token foreign to the bus's category is a logged no-op.
func (b *MessageBus) Subscribe(t MessageType, mb *Mailbox) {
	if mb == nil {
		return
	}
	category, ok := TypeCategory(t)
	if !ok || category != b.category {
		logs.Warnf("subscribe ignored: type %s does not belong to the %s bus", TypeName(t), b.category)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.subs[t] {
		if existing == mb {
			return
		}
	}
	b.subs[t] = append(b.subs[t], mb)
}

// Unsubscribe removes a mailbox from the type's subscriber list.
func (b *MessageBus) Unsubscribe(t MessageType, mb *Mailbox) {
	if mb == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[t]
	for i, existing := range subs {
		if existing == mb {
			b.subs[t] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// SubscriptionCount returns the number of subscribers for a type token.
func (b *MessageBus) SubscriptionCount(t MessageType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[t])
}

// HasSubscriber reports whether the mailbox is subscribed to the token.
func (b *MessageBus) HasSubscriber(t MessageType, mb *Mailbox) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, existing := range b.subs[t] {
		if existing == mb {
			return true
		}
	}
	return false
}

// Start launches the bus worker.
func (b *MessageBus) Start(ctx context.Context) { b.mailbox.Start(ctx) }

// Stop drains the bus's own mailbox before returning.
func (b *MessageBus) Stop() { b.mailbox.Stop() }

func (b *MessageBus) dispatch(e Envelope) {
	start := time.Now()
	defer func() { b.metrics.ObserveDispatch(time.Since(start)) }()

	if !e.Receiver.IsZero() {
		if b.switchboard.SendToReceiver(e) {
			b.metrics.IncDelivered()
		} else {
			b.metrics.IncDeadLetter()
			logs.Warnf("dead letter: %s %s to unknown receiver %s",
				b.category, TypeName(e.Message.Type()), e.Receiver)
		}
		return
	}

	targets := b.targets(e.Message.Type())
	for _, mb := range targets {
		if err := mb.Post(e); err != nil {
			logs.Warnf("fan-out to %s failed, err: %+v", mb.Address(), err)
			continue
		}
		b.metrics.IncDelivered()
	}
}

// targets unions exact-type and category-wide subscribers, preserving
// subscription insertion order and delivering at most once per mailbox.
func (b *MessageBus) targets(t MessageType) []*Mailbox {
	b.mu.RLock()
	defer b.mu.RUnlock()

	exact := b.subs[t]
	base := b.subs[baseToken(b.category)]
	out := make([]*Mailbox, 0, len(exact)+len(base))
	out = append(out, exact...)
	for _, mb := range base {
		seen := false
		for _, existing := range exact {
			if existing == mb {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, mb)
		}
	}
	return out
}
