package bus

import (
	"context"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/obs"
)

// Adapter combines the three category buses behind one facade and owns the
// shared switchboard. Components send through the adapter; the adapter picks
// the bus from the message's category token.
type Adapter struct {
	switchboard *Switchboard
	commands    *MessageBus
	events      *MessageBus
	documents   *MessageBus
	clock       func() time.Time
}

// NewAdapter builds the three buses over one empty switchboard.
func NewAdapter(metrics *obs.Metrics) *Adapter {
	switchboard := EmptySwitchboard()
	return &Adapter{
		switchboard: switchboard,
		commands:    NewMessageBus(CategoryCommand, switchboard, metrics),
		events:      NewMessageBus(CategoryEvent, switchboard, metrics),
		documents:   NewMessageBus(CategoryDocument, switchboard, metrics),
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

// Switchboard exposes the shared switchboard.
func (a *Adapter) Switchboard() *Switchboard { return a.switchboard }

// InitializeSwitchboard installs the full address snapshot, replacing any
// previous snapshot wholesale.
func (a *Adapter) InitializeSwitchboard(routes map[Address]*Mailbox) error {
	return a.switchboard.Install(routes)
}

// RegisterDeadLetterHandler replaces the fail-fast default handler. Register
// a real handler before accepting traffic.
func (a *Adapter) RegisterDeadLetterHandler(h DeadLetterHandler) {
	a.switchboard.RegisterDeadLetterHandler(h)
}

// Send routes a message to a named receiver via its category bus.
func (a *Adapter) Send(receiver, sender Address, msg Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	if receiver.IsZero() {
		return errors.New("receiver address is empty")
	}
	b, err := a.busFor(msg.Category())
	if err != nil {
		return err
	}
	return b.Send(NewEnvelope(msg, sender, receiver, a.clock()))
}

// Publish fans a message out to its type subscribers.
func (a *Adapter) Publish(sender Address, msg Message) error {
	if msg == nil {
		return ErrNilMessage
	}
	b, err := a.busFor(msg.Category())
	if err != nil {
		return err
	}
	return b.Send(NewEnvelope(msg, sender, "", a.clock()))
}

// Subscribe registers a mailbox for a message type on its category bus. An
// unregistered token is a logged no-op.
func (a *Adapter) Subscribe(t MessageType, mb *Mailbox) {
	category, ok := TypeCategory(t)
	if !ok {
		logs.Warnf("subscribe ignored: unregistered message type token %d", t)
		return
	}
	b, err := a.busFor(category)
	if err != nil {
		logs.Warnf("subscribe ignored, err: %+v", err)
		return
	}
	b.Subscribe(t, mb)
}

// Unsubscribe removes a mailbox from a message type's subscriber list.
func (a *Adapter) Unsubscribe(t MessageType, mb *Mailbox) {
	category, ok := TypeCategory(t)
	if !ok {
		return
	}
	b, err := a.busFor(category)
	if err != nil {
		return
	}
	b.Unsubscribe(t, mb)
}

// CommandBus returns the command bus.
func (a *Adapter) CommandBus() *MessageBus { return a.commands }

// EventBus returns the event bus.
func (a *Adapter) EventBus() *MessageBus { return a.events }

// DocumentBus returns the document bus.
func (a *Adapter) DocumentBus() *MessageBus { return a.documents }

// Start launches all three bus workers.
func (a *Adapter) Start(ctx context.Context) {
	a.commands.Start(ctx)
	a.events.Start(ctx)
	a.documents.Start(ctx)
}

// Stop drains the buses in reverse start order.
func (a *Adapter) Stop() {
	a.documents.Stop()
	a.events.Stop()
	a.commands.Stop()
}

func (a *Adapter) busFor(c Category) (*MessageBus, error) {
	switch c {
	case CategoryCommand:
		return a.commands, nil
	case CategoryEvent:
		return a.events, nil
	case CategoryDocument:
		return a.documents, nil
	default:
		return nil, errors.Errorf("no bus for category %s", c)
	}
}
