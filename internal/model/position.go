package model

import (
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"
)

var (
	ErrInvalidOpenEvent = errors.New("first position event must be opened")
	ErrPositionClosed   = errors.New("position already closed")
)

// Position is the execution core's view of one net position. A position is
// open at creation and belongs to exactly one of open/closed thereafter.
// Quantities come from upstream events; the core never recomputes them.
type Position struct {
	id         PositionID
	traderID   TraderID
	strategyID StrategyID
	accountID  AccountID
	brokerID   BrokerPositionID
	symbol     string
	quantity   decimal.Decimal
	closed     bool
	events     []PositionEvent
}

// NewPosition creates a position from its opened event.
func NewPosition(open PositionEvent) (*Position, error) {
	if open.Kind != PositionEventOpened {
		return nil, ErrInvalidOpenEvent
	}
	if open.PositionID == "" {
		return nil, errors.New("position id is empty")
	}
	if open.TraderID == "" || open.AccountID == "" {
		return nil, errors.Errorf("position %s opened event is missing identifiers", open.PositionID)
	}
	return &Position{
		id:         open.PositionID,
		traderID:   open.TraderID,
		strategyID: open.StrategyID,
		accountID:  open.AccountID,
		brokerID:   open.BrokerID,
		symbol:     open.Symbol,
		quantity:   open.Quantity,
		events:     []PositionEvent{open},
	}, nil
}

// PositionFromEvents rebuilds a position by replaying its event log.
func PositionFromEvents(events []PositionEvent) (*Position, error) {
	if len(events) == 0 {
		return nil, ErrEmptyEventLog
	}
	p, err := NewPosition(events[0])
	if err != nil {
		return nil, err
	}
	for _, e := range events[1:] {
		if err := p.Apply(e); err != nil {
			return nil, errors.Wrap(err, "replay position events")
		}
	}
	return p, nil
}

func (p *Position) ID() PositionID             { return p.id }
func (p *Position) TraderID() TraderID         { return p.traderID }
func (p *Position) StrategyID() StrategyID     { return p.strategyID }
func (p *Position) AccountID() AccountID       { return p.accountID }
func (p *Position) BrokerID() BrokerPositionID { return p.brokerID }
func (p *Position) Symbol() string             { return p.symbol }
func (p *Position) Quantity() decimal.Decimal  { return p.quantity }

// IsOpen reports whether the position is still open.
func (p *Position) IsOpen() bool { return !p.closed }

// IsClosed reports whether the position has been closed.
func (p *Position) IsClosed() bool { return p.closed }

// LastEvent returns the most recently applied event.
func (p *Position) LastEvent() PositionEvent { return p.events[len(p.events)-1] }

// EventCount returns the number of applied events.
func (p *Position) EventCount() int { return len(p.events) }

// Events returns a copy of the applied event log.
func (p *Position) Events() []PositionEvent {
	out := make([]PositionEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Apply advances the position by one event.
func (p *Position) Apply(e PositionEvent) error {
	if e.PositionID != p.id {
		return ErrEventIDMismatch
	}
	if p.closed {
		return ErrPositionClosed
	}
	switch e.Kind {
	case PositionEventModified:
		p.quantity = e.Quantity
	case PositionEventClosed:
		p.quantity = e.Quantity
		p.closed = true
	default:
		return errors.Errorf("unexpected position event %s", e.Kind)
	}
	p.events = append(p.events, e)
	return nil
}
