package model

import (
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"
)

var (
	ErrInvalidInitEvent  = errors.New("first order event must be initialized")
	ErrEventIDMismatch   = errors.New("event id does not match aggregate id")
	ErrInvalidTransition = errors.New("invalid order state transition")
	ErrEmptyEventLog     = errors.New("event log is empty")
)

// OrderStatus tracks the lifecycle of an order.
type OrderStatus uint8

const (
	OrderStatusUnknown OrderStatus = iota
	OrderStatusInitialized
	OrderStatusSubmitted
	OrderStatusAccepted
	OrderStatusWorking
	OrderStatusPartiallyFilled
	OrderStatusFilled
	OrderStatusCancelled
	OrderStatusRejected
	OrderStatusExpired
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusInitialized:
		return "initialized"
	case OrderStatusSubmitted:
		return "submitted"
	case OrderStatusAccepted:
		return "accepted"
	case OrderStatusWorking:
		return "working"
	case OrderStatusPartiallyFilled:
		return "partially_filled"
	case OrderStatusFilled:
		return "filled"
	case OrderStatusCancelled:
		return "cancelled"
	case OrderStatusRejected:
		return "rejected"
	case OrderStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Order is the execution core's view of one order. State evolves only by
// applying events in order; the aggregate enforces its own transition order
// before any database call.
type Order struct {
	id         OrderID
	traderID   TraderID
	strategyID StrategyID
	accountID  AccountID
	positionID PositionID
	symbol     string
	side       OrderSide
	orderType  OrderType
	price      decimal.Decimal
	quantity   decimal.Decimal
	filledQty  decimal.Decimal
	status     OrderStatus
	events     []OrderEvent
}

// NewOrder creates an order from its initialized event.
func NewOrder(init OrderEvent) (*Order, error) {
	if init.Kind != OrderEventInitialized {
		return nil, ErrInvalidInitEvent
	}
	if init.OrderID == "" {
		return nil, errors.New("order id is empty")
	}
	if init.TraderID == "" || init.AccountID == "" || init.PositionID == "" {
		return nil, errors.Errorf("order %s init event is missing identifiers", init.OrderID)
	}
	o := &Order{
		id:         init.OrderID,
		traderID:   init.TraderID,
		strategyID: init.StrategyID,
		accountID:  init.AccountID,
		positionID: init.PositionID,
		symbol:     init.Symbol,
		side:       init.Side,
		orderType:  init.OrderType,
		price:      init.Price,
		quantity:   init.Quantity,
		status:     OrderStatusInitialized,
		events:     []OrderEvent{init},
	}
	return o, nil
}

// OrderFromEvents rebuilds an order by replaying its event log.
func OrderFromEvents(events []OrderEvent) (*Order, error) {
	if len(events) == 0 {
		return nil, ErrEmptyEventLog
	}
	o, err := NewOrder(events[0])
	if err != nil {
		return nil, err
	}
	for _, e := range events[1:] {
		if err := o.Apply(e); err != nil {
			return nil, errors.Wrap(err, "replay order events")
		}
	}
	return o, nil
}

func (o *Order) ID() OrderID               { return o.id }
func (o *Order) TraderID() TraderID        { return o.traderID }
func (o *Order) StrategyID() StrategyID    { return o.strategyID }
func (o *Order) AccountID() AccountID      { return o.accountID }
func (o *Order) PositionID() PositionID    { return o.positionID }
func (o *Order) Symbol() string            { return o.symbol }
func (o *Order) Side() OrderSide           { return o.side }
func (o *Order) OrderType() OrderType      { return o.orderType }
func (o *Order) Price() decimal.Decimal    { return o.price }
func (o *Order) Quantity() decimal.Decimal { return o.quantity }
func (o *Order) Status() OrderStatus       { return o.status }

// LastEvent returns the most recently applied event.
func (o *Order) LastEvent() OrderEvent { return o.events[len(o.events)-1] }

// EventCount returns the number of applied events.
func (o *Order) EventCount() int { return len(o.events) }

// Events returns a copy of the applied event log.
func (o *Order) Events() []OrderEvent {
	out := make([]OrderEvent, len(o.events))
	copy(out, o.events)
	return out
}

// IsWorking reports whether the order is outstanding at the broker.
func (o *Order) IsWorking() bool {
	switch o.status {
	case OrderStatusSubmitted, OrderStatusAccepted, OrderStatusWorking, OrderStatusPartiallyFilled:
		return true
	default:
		return false
	}
}

// IsCompleted reports whether the order reached a terminal state.
func (o *Order) IsCompleted() bool {
	switch o.status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusExpired:
		return true
	default:
		return false
	}
}

// Apply advances the order by one event, rejecting invalid transitions.
func (o *Order) Apply(e OrderEvent) error {
	if e.OrderID != o.id {
		return ErrEventIDMismatch
	}
	next, ok := transition(o.status, e.Kind)
	if !ok {
		return errors.Wrap(ErrInvalidTransition, o.status.String()+" -> "+e.Kind.String())
	}
	switch e.Kind {
	case OrderEventModified:
		o.price = e.Price
		o.quantity = e.Quantity
	case OrderEventPartiallyFilled, OrderEventFilled:
		o.filledQty = e.FilledQty
	}
	o.status = next
	o.events = append(o.events, e)
	return nil
}

// transition maps (status, event) to the next status. Modified does not
// change the status.
func transition(from OrderStatus, kind OrderEventKind) (OrderStatus, bool) {
	switch from {
	case OrderStatusInitialized:
		switch kind {
		case OrderEventSubmitted:
			return OrderStatusSubmitted, true
		case OrderEventRejected:
			return OrderStatusRejected, true
		case OrderEventCancelled:
			return OrderStatusCancelled, true
		}
	case OrderStatusSubmitted:
		switch kind {
		case OrderEventAccepted:
			return OrderStatusAccepted, true
		case OrderEventWorking:
			return OrderStatusWorking, true
		case OrderEventRejected:
			return OrderStatusRejected, true
		case OrderEventCancelled:
			return OrderStatusCancelled, true
		}
	case OrderStatusAccepted:
		switch kind {
		case OrderEventWorking:
			return OrderStatusWorking, true
		case OrderEventCancelled:
			return OrderStatusCancelled, true
		case OrderEventExpired:
			return OrderStatusExpired, true
		case OrderEventModified:
			return OrderStatusAccepted, true
		}
	case OrderStatusWorking:
		switch kind {
		case OrderEventPartiallyFilled:
			return OrderStatusPartiallyFilled, true
		case OrderEventFilled:
			return OrderStatusFilled, true
		case OrderEventCancelled:
			return OrderStatusCancelled, true
		case OrderEventExpired:
			return OrderStatusExpired, true
		case OrderEventModified:
			return OrderStatusWorking, true
		}
	case OrderStatusPartiallyFilled:
		switch kind {
		case OrderEventPartiallyFilled:
			return OrderStatusPartiallyFilled, true
		case OrderEventFilled:
			return OrderStatusFilled, true
		case OrderEventCancelled:
			return OrderStatusCancelled, true
		case OrderEventExpired:
			return OrderStatusExpired, true
		}
	}
	return OrderStatusUnknown, false
}

// BracketOrder groups an entry order with its protective stop-loss and an
// optional take-profit, added to the database as one unit.
type BracketOrder struct {
	Entry      *Order
	StopLoss   *Order
	TakeProfit *Order
}

// Orders returns the non-nil orders of the bracket in entry, stop-loss,
// take-profit order.
func (b BracketOrder) Orders() []*Order {
	out := make([]*Order, 0, 3)
	if b.Entry != nil {
		out = append(out, b.Entry)
	}
	if b.StopLoss != nil {
		out = append(out, b.StopLoss)
	}
	if b.TakeProfit != nil {
		out = append(out, b.TakeProfit)
	}
	return out
}
