package model

import (
	"time"

	"github.com/yanun0323/decimal"
)

// OrderEventKind identifies one step of an order's lifecycle.
type OrderEventKind uint8

const (
	OrderEventUnknown OrderEventKind = iota
	OrderEventInitialized
	OrderEventSubmitted
	OrderEventAccepted
	OrderEventWorking
	OrderEventPartiallyFilled
	OrderEventFilled
	OrderEventCancelled
	OrderEventRejected
	OrderEventExpired
	OrderEventModified
)

func (k OrderEventKind) String() string {
	switch k {
	case OrderEventInitialized:
		return "initialized"
	case OrderEventSubmitted:
		return "submitted"
	case OrderEventAccepted:
		return "accepted"
	case OrderEventWorking:
		return "working"
	case OrderEventPartiallyFilled:
		return "partially_filled"
	case OrderEventFilled:
		return "filled"
	case OrderEventCancelled:
		return "cancelled"
	case OrderEventRejected:
		return "rejected"
	case OrderEventExpired:
		return "expired"
	case OrderEventModified:
		return "modified"
	default:
		return "unknown"
	}
}

// OrderEvent is one appended entry of an order's event log. The initialized
// event carries the full order definition so an aggregate rebuilds from its
// log alone.
type OrderEvent struct {
	Kind       OrderEventKind  `json:"kind"`
	OrderID    OrderID         `json:"orderId"`
	TraderID   TraderID        `json:"traderId,omitempty"`
	StrategyID StrategyID      `json:"strategyId,omitempty"`
	AccountID  AccountID       `json:"accountId,omitempty"`
	PositionID PositionID      `json:"positionId,omitempty"`
	Symbol     string          `json:"symbol,omitempty"`
	Side       OrderSide       `json:"side,omitempty"`
	OrderType  OrderType       `json:"orderType,omitempty"`
	Price      decimal.Decimal `json:"price,omitempty"`
	Quantity   decimal.Decimal `json:"quantity,omitempty"`
	FilledQty  decimal.Decimal `json:"filledQty,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// PositionEventKind identifies one step of a position's lifecycle.
type PositionEventKind uint8

const (
	PositionEventUnknown PositionEventKind = iota
	PositionEventOpened
	PositionEventModified
	PositionEventClosed
)

func (k PositionEventKind) String() string {
	switch k {
	case PositionEventOpened:
		return "opened"
	case PositionEventModified:
		return "modified"
	case PositionEventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PositionEvent is one appended entry of a position's event log. Quantity is
// the signed net quantity after the event was applied upstream; the core
// stores it, it never recomputes it.
type PositionEvent struct {
	Kind        PositionEventKind `json:"kind"`
	PositionID  PositionID        `json:"positionId"`
	TraderID    TraderID          `json:"traderId,omitempty"`
	StrategyID  StrategyID        `json:"strategyId,omitempty"`
	AccountID   AccountID         `json:"accountId,omitempty"`
	BrokerID    BrokerPositionID  `json:"brokerId,omitempty"`
	Symbol      string            `json:"symbol,omitempty"`
	Quantity    decimal.Decimal   `json:"quantity,omitempty"`
	FromOrderID OrderID           `json:"fromOrderId,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// AccountEvent reports a new account state.
type AccountEvent struct {
	AccountID AccountID       `json:"accountId"`
	Currency  string          `json:"currency,omitempty"`
	Balance   decimal.Decimal `json:"balance,omitempty"`
	Margin    decimal.Decimal `json:"margin,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
