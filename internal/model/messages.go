package model

import (
	"time"

	"github.com/yanun0323/decimal"

	"main/internal/bus"
)

// Message type tokens. Values are stable for the life of the wire format;
// never reuse a retired token.
const (
	TypeSubmitOrder bus.MessageType = bus.TypeUserBase + iota
	TypeSubmitBracketOrder
	TypeCancelOrder
	TypeModifyOrder
	TypeAccountInquiry
	TypeOrderEvent
	TypePositionEvent
	TypeAccountState
	TypeAccountStatement
)

func init() {
	bus.MustRegisterType(TypeSubmitOrder, bus.CategoryCommand, "SubmitOrder")
	bus.MustRegisterType(TypeSubmitBracketOrder, bus.CategoryCommand, "SubmitBracketOrder")
	bus.MustRegisterType(TypeCancelOrder, bus.CategoryCommand, "CancelOrder")
	bus.MustRegisterType(TypeModifyOrder, bus.CategoryCommand, "ModifyOrder")
	bus.MustRegisterType(TypeAccountInquiry, bus.CategoryCommand, "AccountInquiry")
	bus.MustRegisterType(TypeOrderEvent, bus.CategoryEvent, "OrderEvent")
	bus.MustRegisterType(TypePositionEvent, bus.CategoryEvent, "PositionEvent")
	bus.MustRegisterType(TypeAccountState, bus.CategoryEvent, "AccountState")
	bus.MustRegisterType(TypeAccountStatement, bus.CategoryDocument, "AccountStatement")
}

// SubmitOrder commands the execution engine to send a new order.
type SubmitOrder struct {
	Order     *Order
	Timestamp time.Time
}

func (SubmitOrder) Category() bus.Category { return bus.CategoryCommand }
func (SubmitOrder) Type() bus.MessageType  { return TypeSubmitOrder }

// SubmitBracketOrder commands the execution engine to send a bracket order
// as one atomic unit.
type SubmitBracketOrder struct {
	Bracket   BracketOrder
	Timestamp time.Time
}

func (SubmitBracketOrder) Category() bus.Category { return bus.CategoryCommand }
func (SubmitBracketOrder) Type() bus.MessageType  { return TypeSubmitBracketOrder }

// CancelOrder commands the execution engine to cancel a working order.
type CancelOrder struct {
	OrderID   OrderID
	TraderID  TraderID
	Reason    string
	Timestamp time.Time
}

func (CancelOrder) Category() bus.Category { return bus.CategoryCommand }
func (CancelOrder) Type() bus.MessageType  { return TypeCancelOrder }

// ModifyOrder commands the execution engine to amend a working order.
type ModifyOrder struct {
	OrderID   OrderID
	TraderID  TraderID
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Timestamp time.Time
}

func (ModifyOrder) Category() bus.Category { return bus.CategoryCommand }
func (ModifyOrder) Type() bus.MessageType  { return TypeModifyOrder }

// AccountInquiry commands the execution engine to request an account update.
type AccountInquiry struct {
	AccountID AccountID
	TraderID  TraderID
	Timestamp time.Time
}

func (AccountInquiry) Category() bus.Category { return bus.CategoryCommand }
func (AccountInquiry) Type() bus.MessageType  { return TypeAccountInquiry }

// OrderEventMessage publishes an applied order event as a fact.
type OrderEventMessage struct {
	Event OrderEvent
}

func (OrderEventMessage) Category() bus.Category { return bus.CategoryEvent }
func (OrderEventMessage) Type() bus.MessageType  { return TypeOrderEvent }

// PositionEventMessage publishes an applied position event as a fact.
type PositionEventMessage struct {
	Event PositionEvent
}

func (PositionEventMessage) Category() bus.Category { return bus.CategoryEvent }
func (PositionEventMessage) Type() bus.MessageType  { return TypePositionEvent }

// AccountStateMessage publishes an applied account event as a fact.
type AccountStateMessage struct {
	Event AccountEvent
}

func (AccountStateMessage) Category() bus.Category { return bus.CategoryEvent }
func (AccountStateMessage) Type() bus.MessageType  { return TypeAccountState }

// AccountStatement is an informational document summarizing account state.
type AccountStatement struct {
	AccountID AccountID
	Currency  string
	Balance   decimal.Decimal
	AsOf      time.Time
}

func (AccountStatement) Category() bus.Category { return bus.CategoryDocument }
func (AccountStatement) Type() bus.MessageType  { return TypeAccountStatement }
