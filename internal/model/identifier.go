package model

// Opaque string-backed identifiers used as map keys across the execution
// core. The zero value is invalid.
type (
	TraderID         string
	StrategyID       string
	AccountID        string
	OrderID          string
	PositionID       string
	BrokerPositionID string
)

func (id TraderID) String() string         { return string(id) }
func (id StrategyID) String() string       { return string(id) }
func (id AccountID) String() string        { return string(id) }
func (id OrderID) String() string          { return string(id) }
func (id PositionID) String() string       { return string(id) }
func (id BrokerPositionID) String() string { return string(id) }

// OrderSide is the direction of an order.
type OrderSide uint8

const (
	OrderSideUnknown OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

func (s OrderSide) String() string {
	switch s {
	case OrderSideBuy:
		return "buy"
	case OrderSideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// OrderType is the execution instruction of an order.
type OrderType uint8

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeMarket
	OrderTypeLimit
	OrderTypeStopMarket
	OrderTypeStopLimit
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "market"
	case OrderTypeLimit:
		return "limit"
	case OrderTypeStopMarket:
		return "stop_market"
	case OrderTypeStopLimit:
		return "stop_limit"
	default:
		return "unknown"
	}
}
