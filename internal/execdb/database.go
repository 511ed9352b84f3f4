// Package execdb is the authoritative record of trader, account, order and
// position relationships. It keeps canonical aggregate maps plus derived
// cross-reference indices, and persists index membership and per-aggregate
// event logs through the repository primitives.
package execdb

import (
	"github.com/yanun0323/errors"

	"main/internal/model"
)

// ErrDuplicateKey reports an add with an identifier that already exists. It
// is a recoverable caller failure, never fatal.
var ErrDuplicateKey = errors.New("identifier already exists")

// Database is the execution database contract. Aggregates absent from the
// cache resolve to nil; queries never panic on missing entries.
//
// Mutation methods are not safe for concurrent use: the maps are owned by a
// single component and all writes must be routed through that component's
// mailbox.
type Database interface {
	// Resolution
	TraderIDForOrder(id model.OrderID) (model.TraderID, bool)
	TraderIDForPosition(id model.PositionID) (model.TraderID, bool)
	AccountIDForOrder(id model.OrderID) (model.AccountID, bool)
	PositionIDForOrder(id model.OrderID) (model.PositionID, bool)
	OrderIDsForPosition(id model.PositionID) []model.OrderID
	StrategyIDs(trader model.TraderID) []model.StrategyID

	// Order identifier enumeration
	OrderIDs() []model.OrderID
	OrderIDsForTrader(trader model.TraderID) []model.OrderID
	OrderIDsForStrategy(trader model.TraderID, strategy model.StrategyID) []model.OrderID
	WorkingOrderIDs() []model.OrderID
	WorkingOrderIDsForTrader(trader model.TraderID) []model.OrderID
	WorkingOrderIDsForStrategy(trader model.TraderID, strategy model.StrategyID) []model.OrderID
	CompletedOrderIDs() []model.OrderID
	CompletedOrderIDsForTrader(trader model.TraderID) []model.OrderID
	CompletedOrderIDsForStrategy(trader model.TraderID, strategy model.StrategyID) []model.OrderID

	// Position identifier enumeration
	PositionIDs() []model.PositionID
	PositionIDsForTrader(trader model.TraderID) []model.PositionID
	PositionIDsForStrategy(trader model.TraderID, strategy model.StrategyID) []model.PositionID
	OpenPositionIDs() []model.PositionID
	OpenPositionIDsForTrader(trader model.TraderID) []model.PositionID
	ClosedPositionIDs() []model.PositionID
	ClosedPositionIDsForTrader(trader model.TraderID) []model.PositionID

	// Aggregate fetch
	Account(id model.AccountID) *model.Account
	Order(id model.OrderID) *model.Order
	Position(id model.PositionID) *model.Position
	Orders() map[model.OrderID]*model.Order
	OrdersForTrader(trader model.TraderID) map[model.OrderID]*model.Order
	WorkingOrders() map[model.OrderID]*model.Order
	CompletedOrders() map[model.OrderID]*model.Order
	Positions() map[model.PositionID]*model.Position
	PositionsForTrader(trader model.TraderID) map[model.PositionID]*model.Position
	OpenPositions() map[model.PositionID]*model.Position
	ClosedPositions() map[model.PositionID]*model.Position

	// Mutation
	AddAccount(a *model.Account) error
	AddOrder(o *model.Order) error
	AddBracketOrder(b model.BracketOrder) error
	AddPosition(p *model.Position) error
	UpdateAccount(a *model.Account) error
	UpdateOrder(o *model.Order) error
	UpdatePosition(p *model.Position) error

	// Lifecycle
	LoadCaches() error
	LoadAccountsCache() error
	LoadOrdersCache() error
	LoadPositionsCache() error
	ClearCaches()
	Flush() error
	CheckResiduals()
}
