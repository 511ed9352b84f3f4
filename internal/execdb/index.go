package execdb

import "main/internal/model"

type traderStrategy struct {
	trader   model.TraderID
	strategy model.StrategyID
}

// indexSet holds the derived cross-reference indices. It is mutated only
// together with the primary maps inside the store's single mutation path;
// index and primary form one consistency domain.
type indexSet struct {
	allAccounts  map[model.AccountID]struct{}
	allOrders    map[model.OrderID]struct{}
	allPositions map[model.PositionID]struct{}

	traderOrders      map[model.TraderID]map[model.OrderID]struct{}
	traderPositions   map[model.TraderID]map[model.PositionID]struct{}
	traderStrategies  map[model.TraderID]map[model.StrategyID]struct{}
	accountOrders     map[model.AccountID]map[model.OrderID]struct{}
	accountPositions  map[model.AccountID]map[model.PositionID]struct{}
	strategyOrders    map[traderStrategy]map[model.OrderID]struct{}
	strategyPositions map[traderStrategy]map[model.PositionID]struct{}

	orderTrader    map[model.OrderID]model.TraderID
	orderAccount   map[model.OrderID]model.AccountID
	orderPosition  map[model.OrderID]model.PositionID
	positionTrader map[model.PositionID]model.TraderID
	positionOrders map[model.PositionID]map[model.OrderID]struct{}

	workingOrders   map[model.OrderID]struct{}
	completedOrders map[model.OrderID]struct{}
	openPositions   map[model.PositionID]struct{}
	closedPositions map[model.PositionID]struct{}
}

func newIndexSet() *indexSet {
	ix := &indexSet{}
	ix.clear()
	return ix
}

func (ix *indexSet) clear() {
	ix.allAccounts = make(map[model.AccountID]struct{})
	ix.allOrders = make(map[model.OrderID]struct{})
	ix.allPositions = make(map[model.PositionID]struct{})
	ix.traderOrders = make(map[model.TraderID]map[model.OrderID]struct{})
	ix.traderPositions = make(map[model.TraderID]map[model.PositionID]struct{})
	ix.traderStrategies = make(map[model.TraderID]map[model.StrategyID]struct{})
	ix.accountOrders = make(map[model.AccountID]map[model.OrderID]struct{})
	ix.accountPositions = make(map[model.AccountID]map[model.PositionID]struct{})
	ix.strategyOrders = make(map[traderStrategy]map[model.OrderID]struct{})
	ix.strategyPositions = make(map[traderStrategy]map[model.PositionID]struct{})
	ix.orderTrader = make(map[model.OrderID]model.TraderID)
	ix.orderAccount = make(map[model.OrderID]model.AccountID)
	ix.orderPosition = make(map[model.OrderID]model.PositionID)
	ix.positionTrader = make(map[model.PositionID]model.TraderID)
	ix.positionOrders = make(map[model.PositionID]map[model.OrderID]struct{})
	ix.workingOrders = make(map[model.OrderID]struct{})
	ix.completedOrders = make(map[model.OrderID]struct{})
	ix.openPositions = make(map[model.PositionID]struct{})
	ix.closedPositions = make(map[model.PositionID]struct{})
}

func (ix *indexSet) indexOrder(o *model.Order) {
	id := o.ID()
	trader := o.TraderID()
	strategy := o.StrategyID()
	account := o.AccountID()
	position := o.PositionID()

	ix.allOrders[id] = struct{}{}
	addTo(ix.traderOrders, trader, id)
	addTo(ix.accountOrders, account, id)
	addTo(ix.positionOrders, position, id)
	if strategy != "" {
		addTo(ix.traderStrategies, trader, strategy)
		addTo(ix.strategyOrders, traderStrategy{trader, strategy}, id)
	}
	ix.orderTrader[id] = trader
	ix.orderAccount[id] = account
	ix.orderPosition[id] = position
}

func (ix *indexSet) indexPosition(p *model.Position) {
	id := p.ID()
	trader := p.TraderID()
	strategy := p.StrategyID()
	account := p.AccountID()

	ix.allPositions[id] = struct{}{}
	addTo(ix.traderPositions, trader, id)
	addTo(ix.accountPositions, account, id)
	if strategy != "" {
		addTo(ix.traderStrategies, trader, strategy)
		addTo(ix.strategyPositions, traderStrategy{trader, strategy}, id)
	}
	ix.positionTrader[id] = trader
}

func (ix *indexSet) markOrderWorking(id model.OrderID) {
	ix.workingOrders[id] = struct{}{}
	delete(ix.completedOrders, id)
}

func (ix *indexSet) markOrderCompleted(id model.OrderID) {
	ix.completedOrders[id] = struct{}{}
	delete(ix.workingOrders, id)
}

func (ix *indexSet) markPositionOpen(id model.PositionID) {
	ix.openPositions[id] = struct{}{}
	delete(ix.closedPositions, id)
}

func (ix *indexSet) markPositionClosed(id model.PositionID) {
	ix.closedPositions[id] = struct{}{}
	delete(ix.openPositions, id)
}

func addTo[K comparable, V comparable](m map[K]map[V]struct{}, key K, value V) {
	set, ok := m[key]
	if !ok {
		set = make(map[V]struct{})
		m[key] = set
	}
	set[value] = struct{}{}
}
