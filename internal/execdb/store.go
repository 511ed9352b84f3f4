package execdb

import (
	"encoding/json"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/obs"
	"main/internal/repository"
)

var _ Database = (*Store)(nil)

// Store is the concrete execution database: canonical aggregate maps plus
// the derived index set, persisted through the repository primitives. An id,
// once added, is never removed except by Flush.
type Store struct {
	repo    repository.Store
	metrics *obs.Metrics

	accounts  map[model.AccountID]*model.Account
	orders    map[model.OrderID]*model.Order
	positions map[model.PositionID]*model.Position
	index     *indexSet
}

// NewStore creates an empty store over the given repository.
func NewStore(repo repository.Store, metrics *obs.Metrics) (*Store, error) {
	if repo == nil {
		return nil, errors.New("repository is nil")
	}
	return &Store{
		repo:      repo,
		metrics:   metrics,
		accounts:  make(map[model.AccountID]*model.Account),
		orders:    make(map[model.OrderID]*model.Order),
		positions: make(map[model.PositionID]*model.Position),
		index:     newIndexSet(),
	}, nil
}

// ---------------------------------------------------------------- mutation

// AddAccount registers a new account, rejecting duplicates.
func (s *Store) AddAccount(a *model.Account) error {
	if a == nil {
		return errors.New("account is nil")
	}
	id := a.ID()
	if _, ok := s.accounts[id]; ok {
		s.metrics.IncDuplicateKey()
		return errors.Wrap(ErrDuplicateKey, "account "+id.String())
	}
	if err := s.repo.SetAdd(keyAccounts, id.String()); err != nil {
		return errors.Wrap(err, "persist account index")
	}
	if err := s.appendAccountEvent(a.LastEvent()); err != nil {
		return err
	}
	s.accounts[id] = a
	s.index.allAccounts[id] = struct{}{}
	return nil
}

// AddOrder registers a new order, updating the primary map and every
// cross-reference index together. A duplicate id is rejected before any
// state changes.
func (s *Store) AddOrder(o *model.Order) error {
	if o == nil {
		return errors.New("order is nil")
	}
	id := o.ID()
	if _, ok := s.orders[id]; ok {
		s.metrics.IncDuplicateKey()
		return errors.Wrap(ErrDuplicateKey, "order "+id.String())
	}
	if err := s.persistOrderRefs(o); err != nil {
		return err
	}
	for _, e := range o.Events() {
		if err := s.appendOrderEvent(e); err != nil {
			return err
		}
	}
	s.orders[id] = o
	s.index.indexOrder(o)
	return s.partitionOrder(o)
}

// AddBracketOrder registers an entry, its stop-loss and an optional
// take-profit as one unit. Any duplicate id fails the whole bracket before
// state changes.
func (s *Store) AddBracketOrder(b model.BracketOrder) error {
	if b.Entry == nil || b.StopLoss == nil {
		return errors.New("bracket order requires entry and stop-loss orders")
	}
	orders := b.Orders()
	seen := make(map[model.OrderID]struct{}, len(orders))
	for _, o := range orders {
		if _, dup := s.orders[o.ID()]; dup {
			s.metrics.IncDuplicateKey()
			return errors.Wrap(ErrDuplicateKey, "bracket order "+o.ID().String())
		}
		if _, dup := seen[o.ID()]; dup {
			s.metrics.IncDuplicateKey()
			return errors.Wrap(ErrDuplicateKey, "bracket order "+o.ID().String())
		}
		seen[o.ID()] = struct{}{}
	}
	for _, o := range orders {
		if err := s.AddOrder(o); err != nil {
			return err
		}
	}
	return nil
}

// AddPosition registers a new position, rejecting duplicates. Positions are
// open at creation.
func (s *Store) AddPosition(p *model.Position) error {
	if p == nil {
		return errors.New("position is nil")
	}
	id := p.ID()
	if _, ok := s.positions[id]; ok {
		s.metrics.IncDuplicateKey()
		return errors.Wrap(ErrDuplicateKey, "position "+id.String())
	}
	if err := s.persistPositionRefs(p); err != nil {
		return err
	}
	for _, e := range p.Events() {
		if err := s.appendPositionEvent(e); err != nil {
			return err
		}
	}
	s.positions[id] = p
	s.index.indexPosition(p)
	return s.partitionPosition(p)
}

// UpdateAccount appends the account's latest event to its durable log.
func (s *Store) UpdateAccount(a *model.Account) error {
	if a == nil {
		return errors.New("account is nil")
	}
	if _, ok := s.accounts[a.ID()]; !ok {
		return errors.Errorf("account %s not found in cache", a.ID())
	}
	return s.appendAccountEvent(a.LastEvent())
}

// UpdateOrder appends the order's latest applied event to its durable log,
// then recomputes working/completed membership from the aggregate's current
// predicates. The aggregate is authoritative; the index only caches it.
func (s *Store) UpdateOrder(o *model.Order) error {
	if o == nil {
		return errors.New("order is nil")
	}
	if _, ok := s.orders[o.ID()]; !ok {
		return errors.Errorf("order %s not found in cache", o.ID())
	}
	if err := s.appendOrderEvent(o.LastEvent()); err != nil {
		return err
	}
	return s.partitionOrder(o)
}

// UpdatePosition appends the position's latest applied event to its durable
// log, then recomputes open/closed membership from the aggregate.
func (s *Store) UpdatePosition(p *model.Position) error {
	if p == nil {
		return errors.New("position is nil")
	}
	if _, ok := s.positions[p.ID()]; !ok {
		return errors.Errorf("position %s not found in cache", p.ID())
	}
	if err := s.appendPositionEvent(p.LastEvent()); err != nil {
		return err
	}
	return s.partitionPosition(p)
}

// -------------------------------------------------------------- resolution

func (s *Store) TraderIDForOrder(id model.OrderID) (model.TraderID, bool) {
	t, ok := s.index.orderTrader[id]
	return t, ok
}

func (s *Store) TraderIDForPosition(id model.PositionID) (model.TraderID, bool) {
	t, ok := s.index.positionTrader[id]
	return t, ok
}

func (s *Store) AccountIDForOrder(id model.OrderID) (model.AccountID, bool) {
	a, ok := s.index.orderAccount[id]
	return a, ok
}

func (s *Store) PositionIDForOrder(id model.OrderID) (model.PositionID, bool) {
	p, ok := s.index.orderPosition[id]
	return p, ok
}

func (s *Store) OrderIDsForPosition(id model.PositionID) []model.OrderID {
	return sortedIDs(s.index.positionOrders[id])
}

func (s *Store) StrategyIDs(trader model.TraderID) []model.StrategyID {
	return sortedIDs(s.index.traderStrategies[trader])
}

// ------------------------------------------------------------- enumeration

func (s *Store) OrderIDs() []model.OrderID {
	return sortedIDs(s.index.allOrders)
}

func (s *Store) OrderIDsForTrader(trader model.TraderID) []model.OrderID {
	return sortedIDs(s.index.traderOrders[trader])
}

func (s *Store) OrderIDsForStrategy(trader model.TraderID, strategy model.StrategyID) []model.OrderID {
	return sortedIDs(s.index.strategyOrders[traderStrategy{trader, strategy}])
}

func (s *Store) WorkingOrderIDs() []model.OrderID {
	return sortedIDs(s.index.workingOrders)
}

func (s *Store) WorkingOrderIDsForTrader(trader model.TraderID) []model.OrderID {
	return intersectIDs(s.index.workingOrders, s.index.traderOrders[trader])
}

func (s *Store) WorkingOrderIDsForStrategy(trader model.TraderID, strategy model.StrategyID) []model.OrderID {
	return intersectIDs(s.index.workingOrders, s.index.strategyOrders[traderStrategy{trader, strategy}])
}

func (s *Store) CompletedOrderIDs() []model.OrderID {
	return sortedIDs(s.index.completedOrders)
}

func (s *Store) CompletedOrderIDsForTrader(trader model.TraderID) []model.OrderID {
	return intersectIDs(s.index.completedOrders, s.index.traderOrders[trader])
}

func (s *Store) CompletedOrderIDsForStrategy(trader model.TraderID, strategy model.StrategyID) []model.OrderID {
	return intersectIDs(s.index.completedOrders, s.index.strategyOrders[traderStrategy{trader, strategy}])
}

func (s *Store) PositionIDs() []model.PositionID {
	return sortedIDs(s.index.allPositions)
}

func (s *Store) PositionIDsForTrader(trader model.TraderID) []model.PositionID {
	return sortedIDs(s.index.traderPositions[trader])
}

func (s *Store) PositionIDsForStrategy(trader model.TraderID, strategy model.StrategyID) []model.PositionID {
	return sortedIDs(s.index.strategyPositions[traderStrategy{trader, strategy}])
}

func (s *Store) OpenPositionIDs() []model.PositionID {
	return sortedIDs(s.index.openPositions)
}

func (s *Store) OpenPositionIDsForTrader(trader model.TraderID) []model.PositionID {
	return intersectIDs(s.index.openPositions, s.index.traderPositions[trader])
}

func (s *Store) ClosedPositionIDs() []model.PositionID {
	return sortedIDs(s.index.closedPositions)
}

func (s *Store) ClosedPositionIDsForTrader(trader model.TraderID) []model.PositionID {
	return intersectIDs(s.index.closedPositions, s.index.traderPositions[trader])
}

// ---------------------------------------------------------- aggregate fetch

// Account returns the cached account, or nil when absent.
func (s *Store) Account(id model.AccountID) *model.Account { return s.accounts[id] }

// Order returns the cached order, or nil when absent.
func (s *Store) Order(id model.OrderID) *model.Order { return s.orders[id] }

// Position returns the cached position, or nil when absent.
func (s *Store) Position(id model.PositionID) *model.Position { return s.positions[id] }

func (s *Store) Orders() map[model.OrderID]*model.Order {
	return s.ordersFromSet(s.index.allOrders)
}

func (s *Store) OrdersForTrader(trader model.TraderID) map[model.OrderID]*model.Order {
	return s.ordersFromSet(s.index.traderOrders[trader])
}

func (s *Store) WorkingOrders() map[model.OrderID]*model.Order {
	return s.ordersFromSet(s.index.workingOrders)
}

func (s *Store) CompletedOrders() map[model.OrderID]*model.Order {
	return s.ordersFromSet(s.index.completedOrders)
}

func (s *Store) Positions() map[model.PositionID]*model.Position {
	return s.positionsFromSet(s.index.allPositions)
}

func (s *Store) PositionsForTrader(trader model.TraderID) map[model.PositionID]*model.Position {
	return s.positionsFromSet(s.index.traderPositions[trader])
}

func (s *Store) OpenPositions() map[model.PositionID]*model.Position {
	return s.positionsFromSet(s.index.openPositions)
}

func (s *Store) ClosedPositions() map[model.PositionID]*model.Position {
	return s.positionsFromSet(s.index.closedPositions)
}

// ordersFromSet resolves an index set against the primary map. An id in the
// index but missing from the cache is logged and excluded, so one corrupt
// entry cannot fail a whole portfolio query.
func (s *Store) ordersFromSet(set map[model.OrderID]struct{}) map[model.OrderID]*model.Order {
	out := make(map[model.OrderID]*model.Order, len(set))
	for id := range set {
		o, ok := s.orders[id]
		if !ok {
			s.metrics.IncIndexDrift()
			logs.Warnf("order %s is indexed but missing from cache, excluded", id)
			continue
		}
		out[id] = o
	}
	return out
}

func (s *Store) positionsFromSet(set map[model.PositionID]struct{}) map[model.PositionID]*model.Position {
	out := make(map[model.PositionID]*model.Position, len(set))
	for id := range set {
		p, ok := s.positions[id]
		if !ok {
			s.metrics.IncIndexDrift()
			logs.Warnf("position %s is indexed but missing from cache, excluded", id)
			continue
		}
		out[id] = p
	}
	return out
}

// ---------------------------------------------------------------- lifecycle

// LoadCaches rebuilds the primary maps and indices from durable storage.
// Run once at startup against empty caches.
func (s *Store) LoadCaches() error {
	if err := s.LoadAccountsCache(); err != nil {
		return err
	}
	if err := s.LoadOrdersCache(); err != nil {
		return err
	}
	return s.LoadPositionsCache()
}

// LoadAccountsCache rebuilds accounts from their durable event logs.
func (s *Store) LoadAccountsCache() error {
	ids, err := s.repo.SetMembers(keyAccounts)
	if err != nil {
		return errors.Wrap(err, "load account ids")
	}
	for _, raw := range ids {
		id := model.AccountID(raw)
		s.index.allAccounts[id] = struct{}{}
		events, err := s.loadAccountEvents(id)
		if err != nil {
			s.metrics.IncIndexDrift()
			logs.Warnf("account %s event log unreadable, excluded, err: %+v", id, err)
			continue
		}
		a, err := model.AccountFromEvents(events)
		if err != nil {
			s.metrics.IncIndexDrift()
			logs.Warnf("account %s rebuild failed, excluded, err: %+v", id, err)
			continue
		}
		s.accounts[id] = a
	}
	logs.Infof("loaded %d accounts from repository", len(s.accounts))
	return nil
}

// LoadOrdersCache rebuilds orders from their durable event logs, then the
// cross-reference indices from the rebuilt aggregates and the durable
// working/completed partition.
func (s *Store) LoadOrdersCache() error {
	ids, err := s.repo.SetMembers(keyOrders)
	if err != nil {
		return errors.Wrap(err, "load order ids")
	}
	for _, raw := range ids {
		id := model.OrderID(raw)
		s.index.allOrders[id] = struct{}{}
		events, err := s.loadOrderEvents(id)
		if err != nil {
			s.metrics.IncIndexDrift()
			logs.Warnf("order %s event log unreadable, excluded, err: %+v", id, err)
			continue
		}
		o, err := model.OrderFromEvents(events)
		if err != nil {
			s.metrics.IncIndexDrift()
			logs.Warnf("order %s rebuild failed, excluded, err: %+v", id, err)
			continue
		}
		s.orders[id] = o
		s.index.indexOrder(o)
	}
	if err := s.loadOrderPartition(); err != nil {
		return err
	}
	logs.Infof("loaded %d orders from repository", len(s.orders))
	return nil
}

// LoadPositionsCache rebuilds positions from their durable event logs and
// the durable open/closed partition.
func (s *Store) LoadPositionsCache() error {
	ids, err := s.repo.SetMembers(keyPositions)
	if err != nil {
		return errors.Wrap(err, "load position ids")
	}
	for _, raw := range ids {
		id := model.PositionID(raw)
		s.index.allPositions[id] = struct{}{}
		events, err := s.loadPositionEvents(id)
		if err != nil {
			s.metrics.IncIndexDrift()
			logs.Warnf("position %s event log unreadable, excluded, err: %+v", id, err)
			continue
		}
		p, err := model.PositionFromEvents(events)
		if err != nil {
			s.metrics.IncIndexDrift()
			logs.Warnf("position %s rebuild failed, excluded, err: %+v", id, err)
			continue
		}
		s.positions[id] = p
		s.index.indexPosition(p)
	}
	if err := s.loadPositionPartition(); err != nil {
		return err
	}
	logs.Infof("loaded %d positions from repository", len(s.positions))
	return nil
}

// ClearCaches empties the in-memory maps only; the durable store is
// untouched.
func (s *Store) ClearCaches() {
	s.accounts = make(map[model.AccountID]*model.Account)
	s.orders = make(map[model.OrderID]*model.Order)
	s.positions = make(map[model.PositionID]*model.Position)
	s.index.clear()
	logs.Info("execution database caches cleared")
}

// Flush destructively wipes the durable store and the in-memory cache.
// Test and operator use only.
func (s *Store) Flush() error {
	if err := s.repo.Flush(); err != nil {
		return errors.Wrap(err, "flush repository")
	}
	s.ClearCaches()
	logs.Warn("execution database flushed, durable store wiped")
	return nil
}

// CheckResiduals audits the working/open index sets against aggregate state.
// An expected residual (still outstanding across a restart) logs a warning;
// index/state disagreement logs an error. Run before accepting new traffic.
func (s *Store) CheckResiduals() {
	for _, id := range s.WorkingOrderIDs() {
		o := s.orders[id]
		if o == nil {
			s.metrics.IncIndexDrift()
			logs.Errorf("residual check: working order %s missing from cache", id)
			continue
		}
		if !o.IsWorking() {
			s.metrics.IncIndexDrift()
			logs.Errorf("residual check: order %s indexed working but status is %s", id, o.Status())
			continue
		}
		s.metrics.IncResidual()
		logs.Warnf("residual working order %s (%s)", id, o.Status())
	}
	for _, id := range s.OpenPositionIDs() {
		p := s.positions[id]
		if p == nil {
			s.metrics.IncIndexDrift()
			logs.Errorf("residual check: open position %s missing from cache", id)
			continue
		}
		if !p.IsOpen() {
			s.metrics.IncIndexDrift()
			logs.Errorf("residual check: position %s indexed open but is closed", id)
			continue
		}
		s.metrics.IncResidual()
		logs.Warnf("residual open position %s", id)
	}
}

// -------------------------------------------------------------- persistence

func (s *Store) persistOrderRefs(o *model.Order) error {
	id := o.ID().String()
	trader := o.TraderID()
	strategy := o.StrategyID()
	account := o.AccountID()
	position := o.PositionID()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"orders set", func() error { return s.repo.SetAdd(keyOrders, id) }},
		{"trader orders", func() error { return s.repo.SetAdd(keyTraderOrders(trader), id) }},
		{"account orders", func() error { return s.repo.SetAdd(keyAccountOrders(account), id) }},
		{"position orders", func() error { return s.repo.SetAdd(keyPositionOrders(position), id) }},
		{"order trader", func() error { return s.repo.HashSet(keyOrderTrader, id, trader.String()) }},
		{"order account", func() error { return s.repo.HashSet(keyOrderAccount, id, account.String()) }},
		{"order position", func() error { return s.repo.HashSet(keyOrderPosition, id, position.String()) }},
	}
	if strategy != "" {
		steps = append(steps,
			struct {
				name string
				fn   func() error
			}{"trader strategies", func() error { return s.repo.SetAdd(keyTraderStrategies(trader), strategy.String()) }},
			struct {
				name string
				fn   func() error
			}{"strategy orders", func() error { return s.repo.SetAdd(keyStrategyOrders(trader, strategy), id) }},
		)
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return errors.Wrap(err, "persist "+step.name)
		}
	}
	return nil
}

func (s *Store) persistPositionRefs(p *model.Position) error {
	id := p.ID().String()
	trader := p.TraderID()
	strategy := p.StrategyID()
	account := p.AccountID()

	if err := s.repo.SetAdd(keyPositions, id); err != nil {
		return errors.Wrap(err, "persist positions set")
	}
	if err := s.repo.SetAdd(keyTraderPositions(trader), id); err != nil {
		return errors.Wrap(err, "persist trader positions")
	}
	if err := s.repo.SetAdd(keyAccountPositions(account), id); err != nil {
		return errors.Wrap(err, "persist account positions")
	}
	if err := s.repo.HashSet(keyPositionTrader, id, trader.String()); err != nil {
		return errors.Wrap(err, "persist position trader")
	}
	if strategy != "" {
		if err := s.repo.SetAdd(keyTraderStrategies(trader), strategy.String()); err != nil {
			return errors.Wrap(err, "persist trader strategies")
		}
		if err := s.repo.SetAdd(keyStrategyPositions(trader, strategy), id); err != nil {
			return errors.Wrap(err, "persist strategy positions")
		}
	}
	return nil
}

// partitionOrder recomputes working/completed membership from the order's
// current predicates. An order still in its initial state stays out of both
// sets.
func (s *Store) partitionOrder(o *model.Order) error {
	id := o.ID().String()
	switch {
	case o.IsWorking():
		if err := s.repo.SetAdd(keyOrdersWorking, id); err != nil {
			return errors.Wrap(err, "mark order working")
		}
		if err := s.repo.SetRemove(keyOrdersCompleted, id); err != nil {
			return errors.Wrap(err, "unmark order completed")
		}
		s.index.markOrderWorking(o.ID())
	case o.IsCompleted():
		if err := s.repo.SetAdd(keyOrdersCompleted, id); err != nil {
			return errors.Wrap(err, "mark order completed")
		}
		if err := s.repo.SetRemove(keyOrdersWorking, id); err != nil {
			return errors.Wrap(err, "unmark order working")
		}
		s.index.markOrderCompleted(o.ID())
	}
	return nil
}

func (s *Store) partitionPosition(p *model.Position) error {
	id := p.ID().String()
	if p.IsOpen() {
		if err := s.repo.SetAdd(keyPositionsOpen, id); err != nil {
			return errors.Wrap(err, "mark position open")
		}
		if err := s.repo.SetRemove(keyPositionsClosed, id); err != nil {
			return errors.Wrap(err, "unmark position closed")
		}
		s.index.markPositionOpen(p.ID())
		return nil
	}
	if err := s.repo.SetAdd(keyPositionsClosed, id); err != nil {
		return errors.Wrap(err, "mark position closed")
	}
	if err := s.repo.SetRemove(keyPositionsOpen, id); err != nil {
		return errors.Wrap(err, "unmark position open")
	}
	s.index.markPositionClosed(p.ID())
	return nil
}

func (s *Store) loadOrderPartition() error {
	working, err := s.repo.SetMembers(keyOrdersWorking)
	if err != nil {
		return errors.Wrap(err, "load working order ids")
	}
	for _, raw := range working {
		s.index.workingOrders[model.OrderID(raw)] = struct{}{}
	}
	completed, err := s.repo.SetMembers(keyOrdersCompleted)
	if err != nil {
		return errors.Wrap(err, "load completed order ids")
	}
	for _, raw := range completed {
		s.index.completedOrders[model.OrderID(raw)] = struct{}{}
	}
	return nil
}

func (s *Store) loadPositionPartition() error {
	open, err := s.repo.SetMembers(keyPositionsOpen)
	if err != nil {
		return errors.Wrap(err, "load open position ids")
	}
	for _, raw := range open {
		s.index.openPositions[model.PositionID(raw)] = struct{}{}
	}
	closed, err := s.repo.SetMembers(keyPositionsClosed)
	if err != nil {
		return errors.Wrap(err, "load closed position ids")
	}
	for _, raw := range closed {
		s.index.closedPositions[model.PositionID(raw)] = struct{}{}
	}
	return nil
}

func (s *Store) appendOrderEvent(e model.OrderEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode order event")
	}
	if err := s.repo.ListPush(keyOrderEvents(e.OrderID), payload); err != nil {
		return errors.Wrap(err, "append order event")
	}
	return nil
}

func (s *Store) appendPositionEvent(e model.PositionEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode position event")
	}
	if err := s.repo.ListPush(keyPositionEvents(e.PositionID), payload); err != nil {
		return errors.Wrap(err, "append position event")
	}
	return nil
}

func (s *Store) appendAccountEvent(e model.AccountEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode account event")
	}
	if err := s.repo.ListPush(keyAccountEvents(e.AccountID), payload); err != nil {
		return errors.Wrap(err, "append account event")
	}
	return nil
}

func (s *Store) loadOrderEvents(id model.OrderID) ([]model.OrderEvent, error) {
	payloads, err := s.repo.ListRange(keyOrderEvents(id))
	if err != nil {
		return nil, err
	}
	out := make([]model.OrderEvent, 0, len(payloads))
	for _, payload := range payloads {
		var e model.OrderEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, errors.Wrap(err, "decode order event")
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) loadPositionEvents(id model.PositionID) ([]model.PositionEvent, error) {
	payloads, err := s.repo.ListRange(keyPositionEvents(id))
	if err != nil {
		return nil, err
	}
	out := make([]model.PositionEvent, 0, len(payloads))
	for _, payload := range payloads {
		var e model.PositionEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, errors.Wrap(err, "decode position event")
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) loadAccountEvents(id model.AccountID) ([]model.AccountEvent, error) {
	payloads, err := s.repo.ListRange(keyAccountEvents(id))
	if err != nil {
		return nil, err
	}
	out := make([]model.AccountEvent, 0, len(payloads))
	for _, payload := range payloads {
		var e model.AccountEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, errors.Wrap(err, "decode account event")
		}
		out = append(out, e)
	}
	return out, nil
}
