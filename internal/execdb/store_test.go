package execdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/obs"
	"main/internal/repository"
)

func newTestStore(t *testing.T) (*Store, *obs.Metrics, repository.Store) {
	t.Helper()
	repo := repository.NewMemory()
	metrics := obs.NewMetrics()
	store, err := NewStore(repo, metrics)
	require.NoError(t, err)
	return store, metrics, repo
}

func testOrder(t *testing.T, id model.OrderID, kinds ...model.OrderEventKind) *model.Order {
	t.Helper()
	o, err := model.NewOrder(model.OrderEvent{
		Kind:       model.OrderEventInitialized,
		OrderID:    id,
		TraderID:   "trader-1",
		StrategyID: "momentum",
		AccountID:  "acct-1",
		PositionID: "pos-1",
		Symbol:     "BTCUSDT",
		Side:       model.OrderSideBuy,
		OrderType:  model.OrderTypeLimit,
		Timestamp:  time.Now().UTC(),
	})
	require.NoError(t, err)
	for _, kind := range kinds {
		require.NoError(t, o.Apply(model.OrderEvent{Kind: kind, OrderID: id, Timestamp: time.Now().UTC()}))
	}
	return o
}

func testPosition(t *testing.T, id model.PositionID) *model.Position {
	t.Helper()
	p, err := model.NewPosition(model.PositionEvent{
		Kind:       model.PositionEventOpened,
		PositionID: id,
		TraderID:   "trader-1",
		StrategyID: "momentum",
		AccountID:  "acct-1",
		Symbol:     "BTCUSDT",
		Timestamp:  time.Now().UTC(),
	})
	require.NoError(t, err)
	return p
}

func TestAddOrderIndexesEverywhere(t *testing.T) {
	store, _, _ := newTestStore(t)
	require.NoError(t, store.AddOrder(testOrder(t, "o1")))

	trader, ok := store.TraderIDForOrder("o1")
	require.True(t, ok)
	assert.Equal(t, model.TraderID("trader-1"), trader)

	account, ok := store.AccountIDForOrder("o1")
	require.True(t, ok)
	assert.Equal(t, model.AccountID("acct-1"), account)

	position, ok := store.PositionIDForOrder("o1")
	require.True(t, ok)
	assert.Equal(t, model.PositionID("pos-1"), position)

	assert.Equal(t, []model.OrderID{"o1"}, store.OrderIDs())
	assert.Equal(t, []model.OrderID{"o1"}, store.OrderIDsForTrader("trader-1"))
	assert.Equal(t, []model.OrderID{"o1"}, store.OrderIDsForStrategy("trader-1", "momentum"))
	assert.Equal(t, []model.OrderID{"o1"}, store.OrderIDsForPosition("pos-1"))
	assert.Equal(t, []model.StrategyID{"momentum"}, store.StrategyIDs("trader-1"))

	// an initialized order is outstanding nowhere yet
	assert.Empty(t, store.WorkingOrderIDs())
	assert.Empty(t, store.CompletedOrderIDs())
	assert.NotNil(t, store.Order("o1"))
	assert.Nil(t, store.Order("missing"))

	assert.Empty(t, store.OrderIDsForTrader("stranger"))
	assert.Empty(t, store.StrategyIDs("stranger"))
}

func TestDuplicateAddLeavesStateUnchanged(t *testing.T) {
	store, metrics, _ := newTestStore(t)
	require.NoError(t, store.AddOrder(testOrder(t, "o1", model.OrderEventSubmitted)))

	err := store.AddOrder(testOrder(t, "o1"))
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, uint64(1), metrics.Snapshot().DuplicateKeys)

	assert.Len(t, store.OrderIDs(), 1)
	assert.Equal(t, model.OrderStatusSubmitted, store.Order("o1").Status())
	assert.Equal(t, []model.OrderID{"o1"}, store.WorkingOrderIDs())

	require.NoError(t, store.AddAccount(mustAccount(t, "acct-1")))
	assert.ErrorIs(t, store.AddAccount(mustAccount(t, "acct-1")), ErrDuplicateKey)

	require.NoError(t, store.AddPosition(testPosition(t, "p1")))
	assert.ErrorIs(t, store.AddPosition(testPosition(t, "p1")), ErrDuplicateKey)
}

func mustAccount(t *testing.T, id model.AccountID) *model.Account {
	t.Helper()
	a, err := model.NewAccount(model.AccountEvent{AccountID: id, Currency: "USDT", Timestamp: time.Now().UTC()})
	require.NoError(t, err)
	return a
}

func TestOrderPartitionFollowsLifecycle(t *testing.T) {
	store, _, _ := newTestStore(t)
	o := testOrder(t, "o1")
	require.NoError(t, store.AddOrder(o))
	assert.Empty(t, store.WorkingOrderIDs())

	require.NoError(t, o.Apply(model.OrderEvent{Kind: model.OrderEventSubmitted, OrderID: "o1"}))
	require.NoError(t, store.UpdateOrder(o))
	assert.Equal(t, []model.OrderID{"o1"}, store.WorkingOrderIDs())
	assert.Equal(t, []model.OrderID{"o1"}, store.WorkingOrderIDsForTrader("trader-1"))
	assert.Empty(t, store.CompletedOrderIDs())

	require.NoError(t, o.Apply(model.OrderEvent{Kind: model.OrderEventWorking, OrderID: "o1"}))
	require.NoError(t, store.UpdateOrder(o))
	assert.Equal(t, []model.OrderID{"o1"}, store.WorkingOrderIDs())

	require.NoError(t, o.Apply(model.OrderEvent{Kind: model.OrderEventFilled, OrderID: "o1"}))
	require.NoError(t, store.UpdateOrder(o))
	assert.Empty(t, store.WorkingOrderIDs())
	assert.Equal(t, []model.OrderID{"o1"}, store.CompletedOrderIDs())
	assert.Equal(t, []model.OrderID{"o1"}, store.CompletedOrderIDsForStrategy("trader-1", "momentum"))
}

func TestPositionPartitionFollowsLifecycle(t *testing.T) {
	store, _, _ := newTestStore(t)
	p := testPosition(t, "p1")
	require.NoError(t, store.AddPosition(p))
	assert.Equal(t, []model.PositionID{"p1"}, store.OpenPositionIDs())
	assert.Empty(t, store.ClosedPositionIDs())

	trader, ok := store.TraderIDForPosition("p1")
	require.True(t, ok)
	assert.Equal(t, model.TraderID("trader-1"), trader)

	require.NoError(t, p.Apply(model.PositionEvent{Kind: model.PositionEventClosed, PositionID: "p1"}))
	require.NoError(t, store.UpdatePosition(p))
	assert.Empty(t, store.OpenPositionIDs())
	assert.Equal(t, []model.PositionID{"p1"}, store.ClosedPositionIDs())
	assert.Equal(t, []model.PositionID{"p1"}, store.ClosedPositionIDsForTrader("trader-1"))
}

func TestAddBracketOrderRejectsConflictBeforeMutating(t *testing.T) {
	store, _, _ := newTestStore(t)
	require.NoError(t, store.AddOrder(testOrder(t, "entry")))

	bracket := model.BracketOrder{
		Entry:      testOrder(t, "entry"),
		StopLoss:   testOrder(t, "stop"),
		TakeProfit: testOrder(t, "take"),
	}
	err := store.AddBracketOrder(bracket)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Nil(t, store.Order("stop"))
	assert.Nil(t, store.Order("take"))

	clean := model.BracketOrder{
		Entry:    testOrder(t, "entry2"),
		StopLoss: testOrder(t, "stop2"),
	}
	require.NoError(t, store.AddBracketOrder(clean))
	assert.NotNil(t, store.Order("entry2"))
	assert.NotNil(t, store.Order("stop2"))

	assert.Error(t, store.AddBracketOrder(model.BracketOrder{Entry: testOrder(t, "lonely")}))
}

func TestUpdateUnknownAggregateFails(t *testing.T) {
	store, _, _ := newTestStore(t)

	assert.Error(t, store.UpdateOrder(testOrder(t, "ghost")))
	assert.Error(t, store.UpdatePosition(testPosition(t, "ghost")))
	assert.Error(t, store.UpdateAccount(mustAccount(t, "ghost")))
}

func TestRecoveryRebuildsCachesFromDurableState(t *testing.T) {
	store, _, repo := newTestStore(t)

	require.NoError(t, store.AddAccount(mustAccount(t, "acct-1")))

	working := testOrder(t, "o-working")
	require.NoError(t, store.AddOrder(working))
	require.NoError(t, working.Apply(model.OrderEvent{Kind: model.OrderEventSubmitted, OrderID: "o-working"}))
	require.NoError(t, store.UpdateOrder(working))

	done := testOrder(t, "o-done")
	require.NoError(t, store.AddOrder(done))
	require.NoError(t, done.Apply(model.OrderEvent{Kind: model.OrderEventRejected, OrderID: "o-done"}))
	require.NoError(t, store.UpdateOrder(done))

	p := testPosition(t, "p1")
	require.NoError(t, store.AddPosition(p))

	store.ClearCaches()
	assert.Empty(t, store.OrderIDs())
	assert.Nil(t, store.Account("acct-1"))

	rebuilt, err := NewStore(repo, obs.NewMetrics())
	require.NoError(t, err)
	require.NoError(t, rebuilt.LoadCaches())

	assert.Equal(t, []model.OrderID{"o-done", "o-working"}, rebuilt.OrderIDs())
	assert.Equal(t, []model.OrderID{"o-working"}, rebuilt.WorkingOrderIDs())
	assert.Equal(t, []model.OrderID{"o-done"}, rebuilt.CompletedOrderIDs())
	assert.Equal(t, []model.PositionID{"p1"}, rebuilt.OpenPositionIDs())
	assert.Equal(t, []model.StrategyID{"momentum"}, rebuilt.StrategyIDs("trader-1"))

	o := rebuilt.Order("o-working")
	require.NotNil(t, o)
	assert.Equal(t, model.OrderStatusSubmitted, o.Status())
	assert.Equal(t, 2, o.EventCount())

	a := rebuilt.Account("acct-1")
	require.NotNil(t, a)
	assert.Equal(t, "USDT", a.Currency())

	// a second load over cleared caches lands on the same state
	rebuilt.ClearCaches()
	require.NoError(t, rebuilt.LoadCaches())
	assert.Equal(t, []model.OrderID{"o-working"}, rebuilt.WorkingOrderIDs())
}

func TestCheckResidualsCountsOutstandingWork(t *testing.T) {
	store, _, repo := newTestStore(t)

	working := testOrder(t, "o1", model.OrderEventSubmitted)
	require.NoError(t, store.AddOrder(working))
	require.NoError(t, store.AddPosition(testPosition(t, "p1")))

	rebuilt, err := NewStore(repo, obs.NewMetrics())
	require.NoError(t, err)
	require.NoError(t, rebuilt.LoadCaches())
	rebuilt.CheckResiduals()

	assert.Equal(t, uint64(2), rebuilt.metrics.Snapshot().Residuals)
	assert.Equal(t, uint64(0), rebuilt.metrics.Snapshot().IndexDrift)
}

func TestDriftedIndexEntriesAreSkippedAndCounted(t *testing.T) {
	store, _, repo := newTestStore(t)
	require.NoError(t, store.AddOrder(testOrder(t, "o1", model.OrderEventSubmitted)))

	// simulate a crash that marked an order working without writing its log
	require.NoError(t, repo.SetAdd(keyOrders, "ghost"))
	require.NoError(t, repo.SetAdd(keyOrdersWorking, "ghost"))

	metrics := obs.NewMetrics()
	rebuilt, err := NewStore(repo, metrics)
	require.NoError(t, err)
	require.NoError(t, rebuilt.LoadCaches())

	// the ghost id survives in the indices but resolves to no aggregate
	assert.Equal(t, []model.OrderID{"ghost", "o1"}, rebuilt.WorkingOrderIDs())
	orders := rebuilt.WorkingOrders()
	assert.Len(t, orders, 1)
	assert.Contains(t, orders, model.OrderID("o1"))
	assert.Greater(t, metrics.Snapshot().IndexDrift, uint64(0))

	before := metrics.Snapshot().IndexDrift
	rebuilt.CheckResiduals()
	assert.Greater(t, metrics.Snapshot().IndexDrift, before)
}

func TestFlushWipesDurableStateAndCaches(t *testing.T) {
	store, _, _ := newTestStore(t)
	require.NoError(t, store.AddOrder(testOrder(t, "o1", model.OrderEventSubmitted)))
	require.NoError(t, store.AddPosition(testPosition(t, "p1")))

	require.NoError(t, store.Flush())
	assert.Empty(t, store.OrderIDs())
	assert.Empty(t, store.PositionIDs())

	require.NoError(t, store.LoadCaches())
	assert.Empty(t, store.OrderIDs())

	// ids are reusable after a flush
	require.NoError(t, store.AddOrder(testOrder(t, "o1")))
}

func TestAccountUpdatePersistsEventLog(t *testing.T) {
	store, _, repo := newTestStore(t)
	a := mustAccount(t, "acct-1")
	require.NoError(t, store.AddAccount(a))

	require.NoError(t, a.Apply(model.AccountEvent{AccountID: "acct-1", Currency: "USD"}))
	require.NoError(t, store.UpdateAccount(a))

	rebuilt, err := NewStore(repo, obs.NewMetrics())
	require.NoError(t, err)
	require.NoError(t, rebuilt.LoadAccountsCache())

	got := rebuilt.Account("acct-1")
	require.NotNil(t, got)
	assert.Equal(t, "USD", got.Currency())
	assert.Equal(t, 2, got.EventCount())
}

func TestEnumerationIsSorted(t *testing.T) {
	store, _, _ := newTestStore(t)
	for _, id := range []model.OrderID{"c", "a", "b"} {
		require.NoError(t, store.AddOrder(testOrder(t, id)))
	}
	assert.Equal(t, []model.OrderID{"a", "b", "c"}, store.OrderIDs())
	assert.Equal(t, []model.OrderID{"a", "b", "c"}, store.OrderIDsForPosition("pos-1"))
}
