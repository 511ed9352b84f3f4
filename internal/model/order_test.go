package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initEvent(id OrderID) OrderEvent {
	return OrderEvent{
		Kind:       OrderEventInitialized,
		OrderID:    id,
		TraderID:   "trader-1",
		StrategyID: "momentum",
		AccountID:  "acct-1",
		PositionID: "pos-1",
		Symbol:     "BTCUSDT",
		Side:       OrderSideBuy,
		OrderType:  OrderTypeLimit,
		Timestamp:  time.Now().UTC(),
	}
}

func orderAt(t *testing.T, id OrderID, kinds ...OrderEventKind) *Order {
	t.Helper()
	o, err := NewOrder(initEvent(id))
	require.NoError(t, err)
	for _, kind := range kinds {
		require.NoError(t, o.Apply(OrderEvent{Kind: kind, OrderID: id, Timestamp: time.Now().UTC()}))
	}
	return o
}

func TestNewOrderValidation(t *testing.T) {
	_, err := NewOrder(OrderEvent{Kind: OrderEventSubmitted, OrderID: "o1"})
	assert.ErrorIs(t, err, ErrInvalidInitEvent)

	_, err = NewOrder(initEvent(""))
	assert.Error(t, err)

	e := initEvent("o1")
	e.AccountID = ""
	_, err = NewOrder(e)
	assert.Error(t, err)
}

func TestOrderLifecycleHappyPath(t *testing.T) {
	o := orderAt(t, "o1")
	assert.Equal(t, OrderStatusInitialized, o.Status())
	assert.False(t, o.IsWorking())
	assert.False(t, o.IsCompleted())

	steps := []struct {
		kind   OrderEventKind
		status OrderStatus
	}{
		{OrderEventSubmitted, OrderStatusSubmitted},
		{OrderEventAccepted, OrderStatusAccepted},
		{OrderEventWorking, OrderStatusWorking},
		{OrderEventPartiallyFilled, OrderStatusPartiallyFilled},
		{OrderEventFilled, OrderStatusFilled},
	}
	for _, step := range steps {
		require.NoError(t, o.Apply(OrderEvent{Kind: step.kind, OrderID: "o1"}))
		assert.Equal(t, step.status, o.Status())
	}
	assert.False(t, o.IsWorking())
	assert.True(t, o.IsCompleted())
	assert.Equal(t, 6, o.EventCount())
}

func TestOrderPartitionMembership(t *testing.T) {
	working := []*Order{
		orderAt(t, "w1", OrderEventSubmitted),
		orderAt(t, "w2", OrderEventSubmitted, OrderEventAccepted),
		orderAt(t, "w3", OrderEventSubmitted, OrderEventWorking),
		orderAt(t, "w4", OrderEventSubmitted, OrderEventWorking, OrderEventPartiallyFilled),
	}
	for _, o := range working {
		assert.Truef(t, o.IsWorking(), "order %s should be working", o.ID())
		assert.Falsef(t, o.IsCompleted(), "order %s should not be completed", o.ID())
	}

	completed := []*Order{
		orderAt(t, "c1", OrderEventSubmitted, OrderEventWorking, OrderEventFilled),
		orderAt(t, "c2", OrderEventSubmitted, OrderEventCancelled),
		orderAt(t, "c3", OrderEventRejected),
		orderAt(t, "c4", OrderEventSubmitted, OrderEventAccepted, OrderEventExpired),
	}
	for _, o := range completed {
		assert.Falsef(t, o.IsWorking(), "order %s should not be working", o.ID())
		assert.Truef(t, o.IsCompleted(), "order %s should be completed", o.ID())
	}
}

func TestOrderRejectsInvalidTransitions(t *testing.T) {
	filled := orderAt(t, "o1", OrderEventSubmitted, OrderEventWorking, OrderEventFilled)
	err := filled.Apply(OrderEvent{Kind: OrderEventWorking, OrderID: "o1"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, OrderStatusFilled, filled.Status())

	fresh := orderAt(t, "o2")
	err = fresh.Apply(OrderEvent{Kind: OrderEventFilled, OrderID: "o2"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = fresh.Apply(OrderEvent{Kind: OrderEventSubmitted, OrderID: "other"})
	assert.ErrorIs(t, err, ErrEventIDMismatch)
	assert.Equal(t, 1, fresh.EventCount())
}

func TestOrderModifiedKeepsStatus(t *testing.T) {
	o := orderAt(t, "o1", OrderEventSubmitted, OrderEventWorking)
	require.NoError(t, o.Apply(OrderEvent{Kind: OrderEventModified, OrderID: "o1"}))
	assert.Equal(t, OrderStatusWorking, o.Status())
	assert.True(t, o.IsWorking())

	initialized := orderAt(t, "o2")
	err := initialized.Apply(OrderEvent{Kind: OrderEventModified, OrderID: "o2"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderFromEventsReplay(t *testing.T) {
	original := orderAt(t, "o1", OrderEventSubmitted, OrderEventWorking, OrderEventPartiallyFilled)

	rebuilt, err := OrderFromEvents(original.Events())
	require.NoError(t, err)
	assert.Equal(t, original.ID(), rebuilt.ID())
	assert.Equal(t, original.Status(), rebuilt.Status())
	assert.Equal(t, original.EventCount(), rebuilt.EventCount())
	assert.Equal(t, original.TraderID(), rebuilt.TraderID())
	assert.Equal(t, original.StrategyID(), rebuilt.StrategyID())

	_, err = OrderFromEvents(nil)
	assert.ErrorIs(t, err, ErrEmptyEventLog)

	_, err = OrderFromEvents([]OrderEvent{{Kind: OrderEventSubmitted, OrderID: "o1"}})
	assert.ErrorIs(t, err, ErrInvalidInitEvent)
}

func TestBracketOrderOrdering(t *testing.T) {
	entry := orderAt(t, "entry")
	stop := orderAt(t, "stop")
	take := orderAt(t, "take")

	full := BracketOrder{Entry: entry, StopLoss: stop, TakeProfit: take}
	orders := full.Orders()
	require.Len(t, orders, 3)
	assert.Same(t, entry, orders[0])
	assert.Same(t, stop, orders[1])
	assert.Same(t, take, orders[2])

	twoLegged := BracketOrder{Entry: entry, StopLoss: stop}
	assert.Len(t, twoLegged.Orders(), 2)
}
