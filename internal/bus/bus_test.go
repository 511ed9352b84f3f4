package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/obs"
)

const (
	testTypePing = TypeUserBase + 200 + iota
	testTypePong
	testTypeTick
)

func init() {
	MustRegisterType(testTypePing, CategoryCommand, "Ping")
	MustRegisterType(testTypePong, CategoryCommand, "Pong")
	MustRegisterType(testTypeTick, CategoryEvent, "Tick")
}

type pingMsg struct{ seq int }

func (pingMsg) Category() Category { return CategoryCommand }
func (pingMsg) Type() MessageType  { return testTypePing }

type pongMsg struct{}

func (pongMsg) Category() Category { return CategoryCommand }
func (pongMsg) Type() MessageType  { return testTypePong }

type tickMsg struct{}

func (tickMsg) Category() Category { return CategoryEvent }
func (tickMsg) Type() MessageType  { return testTypeTick }

func collector(addr Address, out chan<- Envelope) *Mailbox {
	return NewMailbox(addr, func(e Envelope) { out <- e })
}

func recvEnvelope(t *testing.T, ch <-chan Envelope) Envelope {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
		return Envelope{}
	}
}

func TestSubscribeIdempotent(t *testing.T) {
	b := NewMessageBus(CategoryCommand, EmptySwitchboard(), nil)
	mb := NewMailbox("a", func(Envelope) {})

	b.Subscribe(testTypePing, mb)
	b.Subscribe(testTypePing, mb)
	b.Subscribe(testTypePing, mb)

	assert.Equal(t, 1, b.SubscriptionCount(testTypePing))
	assert.True(t, b.HasSubscriber(testTypePing, mb))
}

func TestSubscribeForeignTypeIsNoOp(t *testing.T) {
	b := NewMessageBus(CategoryCommand, EmptySwitchboard(), nil)
	mb := NewMailbox("a", func(Envelope) {})

	b.Subscribe(testTypeTick, mb)
	assert.Equal(t, 0, b.SubscriptionCount(testTypeTick))

	b.Subscribe(MessageType(60000), mb)
	assert.Equal(t, 0, b.SubscriptionCount(MessageType(60000)))
}

func TestUnsubscribePreservesOrder(t *testing.T) {
	b := NewMessageBus(CategoryCommand, EmptySwitchboard(), nil)
	first := NewMailbox("first", func(Envelope) {})
	second := NewMailbox("second", func(Envelope) {})
	third := NewMailbox("third", func(Envelope) {})

	b.Subscribe(testTypePing, first)
	b.Subscribe(testTypePing, second)
	b.Subscribe(testTypePing, third)
	b.Unsubscribe(testTypePing, second)

	targets := b.targets(testTypePing)
	require.Len(t, targets, 2)
	assert.Same(t, first, targets[0])
	assert.Same(t, third, targets[1])
}

func TestTargetsUnionDedupes(t *testing.T) {
	b := NewMessageBus(CategoryCommand, EmptySwitchboard(), nil)
	exact := NewMailbox("exact", func(Envelope) {})
	both := NewMailbox("both", func(Envelope) {})
	wide := NewMailbox("wide", func(Envelope) {})

	b.Subscribe(testTypePing, exact)
	b.Subscribe(testTypePing, both)
	b.Subscribe(TypeAnyCommand, both)
	b.Subscribe(TypeAnyCommand, wide)

	targets := b.targets(testTypePing)
	require.Len(t, targets, 3)
	assert.Same(t, exact, targets[0])
	assert.Same(t, both, targets[1])
	assert.Same(t, wide, targets[2])
}

func TestSendRejectsNilAndForeignCategory(t *testing.T) {
	b := NewMessageBus(CategoryCommand, EmptySwitchboard(), nil)

	err := b.Send(NewEnvelope(nil, "s", "", time.Now()))
	assert.ErrorIs(t, err, ErrNilMessage)

	err = b.Send(NewEnvelope(tickMsg{}, "s", "", time.Now()))
	assert.Error(t, err)
}

func TestFanOutDeliversToExactAndCategorySubscribers(t *testing.T) {
	metrics := obs.NewMetrics()
	b := NewMessageBus(CategoryCommand, EmptySwitchboard(), metrics)
	exactCh := make(chan Envelope, 1)
	wideCh := make(chan Envelope, 1)
	otherCh := make(chan Envelope, 1)
	exact := collector("exact", exactCh)
	wide := collector("wide", wideCh)
	other := collector("other", otherCh)

	b.Subscribe(testTypePing, exact)
	b.Subscribe(TypeAnyCommand, wide)
	b.Subscribe(testTypePong, other)

	exact.Start(context.Background())
	wide.Start(context.Background())
	other.Start(context.Background())
	b.Start(context.Background())
	defer func() {
		b.Stop()
		exact.Stop()
		wide.Stop()
		other.Stop()
	}()

	require.NoError(t, b.Send(NewEnvelope(pingMsg{seq: 7}, "test", "", time.Now())))

	got := recvEnvelope(t, exactCh)
	assert.Equal(t, 7, got.Message.(pingMsg).seq)
	recvEnvelope(t, wideCh)

	select {
	case <-otherCh:
		t.Fatal("pong subscriber must not receive ping")
	case <-time.After(50 * time.Millisecond):
	}

	b.Stop()
	assert.Equal(t, uint64(2), metrics.Snapshot().Delivered)
}

func TestAddressedDeliveryBypassesSubscribers(t *testing.T) {
	metrics := obs.NewMetrics()
	sb := EmptySwitchboard()
	targetCh := make(chan Envelope, 1)
	subCh := make(chan Envelope, 1)
	target := collector("target", targetCh)
	sub := collector("sub", subCh)
	require.NoError(t, sb.Install(map[Address]*Mailbox{"target": target}))

	b := NewMessageBus(CategoryCommand, sb, metrics)
	b.Subscribe(testTypePing, sub)

	target.Start(context.Background())
	sub.Start(context.Background())
	b.Start(context.Background())
	defer func() {
		b.Stop()
		target.Stop()
		sub.Stop()
	}()

	require.NoError(t, b.Send(NewEnvelope(pingMsg{seq: 1}, "test", "target", time.Now())))

	got := recvEnvelope(t, targetCh)
	assert.Equal(t, Address("target"), got.Receiver)

	select {
	case <-subCh:
		t.Fatal("addressed envelope must not fan out")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAddressedDeliveryToUnknownReceiverIsDeadLetter(t *testing.T) {
	metrics := obs.NewMetrics()
	sb := EmptySwitchboard()
	deadCh := make(chan Envelope, 1)
	sb.RegisterDeadLetterHandler(func(e Envelope) { deadCh <- e })
	known := collector("known", make(chan Envelope, 1))
	require.NoError(t, sb.Install(map[Address]*Mailbox{"known": known}))

	b := NewMessageBus(CategoryCommand, sb, metrics)
	b.Start(context.Background())
	defer b.Stop()

	require.NoError(t, b.Send(NewEnvelope(pingMsg{}, "test", "nobody", time.Now())))

	got := recvEnvelope(t, deadCh)
	b.Stop()
	assert.Equal(t, Address("nobody"), got.Receiver)
	assert.Equal(t, uint64(1), metrics.Snapshot().DeadLetters)
	assert.Equal(t, uint64(0), metrics.Snapshot().Delivered)
}

func TestZeroSubscribersAbsorbSilently(t *testing.T) {
	metrics := obs.NewMetrics()
	b := NewMessageBus(CategoryCommand, EmptySwitchboard(), metrics)
	b.Start(context.Background())

	require.NoError(t, b.Send(NewEnvelope(pingMsg{}, "test", "", time.Now())))
	b.Stop()

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(0), snap.Delivered)
	assert.Equal(t, uint64(0), snap.DeadLetters)
}
