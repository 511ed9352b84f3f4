package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSwitchboardRejectsEmptyMap(t *testing.T) {
	_, err := NewSwitchboard(nil)
	assert.ErrorIs(t, err, ErrEmptyAddressMap)

	_, err = NewSwitchboard(map[Address]*Mailbox{})
	assert.ErrorIs(t, err, ErrEmptyAddressMap)
}

func TestDefaultDeadLetterHandlerPanics(t *testing.T) {
	sb := EmptySwitchboard()
	e := NewEnvelope(pingMsg{}, "s", "nobody", time.Now())

	assert.Panics(t, func() { sb.SendToReceiver(e) })
}

func TestInstallReplacesSnapshotWholesale(t *testing.T) {
	sb := EmptySwitchboard()
	sb.RegisterDeadLetterHandler(func(Envelope) {})

	aCh := make(chan Envelope, 1)
	a := collector("a", aCh)
	a.Start(context.Background())
	defer a.Stop()
	require.NoError(t, sb.Install(map[Address]*Mailbox{"a": a}))
	assert.True(t, sb.SendToReceiver(NewEnvelope(pingMsg{}, "s", "a", time.Now())))
	recvEnvelope(t, aCh)

	bCh := make(chan Envelope, 1)
	b := collector("b", bCh)
	b.Start(context.Background())
	defer b.Stop()
	require.NoError(t, sb.Install(map[Address]*Mailbox{"b": b}))

	assert.False(t, sb.SendToReceiver(NewEnvelope(pingMsg{}, "s", "a", time.Now())))
	assert.True(t, sb.SendToReceiver(NewEnvelope(pingMsg{}, "s", "b", time.Now())))
	recvEnvelope(t, bCh)
}

func TestInstallCopiesCallerMap(t *testing.T) {
	sb := EmptySwitchboard()
	sb.RegisterDeadLetterHandler(func(Envelope) {})

	ch := make(chan Envelope, 1)
	mb := collector("a", ch)
	mb.Start(context.Background())
	defer mb.Stop()

	routes := map[Address]*Mailbox{"a": mb}
	require.NoError(t, sb.Install(routes))
	delete(routes, "a")

	assert.True(t, sb.SendToReceiver(NewEnvelope(pingMsg{}, "s", "a", time.Now())))
	recvEnvelope(t, ch)
}

func TestMailboxPostAfterStop(t *testing.T) {
	mb := NewMailbox("a", func(Envelope) {})
	mb.Start(context.Background())
	mb.Stop()

	err := mb.Post(NewEnvelope(pingMsg{}, "s", "a", time.Now()))
	assert.ErrorIs(t, err, ErrMailboxClosed)
}

func TestMailboxStopDrainsQueued(t *testing.T) {
	handled := 0
	mb := NewMailboxWithCapacity("a", 16, func(Envelope) {
		time.Sleep(time.Millisecond)
		handled++
	})
	for i := 0; i < 10; i++ {
		require.NoError(t, mb.Post(NewEnvelope(pingMsg{seq: i}, "s", "a", time.Now())))
	}
	mb.Start(context.Background())
	mb.Stop()

	assert.Equal(t, 10, handled)
}

func TestMailboxConcurrentPostAndStop(t *testing.T) {
	for i := 0; i < 100; i++ {
		mb := NewMailbox("a", func(Envelope) {})
		mb.Start(context.Background())

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					err := mb.Post(NewEnvelope(pingMsg{seq: j}, "s", "a", time.Now()))
					if err != nil {
						assert.ErrorIs(t, err, ErrMailboxClosed)
						return
					}
				}
			}()
		}
		mb.Stop()
		wg.Wait()
	}
}

func TestMailboxFIFO(t *testing.T) {
	got := make([]int, 0, 10)
	mb := NewMailboxWithCapacity("a", 16, func(e Envelope) {
		got = append(got, e.Message.(pingMsg).seq)
	})
	for i := 0; i < 10; i++ {
		require.NoError(t, mb.Post(NewEnvelope(pingMsg{seq: i}, "s", "a", time.Now())))
	}
	mb.Start(context.Background())
	mb.Stop()

	require.Len(t, got, 10)
	for i, seq := range got {
		assert.Equal(t, i, seq)
	}
}
