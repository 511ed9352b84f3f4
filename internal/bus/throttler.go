package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/obs"
)

var (
	ErrNilReceiver     = errors.New("throttler receiver is nil")
	ErrInvalidInterval = errors.New("throttle interval must be > 0")
	ErrInvalidLimit    = errors.New("throttle limit must be > 0")
	ErrThrottlerClosed = errors.New("throttler closed")
)

// Throttler forwards envelopes to a downstream endpoint at a bounded rate.
// The voucher bucket holds `limit` forwards and refills in full once per
// `interval`. The throttler never rejects; envelopes beyond the limit wait
// in an unbounded FIFO queue, so a permanently blocked receiver grows the
// queue without bound.
//
// Chaining one throttler as another's receiver yields a strict two-stage
// limiter.
type Throttler struct {
	name     string
	receiver Poster
	interval time.Duration
	limit    int
	metrics  *obs.Metrics

	in      chan Envelope
	done    chan struct{}
	started uint32

	mu     sync.RWMutex // excludes Post sends from the close in Stop
	closed bool

	queued   int64
	vouchers int64
}

// NewThrottler validates the rate parameters and builds an idle throttler.
func NewThrottler(name string, receiver Poster, interval time.Duration, limit int, metrics *obs.Metrics) (*Throttler, error) {
	if receiver == nil {
		return nil, ErrNilReceiver
	}
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	t := &Throttler{
		name:     name,
		receiver: receiver,
		interval: interval,
		limit:    limit,
		metrics:  metrics,
		in:       make(chan Envelope, defaultMailboxCapacity),
		done:     make(chan struct{}),
	}
	atomic.StoreInt64(&t.vouchers, int64(limit))
	return t, nil
}

// Name returns the throttler name.
func (t *Throttler) Name() string { return t.name }

// Post enqueues an envelope for throttled forwarding. The read lock is held
// across the send so Stop cannot close the channel under it.
func (t *Throttler) Post(e Envelope) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return ErrThrottlerClosed
	}
	t.in <- e
	return nil
}

// Start launches the throttle worker.
func (t *Throttler) Start(ctx context.Context) {
	if !atomic.CompareAndSwapUint32(&t.started, 0, 1) {
		return
	}
	go t.run(ctx)
}

// Stop closes the inbound channel and waits until the queue drains. The write
// lock guarantees no Post is mid-send when the channel closes; a racing Post
// observes the closed flag and returns ErrThrottlerClosed.
func (t *Throttler) Stop() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.in)
	t.mu.Unlock()
	if atomic.LoadUint32(&t.started) != 0 {
		<-t.done
	}
}

// QueueDepth reports envelopes waiting for a voucher.
func (t *Throttler) QueueDepth() int { return int(atomic.LoadInt64(&t.queued)) }

// Vouchers reports forwards remaining in the current interval.
func (t *Throttler) Vouchers() int { return int(atomic.LoadInt64(&t.vouchers)) }

func (t *Throttler) run(ctx context.Context) {
	defer close(t.done)

	timer := time.NewTimer(t.interval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var queue []Envelope
	vouchers := t.limit
	active := false
	in := t.in

	for {
		if in == nil && len(queue) == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case e, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			if e.Message == nil {
				t.metrics.IncDroppedNil()
				logs.Warnf("throttler %s dropped a nil message", t.name)
				continue
			}
			if !active {
				active = true
				resetTimer(timer, t.interval)
			}
			if vouchers > 0 && len(queue) == 0 {
				t.forward(e)
				vouchers--
			} else {
				queue = append(queue, e)
				t.metrics.IncThrottleDelay()
			}
			t.publishState(len(queue), vouchers)
		case <-timer.C:
			vouchers = t.limit
			for vouchers > 0 && len(queue) > 0 {
				t.forward(queue[0])
				queue = queue[1:]
				vouchers--
			}
			if len(queue) > 0 {
				resetTimer(timer, t.interval)
			} else {
				active = false
			}
			t.publishState(len(queue), vouchers)
		}
	}
}

func (t *Throttler) forward(e Envelope) {
	if err := t.receiver.Post(e); err != nil {
		logs.Errorf("throttler %s forward failed, err: %+v", t.name, err)
	}
}

func (t *Throttler) publishState(queued, vouchers int) {
	atomic.StoreInt64(&t.queued, int64(queued))
	atomic.StoreInt64(&t.vouchers, int64(vouchers))
}

func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}
