package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters for the messaging substrate and the
// execution database. All methods are safe for concurrent use and tolerate a
// nil receiver so wiring stays optional.
type Metrics struct {
	delivered      uint64
	deadLetters    uint64
	droppedNil     uint64
	throttleDelays uint64
	duplicateKeys  uint64
	indexDrift     uint64
	residuals      uint64

	dispatchLatency LatencyStats
}

// Snapshot is a point-in-time copy of the metrics values.
type Snapshot struct {
	Delivered       uint64
	DeadLetters     uint64
	DroppedNil      uint64
	ThrottleDelays  uint64
	DuplicateKeys   uint64
	IndexDrift      uint64
	Residuals       uint64
	DispatchLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncDelivered records a successful envelope delivery.
func (m *Metrics) IncDelivered() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.delivered, 1)
}

// IncDeadLetter records an envelope that could not be routed.
func (m *Metrics) IncDeadLetter() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.deadLetters, 1)
}

// IncDroppedNil records a nil message dropped by a throttler.
func (m *Metrics) IncDroppedNil() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.droppedNil, 1)
}

// IncThrottleDelay records a message held back for a later interval.
func (m *Metrics) IncThrottleDelay() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.throttleDelays, 1)
}

// IncDuplicateKey records a rejected duplicate add.
func (m *Metrics) IncDuplicateKey() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.duplicateKeys, 1)
}

// IncIndexDrift records an index entry whose aggregate was missing or whose
// state disagreed with the index partition.
func (m *Metrics) IncIndexDrift() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.indexDrift, 1)
}

// IncResidual records a working order or open position found at recovery.
func (m *Metrics) IncResidual() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.residuals, 1)
}

// ObserveDispatch measures bus dispatch latency.
func (m *Metrics) ObserveDispatch(d time.Duration) {
	if m == nil {
		return
	}
	m.dispatchLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Delivered:       atomic.LoadUint64(&m.delivered),
		DeadLetters:     atomic.LoadUint64(&m.deadLetters),
		DroppedNil:      atomic.LoadUint64(&m.droppedNil),
		ThrottleDelays:  atomic.LoadUint64(&m.throttleDelays),
		DuplicateKeys:   atomic.LoadUint64(&m.duplicateKeys),
		IndexDrift:      atomic.LoadUint64(&m.indexDrift),
		Residuals:       atomic.LoadUint64(&m.residuals),
		DispatchLatency: m.dispatchLatency.Snapshot(),
	}
}
