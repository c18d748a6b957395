package lfvec

import "sync"

// OpKind identifies which Vector operation a recorded latency sample
// belongs to.
type OpKind int

const (
	OpPushBack OpKind = iota
	OpPopBack
	OpReadAt
	OpWriteAt
)

// String returns a human-readable operation name.
func (k OpKind) String() string {
	switch k {
	case OpPushBack:
		return "push_back"
	case OpPopBack:
		return "pop_back"
	case OpReadAt:
		return "read_at"
	case OpWriteAt:
		return "write_at"
	default:
		return "unknown"
	}
}

// Metrics accumulates lock-free operation statistics: per-kind call
// counts, the number of CAS attempts that lost the helping race and had
// to retry, the number of writes completed by a helper rather than their
// originating goroutine, and a streaming latency percentile estimate per
// operation kind.
//
// A Vector only populates Metrics when constructed WithMetrics; otherwise
// the field stays nil and recording is skipped on the hot path.
type Metrics struct {
	mu sync.Mutex

	calls        [4]uint64
	casRetries   uint64
	helpedWrites uint64
	latency      [4]*pSquareMultiQuantile
	percentiles  []float64
}

func newMetrics(percentiles []float64) *Metrics {
	m := &Metrics{percentiles: percentiles}
	for i := range m.latency {
		m.latency[i] = newPSquareMultiQuantile(percentiles...)
	}
	return m
}

// recordOp records one completed operation of kind, with its wall-clock
// latency in nanoseconds.
func (m *Metrics) recordOp(kind OpKind, nanos float64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[kind]++
	m.latency[kind].Update(nanos)
}

// recordCASRetry increments the count of lost CAS races on Vector.current.
func (m *Metrics) recordCASRetry() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.casRetries++
	m.mu.Unlock()
}

// recordHelpedWrite increments the count of single-slot writes completed
// by a goroutine other than the one that published them.
func (m *Metrics) recordHelpedWrite() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.helpedWrites++
	m.mu.Unlock()
}

// Snapshot is a point-in-time, immutable copy of Metrics suitable for
// export to a monitoring system.
type Snapshot struct {
	Calls        [4]uint64
	CASRetries   uint64
	HelpedWrites uint64
	Percentiles  []float64
	Latency      [4][]float64 // Latency[kind][i] is the estimate for Percentiles[i], in nanoseconds
	Mean         [4]float64
	Max          [4]float64
}

// Snapshot captures the current state of m. Returns the zero Snapshot if
// m is nil (metrics disabled).
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Calls:        m.calls,
		CASRetries:   m.casRetries,
		HelpedWrites: m.helpedWrites,
		Percentiles:  append([]float64(nil), m.percentiles...),
	}
	for k := range m.latency {
		est := m.latency[k]
		values := make([]float64, len(m.percentiles))
		for i := range values {
			values[i] = est.Quantile(i)
		}
		snap.Latency[k] = values
		snap.Mean[k] = est.Mean()
		snap.Max[k] = est.Max()
	}
	return snap
}
