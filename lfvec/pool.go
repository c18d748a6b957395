package lfvec

import (
	"errors"
	"sync/atomic"
)

// ErrPoolExhausted is returned by acquireFree when every node in the pool
// is currently referenced. A correctly sized pool (see WithPoolCapacity
// and WithMaxThreads) never hits this under the documented concurrency
// bound; callers that do are expected to treat it the same as any other
// resource-exhaustion failure.
var ErrPoolExhausted = errors.New("lfvec: node pool exhausted")

// pool is a bounded, reference-counted set of descriptor carrier nodes.
// It never allocates past its initial capacity: a node is never returned
// to the Go runtime, only recycled once its refCount drops to zero. This
// sidesteps the ABA hazard that a naive free-and-reallocate scheme would
// introduce under concurrent helping, without requiring hazard pointers
// or epoch-based reclamation.
type pool[T Value] struct {
	poolID            int
	nodes             []*node[T]
	cursor            atomic.Uint64
	logger            Logger
	spinWarnThreshold int
}

// maxPoolScans bounds acquireFree's spin so a genuinely misconfigured
// pool (capacity too small for the offered concurrency) fails loudly
// with ErrPoolExhausted instead of spinning forever. A correctly sized
// pool (the default capacity is 2*MaxThreads+1) never approaches it.
const maxPoolScans = 100_000

// newPool allocates capacity nodes up front, all initially free
// (refCount == 0).
func newPool[T Value](poolID, capacity int, logger Logger, spinWarnThreshold int) *pool[T] {
	if capacity < 1 {
		capacity = 1
	}
	if spinWarnThreshold < 1 {
		spinWarnThreshold = 1
	}
	nodes := make([]*node[T], capacity)
	p := &pool[T]{poolID: poolID, nodes: nodes, spinWarnThreshold: spinWarnThreshold}
	for i := range nodes {
		nodes[i] = &node[T]{id: i, owner: p}
	}
	if logger == nil {
		logger = NewNoOpLogger()
	}
	p.logger = logger
	return p
}

// acquireFree finds a node with refCount == 0, atomically claims it by
// CASing its refcount 0 -> 1, resets its payload, and returns it. The scan
// starts from a rotating cursor so that repeated calls spread contention
// across the pool instead of hammering node 0.
//
// A single acquire is not allowed to fail under ordinary operation, so it
// keeps rescanning the pool until a node frees up, logging a LevelWarn
// "pool pressure" diagnostic the first time it crosses
// spinWarnThreshold full scans. It only returns ErrPoolExhausted as a
// last resort after maxPoolScans full scans, which indicates a
// misconfigured pool rather than ordinary contention.
func (p *pool[T]) acquireFree() (*node[T], error) {
	n := len(p.nodes)
	warned := false
	for scans := 0; ; scans++ {
		start := int(p.cursor.Add(1)) % n
		for i := 0; i < n; i++ {
			idx := (start + i) % n
			nd := p.nodes[idx]
			if nd.refCount.CompareAndSwap(0, 1) {
				nd.reset()
				if p.logger.IsEnabled(LevelDebug) {
					p.logger.Log(LogEntry{
						Level:    LevelDebug,
						Category: "pool",
						PoolID:   p.poolID,
						NodeID:   nd.id,
						Message:  "acquired free node",
					})
				}
				return nd, nil
			}
		}

		if scans+1 == p.spinWarnThreshold && !warned {
			warned = true
			if p.logger.IsEnabled(LevelWarn) {
				p.logger.Log(LogEntry{
					Level:    LevelWarn,
					Category: "pool",
					PoolID:   p.poolID,
					Message:  "pool pressure: acquire_free has spun past SpinWarnThreshold scans",
				})
			}
		}
		if scans+1 >= maxPoolScans {
			if p.logger.IsEnabled(LevelError) {
				p.logger.Log(LogEntry{
					Level:    LevelError,
					Category: "pool",
					PoolID:   p.poolID,
					Message:  "pool exhausted",
				})
			}
			return nil, ErrPoolExhausted
		}
	}
}

// release drops one reference to n. When the refcount reaches zero, the
// node becomes eligible for acquireFree again.
func (p *pool[T]) release(n *node[T]) {
	remaining := n.refCount.Add(-1)
	assertf(remaining >= 0, "pool %d: node %d refcount underflow", p.poolID, n.id)
	if remaining == 0 && p.logger.IsEnabled(LevelDebug) {
		p.logger.Log(LogEntry{
			Level:    LevelDebug,
			Category: "pool",
			PoolID:   p.poolID,
			NodeID:   n.id,
			Message:  "node returned to pool",
		})
	}
}

// freeCount returns the number of currently unreferenced nodes. It is a
// snapshot, useful for metrics and tests, not for synchronization.
func (p *pool[T]) freeCount() int {
	free := 0
	for _, nd := range p.nodes {
		if nd.refCount.Load() == 0 {
			free++
		}
	}
	return free
}

// capacity returns the number of nodes owned by the pool.
func (p *pool[T]) capacity() int {
	return len(p.nodes)
}
