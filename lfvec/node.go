package lfvec

import (
	"sync/atomic"

	"github.com/MiniJ147/lock-free-vec/internal/cachepad"
)

// writeDescriptor records a single pending (or already applied) word-sized
// slot mutation: a helper observing one can complete it without any
// further coordination with the thread that published it.
type writeDescriptor[T Value] struct {
	index    uint64
	oldValue uint64
	newValue uint64
}

// vecDescriptor is the state published atomically alongside a node: the
// logical size together with at most one pending write, so that a single
// CAS on the Vector's current pointer is simultaneously the linearization
// point for a size change and for the slot mutation that accompanies it.
type vecDescriptor[T Value] struct {
	size     uint64
	hasWrite bool
	write    writeDescriptor[T]
}

// node is a descriptor carrier living inside the bounded pool. Nodes are
// never freed back to the runtime; they are recycled by refcount once
// every observer has dropped its reference. desc and done are the Node's
// in-place Descriptor and Write Descriptor slots: populate overwrites them
// directly on the node a caller already holds, so publishing a new
// descriptor never allocates on the hot path. The padding prevents the
// refcount field of one node from sharing a cache line with a neighbor's,
// which would otherwise cause false-sharing contention between unrelated
// acquire/release pairs under concurrent load.
type node[T Value] struct {
	id       int
	owner    *pool[T]
	refCount atomic.Int64

	desc vecDescriptor[T]
	done atomic.Bool // guards desc.write's apply, separate from desc so reset/populate can assign desc as a whole

	_ [cachepad.Line - cachepad.SizeOfAtomicInt64]byte
}

// reset clears a node's descriptor payload before it is handed out by
// acquireFree.
func (n *node[T]) reset() {
	n.desc = vecDescriptor[T]{}
	n.done.Store(false)
}

// populate overwrites n's in-place descriptor slot with size and, if write
// is non-nil, a pending write descriptor. This mirrors the original
// reference implementation's in-place node reuse: a thread that owns an
// acquired node writes its descriptor fields directly into that node,
// repopulating the very same node on each CAS retry rather than acquiring
// a fresh one, and never allocates a descriptor on the heap to do it.
func (n *node[T]) populate(size uint64, write *writeDescriptor[T]) {
	if write != nil {
		n.desc = vecDescriptor[T]{size: size, hasWrite: true, write: *write}
	} else {
		n.desc = vecDescriptor[T]{size: size}
	}
	n.done.Store(false)
}

// load returns a pointer to n's in-place descriptor. The pointer is only
// valid while the caller holds a reference to n (see tryAcquire/release);
// it must not be retained past a release.
func (n *node[T]) load() *vecDescriptor[T] {
	return &n.desc
}

// apply performs n's pending write, if any, exactly once no matter how
// many goroutines call it concurrently. It reports whether this call was
// the one that performed the store (used for helpedWrites metrics).
func (n *node[T]) apply(buckets *bucketArray) bool {
	if !n.desc.hasWrite {
		return false
	}
	if n.done.CompareAndSwap(false, true) {
		buckets.storeRaw(n.desc.write.index, n.desc.write.newValue)
		return true
	}
	return false
}

// tryAcquire is acquire_by_id applied to a node the caller already holds a
// pointer to: since a Go pointer already pins the node's identity (there is
// no separate id-indexed pool lookup needed to reach it), bumping refCount
// directly on n is the same operation. It bumps n's refcount, provided it
// is currently live (refCount > 0), and reports false if n had already
// been recycled by the time of the attempt, meaning whatever the caller
// read it through is stale and must be re-observed.
func (n *node[T]) tryAcquire() bool {
	for {
		cur := n.refCount.Load()
		if cur <= 0 {
			return false
		}
		if n.refCount.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// release drops n's reference through its owning pool.
func (n *node[T]) release() {
	n.owner.release(n)
}
