package lfvec

import (
	"sync"
	"sync/atomic"
	"time"
)

// Vector is a lock-free, dynamically-resizable, random-access sequence of
// T. The zero value is not usable; construct one with New.
type Vector[T Value] struct {
	current atomic.Pointer[node[T]]
	buckets *bucketArray
	pools   []*pool[T]
	opts    vectorOptions
	metrics *Metrics

	threadsMu sync.Mutex
	threads   map[int]int // thread id -> pool shard index

	rrCounter atomic.Uint64
}

// New constructs an empty Vector[T], applying the given options over the
// documented defaults.
func New[T Value](opts ...VectorOption) (*Vector[T], error) {
	o, err := resolveVectorOptions(opts)
	if err != nil {
		return nil, err
	}

	v := &Vector[T]{
		buckets: newBucketArray(o.firstBucketSize),
		pools:   make([]*pool[T], o.poolCount),
		opts:    o,
		threads: make(map[int]int),
	}
	if o.metricsEnabled {
		v.metrics = newMetrics(o.percentiles)
	}
	for i := range v.pools {
		v.pools[i] = newPool[T](i, o.poolCapacity, o.logger, o.spinWarnThreshold)
	}
	v.buckets.ensureBucket(0, o.firstBucketSize)

	initNode, err := v.pools[0].acquireFree()
	if err != nil {
		return nil, err
	}
	initNode.populate(0, nil)
	v.current.Store(initNode)

	return v, nil
}

// ThreadContext binds a caller-chosen thread id to a fixed pool shard, so
// repeated PushBack/PopBack calls from that logical thread spread their
// descriptor-node churn across shards instead of contending on a single
// shared chain. Go has no thread-local storage, so callers carry this
// handle explicitly instead of the implicit "current thread" the
// reference algorithm assumes.
type ThreadContext[T Value] struct {
	v     *Vector[T]
	id    int
	shard int
}

// SetThreadID registers id (if not already registered) and returns a
// ThreadContext routing that thread's operations to a deterministic pool
// shard. It is safe to call repeatedly with the same id from a single
// logical thread; calling it concurrently for the same id from multiple
// goroutines is the caller's error to avoid, exactly as a single "thread"
// registering itself twice would be in the reference model.
func (v *Vector[T]) SetThreadID(id int) (*ThreadContext[T], error) {
	if id < 0 || id >= v.opts.maxThreads {
		return nil, &ConfigError{Field: "ThreadID", Message: "out of configured MaxThreads range"}
	}
	v.threadsMu.Lock()
	defer v.threadsMu.Unlock()
	shard, ok := v.threads[id]
	if !ok {
		shard = id % len(v.pools)
		v.threads[id] = shard
	}
	return &ThreadContext[T]{v: v, id: id, shard: shard}, nil
}

// PushBack appends value via this thread's bound pool shard.
func (t *ThreadContext[T]) PushBack(value T) error {
	return t.v.pushBackOn(t.shard, value)
}

// PopBack removes and returns the last element via this thread's bound
// pool shard.
func (t *ThreadContext[T]) PopBack() (T, error) {
	return t.v.popBackOn(t.shard, value0[T]())
}

func value0[T Value]() T {
	var zero T
	return zero
}

// PushBack appends value to the end of the vector, growing it by one.
// Callers that never registered a ThreadContext are routed round-robin
// across pool shards.
func (v *Vector[T]) PushBack(value T) error {
	shard := int(v.rrCounter.Add(1)) % len(v.pools)
	return v.pushBackOn(shard, value)
}

// PopBack removes and returns the last element, shrinking the vector by
// one. On an empty vector it returns the value held in slot 0 (the zero
// value if that slot was never written) with a nil error, and Size stays 0.
func (v *Vector[T]) PopBack() (T, error) {
	shard := int(v.rrCounter.Add(1)) % len(v.pools)
	return v.popBackOn(shard, value0[T]())
}

// observeCurrent returns the current descriptor-carrier node, pinned
// against recycling until the caller releases it. It follows the
// reference protocol exactly: load current, pin it, then reload current
// and check it hasn't moved. Without the reload, a node observed via the
// first load could be recycled and repopulated by an unrelated push/pop
// between the load and the pin succeeding — tryAcquire would then pin a
// live node, just not the one that was actually current at the time of
// the read, silently handing back the wrong descriptor.
func (v *Vector[T]) observeCurrent() *node[T] {
	for {
		n := v.current.Load()
		if !n.tryAcquire() {
			continue
		}
		if v.current.Load() != n {
			n.release()
			continue
		}
		return n
	}
}

// help completes n's pending write, if any. A publisher applies its own
// write right after its CAS succeeds, so any write help completes here was
// published by some other, possibly stalled, goroutine.
func (v *Vector[T]) help(n *node[T]) {
	if n.apply(v.buckets) {
		v.metrics.recordHelpedWrite()
	}
}

func (v *Vector[T]) pushBackOn(shard int, value T) error {
	p := v.pools[shard]
	start := time.Time{}
	if v.metrics != nil {
		start = time.Now()
	}

	// N is acquired once and repopulated in place on every retry, per the
	// reference protocol: a failed CAS releases only the observation pin
	// on C, never N, so the next attempt reuses the same node instead of
	// allocating or reacquiring one.
	newNode, err := p.acquireFree()
	if err != nil {
		return err
	}

	for {
		curNode := v.observeCurrent()
		v.help(curNode)
		desc := curNode.load()

		idx := desc.size
		bucketIdx, _, bucketSize := v.buckets.addressOf(idx)
		v.buckets.ensureBucket(bucketIdx, bucketSize)
		old := v.buckets.loadRaw(idx)

		wd := writeDescriptor[T]{index: idx, oldValue: old, newValue: toRaw(value)}
		newNode.populate(idx+1, &wd)

		if v.current.CompareAndSwap(curNode, newNode) {
			newNode.apply(v.buckets)
			curNode.release() // container's former reference
			curNode.release() // this call's own observation pin
			if v.metrics != nil {
				v.metrics.recordOp(OpPushBack, float64(time.Since(start)))
			}
			return nil
		}

		curNode.release()
		if v.metrics != nil {
			v.metrics.recordCASRetry()
		}
	}
}

func (v *Vector[T]) popBackOn(shard int, _ T) (T, error) {
	p := v.pools[shard]
	var zero T

	start := time.Time{}
	if v.metrics != nil {
		start = time.Now()
	}

	newNode, err := p.acquireFree()
	if err != nil {
		return zero, err
	}

	for {
		curNode := v.observeCurrent()
		v.help(curNode)
		desc := curNode.load()

		if desc.size == 0 {
			// Defensive non-error on an empty vector: return the slot-0
			// value and leave size at 0, matching ReadAt(0)'s behavior.
			// N was never published, so give it back.
			curNode.release()
			p.release(newNode)
			raw, ok := v.buckets.slotIfAllocated(0)
			if !ok {
				return zero, nil
			}
			return fromRaw[T](raw.Load()), nil
		}

		idx := desc.size - 1
		raw := v.buckets.loadRaw(idx)
		result := fromRaw[T](raw)

		newNode.populate(idx, nil)

		if v.current.CompareAndSwap(curNode, newNode) {
			curNode.release()
			curNode.release()
			if v.metrics != nil {
				v.metrics.recordOp(OpPopBack, float64(time.Since(start)))
			}
			return result, nil
		}

		curNode.release()
		if v.metrics != nil {
			v.metrics.recordCASRetry()
		}
	}
}

// ReadAt returns the element at logical index i. Returns a *RangeError if
// i >= Size().
func (v *Vector[T]) ReadAt(i uint64) (T, error) {
	var zero T
	start := time.Time{}
	if v.metrics != nil {
		start = time.Now()
	}

	curNode := v.observeCurrent()
	v.help(curNode)
	desc := curNode.load()
	size := desc.size
	curNode.release()

	if i >= size {
		return zero, &RangeError{Index: i, Size: size}
	}

	raw := v.buckets.loadRaw(i)
	if v.metrics != nil {
		v.metrics.recordOp(OpReadAt, float64(time.Since(start)))
	}
	return fromRaw[T](raw), nil
}

// WriteAt overwrites the element at logical index i in place, without
// changing Size. Returns a *RangeError if i >= Size().
func (v *Vector[T]) WriteAt(i uint64, value T) error {
	start := time.Time{}
	if v.metrics != nil {
		start = time.Now()
	}
	shard := int(v.rrCounter.Add(1)) % len(v.pools)
	p := v.pools[shard]

	newNode, err := p.acquireFree()
	if err != nil {
		return err
	}

	for {
		curNode := v.observeCurrent()
		v.help(curNode)
		desc := curNode.load()

		if i >= desc.size {
			curNode.release()
			p.release(newNode)
			return &RangeError{Index: i, Size: desc.size}
		}

		old := v.buckets.loadRaw(i)
		wd := writeDescriptor[T]{index: i, oldValue: old, newValue: toRaw(value)}
		newNode.populate(desc.size, &wd)

		if v.current.CompareAndSwap(curNode, newNode) {
			newNode.apply(v.buckets)
			curNode.release()
			curNode.release()
			if v.metrics != nil {
				v.metrics.recordOp(OpWriteAt, float64(time.Since(start)))
			}
			return nil
		}

		curNode.release()
		if v.metrics != nil {
			v.metrics.recordCASRetry()
		}
	}
}

// Size returns the current logical length of the vector.
func (v *Vector[T]) Size() uint64 {
	curNode := v.observeCurrent()
	size := curNode.load().size
	curNode.release()
	return size
}

// Reserve pre-allocates every bucket needed to hold n elements, without
// changing Size. It lets a caller pay the bucket-allocation cost for an
// anticipated growth spurt up front, off the hot path of concurrent
// PushBack calls. This recovers a capability the original reference
// implementation declared (an unused resize(size_t) on its Vector) but
// never defined; here it is given concrete, bucket-allocation-only
// semantics consistent with the rest of the container's append-only
// growth model.
func (v *Vector[T]) Reserve(n uint64) error {
	if n == 0 {
		return nil
	}
	bucketIdx, _, bucketSize := v.buckets.addressOf(n - 1)
	for b := 0; b <= bucketIdx; b++ {
		size := v.opts.firstBucketSize << uint(b)
		if b == bucketIdx {
			size = bucketSize
		}
		v.buckets.ensureBucket(b, size)
	}
	return nil
}

// DebugSnapshot reports the current internal state of the vector, for
// tests and diagnostics. It is not linearized with concurrent mutation:
// the fields may be inconsistent with one another if the vector is being
// concurrently modified.
type DebugSnapshot struct {
	Size            uint64
	PoolCapacity    []int
	PoolFree        []int
	RegisteredShard map[int]int
}

// DebugSnapshot captures a best-effort, non-linearized view of v's
// internal state.
func (v *Vector[T]) DebugSnapshot() DebugSnapshot {
	snap := DebugSnapshot{
		Size:            v.Size(),
		PoolCapacity:    make([]int, len(v.pools)),
		PoolFree:        make([]int, len(v.pools)),
		RegisteredShard: make(map[int]int),
	}
	for i, p := range v.pools {
		snap.PoolCapacity[i] = p.capacity()
		snap.PoolFree[i] = p.freeCount()
	}
	v.threadsMu.Lock()
	for id, shard := range v.threads {
		snap.RegisteredShard[id] = shard
	}
	v.threadsMu.Unlock()
	return snap
}

// Metrics returns the vector's Metrics, or nil if it was constructed
// without WithMetrics.
func (v *Vector[T]) Metrics() *Metrics {
	return v.metrics
}
