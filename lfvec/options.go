package lfvec

import "runtime"

// vectorOptions holds the resolved configuration for a Vector, after
// applying every VectorOption supplied to New.
type vectorOptions struct {
	firstBucketSize   uint64
	maxBuckets        int
	poolCount         int
	poolCapacity      int
	maxThreads        int
	spinWarnThreshold int
	logger            Logger
	metricsEnabled    bool
	percentiles       []float64
}

// poolCountUnset is the sentinel poolCount value meaning "derive it from
// MaxThreads once every option has been applied", distinct from a user
// explicitly passing 0 (which resolveVectorOptions still rejects).
const poolCountUnset = -1

// defaultVectorOptions mirrors the teacher's options pattern: a private
// struct of resolved defaults, tweaked by a list of functional options.
// MaxThreads defaults to a multiple of the host's GOMAXPROCS rather than a
// fixed constant, since the right amount of shard parallelism is a
// property of the machine the vector runs on, not the library. poolCount
// and poolCapacity are left as sentinels here and derived in
// resolveVectorOptions, after every option has applied, so that e.g.
// WithMaxThreads alone still produces a consistent poolCount/poolCapacity
// pair instead of one computed against the default MaxThreads.
func defaultVectorOptions() vectorOptions {
	return vectorOptions{
		firstBucketSize:   8,
		maxBuckets:        32,
		poolCount:         poolCountUnset,
		poolCapacity:      0,
		maxThreads:        runtime.GOMAXPROCS(0) * 4,
		spinWarnThreshold: 64,
		logger:            NewNoOpLogger(),
		metricsEnabled:    false,
		percentiles:       []float64{0.5, 0.9, 0.99},
	}
}

// VectorOption configures a Vector at construction time.
type VectorOption interface {
	apply(*vectorOptions)
}

type vectorOptionFunc func(*vectorOptions)

func (f vectorOptionFunc) apply(o *vectorOptions) { f(o) }

// WithFirstBucketSize sets the capacity of bucket 0. Must be a power of
// two; New returns a *ConfigError otherwise. Defaults to 8.
func WithFirstBucketSize(size uint64) VectorOption {
	return vectorOptionFunc(func(o *vectorOptions) {
		o.firstBucketSize = size
	})
}

// WithPoolCapacity sets the number of descriptor-carrier nodes allocated
// per pool shard. It bounds the number of concurrently in-flight
// PushBack/PopBack helping chains that shard can sustain. Defaults to
// 2*MaxThreads+1, enough that every registered thread plus one helper
// round can hold a node at once without the pool ever running dry.
func WithPoolCapacity(capacity int) VectorOption {
	return vectorOptionFunc(func(o *vectorOptions) {
		o.poolCapacity = capacity
	})
}

// WithPoolShards sets the number of independent pool/descriptor shards a
// Vector's thread-bound operations are routed across via SetThreadID.
// More shards spread node acquisition across more pools, reducing
// contention on any one pool's scan, at the cost of more nodes resident in
// memory. Defaults to
// min(MaxThreads, runtime.GOMAXPROCS(0)).
func WithPoolShards(shards int) VectorOption {
	return vectorOptionFunc(func(o *vectorOptions) {
		o.poolCount = shards
	})
}

// WithMaxPools is an alias for WithPoolShards, matching the MAX_POOLS
// configuration name.
func WithMaxPools(n int) VectorOption {
	return WithPoolShards(n)
}

// WithMaxThreads bounds the number of distinct thread IDs SetThreadID
// will accept. Defaults to runtime.GOMAXPROCS(0)*4.
func WithMaxThreads(n int) VectorOption {
	return vectorOptionFunc(func(o *vectorOptions) {
		o.maxThreads = n
	})
}

// WithMaxBuckets sets MAX_L1_BUCKETS. The value is only validated (it must
// lie in [1, 64]); it does not limit how many buckets a Vector allocates:
// the directory is always a fixed 64 slots (enough to address the full
// range of a uint64 index for any power-of-two first bucket size), and
// growth is not stopped at this count. Defaults to 32.
func WithMaxBuckets(n int) VectorOption {
	return vectorOptionFunc(func(o *vectorOptions) {
		o.maxBuckets = n
	})
}

// WithSpinWarnThreshold sets how many full, unsuccessful scans of a pool
// shard's nodes acquireFree performs before logging a LevelWarn "pool
// pressure" diagnostic. It never causes an operation to fail; it only
// controls when the operational signal fires. Defaults to 64.
func WithSpinWarnThreshold(n int) VectorOption {
	return vectorOptionFunc(func(o *vectorOptions) {
		o.spinWarnThreshold = n
	})
}

// WithLogger installs a structured Logger. Defaults to a no-op logger.
func WithLogger(logger Logger) VectorOption {
	return vectorOptionFunc(func(o *vectorOptions) {
		if logger != nil {
			o.logger = logger
		}
	})
}

// WithMetrics enables latency/throughput tracking via the P-Square
// streaming estimator, reporting the given percentiles (each in
// [0.0, 1.0]). Disabled by default, since tracking costs a
// time.Since/mutex pair per operation.
func WithMetrics(percentiles ...float64) VectorOption {
	return vectorOptionFunc(func(o *vectorOptions) {
		o.metricsEnabled = true
		if len(percentiles) > 0 {
			o.percentiles = percentiles
		}
	})
}

func resolveVectorOptions(opts []VectorOption) (vectorOptions, error) {
	o := defaultVectorOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.firstBucketSize == 0 || (o.firstBucketSize&(o.firstBucketSize-1)) != 0 {
		return o, &ConfigError{Field: "FirstBucketSize", Message: "must be a power of two"}
	}
	if o.maxThreads < 1 {
		return o, &ConfigError{Field: "MaxThreads", Message: "must be at least 1"}
	}
	if o.poolCount == poolCountUnset {
		o.poolCount = runtime.GOMAXPROCS(0)
		if o.poolCount > o.maxThreads {
			o.poolCount = o.maxThreads
		}
	}
	if o.poolCount < 1 {
		return o, &ConfigError{Field: "PoolShards", Message: "must be at least 1"}
	}
	if o.poolCount > o.maxThreads {
		return o, &ConfigError{Field: "PoolShards", Message: "must not exceed MaxThreads"}
	}
	if o.maxBuckets < 1 || o.maxBuckets > maxBuckets {
		return o, &ConfigError{Field: "MaxBuckets", Message: "must be between 1 and 64"}
	}
	if o.poolCapacity == 0 {
		o.poolCapacity = 2*o.maxThreads + 1
	}
	if o.poolCapacity < 1 {
		return o, &ConfigError{Field: "PoolCapacity", Message: "must be at least 1"}
	}
	if o.spinWarnThreshold < 1 {
		return o, &ConfigError{Field: "SpinWarnThreshold", Message: "must be at least 1"}
	}
	return o, nil
}
