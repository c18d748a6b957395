package lfvec

import (
	"math/bits"
	"sync/atomic"
)

// Value is the set of element types lfvec can store: every integer kind
// plus uintptr. Each is word-sized or narrower and trivially copyable, so
// a value always round-trips through a uint64 via ordinary numeric
// conversion, letting every slot be a single atomic.Uint64 regardless of
// the concrete T.
type Value interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// toRaw converts v into the uint64 representation stored in a slot.
func toRaw[T Value](v T) uint64 {
	return uint64(v)
}

// fromRaw reverses toRaw.
func fromRaw[T Value](raw uint64) T {
	return T(raw)
}

// maxBuckets bounds the outer bucket directory: with a first bucket of
// size 2^k, 64-k buckets cover the full range of a uint64 index.
const maxBuckets = 64

// bucketSlab is a single fixed-size, lazily allocated bucket of atomic
// slots. Once installed into a bucketArray it is never moved, resized, or
// freed, which is what lets addressOf-derived pointers remain valid for
// the lifetime of the Vector.
type bucketSlab struct {
	slots []atomic.Uint64
}

func newBucketSlab(size uint64) *bucketSlab {
	return &bucketSlab{slots: make([]atomic.Uint64, size)}
}

// bucketArray is the two-level storage structure: a fixed directory of
// pointers to lazily allocated, geometrically growing slabs. Bucket b
// (0-indexed) holds firstBucketSize << b slots.
type bucketArray struct {
	firstBucketSize uint64
	k               uint // log2(firstBucketSize)
	buckets         [maxBuckets]atomic.Pointer[bucketSlab]
}

func newBucketArray(firstBucketSize uint64) *bucketArray {
	if firstBucketSize == 0 || (firstBucketSize&(firstBucketSize-1)) != 0 {
		panic(&ConfigError{Field: "FirstBucketSize", Message: "must be a power of two"})
	}
	return &bucketArray{
		firstBucketSize: firstBucketSize,
		k:               uint(bits.TrailingZeros64(firstBucketSize)),
	}
}

// addressOf maps a 0-based logical index to its (bucket, offset, bucket
// capacity) address, using the standard bit-trick addressing scheme for
// geometrically sized bucket arrays: with pos = i + firstBucketSize, the
// position of the highest set bit of pos identifies the bucket, and
// clearing that bit yields the offset within it.
func (a *bucketArray) addressOf(i uint64) (bucketIdx int, offset uint64, bucketSize uint64) {
	pos := i + a.firstBucketSize
	h := uint(bits.Len64(pos)) - 1
	bucketIdx = int(h - a.k)
	bucketSize = uint64(1) << h
	offset = pos ^ bucketSize
	return
}

// ensureBucket returns the slab for bucketIdx, lazily allocating it with a
// CAS race if necessary. Exactly one allocation wins; the loser's slab is
// discarded by the garbage collector, which is safe since nothing has
// published a pointer into it yet.
func (a *bucketArray) ensureBucket(bucketIdx int, bucketSize uint64) *bucketSlab {
	p := &a.buckets[bucketIdx]
	if slab := p.Load(); slab != nil {
		return slab
	}
	fresh := newBucketSlab(bucketSize)
	if p.CompareAndSwap(nil, fresh) {
		return fresh
	}
	return p.Load()
}

// slotFor returns the atomic slot for logical index i, allocating its
// bucket on first touch.
func (a *bucketArray) slotFor(i uint64) *atomic.Uint64 {
	bucketIdx, offset, bucketSize := a.addressOf(i)
	slab := a.ensureBucket(bucketIdx, bucketSize)
	return &slab.slots[offset]
}

// slotIfAllocated returns the atomic slot for i without allocating a
// missing bucket, reporting false if the bucket does not exist yet.
func (a *bucketArray) slotIfAllocated(i uint64) (*atomic.Uint64, bool) {
	bucketIdx, offset, _ := a.addressOf(i)
	slab := a.buckets[bucketIdx].Load()
	if slab == nil {
		return nil, false
	}
	return &slab.slots[offset], true
}

// loadRaw reads the raw word at logical index i, allocating its bucket if
// necessary (a read of an index below Size always lands in an allocated
// bucket in practice, but WriteAt/ReadAt validate range before calling
// this).
func (a *bucketArray) loadRaw(i uint64) uint64 {
	return a.slotFor(i).Load()
}

// storeRaw writes the raw word at logical index i, allocating its bucket
// if necessary.
func (a *bucketArray) storeRaw(i uint64, raw uint64) {
	a.slotFor(i).Store(raw)
}

// casRaw performs a compare-and-swap on the raw word at logical index i.
func (a *bucketArray) casRaw(i uint64, old, new uint64) bool {
	return a.slotFor(i).CompareAndSwap(old, new)
}
