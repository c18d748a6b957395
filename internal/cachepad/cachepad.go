// Package cachepad holds the cache-line sizing constants shared by lfvec's
// padded atomic field (Node.ref_count) to avoid false sharing between
// cores under the Node Pool's linear scan.
package cachepad

const (
	// Line is the size of a CPU cache line. 64 bytes is standard for x86-64;
	// 128 bytes is standard for Apple Silicon and other ARM64 parts. We use
	// 128 to satisfy the largest common alignment requirement.
	Line = 128

	// SizeOfAtomicInt64 is the size of an atomic.Int64 variable.
	SizeOfAtomicInt64 = 8
)
