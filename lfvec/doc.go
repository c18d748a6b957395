// Package lfvec provides a lock-free, dynamically-resizable, random-access
// sequence container. It supports concurrent PushBack, PopBack, ReadAt,
// WriteAt, and Size from an arbitrary number of goroutines without mutual
// exclusion, behaving like a slice whose logical length grows and shrinks
// only at its high end.
//
// # Architecture
//
// The container is built from three tightly-coupled parts:
//
//   - A two-level bucket array ([bucketArray]) that permits unbounded growth
//     without ever copying existing elements.
//   - A descriptor / write-descriptor protocol that linearizes PushBack and
//     PopBack via a single atomic pointer swap on Vector.current, while
//     letting any goroutine help complete another's pending single-slot
//     write.
//   - A bounded, reference-counted [pool] of descriptor-carrier nodes that
//     supplies the descriptors published at each linearization point, and
//     reclaims them safely in the presence of arbitrarily delayed
//     observers.
//
// # Thread Safety
//
//   - PushBack, PopBack, ReadAt, WriteAt, and Size are safe to call
//     concurrently from any goroutine.
//   - ReadAt pins the current descriptor to check the index against Size
//     (helping any pending write first), then loads the slot directly.
//     WriteAt publishes its write through the same descriptor CAS as
//     PushBack/PopBack. Neither is wait-free: both may retry while another
//     goroutine changes the current descriptor.
//   - PushBack and PopBack are lock-free: some goroutine always completes
//     its CAS on a given round, but an individual goroutine may be starved.
//
// # Usage
//
//	vec, err := lfvec.New[int]()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for i := 10; i < 20; i++ {
//	    vec.PushBack(i)
//	}
//	fmt.Println(vec.Size())   // 10
//	v, _ := vec.ReadAt(0)     // 10
//	fmt.Println(vec.PopBack()) // 19 <nil>
//
// # Non-goals
//
// No iterator protocol, no insert/erase at arbitrary positions, no
// shrink-to-fit of the underlying bucket array, no element destruction
// callbacks, and no cross-index atomic multi-writes. The element type is
// assumed to fit in a machine word and to be trivially copyable; atomicity
// is guaranteed only per slot, not across slots.
package lfvec
