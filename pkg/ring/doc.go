// Package ring provides an immutable fixed-capacity ordered sequence with
// bidirectional eviction.
//
// # Overview
//
// Buffer is the value-semantics counterpart to a classic circular buffer:
// every Push or Unshift returns a new Buffer and leaves the receiver
// untouched. This makes a Buffer safe to embed in window snapshots that are
// handed out across concurrent readers without locking.
//
// Push appends at the tail and evicts from the head on overflow; Unshift
// prepends at the head and evicts from the tail. Together they support
// windows that grow in either scroll direction while staying bounded.
//
// # Quick Start
//
//	b := ring.New[int](3)
//	b = b.Push(1, 2, 3) // [1 2 3]
//	b = b.Push(4)       // [2 3 4] - 1 evicted from the head
//	b = b.Unshift(1)    // [1 2 3] - 4 evicted from the tail
//
//	latest, ok := b.Latest() // 3, true
//	ring.Includes(b, 2)      // true
//
// Element lookups that need comparability (Includes, Min, Max) are
// package-level functions so Buffer itself works with any element type.
package ring
