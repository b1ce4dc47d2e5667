// Package ring provides an immutable fixed-capacity sequence with
// bidirectional eviction, used to bound the pages and entities held by a
// scroll window.
package ring

// Buffer is a fixed-capacity ordered sequence with value semantics.
// Mutating operations return a new Buffer; existing snapshots are never
// modified, so a Buffer held by one window state stays valid after later
// transitions produce new states.
//
// The zero value is not usable; construct with New.
type Buffer[T any] struct {
	items    []T
	capacity int
}

// New creates an empty buffer with the given capacity.
// Capacity values below one are raised to one.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{capacity: capacity}
}

// FromItems creates a buffer seeded with items, evicting from the head if
// there are more items than capacity.
func FromItems[T any](capacity int, items ...T) *Buffer[T] {
	return New[T](capacity).Push(items...)
}

// Push appends items at the tail and returns the resulting buffer.
// When the result would exceed capacity, the oldest items are evicted from
// the head; pushing more than capacity items at once keeps only the last
// capacity items in their given order.
func (b *Buffer[T]) Push(items ...T) *Buffer[T] {
	if len(items) == 0 {
		return b
	}

	combined := make([]T, 0, len(b.items)+len(items))
	combined = append(combined, b.items...)
	combined = append(combined, items...)

	if overflow := len(combined) - b.capacity; overflow > 0 {
		combined = combined[overflow:]
	}

	return &Buffer[T]{items: combined, capacity: b.capacity}
}

// Unshift prepends items at the head, in the order given, and returns the
// resulting buffer. When the result would exceed capacity, the newest items
// are evicted from the tail; unshifting more than capacity items at once
// keeps only the first capacity items.
func (b *Buffer[T]) Unshift(items ...T) *Buffer[T] {
	if len(items) == 0 {
		return b
	}

	combined := make([]T, 0, len(items)+len(b.items))
	combined = append(combined, items...)
	combined = append(combined, b.items...)

	if len(combined) > b.capacity {
		combined = combined[:b.capacity]
	}

	return &Buffer[T]{items: combined, capacity: b.capacity}
}

// Latest returns the most recently appended element (the tail).
// The second return value is false when the buffer is empty.
func (b *Buffer[T]) Latest() (T, bool) {
	if len(b.items) == 0 {
		var zero T
		return zero, false
	}
	return b.items[len(b.items)-1], true
}

// Items returns a copy of the buffered elements in order, head first.
// The copy keeps callers from aliasing the buffer's backing array.
func (b *Buffer[T]) Items() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

// At returns the element at index i (head is 0).
// The second return value is false when i is out of range.
func (b *Buffer[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(b.items) {
		var zero T
		return zero, false
	}
	return b.items[i], true
}

// Len returns the number of buffered elements.
func (b *Buffer[T]) Len() int {
	return len(b.items)
}

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int {
	return b.capacity
}

// IsEmpty returns true if the buffer contains no elements.
func (b *Buffer[T]) IsEmpty() bool {
	return len(b.items) == 0
}

// Includes reports whether v is present in the buffer.
// A package-level function so Buffer itself stays usable with
// non-comparable element types.
func Includes[T comparable](b *Buffer[T], v T) bool {
	for _, item := range b.items {
		if item == v {
			return true
		}
	}
	return false
}

// Min returns the smallest element, or false when the buffer is empty.
func Min[T int | int64 | float64](b *Buffer[T]) (T, bool) {
	if len(b.items) == 0 {
		var zero T
		return zero, false
	}
	m := b.items[0]
	for _, item := range b.items[1:] {
		if item < m {
			m = item
		}
	}
	return m, true
}

// Max returns the largest element, or false when the buffer is empty.
func Max[T int | int64 | float64](b *Buffer[T]) (T, bool) {
	if len(b.items) == 0 {
		var zero T
		return zero, false
	}
	m := b.items[0]
	for _, item := range b.items[1:] {
		if item > m {
			m = item
		}
	}
	return m, true
}
