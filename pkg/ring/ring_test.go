package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClampsCapacity(t *testing.T) {
	b := New[int](0)
	assert.Equal(t, 1, b.Cap())

	b = New[int](-5)
	assert.Equal(t, 1, b.Cap())

	b = New[int](10)
	assert.Equal(t, 10, b.Cap())
	assert.True(t, b.IsEmpty())
}

func TestPushBasic(t *testing.T) {
	b := New[string](3)

	b = b.Push("a")
	b = b.Push("b", "c")

	assert.Equal(t, []string{"a", "b", "c"}, b.Items())
	assert.Equal(t, 3, b.Len())

	latest, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, "c", latest)
}

func TestPushEvictsFromHead(t *testing.T) {
	b := New[int](3).Push(1, 2, 3)

	b = b.Push(4)
	assert.Equal(t, []int{2, 3, 4}, b.Items())

	b = b.Push(5, 6)
	assert.Equal(t, []int{4, 5, 6}, b.Items())
}

func TestPushMoreThanCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		items    []int
		expected []int
	}{
		{"exactly capacity", 3, []int{1, 2, 3}, []int{1, 2, 3}},
		{"one over", 3, []int{1, 2, 3, 4}, []int{2, 3, 4}},
		{"double capacity", 3, []int{1, 2, 3, 4, 5, 6}, []int{4, 5, 6}},
		{"capacity one", 1, []int{1, 2, 3}, []int{3}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := New[int](test.capacity).Push(test.items...)
			assert.Equal(t, test.expected, b.Items())
			assert.Equal(t, min(test.capacity, len(test.items)), b.Len())
		})
	}
}

func TestUnshiftBasic(t *testing.T) {
	b := New[int](5).Push(4, 5)

	// Items are given in final desired order
	b = b.Unshift(2, 3)
	assert.Equal(t, []int{2, 3, 4, 5}, b.Items())

	b = b.Unshift(1)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, b.Items())
}

func TestUnshiftEvictsFromTail(t *testing.T) {
	b := New[int](3).Push(3, 4, 5)

	b = b.Unshift(2)
	assert.Equal(t, []int{2, 3, 4}, b.Items())

	b = b.Unshift(0, 1)
	assert.Equal(t, []int{0, 1, 2}, b.Items())
}

func TestUnshiftMoreThanCapacity(t *testing.T) {
	b := New[int](3).Unshift(1, 2, 3, 4, 5)
	// Head-relative: the first capacity items survive
	assert.Equal(t, []int{1, 2, 3}, b.Items())
}

func TestUnshiftOnEmpty(t *testing.T) {
	b := New[int](4).Unshift(1, 2)
	assert.Equal(t, []int{1, 2}, b.Items())
}

func TestImmutability(t *testing.T) {
	original := New[int](3).Push(1, 2, 3)

	pushed := original.Push(4)
	unshifted := original.Unshift(0)

	// The original snapshot is unaffected by later operations
	assert.Equal(t, []int{1, 2, 3}, original.Items())
	assert.Equal(t, []int{2, 3, 4}, pushed.Items())
	assert.Equal(t, []int{0, 1, 2}, unshifted.Items())
}

func TestItemsReturnsCopy(t *testing.T) {
	b := New[int](3).Push(1, 2, 3)

	items := b.Items()
	items[0] = 99

	fresh := b.Items()
	assert.Equal(t, 1, fresh[0], "mutating a returned slice must not affect the buffer")
}

func TestEmptyOperationsAreNoOps(t *testing.T) {
	b := New[int](3).Push(1)

	same := b.Push()
	assert.Equal(t, b.Items(), same.Items())

	same = b.Unshift()
	assert.Equal(t, b.Items(), same.Items())
}

func TestLatestOnEmpty(t *testing.T) {
	b := New[int](3)
	_, ok := b.Latest()
	assert.False(t, ok)
}

func TestAt(t *testing.T) {
	b := New[string](3).Push("a", "b", "c")

	v, ok := b.At(1)
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = b.At(-1)
	assert.False(t, ok)
	_, ok = b.At(3)
	assert.False(t, ok)
}

func TestIncludes(t *testing.T) {
	b := New[int](4).Push(1, 2, 3)

	assert.True(t, Includes(b, 2))
	assert.False(t, Includes(b, 7))
	assert.False(t, Includes(New[int](4), 1))
}

func TestMinMax(t *testing.T) {
	b := New[int](4).Push(5, 2, 8, 3)

	low, ok := Min(b)
	require.True(t, ok)
	assert.Equal(t, 2, low)

	high, ok := Max(b)
	require.True(t, ok)
	assert.Equal(t, 8, high)

	empty := New[int](4)
	_, ok = Min(empty)
	assert.False(t, ok)
	_, ok = Max(empty)
	assert.False(t, ok)
}

// Retention property: for any capacity and push sequence, the buffer holds
// min(capacity, total) items, and exactly the most recently pushed ones in
// original relative order.
func TestPushRetentionProperty(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 7, 16} {
		b := New[int](capacity)
		var all []int

		for i := 0; i < 50; i++ {
			b = b.Push(i)
			all = append(all, i)

			expectedLen := min(capacity, len(all))
			require.Equal(t, expectedLen, b.Len())
			require.Equal(t, all[len(all)-expectedLen:], b.Items())
		}
	}
}

// Symmetric property for Unshift: the most recently added items stay at the
// head in the order they were given.
func TestUnshiftRetentionProperty(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 7, 16} {
		b := New[int](capacity)
		var all []int

		for i := 0; i < 50; i++ {
			b = b.Unshift(i)
			all = append([]int{i}, all...)

			expectedLen := min(capacity, len(all))
			require.Equal(t, expectedLen, b.Len())
			require.Equal(t, all[:expectedLen], b.Items())
		}
	}
}
