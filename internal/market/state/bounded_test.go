package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// go test -v --run TestBoundedPrepend
func TestBoundedPrepend(t *testing.T) {
	b := NewBounded[int](3)
	b1 := b.Prepend(1)
	b2 := b1.Prepend(2).Prepend(3).Prepend(4)

	assert.Equal(t, []int{1}, b1.Items(), "earlier values are unchanged")
	assert.Equal(t, []int{4, 3, 2}, b2.Items())
	assert.Equal(t, 3, b2.Limit())
}

// go test -v --run TestBoundedZeroValue
func TestBoundedZeroValue(t *testing.T) {
	var b Bounded[string]
	b = b.Prepend("x")
	assert.Equal(t, 0, b.Len())

	_, ok := b.Head()
	assert.False(t, ok)

	assert.Panics(t, func() { NewBounded[string](0) })
}

// go test -v --run TestParsePeriod
func TestParsePeriod(t *testing.T) {
	for _, p := range Periods() {
		got, err := ParsePeriod(string(p))
		assert.NoError(t, err)
		assert.Equal(t, p, got)
		assert.NotZero(t, p.Meta().Days)
	}

	_, err := ParsePeriod("2w")
	assert.Error(t, err)
}
