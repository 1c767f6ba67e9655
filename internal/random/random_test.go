package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBetween_StaysInRange(t *testing.T) {
	src := NewSeeded(7)
	seen := map[int64]bool{}
	for i := 0; i < 2000; i++ {
		v := Between(src, 3, 6)
		assert.GreaterOrEqual(t, v, int64(3))
		assert.LessOrEqual(t, v, int64(6))
		seen[v] = true
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, int64(5), Between(src, 5, 5))
}

func TestChance_Extremes(t *testing.T) {
	src := NewSeeded(1)
	for i := 0; i < 100; i++ {
		assert.False(t, Chance(src, 0))
		assert.True(t, Chance(src, 1))
	}
}

func TestNewSeeded_IsDeterministic(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
	}
}
