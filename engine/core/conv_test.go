package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_ParseAnyDuration(t *testing.T) {
	t.Run("Should parse human string", func(t *testing.T) {
		d, ok := ParseAnyDuration("1 hour")
		assert.True(t, ok)
		assert.Equal(t, time.Hour, d)
	})
	t.Run("Should parse numbers", func(t *testing.T) {
		d1, ok1 := ParseAnyDuration(5)
		d2, ok2 := ParseAnyDuration(int64(7))
		d3, ok3 := ParseAnyDuration(float64(9))
		assert.True(t, ok1 && ok2 && ok3)
		assert.Equal(t, time.Duration(5), d1)
		assert.Equal(t, time.Duration(7), d2)
		assert.Equal(t, time.Duration(9), d3)
	})
	t.Run("Should return false for empty/invalid", func(t *testing.T) {
		_, ok1 := ParseAnyDuration("")
		_, ok2 := ParseAnyDuration("nope")
		assert.False(t, ok1)
		assert.False(t, ok2)
	})
	t.Run("Should reject whitespace-only string", func(t *testing.T) {
		_, ok := ParseAnyDuration("   ")
		assert.False(t, ok)
	})
}
