package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrictSortIndexes(t *testing.T) {
	values := []float64{850, 1000, nan, 700, 850, 925}

	t.Run("descending", func(t *testing.T) {
		assert.Equal(t, []int{1, 5, 0, 3}, StrictSortIndexes(values, true))
	})
	t.Run("ascending", func(t *testing.T) {
		assert.Equal(t, []int{3, 0, 5, 1}, StrictSortIndexes(values, false))
	})
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, StrictSortIndexes([]float64{nan}, true))
		assert.Empty(t, StrictSortIndexes(nil, true))
	})
}
