package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectOutliers(t *testing.T) {
	testData := map[string]struct {
		y        []float64
		expected []int
	}{
		"empty":    {y: nil, expected: nil},
		"constant": {y: []float64{5, 5, 5, 5}, expected: nil},
		"spike": {
			y:        []float64{10, 11, 9, 10, 12, 11, 10, 9, 500, 10, 11, 10},
			expected: []int{8},
		},
		"dip": {
			y:        []float64{100, 101, 99, 100, 102, 101, 100, 99, -400, 100, 101, 100},
			expected: []int{8},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := DetectOutliers(td.y, 0.1, 0.9, 1.0)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestRollingStdDev(t *testing.T) {
	_, err := RollingStdDev([]float64{1, 2, 3}, 1)
	assert.ErrorIs(t, err, ErrWindowTooSmall)

	_, err = RollingStdDev([]float64{1, 2, 3}, 4)
	assert.ErrorIs(t, err, ErrNotEnoughData)

	res, err := RollingStdDev([]float64{1, 1, 1, 3, 3}, 2)
	require.Nil(t, err)
	require.Len(t, res, 4)
	assert.InDelta(t, 0.0, res[0], 1e-12)
	assert.InDelta(t, 0.0, res[1], 1e-12)
	assert.InDelta(t, 1.41421356, res[2], 1e-6)
	assert.InDelta(t, 0.0, res[3], 1e-12)
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{3}))
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-12)
}
