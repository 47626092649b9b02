package timedataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // monday
	days := GenerateDays(start, 7)

	y := GenerateConstY(7, 2.0)
	assert.Equal(t, Series{2, 2, 2, 2, 2, 2, 2}, y)

	y.Add(GenerateLinearY(7, 0, 1))
	assert.Equal(t, Series{2, 3, 4, 5, 6, 7, 8}, y)

	y.MaskWithWeekend(days)
	assert.Equal(t, Series{0, 0, 0, 0, 0, 7, 8}, y)

	y.SetConst(days, 1, days[5], days[6])
	assert.Equal(t, Series{0, 0, 0, 0, 0, 1, 8}, y)
}

func TestGenerateWaveY(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	days := GenerateDays(start, 14)
	y := GenerateWaveY(days, 5.0, 7*24*time.Hour, 1, 0)
	require.Len(t, y, 14)
	for i := range 7 {
		assert.InDelta(t, y[i], y[i+7], 1e-9)
		assert.LessOrEqual(t, math.Abs(y[i]), 5.0)
	}
}

func TestGenerateNoise(t *testing.T) {
	a := GenerateNoise(50, 1.0, 7)
	b := GenerateNoise(50, 1.0, 7)
	c := GenerateNoise(50, 1.0, 8)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerateChange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	days := GenerateDays(start, 5)
	y := GenerateChange(days, days[2], 10, 2)
	assert.Equal(t, Series{0, 0, 10, 12, 14}, y)
}
