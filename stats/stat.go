// Package stats contains robust statistics over revenue observations and model residuals.
package stats

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrWindowTooSmall = errors.New("window must be at least 2 points")
	ErrNotEnoughData  = errors.New("not enough data for window")
)

// DetectOutliers returns the indices of values outside the inner percentile range expanded
// by the tukey factor on each side.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	if len(y) == 0 {
		return nil
	}
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	sorted := slices.Clone(y)
	slices.Sort(sorted)

	lower := stat.Quantile(lowerPerc, stat.Empirical, sorted, nil)
	upper := stat.Quantile(upperPerc, stat.Empirical, sorted, nil)
	innerRange := upper - lower
	if innerRange == 0 {
		return nil
	}
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := range y {
		if y[i] > upper || y[i] < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

// RollingStdDev computes the standard deviation of each trailing window. The result is
// aligned to the window end, so it has len(y)-window+1 values.
func RollingStdDev(y []float64, window int) ([]float64, error) {
	if window < 2 {
		return nil, ErrWindowTooSmall
	}
	if len(y) < window {
		return nil, ErrNotEnoughData
	}
	res := make([]float64, 0, len(y)-window+1)
	for i := window; i <= len(y); i++ {
		res = append(res, stat.StdDev(y[i-window:i], nil))
	}
	return res, nil
}

// StdDev is the sample standard deviation, returning 0 for fewer than 2 values.
func StdDev(y []float64) float64 {
	if len(y) < 2 {
		return 0
	}
	return stat.StdDev(y, nil)
}
