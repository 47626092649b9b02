// Package timedataset holds validated univariate time series used for training and the
// helpers to simulate them.
package timedataset

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
)

// TimeDataset represents a time series storing a slice of time points and values.
// Both must be of the same length.
type TimeDataset struct {
	T []time.Time
	Y []float64
}

// NewUnivariateDataset returns a copy of the input as a TimeDataset. Time must be strictly
// increasing.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}
	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
	}

	td := &TimeDataset{
		T: slices.Clone(t),
		Y: slices.Clone(y),
	}
	return td, nil
}

// NewAveragedDataset sorts the input by time and collapses repeated time points into a
// single observation holding the mean of their values.
func NewAveragedDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}
	idx := make([]int, len(t))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return t[a].Compare(t[b])
	})

	var (
		tOut []time.Time
		yOut []float64
		cnt  int
	)
	for _, i := range idx {
		last := len(tOut) - 1
		if last >= 0 && tOut[last].Equal(t[i]) {
			cnt++
			yOut[last] += (y[i] - yOut[last]) / float64(cnt)
			continue
		}
		tOut = append(tOut, t[i])
		yOut = append(yOut, y[i])
		cnt = 1
	}
	return NewUnivariateDataset(tOut, yOut)
}

func (td *TimeDataset) Copy() *TimeDataset {
	if td == nil {
		return nil
	}
	return &TimeDataset{
		T: slices.Clone(td.T),
		Y: slices.Clone(td.Y),
	}
}

func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.T)
}

// DropNan returns a new dataset without the observations holding NaN values
func (td *TimeDataset) DropNan() *TimeDataset {
	if td == nil {
		return nil
	}
	res := &TimeDataset{
		T: make([]time.Time, 0, len(td.T)),
		Y: make([]float64, 0, len(td.Y)),
	}
	for i, val := range td.Y {
		if math.IsNaN(val) {
			continue
		}
		res.T = append(res.T, td.T[i])
		res.Y = append(res.Y, val)
	}
	return res
}
