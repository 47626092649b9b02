package feature

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var ErrSetLenMismatch = errors.New("feature data length does not match set length")

// Set holds the generated values of each feature. All features in a set share the same
// number of observations.
type Set struct {
	m      int
	set    map[string][]float64
	labels map[string]Feature
}

func NewSet() *Set {
	return &Set{
		set:    make(map[string][]float64),
		labels: make(map[string]Feature),
	}
}

// Len returns the number of features
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.set)
}

// Rows returns the number of observations per feature
func (s *Set) Rows() int {
	if s == nil {
		return 0
	}
	return s.m
}

// Set stores the data for a feature replacing anything previously stored for it
func (s *Set) Set(f Feature, data []float64) error {
	if s.m != 0 && len(data) != s.m {
		return fmt.Errorf("%s has %d observations, expected %d, %w", f, len(data), s.m, ErrSetLenMismatch)
	}
	s.m = len(data)
	s.set[f.String()] = data
	s.labels[f.String()] = f
	return nil
}

func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	data, exists := s.set[f.String()]
	return data, exists
}

func (s *Set) Del(f Feature) {
	delete(s.set, f.String())
	delete(s.labels, f.String())
	if len(s.set) == 0 {
		s.m = 0
	}
}

// Update copies every feature of other into the set
func (s *Set) Update(other *Set) error {
	if other == nil {
		return nil
	}
	for _, f := range other.Labels().Labels() {
		if err := s.Set(f, other.set[f.String()]); err != nil {
			return err
		}
	}
	return nil
}

// Filter returns a new set only containing features of the given types
func (s *Set) Filter(types ...FeatureType) *Set {
	res := NewSet()
	for key, f := range s.labels {
		if slices.Contains(types, f.Type()) {
			res.set[key] = s.set[key]
			res.labels[key] = f
			res.m = s.m
		}
	}
	return res
}

// Labels returns the features sorted by their string representation
func (s *Set) Labels() *Labels {
	if s == nil {
		return NewLabels(nil)
	}
	labels := make([]Feature, 0, len(s.labels))
	for _, f := range s.labels {
		labels = append(labels, f)
	}
	slices.SortFunc(labels, func(a, b Feature) int {
		return strings.Compare(a.String(), b.String())
	})
	return NewLabels(labels)
}

// Matrix returns an m x n matrix with one row per observation and one column per feature
// in label order.
func (s *Set) Matrix() *mat.Dense {
	if s.Len() == 0 || s.m == 0 {
		return nil
	}
	labels := s.Labels().Labels()
	n := len(labels)
	x := mat.NewDense(s.m, n, nil)
	for j, f := range labels {
		x.SetCol(j, s.set[f.String()])
	}
	return x
}
