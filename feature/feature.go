// Package feature describes the labelled regressors used by the forecast model. Each feature
// carries enough labels to be rebuilt from a serialized model.
package feature

import (
	"errors"
	"strconv"
	"strings"
)

var ErrUnknownFeatureType = errors.New("unknown feature type")

// FeatureType groups features so a prediction can be split into components.
type FeatureType string

const (
	FeatureTypeTime        FeatureType = "time"
	FeatureTypeGrowth      FeatureType = "growth"
	FeatureTypeChangepoint FeatureType = "changepoint"
	FeatureTypeSeasonality FeatureType = "seasonality"
	FeatureTypeEvent       FeatureType = "event"
)

// Feature is a single labelled column of the design matrix.
type Feature interface {
	String() string
	Get(label string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}

func lookup(f Feature, label string) (string, bool) {
	val, exists := f.Decode()[strings.ToLower(label)]
	return val, exists
}

// FromLabels rebuilds a feature of the given type from the labels produced by Decode.
func FromLabels(ft FeatureType, labels map[string]string) (Feature, error) {
	name := labels["name"]
	switch ft {
	case FeatureTypeTime:
		return NewTime(name), nil
	case FeatureTypeGrowth:
		return NewGrowth(name), nil
	case FeatureTypeEvent:
		return NewEvent(name), nil
	case FeatureTypeChangepoint:
		return NewChangepoint(name, ChangepointComp(labels["changepoint_component"])), nil
	case FeatureTypeSeasonality:
		order, err := strconv.Atoi(labels["order"])
		if err != nil {
			return nil, err
		}
		return NewSeasonality(name, FourierComp(labels["fourier_component"]), order), nil
	}
	return nil, ErrUnknownFeatureType
}
