// Package options contains all forecast options for a linear fit of a univariate time series
package options

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aouyang1/revforecast/feature"
	"github.com/aouyang1/revforecast/forecast/util"
	"github.com/aouyang1/revforecast/linearmodel"
)

const (
	LabelTimeEpoch = "epoch"

	GrowthFlat   = "flat"
	GrowthLinear = "linear"

	DefaultRegularization = 0.01
	DefaultIterations     = 2000
	DefaultTolerance      = 1e-5
)

var (
	ErrUnknownGrowthType      = errors.New("unknown growth type")
	ErrNegativeRegularization = errors.New("negative regularization")
	ErrNegativeIterations     = errors.New("negative iterations")
	ErrNegativeTolerance      = errors.New("negative tolerance")
)

// Options configures a forecast by specifying the growth, changepoints, seasonality and
// holidays to model along with the regularization applied to changepoints. Higher
// regularization removes more changepoints that contribute the least to the fit.
type Options struct {
	GrowthType string `json:"growth_type"`

	ChangepointOptions ChangepointOptions `json:"changepoint_options"`
	SeasonalityOptions SeasonalityOptions `json:"seasonality_options"`
	HolidayOptions     HolidayOptions     `json:"holiday_options"`

	// Lasso related options
	Regularization float64 `json:"regularization"`
	Iterations     int     `json:"iterations"`
	Tolerance      float64 `json:"tolerance"`
}

// NewDefaultOptions returns linear growth with automatic changepoints and seasonality
func NewDefaultOptions() *Options {
	return &Options{
		GrowthType:         GrowthLinear,
		ChangepointOptions: NewDefaultChangepointOptions(),
		SeasonalityOptions: NewDefaultSeasonalityOptions(),
		HolidayOptions:     NewDefaultHolidayOptions(),
		Regularization:     DefaultRegularization,
		Iterations:         DefaultIterations,
		Tolerance:          DefaultTolerance,
	}
}

func (o *Options) Validate() error {
	switch o.GrowthType {
	case GrowthFlat, GrowthLinear:
	default:
		return fmt.Errorf("%q, %w", o.GrowthType, ErrUnknownGrowthType)
	}
	if o.Regularization < 0 {
		return ErrNegativeRegularization
	}
	if o.Iterations < 0 {
		return ErrNegativeIterations
	}
	if o.Tolerance < 0 {
		return ErrNegativeTolerance
	}
	return nil
}

// Resolved is the set of changepoints, seasonalities and holidays chosen for one training
// window. Options are never modified while resolving so they can be shared across fits.
type Resolved struct {
	Changepoints  []Changepoint       `json:"changepoints"`
	Seasonalities []SeasonalityConfig `json:"seasonalities"`
	Holidays      []string            `json:"holidays"`
}

// Resolve chooses the model terms for the training time points which must be sorted
// ascending.
func (o *Options) Resolve(t []time.Time) Resolved {
	if o == nil {
		o = NewDefaultOptions()
	}
	var r Resolved
	if o.GrowthType == GrowthLinear {
		r.Changepoints = o.ChangepointOptions.Resolve(t)
	}
	r.Seasonalities = o.SeasonalityOptions.Resolve(t)
	if len(t) > 0 {
		r.Holidays = o.HolidayOptions.Resolve(t[0], t[len(t)-1])
	}
	return r
}

// GenerateFeatures builds every regressor for the time points given the training window the
// model was resolved for.
func (o *Options) GenerateFeatures(t []time.Time, trainStart, trainEnd time.Time, r Resolved) (*feature.Set, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	epoch := feature.NewTime(LabelTimeEpoch).Generate(t)

	feat := feature.NewSet()
	intercept := feature.Intercept()
	if err := feat.Set(intercept, intercept.Generate(epoch, trainStart, trainEnd)); err != nil {
		return nil, err
	}

	if o.GrowthType == GrowthLinear {
		linear := feature.Linear()
		if err := feat.Set(linear, linear.Generate(epoch, trainStart, trainEnd)); err != nil {
			return nil, err
		}
		if err := feat.Update(GenerateChangepointFeatures(epoch, r.Changepoints, trainStart, trainEnd)); err != nil {
			return nil, fmt.Errorf("unable to generate changepoint features, %w", err)
		}
	}

	if err := feat.Update(GenerateFourierFeatures(epoch, r.Seasonalities)); err != nil {
		return nil, fmt.Errorf("unable to generate seasonality features, %w", err)
	}

	if err := feat.Update(o.HolidayOptions.GenerateFeatures(t, r.Holidays)); err != nil {
		return nil, fmt.Errorf("unable to generate holiday features, %w", err)
	}
	return feat, nil
}

// NewLassoOptions returns the regression options for n observations. Only changepoints are
// penalized.
func (o *Options) NewLassoOptions(n int, labels []feature.Feature) *linearmodel.LassoOptions {
	lassoOpt := linearmodel.NewDefaultLassoOptions()
	lassoOpt.FitIntercept = false
	lassoOpt.Lambda = o.Regularization * float64(n)

	lassoOpt.Iterations = o.Iterations
	if o.Iterations == 0 {
		lassoOpt.Iterations = DefaultIterations
	}
	lassoOpt.Tolerance = o.Tolerance
	if o.Tolerance == 0 {
		lassoOpt.Tolerance = DefaultTolerance
	}

	lassoOpt.PenaltyFactors = make([]float64, len(labels))
	for i, f := range labels {
		if f.Type() == feature.FeatureTypeChangepoint {
			lassoOpt.PenaltyFactors[i] = 1.0
		}
	}
	return lassoOpt
}

func (o *Options) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sGrowth: %s\n", prefix, util.IndentExpand(indent, indentGrowth), o.GrowthType); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sRegularization: %.4f\n", prefix, util.IndentExpand(indent, indentGrowth), o.Regularization); err != nil {
		return err
	}
	return o.HolidayOptions.TablePrint(w, prefix, indent, indentGrowth)
}

func (r Resolved) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if err := TablePrintChangepoints(w, r.Changepoints, prefix, indent, indentGrowth); err != nil {
		return err
	}
	if err := TablePrintSeasonalities(w, r.Seasonalities, prefix, indent, indentGrowth); err != nil {
		return err
	}
	return TablePrintHolidays(w, r.Holidays, prefix, indent, indentGrowth)
}
