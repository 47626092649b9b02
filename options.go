package forecaster

import (
	"errors"
	"fmt"

	"github.com/aouyang1/revforecast/forecast/options"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultResidualWindow = 7
	DefaultIntervalWidth  = 0.8
)

var (
	ErrInvalidIntervalWidth   = errors.New("interval width must be between 0 and 1 exclusive")
	ErrNegativeResidualWindow = errors.New("negative residual window")
	ErrInvalidOutlierOptions  = errors.New("invalid outlier options")
)

// Options configures the series forecast, the uncertainty forecast fit on the rolling residual
// standard deviation, and optional outlier removal passes.
type Options struct {
	SeriesOptions      *options.Options `json:"series_options"`
	UncertaintyOptions *options.Options `json:"uncertainty_options"`

	// ResidualWindow is the number of points per rolling standard deviation of the residual.
	// It is capped at a quarter of the residual length.
	ResidualWindow int `json:"residual_window"`

	// IntervalWidth is the probability mass covered by the lower and upper bounds
	IntervalWidth float64 `json:"interval_width"`

	OutlierOptions *OutlierOptions `json:"outlier_options"`
}

// NewDefaultOptions returns an 80% interval around a forecast with automatic changepoints and
// seasonality.
func NewDefaultOptions() *Options {
	return &Options{
		SeriesOptions:      options.NewDefaultOptions(),
		UncertaintyOptions: NewDefaultUncertaintyOptions(),
		ResidualWindow:     DefaultResidualWindow,
		IntervalWidth:      DefaultIntervalWidth,
	}
}

// NewDefaultUncertaintyOptions models the band width with a constant level and seasonality so
// the band does not drift over the horizon.
func NewDefaultUncertaintyOptions() *options.Options {
	opt := options.NewDefaultOptions()
	opt.GrowthType = options.GrowthFlat
	opt.ChangepointOptions.Auto = false
	opt.Regularization = 0
	return opt
}

func (o *Options) Validate() error {
	if o.IntervalWidth <= 0 || o.IntervalWidth >= 1 {
		return fmt.Errorf("got %.3f, %w", o.IntervalWidth, ErrInvalidIntervalWidth)
	}
	if o.ResidualWindow < 0 {
		return ErrNegativeResidualWindow
	}
	if o.OutlierOptions != nil {
		if err := o.OutlierOptions.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ZScore returns the standard normal quantile so that the interval width is covered between
// -z and z
func (o *Options) ZScore() float64 {
	n := distuv.Normal{Mu: 0, Sigma: 1}
	return n.Quantile(0.5 + o.IntervalWidth/2.0)
}

// OutlierOptions configures the outlier removal passes on the series residual. Any residual
// outside of the percentile range expanded by the tukey factor is ignored on the next fit.
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	LowerPercentile float64 `json:"lower_percentile"`
	UpperPercentile float64 `json:"upper_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		NumPasses:       3,
		LowerPercentile: 0.25,
		UpperPercentile: 0.75,
		TukeyFactor:     3.0,
	}
}

func (o *OutlierOptions) Validate() error {
	if o.NumPasses < 0 {
		return fmt.Errorf("negative passes, %w", ErrInvalidOutlierOptions)
	}
	if o.LowerPercentile < 0 || o.UpperPercentile > 1 || o.LowerPercentile >= o.UpperPercentile {
		return fmt.Errorf("percentiles %.2f to %.2f, %w", o.LowerPercentile, o.UpperPercentile, ErrInvalidOutlierOptions)
	}
	if o.TukeyFactor < 0 {
		return fmt.Errorf("negative tukey factor, %w", ErrInvalidOutlierOptions)
	}
	return nil
}
