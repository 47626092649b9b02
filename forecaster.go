// Package forecaster fits a series forecast along with an uncertainty forecast to produce
// predictions with lower and upper bounds.
package forecaster

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/aouyang1/revforecast/forecast"
	"github.com/aouyang1/revforecast/forecast/options"
	"github.com/aouyang1/revforecast/stats"
	"github.com/aouyang1/revforecast/timedataset"
	"github.com/go-echarts/go-echarts/v2/components"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrInsufficientResidual = errors.New("insufficient samples from residual after outlier removal")
	ErrEmptyTimeDataset     = errors.New("no timedataset or uninitialized")
	ErrNoOptionsInModel     = errors.New("no options set in model")
	ErrUntrainedForecaster  = errors.New("forecaster has not been trained yet")
)

const (
	MinResidualWindow       = 2
	MinResidualSize         = 2
	MinResidualWindowFactor = 4

	// minimum rolling windows to fit a forecast on the residual standard deviation
	MinResidualWindows = 3
)

// Forecaster fits a forecast model and can be used to generate forecasts
type Forecaster struct {
	opt *Options

	seriesForecast      *forecast.Forecast
	uncertaintyForecast *forecast.Forecast

	// used in place of the uncertainty forecast when the residual is too short or has no
	// variation in its rolling standard deviation
	constantBand float64

	fitTrainingData *timedataset.TimeDataset
	fitResults      *Results
	residual        []float64
	trained         bool
}

// New creates a new instance of a Forecaster using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Forecaster, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecaster options, %w", err)
	}

	seriesForecast, err := forecast.New(opt.SeriesOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast series, %w", err)
	}
	f := &Forecaster{
		opt:            opt,
		seriesForecast: seriesForecast,
	}
	if _, err := forecast.New(f.uncertaintyOptions()); err != nil {
		return nil, fmt.Errorf("unable to initialize forecast uncertainty, %w", err)
	}
	return f, nil
}

func (f *Forecaster) uncertaintyOptions() *options.Options {
	if f.opt.UncertaintyOptions == nil {
		return NewDefaultUncertaintyOptions()
	}
	return f.opt.UncertaintyOptions
}

// NewFromModel creates a new instance of Forecaster from a pre-existing model. This should be generated
// from a previous forecaster call to Model().
func NewFromModel(model Model) (*Forecaster, error) {
	if model.Options == nil {
		return nil, ErrNoOptionsInModel
	}

	seriesForecast, err := forecast.NewFromModel(model.Series)
	if err != nil {
		return nil, fmt.Errorf("unable to load from series model, %w", err)
	}
	f := &Forecaster{
		opt:            model.Options,
		seriesForecast: seriesForecast,
		constantBand:   model.ConstantBand,
		trained:        true,
	}
	if model.Uncertainty != nil {
		f.uncertaintyForecast, err = forecast.NewFromModel(*model.Uncertainty)
		if err != nil {
			return nil, fmt.Errorf("unable to load from uncertainty model, %w", err)
		}
	}
	return f, nil
}

// Fit uses the input time dataset and fits the forecast model
func (f *Forecaster) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return ErrEmptyTimeDataset
	}
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}
	f.trained = false
	f.fitTrainingData = td.Copy()

	residual, err := f.fitSeriesWithOutliers(td.T, td.Y)
	if err != nil {
		return err
	}
	f.residual = residual

	if err := f.fitUncertainty(td.T, residual); err != nil {
		return err
	}
	f.trained = true

	f.fitResults, err = f.Predict(td.T)
	if err != nil {
		return fmt.Errorf("unable to get predicted values from training set, %w", err)
	}
	return nil
}

// fitSeriesWithOutliers refits the series after masking residual outliers as NaN. y is
// modified in place.
func (f *Forecaster) fitSeriesWithOutliers(t []time.Time, y []float64) ([]float64, error) {
	numPasses := 0
	if f.opt.OutlierOptions != nil {
		numPasses = f.opt.OutlierOptions.NumPasses
	}

	var residual []float64
	for i := 0; i <= numPasses; i++ {
		if err := f.seriesForecast.Fit(t, y); err != nil {
			return nil, fmt.Errorf("unable to forecast series, %w", err)
		}
		residual = f.seriesForecast.Residuals()

		if f.opt.OutlierOptions == nil || i == numPasses {
			break
		}

		// NaN residuals are already masked
		valid := make([]float64, 0, len(residual))
		validIdx := make([]int, 0, len(residual))
		for j, r := range residual {
			if math.IsNaN(r) {
				continue
			}
			valid = append(valid, r)
			validIdx = append(validIdx, j)
		}
		outlierIdxs := stats.DetectOutliers(
			valid,
			f.opt.OutlierOptions.LowerPercentile,
			f.opt.OutlierOptions.UpperPercentile,
			f.opt.OutlierOptions.TukeyFactor,
		)

		// leave enough observations to fit
		if len(outlierIdxs) == 0 || len(valid)-len(outlierIdxs) < MinResidualSize {
			break
		}
		for _, idx := range outlierIdxs {
			y[validIdx[idx]] = math.NaN()
		}
	}
	return residual, nil
}

// fitUncertainty fits a forecast on the rolling standard deviation of the residual scaled by
// the interval z-score. Short residuals fall back to a constant band.
func (f *Forecaster) fitUncertainty(t []time.Time, residual []float64) error {
	rt := make([]time.Time, 0, len(residual))
	rr := make([]float64, 0, len(residual))
	for i, r := range residual {
		if math.IsNaN(r) {
			continue
		}
		rt = append(rt, t[i])
		rr = append(rr, r)
	}
	if len(rr) < MinResidualSize {
		return ErrInsufficientResidual
	}

	z := f.opt.ZScore()
	f.constantBand = z * stats.StdDev(rr)
	f.uncertaintyForecast = nil

	window := f.opt.ResidualWindow
	if window == 0 {
		window = DefaultResidualWindow
	}
	window = min(window, len(rr)/MinResidualWindowFactor)
	window = max(window, MinResidualWindow)

	stddevSeries, err := stats.RollingStdDev(rr, window)
	if err != nil || len(stddevSeries) < MinResidualWindows {
		return nil
	}
	floats.Scale(z, stddevSeries)

	// shifting by half the residual window since computing the residual series is similar to a
	// finite impulse response filtering having a group delay of window/2.
	start := window / 2
	stddevT := rt[start : start+len(stddevSeries)]

	uncertaintyForecast, err := forecast.New(f.uncertaintyOptions())
	if err != nil {
		return fmt.Errorf("unable to initialize forecast uncertainty, %w", err)
	}
	if err := uncertaintyForecast.Fit(stddevT, stddevSeries); err != nil {
		if errors.Is(err, forecast.ErrDegenerateSeries) {
			f.constantBand = stddevSeries[0]
			return nil
		}
		return fmt.Errorf("unable to forecast uncertainty, %w", err)
	}
	f.uncertaintyForecast = uncertaintyForecast
	return nil
}

// Predict takes in any set of time samples and generates a forecast, upper, lower values per time point
func (f *Forecaster) Predict(t []time.Time) (*Results, error) {
	if f == nil || !f.trained {
		return nil, ErrUntrainedForecaster
	}
	seriesRes, seriesComp, err := f.seriesForecast.Predict(t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict series forecasts, %w", err)
	}

	band := make([]float64, len(t))
	if f.uncertaintyForecast != nil {
		band, _, err = f.uncertaintyForecast.Predict(t)
		if err != nil {
			return nil, fmt.Errorf("unable to predict uncertainty forecasts, %w", err)
		}
	} else {
		floats.AddConst(f.constantBand, band)
	}

	// cap band predictions to be greater than or equal to 0
	for i := range band {
		if band[i] < 0.0 || math.IsNaN(band[i]) {
			band[i] = 0.0
		}
	}

	upper := slices.Clone(seriesRes)
	lower := slices.Clone(seriesRes)
	floats.Add(upper, band)
	floats.Sub(lower, band)

	r := &Results{
		T:                slices.Clone(t),
		Forecast:         seriesRes,
		Upper:            upper,
		Lower:            lower,
		SeriesComponents: seriesComp,
	}
	return r, nil
}

// Residuals returns the difference between the final series fit against the training data.
// Observations ignored as outliers are NaN.
func (f *Forecaster) Residuals() []float64 {
	return slices.Clone(f.residual)
}

// TrendComponent returns the trend component created by growth and changepoints after fitting
func (f *Forecaster) TrendComponent() []float64 {
	return f.seriesForecast.TrendComponent()
}

// SeasonalityComponents returns each fitted seasonality over the training data keyed by name
func (f *Forecaster) SeasonalityComponents() map[string][]float64 {
	return f.seriesForecast.Components().Seasonality
}

// SeriesScores returns the in-sample fit scores of the series forecast
func (f *Forecaster) SeriesScores() forecast.Scores {
	return f.seriesForecast.Scores()
}

// Model generates a serializeable representation of the fit options, series model, and uncertainty model. This
// can be used to initialize a new Forecaster for immediate predictions skipping the training step.
func (f *Forecaster) Model() (Model, error) {
	if f == nil || !f.trained {
		return Model{}, ErrUntrainedForecaster
	}
	seriesModel, err := f.seriesForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch series model, %w", err)
	}
	m := Model{
		Options:      f.opt,
		Series:       seriesModel,
		ConstantBand: f.constantBand,
	}
	if f.uncertaintyForecast != nil {
		uncertaintyModel, err := f.uncertaintyForecast.Model()
		if err != nil {
			return Model{}, fmt.Errorf("unable to fetch uncertainty model, %w", err)
		}
		m.Uncertainty = &uncertaintyModel
	}
	return m, nil
}

// SeriesModelEq returns a string representation of the fit series model represented as
// y ~ m1x1 + m2x2 ...
func (f *Forecaster) SeriesModelEq() (string, error) {
	return f.seriesForecast.ModelEq()
}

// UncertaintyModelEq returns a string representation of the fit uncertainty model
func (f *Forecaster) UncertaintyModelEq() (string, error) {
	if f.uncertaintyForecast == nil {
		return fmt.Sprintf("y ~ %.2f", f.constantBand), nil
	}
	return f.uncertaintyForecast.ModelEq()
}

// TrainingData returns the training data used to fit the current forecaster model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	return f.fitTrainingData
}

// FitResults returns the results of the fit which includes the forecast, upper, and lower values
func (f *Forecaster) FitResults() *Results {
	return f.fitResults
}

// PlotFit uses the Apache Echarts library to render an html page showing the fit extended by
// horizon days, the model components, and the fit residual
func (f *Forecaster) PlotFit(w io.Writer, horizon int) error {
	td := f.TrainingData()
	if td.Len() == 0 || f.fitResults == nil {
		return ErrEmptyTimeDataset
	}

	future := timedataset.TimeSlice(td.T).ExtendDays(horizon)
	t := append(slices.Clone(td.T), future...)

	res, err := f.Predict(t)
	if err != nil {
		return fmt.Errorf("unable to predict with horizon, %w", err)
	}

	residuals := f.Residuals()
	for range future {
		residuals = append(residuals, math.NaN())
	}

	names, comps := ComponentSeries(res.SeriesComponents)

	page := components.NewPage()
	page.AddCharts(
		LineForecaster(t, td.Y, res),
		LineTSeries("Forecast Components", names, t, comps),
		LineTSeries("Forecast Residual", []string{"Residual"}, t, [][]float64{residuals}),
	)
	return page.Render(w)
}
