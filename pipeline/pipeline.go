// Package pipeline turns an uploaded revenue spreadsheet into a validated daily series, a
// forecast over a horizon of days, and a short tail of that forecast for display.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"time"

	"github.com/aouyang1/revforecast/sheet"
	"github.com/aouyang1/revforecast/timedataset"
)

const (
	DefaultHorizonDays = 30
	DefaultTailCount   = 10
	DefaultFitTimeout  = 60 * time.Second

	// MinDistinctDates is the fewest distinct dates a model can be fit on
	MinDistinctDates = 2
)

// Model fits a forecasting model on a series
type Model interface {
	Fit(series TimeSeries) (FittedModel, error)
}

// FittedModel predicts every fitted period followed by horizonDays daily periods after the last
type FittedModel interface {
	Predict(horizonDays int) (*Forecast, error)
}

// Pipeline runs uploads through validation, fitting and summarization. It holds no per upload
// state and is safe for concurrent use.
type Pipeline struct {
	model      Model
	fitTimeout time.Duration
	logger     *slog.Logger
}

type Option func(*Pipeline)

// WithFitTimeout bounds the time spent fitting and predicting. Zero or less disables the bound.
func WithFitTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.fitTimeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pipeline fitting with the provided model
func New(model Model, opts ...Option) *Pipeline {
	p := &Pipeline{
		model:      model,
		fitTimeout: DefaultFitTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run validates the upload, fits and predicts horizonDays ahead, then takes the last tailCount
// points. Either every output is returned or an error.
func (p *Pipeline) Run(ctx context.Context, raw *sheet.RecordSet, horizonDays, tailCount int) (*Result, error) {
	series, err := ValidateAndNormalize(raw)
	if err != nil {
		return nil, err
	}
	fc, err := p.Forecast(ctx, series, horizonDays)
	if err != nil {
		return nil, err
	}
	return &Result{
		Series:   series,
		Forecast: fc,
		Tail:     SummarizeForDisplay(fc, tailCount),
	}, nil
}

type fitResult struct {
	forecast *Forecast
	err      error
}

// Forecast fits the model on the series and predicts horizonDays past the last date. Repeated
// dates are averaged into a single period before fitting.
func (p *Pipeline) Forecast(ctx context.Context, series TimeSeries, horizonDays int) (*Forecast, error) {
	if horizonDays < 0 {
		return nil, fmt.Errorf("got %d, %w", horizonDays, ErrInvalidHorizon)
	}
	if p == nil || p.model == nil {
		return nil, ErrNoModel
	}

	distinct, err := dedupe(series)
	if err != nil {
		return nil, err
	}
	if len(distinct) < len(series) {
		p.logger.Info("averaged repeated dates",
			"rows", len(series),
			"periods", len(distinct),
		)
	}

	if p.fitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.fitTimeout)
		defer cancel()
	}

	start := time.Now()
	resCh := make(chan fitResult, 1)
	go func() {
		resCh <- p.fitPredict(distinct, horizonDays)
	}()

	var res fitResult
	select {
	case <-ctx.Done():
		p.logger.Warn("abandoned model fit",
			"periods", len(distinct),
			"elapsed", time.Since(start),
			"error", ctx.Err(),
		)
		return nil, &ModelError{Kind: KindFitFailure, Err: ctx.Err()}
	case res = <-resCh:
	}
	if res.err != nil {
		return nil, fitFailure(res.err)
	}

	if err := validateForecast(res.forecast, distinct, horizonDays); err != nil {
		return nil, &ModelError{Kind: KindFitFailure, Err: err}
	}
	p.logger.Debug("fit model",
		"periods", len(distinct),
		"horizon_days", horizonDays,
		"elapsed", time.Since(start),
	)
	return res.forecast, nil
}

func (p *Pipeline) fitPredict(series TimeSeries, horizonDays int) (res fitResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("model panicked", "panic", r, "stack", string(debug.Stack()))
			res = fitResult{err: fmt.Errorf("model panicked, %v", r)}
		}
	}()

	fitted, err := p.model.Fit(series)
	if err != nil {
		return fitResult{err: err}
	}
	fc, err := fitted.Predict(horizonDays)
	if err != nil {
		return fitResult{err: err}
	}
	return fitResult{forecast: fc}
}

// dedupe sorts the series and averages repeated dates. Non-finite values cannot be fit.
func dedupe(series TimeSeries) (TimeSeries, error) {
	for _, pt := range series {
		if math.IsNaN(pt.Value) || math.IsInf(pt.Value, 0) {
			return nil, &ModelError{
				Kind: KindFitFailure,
				Err:  fmt.Errorf("%s, %w", pt.Timestamp.Format(time.DateOnly), ErrNonFiniteValue),
			}
		}
	}
	if len(series) == 0 {
		return nil, &ModelError{
			Kind: KindInsufficientData,
			Err:  fmt.Errorf("need at least %d distinct dates, got 0", MinDistinctDates),
		}
	}

	t, y := series.Split()
	td, err := timedataset.NewAveragedDataset(t, y)
	if err != nil {
		return nil, &ModelError{Kind: KindFitFailure, Err: err}
	}
	if td.Len() < MinDistinctDates {
		return nil, &ModelError{
			Kind: KindInsufficientData,
			Err:  fmt.Errorf("need at least %d distinct dates, got %d", MinDistinctDates, td.Len()),
		}
	}

	distinct := make(TimeSeries, td.Len())
	for i := range td.T {
		distinct[i] = TimeSeriesPoint{Timestamp: td.T[i], Value: td.Y[i]}
	}
	return distinct, nil
}

// validateForecast checks a model output covers every fitted period and each day of the
// horizon with finite and ordered values
func validateForecast(fc *Forecast, history TimeSeries, horizonDays int) error {
	if fc == nil {
		return fmt.Errorf("no forecast, %w", ErrInvalidForecast)
	}
	expected := len(history) + horizonDays
	if len(fc.Points) != expected {
		return fmt.Errorf("expected %d points but got %d, %w", expected, len(fc.Points), ErrInvalidForecast)
	}
	for i, pt := range history {
		if !fc.Points[i].Timestamp.Equal(pt.Timestamp) {
			return fmt.Errorf("point %d at %s does not match history at %s, %w",
				i, fc.Points[i].Timestamp.Format(time.DateOnly), pt.Timestamp.Format(time.DateOnly), ErrInvalidForecast)
		}
	}
	last := history[len(history)-1].Timestamp
	for i := 1; i <= horizonDays; i++ {
		pt := fc.Points[len(history)+i-1]
		want := last.AddDate(0, 0, i)
		if !pt.Timestamp.Equal(want) {
			return fmt.Errorf("horizon day %d at %s, expected %s, %w",
				i, pt.Timestamp.Format(time.DateOnly), want.Format(time.DateOnly), ErrInvalidForecast)
		}
	}
	for i, pt := range fc.Points {
		for _, v := range []float64{pt.Predicted, pt.LowerBound, pt.UpperBound} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("point %d, %w", i, ErrNonFiniteValue)
			}
		}
		if pt.LowerBound > pt.Predicted || pt.Predicted > pt.UpperBound {
			return fmt.Errorf("point %d bounds %.3f to %.3f do not contain %.3f, %w",
				i, pt.LowerBound, pt.UpperBound, pt.Predicted, ErrInvalidForecast)
		}
	}
	return nil
}

// SummarizeForDisplay returns a copy of the last tailCount points of the forecast in
// chronological order
func SummarizeForDisplay(fc *Forecast, tailCount int) []ForecastPoint {
	if fc == nil || tailCount <= 0 {
		return []ForecastPoint{}
	}
	start := max(len(fc.Points)-tailCount, 0)
	tail := make([]ForecastPoint, len(fc.Points)-start)
	copy(tail, fc.Points[start:])
	return tail
}

// IsValidationError reports whether err was caused by the content of the upload
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// IsModelError reports whether err was caused while fitting or predicting
func IsModelError(err error) bool {
	var mErr *ModelError
	return errors.As(err, &mErr)
}
