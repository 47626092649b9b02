package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	forecaster "github.com/aouyang1/revforecast"
	"github.com/aouyang1/revforecast/forecast"
	"github.com/aouyang1/revforecast/timedataset"
)

const (
	ComponentTrend    = "trend"
	ComponentHolidays = "holidays"
)

// forecasterModel fits a new forecaster per series with shared read only options
type forecasterModel struct {
	opt *forecaster.Options
}

// NewForecasterModel returns a Model backed by a trend, seasonality and holiday forecaster with
// an uncertainty band. Nil options use the forecaster defaults.
func NewForecasterModel(opt *forecaster.Options) Model {
	if opt == nil {
		opt = forecaster.NewDefaultOptions()
	}
	return &forecasterModel{opt: opt}
}

func (m *forecasterModel) Fit(series TimeSeries) (FittedModel, error) {
	f, err := forecaster.New(m.opt)
	if err != nil {
		return nil, fmt.Errorf("unable to create forecaster, %w", err)
	}
	t, y := series.Split()
	if err := f.Fit(t, y); err != nil {
		if errors.Is(err, forecast.ErrInsufficientTrainingData) || errors.Is(err, timedataset.ErrNoTrainingData) {
			return nil, &ModelError{Kind: KindInsufficientData, Err: err}
		}
		return nil, err
	}
	return &fittedForecaster{f: f, t: t}, nil
}

type fittedForecaster struct {
	f *forecaster.Forecaster
	t []time.Time
}

func (m *fittedForecaster) Predict(horizonDays int) (*Forecast, error) {
	future := timedataset.TimeSlice(m.t).ExtendDays(horizonDays)
	t := append(slices.Clone(m.t), future...)

	res, err := m.f.Predict(t)
	if err != nil {
		return nil, err
	}

	points := make([]ForecastPoint, len(t))
	for i := range t {
		points[i] = ForecastPoint{
			Timestamp:  t[i],
			Predicted:  res.Forecast[i],
			LowerBound: res.Lower[i],
			UpperBound: res.Upper[i],
		}
	}

	comp := res.SeriesComponents
	components := map[string][]float64{
		ComponentTrend: comp.Trend,
	}
	for name, vals := range comp.Seasonality {
		components[name] = vals
	}
	if comp.Event != nil {
		components[ComponentHolidays] = comp.Event
	}

	scores := m.f.SeriesScores()
	fc := &Forecast{
		Points:     points,
		Components: components,
		HistoryLen: len(m.t),
		Scores: Scores{
			MSE:  scores.MSE,
			MAPE: scores.MAPE,
			R2:   scores.R2,
		},
	}

	model, err := m.f.Model()
	if err != nil {
		return nil, fmt.Errorf("unable to export model, %w", err)
	}
	var sb strings.Builder
	if err := model.TablePrint(&sb); err != nil {
		return nil, fmt.Errorf("unable to summarize model, %w", err)
	}
	fc.Summary = sb.String()
	return fc, nil
}
