package pipeline

import (
	"slices"
	"time"
)

const (
	ColumnDate    = "Date"
	ColumnRevenue = "Revenue"
)

// TimeSeriesPoint is one observation on a calendar date at 00:00 UTC
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TimeSeries is ordered ascending by timestamp once normalized
type TimeSeries []TimeSeriesPoint

// Split returns the timestamps and values as parallel slices
func (ts TimeSeries) Split() ([]time.Time, []float64) {
	t := make([]time.Time, len(ts))
	y := make([]float64, len(ts))
	for i, p := range ts {
		t[i] = p.Timestamp
		y[i] = p.Value
	}
	return t, y
}

// ForecastPoint is the prediction for one date with its uncertainty interval
type ForecastPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Predicted  float64   `json:"predicted"`
	LowerBound float64   `json:"lower_bound"`
	UpperBound float64   `json:"upper_bound"`
}

// Scores are the in-sample fit scores of the model
type Scores struct {
	MSE  float64 `json:"mse"`
	MAPE float64 `json:"mape"`
	R2   float64 `json:"r2"`
}

// Forecast holds a prediction for every input period followed by the future periods.
// Components are aligned with Points.
type Forecast struct {
	Points     []ForecastPoint      `json:"points"`
	Components map[string][]float64 `json:"components,omitempty"`
	HistoryLen int                  `json:"history_len"`
	Scores     Scores               `json:"scores"`

	// Summary is a human readable description of the fitted model
	Summary string `json:"summary,omitempty"`
}

// Timestamps returns the timestamp of every point
func (f *Forecast) Timestamps() []time.Time {
	if f == nil {
		return nil
	}
	t := make([]time.Time, len(f.Points))
	for i, p := range f.Points {
		t[i] = p.Timestamp
	}
	return t
}

// ComponentNames returns the component names with the trend first and the rest sorted
func (f *Forecast) ComponentNames() []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.Components))
	for name := range f.Components {
		if name == ComponentTrend {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	if _, exists := f.Components[ComponentTrend]; exists {
		names = append([]string{ComponentTrend}, names...)
	}
	return names
}

// Result is every output of one upload run through the pipeline
type Result struct {
	Series   TimeSeries      `json:"series"`
	Forecast *Forecast       `json:"forecast"`
	Tail     []ForecastPoint `json:"tail"`
}
