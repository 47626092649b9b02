package forecaster

import (
	"math"
	"time"

	"github.com/aouyang1/revforecast/forecast"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// missingValue tells echarts to leave a gap in the line
const missingValue = "-"

func lineValues(y []float64, n int) []opts.LineData {
	data := make([]opts.LineData, 0, n)
	for i := range n {
		if i >= len(y) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			data = append(data, opts.LineData{Value: missingValue})
			continue
		}
		data = append(data, opts.LineData{Value: y[i]})
	}
	return data
}

func dateLabels(t []time.Time) []string {
	labels := make([]string, len(t))
	for i, tPnt := range t {
		labels[i] = tPnt.Format(time.DateOnly)
	}
	return labels
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. Each
// series in y is aligned to t where missing or NaN values are left as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	line.SetXAxis(dateLabels(t))
	for i, series := range seriesName {
		if i >= len(y) {
			break
		}
		line.AddSeries(series, lineValues(y[i], len(t)))
	}
	return line
}

// LineForecaster generates an echart line chart for a fit result plotting the actual values
// along with the forecasted, upper, lower values. actual may be shorter than the result when
// the result extends past the training data.
func LineForecaster(t []time.Time, actual []float64, res *Results) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Forecast Fit"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	n := len(t)
	line.SetXAxis(dateLabels(t)).
		AddSeries("Actual", lineValues(actual, n)).
		AddSeries("Forecast", lineValues(res.Forecast, n)).
		AddSeries("Upper", lineValues(res.Upper, n)).
		AddSeries("Lower", lineValues(res.Lower, n))
	return line
}

// ComponentSeries flattens the components into chart series names and values with the trend
// first, followed by each seasonality and the holiday events when present
func ComponentSeries(comp forecast.Components) ([]string, [][]float64) {
	names := []string{"Trend"}
	values := [][]float64{comp.Trend}
	for _, name := range comp.SeasonalityNames() {
		names = append(names, name)
		values = append(values, comp.Seasonality[name])
	}
	if comp.Event != nil {
		names = append(names, "Holidays")
		values = append(values, comp.Event)
	}
	return names, values
}
