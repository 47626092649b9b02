package forecaster

import (
	"time"

	"github.com/aouyang1/revforecast/forecast"
)

// Results holds the prediction for each requested time along with the interval bounds and the
// series decomposition
type Results struct {
	T                []time.Time         `json:"time"`
	Forecast         []float64           `json:"forecast"`
	Upper            []float64           `json:"upper"`
	Lower            []float64           `json:"lower"`
	SeriesComponents forecast.Components `json:"series_components"`
}
