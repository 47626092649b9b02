package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1/revforecast/feature"
	"github.com/aouyang1/revforecast/forecast/options"
	"github.com/aouyang1/revforecast/timedataset"
	"github.com/goccy/go-json"
	"github.com/rickar/cal/v2/us"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

var trainStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// dailyRevenue simulates a daily revenue series with linear growth and a weekly cycle
func dailyRevenue(n int) ([]time.Time, []float64) {
	days := timedataset.GenerateDays(trainStart, n)
	y := timedataset.GenerateLinearY(n, 1000, 5).
		Add(timedataset.GenerateWaveY(days, 80, 7*24*time.Hour, 1, 0))
	return days, y
}

func noChangepointOptions() *options.Options {
	opt := options.NewDefaultOptions()
	opt.ChangepointOptions.Auto = false
	return opt
}

func TestFit(t *testing.T) {
	days, y := dailyRevenue(84)

	f, err := New(noChangepointOptions())
	require.NoError(t, err)
	require.NoError(t, f.Fit(days, y))

	scores := f.Scores()
	assert.Greater(t, scores.R2, 0.99)
	assert.Less(t, scores.MAPE, 0.01)

	coef, err := f.Coefficients()
	require.NoError(t, err)
	// 5 per day over an 83 day training window
	assert.InDelta(t, 5*83, coef[feature.Linear().String()], 10)
	assert.InDelta(t, 1000, f.Intercept(), 10)

	resolved := f.Resolved()
	require.Len(t, resolved.Seasonalities, 1)
	assert.Equal(t, options.LabelSeasWeekly, resolved.Seasonalities[0].Name)
	assert.Empty(t, resolved.Changepoints)

	assert.Len(t, f.Residuals(), 84)
	assert.Len(t, f.TrendComponent(), 84)
}

func TestFitWithChangepoints(t *testing.T) {
	days := timedataset.GenerateDays(trainStart, 120)
	y := timedataset.GenerateConstY(120, 500).
		Add(timedataset.GenerateChange(days, days[60], 0, 10)).
		Add(timedataset.GenerateNoise(120, 5, 3))

	f, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, f.Fit(days, y))

	assert.NotEmpty(t, f.Resolved().Changepoints)
	assert.Greater(t, f.Scores().R2, 0.9)

	future := timedataset.TimeSlice(days).ExtendDays(30)
	pred, _, err := f.Predict(future)
	require.NoError(t, err)
	// trend keeps increasing past the changepoint
	assert.Greater(t, pred[29], y[119])
}

func TestFitErrors(t *testing.T) {
	days := timedataset.GenerateDays(trainStart, 10)

	testData := map[string]struct {
		t   []time.Time
		y   []float64
		err error
	}{
		"no data": {
			err: timedataset.ErrNoTrainingData,
		},
		"single point": {
			t:   days[:1],
			y:   []float64{1},
			err: ErrInsufficientTrainingData,
		},
		"all nan but one": {
			t:   days[:3],
			y:   []float64{math.NaN(), 2, math.NaN()},
			err: ErrInsufficientTrainingData,
		},
		"constant": {
			t:   days,
			y:   timedataset.GenerateConstY(10, 250),
			err: ErrDegenerateSeries,
		},
		"infinite": {
			t:   days[:3],
			y:   []float64{1, math.Inf(1), 3},
			err: ErrNonFiniteFit,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := New(nil)
			require.NoError(t, err)
			assert.ErrorIs(t, f.Fit(td.t, td.y), td.err)
		})
	}
}

func TestNewInvalidOptions(t *testing.T) {
	opt := options.NewDefaultOptions()
	opt.GrowthType = "exponential"
	_, err := New(opt)
	assert.ErrorIs(t, err, options.ErrUnknownGrowthType)
}

func TestPredictUntrained(t *testing.T) {
	f, err := New(nil)
	require.NoError(t, err)
	_, _, err = f.Predict([]time.Time{trainStart})
	assert.ErrorIs(t, err, ErrUntrainedForecast)

	_, err = f.Model()
	assert.ErrorIs(t, err, ErrUntrainedForecast)

	var nilF *Forecast
	assert.ErrorIs(t, nilF.Fit(nil, nil), ErrUninitializedForecast)
	assert.Nil(t, nilF.Residuals())
	assert.Equal(t, Scores{}, nilF.Scores())
}

func TestPredictComponentsSum(t *testing.T) {
	days, y := dailyRevenue(60)

	f, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, f.Fit(days, y))

	tPred := append(days, timedataset.TimeSlice(days).ExtendDays(30)...)
	pred, comp, err := f.Predict(tPred)
	require.NoError(t, err)
	require.Len(t, pred, 90)
	require.Equal(t, []string{options.LabelSeasWeekly}, comp.SeasonalityNames())
	assert.Nil(t, comp.Event)

	total := make([]float64, len(pred))
	floats.Add(total, comp.Trend)
	for _, name := range comp.SeasonalityNames() {
		floats.Add(total, comp.Seasonality[name])
	}
	assert.InDeltaSlice(t, pred, total, 1e-6)
}

func TestFitWithHolidays(t *testing.T) {
	start := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	days := timedataset.GenerateDays(start, 75)
	y := timedataset.GenerateConstY(75, 200)
	for i, d := range days {
		if d.Month() == time.December && d.Day() == 25 {
			y[i] += 300
		}
	}
	y.Add(timedataset.GenerateNoise(75, 1, 11))

	opt := noChangepointOptions()
	opt.HolidayOptions.Enabled = true
	f, err := New(opt)
	require.NoError(t, err)
	require.NoError(t, f.Fit(days, y))

	assert.Contains(t, f.Resolved().Holidays, options.HolidayName(us.ChristmasDay))
	comp := f.Components()
	require.NotNil(t, comp.Event)
	christmasIdx := 54
	require.Equal(t, time.December, days[christmasIdx].Month())
	require.Equal(t, 25, days[christmasIdx].Day())
	assert.Greater(t, comp.Event[christmasIdx], 200.0)
}

func TestModelRoundTrip(t *testing.T) {
	days, y := dailyRevenue(60)

	f, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, f.Fit(days, y))

	m, err := f.Model()
	require.NoError(t, err)

	out, err := json.Marshal(m)
	require.NoError(t, err)

	var restored Model
	require.NoError(t, json.Unmarshal(out, &restored))

	f2, err := NewFromModel(restored)
	require.NoError(t, err)

	future := timedataset.TimeSlice(days).ExtendDays(30)
	expected, _, err := f.Predict(future)
	require.NoError(t, err)
	res, _, err := f2.Predict(future)
	require.NoError(t, err)
	assert.InDeltaSlice(t, expected, res, 1e-6)
	assert.Equal(t, f.Scores(), f2.Scores())
}

func TestNewFromModelErrors(t *testing.T) {
	_, err := NewFromModel(Model{})
	assert.ErrorIs(t, err, ErrNoModelCoefficients)

	_, err = NewFromModel(Model{Weights: Weights{Coef: []FeatureWeight{{Type: "bogus"}}}})
	assert.ErrorIs(t, err, feature.ErrUnknownFeatureType)
}

func TestModelEq(t *testing.T) {
	days, y := dailyRevenue(30)

	f, err := New(noChangepointOptions())
	require.NoError(t, err)
	require.NoError(t, f.Fit(days, y))

	eq, err := f.ModelEq()
	require.NoError(t, err)
	assert.Contains(t, eq, "y ~ ")
	assert.Contains(t, eq, "*growth_intercept")
	assert.Contains(t, eq, "*growth_linear")

	empty, err := New(nil)
	require.NoError(t, err)
	_, err = empty.ModelEq()
	assert.ErrorIs(t, err, ErrNoModelCoefficients)
}
