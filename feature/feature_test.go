package feature

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureString(t *testing.T) {
	testData := map[string]struct {
		f        Feature
		expected string
	}{
		"time":        {f: NewTime("epoch"), expected: "tfeat_epoch"},
		"growth":      {f: Linear(), expected: "growth_linear"},
		"changepoint": {f: NewChangepoint("auto_1", ChangepointCompSlope), expected: "chpnt_auto_1_slope"},
		"seasonality": {f: NewSeasonality("weekly", FourierCompCos, 3), expected: "seas_weekly_03_cos"},
		"event":       {f: NewEvent("Christmas_Day"), expected: "event_Christmas_Day"},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, td.f.String())
		})
	}
}

func TestFeatureGet(t *testing.T) {
	feat := NewSeasonality("weekly", FourierCompSin, 2)

	testData := map[string]struct {
		label     string
		expVal    string
		expExists bool
	}{
		"unknown": {
			label: "unknown",
		},
		"capitalized": {
			label:     "NAME",
			expVal:    "weekly",
			expExists: true,
		},
		"order": {
			label:     "order",
			expVal:    "2",
			expExists: true,
		},
		"fourier component": {
			label:     "fourier_component",
			expVal:    "sin",
			expExists: true,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			val, exists := feat.Get(td.label)
			assert.Equal(t, td.expExists, exists, "exists")
			assert.Equal(t, td.expVal, val, "value")
		})
	}
}

func TestFromLabels(t *testing.T) {
	testData := map[string]struct {
		f   Feature
		err error
	}{
		"growth":      {f: Intercept()},
		"changepoint": {f: NewChangepoint("c0", ChangepointCompBias)},
		"seasonality": {f: NewSeasonality("yearly", FourierCompCos, 10)},
		"event":       {f: NewEvent("Labor_Day")},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := FromLabels(td.f.Type(), td.f.Decode())
			require.NoError(t, err)
			assert.Equal(t, td.f, res)
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		_, err := FromLabels(FeatureType("bogus"), nil)
		assert.ErrorIs(t, err, ErrUnknownFeatureType)
	})

	t.Run("bad order", func(t *testing.T) {
		_, err := FromLabels(FeatureTypeSeasonality, map[string]string{"order": "x"})
		assert.Error(t, err)
	})
}

func TestGrowthGenerate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)
	tSeries := []time.Time{start, start.AddDate(0, 0, 2), end, end.AddDate(0, 0, 2)}
	epoch := NewTime("epoch").Generate(tSeries)

	testData := map[string]struct {
		g        *Growth
		end      time.Time
		expected []float64
	}{
		"intercept": {
			g:        Intercept(),
			end:      end,
			expected: []float64{1, 1, 1, 1},
		},
		"linear": {
			g:        Linear(),
			end:      end,
			expected: []float64{0, 0.5, 1, 1.5},
		},
		"linear with no span": {
			g:        Linear(),
			end:      start,
			expected: []float64{0, 0, 0, 0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.InDeltaSlice(t, td.expected, td.g.Generate(epoch, start, td.end), 1e-9)
		})
	}
}

func TestSeasonalityGenerate(t *testing.T) {
	period := 4.0
	epoch := []float64{0, 1, 2, 3}

	sin := NewSeasonality("s", FourierCompSin, 1).Generate(epoch, period)
	assert.InDeltaSlice(t, []float64{0, 1, 0, -1}, sin, 1e-9)

	cos := NewSeasonality("s", FourierCompCos, 2).Generate(epoch, period)
	assert.InDeltaSlice(t, []float64{1, -1, 1, -1}, cos, 1e-9)

	for _, v := range cos {
		assert.False(t, math.IsNaN(v))
	}
}
