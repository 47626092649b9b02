package forecast

import (
	"bytes"
	"testing"
	"time"

	"github.com/aouyang1/revforecast/feature"
	"github.com/aouyang1/revforecast/forecast/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelTablePrint(t *testing.T) {
	testData := map[string]struct {
		m        Model
		prefix   string
		indent   string
		contains []string
	}{
		"no input": {
			contains: []string{
				"Forecast:\n",
				"Training Window: 0001-01-01 to 0001-01-01\n",
				"Changepoints: None\n",
				"Seasonality: None\n",
				"Events: None\n",
				"Weights: None\n",
			},
		},
		"with options and weights": {
			m: Model{
				TrainStartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				TrainEndTime:   time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
				Options:        options.NewDefaultOptions(),
				Resolved: options.Resolved{
					Changepoints:  []options.Changepoint{options.NewChangepoint("auto_0", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))},
					Seasonalities: []options.SeasonalityConfig{options.NewWeeklySeasonalityConfig(3)},
				},
				Scores: &Scores{MAPE: 0.1234, MSE: 1.2345, R2: 0.0123},
				Weights: Weights{
					Coef: []FeatureWeight{
						NewFeatureWeight(feature.Intercept(), 1.1),
						NewFeatureWeight(feature.NewChangepoint("auto_0", feature.ChangepointCompSlope), 0),
					},
				},
			},
			prefix: "--",
			indent: "**",
			contains: []string{
				"--Forecast:\n",
				"--**Training Window: 2024-01-01 to 2024-01-20\n",
				"--**Growth: linear\n",
				"auto_0",
				"2024-01-02",
				"weekly",
				"--**Scores: MAPE 12.34%, MSE 1.234, R2 0.012\n",
				"--**Weights:\n",
				`{"name":"intercept"}`,
				"1.100",
				"--****Pruned: 1 of 2\n",
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, td.m.TablePrint(&buf, td.prefix, td.indent))
			for _, c := range td.contains {
				assert.Contains(t, buf.String(), c)
			}
		})
	}
}

func TestFeatureWeightToFeature(t *testing.T) {
	testData := map[string]struct {
		f feature.Feature
	}{
		"growth":      {f: feature.Linear()},
		"changepoint": {f: feature.NewChangepoint("auto_3", feature.ChangepointCompSlope)},
		"seasonality": {f: feature.NewSeasonality("weekly", feature.FourierCompSin, 2)},
		"event":       {f: feature.NewEvent("Labor_Day")},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			fw := NewFeatureWeight(td.f, 2.5)
			res, err := fw.ToFeature()
			require.NoError(t, err)
			assert.Equal(t, td.f.String(), res.String())
		})
	}

	var nilFW *FeatureWeight
	_, err := nilFW.ToFeature()
	assert.ErrorIs(t, err, feature.ErrUnknownFeatureType)
}
