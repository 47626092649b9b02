package forecast

import "slices"

// Components splits a prediction into its additive parts. Summing the trend, every
// seasonality and the events gives back the prediction.
type Components struct {
	Trend       []float64            `json:"trend"`
	Seasonality map[string][]float64 `json:"seasonality"`
	Event       []float64            `json:"event"`
}

// SeasonalityNames returns the seasonality component names in sorted order
func (c Components) SeasonalityNames() []string {
	names := make([]string, 0, len(c.Seasonality))
	for name := range c.Seasonality {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c Components) copy() Components {
	res := Components{
		Trend: slices.Clone(c.Trend),
		Event: slices.Clone(c.Event),
	}
	if c.Seasonality != nil {
		res.Seasonality = make(map[string][]float64, len(c.Seasonality))
		for name, vals := range c.Seasonality {
			res.Seasonality[name] = slices.Clone(vals)
		}
	}
	return res
}
