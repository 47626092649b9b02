package feature

import "time"

const (
	GrowthIntercept = "intercept"
	GrowthLinear    = "linear"
)

// Growth models the base level of the series, either a constant intercept or a linear
// trend across the training window.
type Growth struct {
	Name string `json:"name"`
}

func NewGrowth(name string) *Growth {
	return &Growth{name}
}

func Intercept() *Growth {
	return NewGrowth(GrowthIntercept)
}

func Linear() *Growth {
	return NewGrowth(GrowthLinear)
}

func (g Growth) String() string {
	return "growth_" + g.Name
}

func (g Growth) Get(label string) (string, bool) {
	return lookup(g, label)
}

func (g Growth) Type() FeatureType {
	return FeatureTypeGrowth
}

func (g Growth) Decode() map[string]string {
	return map[string]string{"name": g.Name}
}

// Generate produces the growth feature from epoch seconds. Linear growth is 0 at the start
// of training and 1 at the end so that extrapolated points continue past 1.
func (g Growth) Generate(epoch []float64, trainStart, trainEnd time.Time) []float64 {
	res := make([]float64, len(epoch))
	switch g.Name {
	case GrowthIntercept:
		for i := range res {
			res[i] = 1.0
		}
	case GrowthLinear:
		start := float64(trainStart.UnixNano()) / 1e9
		span := trainEnd.Sub(trainStart).Seconds()
		if span <= 0 {
			return res
		}
		for i, e := range epoch {
			res[i] = (e - start) / span
		}
	}
	return res
}
