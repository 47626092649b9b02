package feature

import "time"

// Time is a raw time derived feature such as the unix epoch in seconds. It is used to
// derive other features and is never fit directly.
type Time struct {
	Name string `json:"name"`
}

func NewTime(name string) *Time {
	return &Time{name}
}

func (t Time) String() string {
	return "tfeat_" + t.Name
}

func (t Time) Get(label string) (string, bool) {
	return lookup(t, label)
}

func (t Time) Type() FeatureType {
	return FeatureTypeTime
}

func (t Time) Decode() map[string]string {
	return map[string]string{"name": t.Name}
}

// Generate returns seconds since the unix epoch for each time point
func (t Time) Generate(tSeries []time.Time) []float64 {
	epoch := make([]float64, len(tSeries))
	for i, tPnt := range tSeries {
		epoch[i] = float64(tPnt.UnixNano()) / 1e9
	}
	return epoch
}
