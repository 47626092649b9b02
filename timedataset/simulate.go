package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateDays returns n consecutive calendar days starting at start
func GenerateDays(start time.Time, n int) []time.Time {
	t := make([]time.Time, 0, n)
	for i := range n {
		t = append(t, start.AddDate(0, 0, i))
	}
	return t
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func (s Series) SetConst(t []time.Time, val float64, start, end time.Time) Series {
	for i := range s {
		if !t[i].Before(start) && t[i].Before(end) {
			s[i] = val
		}
	}
	return s
}

// MaskWithWeekend zeroes every value that does not fall on a weekend
func (s Series) MaskWithWeekend(t []time.Time) Series {
	for i := range s {
		switch t[i].Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			s[i] = 0.0
		}
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make(Series, n)
	floats.AddConst(val, y)
	return y
}

// GenerateLinearY increases by slope per point starting from intercept
func GenerateLinearY(n int, intercept, slope float64) Series {
	y := make(Series, n)
	for i := range y {
		y[i] = intercept + slope*float64(i)
	}
	return y
}

// GenerateWaveY generates a sine wave of the given order for a period
func GenerateWaveY(t []time.Time, amp float64, period time.Duration, order, timeOffset float64) Series {
	periodSec := period.Seconds()
	y := make(Series, len(t))
	for i, tPnt := range t {
		y[i] = amp * math.Sin(2.0*math.Pi*order/periodSec*(float64(tPnt.Unix())+timeOffset))
	}
	return y
}

// GenerateNoise returns normally distributed noise from a seeded source so simulations are
// reproducible
func GenerateNoise(n int, scale float64, seed uint64) Series {
	r := rand.New(rand.NewPCG(seed, seed))
	y := make(Series, n)
	for i := range y {
		y[i] = r.NormFloat64() * scale
	}
	return y
}

// GenerateChange adds a level shift of bias and a daily slope starting at chpt
func GenerateChange(t []time.Time, chpt time.Time, bias, slopePerDay float64) Series {
	y := make(Series, len(t))
	for i, tPnt := range t {
		if !tPnt.Before(chpt) {
			y[i] = bias + slopePerDay*tPnt.Sub(chpt).Hours()/24.0
		}
	}
	return y
}
