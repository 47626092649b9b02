package timedataset

import (
	"errors"
	"math"
	"time"
)

var ErrCannotInferFreq = errors.New("cannot infer frequency with less than two points")

type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	if len(t) < 1 {
		return time.Time{}
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	if len(t) < 1 {
		return time.Time{}
	}
	return t[len(t)-1]
}

// EstimateFreq returns the most common interval between consecutive points, preferring the
// smaller interval on ties.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		frequencies[t[i].Sub(t[i-1])]++
	}

	var maxCnt int
	maxDelta := time.Duration(math.MaxInt64)
	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}

// ExtendDays returns n calendar days following the last time point
func (t TimeSlice) ExtendDays(n int) []time.Time {
	if len(t) == 0 || n <= 0 {
		return nil
	}
	end := t.EndTime()
	res := make([]time.Time, n)
	for i := range n {
		res[i] = end.AddDate(0, 0, i+1)
	}
	return res
}
