package options

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/revforecast/feature"
	"github.com/aouyang1/revforecast/forecast/util"
)

const (
	DefaultAutoNumChangepoints = 25
	DefaultChangepointRange    = 0.8
)

// Changepoint describes a point in time that will change the ongoing trend
type Changepoint struct {
	T    time.Time `json:"time"`
	Name string    `json:"name"`
}

func NewChangepoint(name string, t time.Time) Changepoint {
	return Changepoint{t, name}
}

// ChangepointOptions configures the changepoints either explicitly or by evenly placing up to
// AutoNumChangepoints over the first Range fraction of the history. Auto placement relies on
// regularization to remove changepoints that do not improve the fit.
type ChangepointOptions struct {
	Changepoints        []Changepoint `json:"changepoints"`
	Auto                bool          `json:"auto"`
	AutoNumChangepoints int           `json:"auto_num_changepoints"`
	Range               float64       `json:"range"`
}

// NewDefaultChangepointOptions generates a set of default changepoint options
func NewDefaultChangepointOptions() ChangepointOptions {
	return ChangepointOptions{
		Auto:                true,
		AutoNumChangepoints: DefaultAutoNumChangepoints,
		Range:               DefaultChangepointRange,
	}
}

// Resolve returns the changepoints for the sorted training time points. Explicit changepoints
// outside of the training window are dropped since they would produce all zero features.
func (c ChangepointOptions) Resolve(t []time.Time) []Changepoint {
	if len(t) < 2 {
		return nil
	}
	if !c.Auto {
		start, end := t[0], t[len(t)-1]
		res := make([]Changepoint, 0, len(c.Changepoints))
		for i, chpt := range c.Changepoints {
			if chpt.T.Before(start) || !chpt.T.Before(end) {
				continue
			}
			if chpt.Name == "" {
				chpt.Name = strconv.Itoa(i)
			}
			res = append(res, chpt)
		}
		return res
	}

	maxChpts := c.AutoNumChangepoints
	if maxChpts <= 0 {
		maxChpts = DefaultAutoNumChangepoints
	}
	chptRange := c.Range
	if chptRange <= 0 || chptRange > 1 {
		chptRange = DefaultChangepointRange
	}

	histSize := int(math.Floor(float64(len(t)) * chptRange))
	n := min(maxChpts, histSize-1)
	if n <= 0 {
		return nil
	}

	// evenly spaced indices over the history excluding the first point
	res := make([]Changepoint, 0, n)
	step := float64(histSize-1) / float64(n)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(step * float64(i)))
		res = append(res, NewChangepoint("auto_"+strconv.Itoa(i-1), t[idx]))
	}
	return res
}

// GenerateChangepointFeatures creates a slope feature per changepoint that grows from 0 at the
// changepoint and reaches the remaining fraction of the training window at its end.
func GenerateChangepointFeatures(epoch []float64, chpts []Changepoint, trainStart, trainEnd time.Time) *feature.Set {
	feat := feature.NewSet()
	span := trainEnd.Sub(trainStart).Seconds()
	if span <= 0 {
		return feat
	}
	for _, chpt := range chpts {
		cpEpoch := float64(chpt.T.UnixNano()) / 1e9
		slope := make([]float64, len(epoch))
		for i, e := range epoch {
			if e >= cpEpoch {
				slope[i] = (e - cpEpoch) / span
			}
		}
		feat.Set(feature.NewChangepoint(chpt.Name, feature.ChangepointCompSlope), slope)
	}
	return feat
}

func TablePrintChangepoints(w io.Writer, chpts []Changepoint, prefix, indent string, indentGrowth int) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	noCfg := " None"
	if len(chpts) > 0 {
		noCfg = ""
	}
	if _, err := fmt.Fprintf(w, "%s%sChangepoints:%s\n", prefix, util.IndentExpand(indent, indentGrowth), noCfg); err != nil {
		return err
	}
	if len(chpts) == 0 {
		return nil
	}
	fmt.Fprintf(tbl, "%s%sName\tDate\t\n", prefix, util.IndentExpand(indent, indentGrowth+1))
	for _, chpt := range chpts {
		fmt.Fprintf(tbl, "%s%s%s\t%s\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			chpt.Name, chpt.T.Format(time.DateOnly))
	}
	return tbl.Flush()
}
