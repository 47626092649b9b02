package options

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/revforecast/feature"
	"github.com/aouyang1/revforecast/forecast/util"
	"github.com/aouyang1/revforecast/timedataset"
)

const (
	LabelSeasDaily  = "daily"
	LabelSeasWeekly = "weekly"
	LabelSeasYearly = "yearly"

	DefaultDailyOrders  = 4
	DefaultWeeklyOrders = 3
	DefaultYearlyOrders = 10
)

// SeasonalityOptions configures the seasonal components to fit for. With Auto set the daily,
// weekly and yearly components are each enabled only when the training data can resolve them.
type SeasonalityOptions struct {
	Auto               bool                `json:"auto"`
	SeasonalityConfigs []SeasonalityConfig `json:"seasonality_configs"`
}

// NewDefaultSeasonalityOptions returns automatic daily, weekly and yearly seasonality
func NewDefaultSeasonalityOptions() SeasonalityOptions {
	return SeasonalityOptions{
		Auto: true,
		SeasonalityConfigs: []SeasonalityConfig{
			NewDailySeasonalityConfig(DefaultDailyOrders),
			NewWeeklySeasonalityConfig(DefaultWeeklyOrders),
			NewYearlySeasonalityConfig(DefaultYearlyOrders),
		},
	}
}

// Resolve returns the valid seasonality configs, sorted by period, with duplicate periods
// removed. In auto mode a config also needs at least two full periods of training data and a
// sampling interval under half its period.
func (s SeasonalityOptions) Resolve(t []time.Time) []SeasonalityConfig {
	cfgs := dedupeSeasonality(s.SeasonalityConfigs)
	if !s.Auto {
		return cfgs
	}

	ts := timedataset.TimeSlice(t)
	freq, err := ts.EstimateFreq()
	if err != nil {
		return nil
	}
	span := ts.EndTime().Sub(ts.StartTime())

	res := make([]SeasonalityConfig, 0, len(cfgs))
	for _, cfg := range cfgs {
		if span < 2*cfg.Period {
			slog.Debug("skipping seasonality, not enough history", "name", cfg.Name, "span", span)
			continue
		}
		if freq >= cfg.Period/2 {
			slog.Debug("skipping seasonality, sampled too coarsely", "name", cfg.Name, "freq", freq)
			continue
		}
		res = append(res, cfg)
	}
	return res
}

func dedupeSeasonality(cfgs []SeasonalityConfig) []SeasonalityConfig {
	sorted := slices.Clone(cfgs)
	slices.SortFunc(sorted, func(a, b SeasonalityConfig) int {
		if c := cmp.Compare(a.Period, b.Period); c != 0 {
			return c
		}
		return cmp.Compare(b.Orders, a.Orders)
	})

	res := make([]SeasonalityConfig, 0, len(sorted))
	var lastPeriod time.Duration
	for _, cfg := range sorted {
		if cfg.Period <= 0 || cfg.Orders <= 0 || cfg.Name == "" {
			slog.Warn("skipping invalid seasonality config", "name", cfg.Name, "period", cfg.Period, "orders", cfg.Orders)
			continue
		}
		if cfg.Period == lastPeriod {
			continue
		}
		res = append(res, cfg)
		lastPeriod = cfg.Period
	}
	return res
}

// GenerateFourierFeatures creates a sine and cosine feature per order of every seasonality
func GenerateFourierFeatures(epoch []float64, cfgs []SeasonalityConfig) *feature.Set {
	x := feature.NewSet()
	for _, cfg := range cfgs {
		period := cfg.Period.Seconds()
		for order := 1; order <= cfg.Orders; order++ {
			sinFeat := feature.NewSeasonality(cfg.Name, feature.FourierCompSin, order)
			cosFeat := feature.NewSeasonality(cfg.Name, feature.FourierCompCos, order)
			x.Set(sinFeat, sinFeat.Generate(epoch, period))
			x.Set(cosFeat, cosFeat.Generate(epoch, period))
		}
	}
	return x
}

// SeasonalityConfig represents a single seasonality configuration to model. This will generate
// Fourier series of the specified period and number of orders. E.g. a period of 7 days
// with 3 orders will create 6 Fourier series of order 1, 2, 3 for the sine/cosine components
// where order 1 will have a period of 7 days and order 2 will have a period of 3.5 days.
type SeasonalityConfig struct {
	Name   string        `json:"name"`
	Orders int           `json:"orders"`
	Period time.Duration `json:"period"`
}

// NewSeasonalityConfig creates a new seasonality config given a name, period and orders
func NewSeasonalityConfig(name string, period time.Duration, orders int) SeasonalityConfig {
	if orders < 0 {
		orders = 0
	}
	return SeasonalityConfig{
		Name:   name,
		Orders: orders,
		Period: period,
	}
}

func NewDailySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasDaily, 24*time.Hour, orders)
}

func NewWeeklySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasWeekly, 7*24*time.Hour, orders)
}

// NewYearlySeasonalityConfig uses a 365.25 day period to account for leap years
func NewYearlySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasYearly, 36525*24*time.Hour/100, orders)
}

func TablePrintSeasonalities(w io.Writer, cfgs []SeasonalityConfig, prefix, indent string, indentGrowth int) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	noCfg := " None"
	if len(cfgs) > 0 {
		noCfg = ""
	}
	if _, err := fmt.Fprintf(w, "%s%sSeasonality:%s\n", prefix, util.IndentExpand(indent, indentGrowth), noCfg); err != nil {
		return err
	}
	if len(cfgs) == 0 {
		return nil
	}
	fmt.Fprintf(tbl, "%s%sName\tPeriod\tOrders\t\n", prefix, util.IndentExpand(indent, indentGrowth+1))
	for _, cfg := range cfgs {
		fmt.Fprintf(tbl, "%s%s%s\t%s\t%d\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			cfg.Name, cfg.Period, cfg.Orders)
	}
	return tbl.Flush()
}
