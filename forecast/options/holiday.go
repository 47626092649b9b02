package options

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aouyang1/revforecast/feature"
	"github.com/aouyang1/revforecast/forecast/util"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// HolidayOptions models US federal holidays as day window events. A holiday is only kept when
// it is observed inside the training window.
type HolidayOptions struct {
	Enabled    bool `json:"enabled"`
	DaysBefore int  `json:"days_before"`
	DaysAfter  int  `json:"days_after"`
}

func NewDefaultHolidayOptions() HolidayOptions {
	return HolidayOptions{}
}

// HolidayName converts a calendar holiday name into a feature safe name
func HolidayName(hol *cal.Holiday) string {
	return strings.ReplaceAll(hol.Name, " ", "_")
}

func lookupHoliday(name string) *cal.Holiday {
	for _, hol := range us.Holidays {
		if HolidayName(hol) == name {
			return hol
		}
	}
	return nil
}

// observedDate returns the observed holiday date at midnight UTC, or false when the holiday
// does not exist for the year
func observedDate(hol *cal.Holiday, year int) (time.Time, bool) {
	_, observed := hol.Calc(year)
	if observed.IsZero() {
		return time.Time{}, false
	}
	return time.Date(observed.Year(), observed.Month(), observed.Day(), 0, 0, 0, 0, time.UTC), true
}

// Resolve returns the names of the holidays observed between start and end inclusive
func (h HolidayOptions) Resolve(start, end time.Time) []string {
	if !h.Enabled {
		return nil
	}
	var names []string
	for _, hol := range us.Holidays {
		for year := start.Year(); year <= end.Year(); year++ {
			obs, ok := observedDate(hol, year)
			if !ok {
				continue
			}
			if !obs.Before(start) && !obs.After(end) {
				names = append(names, HolidayName(hol))
				break
			}
		}
	}
	return names
}

// GenerateFeatures creates one indicator feature per named holiday covering the observed date
// widened by the configured days before and after.
func (h HolidayOptions) GenerateFeatures(t []time.Time, names []string) *feature.Set {
	feat := feature.NewSet()
	if len(t) == 0 {
		return feat
	}
	startYear := t[0].Year() - 1
	endYear := t[len(t)-1].Year() + 1

	for _, name := range names {
		hol := lookupHoliday(name)
		if hol == nil {
			continue
		}
		var windows [][2]time.Time
		for year := startYear; year <= endYear; year++ {
			obs, ok := observedDate(hol, year)
			if !ok {
				continue
			}
			windows = append(windows, [2]time.Time{
				obs.AddDate(0, 0, -h.DaysBefore),
				obs.AddDate(0, 0, h.DaysAfter+1),
			})
		}

		mask := make([]float64, len(t))
		for i, tPnt := range t {
			for _, win := range windows {
				if !tPnt.Before(win[0]) && tPnt.Before(win[1]) {
					mask[i] = 1.0
					break
				}
			}
		}
		feat.Set(feature.NewEvent(name), mask)
	}
	return feat
}

func (h HolidayOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	status := "disabled"
	if h.Enabled {
		status = fmt.Sprintf("enabled, window -%dd/+%dd", h.DaysBefore, h.DaysAfter)
	}
	_, err := fmt.Fprintf(w, "%s%sHolidays: %s\n", prefix, util.IndentExpand(indent, indentGrowth), status)
	return err
}

func TablePrintHolidays(w io.Writer, names []string, prefix, indent string, indentGrowth int) error {
	if len(names) == 0 {
		_, err := fmt.Fprintf(w, "%s%sEvents: None\n", prefix, util.IndentExpand(indent, indentGrowth))
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sEvents:\n", prefix, util.IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, util.IndentExpand(indent, indentGrowth+1), name); err != nil {
			return err
		}
	}
	return nil
}
