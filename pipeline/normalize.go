package pipeline

import (
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/revforecast/sheet"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	errEmptyCell    = errors.New("empty cell")
	errUnknownDate  = errors.New("unrecognized date format")
	errOutOfRange   = errors.New("value out of range")
	errNotANumber   = errors.New("not a number")
)

// dateLayouts are tried in order. Time of day and zone are dropped after parsing.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	"2006-01-02 15:04",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"20060102",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
}

const (
	// largest serial excel accepts, 9999-12-31
	maxExcelSerial = 2958465.0
)

// ValidateAndNormalize converts the raw upload into a series ordered by date. The Date and
// Revenue columns must both exist by their exact names and every row must parse.
func ValidateAndNormalize(raw *sheet.RecordSet) (TimeSeries, error) {
	var missing []string
	for _, col := range []string{ColumnDate, ColumnRevenue} {
		if !raw.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Kind: KindMissingColumns, Columns: missing}
	}

	series := make(TimeSeries, 0, raw.Len())
	for i, rec := range raw.Rows {
		row := i + 2

		dateVal := rec[ColumnDate]
		ts, err := ParseDate(dateVal)
		if err != nil {
			return nil, &ValidationError{
				Kind:   KindMalformedData,
				Row:    row,
				Column: ColumnDate,
				Value:  dateVal,
				Err:    err,
			}
		}

		revenueVal := rec[ColumnRevenue]
		revenue, err := ParseRevenue(revenueVal)
		if err != nil {
			return nil, &ValidationError{
				Kind:   KindMalformedData,
				Row:    row,
				Column: ColumnRevenue,
				Value:  revenueVal,
				Err:    err,
			}
		}
		series = append(series, TimeSeriesPoint{Timestamp: ts, Value: revenue})
	}

	slices.SortStableFunc(series, func(a, b TimeSeriesPoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return series, nil
}

// ParseDate reads a calendar date from text or an excel serial number and returns it at
// midnight UTC
func ParseDate(val string) (time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}, errEmptyCell
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		return truncateDate(t), nil
	}

	serial, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return time.Time{}, errUnknownDate
	}
	if math.IsNaN(serial) || serial < 1 || serial > maxExcelSerial {
		return time.Time{}, errOutOfRange
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, err
	}
	return truncateDate(t), nil
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseRevenue reads an exact decimal and converts it to the nearest float64
func ParseRevenue(val string) (float64, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, errEmptyCell
	}
	d, err := decimal.NewFromString(val)
	if err != nil {
		return 0, errNotANumber
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errOutOfRange
	}
	return f, nil
}
