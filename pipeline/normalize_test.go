package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/aouyang1/revforecast/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func recordSet(header []string, rows ...[]string) *sheet.RecordSet {
	rs := &sheet.RecordSet{Header: header}
	for _, row := range rows {
		rec := make(sheet.Record, len(header))
		for i, h := range header {
			rec[h] = row[i]
		}
		rs.Rows = append(rs.Rows, rec)
	}
	return rs
}

func TestValidateAndNormalize(t *testing.T) {
	testData := map[string]struct {
		raw      *sheet.RecordSet
		expected TimeSeries
	}{
		"sorted": {
			raw: recordSet([]string{"Date", "Revenue"},
				[]string{"2024-01-01", "100"},
				[]string{"2024-01-02", "110.5"},
			),
			expected: TimeSeries{
				{Timestamp: day(2024, 1, 1), Value: 100},
				{Timestamp: day(2024, 1, 2), Value: 110.5},
			},
		},
		"unsorted with extra columns": {
			raw: recordSet([]string{"Region", "Date", "Revenue"},
				[]string{"west", "2024-01-03", "30"},
				[]string{"east", "2024-01-01", "10"},
				[]string{"west", "2024-01-02", "20"},
			),
			expected: TimeSeries{
				{Timestamp: day(2024, 1, 1), Value: 10},
				{Timestamp: day(2024, 1, 2), Value: 20},
				{Timestamp: day(2024, 1, 3), Value: 30},
			},
		},
		"duplicate dates keep source order": {
			raw: recordSet([]string{"Date", "Revenue"},
				[]string{"2024-01-02", "5"},
				[]string{"2024-01-01", "1"},
				[]string{"2024-01-02", "7"},
			),
			expected: TimeSeries{
				{Timestamp: day(2024, 1, 1), Value: 1},
				{Timestamp: day(2024, 1, 2), Value: 5},
				{Timestamp: day(2024, 1, 2), Value: 7},
			},
		},
		"header only": {
			raw:      recordSet([]string{"Date", "Revenue"}),
			expected: TimeSeries{},
		},
		"negative and exponent revenue": {
			raw: recordSet([]string{"Date", "Revenue"},
				[]string{"2024-01-01", "-12.25"},
				[]string{"2024-01-02", "1.5e3"},
			),
			expected: TimeSeries{
				{Timestamp: day(2024, 1, 1), Value: -12.25},
				{Timestamp: day(2024, 1, 2), Value: 1500},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := ValidateAndNormalize(td.raw)
			require.NoError(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestValidateAndNormalizeErrors(t *testing.T) {
	testData := map[string]struct {
		raw      *sheet.RecordSet
		sentinel error
		expected *ValidationError
	}{
		"nil upload": {
			raw:      nil,
			sentinel: ErrMissingColumns,
			expected: &ValidationError{Kind: KindMissingColumns, Columns: []string{"Date", "Revenue"}},
		},
		"missing revenue": {
			raw:      recordSet([]string{"Date", "Sales"}, []string{"2024-01-01", "1"}),
			sentinel: ErrMissingColumns,
			expected: &ValidationError{Kind: KindMissingColumns, Columns: []string{"Revenue"}},
		},
		"lowercase names": {
			raw:      recordSet([]string{"date", "revenue"}, []string{"2024-01-01", "1"}),
			sentinel: ErrMissingColumns,
			expected: &ValidationError{Kind: KindMissingColumns, Columns: []string{"Date", "Revenue"}},
		},
		"not available revenue": {
			raw: recordSet([]string{"Date", "Revenue"},
				[]string{"2024-01-01", "1"},
				[]string{"2024-01-02", "N/A"},
			),
			sentinel: ErrMalformedData,
			expected: &ValidationError{Kind: KindMalformedData, Row: 3, Column: "Revenue", Value: "N/A", Err: errNotANumber},
		},
		"empty revenue": {
			raw:      recordSet([]string{"Date", "Revenue"}, []string{"2024-01-01", " "}),
			sentinel: ErrMalformedData,
			expected: &ValidationError{Kind: KindMalformedData, Row: 2, Column: "Revenue", Value: " ", Err: errEmptyCell},
		},
		"text date": {
			raw:      recordSet([]string{"Date", "Revenue"}, []string{"yesterday", "1"}),
			sentinel: ErrMalformedData,
			expected: &ValidationError{Kind: KindMalformedData, Row: 2, Column: "Date", Value: "yesterday", Err: errUnknownDate},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := ValidateAndNormalize(td.raw)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, td.sentinel)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, td.expected, vErr)
			assert.True(t, IsValidationError(err))
			assert.False(t, IsModelError(err))
		})
	}
}

func TestParseDate(t *testing.T) {
	testData := map[string]struct {
		val      string
		expected time.Time
	}{
		"iso":              {"2024-03-05", day(2024, 3, 5)},
		"iso with space":   {" 2024-03-05 ", day(2024, 3, 5)},
		"datetime":         {"2024-03-05 13:45:00", day(2024, 3, 5)},
		"rfc3339":          {"2024-03-05T23:30:00-05:00", day(2024, 3, 5)},
		"slashes":          {"2024/03/05", day(2024, 3, 5)},
		"us padded":        {"03/05/2024", day(2024, 3, 5)},
		"us short":         {"3/5/2024", day(2024, 3, 5)},
		"compact":          {"20240305", day(2024, 3, 5)},
		"month name":       {"Mar 5, 2024", day(2024, 3, 5)},
		"long month name":  {"March 5, 2024", day(2024, 3, 5)},
		"day first":        {"5 Mar 2024", day(2024, 3, 5)},
		"excel serial":     {"45292", day(2024, 1, 1)},
		"excel fractional": {"45292.75", day(2024, 1, 1)},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := ParseDate(td.val)
			require.NoError(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestParseDateErrors(t *testing.T) {
	testData := map[string]struct {
		val string
		err error
	}{
		"empty":        {"", errEmptyCell},
		"text":         {"soon", errUnknownDate},
		"negative":     {"-5", errOutOfRange},
		"huge serial":  {"99999999", errOutOfRange},
		"invalid date": {"2024-02-30", errUnknownDate},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDate(td.val)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestParseRevenue(t *testing.T) {
	testData := map[string]struct {
		val      string
		expected float64
		err      error
	}{
		"integer":   {val: "1200", expected: 1200},
		"decimal":   {val: "1200.10", expected: 1200.10},
		"padded":    {val: "  7.5 ", expected: 7.5},
		"empty":     {val: "", err: errEmptyCell},
		"na":        {val: "N/A", err: errNotANumber},
		"thousands": {val: "1,200", err: errNotANumber},
		"overflow":  {val: "1e400", err: errOutOfRange},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := ParseRevenue(td.val)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, td.expected, res, 1e-9)
		})
	}
}
