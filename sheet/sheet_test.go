package sheet

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	testData := map[string]struct {
		filename string
		head     []byte
		expected Format
		err      error
	}{
		"xlsx extension":  {filename: "sales.xlsx", expected: FormatXLSX},
		"upper extension": {filename: "SALES.XLSX", expected: FormatXLSX},
		"csv extension":   {filename: "sales.csv", expected: FormatCSV},
		"legacy xls":      {filename: "sales.xls", err: ErrUnsupportedFormat},
		"sniff zip":       {filename: "upload", head: []byte("PK\x03\x04rest"), expected: FormatXLSX},
		"sniff text":      {filename: "upload", head: []byte("Date,Revenue\n"), expected: FormatCSV},
		"binary":          {filename: "upload.bin", head: []byte{0x00, 0x01, 0x02}, err: ErrUnsupportedFormat},
		"empty no ext":    {filename: "upload", err: ErrUnsupportedFormat},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := DetectFormat(td.filename, td.head)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestReadCSV(t *testing.T) {
	testData := map[string]struct {
		input  string
		header []string
		rows   []Record
		err    error
	}{
		"basic": {
			input:  "Date,Revenue,Region\n2024-01-01,100,EU\n2024-01-02,110.5,US\n",
			header: []string{"Date", "Revenue", "Region"},
			rows: []Record{
				{"Date": "2024-01-01", "Revenue": "100", "Region": "EU"},
				{"Date": "2024-01-02", "Revenue": "110.5", "Region": "US"},
			},
		},
		"bom and blank lines": {
			input:  "\ufeffDate,Revenue\n\n2024-01-01,100\n,\n",
			header: []string{"Date", "Revenue"},
			rows: []Record{
				{"Date": "2024-01-01", "Revenue": "100"},
			},
		},
		"ragged rows": {
			input:  "Date,Revenue\n2024-01-01\n",
			header: []string{"Date", "Revenue"},
			rows: []Record{
				{"Date": "2024-01-01", "Revenue": ""},
			},
		},
		"duplicate and empty headers": {
			input:  "Date,,Date\n1,2,3\n",
			header: []string{"Date", "Unnamed: 1", "Date.1"},
			rows: []Record{
				{"Date": "1", "Unnamed: 1": "2", "Date.1": "3"},
			},
		},
		"header only": {
			input:  "Date,Revenue\n",
			header: []string{"Date", "Revenue"},
			rows:   []Record{},
		},
		"empty": {
			input: "",
			err:   ErrEmptySheet,
		},
		"bad quoting": {
			input: "Date,Revenue\n\"2024-01-01,100\n",
			err:   ErrUnsupportedFormat,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			rs, err := ReadCSV(strings.NewReader(td.input))
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.header, rs.Header)
			assert.Equal(t, td.rows, rs.Rows)
		})
	}
}

func TestReadXLSX(t *testing.T) {
	data := newWorkbook(t, [][]any{
		{"Date", "Revenue", "Notes"},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1200.5, "first"},
		{"2024-01-02", 1300, nil},
	})

	rs, err := Read(bytes.NewReader(data), "upload.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Revenue", "Notes"}, rs.Header)
	require.Equal(t, 2, rs.Len())

	serial, err := strconv.ParseFloat(rs.Rows[0]["Date"], 64)
	require.NoError(t, err)
	assert.InDelta(t, 45292, serial, 1e-9)
	assert.Equal(t, "1200.5", rs.Rows[0]["Revenue"])
	assert.Equal(t, "first", rs.Rows[0]["Notes"])

	assert.Equal(t, "2024-01-02", rs.Rows[1]["Date"])
	assert.Equal(t, "1300", rs.Rows[1]["Revenue"])
	assert.Equal(t, "", rs.Rows[1]["Notes"])

	// sniffed without an extension
	rs, err = Read(bytes.NewReader(data), "upload")
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Len())
}

func TestReadXLSXErrors(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("not a workbook"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	empty := newWorkbook(t, nil)
	_, err = Read(bytes.NewReader(empty), "empty.xlsx")
	assert.ErrorIs(t, err, ErrEmptySheet)
}

func TestRecordSetHead(t *testing.T) {
	rs := &RecordSet{
		Header: []string{"Date"},
		Rows:   []Record{{"Date": "1"}, {"Date": "2"}, {"Date": "3"}},
	}

	testData := map[string]struct {
		n        int
		expected []Record
	}{
		"zero": {n: 0, expected: nil},
		"two":  {n: 2, expected: []Record{{"Date": "1"}, {"Date": "2"}}},
		"more": {n: 10, expected: rs.Rows},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, rs.Head(td.n))
		})
	}

	assert.True(t, rs.HasColumn("Date"))
	assert.False(t, rs.HasColumn("date"))

	var nilRS *RecordSet
	assert.Nil(t, nilRS.Head(5))
	assert.Equal(t, 0, nilRS.Len())
	assert.False(t, nilRS.HasColumn("Date"))
}
