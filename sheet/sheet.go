// Package sheet reads uploaded spreadsheets into untyped records keyed by column header.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrEmptySheet        = errors.New("spreadsheet has no header row")
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// zip local file header, xlsx files are zip archives
var zipSignature = []byte("PK\x03\x04")

// Record is a single data row keyed by column header
type Record map[string]string

// RecordSet is the untyped content of an uploaded spreadsheet. Header keeps the source column
// order and Rows keep the source row order.
type RecordSet struct {
	Header []string
	Rows   []Record
}

func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Head returns up to the first n rows unmodified
func (rs *RecordSet) Head(n int) []Record {
	if rs == nil || n <= 0 {
		return nil
	}
	return rs.Rows[:min(n, len(rs.Rows))]
}

func (rs *RecordSet) HasColumn(name string) bool {
	if rs == nil {
		return false
	}
	for _, h := range rs.Header {
		if h == name {
			return true
		}
	}
	return false
}

// DetectFormat picks the format from the file extension and falls back to sniffing the zip
// signature of the content.
func DetectFormat(filename string, head []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xls":
		return "", fmt.Errorf("legacy .xls workbooks, %w", ErrUnsupportedFormat)
	}
	if bytes.HasPrefix(head, zipSignature) {
		return FormatXLSX, nil
	}
	if len(head) > 0 && !bytes.ContainsRune(head, 0) {
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%q, %w", filename, ErrUnsupportedFormat)
}

// Read parses an uploaded spreadsheet. The first sheet of a workbook is used and the first row
// is the header in every format.
func Read(r io.Reader, filename string) (*RecordSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read upload, %w", err)
	}
	format, err := DetectFormat(filename, data[:min(len(data), 512)])
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return ReadXLSX(bytes.NewReader(data))
	default:
		return ReadCSV(bytes.NewReader(data))
	}
}

// fromRows converts the header and data rows into a RecordSet. Empty header cells are named
// "Unnamed: <index>" and repeated headers get a ".<n>" suffix. Blank rows are skipped.
func fromRows(rows [][]string) (*RecordSet, error) {
	if len(rows) == 0 || isBlank(rows[0]) {
		return nil, ErrEmptySheet
	}

	header := make([]string, len(rows[0]))
	seen := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		if cnt, exists := seen[h]; exists {
			seen[h] = cnt + 1
			h = h + "." + strconv.Itoa(cnt+1)
		} else {
			seen[h] = 0
		}
		header[i] = h
	}

	rs := &RecordSet{
		Header: header,
		Rows:   make([]Record, 0, len(rows)-1),
	}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec := make(Record, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = row[i]
				continue
			}
			rec[h] = ""
		}
		rs.Rows = append(rs.Rows, rec)
	}
	return rs, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
