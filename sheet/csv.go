package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV reads comma separated records where the first row is the header
func ReadCSV(r io.Reader) (*RecordSet, error) {
	reader := csv.NewReader(r)
	// allow ragged rows, missing trailing cells are treated as empty
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse csv, %w, %w", err, ErrUnsupportedFormat)
	}
	return fromRows(rows)
}
