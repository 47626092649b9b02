package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind names the category of a pipeline failure
type ErrorKind string

const (
	KindMissingColumns   ErrorKind = "MissingColumns"
	KindMalformedData    ErrorKind = "MalformedData"
	KindInsufficientData ErrorKind = "InsufficientData"
	KindFitFailure       ErrorKind = "FitFailure"
)

var (
	ErrMissingColumns   = errors.New("missing required columns")
	ErrMalformedData    = errors.New("malformed data")
	ErrInsufficientData = errors.New("insufficient data")
	ErrFitFailure       = errors.New("fit failure")

	ErrInvalidHorizon  = errors.New("horizon must not be negative")
	ErrInvalidForecast = errors.New("model returned an invalid forecast")
	ErrNonFiniteValue  = errors.New("non-finite value")
	ErrNoModel         = errors.New("no model configured")
)

func kindSentinel(kind ErrorKind) error {
	switch kind {
	case KindMissingColumns:
		return ErrMissingColumns
	case KindMalformedData:
		return ErrMalformedData
	case KindInsufficientData:
		return ErrInsufficientData
	case KindFitFailure:
		return ErrFitFailure
	}
	return nil
}

// ValidationError reports an upload that does not have the expected shape or content. Row is
// the spreadsheet row number where the header is row 1.
type ValidationError struct {
	Kind    ErrorKind
	Columns []string
	Row     int
	Column  string
	Value   string
	Err     error
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMissingColumns:
		return fmt.Sprintf("the uploaded file must contain %q and %q columns, missing %s",
			ColumnDate, ColumnRevenue, strings.Join(e.Columns, ", "))
	case KindMalformedData:
		msg := fmt.Sprintf("row %d column %q has malformed value %q", e.Row, e.Column, e.Value)
		if e.Err != nil {
			msg += ", " + e.Err.Error()
		}
		return msg
	}
	return string(e.Kind)
}

func (e *ValidationError) Is(target error) bool {
	return target == kindSentinel(e.Kind)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ModelError reports that a forecast could not be produced from a valid series
type ModelError struct {
	Kind ErrorKind
	Err  error
}

func (e *ModelError) Error() string {
	switch e.Kind {
	case KindInsufficientData:
		if e.Err != nil {
			return "insufficient data, " + e.Err.Error()
		}
		return "insufficient data"
	case KindFitFailure:
		if e.Err != nil {
			return "unable to fit model, " + e.Err.Error()
		}
		return "unable to fit model"
	}
	return string(e.Kind)
}

func (e *ModelError) Is(target error) bool {
	return target == kindSentinel(e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func fitFailure(err error) error {
	var modelErr *ModelError
	if errors.As(err, &modelErr) {
		return modelErr
	}
	return &ModelError{Kind: KindFitFailure, Err: err}
}
