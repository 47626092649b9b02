package forecaster

import (
	"fmt"
	"io"

	"github.com/aouyang1/revforecast/forecast"
)

// Model is the serializeable form of a fitted Forecaster. Uncertainty is nil when the band is
// the constant ConstantBand.
type Model struct {
	Options      *Options        `json:"options"`
	Series       forecast.Model  `json:"series"`
	Uncertainty  *forecast.Model `json:"uncertainty,omitempty"`
	ConstantBand float64         `json:"constant_band"`
}

// TablePrint writes a human readable summary of the series and uncertainty models
func (m Model) TablePrint(w io.Writer) error {
	if m.Options != nil {
		if _, err := fmt.Fprintf(w, "Interval Width: %.2f\n\n", m.Options.IntervalWidth); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "Series:"); err != nil {
		return err
	}
	if err := m.Series.TablePrint(w, "  ", "  "); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "Uncertainty:"); err != nil {
		return err
	}
	if m.Uncertainty == nil {
		_, err := fmt.Fprintf(w, "  Constant Band: %.3f\n\n", m.ConstantBand)
		return err
	}
	if err := m.Uncertainty.TablePrint(w, "  ", "  "); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
