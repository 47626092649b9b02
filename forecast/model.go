package forecast

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/revforecast/feature"
	"github.com/aouyang1/revforecast/forecast/options"
	"github.com/aouyang1/revforecast/forecast/util"
	"github.com/goccy/go-json"
)

// Model is the serializeable form of a trained forecast. Resolved holds the changepoints,
// seasonalities and holidays chosen for the training window so inference regenerates the same
// features.
type Model struct {
	TrainStartTime time.Time        `json:"train_start_time"`
	TrainEndTime   time.Time        `json:"train_end_time"`
	Options        *options.Options `json:"options"`
	Resolved       options.Resolved `json:"resolved"`
	Scores         *Scores          `json:"scores"`
	Weights        Weights          `json:"weights"`
}

// TablePrint writes the training window, options, resolved terms, scores and weights
func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	lvl0 := prefix + util.IndentExpand(indent, 0)
	lvl1 := prefix + util.IndentExpand(indent, 1)

	if _, err := fmt.Fprintf(w, "%sForecast:\n%sTraining Window: %s to %s\n",
		lvl0, lvl1, m.TrainStartTime.Format(time.DateOnly), m.TrainEndTime.Format(time.DateOnly)); err != nil {
		return err
	}
	if m.Options != nil {
		if err := m.Options.TablePrint(w, prefix, indent, 1); err != nil {
			return err
		}
	}
	if err := m.Resolved.TablePrint(w, prefix, indent, 1); err != nil {
		return err
	}
	if m.Scores != nil {
		if _, err := fmt.Fprintf(w, "%sScores: MAPE %.2f%%, MSE %.3f, R2 %.3f\n",
			lvl1, m.Scores.MAPE*100, m.Scores.MSE, m.Scores.R2); err != nil {
			return err
		}
	}
	return m.Weights.tablePrint(w, prefix, indent, 1)
}

// Weights are the fitted coefficients paired with their features in design matrix order
type Weights struct {
	Coef []FeatureWeight `json:"coefficients"`
}

// Split returns the features and their coefficients as parallel slices
func (w Weights) Split() ([]feature.Feature, []float64, error) {
	feats := make([]feature.Feature, len(w.Coef))
	coef := make([]float64, len(w.Coef))
	for i := range w.Coef {
		feat, err := w.Coef[i].ToFeature()
		if err != nil {
			return nil, nil, fmt.Errorf("weight %d, %w", i, err)
		}
		feats[i] = feat
		coef[i] = w.Coef[i].Value
	}
	return feats, coef, nil
}

// tablePrint lists the non-zero weights followed by how many were shrunk to zero
func (w Weights) tablePrint(wr io.Writer, prefix, indent string, indentGrowth int) error {
	lvl := prefix + util.IndentExpand(indent, indentGrowth)
	if len(w.Coef) == 0 {
		_, err := fmt.Fprintf(wr, "%sWeights: None\n", lvl)
		return err
	}
	if _, err := fmt.Fprintf(wr, "%sWeights:\n", lvl); err != nil {
		return err
	}

	rowPrefix := prefix + util.IndentExpand(indent, indentGrowth+1)
	tbl := tabwriter.NewWriter(wr, 0, 0, 2, ' ', 0)
	var pruned int
	for _, fw := range w.Coef {
		if fw.Value == 0 {
			pruned++
			continue
		}
		labels, err := json.Marshal(fw.Labels)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(tbl, "%s%s\t%s\t%.3f\n", rowPrefix, fw.Type, labels, fw.Value); err != nil {
			return err
		}
	}
	if err := tbl.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(wr, "%sPruned: %d of %d\n", rowPrefix, pruned, len(w.Coef))
	return err
}

// FeatureWeight is a coefficient with the feature type and labels needed to rebuild its feature
type FeatureWeight struct {
	Labels map[string]string   `json:"labels"`
	Type   feature.FeatureType `json:"type"`
	Value  float64             `json:"value"`
}

func NewFeatureWeight(f feature.Feature, val float64) FeatureWeight {
	return FeatureWeight{
		Labels: f.Decode(),
		Type:   f.Type(),
		Value:  val,
	}
}

func (fw *FeatureWeight) ToFeature() (feature.Feature, error) {
	if fw == nil {
		return nil, feature.ErrUnknownFeatureType
	}
	return feature.FromLabels(fw.Type, fw.Labels)
}
