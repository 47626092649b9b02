package server

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	forecaster "github.com/aouyang1/revforecast"
	"github.com/aouyang1/revforecast/pipeline"
	"github.com/aouyang1/revforecast/sheet"
	"github.com/aouyang1/revforecast/timedataset"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/shopspring/decimal"
)

const missingAmount = "-"

var templateFuncs = template.FuncMap{
	"amount": formatAmount,
}

type pageData struct {
	Info     string
	Error    string
	ShowForm bool
	Halted   bool

	UploadID    string
	Filename    string
	HorizonDays int

	Preview *previewTable
	Tail    []tailRow
	Scores  *scoreView
	Summary string

	// Charts is a complete html document embedded with iframe srcdoc
	Charts string
}

type previewTable struct {
	Header []string
	Rows   [][]string
}

func newPreviewTable(raw *sheet.RecordSet, n int) *previewTable {
	pt := &previewTable{Header: raw.Header}
	for _, rec := range raw.Head(n) {
		row := make([]string, len(raw.Header))
		for i, h := range raw.Header {
			row[i] = rec[h]
		}
		pt.Rows = append(pt.Rows, row)
	}
	return pt
}

type tailRow struct {
	Date       string
	Predicted  float64
	LowerBound float64
	UpperBound float64
}

type scoreView struct {
	MSE  string
	MAPE string
	R2   string
}

// formatAmount rounds to cents half away from zero
func formatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missingAmount
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func roundAmount(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func newScoreView(s pipeline.Scores) *scoreView {
	view := &scoreView{
		MSE:  formatAmount(s.MSE),
		MAPE: missingAmount,
		R2:   missingAmount,
	}
	if !math.IsNaN(s.MAPE) && !math.IsInf(s.MAPE, 0) {
		view.MAPE = decimal.NewFromFloat(s.MAPE*100).StringFixed(2) + "%"
	}
	if !math.IsNaN(s.R2) && !math.IsInf(s.R2, 0) {
		view.R2 = decimal.NewFromFloat(s.R2).StringFixed(3)
	}
	return view
}

func (h *Handler) resultsPage(up *upload) (pageData, error) {
	res := up.result
	charts, err := renderCharts(res)
	if err != nil {
		return pageData{}, err
	}

	tail := make([]tailRow, len(res.Tail))
	for i, pt := range res.Tail {
		tail[i] = tailRow{
			Date:       pt.Timestamp.Format(time.DateOnly),
			Predicted:  pt.Predicted,
			LowerBound: pt.LowerBound,
			UpperBound: pt.UpperBound,
		}
	}
	return pageData{
		ShowForm:    true,
		UploadID:    up.id,
		Filename:    up.filename,
		HorizonDays: h.settings.HorizonDays,
		Preview:     newPreviewTable(up.raw, h.settings.PreviewRows),
		Tail:        tail,
		Scores:      newScoreView(res.Forecast.Scores),
		Summary:     res.Forecast.Summary,
		Charts:      charts,
	}, nil
}

func componentTitle(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// renderCharts draws the forecast against the actual revenue and the forecast components
func renderCharts(res *pipeline.Result) (string, error) {
	fc := res.Forecast
	t := fc.Timestamps()

	st, sy := res.Series.Split()
	history, err := timedataset.NewAveragedDataset(st, sy)
	if err != nil {
		return "", fmt.Errorf("unable to align history, %w", err)
	}

	fitRes := &forecaster.Results{
		T:        t,
		Forecast: make([]float64, len(fc.Points)),
		Upper:    make([]float64, len(fc.Points)),
		Lower:    make([]float64, len(fc.Points)),
	}
	for i, pt := range fc.Points {
		fitRes.Forecast[i] = pt.Predicted
		fitRes.Upper[i] = pt.UpperBound
		fitRes.Lower[i] = pt.LowerBound
	}

	names := fc.ComponentNames()
	titles := make([]string, len(names))
	values := make([][]float64, len(names))
	for i, name := range names {
		titles[i] = componentTitle(name)
		values[i] = fc.Components[name]
	}

	page := components.NewPage()
	page.AddCharts(
		forecaster.LineForecaster(t, history.Y, fitRes),
		forecaster.LineTSeries("Forecast Components", titles, t, values),
	)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return "", fmt.Errorf("unable to render charts, %w", err)
	}
	return buf.String(), nil
}

type pointResponse struct {
	Date       string          `json:"date"`
	Predicted  decimal.Decimal `json:"predicted"`
	LowerBound decimal.Decimal `json:"lower_bound"`
	UpperBound decimal.Decimal `json:"upper_bound"`
}

func newPointResponses(points []pipeline.ForecastPoint) []pointResponse {
	res := make([]pointResponse, len(points))
	for i, pt := range points {
		res[i] = pointResponse{
			Date:       pt.Timestamp.Format(time.DateOnly),
			Predicted:  roundAmount(pt.Predicted),
			LowerBound: roundAmount(pt.LowerBound),
			UpperBound: roundAmount(pt.UpperBound),
		}
	}
	return res
}

type forecastResponse struct {
	UploadID   string               `json:"upload_id"`
	Filename   string               `json:"filename"`
	Preview    []sheet.Record       `json:"preview"`
	Tail       []pointResponse      `json:"tail"`
	Forecast   []pointResponse      `json:"forecast"`
	Components map[string][]float64 `json:"components"`
	Scores     pipeline.Scores      `json:"scores"`
	Summary    string               `json:"summary"`
}

func newForecastResponse(up *upload, previewRows int) forecastResponse {
	fc := up.result.Forecast
	preview := up.raw.Head(previewRows)
	if preview == nil {
		preview = []sheet.Record{}
	}
	return forecastResponse{
		UploadID:   up.id,
		Filename:   up.filename,
		Preview:    preview,
		Tail:       newPointResponses(up.result.Tail),
		Forecast:   newPointResponses(fc.Points),
		Components: fc.Components,
		Scores:     fc.Scores,
		Summary:    fc.Summary,
	}
}

type errorResponse struct {
	UploadID string `json:"upload_id,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Error    string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
