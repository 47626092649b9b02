package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aouyang1/revforecast/config"
	"github.com/aouyang1/revforecast/pipeline"
	"github.com/aouyang1/revforecast/sheet"
	"github.com/goccy/go-json"
)

const (
	uploadField = "file"

	// multipart bytes held in memory before spilling to disk
	maxMemoryBytes = 8 << 20

	statusOK     = "ok"
	statusHalted = "halted"

	infoMessage           = "Please upload an Excel file with columns Date and Revenue."
	missingColumnsMessage = `The uploaded file must contain "Date" and "Revenue" columns.`
)

var (
	errNoFile    = errors.New("no file uploaded")
	errBadUpload = errors.New("unreadable upload")
)

//go:embed templates/*.html
var templateFS embed.FS

// Settings holds the per upload limits and display sizes
type Settings struct {
	HorizonDays    int
	TailCount      int
	PreviewRows    int
	MaxUploadBytes int64
}

func NewSettings(cfg *config.Config) Settings {
	return Settings{
		HorizonDays:    cfg.Model.HorizonDays,
		TailCount:      cfg.Model.TailCount,
		PreviewRows:    cfg.Model.PreviewRows,
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
	}
}

type Handler struct {
	pipeline *pipeline.Pipeline
	settings Settings
	tmpl     *template.Template
	logger   *slog.Logger
}

func NewHandler(p *pipeline.Pipeline, settings Settings, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("unable to parse templates, %w", err)
	}
	return &Handler{
		pipeline: p,
		settings: settings,
		tmpl:     tmpl,
		logger:   logger,
	}, nil
}

// upload is a processed spreadsheet along with every pipeline output
type upload struct {
	id       string
	filename string
	raw      *sheet.RecordSet
	result   *pipeline.Result
}

// process reads the uploaded file and runs it through the pipeline
func (h *Handler) process(w http.ResponseWriter, r *http.Request) (*upload, error) {
	up := &upload{id: requestID(r.Context())}

	r.Body = http.MaxBytesReader(w, r.Body, h.settings.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		if isTooLarge(err) {
			return up, err
		}
		return up, fmt.Errorf("%w, %w", errBadUpload, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return up, errNoFile
		}
		return up, fmt.Errorf("%w, %w", errBadUpload, err)
	}
	defer file.Close()
	up.filename = header.Filename

	up.raw, err = sheet.Read(file, header.Filename)
	if err != nil {
		return up, err
	}

	up.result, err = h.pipeline.Run(r.Context(), up.raw, h.settings.HorizonDays, h.settings.TailCount)
	if err != nil {
		return up, err
	}
	h.logger.Info("forecast complete",
		"upload_id", up.id,
		"filename", up.filename,
		"rows", up.raw.Len(),
		"periods", up.result.Forecast.HistoryLen,
		"horizon_days", h.settings.HorizonDays,
	)
	return up, nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

func errorStatus(err error) int {
	switch {
	case isTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case pipeline.IsValidationError(err),
		errors.Is(err, sheet.ErrUnsupportedFormat),
		errors.Is(err, sheet.ErrEmptySheet),
		errors.Is(err, errNoFile),
		errors.Is(err, errBadUpload):
		return http.StatusBadRequest
	case pipeline.IsModelError(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *Handler) errorMessage(err error) string {
	switch {
	case isTooLarge(err):
		return fmt.Sprintf("The uploaded file is larger than the %d MB limit.", h.settings.MaxUploadBytes>>20)
	case errors.Is(err, pipeline.ErrMissingColumns):
		return missingColumnsMessage
	case errors.Is(err, errNoFile):
		return infoMessage
	}
	return "An error occurred: " + err.Error()
}

func errorKind(err error) string {
	var vErr *pipeline.ValidationError
	if errors.As(err, &vErr) {
		return string(vErr.Kind)
	}
	var mErr *pipeline.ModelError
	if errors.As(err, &mErr) {
		return string(mErr.Kind)
	}
	return ""
}

func (h *Handler) logFailure(ctx context.Context, up *upload, err error, status int) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "forecast failed",
		"upload_id", up.id,
		"filename", up.filename,
		"status", status,
		"error", err,
	)
}

// HandleIndex GET / renders the upload form
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, pageData{
		Info:        infoMessage,
		ShowForm:    true,
		HorizonDays: h.settings.HorizonDays,
	})
}

// HandleForecast POST /forecast renders the results page for an uploaded spreadsheet
func (h *Handler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	up, err := h.process(w, r)
	if err != nil {
		status := errorStatus(err)
		h.logFailure(r.Context(), up, err, status)
		data := pageData{
			Error:       h.errorMessage(err),
			ShowForm:    true,
			UploadID:    up.id,
			HorizonDays: h.settings.HorizonDays,
		}
		if up.raw != nil {
			data.Preview = newPreviewTable(up.raw, h.settings.PreviewRows)
		}
		h.render(w, status, data)
		return
	}

	data, err := h.resultsPage(up)
	if err != nil {
		h.logFailure(r.Context(), up, err, http.StatusInternalServerError)
		h.render(w, http.StatusInternalServerError, pageData{
			Error:    h.errorMessage(err),
			ShowForm: true,
			UploadID: up.id,
		})
		return
	}
	h.render(w, http.StatusOK, data)
}

// HandleAPIForecast POST /api/forecast returns the pipeline outputs as JSON
func (h *Handler) HandleAPIForecast(w http.ResponseWriter, r *http.Request) {
	up, err := h.process(w, r)
	if err != nil {
		status := errorStatus(err)
		h.logFailure(r.Context(), up, err, status)
		writeJSON(w, status, errorResponse{
			UploadID: up.id,
			Kind:     errorKind(err),
			Error:    h.errorMessage(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, newForecastResponse(up, h.settings.PreviewRows))
}

// HandleHealth GET /health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: statusOK})
}

func (h *Handler) renderHalted(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			UploadID: requestID(r.Context()),
			Error:    config.MissingSecretMessage,
		})
		return
	}
	h.render(w, http.StatusServiceUnavailable, pageData{Error: config.MissingSecretMessage, Halted: true})
}

// render writes the page with status only once the template executed without error
func (h *Handler) render(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "page.html", data); err != nil {
		h.logger.Error("unable to render page", "error", err)
		http.Error(w, "unable to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
