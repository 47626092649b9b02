// Package server exposes the forecasting pipeline as an upload form, a results page and a JSON
// API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aouyang1/revforecast/config"
	"github.com/google/uuid"
)

type ctxKey int

const requestIDKey ctxKey = 0

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a server for the handler. A halted server answers every route except the health
// check with the missing secret message.
func New(cfg config.ServerConfig, h *Handler, halted bool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      Routes(h, halted, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return &Server{
		httpServer: httpServer,
		logger:     logger,
	}
}

// Routes registers every endpoint wrapped by request logging
func Routes(h *Handler, halted bool, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("POST /forecast", h.HandleForecast)
	mux.HandleFunc("POST /api/forecast", h.HandleAPIForecast)
	mux.HandleFunc("GET /health", h.HandleHealth)

	var handler http.Handler = mux
	if halted {
		handler = haltedMiddleware(h)
	}
	return loggingMiddleware(logger, handler)
}

func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// requestID returns the id assigned to the request by the logging middleware
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"upload_id", id,
		)
	})
}

func haltedMiddleware(h *Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			writeJSON(w, http.StatusOK, healthResponse{Status: statusHalted, Error: config.MissingSecretMessage})
			return
		}
		h.renderHalted(w, r)
	})
}
