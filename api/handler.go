// Package api exposes transliteration and OCR over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/scriptbridge/scriptbridge-api/internal/db"
	"github.com/scriptbridge/scriptbridge-api/internal/models"
	"github.com/scriptbridge/scriptbridge-api/internal/ocr"
	"github.com/scriptbridge/scriptbridge-api/internal/translit"
)

const (
	DefaultMaxUploadSize = 10 << 20 // 10MB
	Version              = "1.0.0"

	maxHistoryPage = 100000
)

// Options wires the handler. Journal and Metrics may be nil.
type Options struct {
	Translit       *translit.Service
	OCR            *ocr.Service
	Journal        db.Journal
	Metrics        http.Handler
	MetricsPath    string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Handler serves the HTTP API.
type Handler struct {
	translit    *translit.Service
	ocr         *ocr.Service
	journal     db.Journal
	metrics     http.Handler
	metricsPath string
	maxUpload   int64
	log         *slog.Logger
	started     time.Time
}

// NewHandler creates a new API handler.
func NewHandler(opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadSize
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{
		translit:    opts.Translit,
		ocr:         opts.OCR,
		journal:     opts.Journal,
		metrics:     opts.Metrics,
		metricsPath: opts.MetricsPath,
		maxUpload:   opts.MaxUploadBytes,
		log:         opts.Logger,
		started:     time.Now(),
	}
}

// SetupRoutes configures the HTTP routes behind CORS, request id and access
// logging.
func (h *Handler) SetupRoutes() http.Handler {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, loggingMiddleware(h.log))

	router.HandleFunc("/", h.Root).Methods("GET")
	router.HandleFunc("/health", h.Health).Methods("GET")

	router.HandleFunc("/scripts", h.Scripts).Methods("GET")
	router.HandleFunc("/getScripts", h.Scripts).Methods("GET")
	router.HandleFunc("/transliterate", h.Transliterate).Methods("POST")

	router.HandleFunc("/ocr", h.OCR).Methods("POST")
	router.HandleFunc("/ocr_image", h.OCR).Methods("POST")

	router.HandleFunc("/stats", h.Stats).Methods("GET")
	router.HandleFunc("/history", h.History).Methods("GET")

	if h.metrics != nil {
		router.Handle(h.metricsPath, h.metrics).Methods("GET")
	}

	return cors.Handler(corsOptions())(router)
}

// Root returns the welcome message.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"message": "Welcome to ScriptBridge API"})
}

// Health reports static configuration; it does not probe dependencies.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	engines := map[string]string{
		"transliteration":  h.translit.EngineName(),
		"script_detection": h.translit.ResolverName(),
		"failure_policy":   h.translit.Policy(),
		"ocr":              h.ocr.EngineName(),
	}
	if fb := h.translit.FallbackName(); fb != "" {
		engines["fallback"] = fb
	}
	sendJSON(w, http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Engines: engines,
	})
}

// Scripts lists the scripts accepted by the transliteration engine.
func (h *Handler) Scripts(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, models.ScriptCatalog{SupportedScripts: h.translit.Scripts()})
}

// Stats returns journal statistics for the current month.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		sendError(w, http.StatusServiceUnavailable, "journal not enabled")
		return
	}
	stats, err := h.journal.MonthlyStats(r.Context(), time.Now())
	if err != nil {
		h.log.Error("stats query failed", slog.String("error", err.Error()))
		sendError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// History lists journal entries newest first, paginated with page and limit.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		sendError(w, http.StatusServiceUnavailable, "journal not enabled")
		return
	}

	page := 1
	limit := 50
	if p := r.URL.Query().Get("page"); p != "" {
		if val, err := strconv.Atoi(p); err == nil && val > 0 {
			page = min(val, maxHistoryPage)
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 100 {
			limit = val
		}
	}
	offset := (page - 1) * limit

	entries, total, err := h.journal.Recent(r.Context(), limit, offset)
	if err != nil {
		h.log.Error("history query failed", slog.String("error", err.Error()))
		sendError(w, http.StatusInternalServerError, "failed to get history")
		return
	}
	if entries == nil {
		entries = []db.Entry{}
	}

	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{
		"entries":     entries,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages,
	})
}

// record appends a journal entry. Failures are logged and never reach the
// client.
func (h *Handler) record(ctx context.Context, e db.Entry) {
	if h.journal == nil {
		return
	}
	if err := h.journal.Record(ctx, e); err != nil {
		h.log.Error("journal write failed",
			slog.String("kind", e.Kind),
			slog.String("request_id", RequestID(ctx)),
			slog.String("error", err.Error()),
		)
	}
}

func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// sendError sends an error response
func sendError(w http.ResponseWriter, statusCode int, message string) {
	sendJSON(w, statusCode, models.ErrorResponse{Error: message})
}
