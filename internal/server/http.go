package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/export"
	"github.com/joseph-ayodele/docscan/internal/services/scan"
	"github.com/joseph-ayodele/docscan/internal/utils"
)

const maxMultipartMemory = 32 << 20

// HTTPHandler is the REST surface over the same use cases as the gRPC service.
type HTTPHandler struct {
	scans    *scan.Service
	exporter *export.Service
	gatherer prometheus.Gatherer
	timeout  time.Duration
	logger   *slog.Logger
}

type HTTPOption func(*HTTPHandler)

// WithGatherer exposes /metrics.
func WithGatherer(g prometheus.Gatherer) HTTPOption {
	return func(h *HTTPHandler) { h.gatherer = g }
}

func WithRequestTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPHandler) { h.timeout = d }
}

func NewHTTPHandler(scans *scan.Service, exporter *export.Service, logger *slog.Logger, opts ...HTTPOption) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &HTTPHandler{scans: scans, exporter: exporter, timeout: 2 * time.Minute, logger: logger}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Router returns the chi router with every route mounted.
func (h *HTTPHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(h.timeout))
		r.Post("/scan", h.handleScan)
		r.Get("/records", h.handleListRecords)
		r.Get("/records/{id}", h.handleGetRecord)
		r.Get("/export.xlsx", h.handleExport)
	})
	return r
}

func (h *HTTPHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("http.request",
			"req_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func readPart(r *http.Request, name string) ([]byte, string, error) {
	f, hdr, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", common.ErrInvalidInput, name, err)
	}
	defer func(f multipart.File) { _ = f.Close() }(f)
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", name, err)
	}
	return b, hdr.Filename, nil
}

func (h *HTTPHandler) handleScan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, fmt.Errorf("%w: expected multipart/form-data: %v", common.ErrInvalidInput, err))
		return
	}
	front, name, err := readPart(r, "front")
	if err != nil {
		writeError(w, err)
		return
	}
	back, _, err := readPart(r, "back")
	if err != nil {
		writeError(w, err)
		return
	}
	force, _ := strconv.ParseBool(r.FormValue("force"))

	res, err := h.scans.Scan(r.Context(), scan.Request{Name: name, Front: front, Back: back, Force: force})
	if err != nil {
		h.logger.Warn("http.scan.failed", "req_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, err)
		return
	}
	recs := make([]map[string]any, 0, len(res.Records))
	for _, rec := range res.Records {
		recs = append(recs, utils.RecordMap(rec))
	}
	body := map[string]any{
		"records":      recs,
		"content_hash": res.ContentHash,
		"deduplicated": res.Deduplicated,
	}
	if res.BackErr != nil {
		body["back_error"] = res.BackErr.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *HTTPHandler) filter(r *http.Request) (string, string, string, int, error) {
	q := r.URL.Query()
	limit := 0
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			return "", "", "", 0, fmt.Errorf("%w: limit must be an integer", common.ErrInvalidInput)
		}
		limit = n
	}
	return q.Get("document_type"), q.Get("from_date"), q.Get("to_date"), limit, nil
}

func (h *HTTPHandler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	dt, from, to, limit, err := h.filter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := utils.ParseFilter(dt, from, to, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	recs, err := h.scans.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, utils.RecordMap(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": out})
}

func (h *HTTPHandler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.scans.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, utils.RecordMap(*rec))
}

func (h *HTTPHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "export is not configured"})
		return
	}
	dt, from, to, limit, err := h.filter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := utils.ParseFilter(dt, from, to, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	xlsx, err := h.exporter.ExportXLSX(r.Context(), f)
	if err != nil {
		h.logger.Error("export.xlsx.failed", "error", err)
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}

// statusOf maps a domain error onto an HTTP status.
func statusOf(err error) int {
	switch {
	case common.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrAllProvidersExhausted):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
