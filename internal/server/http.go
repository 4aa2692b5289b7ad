package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/idextract/internal/common"
)

const maxBodyBytes = 4 << 20

// NewHTTPHandler mounts the JSON API:
//
//	POST /v1/extract
//	GET  /v1/jobs/{id}
//	GET  /v1/export.xlsx
//	GET  /healthz
//	GET  /metrics
//
// db may be nil, in which case /healthz only reports the process is up.
func NewHTTPHandler(svc *ExtractorService, db Pinger, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := common.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.HealthCheck(r.Context(), 2*time.Second); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(middleware.Timeout(2 * time.Minute))
		v1.Post("/extract", svc.handleExtract)
		v1.Get("/jobs/{id}", svc.handleGetJob)
		v1.Get("/export.xlsx", svc.handleExport)
	})
	return r
}

func (s *ExtractorService) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, common.NewAppError("INVALID_INPUT", "malformed JSON body", common.ErrInvalidInput))
		return
	}
	res, err := s.extract(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *ExtractorService) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.job(r.Context(), JobRequest{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *ExtractorService) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ExportRequest{
		Status:       q.Get("status"),
		DocumentType: q.Get("document_type"),
		Country:      q.Get("country"),
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, common.NewAppError("INVALID_INPUT", "limit must be a non-negative integer", common.ErrInvalidInput))
			return
		}
		req.Limit = n
	}
	xlsx, err := s.export(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors the same way ToStatus does for gRPC.
// Internal errors do not leak their message.
func writeError(w http.ResponseWriter, err error) {
	code, kind := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, common.ErrNoExtractableData):
		code, kind = http.StatusUnprocessableEntity, "no_extractable_data"
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		code, kind = http.StatusBadRequest, "bad_request"
	case errors.Is(err, common.ErrNotFound):
		code, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		code, kind = http.StatusGatewayTimeout, "timeout"
	}
	body := map[string]string{"error": kind}
	if code != http.StatusInternalServerError {
		body["error_description"] = err.Error()
	}
	writeJSON(w, code, body)
}
