package api

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"net/http"
	"time"

	// Local Packages
	errors "card-pipeline/errors"
	models "card-pipeline/models"

	// External Packages
	"go.uber.org/zap"
)

type SuspiciousReader interface {
	Suspicious(ctx context.Context, card string) ([]models.SuspiciousTransaction, error)
}

// HealthProbe reports whether the backing store is reachable. Nil means always healthy.
type HealthProbe func(ctx context.Context) error

type suspiciousResponse struct {
	CardNumber   string                         `json:"card_number"`
	Count        int                            `json:"count"`
	Transactions []models.SuspiciousTransaction `json:"transactions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	reader SuspiciousReader
	probe  HealthProbe
	logger *zap.Logger
}

// NewHandler exposes the suspicious transaction lookup and a health endpoint.
func NewHandler(reader SuspiciousReader, probe HealthProbe, logger *zap.Logger) http.Handler {
	h := &handlers{reader: reader, probe: probe, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /suspicious-transactions/{card_number}", h.suspicious)
	return loggingMiddleware(logger, mux)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.probe != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.probe(ctx); err != nil {
			h.logger.Error("health probe failed", zap.Error(err))
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) suspicious(w http.ResponseWriter, r *http.Request) {
	card := r.PathValue("card_number")
	rows, err := h.reader.Suspicious(r.Context(), card)
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("failed to fetch suspicious transactions", zap.String("card_number", card), zap.Error(err))
			respondJSON(w, status, errorResponse{Error: "failed to fetch suspicious transactions"})
			return
		}
		respondJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, suspiciousResponse{CardNumber: card, Count: len(rows), Transactions: rows})
}

func statusOf(err error) int {
	switch errors.KindOf(err) {
	case errors.Invalid:
		return http.StatusBadRequest
	case errors.NotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
