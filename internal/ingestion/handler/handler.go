// Package handler exposes the asynchronous ingest endpoint. Accepted events
// are applied by the Kafka consumer, not by the request.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
)

// Handler accepts document events over HTTP.
type Handler struct {
	publisher *publisher.Publisher
	logger    *slog.Logger
}

// New returns a handler publishing through pub.
func New(pub *publisher.Publisher) *Handler {
	return &Handler{
		publisher: pub,
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

// Register mounts the ingest route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/ingest", h.Ingest)
}

// Ingest handles POST /api/v1/ingest.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var event ingestion.DocumentEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.publisher.Publish(ctx, event)
	if err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		status := apperrors.HTTPStatusCode(err)
		if status == http.StatusInternalServerError {
			status = http.StatusServiceUnavailable
		}
		log.Error("ingestion failed", "doc_id", event.ID, "error", err, "status_code", status)
		h.writeError(w, status, "ingestion failed")
		return
	}
	log.Info("document event accepted", "op", resp.Op, "doc_id", resp.ID)
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
