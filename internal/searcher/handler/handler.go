package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/paginate"
)

const maxBatchQueries = 1000

// Handler serves the search and document API.
type Handler struct {
	svc      *service.Service
	pageSize int
	logger   *slog.Logger
}

// New returns a handler over svc. pageSize bounds the document listing.
func New(svc *service.Service, pageSize int) *Handler {
	return &Handler{
		svc:      svc,
		pageSize: pageSize,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/search/batch", h.SearchBatch)
	mux.HandleFunc("GET /api/v1/documents", h.ListDocuments)
	mux.HandleFunc("POST /api/v1/documents", h.AddDocument)
	mux.HandleFunc("POST /api/v1/documents/deduplicate", h.Deduplicate)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.RemoveDocument)
	mux.HandleFunc("GET /api/v1/documents/{id}/frequencies", h.WordFrequencies)
	mux.HandleFunc("GET /api/v1/documents/{id}/match", h.MatchDocument)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Search handles GET /api/v1/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, ok := h.mode(w, r)
	if !ok {
		return
	}
	status := index.StatusActive
	if raw := q.Get("status"); raw != "" {
		s, err := index.ParseStatus(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = s
	}

	result, err := h.svc.Search(r.Context(), service.SearchRequest{
		Query:  q.Get("q"),
		Status: status,
		Mode:   mode,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

type batchRequest struct {
	Queries []string `json:"queries"`
	Joined  bool     `json:"joined"`
}

// SearchBatch answers {"queries": [...]} with per-query results split into
// pages, or with one flat list when "joined" is set.
func (h *Handler) SearchBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Queries) > maxBatchQueries {
		h.writeError(w, http.StatusBadRequest, "too many queries in one batch")
		return
	}
	if req.Joined {
		docs, err := h.svc.SearchBatchJoined(r.Context(), req.Queries)
		if err != nil {
			h.writeAppError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"results": docs})
		return
	}

	results, err := h.svc.SearchBatch(r.Context(), req.Queries)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	type batchEntry struct {
		Query string `json:"query"`
		Pages any    `json:"pages"`
	}
	entries := make([]batchEntry, len(results))
	for i, docs := range results {
		entries[i] = batchEntry{Query: req.Queries[i], Pages: paginate.Paginate(docs, h.pageSize)}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"batch": entries})
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids := h.svc.DocumentIDs()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count": len(ids),
		"ids":   ids,
	})
}

// AddDocument handles POST /api/v1/documents.
func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var doc service.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := h.svc.AddDocument(r.Context(), doc); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]int{"id": doc.ID})
}

// RemoveDocument handles DELETE /api/v1/documents/{id}.
func (h *Handler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	mode, ok := h.mode(w, r)
	if !ok {
		return
	}
	removed := h.svc.RemoveDocument(r.Context(), id, mode)
	h.writeJSON(w, http.StatusOK, map[string]any{"id": id, "removed": removed})
}

func (h *Handler) WordFrequencies(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":          id,
		"frequencies": h.svc.WordFrequencies(id),
	})
}

// MatchDocument handles GET /api/v1/documents/{id}/match.
func (h *Handler) MatchDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	mode, ok := h.mode(w, r)
	if !ok {
		return
	}
	result, err := h.svc.MatchDocument(r.Context(), r.URL.Query().Get("q"), id, mode)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Deduplicate handles POST /api/v1/documents/deduplicate.
func (h *Handler) Deduplicate(w http.ResponseWriter, r *http.Request) {
	mode, ok := h.mode(w, r)
	if !ok {
		return
	}
	removed := h.svc.Deduplicate(r.Context(), mode)
	if removed == nil {
		removed = []int{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Stats())
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.InvalidateCache(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) mode(w http.ResponseWriter, r *http.Request) (execution.Mode, bool) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		return h.svc.DefaultMode(), true
	}
	mode, err := execution.ParseMode(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return mode, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "document id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	h.writeError(w, status, msg)
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
