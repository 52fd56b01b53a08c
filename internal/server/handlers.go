package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akropatel/tenantrag/internal/audit"
	"github.com/akropatel/tenantrag/internal/auth"
	"github.com/akropatel/tenantrag/internal/retrieval"
	"github.com/akropatel/tenantrag/internal/service"
)

type handlers struct {
	engine    *retrieval.Engine
	query     *service.QueryService
	documents *service.DocumentService
	auditLog  *audit.Log
	logger    *slog.Logger
}

type queryRequest struct {
	Query string `json:"query"`
}

type retrieveRequest struct {
	Query           string  `json:"query"`
	TopK            int     `json:"top_k,omitempty"`
	MinSimilarity   float32 `json:"min_similarity,omitempty"`
	EnsureMinChunks int     `json:"ensure_min_chunks,omitempty"`
}

type retrieveResponse struct {
	Passages   []retrieval.Passage `json:"passages"`
	Confidence float32             `json:"confidence"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) handleQuery(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.query.Query(r.Context(), id, req.Query)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (h *handlers) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.engine.Retrieve(r.Context(), retrieval.Request{
		TenantID:        id.TenantID,
		Role:            id.Role,
		Query:           req.Query,
		TopK:            req.TopK,
		MinSimilarity:   req.MinSimilarity,
		EnsureMinChunks: req.EnsureMinChunks,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// Keep passages JSON as [] rather than null.
	passages := result.Passages
	if passages == nil {
		passages = []retrieval.Passage{}
	}
	writeJSON(w, http.StatusOK, retrieveResponse{
		Passages:   passages,
		Confidence: result.Confidence,
	})
}

func (h *handlers) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req service.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.documents.Upload(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *handlers) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	docs, total, err := h.documents.List(r.Context(), id, limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     total,
	})
}

func (h *handlers) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	docID := chi.URLParam(r, "docID")
	if err := h.documents.Delete(r.Context(), id, docID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAuditLogs returns the tail of the audit log. Admin only.
func (h *handlers) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}
	if id.Role != retrieval.RoleAdmin {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}

	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	if n <= 0 {
		n = 100
	}
	records, err := h.auditLog.Tail(n)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "audit read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read audit log")
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// writeServiceError maps domain errors onto HTTP status codes.
func (h *handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, retrieval.ErrInvalidRole),
		errors.Is(err, retrieval.ErrInvalidQuery),
		errors.Is(err, retrieval.ErrInvalidTenant),
		errors.Is(err, service.ErrInvalidUpload):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUploadForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrTenantMismatch):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, retrieval.ErrEmbedding),
		errors.Is(err, retrieval.ErrIndexUnavailable):
		h.logger.ErrorContext(r.Context(), "upstream dependency failure", "error", err)
		writeError(w, http.StatusBadGateway, "upstream dependency failure")
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
