package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/akropatel/tenantrag/internal/audit"
	"github.com/akropatel/tenantrag/internal/auth"
	"github.com/akropatel/tenantrag/internal/embedder"
	"github.com/akropatel/tenantrag/internal/ingestion"
	"github.com/akropatel/tenantrag/internal/repository"
	"github.com/akropatel/tenantrag/internal/retrieval"
	"github.com/akropatel/tenantrag/internal/vectorstore"
)

// ErrUploadForbidden is returned when the requester's role may not ingest
// documents.
var ErrUploadForbidden = errors.New("role may not upload documents")

// ErrTenantMismatch is returned when a request targets a tenant other than
// the one in the requester's token.
var ErrTenantMismatch = errors.New("tenant does not match token")

// ErrInvalidUpload is returned for malformed upload requests.
var ErrInvalidUpload = errors.New("invalid upload request")

// UploadRequest describes one document to ingest.
type UploadRequest struct {
	DocID           string   `json:"doc_id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	SourceType      string   `json:"source_type"`
	Confidentiality string   `json:"confidentiality"`
	AllowedRoles    []string `json:"allowed_roles"`
}

// UploadResult reports the outcome of an ingestion.
type UploadResult struct {
	DocID      string `json:"doc_id"`
	ChunkCount int    `json:"chunk_count"`
}

// DocumentService ingests documents: chunk, embed, upsert into the index,
// and record registry metadata.
type DocumentService struct {
	chunker  *ingestion.Chunker
	embedder embedder.Embedder
	index    vectorstore.Index
	docRepo  repository.DocumentRepository
	auditLog *audit.Log
	logger   *slog.Logger
}

// DocumentServiceOption is a functional option for configuring DocumentService.
type DocumentServiceOption func(*DocumentService)

// WithDocumentAudit sets the audit sink for ingestion records.
func WithDocumentAudit(log *audit.Log) DocumentServiceOption {
	return func(s *DocumentService) {
		s.auditLog = log
	}
}

// WithDocumentLogger sets the service logger.
func WithDocumentLogger(logger *slog.Logger) DocumentServiceOption {
	return func(s *DocumentService) {
		s.logger = logger
	}
}

// NewDocumentService creates a new DocumentService. docRepo may be nil when
// running without a registry database.
func NewDocumentService(
	chunker *ingestion.Chunker,
	embed embedder.Embedder,
	index vectorstore.Index,
	docRepo repository.DocumentRepository,
	opts ...DocumentServiceOption,
) *DocumentService {
	s := &DocumentService{
		chunker:  chunker,
		embedder: embed,
		index:    index,
		docRepo:  docRepo,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// canUpload restricts ingestion to privileged roles.
func canUpload(role retrieval.Role) bool {
	switch role {
	case retrieval.RoleHR, retrieval.RoleCEO, retrieval.RoleAdmin:
		return true
	}
	return false
}

// Upload ingests one document for the requester's tenant. Chunk identifiers
// are docID::chunk::i, stable across re-ingestion so upserts replace rather
// than duplicate.
func (s *DocumentService) Upload(ctx context.Context, id auth.Identity, req UploadRequest) (*UploadResult, error) {
	if !canUpload(id.Role) {
		return nil, fmt.Errorf("%q: %w", id.Role, ErrUploadForbidden)
	}
	docID := strings.TrimSpace(req.DocID)
	if docID == "" {
		return nil, fmt.Errorf("%w: doc_id is required", ErrInvalidUpload)
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidUpload)
	}
	for _, role := range req.AllowedRoles {
		if _, err := retrieval.ParseRole(role); err != nil {
			return nil, err
		}
	}

	pieces := s.chunker.Chunk(req.Content)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: document produced no chunks", ErrInvalidUpload)
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %v: %w", err, retrieval.ErrEmbedding)
	}

	chunks := make([]vectorstore.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = vectorstore.Chunk{
			ID:              fmt.Sprintf("%s::chunk::%d", docID, piece.Index),
			DocumentID:      docID,
			TenantID:        id.TenantID,
			Content:         piece.Content,
			Vector:          vectors[i],
			AllowedRoles:    req.AllowedRoles,
			Confidentiality: req.Confidentiality,
			SourceType:      req.SourceType,
			Metadata:        piece.Metadata,
		}
	}
	if err := s.index.Upsert(ctx, chunks); err != nil {
		return nil, fmt.Errorf("index upsert: %v: %w", err, retrieval.ErrIndexUnavailable)
	}

	if s.docRepo != nil {
		doc := &repository.Document{
			DocID:           docID,
			TenantID:        id.TenantID,
			Title:           req.Title,
			SourceType:      req.SourceType,
			Confidentiality: req.Confidentiality,
			AllowedRoles:    req.AllowedRoles,
			ChunkCount:      len(chunks),
		}
		if err := s.docRepo.Upsert(ctx, doc); err != nil {
			// The index is authoritative for retrieval; a registry failure
			// is logged, not fatal.
			s.logger.WarnContext(ctx, "document registry upsert failed",
				"tenant_id", id.TenantID, "doc_id", docID, "error", err)
		}
	}

	result := &UploadResult{DocID: docID, ChunkCount: len(chunks)}
	if s.auditLog != nil {
		s.auditLog.Append(ctx, "ingest", id.TenantID, id.UserID, result)
	}
	return result, nil
}

// Delete removes a document's chunks from the index and its registry row.
func (s *DocumentService) Delete(ctx context.Context, id auth.Identity, docID string) error {
	if !canUpload(id.Role) {
		return fmt.Errorf("%q: %w", id.Role, ErrUploadForbidden)
	}
	if err := s.index.DeleteDocument(ctx, id.TenantID, docID); err != nil {
		return fmt.Errorf("index delete: %v: %w", err, retrieval.ErrIndexUnavailable)
	}
	if s.docRepo != nil {
		if err := s.docRepo.Delete(ctx, id.TenantID, docID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	if s.auditLog != nil {
		s.auditLog.Append(ctx, "delete", id.TenantID, id.UserID, map[string]string{"doc_id": docID})
	}
	return nil
}

// List returns the tenant's document registry page.
func (s *DocumentService) List(ctx context.Context, id auth.Identity, limit, offset int) ([]*repository.Document, int, error) {
	if s.docRepo == nil {
		return nil, 0, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return s.docRepo.List(ctx, id.TenantID, limit, offset)
}
