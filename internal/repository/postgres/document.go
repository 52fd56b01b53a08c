package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/akropatel/tenantrag/internal/repository"
)

// DocumentRepo implements repository.DocumentRepository
type DocumentRepo struct {
	db *DB
}

// NewDocumentRepo creates a new document registry repository
func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Upsert inserts or replaces a document registry row keyed by
// (tenant_id, doc_id). Re-ingesting a document overwrites its metadata.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *repository.Document) error {
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	query := `
		INSERT INTO documents (tenant_id, doc_id, title, source_type, confidentiality, allowed_roles, chunk_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id, doc_id) DO UPDATE
		SET title = EXCLUDED.title,
		    source_type = EXCLUDED.source_type,
		    confidentiality = EXCLUDED.confidentiality,
		    allowed_roles = EXCLUDED.allowed_roles,
		    chunk_count = EXCLUDED.chunk_count,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Pool.Exec(ctx, query,
		doc.TenantID, doc.DocID, doc.Title, doc.SourceType, doc.Confidentiality,
		doc.AllowedRoles, doc.ChunkCount, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// GetByDocID retrieves a document registry row
func (r *DocumentRepo) GetByDocID(ctx context.Context, tenantID, docID string) (*repository.Document, error) {
	query := `
		SELECT tenant_id, doc_id, title, source_type, confidentiality, allowed_roles, chunk_count, created_at, updated_at
		FROM documents
		WHERE tenant_id = $1 AND doc_id = $2
	`
	var doc repository.Document
	err := r.db.Pool.QueryRow(ctx, query, tenantID, docID).Scan(
		&doc.TenantID, &doc.DocID, &doc.Title, &doc.SourceType, &doc.Confidentiality,
		&doc.AllowedRoles, &doc.ChunkCount, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// List retrieves a tenant's document registry with pagination
func (r *DocumentRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*repository.Document, int, error) {
	var total int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE tenant_id = $1`, tenantID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	query := `
		SELECT tenant_id, doc_id, title, source_type, confidentiality, allowed_roles, chunk_count, created_at, updated_at
		FROM documents
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Pool.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*repository.Document
	for rows.Next() {
		var doc repository.Document
		if err := rows.Scan(&doc.TenantID, &doc.DocID, &doc.Title, &doc.SourceType,
			&doc.Confidentiality, &doc.AllowedRoles, &doc.ChunkCount,
			&doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, total, nil
}

// Delete removes a document registry row
func (r *DocumentRepo) Delete(ctx context.Context, tenantID, docID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM documents WHERE tenant_id = $1 AND doc_id = $2`, tenantID, docID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
