// Package repository defines domain models and data access interfaces for
// tenants and the document registry.
package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Tenant represents a tenant in the system. The ID is the stable slug used
// in tokens and index payloads.
type Tenant struct {
	ID        string
	Name      string
	Config    TenantConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TenantConfig holds tenant-specific retrieval defaults. Zero values fall
// back to the service-level defaults.
type TenantConfig struct {
	TopK            int     `json:"top_k"`
	MinSimilarity   float32 `json:"min_similarity"`
	EnsureMinChunks int     `json:"ensure_min_chunks"`
}

// Document is the registry record of an ingested document. The chunks
// themselves live in the vector index; this row tracks provenance and
// access metadata.
type Document struct {
	DocID           string
	TenantID        string
	Title           string
	SourceType      string
	Confidentiality string
	AllowedRoles    []string
	ChunkCount      int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TenantRepository defines operations for tenant persistence
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	List(ctx context.Context, limit, offset int) ([]*Tenant, int, error)
	Update(ctx context.Context, tenant *Tenant) error
	Delete(ctx context.Context, id string) error
}

// DocumentRepository defines operations for document registry persistence
type DocumentRepository interface {
	Upsert(ctx context.Context, doc *Document) error
	GetByDocID(ctx context.Context, tenantID, docID string) (*Document, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*Document, int, error)
	Delete(ctx context.Context, tenantID, docID string) error
}
