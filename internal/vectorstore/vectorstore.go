// Package vectorstore provides interfaces and implementations for vector similarity search.
package vectorstore

import (
	"context"
)

// Chunk represents a passage with its embedding, ready to be indexed.
type Chunk struct {
	ID              string
	DocumentID      string
	TenantID        string
	Content         string
	Vector          []float32
	AllowedRoles    []string // empty means unrestricted
	Confidentiality string
	SourceType      string
	Metadata        map[string]string
}

// Candidate is a raw search hit, pre role-filter. Distance is the index's
// cosine distance (non-negative, 0 = identical).
type Candidate struct {
	ID              string
	DocumentID      string
	Content         string
	Distance        float32
	AllowedRoles    []string
	Confidentiality string
	SourceType      string
}

// Index defines the vector index contract the retrieval engine depends on.
// Query must only return items previously written with the matching tenant
// tag; tenant isolation relies on that guarantee.
type Index interface {
	// EnsureCollection creates the backing collection if it does not exist.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert inserts or updates chunks under their tenant tag.
	Upsert(ctx context.Context, chunks []Chunk) error

	// Query performs approximate-nearest-neighbor search scoped to a tenant,
	// returning up to topK candidates ordered by ascending distance.
	Query(ctx context.Context, tenantID string, vector []float32, topK int) ([]Candidate, error)

	// DeleteDocument removes all chunks of a document within a tenant.
	DeleteDocument(ctx context.Context, tenantID, documentID string) error
}
