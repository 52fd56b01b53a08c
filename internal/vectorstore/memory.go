package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is an in-memory Index used for development and tests. It
// performs an exact cosine scan over the tenant's chunks.
type MemoryIndex struct {
	mu     sync.RWMutex
	chunks []Chunk
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// EnsureCollection is a no-op for the in-memory index.
func (s *MemoryIndex) EnsureCollection(ctx context.Context, dimension int) error {
	return nil
}

// Upsert inserts or replaces chunks keyed by (tenant, chunk ID).
func (s *MemoryIndex) Upsert(ctx context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		replaced := false
		for i, existing := range s.chunks {
			if existing.TenantID == chunk.TenantID && existing.ID == chunk.ID {
				s.chunks[i] = chunk
				replaced = true
				break
			}
		}
		if !replaced {
			s.chunks = append(s.chunks, chunk)
		}
	}
	return nil
}

// Query scans the tenant's chunks and returns the topK nearest by cosine
// distance. Ties are broken by chunk ID for deterministic ordering.
func (s *MemoryIndex) Query(ctx context.Context, tenantID string, vector []float32, topK int) ([]Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Candidate
	for _, chunk := range s.chunks {
		if chunk.TenantID != tenantID {
			continue
		}
		distance := 1 - cosineSimilarity(vector, chunk.Vector)
		if distance < 0 {
			distance = 0
		}
		results = append(results, Candidate{
			ID:              chunk.ID,
			DocumentID:      chunk.DocumentID,
			Content:         chunk.Content,
			Distance:        distance,
			AllowedRoles:    append([]string(nil), chunk.AllowedRoles...),
			Confidentiality: chunk.Confidentiality,
			SourceType:      chunk.SourceType,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteDocument removes all chunks of a document within a tenant.
func (s *MemoryIndex) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	for _, chunk := range s.chunks {
		if chunk.TenantID == tenantID && chunk.DocumentID == documentID {
			continue
		}
		kept = append(kept, chunk)
	}
	s.chunks = kept
	return nil
}

// cosineSimilarity computes the cosine similarity of two vectors,
// returning 0 for mismatched or zero-norm inputs.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	if sim < 0 {
		sim = 0
	}
	return float32(sim)
}

// Ensure MemoryIndex implements Index
var _ Index = (*MemoryIndex)(nil)
