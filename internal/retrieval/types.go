// Package retrieval implements the tenant-scoped, role-aware retrieval and
// ranking engine: candidate selection by vector similarity, role gating,
// dominant-document resolution, coverage expansion, and confidence scoring.
package retrieval

// Passage is the minimal unit of retrieved text returned to callers.
type Passage struct {
	// ID is stable within a single retrieval call, constructed as
	// documentID::idx::n (or ::exp::n for expansion hits), since the index
	// is not required to return globally unique ids across repeated queries.
	ID              string  `json:"id"`
	DocumentID      string  `json:"document_id"`
	Text            string  `json:"text"`
	Similarity      float32 `json:"similarity"`
	Confidentiality string  `json:"confidentiality"`
}

// Request describes one retrieval call. Zero-valued tuning fields fall back
// to the engine's configured defaults.
type Request struct {
	TenantID        string
	Role            Role
	Query           string
	TopK            int
	MinSimilarity   float32
	EnsureMinChunks int
}

// Result is an ordered, deduplicated passage list with a confidence scalar
// derived from the top passage's similarity.
type Result struct {
	Passages   []Passage
	Confidence float32
}
