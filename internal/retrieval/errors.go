package retrieval

import "errors"

var (
	// ErrInvalidRole is returned when the requester role is not a member of
	// the closed role enumeration. Caller error, no retry.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidQuery is returned for an empty or whitespace-only query.
	ErrInvalidQuery = errors.New("query cannot be empty")

	// ErrInvalidTenant is returned when the tenant identifier is empty.
	ErrInvalidTenant = errors.New("tenant id is required")

	// ErrEmbedding wraps embedding-provider failures on the primary round.
	ErrEmbedding = errors.New("embedding provider failure")

	// ErrIndexUnavailable wraps vector-index failures on the primary round.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)
