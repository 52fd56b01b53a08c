package retrieval

import (
	"context"
	"log/slog"
)

// Event kinds emitted by the engine.
const (
	EventRetrieval    = "retrieval"
	EventDegradedRole = "role_retry"
)

// Event is one structured diagnostic record describing a retrieval decision.
// Emission is fire-and-forget: a failed emit never fails the retrieval.
type Event struct {
	Type               string    `json:"type"`
	TenantID           string    `json:"tenant_id"`
	Role               string    `json:"role"`
	Query              string    `json:"query"`
	Passages           int       `json:"chunks"`
	TopSimilarities    []float32 `json:"top_similarities,omitempty"`
	TopDocuments       []string  `json:"docs,omitempty"`
	BlockedByRole      int       `json:"blocked_by_role"`
	RoleFilterDisabled bool      `json:"role_filter_disabled,omitempty"`
	ExpansionRounds    int       `json:"expansion_rounds,omitempty"`
	Message            string    `json:"message,omitempty"`
}

// Emitter receives diagnostic events. Implementations must tolerate
// concurrent calls; errors are swallowed by the engine.
type Emitter interface {
	Emit(ctx context.Context, ev Event) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, ev Event) error

// Emit implements Emitter.
func (f EmitterFunc) Emit(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// MultiEmitter fans an event out to several emitters. Each emitter is tried
// even if an earlier one fails; the first error is returned.
type MultiEmitter []Emitter

// Emit implements Emitter.
func (m MultiEmitter) Emit(ctx context.Context, ev Event) error {
	var first error
	for _, e := range m {
		if err := e.Emit(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SlogEmitter writes events to a structured logger.
type SlogEmitter struct {
	Logger *slog.Logger
}

// Emit implements Emitter.
func (e *SlogEmitter) Emit(ctx context.Context, ev Event) error {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "retrieval diagnostic",
		"type", ev.Type,
		"tenant_id", ev.TenantID,
		"role", ev.Role,
		"chunks", ev.Passages,
		"blocked_by_role", ev.BlockedByRole,
		"role_filter_disabled", ev.RoleFilterDisabled,
		"expansion_rounds", ev.ExpansionRounds,
	)
	return nil
}
