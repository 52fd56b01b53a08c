package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/akropatel/tenantrag/internal/embedder"
	"github.com/akropatel/tenantrag/internal/vectorstore"
)

const (
	// overfetchFactor is how many extra candidates the primary round pulls
	// so role filtering and document grouping have material to work with.
	overfetchFactor = 5

	// expansionOverfetch is the smaller multiplier used by expansion rounds.
	expansionOverfetch = 3
)

// Config holds the engine's retrieval defaults. Zero values fall back to
// DefaultConfig.
type Config struct {
	// TopK is the default result-count hint.
	TopK int

	// MinSimilarity anchors the classifier penalty floor.
	MinSimilarity float32

	// EnsureMinChunks is the coverage target: the minimum number of
	// passages a call tries to return before giving up.
	EnsureMinChunks int

	// ExpansionTerms is the fixed, ordered broadening vocabulary used by
	// the coverage loop. Deployment configuration, not code.
	ExpansionTerms []string

	// MaxPassageChars bounds passage text surfaced to callers.
	MaxPassageChars int

	// DisableDegradedRetry turns off the one-shot role-ignoring retry.
	// The retry is on by default to match observed behavior; flip this
	// after product sign-off decides the degraded path must go.
	DisableDegradedRetry bool
}

// DefaultConfig returns the stock retrieval defaults.
func DefaultConfig() Config {
	return Config{
		TopK:            5,
		MinSimilarity:   0.5,
		EnsureMinChunks: 5,
		MaxPassageChars: 600,
	}
}

// Engine is the retrieval-and-ranking engine. It is stateless per request
// and safe for concurrent use; the only shared state is the externally
// owned vector index, which it never writes to.
type Engine struct {
	embedder   embedder.Embedder
	index      vectorstore.Index
	classifier Classifier
	emitter    Emitter
	cfg        Config
	logger     *slog.Logger
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithConfig overrides the engine defaults. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		if cfg.TopK > 0 {
			e.cfg.TopK = cfg.TopK
		}
		if cfg.MinSimilarity > 0 {
			e.cfg.MinSimilarity = cfg.MinSimilarity
		}
		if cfg.EnsureMinChunks > 0 {
			e.cfg.EnsureMinChunks = cfg.EnsureMinChunks
		}
		if len(cfg.ExpansionTerms) > 0 {
			e.cfg.ExpansionTerms = cfg.ExpansionTerms
		}
		if cfg.MaxPassageChars > 0 {
			e.cfg.MaxPassageChars = cfg.MaxPassageChars
		}
		e.cfg.DisableDegradedRetry = cfg.DisableDegradedRetry
	}
}

// WithClassifier sets the optional document-type classifier stage.
func WithClassifier(c Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithEmitter sets the diagnostic emitter.
func WithEmitter(em Emitter) Option {
	return func(e *Engine) {
		e.emitter = em
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates a retrieval engine around an embedding provider and a
// vector index.
func NewEngine(embed embedder.Embedder, index vectorstore.Index, opts ...Option) *Engine {
	e := &Engine{
		embedder: embed,
		index:    index,
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retrieve finds, gates, and ranks passages for a query. Every returned
// passage belongs to the queried tenant and is visible to the queried role,
// except after the one-shot degraded retry, which callers observe through
// the accompanying diagnostic event rather than the return value.
func (e *Engine) Retrieve(ctx context.Context, req Request) (Result, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.TenantID == "" {
		return Result{}, ErrInvalidTenant
	}
	if req.Query == "" {
		return Result{}, ErrInvalidQuery
	}
	// Reject unknown roles before touching the index rather than defaulting
	// to least privilege, which would mask a caller bug as an access decision.
	if !req.Role.Valid() {
		return Result{}, fmt.Errorf("%q: %w", req.Role, ErrInvalidRole)
	}

	if req.TopK <= 0 {
		req.TopK = e.cfg.TopK
	}
	if req.MinSimilarity <= 0 {
		req.MinSimilarity = e.cfg.MinSimilarity
	}
	if req.EnsureMinChunks <= 0 {
		req.EnsureMinChunks = e.cfg.EnsureMinChunks
	}

	return e.retrieve(ctx, req, false)
}

// retrieve runs one full retrieval pass. ignoreRole is set only by the
// degraded retry; that path cannot re-enter itself because a disabled gate
// never reports blocked candidates.
func (e *Engine) retrieve(ctx context.Context, req Request, ignoreRole bool) (Result, error) {
	queryVector, err := e.embedder.Embed(ctx, req.Query)
	if err != nil {
		return Result{}, fmt.Errorf("embed query: %v: %w", err, ErrEmbedding)
	}

	raw, err := e.index.Query(ctx, req.TenantID, queryVector, req.TopK*overfetchFactor)
	if err != nil {
		return Result{}, fmt.Errorf("index query: %v: %w", err, ErrIndexUnavailable)
	}

	gated, blocked := gateByRole(raw, req.Role, ignoreRole)
	candidates := e.toPassages(req, gated, "idx")

	selected := selectPassages(candidates)

	limit := req.TopK
	if req.EnsureMinChunks > limit {
		limit = req.EnsureMinChunks
	}

	seen := make(map[string]struct{}, limit)
	final := make([]Passage, 0, limit)
	for _, p := range selected {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		final = append(final, p)
		if len(final) >= limit {
			break
		}
	}

	// Coverage expansion: broaden with the configured synonym terms until
	// the minimum is reached or the list is exhausted. Bounded and
	// sequential; a failed term is skipped, never fatal.
	expansionRounds := 0
	if len(final) < req.EnsureMinChunks {
		final, blocked, expansionRounds = e.expand(ctx, req, ignoreRole, final, seen, blocked)
	}

	// If role filtering eliminated everything, retry once with the gate
	// disabled. The diagnostic goes out before the retry so the signal
	// survives even if the retry fails.
	if len(final) == 0 && blocked > 0 && !ignoreRole && !e.cfg.DisableDegradedRetry {
		e.emit(ctx, Event{
			Type:          EventDegradedRole,
			TenantID:      req.TenantID,
			Role:          req.Role.String(),
			Query:         req.Query,
			BlockedByRole: blocked,
			Message: fmt.Sprintf("tenant/role mismatch: %d candidate(s) blocked for role %s, retrying without role filter",
				blocked, req.Role),
		})
		return e.retrieve(ctx, req, true)
	}

	result := Result{
		Passages:   final,
		Confidence: confidence(final),
	}

	ev := Event{
		Type:               EventRetrieval,
		TenantID:           req.TenantID,
		Role:               req.Role.String(),
		Query:              req.Query,
		Passages:           len(final),
		BlockedByRole:      blocked,
		RoleFilterDisabled: ignoreRole,
		ExpansionRounds:    expansionRounds,
	}
	for _, p := range final[:min(len(final), 5)] {
		ev.TopSimilarities = append(ev.TopSimilarities, p.Similarity)
		ev.TopDocuments = append(ev.TopDocuments, p.DocumentID)
	}
	e.emit(ctx, ev)

	return result, nil
}

// expand issues supplementary broadened queries for under-filled results.
func (e *Engine) expand(ctx context.Context, req Request, ignoreRole bool, final []Passage, seen map[string]struct{}, blocked int) ([]Passage, int, int) {
	rounds := 0
	for _, term := range e.cfg.ExpansionTerms {
		if len(final) >= req.EnsureMinChunks {
			break
		}
		rounds++

		termVector, err := e.embedder.Embed(ctx, term)
		if err != nil {
			e.logger.DebugContext(ctx, "expansion embed failed, skipping term",
				"term", term, "error", err)
			continue
		}
		raw, err := e.index.Query(ctx, req.TenantID, termVector, req.TopK*expansionOverfetch)
		if err != nil {
			e.logger.DebugContext(ctx, "expansion query failed, skipping term",
				"term", term, "error", err)
			continue
		}

		gated, termBlocked := gateByRole(raw, req.Role, ignoreRole)
		blocked += termBlocked

		for _, p := range e.toPassages(req, gated, "exp") {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			final = append(final, p)
			if len(final) >= req.EnsureMinChunks {
				break
			}
		}
	}
	return final, blocked, rounds
}

// toPassages converts gated index candidates into passages with clamped
// similarities, stable per-call IDs, and the classifier penalty applied.
func (e *Engine) toPassages(req Request, candidates []vectorstore.Candidate, kind string) []Passage {
	var detected []string
	if e.classifier != nil {
		detected = e.classifier.DetectTypes(req.Query)
	}
	// Off-type candidates survive only above this similarity.
	penaltyFloor := req.MinSimilarity - 0.2
	if penaltyFloor < 0.2 {
		penaltyFloor = 0.2
	}

	passages := make([]Passage, 0, len(candidates))
	for i, cand := range candidates {
		similarity := 1 - cand.Distance
		if similarity < 0 {
			similarity = 0
		}
		if similarity > 1 {
			similarity = 1
		}

		if len(detected) > 0 && !e.classifier.Matches(detected, cand.DocumentID, cand.Content) && similarity < penaltyFloor {
			continue
		}

		text := cand.Content
		if e.cfg.MaxPassageChars > 0 && len(text) > e.cfg.MaxPassageChars {
			text = text[:e.cfg.MaxPassageChars]
		}

		passages = append(passages, Passage{
			ID:              fmt.Sprintf("%s::%s::%d", cand.DocumentID, kind, i),
			DocumentID:      cand.DocumentID,
			Text:            text,
			Similarity:      similarity,
			Confidentiality: cand.Confidentiality,
		})
	}
	return passages
}

// emit sends a diagnostic event, swallowing any emitter failure.
func (e *Engine) emit(ctx context.Context, ev Event) {
	if e.emitter == nil {
		return
	}
	if err := e.emitter.Emit(ctx, ev); err != nil {
		e.logger.DebugContext(ctx, "diagnostic emit failed", "error", err)
	}
}

