// Package service orchestrates retrieval, answer generation, and ingestion
// on top of the engine, the vector index, and the document registry.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akropatel/tenantrag/internal/audit"
	"github.com/akropatel/tenantrag/internal/auth"
	"github.com/akropatel/tenantrag/internal/llm"
	"github.com/akropatel/tenantrag/internal/repository"
	"github.com/akropatel/tenantrag/internal/retrieval"
)

const answerSystemPrompt = "Answer strictly using the provided context. " +
	"If the context does not contain the answer, say you do not know. " +
	"Do not invent policies, numbers, or names."

// fallbackOptions are offered when confidence is too low to answer.
var fallbackOptions = []string{
	"Check the source document directly",
	"Escalate to HR",
	"Rephrase the question with more detail",
}

// Provenance identifies one source passage backing an answer.
type Provenance struct {
	PassageID       string  `json:"passage_id"`
	DocumentID      string  `json:"document_id"`
	Similarity      float32 `json:"similarity"`
	Confidentiality string  `json:"confidentiality,omitempty"`
}

// Answer is the full response to one query.
type Answer struct {
	QueryID         string                    `json:"query_id"`
	Answer          string                    `json:"answer"`
	Confidence      float32                   `json:"confidence"`
	ConfidenceLabel retrieval.ConfidenceLabel `json:"confidence_label"`
	ChunksUsed      int                       `json:"chunks_used"`
	Provenance      []Provenance              `json:"provenance"`
	FallbackOptions []string                  `json:"fallback_options,omitempty"`
}

// QueryService answers questions over a tenant's retrieved passages.
type QueryService struct {
	engine     *retrieval.Engine
	tenantRepo repository.TenantRepository
	llmClient  llm.LLM
	auditLog   *audit.Log
	logger     *slog.Logger
}

// QueryServiceOption is a functional option for configuring QueryService.
type QueryServiceOption func(*QueryService)

// WithLLM sets the answer generator. Without one, answers are extractive.
func WithLLM(client llm.LLM) QueryServiceOption {
	return func(s *QueryService) {
		s.llmClient = client
	}
}

// WithTenantRepository enables per-tenant retrieval defaults.
func WithTenantRepository(repo repository.TenantRepository) QueryServiceOption {
	return func(s *QueryService) {
		s.tenantRepo = repo
	}
}

// WithAuditLog sets the audit sink for query records.
func WithAuditLog(log *audit.Log) QueryServiceOption {
	return func(s *QueryService) {
		s.auditLog = log
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) QueryServiceOption {
	return func(s *QueryService) {
		s.logger = logger
	}
}

// NewQueryService creates a new QueryService
func NewQueryService(engine *retrieval.Engine, opts ...QueryServiceOption) *QueryService {
	s := &QueryService{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query retrieves passages for the authenticated requester and produces an
// answer with provenance. Low-confidence results carry fallback options
// instead of a generated answer.
func (s *QueryService) Query(ctx context.Context, id auth.Identity, query string) (*Answer, error) {
	req := retrieval.Request{
		TenantID: id.TenantID,
		Role:     id.Role,
		Query:    query,
	}
	s.applyTenantDefaults(ctx, &req)

	result, err := s.engine.Retrieve(ctx, req)
	if err != nil {
		return nil, err
	}

	answer := &Answer{
		QueryID:         fmt.Sprintf("%s_%d", id.UserID, time.Now().UnixMilli()),
		Confidence:      result.Confidence,
		ConfidenceLabel: retrieval.LabelConfidence(result.Confidence),
		ChunksUsed:      len(result.Passages),
	}
	for _, p := range result.Passages {
		answer.Provenance = append(answer.Provenance, Provenance{
			PassageID:       p.ID,
			DocumentID:      p.DocumentID,
			Similarity:      p.Similarity,
			Confidentiality: p.Confidentiality,
		})
	}

	switch {
	case retrieval.NeedsFallback(result.Confidence):
		answer.Answer = "I could not find a reliable answer to that in the available documents."
		answer.FallbackOptions = fallbackOptions
	default:
		answer.Answer = s.generateAnswer(ctx, query, result.Passages)
	}

	if s.auditLog != nil {
		s.auditLog.Append(ctx, "query", id.TenantID, id.UserID, answer)
	}
	return answer, nil
}

func (s *QueryService) applyTenantDefaults(ctx context.Context, req *retrieval.Request) {
	if s.tenantRepo == nil {
		return
	}
	tenant, err := s.tenantRepo.GetByID(ctx, req.TenantID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.WarnContext(ctx, "tenant config lookup failed",
				"tenant_id", req.TenantID, "error", err)
		}
		return
	}
	req.TopK = tenant.Config.TopK
	req.MinSimilarity = tenant.Config.MinSimilarity
	req.EnsureMinChunks = tenant.Config.EnsureMinChunks
}

// generateAnswer builds the context prompt and calls the LLM. Without an
// LLM, or when generation fails, the top passage is returned verbatim.
func (s *QueryService) generateAnswer(ctx context.Context, query string, passages []retrieval.Passage) string {
	if len(passages) == 0 {
		return "I could not find a reliable answer to that in the available documents."
	}

	if s.llmClient == nil {
		return passages[0].Text
	}

	var b strings.Builder
	b.WriteString("Context:\n")
	for _, p := range passages {
		fmt.Fprintf(&b, "- %s (source: %s)\n", p.Text, p.DocumentID)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(query)

	answer, err := s.llmClient.Generate(ctx, b.String(), llm.GenerateOptions{
		SystemPrompt: answerSystemPrompt,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "answer generation failed, falling back to extractive answer",
			"error", err)
		return passages[0].Text
	}
	return answer
}
