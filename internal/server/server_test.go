package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/akropatel/tenantrag/internal/audit"
	"github.com/akropatel/tenantrag/internal/auth"
	"github.com/akropatel/tenantrag/internal/ingestion"
	"github.com/akropatel/tenantrag/internal/retrieval"
	"github.com/akropatel/tenantrag/internal/service"
	"github.com/akropatel/tenantrag/internal/vectorstore"
)

type constEmbedder struct{}

func (constEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (constEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (constEmbedder) Dimension() int    { return 3 }
func (constEmbedder) ModelName() string { return "const" }

type testServer struct {
	srv *HTTPServer
	jwt *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	index := vectorstore.NewMemoryIndex()
	auditLog := audit.NewLog(filepath.Join(t.TempDir(), "audit.log"), nil)
	engine := retrieval.NewEngine(constEmbedder{}, index,
		retrieval.WithEmitter(auditLog))
	jwtManager := auth.NewJWTManager(auth.DefaultJWTConfig("test-secret"))

	queries := service.NewQueryService(engine, service.WithAuditLog(auditLog))
	documents := service.NewDocumentService(
		ingestion.NewChunker(ingestion.ChunkerConfig{}),
		constEmbedder{}, index, nil,
		service.WithDocumentAudit(auditLog))

	srv := NewHTTPServer(HTTPServerConfig{
		Port:      0,
		JWT:       jwtManager,
		Engine:    engine,
		Query:     queries,
		Documents: documents,
		AuditLog:  auditLog,
	})
	return &testServer{srv: srv, jwt: jwtManager}
}

func (ts *testServer) token(t *testing.T, role retrieval.Role) string {
	t.Helper()
	token, err := ts.jwt.GenerateToken("tenant-1", "user-1", role)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.srv.GetRouter().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/v1/retrieve", "", retrieveRequest{Query: "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestUploadThenQuery(t *testing.T) {
	ts := newTestServer(t)
	hr := ts.token(t, retrieval.RoleHR)

	rec := ts.do(t, http.MethodPost, "/api/v1/documents", hr, service.UploadRequest{
		DocID:   "handbook",
		Title:   "Handbook",
		Content: "Vacation is 25 days per year.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}

	employee := ts.token(t, retrieval.RoleEmployee)
	rec = ts.do(t, http.MethodPost, "/api/v1/retrieve", employee, retrieveRequest{
		Query: "vacation days",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp retrieveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Passages) == 0 {
		t.Fatal("expected passages")
	}
	if resp.Passages[0].DocumentID != "handbook" {
		t.Errorf("document = %q", resp.Passages[0].DocumentID)
	}
	if resp.Confidence <= 0 {
		t.Errorf("confidence = %f", resp.Confidence)
	}
}

func TestRetrieve_EmptyQueryIs400(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/v1/retrieve", ts.token(t, retrieval.RoleEmployee),
		retrieveRequest{Query: "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestUpload_EmployeeForbidden(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/v1/documents", ts.token(t, retrieval.RoleEmployee),
		service.UploadRequest{DocID: "handbook", Content: "text"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", rec.Code, rec.Body.String())
	}
}

func TestUpload_MissingDocIDIs400(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/v1/documents", ts.token(t, retrieval.RoleHR),
		service.UploadRequest{Content: "text"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteDocument(t *testing.T) {
	ts := newTestServer(t)
	hr := ts.token(t, retrieval.RoleHR)

	rec := ts.do(t, http.MethodPost, "/api/v1/documents", hr, service.UploadRequest{
		DocID: "handbook", Content: "some text",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodDelete, "/api/v1/documents/handbook", hr, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuditLogs_AdminOnly(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/audit/logs", ts.token(t, retrieval.RoleEmployee), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("employee status = %d, want 403", rec.Code)
	}

	// Generate one audit record, then read it back as admin.
	rec = ts.do(t, http.MethodPost, "/api/v1/retrieve", ts.token(t, retrieval.RoleEmployee),
		retrieveRequest{Query: "anything"})
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/audit/logs", ts.token(t, retrieval.RoleAdmin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Records []audit.Record `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Records) == 0 {
		t.Error("expected audit records")
	}
}
