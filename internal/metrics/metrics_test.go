package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/akropatel/tenantrag/internal/retrieval"
)

func TestEmitter_RetrievalEvent(t *testing.T) {
	e := Emitter{}
	ev := retrieval.Event{
		Type:            retrieval.EventRetrieval,
		TenantID:        "tenant-m1",
		Role:            "employee",
		Passages:        4,
		BlockedByRole:   2,
		ExpansionRounds: 1,
	}
	if err := e.Emit(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(RetrievalsTotal.WithLabelValues("tenant-m1", "employee")); got != 1 {
		t.Errorf("retrievals_total = %f", got)
	}
	if got := testutil.ToFloat64(RoleBlockedTotal.WithLabelValues("tenant-m1", "employee")); got != 2 {
		t.Errorf("role_blocked_total = %f", got)
	}
	if got := testutil.ToFloat64(ExpansionRoundsTotal.WithLabelValues("tenant-m1")); got != 1 {
		t.Errorf("expansion_rounds_total = %f", got)
	}
}

func TestEmitter_DegradedRoleEvent(t *testing.T) {
	e := Emitter{}
	ev := retrieval.Event{
		Type:     retrieval.EventDegradedRole,
		TenantID: "tenant-m2",
		Role:     "employee",
	}
	if err := e.Emit(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if err := e.Emit(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(DegradedRetriesTotal.WithLabelValues("tenant-m2", "employee")); got != 2 {
		t.Errorf("degraded_retries_total = %f", got)
	}
}

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("GET", "/api/test", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/test", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}
