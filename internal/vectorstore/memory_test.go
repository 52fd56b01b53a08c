package vectorstore

import (
	"context"
	"testing"
)

func seedChunks() []Chunk {
	return []Chunk{
		{ID: "a1", DocumentID: "doc-a", TenantID: "acme",
			Content: "vacation policy", Vector: []float32{1, 0, 0}},
		{ID: "a2", DocumentID: "doc-a", TenantID: "acme",
			Content: "sick leave", Vector: []float32{0.7, 0.7, 0}},
		{ID: "b1", DocumentID: "doc-b", TenantID: "globex",
			Content: "globex onboarding", Vector: []float32{1, 0, 0}},
	}
}

func TestMemoryIndex_TenantScoping(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	if err := idx.Upsert(ctx, seedChunks()); err != nil {
		t.Fatal(err)
	}

	got, err := idx.Query(ctx, "acme", []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 acme candidates, got %d", len(got))
	}
	for _, c := range got {
		if c.DocumentID == "doc-b" {
			t.Error("globex chunk returned for acme query")
		}
	}

	// Exact match ranks first with distance 0.
	if got[0].ID != "a1" {
		t.Errorf("expected exact match first, got %q", got[0].ID)
	}
	if got[0].Distance != 0 {
		t.Errorf("exact match distance = %f", got[0].Distance)
	}
}

func TestMemoryIndex_TopKAndOrdering(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	if err := idx.Upsert(ctx, seedChunks()); err != nil {
		t.Fatal(err)
	}

	got, err := idx.Query(ctx, "acme", []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("topK = 1: got %d", len(got))
	}

	// Distances are non-decreasing.
	got, _ = idx.Query(ctx, "acme", []float32{1, 0, 0}, 10)
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Errorf("candidates out of order at %d: %f < %f",
				i, got[i].Distance, got[i-1].Distance)
		}
	}
}

func TestMemoryIndex_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	if err := idx.Upsert(ctx, seedChunks()); err != nil {
		t.Fatal(err)
	}

	updated := []Chunk{{ID: "a1", DocumentID: "doc-a", TenantID: "acme",
		Content: "revised vacation policy", Vector: []float32{0, 1, 0}}}
	if err := idx.Upsert(ctx, updated); err != nil {
		t.Fatal(err)
	}

	got, err := idx.Query(ctx, "acme", []float32{0, 1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "a1" || got[0].Content != "revised vacation policy" {
		t.Errorf("upsert did not replace chunk: %+v", got[0])
	}
}

func TestMemoryIndex_DeleteDocument(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	if err := idx.Upsert(ctx, seedChunks()); err != nil {
		t.Fatal(err)
	}

	if err := idx.DeleteDocument(ctx, "acme", "doc-a"); err != nil {
		t.Fatal(err)
	}
	got, err := idx.Query(ctx, "acme", []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no acme candidates after delete, got %d", len(got))
	}

	// Other tenants are untouched.
	got, _ = idx.Query(ctx, "globex", []float32{1, 0, 0}, 10)
	if len(got) != 1 {
		t.Errorf("globex candidates affected by acme delete: %d", len(got))
	}
}
