package ingestion

import (
	"strings"
	"testing"
)

func TestNewChunker_Defaults(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{})

	// Should apply defaults
	if chunker.config.MaxChars != 800 {
		t.Errorf("expected default MaxChars 800, got %d", chunker.config.MaxChars)
	}
}

func TestChunker_EmptyContent(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{})

	chunks := chunker.Chunk("")
	if chunks != nil {
		t.Errorf("expected nil for empty content, got %v", chunks)
	}

	chunks = chunker.Chunk("   \n\n  ")
	if chunks != nil {
		t.Errorf("expected nil for whitespace content, got %v", chunks)
	}
}

func TestChunker_PacksParagraphs(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{MaxChars: 50})

	content := "first para here.\n\nsecond para here.\n\nthird paragraph is long enough to not fit."
	chunks := chunker.Chunk(content)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	// Small adjacent paragraphs pack together; the third spills over.
	if !strings.Contains(chunks[0].Content, "first para") ||
		!strings.Contains(chunks[0].Content, "second para") {
		t.Errorf("chunk 0 = %q", chunks[0].Content)
	}
	if !strings.Contains(chunks[1].Content, "third paragraph") {
		t.Errorf("chunk 1 = %q", chunks[1].Content)
	}
}

func TestChunker_RespectsBound(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{MaxChars: 60})

	// One paragraph far larger than the bound.
	words := make([]string, 100)
	for i := range words {
		words[i] = "word"
	}
	chunks := chunker.Chunk(strings.Join(words, " "))

	if len(chunks) < 2 {
		t.Fatal("oversized paragraph should split into multiple chunks")
	}
	for _, c := range chunks {
		if len(c.Content) > 60 {
			t.Errorf("chunk %d exceeds bound: %d chars", c.Index, len(c.Content))
		}
		if strings.Contains(c.Content, "wo ") || strings.HasSuffix(c.Content, "wo") {
			t.Errorf("chunk %d split inside a word: %q", c.Index, c.Content)
		}
	}
}

func TestChunker_IndexesSequential(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{MaxChars: 20})
	chunks := chunker.Chunk("alpha beta gamma.\n\ndelta epsilon zeta.\n\neta theta iota.")

	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.Metadata["char_count"] == "" {
			t.Errorf("chunk %d missing char_count metadata", i)
		}
	}
}
