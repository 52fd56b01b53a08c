// Package ingestion handles document processing: chunking, embedding, and
// index upserts.
package ingestion

import (
	"strconv"
	"strings"
)

// Chunk represents a piece of chunked content
type Chunk struct {
	Content  string
	Index    int
	Metadata map[string]string
}

// ChunkerConfig controls paragraph chunking.
type ChunkerConfig struct {
	// MaxChars is the upper bound for one chunk's character count.
	MaxChars int
}

// Chunker splits document text on paragraph boundaries, packing adjacent
// paragraphs together up to the size bound.
type Chunker struct {
	config ChunkerConfig
}

// NewChunker creates a new Chunker with the given configuration
func NewChunker(config ChunkerConfig) *Chunker {
	if config.MaxChars <= 0 {
		config.MaxChars = 800
	}
	return &Chunker{config: config}
}

// Chunk splits content into paragraph-aligned chunks. Paragraphs larger than
// the bound are split on word boundaries.
func (c *Chunker) Chunk(content string) []Chunk {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var chunks []Chunk
	var current strings.Builder

	flush := func() {
		text := strings.TrimSpace(current.String())
		current.Reset()
		if text == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Content: text,
			Index:   len(chunks),
			Metadata: map[string]string{
				"char_count": strconv.Itoa(len(text)),
			},
		})
	}

	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) > c.config.MaxChars {
			flush()
			for _, piece := range splitByWords(para, c.config.MaxChars) {
				current.WriteString(piece)
				flush()
			}
			continue
		}

		// +2 accounts for the paragraph separator being re-added.
		if current.Len() > 0 && current.Len()+len(para)+2 > c.config.MaxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// splitByWords breaks an oversized paragraph into pieces of at most maxChars,
// never splitting inside a word. A single word longer than the bound becomes
// its own piece.
func splitByWords(text string, maxChars int) []string {
	words := strings.Fields(text)
	var pieces []string
	var current strings.Builder

	for _, word := range words {
		if current.Len() > 0 && current.Len()+len(word)+1 > maxChars {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}
