// Package ingestion handles resume processing: chunking, embedding, and vector storage.
package ingestion

import (
	"strings"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 500

	// DefaultChunkOverlap is the number of characters carried over between
	// neighboring chunks.
	DefaultChunkOverlap = 100
)

// separators are tried in order; splitting prefers paragraph breaks, then
// line breaks, then word boundaries.
var separators = []string{"\n\n", "\n", " "}

// Chunk represents a piece of chunked content
type Chunk struct {
	Content string
	Index   int
}

// ChunkerConfig controls chunk sizing.
type ChunkerConfig struct {
	ChunkSize int // max characters per chunk
	Overlap   int // characters shared between neighboring chunks
}

// Chunker splits text into overlapping chunks, breaking at the coarsest
// boundary that keeps each chunk under the size limit.
type Chunker struct {
	config ChunkerConfig
}

// NewChunker creates a new Chunker with the given configuration
func NewChunker(config ChunkerConfig) *Chunker {
	// Apply defaults if not set
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.Overlap < 0 || config.Overlap >= config.ChunkSize {
		config.Overlap = DefaultChunkOverlap
		if config.Overlap >= config.ChunkSize {
			config.Overlap = config.ChunkSize / 5
		}
	}

	return &Chunker{config: config}
}

// Chunk splits content into overlapping chunks
func (c *Chunker) Chunk(content string) []Chunk {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	pieces := c.split(content, separators)

	chunks := make([]Chunk, 0, len(pieces))
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		chunks = append(chunks, Chunk{Content: piece, Index: len(chunks)})
	}

	return chunks
}

// split breaks text into pieces no longer than ChunkSize using the first
// separator present, recursing into finer separators for oversized parts.
func (c *Chunker) split(text string, seps []string) []string {
	if len(text) <= c.config.ChunkSize {
		return []string{text}
	}
	if len(seps) == 0 {
		return c.hardCut(text)
	}

	sep := seps[0]
	if !strings.Contains(text, sep) {
		return c.split(text, seps[1:])
	}

	var parts []string
	for _, part := range strings.Split(text, sep) {
		if len(part) > c.config.ChunkSize {
			parts = append(parts, c.split(part, seps[1:])...)
		} else {
			parts = append(parts, part)
		}
	}

	return c.merge(parts, sep)
}

// merge greedily packs parts into chunks up to ChunkSize. When a chunk is
// emitted, trailing parts up to Overlap characters start the next chunk.
func (c *Chunker) merge(parts []string, sep string) []string {
	var chunks []string
	var current []string

	for _, part := range parts {
		if part == "" {
			continue
		}

		if len(current) > 0 && joinedLen(current, sep)+len(sep)+len(part) > c.config.ChunkSize {
			chunks = append(chunks, strings.Join(current, sep))

			// Keep a tail of parts as overlap, dropping more if the new
			// part would not fit beside it.
			for len(current) > 0 &&
				(joinedLen(current, sep) > c.config.Overlap ||
					joinedLen(current, sep)+len(sep)+len(part) > c.config.ChunkSize) {
				current = current[1:]
			}
		}

		current = append(current, part)
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, sep))
	}

	return chunks
}

// hardCut slices text at fixed offsets when no separator is available.
func (c *Chunker) hardCut(text string) []string {
	runes := []rune(text)
	step := c.config.ChunkSize - c.config.Overlap
	if step <= 0 {
		step = c.config.ChunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.config.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks
}

func joinedLen(parts []string, sep string) int {
	n := 0
	for i, p := range parts {
		if i > 0 {
			n += len(sep)
		}
		n += len(p)
	}
	return n
}
