package ingestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xxkhanxx77/aura-poc-llm/internal/embedder"
	"github.com/xxkhanxx77/aura-poc-llm/internal/vectorstore"
)

// PipelineConfig holds configuration for the indexing pipeline
type PipelineConfig struct {
	// Chunker configuration
	Chunker ChunkerConfig
}

// IndexStats describes one indexing run.
type IndexStats struct {
	// ChunkCount is the number of chunks embedded and stored
	ChunkCount int

	// ProcessingTime is how long chunking, embedding, and storage took
	ProcessingTime time.Duration
}

// Pipeline turns raw text into vectors in a tenant's collection.
type Pipeline struct {
	config   PipelineConfig
	chunker  *Chunker
	embedder embedder.Embedder
	vectors  vectorstore.VectorStore
}

// NewPipeline creates a new indexing pipeline
func NewPipeline(emb embedder.Embedder, vectors vectorstore.VectorStore, config PipelineConfig) *Pipeline {
	return &Pipeline{
		config:   config,
		chunker:  NewChunker(config.Chunker),
		embedder: emb,
		vectors:  vectors,
	}
}

// ChunkPointID returns the deterministic point ID for a resume chunk.
// Re-indexing the same resume overwrites its points instead of duplicating them.
func ChunkPointID(resumeID uuid.UUID, index int) string {
	name := fmt.Sprintf("%s:chunk:%d", resumeID, index)
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}

// IndexResume chunks the resume text, embeds every chunk in one batch, and
// upserts the vectors into the tenant's collection.
func (p *Pipeline) IndexResume(ctx context.Context, tenantID, resumeID uuid.UUID, text string) (*IndexStats, error) {
	startTime := time.Now()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("resume text cannot be empty")
	}

	chunks := p.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("resume text produced no chunks")
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed resume chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	if err := p.ensureCollection(ctx, tenantID.String()); err != nil {
		return nil, err
	}

	points := make([]vectorstore.Chunk, len(chunks))
	for i, chunk := range chunks {
		points[i] = vectorstore.Chunk{
			ID:       ChunkPointID(resumeID, chunk.Index),
			ResumeID: resumeID.String(),
			TenantID: tenantID.String(),
			Index:    chunk.Index,
			Content:  chunk.Content,
			Vector:   vectors[i],
		}
	}

	if err := p.vectors.Upsert(ctx, tenantID.String(), points); err != nil {
		return nil, fmt.Errorf("failed to store resume chunks: %w", err)
	}

	return &IndexStats{
		ChunkCount:     len(chunks),
		ProcessingTime: time.Since(startTime),
	}, nil
}

// IndexJob embeds the job description as a single vector keyed by the job ID.
func (p *Pipeline) IndexJob(ctx context.Context, tenantID, jobID uuid.UUID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("job text cannot be empty")
	}

	vector, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed job description: %w", err)
	}

	if err := p.ensureCollection(ctx, tenantID.String()); err != nil {
		return err
	}

	if err := p.vectors.UpsertJob(ctx, tenantID.String(), jobID.String(), vector); err != nil {
		return fmt.Errorf("failed to store job embedding: %w", err)
	}

	return nil
}

// ensureCollection creates the tenant's collection on first use.
func (p *Pipeline) ensureCollection(ctx context.Context, tenantID string) error {
	exists, err := p.vectors.CollectionExists(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	if err := p.vectors.CreateCollection(ctx, tenantID, p.embedder.Dimension()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}
