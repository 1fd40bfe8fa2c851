// Package vectorstore provides interfaces and implementations for vector similarity search.
package vectorstore

import (
	"context"
)

// Point kinds stored in a tenant collection. Resume chunks and job
// description embeddings share one collection and are told apart by the
// "kind" payload field.
const (
	KindResumeChunk = "resume_chunk"
	KindJob         = "job"
)

// Chunk represents a resume chunk with its embedding
type Chunk struct {
	ID       string
	ResumeID string
	TenantID string
	Index    int
	Content  string
	Vector   []float32 // Dense vector from embedding model
}

// SearchResult represents a search result from the vector store
type SearchResult struct {
	ID       string
	Kind     string
	ResumeID string
	Index    int
	Content  string
	Score    float32
}

// VectorStore defines the interface for vector storage operations
type VectorStore interface {
	// CreateCollection creates a new collection for a tenant
	CreateCollection(ctx context.Context, tenantID string, dimension int) error

	// DeleteCollection deletes a tenant's collection
	DeleteCollection(ctx context.Context, tenantID string) error

	// CollectionExists checks if a collection exists
	CollectionExists(ctx context.Context, tenantID string) (bool, error)

	// Upsert inserts or updates resume chunks in the vector store
	Upsert(ctx context.Context, tenantID string, chunks []Chunk) error

	// UpsertJob stores the single embedding for a job description
	UpsertJob(ctx context.Context, tenantID, jobID string, vector []float32) error

	// GetVector retrieves a stored embedding vector by point ID
	GetVector(ctx context.Context, tenantID, pointID string) ([]float32, error)

	// Search performs similarity search across all resume chunks of a tenant
	Search(ctx context.Context, tenantID string, vector []float32, topK int) ([]SearchResult, error)

	// SearchResumeChunks performs similarity search restricted to one resume's chunks
	SearchResumeChunks(ctx context.Context, tenantID, resumeID string, vector []float32, topK int) ([]SearchResult, error)

	// DeleteResume removes every point stored for a resume
	DeleteResume(ctx context.Context, tenantID, resumeID string) error
}
