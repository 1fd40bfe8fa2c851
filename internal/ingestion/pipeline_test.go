package ingestion

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/xxkhanxx77/aura-poc-llm/internal/vectorstore"
)

type fakeEmbedder struct {
	batchCalls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int    { return 2 }
func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

type fakeVectorStore struct {
	created map[string]int
	chunks  map[string][]vectorstore.Chunk
	jobs    map[string][]float32
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{
		created: make(map[string]int),
		chunks:  make(map[string][]vectorstore.Chunk),
		jobs:    make(map[string][]float32),
	}
}

func (f *fakeVectorStore) CreateCollection(ctx context.Context, tenantID string, dimension int) error {
	f.created[tenantID]++
	return nil
}

func (f *fakeVectorStore) DeleteCollection(ctx context.Context, tenantID string) error {
	delete(f.created, tenantID)
	return nil
}

func (f *fakeVectorStore) CollectionExists(ctx context.Context, tenantID string) (bool, error) {
	return f.created[tenantID] > 0, nil
}

func (f *fakeVectorStore) Upsert(ctx context.Context, tenantID string, chunks []vectorstore.Chunk) error {
	f.chunks[tenantID] = append(f.chunks[tenantID], chunks...)
	return nil
}

func (f *fakeVectorStore) UpsertJob(ctx context.Context, tenantID, jobID string, vector []float32) error {
	f.jobs[jobID] = vector
	return nil
}

func (f *fakeVectorStore) GetVector(ctx context.Context, tenantID, pointID string) ([]float32, error) {
	if v, ok := f.jobs[pointID]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("point %s not found", pointID)
}

func (f *fakeVectorStore) Search(ctx context.Context, tenantID string, vector []float32, topK int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func (f *fakeVectorStore) SearchResumeChunks(ctx context.Context, tenantID, resumeID string, vector []float32, topK int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func (f *fakeVectorStore) DeleteResume(ctx context.Context, tenantID, resumeID string) error {
	return nil
}

func TestChunkPointID_Deterministic(t *testing.T) {
	resumeID := uuid.MustParse("2395cbef-3b27-4b3a-a2df-7d7ad9158690")

	first := ChunkPointID(resumeID, 0)
	second := ChunkPointID(resumeID, 0)
	if first != second {
		t.Errorf("same resume and index produced different IDs: %s / %s", first, second)
	}

	other := ChunkPointID(resumeID, 1)
	if other == first {
		t.Error("different chunk indexes produced the same ID")
	}

	if _, err := uuid.Parse(first); err != nil {
		t.Errorf("point ID is not a valid UUID: %v", err)
	}
}

func TestPipeline_IndexResume(t *testing.T) {
	store := newFakeVectorStore()
	emb := &fakeEmbedder{}
	pipeline := NewPipeline(emb, store, PipelineConfig{})

	tenantID := uuid.New()
	resumeID := uuid.New()

	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("Shipped feature %d across three product teams", i))
	}
	text := strings.Join(lines, "\n")

	stats, err := pipeline.IndexResume(context.Background(), tenantID, resumeID, text)
	if err != nil {
		t.Fatalf("IndexResume() error = %v", err)
	}

	if stats.ChunkCount < 2 {
		t.Errorf("expected multiple chunks, got %d", stats.ChunkCount)
	}

	stored := store.chunks[tenantID.String()]
	if len(stored) != stats.ChunkCount {
		t.Fatalf("stored %d chunks, stats say %d", len(stored), stats.ChunkCount)
	}

	for _, chunk := range stored {
		if chunk.ResumeID != resumeID.String() {
			t.Errorf("chunk has wrong resume ID %s", chunk.ResumeID)
		}
		if chunk.ID != ChunkPointID(resumeID, chunk.Index) {
			t.Errorf("chunk %d has non-deterministic point ID %s", chunk.Index, chunk.ID)
		}
		if len(chunk.Vector) != emb.Dimension() {
			t.Errorf("chunk %d vector has dimension %d, want %d", chunk.Index, len(chunk.Vector), emb.Dimension())
		}
	}

	if emb.batchCalls != 1 {
		t.Errorf("expected a single batch embedding call, got %d", emb.batchCalls)
	}
	if store.created[tenantID.String()] != 1 {
		t.Errorf("expected collection created once, got %d", store.created[tenantID.String()])
	}
}

func TestPipeline_IndexResume_EmptyText(t *testing.T) {
	pipeline := NewPipeline(&fakeEmbedder{}, newFakeVectorStore(), PipelineConfig{})

	if _, err := pipeline.IndexResume(context.Background(), uuid.New(), uuid.New(), "   "); err == nil {
		t.Error("expected error for empty resume text")
	}
}

func TestPipeline_IndexResume_CollectionCreatedOnce(t *testing.T) {
	store := newFakeVectorStore()
	pipeline := NewPipeline(&fakeEmbedder{}, store, PipelineConfig{})

	tenantID := uuid.New()
	for i := 0; i < 3; i++ {
		if _, err := pipeline.IndexResume(context.Background(), tenantID, uuid.New(), "a short resume"); err != nil {
			t.Fatalf("IndexResume() error = %v", err)
		}
	}

	if store.created[tenantID.String()] != 1 {
		t.Errorf("expected collection created once across runs, got %d", store.created[tenantID.String()])
	}
}

func TestPipeline_IndexJob(t *testing.T) {
	store := newFakeVectorStore()
	pipeline := NewPipeline(&fakeEmbedder{}, store, PipelineConfig{})

	tenantID := uuid.New()
	jobID := uuid.New()

	if err := pipeline.IndexJob(context.Background(), tenantID, jobID, "Senior Go engineer, payments"); err != nil {
		t.Fatalf("IndexJob() error = %v", err)
	}

	vector, err := store.GetVector(context.Background(), tenantID.String(), jobID.String())
	if err != nil {
		t.Fatalf("job vector not stored: %v", err)
	}
	if len(vector) == 0 {
		t.Error("stored job vector is empty")
	}
}
