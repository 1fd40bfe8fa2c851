package vectorstore

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore implements VectorStore using Qdrant
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore creates a new Qdrant vector store client
// url should be in format "host:port" (e.g., "localhost:6334")
func NewQdrantStore(ctx context.Context, url string) (*QdrantStore, error) {
	host, portStr, err := net.SplitHostPort(url)
	if err != nil {
		// If no port specified, assume default
		host = url
		portStr = "6334"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant url: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantStore{client: client}, nil
}

// Close closes the Qdrant client connection
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// collectionName returns the collection name for a tenant
func (s *QdrantStore) collectionName(tenantID string) string {
	return fmt.Sprintf("tenant_%s", tenantID)
}

// CreateCollection creates a new collection for a tenant
func (s *QdrantStore) CreateCollection(ctx context.Context, tenantID string, dimension int) error {
	name := s.collectionName(tenantID)

	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// DeleteCollection deletes a tenant's collection
func (s *QdrantStore) DeleteCollection(ctx context.Context, tenantID string) error {
	name := s.collectionName(tenantID)

	err := s.client.DeleteCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	return nil
}

// CollectionExists checks if a collection exists
func (s *QdrantStore) CollectionExists(ctx context.Context, tenantID string) (bool, error) {
	name := s.collectionName(tenantID)

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}

	return exists, nil
}

// Upsert inserts or updates resume chunks in the vector store
func (s *QdrantStore) Upsert(ctx context.Context, tenantID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	name := s.collectionName(tenantID)

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id: qdrant.NewIDUUID(chunk.ID),
			Payload: map[string]*qdrant.Value{
				"kind":        qdrant.NewValueString(KindResumeChunk),
				"resume_id":   qdrant.NewValueString(chunk.ResumeID),
				"chunk_index": qdrant.NewValueInt(int64(chunk.Index)),
				"content":     qdrant.NewValueString(chunk.Content),
			},
			Vectors: qdrant.NewVectors(chunk.Vector...),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// UpsertJob stores the single embedding for a job description. The point ID
// is the job ID, so the vector can be fetched back without re-embedding.
func (s *QdrantStore) UpsertJob(ctx context.Context, tenantID, jobID string, vector []float32) error {
	name := s.collectionName(tenantID)

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points: []*qdrant.PointStruct{
			{
				Id: qdrant.NewIDUUID(jobID),
				Payload: map[string]*qdrant.Value{
					"kind": qdrant.NewValueString(KindJob),
				},
				Vectors: qdrant.NewVectors(vector...),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert job embedding: %w", err)
	}

	return nil
}

// GetVector retrieves a stored embedding vector by point ID
func (s *QdrantStore) GetVector(ctx context.Context, tenantID, pointID string) ([]float32, error) {
	name := s.collectionName(tenantID)

	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: name,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(pointID)},
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve point: %w", err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("point %s not found", pointID)
	}

	vector := points[0].GetVectors().GetVector().GetData()
	if len(vector) == 0 {
		return nil, fmt.Errorf("point %s has no vector", pointID)
	}

	return vector, nil
}

// Search performs similarity search across all resume chunks of a tenant.
// Job embedding points are excluded so results always map back to resumes.
func (s *QdrantStore) Search(ctx context.Context, tenantID string, vector []float32, topK int) ([]SearchResult, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("kind", KindResumeChunk),
		},
	}

	return s.query(ctx, tenantID, vector, topK, filter)
}

// SearchResumeChunks performs similarity search restricted to one resume's chunks
func (s *QdrantStore) SearchResumeChunks(ctx context.Context, tenantID, resumeID string, vector []float32, topK int) ([]SearchResult, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("kind", KindResumeChunk),
			qdrant.NewMatch("resume_id", resumeID),
		},
	}

	return s.query(ctx, tenantID, vector, topK, filter)
}

func (s *QdrantStore) query(ctx context.Context, tenantID string, vector []float32, topK int, filter *qdrant.Filter) ([]SearchResult, error) {
	name := s.collectionName(tenantID)

	response, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0, len(response))
	for _, point := range response {
		result := SearchResult{
			ID:    point.Id.GetUuid(),
			Score: point.Score,
		}

		if payload := point.Payload; payload != nil {
			if kind, ok := payload["kind"]; ok {
				result.Kind = kind.GetStringValue()
			}
			if resumeID, ok := payload["resume_id"]; ok {
				result.ResumeID = resumeID.GetStringValue()
			}
			if index, ok := payload["chunk_index"]; ok {
				result.Index = int(index.GetIntegerValue())
			}
			if content, ok := payload["content"]; ok {
				result.Content = content.GetStringValue()
			}
		}

		results = append(results, result)
	}

	return results, nil
}

// DeleteResume removes every point stored for a resume
func (s *QdrantStore) DeleteResume(ctx context.Context, tenantID, resumeID string) error {
	name := s.collectionName(tenantID)

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("resume_id", resumeID),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete resume points: %w", err)
	}

	return nil
}

// Ensure QdrantStore implements VectorStore
var _ VectorStore = (*QdrantStore)(nil)
