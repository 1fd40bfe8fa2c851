package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultOpenAIBaseURL is the default OpenAI API base URL.
	DefaultOpenAIBaseURL = "https://api.openai.com"

	// DefaultOpenAIModel is the default embedding model.
	DefaultOpenAIModel = "text-embedding-3-small"

	// DefaultOpenAIMaxRetries is the default number of retries for transient errors.
	DefaultOpenAIMaxRetries = 3
)

// OpenAIConfig holds configuration for the OpenAI embedder.
type OpenAIConfig struct {
	// BaseURL is the OpenAI API base URL (default: https://api.openai.com).
	BaseURL string

	// APIKey is the OpenAI API key. Required.
	APIKey string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Dimension is the embedding dimension. Defaults from the model table.
	Dimension int

	// MaxRetries is the number of retries for transient errors.
	MaxRetries int

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// OpenAIEmbedder implements the Embedder interface using the OpenAI
// embeddings API. Unlike Ollama, a single request embeds a whole batch.
type OpenAIEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	maxRetries int
	client     *http.Client
}

type openaiEmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openaiEmbeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewOpenAIEmbedder creates a new OpenAI embedder with the given configuration.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = GetModelConfig(model).Dimension
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultOpenAIMaxRetries
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	return &OpenAIEmbedder{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      model,
		dimension:  dimension,
		maxRetries: maxRetries,
		client:     client,
	}, nil
}

// Embed generates an embedding vector for a single text input.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embedding vectors for multiple text inputs in a
// single API call. Results are ordered by the response index field.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	reqBody := openaiEmbeddingsRequest{
		Model: e.model,
		Input: texts,
	}

	var embResp openaiEmbeddingsResponse
	if err := e.post(ctx, "/v1/embeddings", reqBody, &embResp); err != nil {
		return nil, err
	}

	results := make([][]float32, len(texts))
	for _, d := range embResp.Data {
		if d.Index < 0 || d.Index >= len(results) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		results[d.Index] = vec
	}

	for i := range results {
		if results[i] == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}

	return results, nil
}

// post sends a JSON request and retries transient failures with
// exponential backoff (1s doubling, capped at 10s).
func (e *OpenAIEmbedder) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := time.Second
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		status, raw, err := e.doOnce(ctx, path, jsonBody)
		if err == nil && status == http.StatusOK {
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("openai API error (status %d): %s", status, string(raw))
			if !retryableStatus(status) {
				return lastErr
			}
		}

		if attempt == e.maxRetries {
			break
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}

	return fmt.Errorf("failed to embed after %d attempts: %w", e.maxRetries+1, lastErr)
}

func (e *OpenAIEmbedder) doOnce(ctx context.Context, path string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, raw, nil
}

func retryableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= 500
}

// Dimension returns the dimensionality of the embedding vectors.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// ModelName returns the name of the embedding model being used.
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Ensure OpenAIEmbedder implements Embedder interface.
var _ Embedder = (*OpenAIEmbedder)(nil)
