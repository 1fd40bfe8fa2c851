package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultOpenAIBaseURL is the default OpenAI API base URL.
	DefaultOpenAIBaseURL = "https://api.openai.com"

	// DefaultOpenAIModel is the default chat model.
	DefaultOpenAIModel = "gpt-4o"

	// DefaultOpenAIMaxRetries is the default number of retries for transient errors.
	DefaultOpenAIMaxRetries = 3
)

// OpenAIClient implements the LLM interface using the OpenAI chat
// completions API. Transient failures (timeouts, rate limits, 5xx) are
// retried with exponential backoff before giving up with ErrUnavailable.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	httpClient *http.Client
}

// OpenAIOption is a functional option for configuring OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithOpenAIBaseURL sets a custom base URL for the OpenAI API.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *OpenAIClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithOpenAIModel sets the default model for the client.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *OpenAIClient) {
		c.model = model
	}
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(c *OpenAIClient) {
		c.httpClient = client
	}
}

// WithOpenAIMaxRetries sets the number of retries for transient errors.
func WithOpenAIMaxRetries(n int) OpenAIOption {
	return func(c *OpenAIClient) {
		c.maxRetries = n
	}
}

// NewOpenAIClient creates a new OpenAI LLM client with the given options.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	c := &OpenAIClient{
		baseURL:    DefaultOpenAIBaseURL,
		apiKey:     apiKey,
		model:      DefaultOpenAIModel,
		maxRetries: DefaultOpenAIMaxRetries,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float32         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openaiChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate sends a prompt to OpenAI and returns the complete response.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Result, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}

	var messages []openaiMessage
	if opts.SystemPrompt != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: opts.SystemPrompt})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: prompt})

	reqBody := openaiChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var chatResp openaiChatResponse
	if err := c.do(ctx, "/v1/chat/completions", jsonBody, &chatResp); err != nil {
		return nil, err
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	servedModel := chatResp.Model
	if servedModel == "" {
		servedModel = model
	}

	return &Result{
		Text:       chatResp.Choices[0].Message.Content,
		Model:      servedModel,
		TokensUsed: chatResp.Usage.TotalTokens,
	}, nil
}

// do sends a request with retries. Backoff starts at 1s and doubles up to
// 10s, with a Retry-After header taking precedence when the server sends one.
func (c *OpenAIClient) do(ctx context.Context, path string, body []byte, out any) error {
	backoff := time.Second
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		status, header, raw, err := c.doOnce(ctx, path, body)
		switch {
		case err != nil:
			lastErr = err
		case status == http.StatusOK:
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			return nil
		default:
			lastErr = fmt.Errorf("openai API error (status %d): %s", status, string(raw))
			if !retryable(status) {
				return lastErr
			}
		}

		if attempt == c.maxRetries {
			break
		}

		sleep := backoff
		if ra, ok := retryAfter(header); ok {
			sleep = ra
		}
		if sleep > 10*time.Second {
			sleep = 10 * time.Second
		}
		sleep = jitter(sleep)

		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *OpenAIClient) doOnce(ctx context.Context, path string, body []byte) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, resp.Header, nil, fmt.Errorf("reading response: %w", err)
	}

	return resp.StatusCode, resp.Header, raw, nil
}

func retryable(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= 500
}

// retryAfter parses the Retry-After header as whole seconds.
func retryAfter(h http.Header) (time.Duration, bool) {
	if h == nil {
		return 0, false
	}
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// jitter spreads a delay by plus or minus 20 percent so synchronized
// workers do not retry in lockstep.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	delta := 0.2 * d.Seconds()
	low := d.Seconds() - delta
	v := low + rand.Float64()*2*delta
	return time.Duration(v * float64(time.Second))
}

// Ensure OpenAIClient implements LLM interface.
var _ LLM = (*OpenAIClient)(nil)
