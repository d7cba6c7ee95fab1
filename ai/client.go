package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ai-character-chat/backend/pkg/errors"
)

// Inference is the boundary the orchestrator and the embedding pipeline use
// to talk to the external AI service.
type Inference interface {
	GenerateReply(ctx context.Context, message, characterHandle, characterInfo string) (string, error)
	Embed(ctx context.Context, content string) ([]float32, error)
}

// Client is a thin HTTP client for the inference service. It performs no
// retries; callers own the retry policy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	chatPath   string
	embedPath  string
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	ChatPath  string
	EmbedPath string
	Timeout   time.Duration
}

// NewClient creates an inference client with a bounded request timeout.
func NewClient(opts Options) *Client {
	if opts.ChatPath == "" {
		opts.ChatPath = "/chat"
	}
	if opts.EmbedPath == "" {
		opts.EmbedPath = "/embed"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.BaseURL,
		chatPath:   opts.ChatPath,
		embedPath:  opts.EmbedPath,
	}
}

// GenerateReply asks the inference service for a persona reply. Transport
// errors, timeouts and non-2xx statuses all surface as INFERENCE_UNAVAILABLE.
// An empty reply is returned as-is.
func (c *Client) GenerateReply(ctx context.Context, message, characterHandle, characterInfo string) (string, error) {
	req := ChatRequest{
		Message:          message,
		CharacterID:      characterHandle,
		CharacterInfo:    characterInfo,
		EmotionIntensity: 0.5,
	}

	var resp ChatResponse
	if err := c.post(ctx, c.chatPath, req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Embed turns a text blob into an embedding vector.
func (c *Client) Embed(ctx context.Context, content string) ([]float32, error) {
	req := EmbedRequest{Content: content}

	var resp EmbedResponse
	if err := c.post(ctx, c.embedPath, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, errors.NewInferenceUnavailable("inference service returned an empty embedding")
	}
	return resp.Embedding, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.NewInternal(fmt.Sprintf("marshal inference request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.NewInternal(fmt.Sprintf("build inference request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.NewInferenceUnavailable(fmt.Sprintf("inference request failed: %v", err))
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return errors.NewInferenceUnavailable(fmt.Sprintf("inference service returned status %d", httpResp.StatusCode))
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return errors.NewInferenceUnavailable(fmt.Sprintf("decode inference response: %v", err))
	}
	return nil
}
