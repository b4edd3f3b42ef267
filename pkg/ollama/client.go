// Package ollama implements the textgen interfaces against a local Ollama
// server's REST API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sells-group/filing-cli/pkg/textgen"
)

// Client talks to one Ollama server. It is stateless per request and safe
// for concurrent use.
type Client struct {
	baseURL        string
	generateModel  string
	embeddingModel string
	http           *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (used in tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-call response timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithEmbeddingModel sets the model used for Embed calls.
func WithEmbeddingModel(model string) Option {
	return func(c *Client) { c.embeddingModel = model }
}

// NewClient creates a client for the given server URL and generation model.
func NewClient(baseURL, generateModel string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		generateModel:  generateModel,
		embeddingModel: generateModel,
		http:           &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate issues one non-streaming completion call.
func (c *Client) Generate(ctx context.Context, prompt string, opts textgen.Options) (string, error) {
	body := generateRequest{
		Model:  c.generateModel,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	}

	var out generateResponse
	if err := c.post(ctx, "/api/generate", body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	body := embedRequest{Model: c.embeddingModel, Prompt: text}

	var out embedResponse
	if err := c.post(ctx, "/api/embeddings", body, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, &textgen.Error{Kind: textgen.KindMalformed, Err: errors.New("empty embedding")}
	}
	return out.Embedding, nil
}

// Ping checks that the server is reachable. It does not verify model
// availability; model lifecycle is not this client's concern.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return &textgen.Error{Kind: textgen.KindUnreachable, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &textgen.Error{Kind: textgen.KindStatus, Status: resp.StatusCode, Err: fmt.Errorf("version check returned %d", resp.StatusCode)}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &textgen.Error{Kind: textgen.KindMalformed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &textgen.Error{Kind: textgen.KindUnreachable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &textgen.Error{
			Kind:   textgen.KindStatus,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s returned %d", path, resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &textgen.Error{Kind: textgen.KindMalformed, Err: err}
	}
	return nil
}

// classifyTransportError maps transport failures onto the textgen taxonomy.
// Timeouts and cancellations are reported as KindTimeout; everything else is
// KindUnreachable.
func classifyTransportError(err error) *textgen.Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &textgen.Error{Kind: textgen.KindTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &textgen.Error{Kind: textgen.KindTimeout, Err: err}
	}
	return &textgen.Error{Kind: textgen.KindUnreachable, Err: err}
}
