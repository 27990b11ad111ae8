package openaicompat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cascadehq/cascade/internal/domain"
)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader adds a header to every upstream request. OpenRouter uses this
// for its HTTP-Referer and X-Title attribution headers.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.extraHeaders[key] = value
	}
}

// Client talks to one OpenAI-compatible upstream. It is safe for
// concurrent use and is constructed once per process.
type Client struct {
	name         string
	apiKey       string
	model        string
	baseURL      string
	extraHeaders map[string]string
	httpClient   *http.Client
}

// New creates a client for the upstream at baseURL. The default HTTP
// client carries no overall timeout: completions stream for minutes, and
// request cancellation comes from the caller's context instead.
func New(name, apiKey, model, baseURL string, opts ...Option) *Client {
	c := &Client{
		name:         name,
		apiKey:       apiKey,
		model:        model,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		extraHeaders: make(map[string]string),
		httpClient:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies this backend in logs, metrics, and health output.
func (c *Client) Name() string {
	return c.name
}

// Chat sends the conversation upstream and returns the delta stream.
// The upstream call is always streaming; aggregation for non-streaming
// callers happens in the dispatch engine.
func (c *Client) Chat(ctx context.Context, messages []domain.Message, tools []domain.ToolDefinition) (<-chan domain.Delta, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	}
	if len(tools) > 0 {
		reqBody.Tools = tools
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", c.name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.name, err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", c.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, parseError(c.name, resp.StatusCode, respBody)
	}

	out := make(chan domain.Delta)
	go c.streamReader(resp.Body, out)
	return out, nil
}

func (c *Client) streamReader(body io.ReadCloser, out chan<- domain.Delta) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	// Large chunks show up in practice; grow the line buffer well past the
	// bufio default.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			out <- domain.Delta{Err: fmt.Errorf("%s: malformed chunk: %w", c.name, err)}
			return
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content == "" && len(delta.ToolCalls) == 0 {
			continue
		}
		out <- domain.Delta{Content: delta.Content, ToolCalls: delta.ToolCalls}
	}

	if err := scanner.Err(); err != nil {
		out <- domain.Delta{Err: fmt.Errorf("%s: stream read: %w", c.name, err)}
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "cascade/1.0")
	for k, v := range c.extraHeaders {
		req.Header.Set(k, v)
	}
}
