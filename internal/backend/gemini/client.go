package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cascadehq/cascade/internal/domain"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client talks to the Generative Language API. Safe for concurrent use;
// constructed once per process.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// New creates a Gemini client.
func New(apiKey, model string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies this backend in logs, metrics, and health output.
func (c *Client) Name() string {
	return "gemini"
}

// Chat sends the conversation to streamGenerateContent and returns the
// delta stream.
func (c *Client) Chat(ctx context.Context, messages []domain.Message, tools []domain.ToolDefinition) (<-chan domain.Delta, error) {
	body, err := json.Marshal(buildRequest(messages, tools))
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	httpReq.Header.Set("User-Agent", "cascade/1.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, parseError(resp.StatusCode, respBody)
	}

	out := make(chan domain.Delta)
	go c.streamReader(resp.Body, out)
	return out, nil
}

func (c *Client) streamReader(body io.ReadCloser, out chan<- domain.Delta) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	// Gemini reports whole function calls, never fragments; each one gets
	// the next index and a synthesized id so downstream reassembly sees the
	// same shape as the OpenAI-compatible backends.
	nextIndex := 0

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}

		var frame generateResponse
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			out <- domain.Delta{Err: fmt.Errorf("gemini: malformed chunk: %w", err)}
			return
		}
		if len(frame.Candidates) == 0 {
			continue
		}

		var delta domain.Delta
		for _, p := range frame.Candidates[0].Content.Parts {
			if p.Text != "" {
				delta.Content += p.Text
			}
			if p.FunctionCall != nil && p.FunctionCall.Name != "" {
				args, err := json.Marshal(p.FunctionCall.Args)
				if err != nil {
					args = []byte("{}")
				}
				delta.ToolCalls = append(delta.ToolCalls, domain.ToolCallFragment{
					Index: nextIndex,
					ID:    "call_" + uuid.NewString(),
					Type:  "function",
					Function: domain.FunctionFragment{
						Name:      p.FunctionCall.Name,
						Arguments: string(args),
					},
				})
				nextIndex++
			}
		}

		if delta.Content == "" && len(delta.ToolCalls) == 0 {
			continue
		}
		out <- delta
	}

	if err := scanner.Err(); err != nil {
		out <- domain.Delta{Err: fmt.Errorf("gemini: stream read: %w", err)}
	}
}
