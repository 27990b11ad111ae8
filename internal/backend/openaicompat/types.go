// Package openaicompat implements the backend capability for upstream APIs
// speaking the OpenAI chat-completions protocol. Groq, Cerebras, and
// OpenRouter all do; they differ only in base URL, credential, model, and
// vendor headers.
package openaicompat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cascadehq/cascade/internal/domain"
)

// chatRequest is the upstream request body. Canonical messages and tool
// definitions already carry OpenAI-shaped JSON tags, so they serialize
// directly.
type chatRequest struct {
	Model    string                  `json:"model"`
	Messages []domain.Message        `json:"messages"`
	Tools    []domain.ToolDefinition `json:"tools,omitempty"`
	Stream   bool                    `json:"stream"`
}

// chatChunk is one SSE frame of a streaming completion.
type chatChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

type chunkDelta struct {
	Role      string                    `json:"role,omitempty"`
	Content   string                    `json:"content,omitempty"`
	ToolCalls []domain.ToolCallFragment `json:"tool_calls,omitempty"`
}

type errorResponse struct {
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    any    `json:"code,omitempty"`
}

// parseError turns a non-200 upstream body into an error, preferring the
// structured message when one is present.
func parseError(name string, status int, body []byte) error {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != nil && er.Error.Message != "" {
		return fmt.Errorf("%s: upstream status %d: %s", name, status, er.Error.Message)
	}
	return fmt.Errorf("%s: upstream status %d: %s", name, status, strings.TrimSpace(string(body)))
}
