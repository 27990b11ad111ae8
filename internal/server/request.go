package server

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/cascadehq/cascade/internal/domain"
	"github.com/cascadehq/cascade/internal/normalize"
)

// chatRequest is the superset of fields the proxy reads from any of the
// chat-style endpoints. Conversation content may arrive under messages,
// input, or prompt depending on which client SDK produced the payload, so
// all three stay untyped until conversation() picks one.
type chatRequest struct {
	Messages any    `json:"messages"`
	Input    any    `json:"input"`
	Prompt   any    `json:"prompt"`
	Tools    any    `json:"tools"`
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
}

func decodeRequest(body io.Reader) (*chatRequest, error) {
	var req chatRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// conversation resolves the request's message sequence. The first populated
// field wins, in messages, input, prompt order. A bare string becomes a
// single user message; anything else goes through normalization.
func (r *chatRequest) conversation() []domain.Message {
	for _, raw := range []any{r.Messages, r.Input, r.Prompt} {
		if raw == nil {
			continue
		}
		if s, ok := raw.(string); ok {
			if strings.TrimSpace(s) == "" {
				continue
			}
			return []domain.Message{{Role: domain.RoleUser, Content: s}}
		}
		if msgs := normalize.Messages(raw); len(msgs) > 0 {
			return msgs
		}
	}
	return []domain.Message{}
}

// toolset resolves the request's tool definitions, nil when none usable.
func (r *chatRequest) toolset() []domain.ToolDefinition {
	return normalize.Tools(r.Tools)
}
