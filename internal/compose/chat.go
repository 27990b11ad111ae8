// Package compose renders dispatch results into the wire shapes callers
// expect. Two flavors (classic chat completion and responses/agent), each
// in a buffered and a streaming form; all four are pure mappings over the
// same canonical result.
package compose

import (
	"time"

	"github.com/google/uuid"

	"github.com/cascadehq/cascade/internal/dispatch"
	"github.com/cascadehq/cascade/internal/domain"
)

// ExhaustedText is the placeholder assistant message sent when every
// backend was exhausted. Exhaustion answers 200 with this text instead of
// an error status: several orchestration clients abort their whole flow on
// any non-2xx from a completion endpoint.
const ExhaustedText = "I'm sorry, all upstream model backends are currently unavailable. Please try again in a moment."

// ChatCompletion is the classic chat-completion object.
type ChatCompletion struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []Choice     `json:"choices"`
	Usage   domain.Usage `json:"usage"`
}

// Choice is one completion choice. The proxy always produces exactly one.
type Choice struct {
	Index        int            `json:"index"`
	Message      domain.Message `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

// Chat renders a completed dispatch in the classic flavor.
func Chat(model string, res *dispatch.Result, usage domain.Usage) ChatCompletion {
	return ChatCompletion{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []Choice{{
			Index: 0,
			Message: domain.Message{
				Role:      domain.RoleAssistant,
				Content:   res.Text,
				ToolCalls: res.ToolCalls,
			},
			FinishReason: finishReason(res),
		}},
		Usage: usage,
	}
}

// finishReason is "tool_calls" when the result carries any tool call,
// otherwise "stop".
func finishReason(res *dispatch.Result) string {
	if len(res.ToolCalls) > 0 {
		return "tool_calls"
	}
	return "stop"
}
