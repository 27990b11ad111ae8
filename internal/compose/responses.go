package compose

import (
	"time"

	"github.com/google/uuid"

	"github.com/cascadehq/cascade/internal/dispatch"
	"github.com/cascadehq/cascade/internal/domain"
)

// Response is the responses/agent flavor object.
type Response struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`

	// Status is "requires_action" when tool calls await the caller,
	// otherwise "completed" ("in_progress" only inside stream frames).
	Status string `json:"status"`

	Model          string          `json:"model"`
	Output         []OutputItem    `json:"output"`
	RequiredAction *RequiredAction `json:"required_action,omitempty"`
	Usage          *domain.Usage   `json:"usage,omitempty"`
}

// OutputItem is one entry in the response output array.
type OutputItem struct {
	Type    string        `json:"type"`
	ID      string        `json:"id,omitempty"`
	Role    string        `json:"role,omitempty"`
	Content []ContentPart `json:"content"`
	Status  string        `json:"status,omitempty"`
}

// ContentPart is one text block inside a message output item.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// RequiredAction hands reassembled tool calls to the caller for execution.
type RequiredAction struct {
	Type              string            `json:"type"`
	SubmitToolOutputs SubmitToolOutputs `json:"submit_tool_outputs"`
}

// SubmitToolOutputs carries the tool calls awaiting outputs.
type SubmitToolOutputs struct {
	ToolCalls []domain.ToolCall `json:"tool_calls"`
}

// Responses renders a completed dispatch in the responses/agent flavor.
func Responses(model string, res *dispatch.Result, usage domain.Usage) Response {
	return buildResponse("resp_"+uuid.NewString(), time.Now().Unix(), model, res, usage)
}

func buildResponse(id string, createdAt int64, model string, res *dispatch.Result, usage domain.Usage) Response {
	// Content stays a non-nil array so "no text" serializes as [].
	content := []ContentPart{}
	if res.Text != "" {
		content = append(content, ContentPart{Type: "text", Text: res.Text})
	}

	resp := Response{
		ID:        id,
		Object:    "response",
		CreatedAt: createdAt,
		Status:    "completed",
		Model:     model,
		Output: []OutputItem{{
			Type:    "message",
			ID:      "item_" + uuid.NewString(),
			Role:    domain.RoleAssistant,
			Content: content,
			Status:  "completed",
		}},
		Usage: &usage,
	}

	if len(res.ToolCalls) > 0 {
		resp.Status = "requires_action"
		resp.RequiredAction = &RequiredAction{
			Type:              "submit_tool_outputs",
			SubmitToolOutputs: SubmitToolOutputs{ToolCalls: res.ToolCalls},
		}
	}

	return resp
}
