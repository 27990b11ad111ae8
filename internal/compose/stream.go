package compose

import (
	"time"

	"github.com/google/uuid"

	"github.com/cascadehq/cascade/internal/dispatch"
	"github.com/cascadehq/cascade/internal/domain"
)

// Meta carries the identifiers shared by every frame of one streamed
// completion. It is minted once per stream, before the first frame.
type Meta struct {
	ID      string
	Model   string
	Created int64
}

// NewChatMeta mints stream metadata for the classic flavor.
func NewChatMeta(model string) Meta {
	return Meta{ID: "chatcmpl-" + uuid.NewString(), Model: model, Created: time.Now().Unix()}
}

// NewResponsesMeta mints stream metadata for the responses flavor.
func NewResponsesMeta(model string) Meta {
	return Meta{ID: "resp_" + uuid.NewString(), Model: model, Created: time.Now().Unix()}
}

// ChatChunk is one classic streaming frame.
type ChatChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

// ChunkChoice is the single choice inside a streaming frame.
type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// ChunkDelta holds the incremental payload of one frame.
type ChunkDelta struct {
	Role      string                    `json:"role,omitempty"`
	Content   string                    `json:"content,omitempty"`
	ToolCalls []domain.ToolCallFragment `json:"tool_calls,omitempty"`
}

// ChatDeltaChunk reshapes one delta into a classic chunk. The first chunk
// of a stream announces the assistant role.
func ChatDeltaChunk(meta Meta, d domain.Delta, first bool) ChatChunk {
	delta := ChunkDelta{Content: d.Content, ToolCalls: d.ToolCalls}
	if first {
		delta.Role = domain.RoleAssistant
	}
	return ChatChunk{
		ID:      meta.ID,
		Object:  "chat.completion.chunk",
		Created: meta.Created,
		Model:   meta.Model,
		Choices: []ChunkChoice{{Index: 0, Delta: delta}},
	}
}

// ChatFinishChunk is the closing frame before [DONE]: an empty delta
// carrying the finish reason.
func ChatFinishChunk(meta Meta, reason string) ChatChunk {
	return ChatChunk{
		ID:      meta.ID,
		Object:  "chat.completion.chunk",
		Created: meta.Created,
		Model:   meta.Model,
		Choices: []ChunkChoice{{Index: 0, FinishReason: &reason}},
	}
}

// ResponseCreated opens a responses-flavor stream.
type ResponseCreated struct {
	Type     string   `json:"type"`
	Response Response `json:"response"`
}

// NewResponseCreated builds the opening frame.
func NewResponseCreated(meta Meta) ResponseCreated {
	return ResponseCreated{
		Type: "response.created",
		Response: Response{
			ID:        meta.ID,
			Object:    "response",
			CreatedAt: meta.Created,
			Status:    "in_progress",
			Model:     meta.Model,
			Output:    []OutputItem{},
		},
	}
}

// OutputTextDelta carries one text fragment of a responses-flavor stream.
type OutputTextDelta struct {
	Type  string `json:"type"`
	Delta string `json:"delta"`
}

// NewOutputTextDelta builds a text-fragment frame.
func NewOutputTextDelta(text string) OutputTextDelta {
	return OutputTextDelta{Type: "response.output_text.delta", Delta: text}
}

// FunctionCallArgumentsDelta carries one tool-call fragment of a
// responses-flavor stream. CallID and Name appear only on the fragments
// that supplied them.
type FunctionCallArgumentsDelta struct {
	Type        string `json:"type"`
	OutputIndex int    `json:"output_index"`
	CallID      string `json:"call_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Delta       string `json:"delta"`
}

// NewFunctionCallArgumentsDelta builds a tool-fragment frame.
func NewFunctionCallArgumentsDelta(frag domain.ToolCallFragment) FunctionCallArgumentsDelta {
	return FunctionCallArgumentsDelta{
		Type:        "response.function_call_arguments.delta",
		OutputIndex: frag.Index,
		CallID:      frag.ID,
		Name:        frag.Function.Name,
		Delta:       frag.Function.Arguments,
	}
}

// ResponseCompleted closes a responses-flavor stream before [DONE],
// carrying the same aggregated response a non-streaming call would return.
type ResponseCompleted struct {
	Type     string   `json:"type"`
	Response Response `json:"response"`
}

// NewResponseCompleted builds the closing sentinel from the aggregate of
// everything streamed so far.
func NewResponseCompleted(meta Meta, res *dispatch.Result, usage domain.Usage) ResponseCompleted {
	return ResponseCompleted{
		Type:     "response.completed",
		Response: buildResponse(meta.ID, meta.Created, meta.Model, res, usage),
	}
}
