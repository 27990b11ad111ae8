package domain

// Canonical role values. Normalization maps every caller-supplied role
// spelling onto exactly one of these.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Message is one canonical conversation entry. Content is always a flat
// string after normalization; tool linkage fields pass through verbatim.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a complete, reassembled call emitted by a model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the resolved function name and its JSON-encoded
// argument string.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition represents a tool the model may call.
type ToolDefinition struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef describes the function signature.
type FunctionDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"` // JSON Schema
}

// Delta is one incremental unit of model output. A backend stream yields
// zero or more deltas and then closes; Err reports a mid-stream failure as
// the final delta before close.
type Delta struct {
	Content   string
	ToolCalls []ToolCallFragment
	Err       error
}

// ToolCallFragment is a partial tool call. Fragments sharing an Index
// belong to the same eventual ToolCall: the first fragment supplies the ID,
// and Name/Arguments accumulate by concatenation in arrival order.
type ToolCallFragment struct {
	Index    int              `json:"index"`
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function FunctionFragment `json:"function"`
}

// FunctionFragment holds partial name/argument strings.
type FunctionFragment struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Usage represents token usage. Values are heuristic estimates, not
// backend-reported counts; TotalTokens is always the exact sum of the
// other two.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Model describes a model entry exposed via GET /v1/models.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by,omitempty"`
	Created int64  `json:"created,omitempty"`
}

// ModelList is the model listing response.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}
