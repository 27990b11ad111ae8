package compose

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/cascadehq/cascade/internal/dispatch"
	"github.com/cascadehq/cascade/internal/domain"
	"github.com/cascadehq/cascade/internal/tokens"
)

var sampleCall = domain.ToolCall{
	ID:   "call_1",
	Type: "function",
	Function: domain.FunctionCall{
		Name:      "get_weather",
		Arguments: `{"city":"NY"}`,
	},
}

func TestChat_TextResult(t *testing.T) {
	res := &dispatch.Result{Text: "hello", ServedBy: "groq"}
	usage := tokens.EstimateUsage(1, res.Text, false)

	out := Chat("cascade-1", res, usage)

	if !strings.HasPrefix(out.ID, "chatcmpl-") {
		t.Errorf("ID = %q, want chatcmpl- prefix", out.ID)
	}
	if out.Object != "chat.completion" {
		t.Errorf("Object = %q", out.Object)
	}
	if len(out.Choices) != 1 {
		t.Fatalf("len(Choices) = %d, want 1", len(out.Choices))
	}
	choice := out.Choices[0]
	if choice.Message.Role != domain.RoleAssistant {
		t.Errorf("Role = %q", choice.Message.Role)
	}
	if choice.Message.Content != "hello" {
		t.Errorf("Content = %q, want %q", choice.Message.Content, "hello")
	}
	if choice.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want %q", choice.FinishReason, "stop")
	}
	if out.Usage.TotalTokens != out.Usage.PromptTokens+out.Usage.CompletionTokens {
		t.Errorf("usage arithmetic broken: %+v", out.Usage)
	}
}

func TestChat_ToolCallResult(t *testing.T) {
	res := &dispatch.Result{ToolCalls: []domain.ToolCall{sampleCall}, ServedBy: "groq"}
	out := Chat("cascade-1", res, tokens.EstimateUsage(2, "", true))

	if out.Choices[0].FinishReason != "tool_calls" {
		t.Errorf("FinishReason = %q, want %q", out.Choices[0].FinishReason, "tool_calls")
	}
	if len(out.Choices[0].Message.ToolCalls) != 1 {
		t.Fatalf("len(ToolCalls) = %d, want 1", len(out.Choices[0].Message.ToolCalls))
	}
	if out.Usage.CompletionTokens != 50 {
		t.Errorf("CompletionTokens = %d, want flat 50 for tool calls", out.Usage.CompletionTokens)
	}
}

func TestResponses_TextResult(t *testing.T) {
	res := &dispatch.Result{Text: "fine, thanks", ServedBy: "gemini"}
	out := Responses("cascade-1", res, tokens.EstimateUsage(1, res.Text, false))

	if !strings.HasPrefix(out.ID, "resp_") {
		t.Errorf("ID = %q, want resp_ prefix", out.ID)
	}
	if out.Object != "response" {
		t.Errorf("Object = %q", out.Object)
	}
	if out.Status != "completed" {
		t.Errorf("Status = %q, want %q", out.Status, "completed")
	}
	if len(out.Output) != 1 || out.Output[0].Type != "message" {
		t.Fatalf("Output = %+v, want one message item", out.Output)
	}
	content := out.Output[0].Content
	if len(content) != 1 || content[0].Type != "text" || content[0].Text != "fine, thanks" {
		t.Errorf("Content = %+v", content)
	}
	if out.RequiredAction != nil {
		t.Errorf("RequiredAction = %+v, want nil without tool calls", out.RequiredAction)
	}
}

func TestResponses_ToolCallsRequireAction(t *testing.T) {
	res := &dispatch.Result{ToolCalls: []domain.ToolCall{sampleCall}, ServedBy: "groq"}
	out := Responses("cascade-1", res, tokens.EstimateUsage(1, "", true))

	if out.Status != "requires_action" {
		t.Errorf("Status = %q, want %q", out.Status, "requires_action")
	}
	if out.RequiredAction == nil {
		t.Fatal("RequiredAction = nil, want submit_tool_outputs block")
	}
	if out.RequiredAction.Type != "submit_tool_outputs" {
		t.Errorf("RequiredAction.Type = %q", out.RequiredAction.Type)
	}
	calls := out.RequiredAction.SubmitToolOutputs.ToolCalls
	if len(calls) != 1 || calls[0].Function.Name != "get_weather" {
		t.Errorf("ToolCalls = %+v", calls)
	}
}

func TestResponses_EmptyTextSerializesAsEmptyArray(t *testing.T) {
	res := &dispatch.Result{ToolCalls: []domain.ToolCall{sampleCall}}
	out := Responses("cascade-1", res, tokens.EstimateUsage(1, "", true))

	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"content":[]`) {
		t.Errorf("serialized response lacks empty content array: %s", data)
	}
}

func TestChatDeltaChunk_FirstChunkCarriesRole(t *testing.T) {
	meta := NewChatMeta("cascade-1")

	first := ChatDeltaChunk(meta, domain.Delta{Content: "hi"}, true)
	if first.Choices[0].Delta.Role != domain.RoleAssistant {
		t.Errorf("first chunk Role = %q, want assistant", first.Choices[0].Delta.Role)
	}
	if first.Object != "chat.completion.chunk" {
		t.Errorf("Object = %q", first.Object)
	}
	if first.Choices[0].FinishReason != nil {
		t.Errorf("FinishReason = %v, want nil mid-stream", *first.Choices[0].FinishReason)
	}

	second := ChatDeltaChunk(meta, domain.Delta{Content: " there"}, false)
	if second.Choices[0].Delta.Role != "" {
		t.Errorf("second chunk Role = %q, want empty", second.Choices[0].Delta.Role)
	}
	if second.ID != first.ID {
		t.Errorf("chunk IDs differ within one stream: %q vs %q", second.ID, first.ID)
	}
}

func TestChatFinishChunk(t *testing.T) {
	meta := NewChatMeta("cascade-1")
	chunk := ChatFinishChunk(meta, "tool_calls")

	choice := chunk.Choices[0]
	if choice.FinishReason == nil || *choice.FinishReason != "tool_calls" {
		t.Fatalf("FinishReason = %v, want tool_calls", choice.FinishReason)
	}
	if choice.Delta.Content != "" || len(choice.Delta.ToolCalls) != 0 {
		t.Errorf("finish chunk delta not empty: %+v", choice.Delta)
	}

	data, err := json.Marshal(chunk)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"finish_reason":"tool_calls"`) {
		t.Errorf("serialized finish chunk: %s", data)
	}
}

func TestResponsesStreamFrames(t *testing.T) {
	meta := NewResponsesMeta("cascade-1")

	created := NewResponseCreated(meta)
	if created.Type != "response.created" {
		t.Errorf("Type = %q", created.Type)
	}
	if created.Response.Status != "in_progress" {
		t.Errorf("Status = %q, want in_progress", created.Response.Status)
	}

	text := NewOutputTextDelta("chunk")
	if text.Type != "response.output_text.delta" || text.Delta != "chunk" {
		t.Errorf("text frame = %+v", text)
	}

	frag := domain.ToolCallFragment{
		Index:    2,
		ID:       "call_9",
		Function: domain.FunctionFragment{Name: "fn", Arguments: `{"a`},
	}
	args := NewFunctionCallArgumentsDelta(frag)
	if args.Type != "response.function_call_arguments.delta" {
		t.Errorf("Type = %q", args.Type)
	}
	if args.OutputIndex != 2 || args.CallID != "call_9" || args.Delta != `{"a` {
		t.Errorf("args frame = %+v", args)
	}

	res := &dispatch.Result{Text: "done", ServedBy: "groq"}
	completed := NewResponseCompleted(meta, res, tokens.EstimateUsage(1, "done", false))
	if completed.Type != "response.completed" {
		t.Errorf("Type = %q", completed.Type)
	}
	if completed.Response.ID != meta.ID {
		t.Errorf("completed frame minted a new ID: %q vs %q", completed.Response.ID, meta.ID)
	}
	if completed.Response.Status != "completed" {
		t.Errorf("Status = %q", completed.Response.Status)
	}
}
