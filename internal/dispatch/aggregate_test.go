package dispatch

import (
	"reflect"
	"testing"

	"github.com/cascadehq/cascade/internal/domain"
)

func TestCollector_TextConcatenation(t *testing.T) {
	col := NewCollector()
	for _, s := range []string{"The ", "quick ", "", "fox"} {
		col.Add(domain.Delta{Content: s})
	}

	res := col.Result()
	if res.Text != "The quick fox" {
		t.Errorf("Text = %q, want %q", res.Text, "The quick fox")
	}
	if len(res.ToolCalls) != 0 {
		t.Errorf("ToolCalls = %+v, want none", res.ToolCalls)
	}
}

func TestCollector_ToolCallReassembly(t *testing.T) {
	col := NewCollector()
	col.Add(domain.Delta{ToolCalls: []domain.ToolCallFragment{{
		Index:    0,
		ID:       "call_abc",
		Function: domain.FunctionFragment{Name: "get_", Arguments: ""},
	}}})
	col.Add(domain.Delta{ToolCalls: []domain.ToolCallFragment{{
		Index:    0,
		Function: domain.FunctionFragment{Name: "weather", Arguments: `{"c`},
	}}})
	col.Add(domain.Delta{ToolCalls: []domain.ToolCallFragment{{
		Index:    0,
		Function: domain.FunctionFragment{Arguments: `ity":"NY"}`},
	}}})

	res := col.Result()
	if len(res.ToolCalls) != 1 {
		t.Fatalf("len(ToolCalls) = %d, want 1", len(res.ToolCalls))
	}

	want := domain.ToolCall{
		ID:   "call_abc",
		Type: "function",
		Function: domain.FunctionCall{
			Name:      "get_weather",
			Arguments: `{"city":"NY"}`,
		},
	}
	if !reflect.DeepEqual(res.ToolCalls[0], want) {
		t.Errorf("ToolCalls[0] = %+v, want %+v", res.ToolCalls[0], want)
	}
}

func TestCollector_InterleavedIndexesKeepFirstSeenOrder(t *testing.T) {
	col := NewCollector()
	col.Add(domain.Delta{ToolCalls: []domain.ToolCallFragment{
		{Index: 1, ID: "call_second", Function: domain.FunctionFragment{Name: "beta"}},
	}})
	col.Add(domain.Delta{ToolCalls: []domain.ToolCallFragment{
		{Index: 0, ID: "call_first", Function: domain.FunctionFragment{Name: "alpha"}},
		{Index: 1, Function: domain.FunctionFragment{Arguments: `{}`}},
	}})

	res := col.Result()
	if len(res.ToolCalls) != 2 {
		t.Fatalf("len(ToolCalls) = %d, want 2", len(res.ToolCalls))
	}
	// Index 1 appeared before index 0, so it leads the final sequence.
	if res.ToolCalls[0].ID != "call_second" || res.ToolCalls[1].ID != "call_first" {
		t.Errorf("order = [%s, %s], want [call_second, call_first]",
			res.ToolCalls[0].ID, res.ToolCalls[1].ID)
	}
}

func TestCollector_FirstFragmentWithIDWins(t *testing.T) {
	col := NewCollector()
	col.Add(domain.Delta{ToolCalls: []domain.ToolCallFragment{{
		Index:    0,
		Function: domain.FunctionFragment{Name: "fn"},
	}}})
	col.Add(domain.Delta{ToolCalls: []domain.ToolCallFragment{{
		Index:    0,
		ID:       "call_late",
		Function: domain.FunctionFragment{Arguments: `{}`},
	}}})
	col.Add(domain.Delta{ToolCalls: []domain.ToolCallFragment{{
		Index: 0,
		ID:    "call_ignored",
	}}})

	res := col.Result()
	if res.ToolCalls[0].ID != "call_late" {
		t.Errorf("ID = %q, want %q", res.ToolCalls[0].ID, "call_late")
	}
}

func TestCollector_MixedTextAndToolCalls(t *testing.T) {
	col := NewCollector()
	col.Add(domain.Delta{
		Content: "Let me check.",
		ToolCalls: []domain.ToolCallFragment{{
			Index:    0,
			ID:       "call_1",
			Function: domain.FunctionFragment{Name: "check", Arguments: "{}"},
		}},
	})

	res := col.Result()
	if res.Text != "Let me check." {
		t.Errorf("Text = %q", res.Text)
	}
	if len(res.ToolCalls) != 1 {
		t.Fatalf("len(ToolCalls) = %d, want 1", len(res.ToolCalls))
	}
	if res.Empty() {
		t.Error("Empty() = true for a result with content")
	}
}

func TestResult_Empty(t *testing.T) {
	if !(&Result{}).Empty() {
		t.Error("Empty() = false for zero result")
	}
	if (&Result{Text: "x"}).Empty() {
		t.Error("Empty() = true despite text")
	}
	if (&Result{ToolCalls: []domain.ToolCall{{ID: "c"}}}).Empty() {
		t.Error("Empty() = true despite tool call")
	}
}
