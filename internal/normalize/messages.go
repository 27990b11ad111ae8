// Package normalize canonicalizes arbitrary caller-supplied conversation and
// tool payloads into the domain types every backend accepts. Both entry
// points are total: malformed input degrades to an empty result instead of
// an error so that one bad field never takes down the request pipeline.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/cascadehq/cascade/internal/domain"
)

// Messages converts a decoded JSON value of any shape into the canonical
// message sequence. Input that is not array-like yields an empty sequence.
func Messages(raw any) []domain.Message {
	items, ok := raw.([]any)
	if !ok {
		return []domain.Message{}
	}

	out := make([]domain.Message, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		msg := domain.Message{
			Role:      canonicalRole(entry),
			Content:   contentText(entry),
			ToolCalls: toolCalls(entry),
		}
		msg.ToolCallID, _ = entry["tool_call_id"].(string)
		msg.Name, _ = entry["name"].(string)

		// Keep only messages that carry something a backend can use.
		if strings.TrimSpace(msg.Content) == "" && len(msg.ToolCalls) == 0 && msg.Role != domain.RoleTool {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// canonicalRole maps any role spelling onto one of the four canonical
// values. The field may be named role or type; unrecognized spellings are
// treated as user input.
func canonicalRole(entry map[string]any) string {
	role, _ := entry["role"].(string)
	if role == "" {
		role, _ = entry["type"].(string)
	}

	switch strings.ToLower(strings.TrimSpace(role)) {
	case "human", "user":
		return domain.RoleUser
	case "ai", "assistant", "model", "chat":
		return domain.RoleAssistant
	case "system":
		return domain.RoleSystem
	case "tool":
		return domain.RoleTool
	default:
		return domain.RoleUser
	}
}

// contentText flattens the entry's content into a single string.
// Precedence: string content as-is, array content joined part by part, then
// a top-level text field, then empty.
func contentText(entry map[string]any) string {
	switch c := entry["content"].(type) {
	case string:
		return c
	case []any:
		parts := make([]string, 0, len(c))
		for _, elem := range c {
			part, ok := elem.(map[string]any)
			if !ok {
				parts = append(parts, "")
				continue
			}
			parts = append(parts, textField(part))
		}
		return strings.Join(parts, " ")
	}
	return textField(entry)
}

// textField reads a text field that may be a plain string or an object
// carrying the string under content.
func textField(m map[string]any) string {
	switch t := m["text"].(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["content"].(string); ok {
			return s
		}
	}
	return ""
}

// toolCalls copies caller-supplied tool calls through without rewriting.
// Object-valued arguments are stringified so Arguments stays a flat string.
func toolCalls(entry map[string]any) []domain.ToolCall {
	rawCalls, ok := entry["tool_calls"].([]any)
	if !ok || len(rawCalls) == 0 {
		return nil
	}

	calls := make([]domain.ToolCall, 0, len(rawCalls))
	for _, rc := range rawCalls {
		m, ok := rc.(map[string]any)
		if !ok {
			continue
		}

		var call domain.ToolCall
		call.ID, _ = m["id"].(string)
		call.Type, _ = m["type"].(string)
		if fn, ok := m["function"].(map[string]any); ok {
			call.Function.Name, _ = fn["name"].(string)
			switch args := fn["arguments"].(type) {
			case string:
				call.Function.Arguments = args
			case map[string]any:
				if b, err := json.Marshal(args); err == nil {
					call.Function.Arguments = string(b)
				}
			}
		}
		calls = append(calls, call)
	}
	return calls
}
