package normalize

import "github.com/cascadehq/cascade/internal/domain"

// defaultParameters is the JSON-schema shape used when a tool declares no
// parameters of its own.
func defaultParameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// Tools converts a decoded JSON value into canonical tool definitions.
// A nil result means no tools were requested (missing input or not a
// non-empty array); a non-nil result is the filtered set, which may be
// empty when every entry was unusable. Backend calls omit tools in both
// cases, but the distinction is kept for callers that care.
func Tools(raw any) []domain.ToolDefinition {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil
	}

	out := make([]domain.ToolDefinition, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if def, ok := canonicalTool(entry); ok {
			out = append(out, def)
		}
	}
	return out
}

// canonicalTool returns the entry as a canonical definition. Entries
// already in the {type:"function", function:{name,...}} shape pass through;
// flat shapes are rewrapped. Entries with no resolvable name are rejected.
func canonicalTool(entry map[string]any) (domain.ToolDefinition, bool) {
	fn, _ := entry["function"].(map[string]any)

	if typ, _ := entry["type"].(string); typ == "function" && fn != nil {
		if name, _ := fn["name"].(string); name != "" {
			def := domain.ToolDefinition{
				Type: "function",
				Function: domain.FunctionDef{
					Name:       name,
					Parameters: fn["parameters"],
				},
			}
			def.Function.Description, _ = fn["description"].(string)
			return def, true
		}
	}

	name, _ := entry["name"].(string)
	if name == "" && fn != nil {
		name, _ = fn["name"].(string)
	}
	if name == "" {
		return domain.ToolDefinition{}, false
	}

	desc, _ := entry["description"].(string)
	if desc == "" && fn != nil {
		desc, _ = fn["description"].(string)
	}

	params := entry["parameters"]
	if params == nil && fn != nil {
		params = fn["parameters"]
	}
	if params == nil {
		params = defaultParameters()
	}

	return domain.ToolDefinition{
		Type: "function",
		Function: domain.FunctionDef{
			Name:        name,
			Description: desc,
			Parameters:  params,
		},
	}, true
}
