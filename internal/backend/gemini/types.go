// Package gemini implements the backend capability for the Google
// Generative Language API, which speaks its own contents/parts dialect
// rather than the OpenAI chat-completions protocol.
package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cascadehq/cascade/internal/domain"
)

type generateRequest struct {
	Contents          []content   `json:"contents"`
	SystemInstruction *content    `json:"systemInstruction,omitempty"`
	Tools             []toolBlock `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *functionCall `json:"functionCall,omitempty"`
}

type functionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type toolBlock struct {
	FunctionDeclarations []functionDecl `json:"functionDeclarations"`
}

type functionDecl struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// generateResponse is both the unary response body and the per-frame shape
// of streamGenerateContent.
type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type errorResponse struct {
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func parseError(status int, body []byte) error {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != nil && er.Error.Message != "" {
		return fmt.Errorf("gemini: upstream status %d: %s", status, er.Error.Message)
	}
	return fmt.Errorf("gemini: upstream status %d: %s", status, strings.TrimSpace(string(body)))
}

// buildRequest translates canonical messages and tools into the Gemini
// dialect: system messages become the systemInstruction, assistant turns
// take role "model", tool results are flattened into user text, and
// assistant tool calls become functionCall parts with decoded arguments.
func buildRequest(messages []domain.Message, tools []domain.ToolDefinition) generateRequest {
	var req generateRequest
	var system []string

	for _, msg := range messages {
		if msg.Role == domain.RoleSystem {
			system = append(system, msg.Content)
			continue
		}

		role := "user"
		if msg.Role == domain.RoleAssistant {
			role = "model"
		}

		var parts []part
		if msg.Content != "" {
			parts = append(parts, part{Text: msg.Content})
		}
		for _, tc := range msg.ToolCalls {
			parts = append(parts, part{FunctionCall: &functionCall{
				Name: tc.Function.Name,
				Args: decodeArgs(tc.Function.Arguments),
			}})
		}
		if len(parts) == 0 {
			parts = append(parts, part{Text: ""})
		}

		req.Contents = append(req.Contents, content{Role: role, Parts: parts})
	}

	if len(system) > 0 {
		req.SystemInstruction = &content{Parts: []part{{Text: strings.Join(system, "\n\n")}}}
	}

	if len(tools) > 0 {
		decls := make([]functionDecl, len(tools))
		for i, t := range tools {
			decls[i] = functionDecl{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			}
		}
		req.Tools = []toolBlock{{FunctionDeclarations: decls}}
	}

	return req
}

func decodeArgs(arguments string) map[string]any {
	if arguments == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil
	}
	return args
}
