// Package tokens produces the usage numbers attached to composed responses
// and real tokenizer counts for observability. The two are deliberately
// separate: wire-visible usage is a fixed heuristic that downstream callers
// validate arithmetically, while accurate counts only feed logs and metrics.
package tokens

import "github.com/cascadehq/cascade/internal/domain"

const (
	// promptTokensPerMessage is the per-message weight of the prompt
	// estimate. Callers validate total == prompt + completion, so these
	// constants are part of the wire contract and must not drift.
	promptTokensPerMessage = 10

	// charsPerToken divides completion text length, rounding up.
	charsPerToken = 4

	// toolCallCompletionTokens is the flat completion estimate whenever the
	// result carries tool calls instead of (or alongside) text.
	toolCallCompletionTokens = 50
)

// EstimateUsage computes the usage block for a completed dispatch.
// messageCount is the canonical message count sent upstream, text the
// aggregated completion text, and toolCalls whether the result carries any
// tool call.
func EstimateUsage(messageCount int, text string, toolCalls bool) domain.Usage {
	prompt := messageCount * promptTokensPerMessage
	if prompt < 1 {
		prompt = 1
	}

	completion := (len(text) + charsPerToken - 1) / charsPerToken
	if toolCalls {
		completion = toolCallCompletionTokens
	}

	return domain.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}
