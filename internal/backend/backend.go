// Package backend defines the uniform capability every LLM integration
// satisfies and assembles the process-scoped rotation list from
// configuration.
package backend

import (
	"context"

	"github.com/cascadehq/cascade/internal/backend/gemini"
	"github.com/cascadehq/cascade/internal/backend/openaicompat"
	"github.com/cascadehq/cascade/internal/config"
	"github.com/cascadehq/cascade/internal/domain"
)

// Backend is the single capability the dispatch engine consumes. Chat
// either fails synchronously or returns a channel of deltas that the
// backend closes at end-of-stream; a mid-stream failure arrives as a final
// delta carrying Err. Implementations must never return a nil channel with
// a nil error, and must honor ctx cancellation on the underlying call.
type Backend interface {
	Name() string
	Chat(ctx context.Context, messages []domain.Message, tools []domain.ToolDefinition) (<-chan domain.Delta, error)
}

const (
	groqBaseURL       = "https://api.groq.com/openai/v1"
	cerebrasBaseURL   = "https://api.cerebras.ai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// List is the ordered set of backends for this process: the primary
// rotation plus an optional last resort tried only after the rotation is
// exhausted. Built once at startup, immutable afterwards.
type List struct {
	Rotation   []Backend
	LastResort Backend
}

// BuildList constructs clients for every backend whose credential is
// present, in fixed priority order. Clients are created here once and
// reused across requests.
func BuildList(cfg *config.Config) List {
	var list List

	if c := cfg.Backends.Groq; c.APIKey != "" {
		list.Rotation = append(list.Rotation, newCompat("groq", c, groqBaseURL))
	}
	if c := cfg.Backends.Cerebras; c.APIKey != "" {
		list.Rotation = append(list.Rotation, newCompat("cerebras", c, cerebrasBaseURL))
	}
	if c := cfg.Backends.Gemini; c.APIKey != "" {
		var opts []gemini.Option
		if c.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(c.BaseURL))
		}
		list.Rotation = append(list.Rotation, gemini.New(c.APIKey, c.Model, opts...))
	}
	if c := cfg.Backends.OpenRouter; c.APIKey != "" {
		list.LastResort = newCompat("openrouter", c, openRouterBaseURL,
			openaicompat.WithHeader("HTTP-Referer", "https://github.com/cascadehq/cascade"),
			openaicompat.WithHeader("X-Title", "cascade"))
	}

	return list
}

func newCompat(name string, c config.BackendConfig, defaultURL string, opts ...openaicompat.Option) *openaicompat.Client {
	base := c.BaseURL
	if base == "" {
		base = defaultURL
	}
	return openaicompat.New(name, c.APIKey, c.Model, base, opts...)
}

// Ordered returns every backend in trial order.
func (l List) Ordered() []Backend {
	out := make([]Backend, 0, len(l.Rotation)+1)
	out = append(out, l.Rotation...)
	if l.LastResort != nil {
		out = append(out, l.LastResort)
	}
	return out
}

// Names returns the backend names in trial order, for health reporting.
func (l List) Names() []string {
	ordered := l.Ordered()
	names := make([]string, len(ordered))
	for i, b := range ordered {
		names[i] = b.Name()
	}
	return names
}

// Empty reports whether no backend is configured at all.
func (l List) Empty() bool {
	return len(l.Rotation) == 0 && l.LastResort == nil
}
