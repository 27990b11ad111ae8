// Package server is the HTTP transport: routing, middleware, and the
// handlers that decode caller payloads, run them through the dispatch
// engine, and render the outcome in the requested flavor.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cascadehq/cascade/internal/compose"
	"github.com/cascadehq/cascade/internal/dispatch"
	"github.com/cascadehq/cascade/internal/domain"
	"github.com/cascadehq/cascade/internal/observability"
	"github.com/cascadehq/cascade/internal/tokens"
)

// flavor selects which wire shape a completion is rendered in.
type flavor int

const (
	flavorChat flavor = iota
	flavorResponses
)

func (f flavor) String() string {
	if f == flavorResponses {
		return "responses"
	}
	return "chat"
}

// Handler serves the completion endpoints over one shared dispatch engine.
type Handler struct {
	engine   *dispatch.Engine
	backends []string
	model    string
	counter  *tokens.Counter
	logger   *slog.Logger
	started  time.Time
}

// NewHandler creates the handler set. backendNames is the configured
// rotation in order, used by the health endpoint; model is the id
// advertised on /v1/models and echoed when a request names none.
func NewHandler(engine *dispatch.Engine, backendNames []string, model string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:   engine,
		backends: backendNames,
		model:    model,
		counter:  tokens.NewCounter(),
		logger:   logger,
		started:  time.Now(),
	}
}

// ChatCompletions handles POST /v1/chat/completions.
func (h *Handler) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, flavorChat)
}

// Responses handles POST /v1/responses.
func (h *Handler) Responses(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, flavorResponses)
}

// dispatch decodes the payload and hands it to the streaming or buffered
// path. Both endpoints share it; only the rendering flavor differs.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, f flavor) {
	req, err := decodeRequest(r.Body)
	if err != nil {
		renderError(w, domain.ErrInvalidRequest("Invalid JSON"))
		return
	}

	AddLogField(r.Context(), "flavor", f.String())

	msgs := req.conversation()
	tools := req.toolset()

	model := req.Model
	if model == "" {
		model = h.model
	}

	if req.Stream {
		h.handleStreaming(w, r, f, model, msgs, tools)
		return
	}
	h.handleBuffered(w, r, f, model, msgs, tools)
}

func (h *Handler) handleBuffered(w http.ResponseWriter, r *http.Request, f flavor, model string, msgs []domain.Message, tools []domain.ToolDefinition) {
	ctx := r.Context()

	res, err := h.engine.Complete(ctx, msgs, tools)
	switch {
	case errors.Is(err, domain.ErrAllBackendsFailed):
		res = &dispatch.Result{Text: compose.ExhaustedText, ServedBy: "none"}
	case err != nil:
		// Caller disconnected; there is nobody left to answer.
		AddError(ctx, err)
		return
	}

	AddLogField(ctx, "backend", res.ServedBy)
	h.observeCompletion(ctx, res)

	usage := tokens.EstimateUsage(len(msgs), res.Text, len(res.ToolCalls) > 0)

	switch f {
	case flavorResponses:
		writeJSON(w, http.StatusOK, compose.Responses(model, res, usage))
	default:
		writeJSON(w, http.StatusOK, compose.Chat(model, res, usage))
	}
}

func (h *Handler) handleStreaming(w http.ResponseWriter, r *http.Request, f flavor, model string, msgs []domain.Message, tools []domain.ToolDefinition) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		renderError(w, domain.NewAPIError(domain.ErrorTypeServer, "Streaming not supported"))
		return
	}

	deltas, servedBy, err := h.engine.Stream(ctx, msgs, tools)
	exhausted := errors.Is(err, domain.ErrAllBackendsFailed)
	if err != nil && !exhausted {
		AddError(ctx, err)
		return
	}
	if exhausted {
		servedBy = "none"
	}
	AddLogField(ctx, "backend", servedBy)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	observability.StreamingConnections.Inc()
	defer observability.StreamingConnections.Dec()

	switch f {
	case flavorResponses:
		h.streamResponses(ctx, w, flusher, model, servedBy, msgs, deltas, exhausted)
	default:
		h.streamChat(ctx, w, flusher, model, servedBy, deltas, exhausted)
	}
}

// streamChat relays a live stream as classic chat.completion.chunk frames.
// A mid-stream backend failure ends the relay with whatever was already
// sent standing; either way the stream closes with a finish frame and the
// [DONE] sentinel.
func (h *Handler) streamChat(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, model, servedBy string, deltas <-chan domain.Delta, exhausted bool) {
	meta := compose.NewChatMeta(model)
	col := dispatch.NewCollector()

	if exhausted {
		d := domain.Delta{Content: compose.ExhaustedText}
		col.Add(d)
		writeFrame(w, flusher, compose.ChatDeltaChunk(meta, d, true))
	} else {
		first := true
		for d := range deltas {
			if d.Err != nil {
				AddError(ctx, d.Err)
				break
			}
			col.Add(d)
			writeFrame(w, flusher, compose.ChatDeltaChunk(meta, d, first))
			first = false
		}
	}

	res := col.Result()
	res.ServedBy = servedBy

	reason := "stop"
	if len(res.ToolCalls) > 0 {
		reason = "tool_calls"
	}
	writeFrame(w, flusher, compose.ChatFinishChunk(meta, reason))
	writeDone(w, flusher)

	h.observeCompletion(ctx, res)
}

// streamResponses relays a live stream as response.* event frames and
// closes with a response.completed sentinel carrying the same aggregate a
// buffered call would have returned.
func (h *Handler) streamResponses(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, model, servedBy string, msgs []domain.Message, deltas <-chan domain.Delta, exhausted bool) {
	meta := compose.NewResponsesMeta(model)
	writeEventFrame(w, flusher, "response.created", compose.NewResponseCreated(meta))

	col := dispatch.NewCollector()

	if exhausted {
		col.Add(domain.Delta{Content: compose.ExhaustedText})
		writeEventFrame(w, flusher, "response.output_text.delta", compose.NewOutputTextDelta(compose.ExhaustedText))
	} else {
		for d := range deltas {
			if d.Err != nil {
				AddError(ctx, d.Err)
				break
			}
			col.Add(d)
			if d.Content != "" {
				writeEventFrame(w, flusher, "response.output_text.delta", compose.NewOutputTextDelta(d.Content))
			}
			for _, frag := range d.ToolCalls {
				writeEventFrame(w, flusher, "response.function_call_arguments.delta", compose.NewFunctionCallArgumentsDelta(frag))
			}
		}
	}

	res := col.Result()
	res.ServedBy = servedBy

	usage := tokens.EstimateUsage(len(msgs), res.Text, len(res.ToolCalls) > 0)
	writeEventFrame(w, flusher, "response.completed", compose.NewResponseCompleted(meta, res, usage))
	writeDone(w, flusher)

	h.observeCompletion(ctx, res)
}

// SimpleChat handles POST /chat, the minimal path: raw text chunks with no
// SSE envelope and no tool support.
func (h *Handler) SimpleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r.Body)
	if err != nil {
		renderError(w, domain.ErrInvalidRequest("Invalid JSON"))
		return
	}

	ctx := r.Context()
	msgs := req.conversation()

	flusher, ok := w.(http.Flusher)
	if !ok {
		renderError(w, domain.NewAPIError(domain.ErrorTypeServer, "Streaming not supported"))
		return
	}

	deltas, servedBy, err := h.engine.Stream(ctx, msgs, nil)
	exhausted := errors.Is(err, domain.ErrAllBackendsFailed)
	if err != nil && !exhausted {
		AddError(ctx, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if exhausted {
		AddLogField(ctx, "backend", "none")
		io.WriteString(w, compose.ExhaustedText)
		return
	}
	AddLogField(ctx, "backend", servedBy)

	observability.StreamingConnections.Inc()
	defer observability.StreamingConnections.Dec()

	var text strings.Builder
	for d := range deltas {
		if d.Err != nil {
			AddError(ctx, d.Err)
			break
		}
		if d.Content == "" {
			continue
		}
		text.WriteString(d.Content)
		io.WriteString(w, d.Content)
		flusher.Flush()
	}

	h.observeCompletion(ctx, &dispatch.Result{Text: text.String(), ServedBy: servedBy})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"backends": h.backends,
	})
}

// ListModels handles GET /v1/models with the single configured model id.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.ModelList{
		Object: "list",
		Data: []domain.Model{{
			ID:      h.model,
			Object:  "model",
			OwnedBy: "cascade",
			Created: h.started.Unix(),
		}},
	})
}

// observeCompletion records the tokenizer-measured completion size for the
// backend that served. Wire-visible usage stays heuristic; these counts
// feed metrics and debug logs only.
func (h *Handler) observeCompletion(ctx context.Context, res *dispatch.Result) {
	if res.ServedBy == "" || res.ServedBy == "none" || res.Text == "" {
		return
	}

	n, err := h.counter.CountText(res.Text)
	if err != nil {
		h.logger.Debug("token count failed", slog.String("error", err.Error()))
		return
	}

	observability.CompletionTokensTotal.WithLabelValues(res.ServedBy).Add(float64(n))
	AddLogField(ctx, "completion_tokens", strconv.Itoa(n))
	h.logger.Debug("completion served",
		slog.String("backend", res.ServedBy),
		slog.Int("completion_tokens", n),
	)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// renderError writes the flat error shape every failure path shares. The
// taxonomy picks the status; only the message goes on the wire.
func renderError(w http.ResponseWriter, apiErr *domain.APIError) {
	writeJSON(w, apiErr.HTTPStatusCode(), map[string]string{"error": apiErr.Message})
}

// writeFrame writes one SSE data frame and flushes it out.
func writeFrame(w http.ResponseWriter, flusher http.Flusher, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// writeEventFrame writes one named-event SSE frame for the responses flavor.
func writeEventFrame(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

func writeDone(w http.ResponseWriter, flusher http.Flusher) {
	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}
