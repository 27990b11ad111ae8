// Package dispatch implements the failover engine at the heart of the
// proxy: backends are tried strictly in rotation order until one produces
// output or the list is exhausted. Non-streaming requests drain each
// candidate fully and may retry silently; streaming requests commit to the
// first stream that starts, because bytes already sent to the caller cannot
// be taken back.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cascadehq/cascade/internal/backend"
	"github.com/cascadehq/cascade/internal/domain"
	"github.com/cascadehq/cascade/internal/observability"
)

// errEmptyResult marks a backend that drained cleanly but produced neither
// text nor tool calls. It advances the rotation exactly like an error and
// never leaves the engine.
var errEmptyResult = errors.New("backend returned no output")

// Engine holds the immutable backend list for the process. It keeps no
// cross-request state: every request walks the same list from the top.
type Engine struct {
	backends backend.List
	logger   *slog.Logger
}

// New creates an engine over the given backend list.
func New(list backend.List, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{backends: list, logger: logger}
}

// Complete dispatches a non-streaming request: each backend in order is
// drained fully, and the first non-empty aggregate wins. A synchronous
// failure, a mid-stream failure, and a silent empty result all advance the
// rotation the same way, with the failed backend's partial output
// discarded. Returns domain.ErrAllBackendsFailed once every candidate is
// exhausted, or ctx.Err() when the caller has gone away.
func (e *Engine) Complete(ctx context.Context, messages []domain.Message, tools []domain.ToolDefinition) (*Result, error) {
	for _, b := range e.backends.Ordered() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := e.tryComplete(ctx, b, messages, tools)
		if err != nil {
			observability.FailoversTotal.Inc()
			e.logger.Warn("backend failed, advancing rotation",
				slog.String("backend", b.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}

		res.ServedBy = b.Name()
		return res, nil
	}

	return nil, domain.ErrAllBackendsFailed
}

// Stream dispatches a streaming request: the first backend whose stream
// starts successfully serves the whole response. The returned channel
// relays that backend's deltas; a delta carrying Err means the stream died
// mid-flight, and the engine does not restart elsewhere since partial
// output has already been revealed. Returns domain.ErrAllBackendsFailed
// when no backend's stream could be acquired.
func (e *Engine) Stream(ctx context.Context, messages []domain.Message, tools []domain.ToolDefinition) (<-chan domain.Delta, string, error) {
	for _, b := range e.backends.Ordered() {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		deltas, err := b.Chat(ctx, messages, tools)
		if err != nil {
			observability.BackendRequestsTotal.WithLabelValues(b.Name(), "error").Inc()
			observability.FailoversTotal.Inc()
			e.logger.Warn("backend stream failed to start, advancing rotation",
				slog.String("backend", b.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}

		return e.instrument(b.Name(), deltas), b.Name(), nil
	}

	return nil, "", domain.ErrAllBackendsFailed
}

// tryComplete runs one backend attempt and aggregates its stream. Either
// the whole stream drains cleanly and non-empty, or the attempt fails and
// nothing from it survives.
func (e *Engine) tryComplete(ctx context.Context, b backend.Backend, messages []domain.Message, tools []domain.ToolDefinition) (*Result, error) {
	start := time.Now()

	deltas, err := b.Chat(ctx, messages, tools)
	if err != nil {
		observability.BackendRequestsTotal.WithLabelValues(b.Name(), "error").Inc()
		return nil, err
	}

	col := NewCollector()
	for d := range deltas {
		if d.Err != nil {
			// Drain so the producer can exit; nothing from this backend is kept.
			for range deltas {
			}
			observability.BackendRequestsTotal.WithLabelValues(b.Name(), "error").Inc()
			return nil, d.Err
		}
		col.Add(d)
	}

	observability.BackendLatencySeconds.WithLabelValues(b.Name()).Observe(time.Since(start).Seconds())

	res := col.Result()
	if res.Empty() {
		observability.BackendRequestsTotal.WithLabelValues(b.Name(), "empty").Inc()
		return nil, errEmptyResult
	}

	observability.BackendRequestsTotal.WithLabelValues(b.Name(), "ok").Inc()
	return res, nil
}

// instrument relays a live stream while recording its final status and
// duration once the backend closes it.
func (e *Engine) instrument(name string, in <-chan domain.Delta) <-chan domain.Delta {
	out := make(chan domain.Delta)
	start := time.Now()

	go func() {
		defer close(out)

		status := "ok"
		for d := range in {
			if d.Err != nil {
				status = "error"
			}
			out <- d
		}

		observability.BackendRequestsTotal.WithLabelValues(name, status).Inc()
		observability.BackendLatencySeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	return out
}
