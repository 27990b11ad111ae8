package dispatch

import (
	"strings"

	"github.com/cascadehq/cascade/internal/domain"
)

// Result is the aggregated outcome of one dispatched request. It lives for
// the duration of a single request and is discarded once a response has
// been composed from it.
type Result struct {
	Text      string
	ToolCalls []domain.ToolCall

	// ServedBy names the backend that produced the result, or "none" when
	// every backend was exhausted and a placeholder stands in.
	ServedBy string
}

// Empty reports whether the result carries neither text nor tool calls.
// An empty result is never surfaced as a successful completion.
func (r *Result) Empty() bool {
	return r.Text == "" && len(r.ToolCalls) == 0
}

// callBuffer accumulates one tool call across fragments sharing an index.
// The first fragment that supplies an id (or type) wins; name and argument
// fragments concatenate in arrival order.
type callBuffer struct {
	id   string
	typ  string
	name strings.Builder
	args strings.Builder
}

// Collector folds a delta stream into a Result. Content fragments append
// to one text buffer; tool-call fragments group by index, and the final
// tool-call order follows first appearance.
type Collector struct {
	text  strings.Builder
	order []int
	calls map[int]*callBuffer
}

// NewCollector returns an empty collector. One collector serves exactly one
// backend attempt; a failed attempt's collector is thrown away whole.
func NewCollector() *Collector {
	return &Collector{calls: make(map[int]*callBuffer)}
}

// Add folds one delta into the collector.
func (c *Collector) Add(d domain.Delta) {
	c.text.WriteString(d.Content)

	for _, frag := range d.ToolCalls {
		buf, ok := c.calls[frag.Index]
		if !ok {
			buf = &callBuffer{}
			c.calls[frag.Index] = buf
			c.order = append(c.order, frag.Index)
		}
		if buf.id == "" {
			buf.id = frag.ID
		}
		if buf.typ == "" {
			buf.typ = frag.Type
		}
		buf.name.WriteString(frag.Function.Name)
		buf.args.WriteString(frag.Function.Arguments)
	}
}

// Result assembles what has been collected so far.
func (c *Collector) Result() *Result {
	res := &Result{Text: c.text.String()}

	for _, idx := range c.order {
		buf := c.calls[idx]
		typ := buf.typ
		if typ == "" {
			typ = "function"
		}
		res.ToolCalls = append(res.ToolCalls, domain.ToolCall{
			ID:   buf.id,
			Type: typ,
			Function: domain.FunctionCall{
				Name:      buf.name.String(),
				Arguments: buf.args.String(),
			},
		})
	}

	return res
}
