// Package tracing times nested operations within one request. Spans form a
// tree carried in the context and are written to slog when the root ends.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
)

type contextKey struct{}

// Span is one timed operation. Its methods are safe for concurrent use.
type Span struct {
	Name    string
	TraceID string

	mu       sync.Mutex
	start    time.Time
	duration time.Duration
	children []*Span
	attrs    map[string]any
}

// Start opens a span under the one in ctx, or a root span whose trace id
// is the request id.
func Start(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{
		Name:  name,
		start: time.Now(),
		attrs: make(map[string]any),
	}
	if parent := FromContext(ctx); parent != nil {
		span.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, span)
		parent.mu.Unlock()
	} else {
		span.TraceID = logger.RequestID(ctx)
	}
	return context.WithValue(ctx, contextKey{}, span), span
}

// FromContext returns the innermost span in ctx, or nil.
func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

// End records the elapsed time since Start.
func (s *Span) End() {
	s.mu.Lock()
	s.duration = time.Since(s.start)
	s.mu.Unlock()
}

func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// SetAttr attaches a key/value pair reported by Log.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs[key] = value
	s.mu.Unlock()
}

// Children returns the direct child spans in start order.
func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// Log writes one record per span in the tree at level.
func (s *Span) Log(ctx context.Context, log *slog.Logger, level slog.Level) {
	if !log.Enabled(ctx, level) {
		return
	}
	s.log(ctx, log, level, 0)
}

func (s *Span) log(ctx context.Context, log *slog.Logger, level slog.Level, depth int) {
	s.mu.Lock()
	attrs := []any{
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_us", s.duration.Microseconds(),
		"depth", depth,
	}
	for k, v := range s.attrs {
		attrs = append(attrs, k, v)
	}
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()

	log.Log(ctx, level, "span", attrs...)
	for _, child := range children {
		child.log(ctx, log, level, depth+1)
	}
}
