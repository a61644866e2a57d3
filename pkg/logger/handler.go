package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor returns an attribute carried by ctx, such as the tenant
// bound to the current unit of work.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// contextHandler adds extractor attributes to every record. A key already
// attached to the logger with With, or already present on the record, is
// not extracted again, so a logger built with logger.Tenant(id) inside a
// tenant scope does not print tenant_id twice.
type contextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
	bound      map[string]struct{}
	grouped    bool
}

func newContextHandler(next slog.Handler, extractors []ContextExtractor) slog.Handler {
	if len(extractors) == 0 {
		return next
	}
	return &contextHandler{next: next, extractors: extractors}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx == nil {
		return h.next.Handle(ctx, rec)
	}

	var present map[string]struct{}
	rec.Attrs(func(a slog.Attr) bool {
		if present == nil {
			present = make(map[string]struct{})
		}
		present[a.Key] = struct{}{}
		return true
	})

	extra := make([]slog.Attr, 0, len(h.extractors))
	for _, ex := range h.extractors {
		attr, ok := ex(ctx)
		if !ok || attr.Key == "" {
			continue
		}
		if _, dup := h.bound[attr.Key]; dup {
			continue
		}
		if _, dup := present[attr.Key]; dup {
			continue
		}
		extra = append(extra, attr)
	}
	if len(extra) == 0 {
		return h.next.Handle(ctx, rec)
	}

	// rec shares attribute storage with the caller's copy.
	rec = rec.Clone()
	rec.AddAttrs(extra...)
	return h.next.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := h.bound
	if !h.grouped {
		bound = make(map[string]struct{}, len(h.bound)+len(attrs))
		for k := range h.bound {
			bound[k] = struct{}{}
		}
		for _, a := range attrs {
			bound[a.Key] = struct{}{}
		}
	}
	return &contextHandler{
		next:       h.next.WithAttrs(attrs),
		extractors: h.extractors,
		bound:      bound,
		grouped:    h.grouped,
	}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &contextHandler{
		next:       h.next.WithGroup(name),
		extractors: h.extractors,
		bound:      h.bound,
		grouped:    true,
	}
}
