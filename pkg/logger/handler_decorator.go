package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor pulls an attribute out of a context. The boolean reports
// whether a value was found; extractors returning false add nothing to the
// record.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// handlerDecorator wraps a slog.Handler and runs the registered extractors
// on every record, so request-scoped values travel with the log line without
// each call site repeating them.
type handlerDecorator struct {
	inner      slog.Handler
	extractors []ContextExtractor
}

func newHandlerDecorator(inner slog.Handler, extractors ...ContextExtractor) slog.Handler {
	if len(extractors) == 0 {
		return inner
	}
	return &handlerDecorator{inner: inner, extractors: extractors}
}

func (d *handlerDecorator) Enabled(ctx context.Context, level slog.Level) bool {
	return d.inner.Enabled(ctx, level)
}

func (d *handlerDecorator) Handle(ctx context.Context, record slog.Record) error {
	for _, extract := range d.extractors {
		if attr, ok := extract(ctx); ok {
			record.AddAttrs(attr)
		}
	}
	return d.inner.Handle(ctx, record)
}

func (d *handlerDecorator) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handlerDecorator{inner: d.inner.WithAttrs(attrs), extractors: d.extractors}
}

func (d *handlerDecorator) WithGroup(name string) slog.Handler {
	return &handlerDecorator{inner: d.inner.WithGroup(name), extractors: d.extractors}
}
