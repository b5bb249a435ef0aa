package errs

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err with its goerr values and forwards it to Sentry when a
// Sentry client has been initialized. It never fails.
func Handle(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}

	attrs := []any{slog.Any("error", err)}
	if gerr := goerr.Unwrap(err); gerr != nil {
		for k, v := range gerr.Values() {
			attrs = append(attrs, slog.Any(k, v))
		}
	}
	ctxlog.From(ctx).Error(msg, attrs...)

	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub = hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		if values := goerr.Values(err); len(values) > 0 {
			scope.SetContext("goerr", sentry.Context(values))
		}
		hub.CaptureException(err)
	})
}
