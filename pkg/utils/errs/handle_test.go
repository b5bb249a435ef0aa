package errs_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/obinexuscomputing/fork/pkg/utils/errs"
)

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := ctxlog.With(context.Background(), logger)

	errs.Handle(ctx, "release failed", goerr.New("boom", goerr.V("repo", "my-org/hello")))

	out := buf.String()
	gt.String(t, out).Contains("release failed")
	gt.String(t, out).Contains("boom")
	gt.String(t, out).Contains("repo=my-org/hello")
}

func TestHandle_Nil(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := ctxlog.With(context.Background(), logger)

	errs.Handle(ctx, "nothing", nil)
	gt.Value(t, buf.Len()).Equal(0)
}

func TestHandle_SentryContext(t *testing.T) {
	var captured *sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			captured = event
			return nil
		},
	})
	gt.NoError(t, err)

	hub := sentry.CurrentHub()
	prev := hub.Client()
	hub.BindClient(client)
	t.Cleanup(func() { hub.BindClient(prev) })

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ctxlog.With(context.Background(), logger)

	cause := goerr.New("boom", goerr.V("repo", "my-org/hello"))
	errs.Handle(ctx, "release failed", goerr.Wrap(cause, "wrapped", goerr.V("status", 403)))

	gt.NotNil(t, captured)
	gt.Value(t, captured.Tags["message"]).Equal("release failed")
	values := captured.Contexts["goerr"]
	gt.Value(t, values["repo"]).Equal(any("my-org/hello"))
	gt.Value(t, values["status"]).Equal(any(403))
}
