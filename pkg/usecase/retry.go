package usecase

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
)

// newBackOff builds a non-decreasing exponential schedule from policy.
// Jitter is disabled so that every delay is at least the previous one.
func newBackOff(policy model.RetryPolicy) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval
	b.Multiplier = policy.Multiplier
	b.RandomizationFactor = 0
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.Reset()
	return b
}

// wait sleeps for d unless ctx is cancelled first
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryCall runs call until it is not Retryable or policy.MaxAttempts calls
// were made. The run context is checked before every call; the last outcome
// is returned with the number of calls made.
func retryCall(ctx context.Context, policy model.RetryPolicy, call func() *model.ValidationOutcome) (*model.ValidationOutcome, int, error) {
	b := newBackOff(policy)
	maxAttempts := max(policy.MaxAttempts, 1)

	var outcome *model.ValidationOutcome
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := wait(ctx, b.NextBackOff()); err != nil {
				return outcome, attempt - 1, abortedError(err)
			}
		}
		if err := ctx.Err(); err != nil {
			return outcome, attempt - 1, abortedError(err)
		}

		outcome = call()
		if !outcome.IsRetryable() {
			return outcome, attempt, nil
		}
	}

	return outcome, maxAttempts, nil
}

func abortedError(cause error) error {
	return goerr.Wrap(cause, "run aborted", goerr.T(types.ErrTagAborted))
}

// outcomeError converts a non-success outcome into a tagged error
func outcomeError(outcome *model.ValidationOutcome, msg string, tag goerr.Option, opts ...goerr.Option) error {
	opts = append(opts,
		tag,
		goerr.V("status", outcome.StatusCode),
		goerr.V("content_type", outcome.ContentType),
		goerr.V("reason", outcome.Reason),
	)

	switch {
	case outcome.IsRetryable():
		opts = append(opts, goerr.T(types.ErrTagRateLimit))
	case outcome.Reason == "unexpected content type":
		opts = append(opts, goerr.T(types.ErrTagValidation))
	case outcome.StatusCode == http.StatusUnauthorized || outcome.StatusCode == http.StatusForbidden:
		opts = append(opts, goerr.T(types.ErrTagAuth))
	}

	return goerr.New(msg+": "+outcome.Reason, opts...)
}
