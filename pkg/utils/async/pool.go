package async

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// ForEach runs handler for every index in [0, n) on at most limit goroutines
// and waits for all of them.
//
// Parameters:
//   - ctx: passed to every handler as is; handlers check it themselves, so
//     cancellation never skips an index
//   - limit: maximum concurrent handlers, values below 1 mean 1
//   - handler: function to execute per index
//
// Returns: errors indexed like the input, nil for indices that succeeded.
// A panicking handler is recovered, logged with its stack and reported as an
// error for its index.
func ForEach(ctx context.Context, limit, n int, handler func(ctx context.Context, i int) error) []error {
	if limit < 1 {
		limit = 1
	}

	errs := make([]error, n)

	var g errgroup.Group
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			errs[i] = run(ctx, i, handler)
			return nil
		})
	}

	_ = g.Wait()
	return errs
}

func run(ctx context.Context, i int, handler func(ctx context.Context, i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger := ctxlog.From(ctx)
			logger.Error("panic in worker",
				"index", i,
				"recover", r,
				"stack", string(stack))
			err = goerr.New(fmt.Sprintf("panic in worker: %v", r), goerr.V("index", i))
		}
	}()

	return handler(ctx, i)
}

// Detach returns a context that keeps the values of ctx (logger included)
// but is never cancelled. In-flight remote calls use it so that an abort
// does not cut a request in half.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
