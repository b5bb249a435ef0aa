package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/obinexuscomputing/fork/pkg/cli/config"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

// run writes the summary to stdout and everything else (logs, status table)
// to stderr
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var loggerCfg config.Logger
	var logger *slog.Logger

	app := &cli.Command{
		Name:      "fork",
		Usage:     "Fork repositories, seed a release and mirror them to GitLab",
		Version:   types.Version,
		Flags:     loggerCfg.Flags(),
		Writer:    stdout,
		ErrWriter: stderr,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.New(stderr)
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdRun(),
			cmdVerify(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}

		var failed *FailedError
		if errors.As(err, &failed) {
			logger.Warn("Run finished with failed repositories", "failed", failed.Count)
		} else {
			logger.Error("CLI execution failed", slog.Any("error", err))
		}
		return err
	}

	return nil
}
