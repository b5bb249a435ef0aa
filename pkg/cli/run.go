package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/cli/config"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
	"github.com/obinexuscomputing/fork/pkg/usecase"
	"github.com/obinexuscomputing/fork/pkg/utils/async"
	"github.com/obinexuscomputing/fork/pkg/utils/errs"
	"github.com/urfave/cli/v3"
)

func cmdRun() *cli.Command {
	var (
		runCfg     config.Run
		githubCfg  config.GitHub
		gitlabCfg  config.GitLab
		signingCfg config.Signing
		sentryCfg  config.Sentry
		slackCfg   config.Slack
	)

	var flags []cli.Flag
	flags = append(flags, runCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, gitlabCfg.Flags()...)
	flags = append(flags, signingCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Fork the given repositories and report a signed summary",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			// Everything that can be wrong locally is checked before the
			// first request.
			file, err := runCfg.LoadFile()
			if err != nil {
				return err
			}
			target, err := runCfg.ForkTarget(file)
			if err != nil {
				return err
			}
			sources, err := runCfg.SourceRefs()
			if err != nil {
				return err
			}
			contentTypes, err := file.ContentTypes()
			if err != nil {
				return err
			}
			gitlabCfg.Merge(file.GitLab)

			logger.Debug("Effective configuration",
				"github", &githubCfg,
				"gitlab", &gitlabCfg,
				"signing", &signingCfg,
				"sentry", &sentryCfg,
				"slack", &slackCfg,
				"target", target,
				"sources", len(sources),
				"retry", file.RetryPolicy(),
			)

			githubClient, err := githubCfg.NewClient(file.RequestTimeout())
			if err != nil {
				return goerr.Wrap(err, "failed to create GitHub client", goerr.T(types.ErrTagConfig))
			}

			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

			validator := usecase.NewValidator(contentTypes)
			policy := file.RetryPolicy()

			opts := []usecase.OrchestratorOption{
				usecase.WithForkTarget(target),
				usecase.WithReleaseSpec(file.Release),
				usecase.WithConcurrency(runCfg.ConcurrencyOr(file.Run.Concurrency)),
				usecase.WithSigningSecret(signingCfg.Key()),
			}

			if gitlabCfg.Enabled() {
				gitlabClient, err := gitlabCfg.NewClient(file.GitLab.Visibility, file.RequestTimeout())
				if err != nil {
					return goerr.Wrap(err, "failed to create GitLab client", goerr.T(types.ErrTagConfig))
				}
				opts = append(opts, usecase.WithImporter(usecase.NewImport(gitlabClient, validator, policy), gitlabCfg.Namespace))
			} else {
				logger.Info("GitLab token not set, import step disabled")
			}

			orchestrator := usecase.NewOrchestrator(
				usecase.NewFork(githubClient, validator, policy),
				usecase.NewRelease(githubClient, validator, policy),
				usecase.NewSigner(),
				opts...,
			)

			runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := orchestrator.Run(runCtx, sources)
			if err != nil {
				return goerr.Wrap(err, "failed to finalize summary")
			}

			if err := writeSummary(c.Root().Writer, runCfg.Output, summary); err != nil {
				return err
			}
			printTable(c.Root().ErrWriter, summary)

			if notifier := slackCfg.NewNotifier(); notifier != nil {
				if err := notifier.Notify(async.Detach(ctx), summary); err != nil {
					errs.Handle(ctx, "Failed to send run notification", err)
				}
			}

			if n := summary.FailedCount(); n > 0 {
				return &FailedError{Count: n}
			}
			return nil
		},
	}
}

// writeSummary writes the summary as indented JSON to path, or to w when path
// is empty. The signature covers the compact form, so indentation does not
// affect verification.
func writeSummary(w io.Writer, path string, summary *model.OperationSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode summary", goerr.V("run_id", summary.RunID))
	}
	data = append(data, '\n')

	if path == "" {
		if _, err := w.Write(data); err != nil {
			return goerr.Wrap(err, "failed to write summary")
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write summary file", goerr.V("path", path))
	}
	return nil
}
