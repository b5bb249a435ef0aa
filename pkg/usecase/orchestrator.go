package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/obinexuscomputing/fork/pkg/domain/interfaces"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/obinexuscomputing/fork/pkg/utils/async"
	"github.com/obinexuscomputing/fork/pkg/utils/errs"
)

// orchestratorConfig holds internal orchestrator configuration
type orchestratorConfig struct {
	target      model.ForkTarget
	release     model.ReleaseSpec
	importer    interfaces.ImportUseCase
	namespace   string
	concurrency int
	secret      []byte
	now         func() time.Time
}

// OrchestratorOption is a functional option for Orchestrator configuration
type OrchestratorOption func(*orchestratorConfig)

// WithForkTarget sets the namespace forks are created in
func WithForkTarget(target model.ForkTarget) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.target = target
	}
}

// WithReleaseSpec sets the release created on forks without one
func WithReleaseSpec(spec model.ReleaseSpec) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.release = spec
	}
}

// WithImporter enables mirroring into namespace on the secondary host
func WithImporter(importer interfaces.ImportUseCase, namespace string) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.importer = importer
		c.namespace = namespace
	}
}

// WithConcurrency sets how many repositories are processed at once
func WithConcurrency(n int) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.concurrency = n
	}
}

// WithSigningSecret makes the summary carry an HMAC signature
func WithSigningSecret(secret []byte) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.secret = secret
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) OrchestratorOption {
	return func(c *orchestratorConfig) {
		c.now = now
	}
}

// Orchestrator runs fork, release and import for a batch of repositories
type Orchestrator struct {
	fork    interfaces.ForkUseCase
	release interfaces.ReleaseUseCase
	signer  *Signer
	cfg     *orchestratorConfig
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(fork interfaces.ForkUseCase, release interfaces.ReleaseUseCase, signer *Signer, opts ...OrchestratorOption) *Orchestrator {
	cfg := &orchestratorConfig{
		release:     model.DefaultReleaseSpec(),
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Orchestrator{
		fork:    fork,
		release: release,
		signer:  signer,
		cfg:     cfg,
	}
}

// Run processes every source and returns the finalized summary. One failing
// repository never stops the others. When ctx is cancelled, repositories not
// yet started are recorded as aborted and calls already in flight finish.
func (o *Orchestrator) Run(ctx context.Context, sources []model.SourceRef) (*model.OperationSummary, error) {
	logger := ctxlog.From(ctx)

	summary := &model.OperationSummary{
		RunID:     uuid.NewString(),
		StartedAt: o.cfg.now().UTC(),
	}
	logger.Info("Starting run",
		"run_id", summary.RunID,
		"repositories", len(sources),
		"concurrency", o.cfg.concurrency,
		"import_enabled", o.cfg.importer != nil,
	)

	records := make([]*model.RepositoryRecord, len(sources))
	workerErrs := async.ForEach(ctx, o.cfg.concurrency, len(sources), func(ctx context.Context, i int) error {
		records[i] = o.process(ctx, sources[i])
		return nil
	})

	for i, err := range workerErrs {
		if err != nil {
			errs.Handle(ctx, "Worker crashed", err)
			records[i] = &model.RepositoryRecord{
				Source:    sources[i],
				ForkState: model.ForkStateRejected,
				Errors:    []string{"internal error: " + err.Error()},
			}
		}
	}

	summary.Records = records
	summary.FinishedAt = o.cfg.now().UTC()

	logger.Info("Run finished",
		"run_id", summary.RunID,
		"repositories", len(records),
		"failed", summary.FailedCount(),
	)

	return o.signer.Finalize(summary, o.cfg.secret)
}

func (o *Orchestrator) process(ctx context.Context, source model.SourceRef) *model.RepositoryRecord {
	ctx = ctxlog.With(ctx, ctxlog.From(ctx).With("source", source.String()))
	record := &model.RepositoryRecord{
		Source:    source,
		ForkState: model.ForkStateRequested,
	}

	if ctx.Err() != nil {
		record.ForkState = model.ForkStateTimedOut
		record.Errors = append(record.Errors, "aborted: run cancelled before fork was requested")
		return record
	}

	fork, err := o.fork.Fork(ctx, source, o.cfg.target)
	record.ForkState = fork.State
	if fork.Repository != nil {
		record.Fork = fork.Repository.FullName
	}
	if err != nil {
		o.fail(ctx, record, "fork", err)
		return record
	}

	if ctx.Err() != nil {
		record.Errors = append(record.Errors, "aborted: run cancelled before release step")
		return record
	}

	release, err := o.release.EnsureRelease(ctx, fork, o.cfg.release)
	if err != nil {
		o.fail(ctx, record, "release", err)
	} else {
		record.Release = release.URL
		record.ReleaseCreated = release.Created
	}

	if o.cfg.importer == nil {
		return record
	}
	if ctx.Err() != nil {
		record.Errors = append(record.Errors, "aborted: run cancelled before import step")
		return record
	}

	result, err := o.cfg.importer.Import(ctx, fork.Repository.CloneURL, o.cfg.namespace, fork.Repository.Name)
	if err != nil {
		o.fail(ctx, record, "import", err)
		return record
	}
	record.Import = result

	return record
}

func (o *Orchestrator) fail(ctx context.Context, record *model.RepositoryRecord, step string, err error) {
	errs.Handle(ctx, "Repository step failed", err)
	record.Errors = append(record.Errors, step+": "+err.Error())
}
