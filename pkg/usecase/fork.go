package usecase

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/cenkalti/backoff/v5"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/interfaces"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
	"github.com/obinexuscomputing/fork/pkg/utils/async"
)

type forkUseCase struct {
	githubClient interfaces.GitHubClient
	validator    *Validator
	policy       model.RetryPolicy

	mu    sync.Mutex
	ready map[string]*model.ForkResult
}

// NewFork creates a new instance of ForkUseCase
func NewFork(githubClient interfaces.GitHubClient, validator *Validator, policy model.RetryPolicy) interfaces.ForkUseCase {
	return &forkUseCase{
		githubClient: githubClient,
		validator:    validator,
		policy:       policy,
		ready:        make(map[string]*model.ForkResult),
	}
}

// Fork requests the fork and polls until it is ready, rejected or out of
// attempts. Creation and readiness polling each get policy.MaxAttempts calls.
// A fork that already reached Ready in this process is returned from memory.
func (uc *forkUseCase) Fork(ctx context.Context, source model.SourceRef, target model.ForkTarget) (*model.ForkResult, error) {
	logger := ctxlog.From(ctx)

	if err := target.Validate(); err != nil {
		return &model.ForkResult{State: model.ForkStateRejected, Reason: err.Error()}, err
	}

	key := source.String() + "->" + target.Namespace()
	uc.mu.Lock()
	cached, ok := uc.ready[key]
	uc.mu.Unlock()
	if ok {
		logger.Debug("Fork already ready", "source", source.String(), "fork", cached.Repository.FullName)
		return cached, nil
	}

	p := &forkPoll{
		uc:      uc,
		source:  source,
		target:  target,
		state:   model.ForkStateRequested,
		backoff: newBackOff(uc.policy),
	}

	result, err := p.run(ctx)
	if result.State == model.ForkStateReady {
		uc.mu.Lock()
		uc.ready[key] = result
		uc.mu.Unlock()
	}

	return result, err
}

// forkPoll is the state of a single fork operation
type forkPoll struct {
	uc      *forkUseCase
	source  model.SourceRef
	target  model.ForkTarget
	state   model.ForkState
	repo    *model.Repository
	backoff *backoff.ExponentialBackOff

	calls       int // all calls made
	phaseCalls  int // calls made in the current state
	last        *model.ValidationOutcome
	abortReason error
}

func (p *forkPoll) run(ctx context.Context) (*model.ForkResult, error) {
	maxAttempts := max(p.uc.policy.MaxAttempts, 1)

	for !p.state.IsTerminal() {
		if p.phaseCalls >= maxAttempts {
			p.transition(ctx, model.ForkStateTimedOut)
			break
		}

		if p.calls > 0 {
			if err := wait(ctx, p.backoff.NextBackOff()); err != nil {
				p.abort(ctx, err)
				break
			}
		}
		if err := ctx.Err(); err != nil {
			p.abort(ctx, err)
			break
		}

		switch p.state {
		case model.ForkStateRequested:
			p.submit(ctx)
		case model.ForkStatePending:
			p.check(ctx)
		}
	}

	return p.result(), p.err()
}

// submit issues the fork creation call
func (p *forkPoll) submit(ctx context.Context) {
	repo, resp, err := p.uc.githubClient.CreateFork(async.Detach(ctx), p.source.Owner, p.source.Repo, p.target.Organization)
	p.calls++
	p.phaseCalls++
	p.last = p.uc.validator.ValidateResponse(resp, err)

	switch p.last.Classification {
	case model.ClassSuccess:
		p.repo = p.resolve(repo)
		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
			p.transition(ctx, model.ForkStateReady)
		} else {
			p.transition(ctx, model.ForkStatePending)
		}
	case model.ClassFatal:
		p.transition(ctx, model.ForkStateRejected)
	default:
		ctxlog.From(ctx).Warn("Fork request not accepted yet, retrying",
			"source", p.source.String(),
			"reason", p.last.Reason,
			"attempt", p.phaseCalls,
		)
	}
}

// check queries whether the queued fork became visible. 404 only means the
// host has not finished copying.
func (p *forkPoll) check(ctx context.Context) {
	repo, resp, err := p.uc.githubClient.GetRepository(async.Detach(ctx), p.repo.Owner, p.repo.Name)
	p.calls++
	p.phaseCalls++
	p.last = p.uc.validator.ValidateResponse(resp, err, WithRetryableStatus(http.StatusNotFound))

	switch p.last.Classification {
	case model.ClassSuccess:
		p.merge(repo)
		p.transition(ctx, model.ForkStateReady)
	case model.ClassFatal:
		p.transition(ctx, model.ForkStateRejected)
	default:
		ctxlog.From(ctx).Debug("Fork not ready yet",
			"fork", p.repo.FullName,
			"reason", p.last.Reason,
			"attempt", p.phaseCalls,
		)
	}
}

func (p *forkPoll) transition(ctx context.Context, next model.ForkState) {
	ctxlog.From(ctx).Info("Fork state changed",
		"source", p.source.String(),
		"from", p.state,
		"to", next,
		"calls", p.calls,
	)
	p.state = next
	p.phaseCalls = 0
}

func (p *forkPoll) abort(ctx context.Context, cause error) {
	p.abortReason = cause
	p.transition(ctx, model.ForkStateTimedOut)
}

// resolve decides where the fork lives. The host normally tells us; when it
// does not, the fork is assumed to be <target namespace>/<source repo>.
func (p *forkPoll) resolve(repo *model.Repository) *model.Repository {
	if repo != nil && repo.FullName != "" {
		resolved := *repo
		if owner, name, ok := strings.Cut(repo.FullName, "/"); ok {
			resolved.Owner, resolved.Name = owner, name
		}
		return &resolved
	}

	fullName := p.target.Namespace() + "/" + p.source.Repo
	return &model.Repository{
		Owner:    p.target.Namespace(),
		Name:     p.source.Repo,
		FullName: fullName,
		CloneURL: "https://github.com/" + fullName + ".git",
		HTMLURL:  "https://github.com/" + fullName,
	}
}

func (p *forkPoll) merge(repo *model.Repository) {
	if repo == nil {
		return
	}
	if repo.CloneURL != "" {
		p.repo.CloneURL = repo.CloneURL
	}
	if repo.HTMLURL != "" {
		p.repo.HTMLURL = repo.HTMLURL
	}
}

func (p *forkPoll) result() *model.ForkResult {
	result := &model.ForkResult{
		State:      p.state,
		Repository: p.repo,
		Attempts:   p.calls,
	}
	switch {
	case p.abortReason != nil:
		result.Reason = "aborted"
	case p.last != nil && p.state != model.ForkStateReady:
		result.Reason = p.last.Reason
	}
	return result
}

func (p *forkPoll) err() error {
	values := []goerr.Option{
		goerr.V("source", p.source.String()),
		goerr.V("target", p.target.Namespace()),
		goerr.V("calls", p.calls),
	}

	switch p.state {
	case model.ForkStateRejected:
		return outcomeError(p.last, "fork rejected", goerr.T(types.ErrTagForkRejected), values...)

	case model.ForkStateTimedOut:
		if p.abortReason != nil {
			return goerr.Wrap(abortedError(p.abortReason), "fork timed out", append(values, goerr.T(types.ErrTagForkTimeout))...)
		}
		return outcomeError(p.last, "fork timed out", goerr.T(types.ErrTagForkTimeout), values...)
	}

	return nil
}
