package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/interfaces"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
	"github.com/obinexuscomputing/fork/pkg/utils/async"
)

type releaseUseCase struct {
	githubClient interfaces.GitHubClient
	validator    *Validator
	policy       model.RetryPolicy

	locks   sync.Map // fork full name -> *sync.Mutex
	mu      sync.Mutex
	ensured map[string]string // fork full name -> release URL
}

// NewRelease creates a new instance of ReleaseUseCase
func NewRelease(githubClient interfaces.GitHubClient, validator *Validator, policy model.RetryPolicy) interfaces.ReleaseUseCase {
	return &releaseUseCase{
		githubClient: githubClient,
		validator:    validator,
		policy:       policy,
		ensured:      make(map[string]string),
	}
}

// EnsureRelease makes sure the fork has at least one release and returns its
// URL. Calls for the same fork are serialized, and once a fork is known to
// have a release no further calls are made for it.
func (uc *releaseUseCase) EnsureRelease(ctx context.Context, fork *model.ForkResult, spec model.ReleaseSpec) (*model.ReleaseResult, error) {
	if !fork.IsReady() {
		var state model.ForkState
		if fork != nil {
			state = fork.State
		}
		return nil, goerr.New("fork is not ready", goerr.V("state", state), goerr.T(types.ErrTagRelease))
	}

	name := fork.Repository.FullName
	lock := uc.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	uc.mu.Lock()
	url, done := uc.ensured[name]
	uc.mu.Unlock()
	if done {
		ctxlog.From(ctx).Debug("Release already ensured in this run", "fork", name)
		return &model.ReleaseResult{URL: url}, nil
	}

	result, err := uc.ensure(ctx, fork.Repository, spec)
	if err != nil {
		return nil, err
	}

	uc.mu.Lock()
	uc.ensured[name] = result.URL
	uc.mu.Unlock()

	return result, nil
}

func (uc *releaseUseCase) lockFor(name string) *sync.Mutex {
	v, _ := uc.locks.LoadOrStore(name, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (uc *releaseUseCase) ensure(ctx context.Context, repo *model.Repository, spec model.ReleaseSpec) (*model.ReleaseResult, error) {
	logger := ctxlog.From(ctx)

	var releases []*model.Release
	outcome, _, err := retryCall(ctx, uc.policy, func() *model.ValidationOutcome {
		var outcome *model.ValidationOutcome
		releases, outcome = uc.list(ctx, repo)
		return outcome
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list releases", goerr.V("fork", repo.FullName), goerr.T(types.ErrTagRelease))
	}
	if !outcome.IsSuccess() {
		return nil, outcomeError(outcome, "failed to list releases", goerr.T(types.ErrTagRelease), goerr.V("fork", repo.FullName))
	}

	if len(releases) > 0 {
		logger.Info("Fork already has a release",
			"fork", repo.FullName,
			"tag", releases[0].TagName,
		)
		return &model.ReleaseResult{URL: releases[0].HTMLURL}, nil
	}

	logger.Info("Creating release",
		"fork", repo.FullName,
		"tag", spec.Tag,
		"name", spec.Name,
	)

	var release *model.Release
	outcome, _, err = retryCall(ctx, uc.policy, func() *model.ValidationOutcome {
		r, resp, err := uc.githubClient.CreateRelease(async.Detach(ctx), repo.Owner, repo.Name, spec)
		release = r
		return uc.validator.ValidateResponse(resp, err)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create release", goerr.V("fork", repo.FullName), goerr.T(types.ErrTagRelease))
	}

	switch outcome.Classification {
	case model.ClassSuccess:
		logger.Info("Release created",
			"fork", repo.FullName,
			"tag", release.TagName,
			"url", release.HTMLURL,
		)
		return &model.ReleaseResult{Created: true, URL: release.HTMLURL}, nil

	case model.ClassFatal:
		// A previous run may have created the release (e.g. "tag already
		// exists") and died before recording it. One more listing settles it.
		existing, relist := uc.list(ctx, repo)
		if relist.IsSuccess() && len(existing) > 0 {
			logger.Info("Release creation refused but a release exists",
				"fork", repo.FullName,
				"reason", outcome.Reason,
				"tag", existing[0].TagName,
			)
			return &model.ReleaseResult{URL: existing[0].HTMLURL}, nil
		}
	}

	return nil, outcomeError(outcome, "failed to create release", goerr.T(types.ErrTagRelease),
		goerr.V("fork", repo.FullName),
		goerr.V("tag", spec.Tag),
	)
}

func (uc *releaseUseCase) list(ctx context.Context, repo *model.Repository) ([]*model.Release, *model.ValidationOutcome) {
	releases, resp, err := uc.githubClient.ListReleases(async.Detach(ctx), repo.Owner, repo.Name)
	return releases, uc.validator.ValidateResponse(resp, err)
}
