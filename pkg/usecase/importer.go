package usecase

import (
	"context"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/interfaces"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
	"github.com/obinexuscomputing/fork/pkg/utils/async"
)

type importUseCase struct {
	gitlabClient interfaces.GitLabClient
	validator    *Validator
	policy       model.RetryPolicy
}

// NewImport creates a new instance of ImportUseCase
func NewImport(gitlabClient interfaces.GitLabClient, validator *Validator, policy model.RetryPolicy) interfaces.ImportUseCase {
	return &importUseCase{
		gitlabClient: gitlabClient,
		validator:    validator,
		policy:       policy,
	}
}

// Import starts an import-by-URL job on the secondary host. A 409 means the
// project already exists and resolves to its URL with Created=false.
func (uc *importUseCase) Import(ctx context.Context, cloneURL, namespace, name string) (*model.ImportResult, error) {
	logger := ctxlog.From(ctx)
	values := []goerr.Option{
		goerr.V("import_url", cloneURL),
		goerr.V("namespace", namespace),
		goerr.V("name", name),
	}

	var project *model.Project
	outcome, _, err := retryCall(ctx, uc.policy, func() *model.ValidationOutcome {
		p, resp, err := uc.gitlabClient.CreateProject(async.Detach(ctx), cloneURL, namespace, name)
		project = p
		return uc.validator.ValidateResponse(resp, err)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to import project", append(values, goerr.T(types.ErrTagImport))...)
	}

	switch {
	case outcome.IsSuccess():
		logger.Info("Import started on secondary host",
			"project", project.PathWithNamespace,
			"url", project.WebURL,
		)
		return &model.ImportResult{ProjectURL: project.WebURL, Created: true}, nil

	case outcome.IsFatal() && outcome.StatusCode == http.StatusConflict:
		url, err := uc.existingProjectURL(ctx, namespace, name)
		if err != nil {
			return nil, goerr.Wrap(err, "project exists but could not be resolved", append(values, goerr.T(types.ErrTagImport))...)
		}
		logger.Info("Project already exists on secondary host", "url", url)
		return &model.ImportResult{ProjectURL: url, Created: false}, nil
	}

	return nil, outcomeError(outcome, "failed to import project", goerr.T(types.ErrTagImport), values...)
}

func (uc *importUseCase) existingProjectURL(ctx context.Context, namespace, name string) (string, error) {
	if namespace == "" {
		var username string
		outcome, _, err := retryCall(ctx, uc.policy, func() *model.ValidationOutcome {
			u, resp, err := uc.gitlabClient.CurrentUsername(async.Detach(ctx))
			username = u
			return uc.validator.ValidateResponse(resp, err)
		})
		if err != nil {
			return "", err
		}
		if !outcome.IsSuccess() || username == "" {
			return "", outcomeError(outcome, "failed to resolve current user", goerr.T(types.ErrTagImport))
		}
		namespace = username
	}

	fullPath := namespace + "/" + name
	var project *model.Project
	outcome, _, err := retryCall(ctx, uc.policy, func() *model.ValidationOutcome {
		p, resp, err := uc.gitlabClient.GetProject(async.Detach(ctx), fullPath)
		project = p
		return uc.validator.ValidateResponse(resp, err)
	})
	if err != nil {
		return "", err
	}
	if !outcome.IsSuccess() {
		return "", outcomeError(outcome, "failed to get existing project", goerr.T(types.ErrTagImport), goerr.V("path", fullPath))
	}
	if project.WebURL == "" {
		return "", goerr.New("existing project has no web URL", goerr.V("path", fullPath), goerr.T(types.ErrTagImport))
	}

	return project.WebURL, nil
}
