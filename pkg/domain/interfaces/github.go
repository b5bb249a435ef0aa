package interfaces

import (
	"context"

	"github.com/obinexuscomputing/fork/pkg/domain/model"
)

// GitHubClient defines operations against the primary host API.
//
// Every method returns the APIResponse whenever the host answered, even if
// the status was an error; the returned error is then informational (e.g. a
// decode failure). A nil APIResponse means no response was received.
type GitHubClient interface {
	// CreateFork requests a fork of owner/repo, into organization when set
	CreateFork(ctx context.Context, owner, repo, organization string) (*model.Repository, *model.APIResponse, error)

	// GetRepository fetches a repository, used to check fork readiness
	GetRepository(ctx context.Context, owner, repo string) (*model.Repository, *model.APIResponse, error)

	// ListReleases lists releases of a repository, newest first
	ListReleases(ctx context.Context, owner, repo string) ([]*model.Release, *model.APIResponse, error)

	// CreateRelease creates a tag and release from spec
	CreateRelease(ctx context.Context, owner, repo string, spec model.ReleaseSpec) (*model.Release, *model.APIResponse, error)
}
