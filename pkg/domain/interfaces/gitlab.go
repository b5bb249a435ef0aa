package interfaces

import (
	"context"

	"github.com/obinexuscomputing/fork/pkg/domain/model"
)

// GitLabClient defines operations against the secondary host API. The
// APIResponse convention is the same as GitHubClient.
type GitLabClient interface {
	// CreateProject starts an import-by-URL job into namespace
	CreateProject(ctx context.Context, importURL, namespace, name string) (*model.Project, *model.APIResponse, error)

	// GetProject fetches a project by its full path (namespace/name)
	GetProject(ctx context.Context, fullPath string) (*model.Project, *model.APIResponse, error)

	// CurrentUsername returns the username the token belongs to
	CurrentUsername(ctx context.Context) (string, *model.APIResponse, error)
}

// Notifier publishes a finished run summary
type Notifier interface {
	Notify(ctx context.Context, summary *model.OperationSummary) error
}
