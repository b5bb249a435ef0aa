package gitlab

import (
	"context"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/interfaces"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// DefaultBaseURL is the public GitLab REST API
const DefaultBaseURL = "https://gitlab.com/api/v4"

type client struct {
	gitlabClient *gitlab.Client
	visibility   gitlab.VisibilityValue
}

type config struct {
	baseURL    string
	visibility string
	timeout    time.Duration
}

// Option configures the GitLab client
type Option func(*config)

// WithBaseURL sets the API root, e.g. https://gitlab.example.com/api/v4
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithVisibility sets the visibility of imported projects
func WithVisibility(visibility string) Option {
	return func(c *config) {
		c.visibility = visibility
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// NewClient creates a new GitLab client authenticated with a personal access
// token. Retries are left to the caller, so the SDK's own retry loop is off.
func NewClient(token string, opts ...Option) (interfaces.GitLabClient, error) {
	if token == "" {
		return nil, goerr.New("GitLab token is empty")
	}

	cfg := &config{
		baseURL:    DefaultBaseURL,
		visibility: string(gitlab.PublicVisibility),
		timeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	glClient, err := gitlab.NewClient(token,
		gitlab.WithBaseURL(cfg.baseURL),
		gitlab.WithHTTPClient(&http.Client{Timeout: cfg.timeout}),
		gitlab.WithoutRetries(),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitLab client", goerr.V("base_url", cfg.baseURL))
	}

	return &client{
		gitlabClient: glClient,
		visibility:   gitlab.VisibilityValue(cfg.visibility),
	}, nil
}

// CreateProject starts an import-by-URL job. A non-empty namespace is
// resolved to its ID first; a failed lookup is reported with its response.
func (c *client) CreateProject(ctx context.Context, importURL, namespace, name string) (*model.Project, *model.APIResponse, error) {
	opt := &gitlab.CreateProjectOptions{
		Name:       gitlab.Ptr(name),
		Path:       gitlab.Ptr(name),
		ImportURL:  gitlab.Ptr(importURL),
		Visibility: gitlab.Ptr(c.visibility),
	}

	if namespace != "" {
		ns, resp, err := c.gitlabClient.Namespaces.GetNamespace(namespace, gitlab.WithContext(ctx))
		if err != nil {
			return nil, toAPIResponse(resp), goerr.Wrap(err, "failed to resolve namespace", goerr.V("namespace", namespace))
		}
		opt.NamespaceID = gitlab.Ptr(ns.ID)
	}

	project, resp, err := c.gitlabClient.Projects.CreateProject(opt, gitlab.WithContext(ctx))
	if err != nil {
		return nil, toAPIResponse(resp), goerr.Wrap(err, "failed to create project",
			goerr.V("import_url", importURL), goerr.V("namespace", namespace), goerr.V("name", name))
	}
	return toProject(project), toAPIResponse(resp), nil
}

// GetProject fetches a project by "namespace/name"
func (c *client) GetProject(ctx context.Context, fullPath string) (*model.Project, *model.APIResponse, error) {
	project, resp, err := c.gitlabClient.Projects.GetProject(fullPath, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, toAPIResponse(resp), goerr.Wrap(err, "failed to get project", goerr.V("path", fullPath))
	}
	return toProject(project), toAPIResponse(resp), nil
}

// CurrentUsername returns the username of the token owner
func (c *client) CurrentUsername(ctx context.Context) (string, *model.APIResponse, error) {
	user, resp, err := c.gitlabClient.Users.CurrentUser(gitlab.WithContext(ctx))
	if err != nil {
		return "", toAPIResponse(resp), goerr.Wrap(err, "failed to get current user")
	}
	return user.Username, toAPIResponse(resp), nil
}

func toProject(p *gitlab.Project) *model.Project {
	if p == nil {
		return nil
	}
	return &model.Project{
		ID:                int64(p.ID),
		PathWithNamespace: p.PathWithNamespace,
		WebURL:            p.WebURL,
	}
}

// toAPIResponse keeps what the validator needs. A nil response means the
// server never answered.
func toAPIResponse(resp *gitlab.Response) *model.APIResponse {
	if resp == nil || resp.Response == nil {
		return nil
	}
	return &model.APIResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
}
