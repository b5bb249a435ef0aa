package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/interfaces"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
)

type client struct {
	githubClient *github.Client
}

type config struct {
	baseURL string
	timeout time.Duration
}

// Option configures the GitHub client
type Option func(*config)

// WithBaseURL points the client at a GitHub Enterprise or test server
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// NewClient creates a new GitHub client authenticated with a token
func NewClient(token string, opts ...Option) (interfaces.GitHubClient, error) {
	if token == "" {
		return nil, goerr.New("GitHub token is empty")
	}
	cfg := newConfig(opts)

	ghClient := github.NewClient(&http.Client{Timeout: cfg.timeout}).WithAuthToken(token)
	if err := setBaseURL(ghClient, cfg.baseURL); err != nil {
		return nil, err
	}

	return &client{githubClient: ghClient}, nil
}

// NewAppClient creates a new GitHub client with App installation authentication
func NewAppClient(appID, installationID int64, privateKey []byte, opts ...Option) (interfaces.GitHubClient, error) {
	cfg := newConfig(opts)

	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport",
			goerr.V("app_id", appID),
			goerr.V("installation_id", installationID),
		)
	}
	if cfg.baseURL != "" {
		itr.BaseURL = strings.TrimSuffix(cfg.baseURL, "/")
	}

	ghClient := github.NewClient(&http.Client{Transport: itr, Timeout: cfg.timeout})
	if err := setBaseURL(ghClient, cfg.baseURL); err != nil {
		return nil, err
	}

	return &client{githubClient: ghClient}, nil
}

func newConfig(opts []Option) *config {
	cfg := &config{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func setBaseURL(c *github.Client, baseURL string) error {
	if baseURL == "" {
		return nil
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return goerr.Wrap(err, "invalid GitHub base URL", goerr.V("base_url", baseURL))
	}
	c.BaseURL = u
	return nil
}

// CreateFork requests a fork. GitHub answers 202 while the fork is queued; the
// body still describes the future fork, so it is decoded from the
// AcceptedError payload.
func (c *client) CreateFork(ctx context.Context, owner, repo, organization string) (*model.Repository, *model.APIResponse, error) {
	opts := &github.RepositoryCreateForkOptions{Organization: organization}

	fork, resp, err := c.githubClient.Repositories.CreateFork(ctx, owner, repo, opts)
	apiResp := toAPIResponse(resp)

	var accepted *github.AcceptedError
	if errors.As(err, &accepted) {
		var queued github.Repository
		if len(accepted.Raw) > 0 {
			if decodeErr := json.Unmarshal(accepted.Raw, &queued); decodeErr != nil {
				return nil, apiResp, goerr.Wrap(decodeErr, "failed to decode queued fork",
					goerr.V("owner", owner), goerr.V("repo", repo))
			}
		}
		return toRepository(&queued), apiResp, nil
	}
	if err != nil {
		return nil, apiResp, goerr.Wrap(err, "failed to create fork",
			goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("organization", organization))
	}

	return toRepository(fork), apiResp, nil
}

// GetRepository fetches a repository
func (c *client) GetRepository(ctx context.Context, owner, repo string) (*model.Repository, *model.APIResponse, error) {
	r, resp, err := c.githubClient.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, toAPIResponse(resp), goerr.Wrap(err, "failed to get repository",
			goerr.V("owner", owner), goerr.V("repo", repo))
	}
	return toRepository(r), toAPIResponse(resp), nil
}

// ListReleases lists the first page of releases; only emptiness matters to
// callers
func (c *client) ListReleases(ctx context.Context, owner, repo string) ([]*model.Release, *model.APIResponse, error) {
	releases, resp, err := c.githubClient.Repositories.ListReleases(ctx, owner, repo, &github.ListOptions{PerPage: 10})
	if err != nil {
		return nil, toAPIResponse(resp), goerr.Wrap(err, "failed to list releases",
			goerr.V("owner", owner), goerr.V("repo", repo))
	}

	result := make([]*model.Release, 0, len(releases))
	for _, r := range releases {
		result = append(result, toRelease(r))
	}
	return result, toAPIResponse(resp), nil
}

// CreateRelease creates a release; GitHub creates the tag from the default
// branch when it does not exist
func (c *client) CreateRelease(ctx context.Context, owner, repo string, spec model.ReleaseSpec) (*model.Release, *model.APIResponse, error) {
	release, resp, err := c.githubClient.Repositories.CreateRelease(ctx, owner, repo, &github.RepositoryRelease{
		TagName:    github.Ptr(spec.Tag),
		Name:       github.Ptr(spec.Name),
		Body:       github.Ptr(spec.Body),
		Draft:      github.Ptr(spec.Draft),
		Prerelease: github.Ptr(spec.Prerelease),
	})
	if err != nil {
		return nil, toAPIResponse(resp), goerr.Wrap(err, "failed to create release",
			goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("tag", spec.Tag))
	}
	return toRelease(release), toAPIResponse(resp), nil
}

func toAPIResponse(resp *github.Response) *model.APIResponse {
	if resp == nil || resp.Response == nil {
		return nil
	}
	return &model.APIResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
}

func toRepository(r *github.Repository) *model.Repository {
	if r == nil {
		return nil
	}
	return &model.Repository{
		Owner:    r.GetOwner().GetLogin(),
		Name:     r.GetName(),
		FullName: r.GetFullName(),
		CloneURL: r.GetCloneURL(),
		HTMLURL:  r.GetHTMLURL(),
	}
}

func toRelease(r *github.RepositoryRelease) *model.Release {
	return &model.Release{
		ID:         r.GetID(),
		TagName:    r.GetTagName(),
		Name:       r.GetName(),
		HTMLURL:    r.GetHTMLURL(),
		Draft:      r.GetDraft(),
		Prerelease: r.GetPrerelease(),
	}
}
