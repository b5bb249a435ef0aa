package config

import (
	"time"

	"github.com/obinexuscomputing/fork/pkg/domain/interfaces"
	"github.com/obinexuscomputing/fork/pkg/infra/gitlab"
	"github.com/urfave/cli/v3"
)

// GitLab holds the secondary host configuration. Without a token the import
// step is skipped.
type GitLab struct {
	Token     string `masq:"secret"`
	BaseURL   string
	Namespace string
}

// Flags returns CLI flags for GitLab configuration
func (c *GitLab) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gitlab-token",
			Usage:       "GitLab token; enables mirroring forks into GitLab",
			Destination: &c.Token,
			Sources:     cli.EnvVars("FORK_GITLAB_TOKEN", "GITLAB_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "gitlab-base-url",
			Usage:       "GitLab API base URL (overrides gitlab.base_url)",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("FORK_GITLAB_BASE_URL"),
		},
		&cli.StringFlag{
			Name:        "gitlab-namespace",
			Usage:       "GitLab namespace to import into (overrides gitlab.namespace)",
			Destination: &c.Namespace,
			Sources:     cli.EnvVars("FORK_GITLAB_NAMESPACE"),
		},
	}
}

// Enabled reports whether the import step should run
func (c *GitLab) Enabled() bool {
	return c.Token != ""
}

// Merge fills values not given as flags from the [gitlab] section
func (c *GitLab) Merge(f FileGitLab) {
	if c.BaseURL == "" {
		c.BaseURL = f.BaseURL
	}
	if c.Namespace == "" {
		c.Namespace = f.Namespace
	}
}

// NewClient builds the secondary host client
func (c *GitLab) NewClient(visibility string, timeout time.Duration) (interfaces.GitLabClient, error) {
	opts := []gitlab.Option{gitlab.WithTimeout(timeout)}
	if c.BaseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(c.BaseURL))
	}
	if visibility != "" {
		opts = append(opts, gitlab.WithVisibility(visibility))
	}
	return gitlab.NewClient(c.Token, opts...)
}
