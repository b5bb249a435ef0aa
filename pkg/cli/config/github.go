package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/interfaces"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
	"github.com/obinexuscomputing/fork/pkg/infra/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds credentials for the primary host. Either a token or the
// three GitHub App values must be set.
type GitHub struct {
	Token          string `masq:"secret"`
	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
	BaseURL        string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub token used to create forks and releases",
			Destination: &c.Token,
			Sources:     cli.EnvVars("FORK_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID, used instead of a token",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("FORK_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("FORK_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key",
			Usage:       "GitHub App private key (PEM content or file path)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("FORK_GITHUB_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "github-base-url",
			Usage:       "GitHub API base URL (GitHub Enterprise)",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("FORK_GITHUB_BASE_URL"),
		},
	}
}

func (c *GitHub) useApp() bool {
	return c.AppID != 0 || c.InstallationID != 0 || c.PrivateKey != ""
}

// Validate checks that exactly one way of authenticating is configured
func (c *GitHub) Validate() error {
	if c.Token != "" && c.useApp() {
		return goerr.New("set either --github-token or GitHub App credentials, not both", goerr.T(types.ErrTagConfig))
	}
	if c.Token != "" {
		return nil
	}
	if !c.useApp() {
		return goerr.New("GitHub credential is required (--github-token or GITHUB_TOKEN)", goerr.T(types.ErrTagConfig))
	}
	if c.AppID == 0 || c.InstallationID == 0 || c.PrivateKey == "" {
		return goerr.New("GitHub App auth requires app ID, installation ID and private key",
			goerr.V("app_id", c.AppID),
			goerr.V("installation_id", c.InstallationID),
			goerr.T(types.ErrTagConfig),
		)
	}
	return nil
}

// NewClient builds the primary host client
func (c *GitHub) NewClient(timeout time.Duration) (interfaces.GitHubClient, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	opts := []github.Option{github.WithTimeout(timeout)}
	if c.BaseURL != "" {
		opts = append(opts, github.WithBaseURL(c.BaseURL))
	}

	if c.Token != "" {
		return github.NewClient(c.Token, opts...)
	}

	key, err := c.privateKey()
	if err != nil {
		return nil, err
	}
	return github.NewAppClient(c.AppID, c.InstallationID, key, opts...)
}

func (c *GitHub) privateKey() ([]byte, error) {
	if _, err := os.Stat(c.PrivateKey); err == nil {
		data, err := os.ReadFile(c.PrivateKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read GitHub App private key", goerr.V("path", c.PrivateKey), goerr.T(types.ErrTagConfig))
		}
		return data, nil
	}
	return []byte(c.PrivateKey), nil
}
