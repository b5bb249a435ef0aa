package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
	"github.com/obinexuscomputing/fork/pkg/infra/listfile"
	"github.com/urfave/cli/v3"
)

// Run holds the flags of the run command. Flag values win over the
// configuration file.
type Run struct {
	ConfigPath  string
	Sources     []string
	ListPath    string
	Output      string
	TargetOrg   string
	TargetUser  string
	Concurrency int
}

// Flags returns CLI flags for the run command
func (c *Run) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "TOML configuration file",
			Value:       DefaultFilePath,
			Destination: &c.ConfigPath,
			Sources:     cli.EnvVars("FORK_CONFIG"),
		},
		&cli.StringSliceFlag{
			Name:        "source",
			Aliases:     []string{"s"},
			Usage:       "Source repository as owner/repo (repeatable)",
			Destination: &c.Sources,
		},
		&cli.StringFlag{
			Name:        "list",
			Aliases:     []string{"l"},
			Usage:       "File listing source repositories (.txt, .csv or .tsv)",
			Destination: &c.ListPath,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the summary JSON to this file instead of stdout",
			Destination: &c.Output,
		},
		&cli.StringFlag{
			Name:        "target-org",
			Usage:       "Organization to fork into (overrides github.target_org)",
			Destination: &c.TargetOrg,
			Sources:     cli.EnvVars("FORK_TARGET_ORG"),
		},
		&cli.StringFlag{
			Name:        "target-user",
			Usage:       "User to fork into (overrides github.target_user)",
			Destination: &c.TargetUser,
			Sources:     cli.EnvVars("FORK_TARGET_USER"),
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Repositories processed at once (overrides run.concurrency)",
			Destination: &c.Concurrency,
			Sources:     cli.EnvVars("FORK_CONCURRENCY"),
		},
	}
}

// LoadFile reads the configuration file. Only an explicitly chosen path
// must exist.
func (c *Run) LoadFile() (*File, error) {
	path := c.ConfigPath
	if path == "" {
		path = DefaultFilePath
	}
	return LoadFile(path, path != DefaultFilePath)
}

// ForkTarget returns the target namespace, flags first. A flag replaces the
// whole target so that --target-user can override a file target_org.
func (c *Run) ForkTarget(f *File) (model.ForkTarget, error) {
	target := f.ForkTarget()
	if c.TargetOrg != "" || c.TargetUser != "" {
		target = model.ForkTarget{Organization: c.TargetOrg, User: c.TargetUser}
	}
	if err := target.Validate(); err != nil {
		return model.ForkTarget{}, err
	}
	return target, nil
}

// ConcurrencyOr returns the flag value when set, else fallback
func (c *Run) ConcurrencyOr(fallback int) int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return fallback
}

// SourceRefs collects sources from --source and --list, in that order
func (c *Run) SourceRefs() ([]model.SourceRef, error) {
	var refs []model.SourceRef
	for _, raw := range c.Sources {
		ref, err := model.ParseSourceRef(raw)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	if c.ListPath != "" {
		listed, err := listfile.Load(c.ListPath)
		if err != nil {
			return nil, err
		}
		refs = append(refs, listed...)
	}

	if len(refs) == 0 {
		return nil, goerr.New("no source repository given, use --source or --list", goerr.T(types.ErrTagConfig))
	}
	return refs, nil
}
