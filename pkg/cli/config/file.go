package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
)

// DefaultFilePath is read when --config is not given. A missing default file
// is not an error.
const DefaultFilePath = "fork.toml"

// Duration is a time.Duration written as "1s", "500ms" in TOML
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return goerr.Wrap(err, "invalid duration", goerr.V("value", string(text)))
	}
	*d = Duration(v)
	return nil
}

// File is the content of the TOML configuration file
type File struct {
	GitHub       FileGitHub        `toml:"github"`
	GitLab       FileGitLab        `toml:"gitlab"`
	Release      model.ReleaseSpec `toml:"release"`
	Verification FileVerification  `toml:"verification"`
	Retry        FileRetry         `toml:"retry"`
	Run          FileRun           `toml:"run"`
}

// FileGitHub is the [github] section
type FileGitHub struct {
	TargetOrg  string `toml:"target_org"`
	TargetUser string `toml:"target_user"`
}

// FileGitLab is the [gitlab] section
type FileGitLab struct {
	Namespace  string `toml:"namespace"`
	BaseURL    string `toml:"base_url"`
	Visibility string `toml:"visibility"`
}

// FileVerification is the [verification] section. The allowed content types
// may be written as a list or as one comma separated string; an explicitly
// empty value disables the check.
type FileVerification struct {
	AllowedContentTypes any `toml:"allowed_content_types"`
}

// FileRetry is the [retry] section
type FileRetry struct {
	MaxAttempts     int      `toml:"max_attempts"`
	InitialInterval Duration `toml:"initial_interval"`
	MaxInterval     Duration `toml:"max_interval"`
	Multiplier      float64  `toml:"multiplier"`
}

// FileRun is the [run] section
type FileRun struct {
	Concurrency    int      `toml:"concurrency"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// DefaultContentType is accepted when the file does not name any
const DefaultContentType = "application/json"

// DefaultFile returns the configuration used when no file exists
func DefaultFile() *File {
	policy := model.DefaultRetryPolicy()
	return &File{
		Release: model.DefaultReleaseSpec(),
		GitLab: FileGitLab{
			Visibility: "public",
		},
		Retry: FileRetry{
			MaxAttempts:     policy.MaxAttempts,
			InitialInterval: Duration(policy.InitialInterval),
			MaxInterval:     Duration(policy.MaxInterval),
			Multiplier:      policy.Multiplier,
		},
		Verification: FileVerification{
			AllowedContentTypes: DefaultContentType,
		},
		Run: FileRun{
			Concurrency:    1,
			RequestTimeout: Duration(30 * time.Second),
		},
	}
}

// LoadFile reads path over the defaults. A missing file is only an error
// when required is true.
func LoadFile(path string, required bool) (*File, error) {
	cfg := DefaultFile()
	cfg.Verification.AllowedContentTypes = nil

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return DefaultFile(), nil
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path), goerr.T(types.ErrTagConfig))
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path), goerr.T(types.ErrTagConfig))
	}
	if cfg.Verification.AllowedContentTypes == nil {
		cfg.Verification.AllowedContentTypes = DefaultContentType
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid config file", goerr.V("path", path))
	}

	return cfg, nil
}

// Validate checks values that would make the run misbehave
func (f *File) Validate() error {
	if f.Retry.MaxAttempts < 1 {
		return goerr.New("retry.max_attempts must be at least 1", goerr.V("max_attempts", f.Retry.MaxAttempts), goerr.T(types.ErrTagConfig))
	}
	if f.Retry.InitialInterval <= 0 {
		return goerr.New("retry.initial_interval must be positive", goerr.T(types.ErrTagConfig))
	}
	if f.Retry.MaxInterval < f.Retry.InitialInterval {
		return goerr.New("retry.max_interval must not be below retry.initial_interval", goerr.T(types.ErrTagConfig))
	}
	if f.Retry.Multiplier < 1 {
		return goerr.New("retry.multiplier must be at least 1", goerr.V("multiplier", f.Retry.Multiplier), goerr.T(types.ErrTagConfig))
	}
	if f.Run.Concurrency < 1 {
		return goerr.New("run.concurrency must be at least 1", goerr.V("concurrency", f.Run.Concurrency), goerr.T(types.ErrTagConfig))
	}
	if f.Release.Tag == "" {
		return goerr.New("release.tag must not be empty", goerr.T(types.ErrTagConfig))
	}
	if _, err := f.ContentTypes(); err != nil {
		return err
	}
	return nil
}

// RetryPolicy returns the [retry] section as a policy
func (f *File) RetryPolicy() model.RetryPolicy {
	return model.RetryPolicy{
		MaxAttempts:     f.Retry.MaxAttempts,
		InitialInterval: time.Duration(f.Retry.InitialInterval),
		MaxInterval:     time.Duration(f.Retry.MaxInterval),
		Multiplier:      f.Retry.Multiplier,
	}
}

// RequestTimeout returns the per-call HTTP timeout
func (f *File) RequestTimeout() time.Duration {
	return time.Duration(f.Run.RequestTimeout)
}

// ForkTarget returns the [github] target namespace
func (f *File) ForkTarget() model.ForkTarget {
	return model.ForkTarget{
		Organization: f.GitHub.TargetOrg,
		User:         f.GitHub.TargetUser,
	}
}

// ContentTypes returns the allow-list of response media types. An empty
// list disables the content type check.
func (f *File) ContentTypes() ([]string, error) {
	switch v := f.Verification.AllowedContentTypes.(type) {
	case nil:
		return nil, nil
	case string:
		return splitList(v), nil
	case []any:
		var list []string
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, goerr.New("verification.allowed_content_types must hold strings", goerr.V("item", item), goerr.T(types.ErrTagConfig))
			}
			list = append(list, splitList(s)...)
		}
		return list, nil
	default:
		return nil, goerr.New("verification.allowed_content_types must be a string or a list", goerr.V("value", v), goerr.T(types.ErrTagConfig))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
