package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
)

// SourceRef identifies the repository to fork on the primary host
type SourceRef struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// String returns "owner/repo"
func (s SourceRef) String() string {
	return s.Owner + "/" + s.Repo
}

// ParseSourceRef parses "owner/repo". A leading https://github.com/ and a
// trailing .git are accepted and stripped.
func ParseSourceRef(raw string) (SourceRef, error) {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(v, "https://github.com/")
	v = strings.TrimSuffix(v, "/")
	v = strings.TrimSuffix(v, ".git")

	parts := strings.Split(v, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return SourceRef{}, goerr.New("invalid source repository, expected owner/repo",
			goerr.V("source", raw),
			goerr.T(types.ErrTagConfig),
		)
	}

	return SourceRef{Owner: parts[0], Repo: parts[1]}, nil
}

// ForkTarget is the namespace the fork is created in. Exactly one of
// Organization and User must be set.
type ForkTarget struct {
	Organization string `json:"organization,omitempty"`
	User         string `json:"user,omitempty"`
}

// Validate checks that exactly one namespace is set
func (t ForkTarget) Validate() error {
	switch {
	case t.Organization != "" && t.User != "":
		return goerr.New("fork target must set either organization or user, not both",
			goerr.V("organization", t.Organization),
			goerr.V("user", t.User),
			goerr.T(types.ErrTagConfig),
		)
	case t.Organization == "" && t.User == "":
		return goerr.New("fork target requires an organization or a user", goerr.T(types.ErrTagConfig))
	}
	return nil
}

// Namespace returns whichever of Organization or User is set
func (t ForkTarget) Namespace() string {
	if t.Organization != "" {
		return t.Organization
	}
	return t.User
}

// Repository is a repository as reported by the primary host
type Repository struct {
	Owner    string
	Name     string
	FullName string
	CloneURL string
	HTMLURL  string
}
