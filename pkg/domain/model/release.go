package model

// ReleaseSpec is the payload used to create a release when the fork has none
type ReleaseSpec struct {
	Tag        string `toml:"tag"`
	Name       string `toml:"name"`
	Body       string `toml:"body"`
	Draft      bool   `toml:"draft"`
	Prerelease bool   `toml:"prerelease"`
}

// DefaultReleaseSpec returns the release used when the config file sets none
func DefaultReleaseSpec() ReleaseSpec {
	return ReleaseSpec{
		Tag:  "v0.0.1",
		Name: "Initial release",
		Body: "Auto-created release",
	}
}

// Release represents an existing release on the primary host
type Release struct {
	ID         int64
	TagName    string
	Name       string
	HTMLURL    string
	Draft      bool
	Prerelease bool
}

// ReleaseResult describes the release a fork ended up with. Created is true
// only when this run created it.
type ReleaseResult struct {
	Created bool
	URL     string
}
