package model

// ImportResult is the outcome of an import-by-URL on the secondary host.
// Created is false when the project already existed.
type ImportResult struct {
	ProjectURL string `json:"project_url"`
	Created    bool   `json:"created"`
}

// Project represents a project on the secondary host
type Project struct {
	ID                int64  `json:"id"`
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
}
