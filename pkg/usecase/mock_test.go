package usecase_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/obinexuscomputing/fork/pkg/domain/model"
)

var testPolicy = model.RetryPolicy{
	MaxAttempts:     5,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
	Multiplier:      2,
}

var testContentTypes = []string{"application/json"}

func jsonResp(status int) *model.APIResponse {
	return &model.APIResponse{StatusCode: status, ContentType: "application/json; charset=utf-8"}
}

// MockGitHubClient is a mock implementation of GitHubClient
type MockGitHubClient struct {
	createForkFunc    func(ctx context.Context, owner, repo, organization string) (*model.Repository, *model.APIResponse, error)
	getRepositoryFunc func(ctx context.Context, owner, repo string) (*model.Repository, *model.APIResponse, error)
	listReleasesFunc  func(ctx context.Context, owner, repo string) ([]*model.Release, *model.APIResponse, error)
	createReleaseFunc func(ctx context.Context, owner, repo string, spec model.ReleaseSpec) (*model.Release, *model.APIResponse, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockGitHubClient) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
}

// Calls returns how many times the named method was called
func (m *MockGitHubClient) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockGitHubClient) CreateFork(ctx context.Context, owner, repo, organization string) (*model.Repository, *model.APIResponse, error) {
	m.record("CreateFork")
	if m.createForkFunc != nil {
		return m.createForkFunc(ctx, owner, repo, organization)
	}
	return nil, nil, errors.New("mock not configured")
}

func (m *MockGitHubClient) GetRepository(ctx context.Context, owner, repo string) (*model.Repository, *model.APIResponse, error) {
	m.record("GetRepository")
	if m.getRepositoryFunc != nil {
		return m.getRepositoryFunc(ctx, owner, repo)
	}
	return nil, nil, errors.New("mock not configured")
}

func (m *MockGitHubClient) ListReleases(ctx context.Context, owner, repo string) ([]*model.Release, *model.APIResponse, error) {
	m.record("ListReleases")
	if m.listReleasesFunc != nil {
		return m.listReleasesFunc(ctx, owner, repo)
	}
	return nil, nil, errors.New("mock not configured")
}

func (m *MockGitHubClient) CreateRelease(ctx context.Context, owner, repo string, spec model.ReleaseSpec) (*model.Release, *model.APIResponse, error) {
	m.record("CreateRelease")
	if m.createReleaseFunc != nil {
		return m.createReleaseFunc(ctx, owner, repo, spec)
	}
	return nil, nil, errors.New("mock not configured")
}

// MockGitLabClient is a mock implementation of GitLabClient
type MockGitLabClient struct {
	createProjectFunc   func(ctx context.Context, importURL, namespace, name string) (*model.Project, *model.APIResponse, error)
	getProjectFunc      func(ctx context.Context, fullPath string) (*model.Project, *model.APIResponse, error)
	currentUsernameFunc func(ctx context.Context) (string, *model.APIResponse, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockGitLabClient) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
}

// Calls returns how many times the named method was called
func (m *MockGitLabClient) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockGitLabClient) CreateProject(ctx context.Context, importURL, namespace, name string) (*model.Project, *model.APIResponse, error) {
	m.record("CreateProject")
	if m.createProjectFunc != nil {
		return m.createProjectFunc(ctx, importURL, namespace, name)
	}
	return nil, nil, errors.New("mock not configured")
}

func (m *MockGitLabClient) GetProject(ctx context.Context, fullPath string) (*model.Project, *model.APIResponse, error) {
	m.record("GetProject")
	if m.getProjectFunc != nil {
		return m.getProjectFunc(ctx, fullPath)
	}
	return nil, nil, errors.New("mock not configured")
}

func (m *MockGitLabClient) CurrentUsername(ctx context.Context) (string, *model.APIResponse, error) {
	m.record("CurrentUsername")
	if m.currentUsernameFunc != nil {
		return m.currentUsernameFunc(ctx)
	}
	return "", nil, errors.New("mock not configured")
}

// releaseStore emulates the release list of one fork on the host
type releaseStore struct {
	mu       sync.Mutex
	releases []*model.Release
}

func (s *releaseStore) list(ctx context.Context, owner, repo string) ([]*model.Release, *model.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.Release{}, s.releases...), jsonResp(200), nil
}

func (s *releaseStore) create(ctx context.Context, owner, repo string, spec model.ReleaseSpec) (*model.Release, *model.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.releases {
		if r.TagName == spec.Tag {
			return nil, jsonResp(422), errors.New("tag already exists")
		}
	}
	r := &model.Release{
		ID:      int64(len(s.releases) + 1),
		TagName: spec.Tag,
		Name:    spec.Name,
		HTMLURL: "https://github.com/" + owner + "/" + repo + "/releases/tag/" + spec.Tag,
	}
	s.releases = append(s.releases, r)
	return r, jsonResp(201), nil
}
