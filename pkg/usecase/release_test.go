package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/obinexuscomputing/fork/pkg/domain/interfaces"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
	"github.com/obinexuscomputing/fork/pkg/usecase"
)

func newReleaseUseCase(client *MockGitHubClient) interfaces.ReleaseUseCase {
	return usecase.NewRelease(client, usecase.NewValidator(testContentTypes), testPolicy)
}

func readyResult() *model.ForkResult {
	return &model.ForkResult{State: model.ForkStateReady, Repository: readyFork()}
}

func TestReleaseUseCase_ExistingReleaseSkipsCreation(t *testing.T) {
	client := &MockGitHubClient{
		listReleasesFunc: func(ctx context.Context, owner, repo string) ([]*model.Release, *model.APIResponse, error) {
			gt.Value(t, owner).Equal("my-org")
			gt.Value(t, repo).Equal("hello")
			return []*model.Release{{ID: 1, TagName: "v1.0.0", HTMLURL: "https://github.com/my-org/hello/releases/tag/v1.0.0"}}, jsonResp(200), nil
		},
	}

	result, err := newReleaseUseCase(client).EnsureRelease(context.Background(), readyResult(), model.DefaultReleaseSpec())

	gt.NoError(t, err)
	gt.False(t, result.Created)
	gt.Value(t, result.URL).Equal("https://github.com/my-org/hello/releases/tag/v1.0.0")
	gt.Value(t, client.Calls("CreateRelease")).Equal(0)
}

func TestReleaseUseCase_CreateThenRerun(t *testing.T) {
	store := &releaseStore{}
	client := &MockGitHubClient{
		listReleasesFunc:  store.list,
		createReleaseFunc: store.create,
	}
	ctx := context.Background()
	spec := model.DefaultReleaseSpec()

	const wantURL = "https://github.com/my-org/hello/releases/tag/v0.0.1"

	uc := newReleaseUseCase(client)
	result, err := uc.EnsureRelease(ctx, readyResult(), spec)
	gt.NoError(t, err)
	gt.True(t, result.Created)
	gt.Value(t, result.URL).Equal(wantURL)
	gt.A(t, store.releases).Length(1)
	gt.Value(t, store.releases[0].TagName).Equal("v0.0.1")

	t.Run("same use case", func(t *testing.T) {
		result, err := uc.EnsureRelease(ctx, readyResult(), spec)
		gt.NoError(t, err)
		gt.False(t, result.Created)
		gt.Value(t, result.URL).Equal(wantURL)
	})

	t.Run("fresh use case sees the release on the host", func(t *testing.T) {
		result, err := newReleaseUseCase(client).EnsureRelease(ctx, readyResult(), spec)
		gt.NoError(t, err)
		gt.False(t, result.Created)
		gt.Value(t, result.URL).Equal(wantURL)
	})

	gt.Value(t, client.Calls("CreateRelease")).Equal(1)
}

func TestReleaseUseCase_ConflictThenExisting(t *testing.T) {
	listed := 0
	client := &MockGitHubClient{
		listReleasesFunc: func(ctx context.Context, owner, repo string) ([]*model.Release, *model.APIResponse, error) {
			listed++
			if listed == 1 {
				return []*model.Release{}, jsonResp(200), nil
			}
			return []*model.Release{{ID: 9, TagName: "v0.0.1", HTMLURL: "https://github.com/my-org/hello/releases/tag/v0.0.1"}}, jsonResp(200), nil
		},
		createReleaseFunc: func(ctx context.Context, owner, repo string, spec model.ReleaseSpec) (*model.Release, *model.APIResponse, error) {
			return nil, jsonResp(409), errors.New("tag already exists")
		},
	}

	result, err := newReleaseUseCase(client).EnsureRelease(context.Background(), readyResult(), model.DefaultReleaseSpec())

	gt.NoError(t, err)
	gt.False(t, result.Created)
	gt.Value(t, result.URL).Equal("https://github.com/my-org/hello/releases/tag/v0.0.1")
	gt.Value(t, client.Calls("ListReleases")).Equal(2)
	gt.Value(t, client.Calls("CreateRelease")).Equal(1)
}

func TestReleaseUseCase_ConflictAndStillEmpty(t *testing.T) {
	client := &MockGitHubClient{
		listReleasesFunc: func(ctx context.Context, owner, repo string) ([]*model.Release, *model.APIResponse, error) {
			return nil, jsonResp(200), nil
		},
		createReleaseFunc: func(ctx context.Context, owner, repo string, spec model.ReleaseSpec) (*model.Release, *model.APIResponse, error) {
			return nil, jsonResp(422), errors.New("validation failed")
		},
	}

	result, err := newReleaseUseCase(client).EnsureRelease(context.Background(), readyResult(), model.DefaultReleaseSpec())

	gt.Error(t, err)
	gt.Value(t, result).Nil()
	gt.True(t, goerr.HasTag(err, types.ErrTagRelease))
	gt.Value(t, client.Calls("ListReleases")).Equal(2)
}

func TestReleaseUseCase_ForkNotReady(t *testing.T) {
	client := &MockGitHubClient{}
	uc := newReleaseUseCase(client)

	for _, fork := range []*model.ForkResult{
		nil,
		{State: model.ForkStatePending, Repository: readyFork()},
		{State: model.ForkStateTimedOut},
		{State: model.ForkStateRejected},
	} {
		result, err := uc.EnsureRelease(context.Background(), fork, model.DefaultReleaseSpec())
		gt.Error(t, err)
		gt.Value(t, result).Nil()
		gt.True(t, goerr.HasTag(err, types.ErrTagRelease))
	}
	gt.Value(t, client.Calls("ListReleases")).Equal(0)
}

func TestReleaseUseCase_ListingFails(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int
		wantTag   string
	}{
		{name: "unauthorized is not retried", status: 401, wantCalls: 1, wantTag: types.ErrTagAuth.String()},
		{name: "rate limit retried until exhausted", status: 429, wantCalls: 5, wantTag: types.ErrTagRateLimit.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockGitHubClient{
				listReleasesFunc: func(ctx context.Context, owner, repo string) ([]*model.Release, *model.APIResponse, error) {
					return nil, jsonResp(tt.status), errors.New("failed")
				},
			}

			result, err := newReleaseUseCase(client).EnsureRelease(context.Background(), readyResult(), model.DefaultReleaseSpec())
			gt.Error(t, err)
			gt.Value(t, result).Nil()
			gt.True(t, goerr.HasTag(err, types.ErrTagRelease))
			gt.A(t, goerr.Tags(err)).Has(tt.wantTag)
			gt.Value(t, client.Calls("ListReleases")).Equal(tt.wantCalls)
			gt.Value(t, client.Calls("CreateRelease")).Equal(0)
		})
	}
}

func TestReleaseUseCase_TransientListingRecovers(t *testing.T) {
	listed := 0
	client := &MockGitHubClient{
		listReleasesFunc: func(ctx context.Context, owner, repo string) ([]*model.Release, *model.APIResponse, error) {
			listed++
			if listed < 3 {
				return nil, jsonResp(502), errors.New("bad gateway")
			}
			return []*model.Release{{ID: 1}}, jsonResp(200), nil
		},
	}

	result, err := newReleaseUseCase(client).EnsureRelease(context.Background(), readyResult(), model.DefaultReleaseSpec())
	gt.NoError(t, err)
	gt.False(t, result.Created)
	gt.Value(t, client.Calls("ListReleases")).Equal(3)
}

func TestReleaseUseCase_ConcurrentCallsCreateOnce(t *testing.T) {
	store := &releaseStore{}
	client := &MockGitHubClient{
		listReleasesFunc:  store.list,
		createReleaseFunc: store.create,
	}
	uc := newReleaseUseCase(client)

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := uc.EnsureRelease(context.Background(), readyResult(), model.DefaultReleaseSpec())
			gt.NoError(t, err)
			if result != nil && result.Created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	gt.Value(t, createdCount).Equal(1)
	gt.Value(t, client.Calls("CreateRelease")).Equal(1)
	gt.A(t, store.releases).Length(1)
}
