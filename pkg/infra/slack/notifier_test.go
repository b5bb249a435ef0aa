package slack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/obinexuscomputing/fork/pkg/infra/slack"
)

func testSummary() *model.OperationSummary {
	return &model.OperationSummary{
		RunID: "run-1",
		Records: []*model.RepositoryRecord{
			{
				Source:         model.SourceRef{Owner: "octo", Repo: "hello"},
				ForkState:      model.ForkStateReady,
				Fork:           "my-org/hello",
				Release:        "https://github.com/my-org/hello/releases/tag/v0.0.1",
				ReleaseCreated: true,
				Import:         &model.ImportResult{ProjectURL: "https://gitlab.example/mirrors/hello", Created: true},
			},
			{
				Source:    model.SourceRef{Owner: "octo", Repo: "broken"},
				ForkState: model.ForkStateRejected,
				Errors:    []string{"fork rejected: status 403"},
			},
		},
		Signature: "abc123",
	}
}

func TestFormatSummary(t *testing.T) {
	text := slack.FormatSummary(testSummary())

	gt.String(t, text).Contains("2 repositories, 1 failed")
	gt.String(t, text).Contains(":white_check_mark: `octo/hello` fork=ready release=created")
	gt.String(t, text).Contains("<https://github.com/my-org/hello/releases/tag/v0.0.1|release>")
	gt.String(t, text).Contains("mirror=https://gitlab.example/mirrors/hello")
	gt.String(t, text).Contains(":x: `octo/broken` fork=rejected")
	gt.String(t, text).Contains("fork rejected: status 403")
	gt.String(t, text).Contains("signature: `abc123`")
}

func TestNotifier_Notify(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	err := slack.NewNotifier(server.URL).Notify(context.Background(), testSummary())
	gt.NoError(t, err)
	gt.String(t, got["text"].(string)).Contains("octo/hello")
}

func TestNotifier_Notify_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid_token"))
	}))
	defer server.Close()

	err := slack.NewNotifier(server.URL).Notify(context.Background(), testSummary())
	gt.Error(t, err)
}
