package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/domain/interfaces"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/slack-go/slack"
)

type notifier struct {
	webhookURL string
}

// NewNotifier creates a Notifier posting to a Slack incoming webhook
func NewNotifier(webhookURL string) interfaces.Notifier {
	return &notifier{webhookURL: webhookURL}
}

// Notify posts a one-line-per-repository digest of the run
func (n *notifier) Notify(ctx context.Context, summary *model.OperationSummary) error {
	msg := &slack.WebhookMessage{
		Text: FormatSummary(summary),
	}

	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post summary to Slack", goerr.V("run_id", summary.RunID))
	}
	return nil
}

// FormatSummary renders the summary as Slack mrkdwn
func FormatSummary(summary *model.OperationSummary) string {
	var sb strings.Builder

	failed := summary.FailedCount()
	sb.WriteString(fmt.Sprintf("*fork run* `%s`: %d repositories, %d failed\n",
		summary.RunID, len(summary.Records), failed))

	for _, r := range summary.Records {
		mark := ":white_check_mark:"
		if r.Failed() {
			mark = ":x:"
		}
		sb.WriteString(fmt.Sprintf("%s `%s` fork=%s", mark, r.Source.String(), r.ForkState))
		if r.ReleaseCreated {
			sb.WriteString(" release=created")
		}
		if r.Release != "" {
			sb.WriteString(" <" + r.Release + "|release>")
		}
		if r.Import != nil {
			sb.WriteString(" mirror=" + r.Import.ProjectURL)
		}
		if len(r.Errors) > 0 {
			sb.WriteString(" error=" + strings.Join(r.Errors, "; "))
		}
		sb.WriteString("\n")
	}

	if summary.Signature != "" {
		sb.WriteString(fmt.Sprintf("signature: `%s`\n", summary.Signature))
	}

	return sb.String()
}
