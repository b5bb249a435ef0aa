package config

import (
	"github.com/obinexuscomputing/fork/pkg/domain/interfaces"
	"github.com/obinexuscomputing/fork/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds run notification configuration
type Slack struct {
	WebhookURL string `masq:"secret"`
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL to post the run summary to",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("FORK_SLACK_WEBHOOK_URL"),
		},
	}
}

// NewNotifier returns nil when no webhook is configured
func (c *Slack) NewNotifier() interfaces.Notifier {
	if c.WebhookURL == "" {
		return nil
	}
	return slack.NewNotifier(c.WebhookURL)
}
