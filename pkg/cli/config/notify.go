package config

import "github.com/urfave/cli/v3"

// Notify holds deployment notification configuration. Notifications
// are disabled when no webhook URL is set.
type Notify struct {
	SlackWebhookURL string
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook for deployment results",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("STEVEDORE_SLACK_WEBHOOK_URL"),
		},
	}
}
