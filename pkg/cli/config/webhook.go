package config

import "github.com/urfave/cli/v3"

// Webhook holds webhook authentication configuration. A missing secret
// is a fatal startup condition, enforced by the required flag.
type Webhook struct {
	Secret string
}

// Flags returns CLI flags for webhook configuration
func (c *Webhook) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "webhook-secret",
			Usage:       "Shared secret for push notification signatures",
			Required:    true,
			Destination: &c.Secret,
			Sources:     cli.EnvVars("STEVEDORE_WEBHOOK_SECRET"),
		},
	}
}
