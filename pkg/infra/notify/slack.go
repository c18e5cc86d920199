// Package notify delivers deployment outcomes to external channels.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/slack-go/slack"
)

// SlackNotifier posts a per-push summary to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
}

// NewSlack creates a new SlackNotifier
func NewSlack(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL}
}

// NotifyResults posts one message summarizing every repository
// processed for the push. Nothing is posted for a no-op push.
func (n *SlackNotifier) NotifyResults(ctx context.Context, push *model.PushNotification, results []model.DeploymentResult) error {
	if len(results) == 0 {
		return nil
	}

	lines := make([]string, 0, len(results)+1)
	lines = append(lines, fmt.Sprintf("Push by %s to %s@%s (%s)",
		push.Pusher, push.RepoName, push.Branch(), shortCommit(push.CommitID)))

	for _, r := range results {
		if r.Success {
			lines = append(lines, fmt.Sprintf(":white_check_mark: %s redeployed", r.Repository))
		} else {
			lines = append(lines, fmt.Sprintf(":x: %s: %s", r.Repository, r.Message))
		}
	}

	msg := &slack.WebhookMessage{Text: strings.Join(lines, "\n")}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack notification")
	}
	return nil
}

func shortCommit(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
