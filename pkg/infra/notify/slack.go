package notify

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mooring/pkg/domain/model"
	"github.com/slack-go/slack"
)

// Slack posts run summaries to an incoming webhook. Same best-effort
// contract as check-run reporting: callers log failures, never fail on them.
type Slack struct {
	webhookURL string
}

// NewSlack creates a Slack notifier for the given incoming webhook URL
func NewSlack(webhookURL string) *Slack {
	return &Slack{webhookURL: webhookURL}
}

// NotifyRun posts a short summary of a processed run
func (n *Slack) NotifyRun(ctx context.Context, run *model.Run, findings []*model.Finding) error {
	var pinned, unpinned int
	for _, f := range findings {
		if f.Pinned {
			pinned++
		} else {
			unpinned++
		}
	}

	color := "good"
	if unpinned > 0 {
		color = "warning"
	}

	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("Workflow scan of `%s` completed", run.Repository),
		Attachments: []slack.Attachment{
			{
				Color: color,
				Fields: []slack.AttachmentField{
					{Title: "Repository", Value: run.Repository, Short: true},
					{Title: "Branch", Value: run.Branch, Short: true},
					{Title: "Workflows scanned", Value: fmt.Sprintf("%d", run.WorkflowsScanned), Short: true},
					{Title: "Unpinned references", Value: fmt.Sprintf("%d / %d", unpinned, pinned+unpinned), Short: true},
				},
			},
		},
	}

	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack notification", goerr.V("repository", run.Repository))
	}
	return nil
}
