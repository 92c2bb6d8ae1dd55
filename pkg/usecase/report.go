package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mooring/pkg/domain/interfaces"
	"github.com/m-mizutani/mooring/pkg/domain/model"
)

// Reporter posts a summary of a persisted run back to the originating
// commit as a check run, and optionally to a notification side channel.
// The run is already durable when Report runs; failures here are logged by
// the dispatcher and never fail the pipeline.
type Reporter struct {
	githubClient interfaces.GitHubClient
	notifier     interfaces.Notifier
}

// ReporterOption is a functional option for the reporter
type ReporterOption func(*Reporter)

// WithNotifier adds a notification side channel
func WithNotifier(n interfaces.Notifier) ReporterOption {
	return func(r *Reporter) {
		r.notifier = n
	}
}

// NewReporter creates a findings reporter
func NewReporter(githubClient interfaces.GitHubClient, opts ...ReporterOption) *Reporter {
	r := &Reporter{githubClient: githubClient}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report submits the run summary. Notifier and check-run submission are
// independent; a failure in one does not skip the other.
func (r *Reporter) Report(ctx context.Context, event *model.WebhookEvent, run *model.Run, findings []*model.Finding) error {
	logger := ctxlog.From(ctx)

	if r.notifier != nil {
		if err := r.notifier.NotifyRun(ctx, run, findings); err != nil {
			logger.Warn("Failed to send run notification", "error", err)
		}
	}

	if event.HeadSHA == "" {
		logger.Debug("No head commit to report against", "run_id", run.ID)
		return nil
	}

	check := buildCheckSummary(run, findings)
	owner, name := event.OwnerName()
	if err := r.githubClient.CreateCheckRun(ctx, owner, name, event.HeadSHA, check); err != nil {
		return goerr.Wrap(err, "failed to report findings",
			goerr.V("run_id", run.ID),
			goerr.V("head_sha", event.HeadSHA),
		)
	}

	logger.Info("Reported run summary",
		"run_id", run.ID,
		"conclusion", check.Conclusion,
	)
	return nil
}

func buildCheckSummary(run *model.Run, findings []*model.Finding) *model.CheckSummary {
	var pinned, unpinned, internal int
	for _, f := range findings {
		if f.Pinned {
			pinned++
		} else {
			unpinned++
		}
		if f.Internal {
			internal++
		}
	}

	conclusion := "success"
	title := "All action references are pinned"
	if unpinned > 0 {
		conclusion = "neutral"
		title = fmt.Sprintf("%d unpinned action reference(s)", unpinned)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scanned %d workflow file(s), found %d external action reference(s).\n\n", run.WorkflowsScanned, len(findings)))
	sb.WriteString(fmt.Sprintf("- Pinned: %d\n- Unpinned: %d\n- Internal: %d\n", pinned, unpinned, internal))

	if len(findings) > 0 {
		sb.WriteString("\n| Workflow | Action | Ref | Pinned | Internal |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, f := range findings {
			sb.WriteString(fmt.Sprintf("| `%s` | `%s` | `%s` | %s | %s |\n",
				f.WorkflowPath, f.Action, f.Ref, checkMark(f.Pinned), checkMark(f.Internal)))
		}
	}

	return &model.CheckSummary{
		ExternalID: uuid.NewString(),
		Title:      title,
		Summary:    sb.String(),
		Conclusion: conclusion,
	}
}

func checkMark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
