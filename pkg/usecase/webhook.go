package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mooring/pkg/domain/interfaces"
	"github.com/m-mizutani/mooring/pkg/domain/model"
	"github.com/m-mizutani/mooring/pkg/utils/async"
)

type webhookUseCase struct {
	store        interfaces.RunStore
	guard        interfaces.ReplayGuard
	githubClient interfaces.GitHubClient
	reporter     *Reporter
	internalOrgs []string
	retention    int
	fetchTimeout time.Duration
}

// WebhookOption is a functional option for the webhook use case
type WebhookOption func(*webhookUseCase)

// WithReporter enables best-effort reporting after persistence
func WithReporter(r *Reporter) WebhookOption {
	return func(uc *webhookUseCase) {
		uc.reporter = r
	}
}

// WithInternalOrgs sets the allowlist for the internal classification
func WithInternalOrgs(orgs []string) WebhookOption {
	return func(uc *webhookUseCase) {
		uc.internalOrgs = orgs
	}
}

// WithRetention caps how many runs the store keeps
func WithRetention(n int) WebhookOption {
	return func(uc *webhookUseCase) {
		uc.retention = n
	}
}

// WithFetchTimeout bounds each per-file content fetch
func WithFetchTimeout(d time.Duration) WebhookOption {
	return func(uc *webhookUseCase) {
		uc.fetchTimeout = d
	}
}

// NewWebhook creates a new instance of WebhookUseCase
func NewWebhook(store interfaces.RunStore, guard interfaces.ReplayGuard, githubClient interfaces.GitHubClient, opts ...WebhookOption) interfaces.WebhookUseCase {
	uc := &webhookUseCase{
		store:        store,
		guard:        guard,
		githubClient: githubClient,
		retention:    1000,
		fetchTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ProcessEvent runs one event through the pipeline. Per-file fetch and
// parse failures are isolated; reporting runs in the background after the
// run is durably persisted.
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) (*model.ProcessResult, error) {
	logger := ctxlog.From(ctx)

	if !event.IsSupportedEvent() {
		logger.Info("Ignoring unsupported event",
			"id", event.ID,
			"type", event.Type,
			"action", event.Action,
		)
		return &model.ProcessResult{Status: model.StatusIgnored}, nil
	}

	admitted, err := uc.guard.Admit(ctx, event.ID, time.Now())
	if err != nil {
		return nil, goerr.Wrap(err, "replay guard rejected delivery", goerr.V("delivery_id", event.ID))
	}
	if !admitted {
		logger.Info("Suppressing duplicate delivery", "delivery_id", event.ID)
		return &model.ProcessResult{Status: model.StatusDuplicate}, nil
	}

	paths, err := uc.changedWorkflowPaths(ctx, event)
	if err != nil {
		// The delivery did no durable work yet, release it for redelivery
		uc.forget(ctx, event.ID)
		return nil, err
	}

	scanned, findings := uc.scanWorkflows(ctx, event, paths)

	run := &model.Run{
		DeliveryID:       event.ID,
		CreatedAt:        time.Now().UTC(),
		Repository:       event.Repository,
		Branch:           event.Branch,
		WorkflowsScanned: scanned,
		FindingsCount:    len(findings),
	}

	if _, err := uc.store.CreateRun(ctx, run, findings); err != nil {
		uc.forget(ctx, event.ID)
		return nil, goerr.Wrap(err, "failed to persist run", goerr.V("delivery_id", event.ID))
	}

	if pruned, err := uc.store.Prune(ctx, uc.retention); err != nil {
		logger.Warn("Failed to prune old runs", "error", err)
	} else if pruned > 0 {
		logger.Debug("Pruned old runs", "count", pruned)
	}

	logger.Info("Persisted run",
		"run_id", run.ID,
		"repository", run.Repository,
		"branch", run.Branch,
		"workflows_scanned", run.WorkflowsScanned,
		"findings_count", run.FindingsCount,
	)

	if uc.reporter != nil {
		reporter := uc.reporter
		reportEvent := event
		async.Dispatch(ctx, func(ctx context.Context) error {
			return reporter.Report(ctx, reportEvent, run, findings)
		})
	}

	return &model.ProcessResult{Status: model.StatusProcessed, Run: run}, nil
}

// changedWorkflowPaths resolves the set of added/modified workflow paths.
// Push payloads carry the file list; pull requests need the files API.
func (uc *webhookUseCase) changedWorkflowPaths(ctx context.Context, event *model.WebhookEvent) ([]string, error) {
	if event.Type == model.EventTypePullRequest {
		owner, name := event.OwnerName()
		changes, err := uc.githubClient.ListPullRequestFiles(ctx, owner, name, event.PRNumber)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list pull request files",
				goerr.V("repository", event.Repository),
				goerr.V("number", event.PRNumber),
			)
		}
		event.Changes = changes
	}
	return event.ChangedWorkflowPaths(), nil
}

// scanWorkflows fetches and parses each changed workflow file. A failure on
// one file is recorded and skipped; it never aborts the rest of the run.
func (uc *webhookUseCase) scanWorkflows(ctx context.Context, event *model.WebhookEvent, paths []string) (int, []*model.Finding) {
	logger := ctxlog.From(ctx)
	owner, name := event.OwnerName()

	scanned := 0
	var findings []*model.Finding
	for _, path := range paths {
		fetchCtx, cancel := context.WithTimeout(ctx, uc.fetchTimeout)
		content, err := uc.githubClient.GetFileContent(fetchCtx, owner, name, event.HeadSHA, path)
		cancel()
		if err != nil {
			logger.Warn("Failed to fetch workflow file",
				"path", path,
				"ref", event.HeadSHA,
				"error", err,
			)
			continue
		}

		refs, err := ExtractRefs(content, uc.internalOrgs)
		if err != nil {
			logger.Warn("Failed to parse workflow file",
				"path", path,
				"error", err,
			)
			continue
		}

		scanned++
		for _, r := range refs {
			findings = append(findings, &model.Finding{
				WorkflowPath: path,
				Action:       r.Action,
				Ref:          r.Ref,
				Pinned:       r.Pinned,
				Internal:     r.Internal,
				Raw:          r.Raw,
			})
		}
	}
	return scanned, findings
}

func (uc *webhookUseCase) forget(ctx context.Context, deliveryID string) {
	if err := uc.guard.Forget(ctx, deliveryID); err != nil {
		ctxlog.From(ctx).Warn("Failed to release delivery from replay guard",
			"delivery_id", deliveryID,
			"error", err,
		)
	}
}
