package interfaces

import (
	"context"

	"github.com/m-mizutani/mooring/pkg/domain/model"
)

// GitHubClient defines operations for interacting with the GitHub API
type GitHubClient interface {
	// GetFileContent fetches the content of a single file at a commit ref
	GetFileContent(ctx context.Context, owner, repo, ref, path string) ([]byte, error)

	// ListPullRequestFiles returns the changed files of a pull request
	ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]model.FileChange, error)

	// CreateCheckRun submits a completed check run against a commit
	CreateCheckRun(ctx context.Context, owner, repo, headSHA string, check *model.CheckSummary) error
}

// Notifier posts a best-effort run summary to a side channel
type Notifier interface {
	NotifyRun(ctx context.Context, run *model.Run, findings []*model.Finding) error
}
