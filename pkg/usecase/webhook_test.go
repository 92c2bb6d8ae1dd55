package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/mooring/pkg/domain/model"
	"github.com/m-mizutani/mooring/pkg/infra/replay"
	"github.com/m-mizutani/mooring/pkg/infra/store"
	"github.com/m-mizutani/mooring/pkg/usecase"
)

// MockGitHubClient is a mock implementation of GitHubClient
type MockGitHubClient struct {
	getFileContentFunc func(ctx context.Context, owner, repo, ref, path string) ([]byte, error)
	listPRFilesFunc    func(ctx context.Context, owner, repo string, number int) ([]model.FileChange, error)
	checkRuns          []*model.CheckSummary
}

func (m *MockGitHubClient) GetFileContent(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
	if m.getFileContentFunc != nil {
		return m.getFileContentFunc(ctx, owner, repo, ref, path)
	}
	return nil, errors.New("mock not configured")
}

func (m *MockGitHubClient) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]model.FileChange, error) {
	if m.listPRFilesFunc != nil {
		return m.listPRFilesFunc(ctx, owner, repo, number)
	}
	return nil, errors.New("mock not configured")
}

func (m *MockGitHubClient) CreateCheckRun(ctx context.Context, owner, repo, headSHA string, check *model.CheckSummary) error {
	m.checkRuns = append(m.checkRuns, check)
	return nil
}

func newTestStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	gt.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func pushEvent(deliveryID string, paths ...string) *model.WebhookEvent {
	event := &model.WebhookEvent{
		ID:         deliveryID,
		Type:       model.EventTypePush,
		Repository: "acme/service",
		Branch:     "main",
		HeadSHA:    "0123456789abcdef0123456789abcdef01234567",
		ReceivedAt: time.Now(),
	}
	for _, p := range paths {
		event.Changes = append(event.Changes, model.FileChange{Path: p, Status: model.FileModified})
	}
	return event
}

const testWorkflow = `
jobs:
  build:
    steps:
      - uses: actions/checkout@v4
      - uses: orgname/action@aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa
`

func TestWebhookUseCase_ProcessEvent(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	guard := replay.NewLocal(300 * time.Second)
	client := &MockGitHubClient{
		getFileContentFunc: func(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
			return []byte(testWorkflow), nil
		},
	}

	uc := usecase.NewWebhook(db, guard, client)

	event := pushEvent("delivery-1", ".github/workflows/ci.yml")
	result, err := uc.ProcessEvent(ctx, event)
	gt.NoError(t, err)
	gt.Value(t, result.Status).Equal(model.StatusProcessed)
	gt.Value(t, result.Run.WorkflowsScanned).Equal(1)
	gt.Value(t, result.Run.FindingsCount).Equal(2)

	findings, err := db.ListFindings(ctx, &model.FindingFilter{RunID: result.Run.ID, Limit: 10})
	gt.NoError(t, err)
	gt.Array(t, findings).Length(2)

	// Newest first: the pinned reference was inserted last
	gt.Value(t, findings[0].Action).Equal("orgname/action")
	gt.True(t, findings[0].Pinned)
	gt.Value(t, findings[1].Action).Equal("actions/checkout")
	gt.False(t, findings[1].Pinned)
}

func TestWebhookUseCase_DuplicateDelivery(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	guard := replay.NewLocal(300 * time.Second)
	client := &MockGitHubClient{
		getFileContentFunc: func(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
			return []byte(testWorkflow), nil
		},
	}

	uc := usecase.NewWebhook(db, guard, client)

	first, err := uc.ProcessEvent(ctx, pushEvent("delivery-dup", ".github/workflows/ci.yml"))
	gt.NoError(t, err)
	gt.Value(t, first.Status).Equal(model.StatusProcessed)

	second, err := uc.ProcessEvent(ctx, pushEvent("delivery-dup", ".github/workflows/ci.yml"))
	gt.NoError(t, err)
	gt.Value(t, second.Status).Equal(model.StatusDuplicate)

	runs, err := db.ListRuns(ctx, &model.RunFilter{Limit: 10})
	gt.NoError(t, err)
	gt.Array(t, runs).Length(1)
}

func TestWebhookUseCase_PerFileFailureIsolated(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	guard := replay.NewLocal(300 * time.Second)
	client := &MockGitHubClient{
		getFileContentFunc: func(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
			if path == ".github/workflows/broken.yml" {
				return nil, errors.New("not found")
			}
			return []byte(testWorkflow), nil
		},
	}

	uc := usecase.NewWebhook(db, guard, client)

	event := pushEvent("delivery-partial",
		".github/workflows/broken.yml",
		".github/workflows/ci.yml",
	)
	result, err := uc.ProcessEvent(ctx, event)
	gt.NoError(t, err)
	gt.Value(t, result.Status).Equal(model.StatusProcessed)
	gt.Value(t, result.Run.WorkflowsScanned).Equal(1)
	gt.Value(t, result.Run.FindingsCount).Equal(2)
}

func TestWebhookUseCase_UnparsableFileIsolated(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	guard := replay.NewLocal(300 * time.Second)
	client := &MockGitHubClient{
		getFileContentFunc: func(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
			if path == ".github/workflows/garbage.yml" {
				return []byte("jobs: [unclosed"), nil
			}
			return []byte(testWorkflow), nil
		},
	}

	uc := usecase.NewWebhook(db, guard, client)

	event := pushEvent("delivery-garbage",
		".github/workflows/garbage.yml",
		".github/workflows/ci.yml",
	)
	result, err := uc.ProcessEvent(ctx, event)
	gt.NoError(t, err)
	gt.Value(t, result.Run.WorkflowsScanned).Equal(1)
}

func TestWebhookUseCase_PersistenceFailureReleasesDelivery(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	gt.NoError(t, db.Close()) // force persistence failure
	guard := replay.NewLocal(300 * time.Second)
	client := &MockGitHubClient{
		getFileContentFunc: func(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
			return []byte(testWorkflow), nil
		},
	}

	uc := usecase.NewWebhook(db, guard, client)

	_, err := uc.ProcessEvent(ctx, pushEvent("delivery-fail", ".github/workflows/ci.yml"))
	gt.Error(t, err)

	// The delivery ID must be admitted again so redelivery can retry
	admitted, err := guard.Admit(ctx, "delivery-fail", time.Now())
	gt.NoError(t, err)
	gt.True(t, admitted)
}

func TestWebhookUseCase_UnsupportedEventIgnored(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	guard := replay.NewLocal(300 * time.Second)
	uc := usecase.NewWebhook(db, guard, &MockGitHubClient{})

	event := &model.WebhookEvent{
		ID:   "delivery-unknown",
		Type: model.EventTypeUnknown,
	}
	result, err := uc.ProcessEvent(ctx, event)
	gt.NoError(t, err)
	gt.Value(t, result.Status).Equal(model.StatusIgnored)

	// Ignored events do not consume the delivery ID
	admitted, err := guard.Admit(ctx, "delivery-unknown", time.Now())
	gt.NoError(t, err)
	gt.True(t, admitted)

	runs, err := db.ListRuns(ctx, &model.RunFilter{Limit: 10})
	gt.NoError(t, err)
	gt.Array(t, runs).Length(0)
}

func TestWebhookUseCase_PullRequestFilesViaAPI(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	guard := replay.NewLocal(300 * time.Second)
	client := &MockGitHubClient{
		listPRFilesFunc: func(ctx context.Context, owner, repo string, number int) ([]model.FileChange, error) {
			return []model.FileChange{
				{Path: ".github/workflows/ci.yml", Status: model.FileModified},
				{Path: "main.go", Status: model.FileModified},
			}, nil
		},
		getFileContentFunc: func(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
			return []byte(testWorkflow), nil
		},
	}

	uc := usecase.NewWebhook(db, guard, client)

	event := &model.WebhookEvent{
		ID:         "delivery-pr",
		Type:       model.EventTypePullRequest,
		Action:     "opened",
		Repository: "acme/service",
		Branch:     "feature/x",
		HeadSHA:    "fedcba9876543210fedcba9876543210fedcba98",
		PRNumber:   42,
	}
	result, err := uc.ProcessEvent(ctx, event)
	gt.NoError(t, err)
	gt.Value(t, result.Run.WorkflowsScanned).Equal(1)
	gt.Value(t, result.Run.FindingsCount).Equal(2)
}

func TestWebhookUseCase_RetentionPruning(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	guard := replay.NewLocal(300 * time.Second)
	client := &MockGitHubClient{
		getFileContentFunc: func(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
			return []byte(testWorkflow), nil
		},
	}

	uc := usecase.NewWebhook(db, guard, client, usecase.WithRetention(2))

	for _, id := range []string{"d-1", "d-2", "d-3"} {
		_, err := uc.ProcessEvent(ctx, pushEvent(id, ".github/workflows/ci.yml"))
		gt.NoError(t, err)
	}

	runs, err := db.ListRuns(ctx, &model.RunFilter{Limit: 10})
	gt.NoError(t, err)
	gt.Array(t, runs).Length(2)
	gt.Value(t, runs[0].DeliveryID).Equal("d-3")
	gt.Value(t, runs[1].DeliveryID).Equal("d-2")
}
