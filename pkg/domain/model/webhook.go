package model

import (
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
)

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypePush        WebhookEventType = "push"
	EventTypePullRequest WebhookEventType = "pull_request"
	EventTypeUnknown     WebhookEventType = "unknown"
)

// FileChangeStatus is the per-file status reported by the event payload
type FileChangeStatus string

const (
	FileAdded    FileChangeStatus = "added"
	FileModified FileChangeStatus = "modified"
	FileRemoved  FileChangeStatus = "removed"
)

// FileChange is one changed path in a delivery
type FileChange struct {
	Path   string
	Status FileChangeStatus
}

// WebhookEvent represents a webhook event received from GitHub.
// Unrecognized payload shapes parse to EventTypeUnknown with no changes,
// which the pipeline treats as zero changed workflow files.
type WebhookEvent struct {
	ID         string           // Retrieved from X-GitHub-Delivery header
	Type       WebhookEventType // Retrieved from X-GitHub-Event header
	Action     string           // Event action (e.g. opened, synchronize)
	Repository string           // Repository full name (owner/name)
	Branch     string           // Branch name, empty when not derivable
	HeadSHA    string           // Commit to fetch file content from and report against
	PRNumber   int              // Pull request number, push events leave this zero
	Changes    []FileChange     // Changed files; nil for PR events until scanned via API
	ReceivedAt time.Time        // Time when the event was received
}

// IsSupportedEvent checks if the event is supported by the pipeline
func (e *WebhookEvent) IsSupportedEvent() bool {
	switch e.Type {
	case EventTypePush:
		return true
	case EventTypePullRequest:
		return e.Action == "opened" || e.Action == "synchronize"
	default:
		return false
	}
}

// OwnerName splits the repository full name
func (e *WebhookEvent) OwnerName() (string, string) {
	owner, name, _ := strings.Cut(e.Repository, "/")
	return owner, name
}

// workflowDir is where GitHub Actions workflow definitions live
const workflowDir = ".github/workflows/"

// IsWorkflowPath reports whether path is a workflow definition file
func IsWorkflowPath(path string) bool {
	if !strings.HasPrefix(path, workflowDir) {
		return false
	}
	return strings.HasSuffix(path, ".yml") || strings.HasSuffix(path, ".yaml")
}

// ChangedWorkflowPaths returns workflow definition paths that were added or
// modified in this delivery. When the same path appears in multiple commits,
// the last status wins, so a file removed at the head of the push is excluded.
func (e *WebhookEvent) ChangedWorkflowPaths() []string {
	last := map[string]FileChangeStatus{}
	var order []string
	for _, c := range e.Changes {
		if !IsWorkflowPath(c.Path) {
			continue
		}
		if _, ok := last[c.Path]; !ok {
			order = append(order, c.Path)
		}
		last[c.Path] = c.Status
	}

	var paths []string
	for _, p := range order {
		if last[p] == FileRemoved {
			continue
		}
		paths = append(paths, p)
	}
	return paths
}

// FromPushEvent builds a WebhookEvent from a parsed push payload
func FromPushEvent(deliveryID string, e *github.PushEvent, receivedAt time.Time) *WebhookEvent {
	event := &WebhookEvent{
		ID:         deliveryID,
		Type:       EventTypePush,
		Repository: e.GetRepo().GetFullName(),
		Branch:     strings.TrimPrefix(e.GetRef(), "refs/heads/"),
		HeadSHA:    e.GetAfter(),
		ReceivedAt: receivedAt,
	}
	if event.HeadSHA == "" {
		event.HeadSHA = e.GetHeadCommit().GetID()
	}

	for _, commit := range e.Commits {
		for _, p := range commit.Added {
			event.Changes = append(event.Changes, FileChange{Path: p, Status: FileAdded})
		}
		for _, p := range commit.Modified {
			event.Changes = append(event.Changes, FileChange{Path: p, Status: FileModified})
		}
		for _, p := range commit.Removed {
			event.Changes = append(event.Changes, FileChange{Path: p, Status: FileRemoved})
		}
	}

	return event
}

// FromPullRequestEvent builds a WebhookEvent from a parsed pull_request
// payload. Changed files are not part of the payload; the diff scanner
// resolves them through the pull request files API.
func FromPullRequestEvent(deliveryID string, e *github.PullRequestEvent, receivedAt time.Time) *WebhookEvent {
	return &WebhookEvent{
		ID:         deliveryID,
		Type:       EventTypePullRequest,
		Action:     e.GetAction(),
		Repository: e.GetRepo().GetFullName(),
		Branch:     e.GetPullRequest().GetHead().GetRef(),
		HeadSHA:    e.GetPullRequest().GetHead().GetSHA(),
		PRNumber:   e.GetPullRequest().GetNumber(),
		ReceivedAt: receivedAt,
	}
}
