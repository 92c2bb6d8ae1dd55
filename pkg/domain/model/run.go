package model

import "time"

// Run is one fully processed webhook event and its outcome. Runs are
// immutable once created; retention pruning is the only deletion path.
type Run struct {
	ID               int64     `json:"id"`
	DeliveryID       string    `json:"delivery_id"`
	CreatedAt        time.Time `json:"created_at"`
	Repository       string    `json:"repository"`
	Branch           string    `json:"branch,omitempty"`
	WorkflowsScanned int       `json:"workflows_scanned"`
	FindingsCount    int       `json:"findings_count"`
}

// Finding is one classified external action reference discovered in a
// workflow definition. Findings are created with their Run and deleted only
// by cascade when the Run is pruned.
type Finding struct {
	ID           int64  `json:"id"`
	RunID        int64  `json:"run_id"`
	WorkflowPath string `json:"workflow_path"`
	Action       string `json:"action"`
	Ref          string `json:"ref"`
	Pinned       bool   `json:"pinned"`
	Internal     bool   `json:"internal"`
	Raw          string `json:"raw"`
}

// RunFilter selects runs for listing. Zero values mean "no filter".
type RunFilter struct {
	Repository string
	Branch     string
	Limit      int
	Offset     int
}

// FindingFilter selects findings for listing. Zero values mean "no filter".
type FindingFilter struct {
	RunID        int64
	Repository   string
	Branch       string
	WorkflowPath string
	Action       string
	Limit        int
	Offset       int
}
