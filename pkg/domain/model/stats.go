package model

import "time"

// Stats is an aggregate snapshot over all stored runs and findings.
// It is derived state, always reconstructible from the store.
type Stats struct {
	TotalRuns     int64         `json:"total_runs"`
	TotalFindings int64         `json:"total_findings"`
	Repositories  []RepoStats   `json:"repositories"`
	Actions       []ActionStats `json:"actions"`
	ComputedAt    time.Time     `json:"computed_at"`
}

// RepoStats is the per-repository rollup
type RepoStats struct {
	Repository string `json:"repository"`
	Runs       int64  `json:"runs"`
	Findings   int64  `json:"findings"`
}

// ActionStats is the per-action rollup, ordered by descending occurrence
// with ascending action identifier as the tie-break.
type ActionStats struct {
	Action   string `json:"action"`
	Count    int64  `json:"count"`
	Pinned   int64  `json:"pinned"`
	Unpinned int64  `json:"unpinned"`
}
