package model

// ActionRef is one external action reference extracted from a workflow
// definition, before it is attached to a Run as a Finding.
type ActionRef struct {
	Action   string // owner/name identifier, subpaths trimmed
	Ref      string // tag, branch or commit hash after the "@"
	Raw      string // full "uses" value retained for audit
	Pinned   bool   // true iff Ref is a full-length commit hash
	Internal bool   // true iff the owner is on the internal allowlist
}

// ProcessStatus is the terminal state of one event's processing
type ProcessStatus string

const (
	StatusProcessed ProcessStatus = "processed"
	StatusDuplicate ProcessStatus = "duplicate"
	StatusIgnored   ProcessStatus = "ignored"
)

// ProcessResult is the outcome of one event's processing
type ProcessResult struct {
	Status ProcessStatus
	Run    *Run
}

// CheckSummary is the structured summary reported back to the originating
// host as a check run.
type CheckSummary struct {
	ExternalID string
	Title      string
	Summary    string
	Conclusion string // "success" when no unpinned references, "neutral" otherwise
}
