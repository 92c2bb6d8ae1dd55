package store

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mooring/pkg/domain/model"
)

// ListRuns returns runs matching the filter, newest first.
func (db *DB) ListRuns(ctx context.Context, f *model.RunFilter) ([]*model.Run, error) {
	var conds []string
	var args []any
	if f.Repository != "" {
		conds = append(conds, "repository = ?")
		args = append(args, f.Repository)
	}
	if f.Branch != "" {
		conds = append(conds, "branch = ?")
		args = append(args, f.Branch)
	}

	q := `SELECT id, delivery_id, created_at, repository, branch, workflows_scanned, findings_count FROM runs`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var out []*model.Run
	for rows.Next() {
		var r model.Run
		var createdAt string
		if err := rows.Scan(&r.ID, &r.DeliveryID, &createdAt, &r.Repository, &r.Branch, &r.WorkflowsScanned, &r.FindingsCount); err != nil {
			return nil, goerr.Wrap(err, "failed to scan run row")
		}
		r.CreatedAt = parseTime(createdAt)
		out = append(out, &r)
	}
	return out, rows.Err()
}

// ListFindings returns findings matching the filter, newest first.
// Repository and branch filters join through the owning run.
func (db *DB) ListFindings(ctx context.Context, f *model.FindingFilter) ([]*model.Finding, error) {
	var conds []string
	var args []any
	if f.RunID != 0 {
		conds = append(conds, "f.run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Repository != "" {
		conds = append(conds, "r.repository = ?")
		args = append(args, f.Repository)
	}
	if f.Branch != "" {
		conds = append(conds, "r.branch = ?")
		args = append(args, f.Branch)
	}
	if f.WorkflowPath != "" {
		conds = append(conds, "f.workflow_path = ?")
		args = append(args, f.WorkflowPath)
	}
	if f.Action != "" {
		conds = append(conds, "f.action = ?")
		args = append(args, f.Action)
	}

	q := `SELECT f.id, f.run_id, f.workflow_path, f.action, f.ref, f.pinned, f.internal, f.raw
	        FROM findings f JOIN runs r ON r.id = f.run_id`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY f.id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list findings")
	}
	defer rows.Close()

	var out []*model.Finding
	for rows.Next() {
		var fd model.Finding
		var pinned, internal int
		if err := rows.Scan(&fd.ID, &fd.RunID, &fd.WorkflowPath, &fd.Action, &fd.Ref, &pinned, &internal, &fd.Raw); err != nil {
			return nil, goerr.Wrap(err, "failed to scan finding row")
		}
		fd.Pinned = pinned != 0
		fd.Internal = internal != 0
		out = append(out, &fd)
	}
	return out, rows.Err()
}
