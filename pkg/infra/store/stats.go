package store

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mooring/pkg/domain/model"
)

// Stats computes the aggregate rollup over all stored runs and findings.
// Ordering is deterministic so repeated scans over the same data are
// byte-identical.
func (db *DB) Stats(ctx context.Context) (*model.Stats, error) {
	stats := &model.Stats{ComputedAt: time.Now().UTC()}

	row := db.conn.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(1) FROM runs), (SELECT COUNT(1) FROM findings)`)
	if err := row.Scan(&stats.TotalRuns, &stats.TotalFindings); err != nil {
		return nil, goerr.Wrap(err, "failed to count totals")
	}

	repoRows, err := db.conn.QueryContext(ctx,
		`SELECT repository, COUNT(1) AS runs, COALESCE(SUM(findings_count), 0) AS findings
		   FROM runs
		  GROUP BY repository
		  ORDER BY runs DESC, repository ASC`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate repositories")
	}
	defer repoRows.Close()
	for repoRows.Next() {
		var rs model.RepoStats
		if err := repoRows.Scan(&rs.Repository, &rs.Runs, &rs.Findings); err != nil {
			return nil, goerr.Wrap(err, "failed to scan repository rollup")
		}
		stats.Repositories = append(stats.Repositories, rs)
	}
	if err := repoRows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read repository rollup")
	}

	actionRows, err := db.conn.QueryContext(ctx,
		`SELECT action, COUNT(1) AS cnt,
		        COALESCE(SUM(pinned), 0) AS pinned,
		        COUNT(1) - COALESCE(SUM(pinned), 0) AS unpinned
		   FROM findings
		  GROUP BY action
		  ORDER BY cnt DESC, action ASC`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate actions")
	}
	defer actionRows.Close()
	for actionRows.Next() {
		var as model.ActionStats
		if err := actionRows.Scan(&as.Action, &as.Count, &as.Pinned, &as.Unpinned); err != nil {
			return nil, goerr.Wrap(err, "failed to scan action rollup")
		}
		stats.Actions = append(stats.Actions, as)
	}
	if err := actionRows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read action rollup")
	}

	return stats, nil
}
