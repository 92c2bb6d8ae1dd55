package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mooring/pkg/domain/interfaces"
	"github.com/m-mizutani/mooring/pkg/domain/model"
)

// QueryHandler serves the read paths over the run/finding store
type QueryHandler struct {
	store         interfaces.RunStore
	statsUC       interfaces.StatsUseCase
	runsLimit     int
	findingsLimit int
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(store interfaces.RunStore, statsUC interfaces.StatsUseCase, runsLimit, findingsLimit int) *QueryHandler {
	return &QueryHandler{
		store:         store,
		statsUC:       statsUC,
		runsLimit:     runsLimit,
		findingsLimit: findingsLimit,
	}
}

// defaultPageSize is used when the caller does not request a limit
const defaultPageSize = 50

// parsePage reads limit/offset query parameters. The effective limit is
// clamped to max regardless of what the caller requested.
func parsePage(r *http.Request, max int) (limit, offset int) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > max {
		limit = max
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// HandleListRuns lists runs, optionally filtered by repository and branch
func (h *QueryHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r, h.runsLimit)
	filter := &model.RunFilter{
		Repository: r.URL.Query().Get("repo"),
		Branch:     r.URL.Query().Get("branch"),
		Limit:      limit,
		Offset:     offset,
	}

	runs, err := h.store.ListRuns(r.Context(), filter)
	if err != nil {
		ctxlog.From(r.Context()).Error("Failed to list runs", "error", err)
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*model.Run{}
	}

	writeJSON(w, map[string]any{
		"runs":   runs,
		"count":  len(runs),
		"limit":  limit,
		"offset": offset,
	})
}

// HandleListFindings lists findings across all runs with optional filters
func (h *QueryHandler) HandleListFindings(w http.ResponseWriter, r *http.Request) {
	h.listFindings(w, r, 0)
}

// HandleRunFindings lists findings of a single run
func (h *QueryHandler) HandleRunFindings(w http.ResponseWriter, r *http.Request) {
	runID, err := strconv.ParseInt(chi.URLParam(r, "runID"), 10, 64)
	if err != nil || runID <= 0 {
		writeError(w, goerr.New("invalid run id"), http.StatusBadRequest)
		return
	}
	h.listFindings(w, r, runID)
}

func (h *QueryHandler) listFindings(w http.ResponseWriter, r *http.Request, runID int64) {
	limit, offset := parsePage(r, h.findingsLimit)

	if runID == 0 {
		if v := r.URL.Query().Get("run_id"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n <= 0 {
				writeError(w, goerr.New("invalid run_id parameter"), http.StatusBadRequest)
				return
			}
			runID = n
		}
	}

	filter := &model.FindingFilter{
		RunID:        runID,
		Repository:   r.URL.Query().Get("repo"),
		Branch:       r.URL.Query().Get("branch"),
		WorkflowPath: r.URL.Query().Get("workflow"),
		Action:       r.URL.Query().Get("action"),
		Limit:        limit,
		Offset:       offset,
	}

	findings, err := h.store.ListFindings(r.Context(), filter)
	if err != nil {
		ctxlog.From(r.Context()).Error("Failed to list findings", "error", err)
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if findings == nil {
		findings = []*model.Finding{}
	}

	writeJSON(w, map[string]any{
		"findings": findings,
		"count":    len(findings),
		"limit":    limit,
		"offset":   offset,
	})
}

// HandleStats serves the cached aggregate statistics view
func (h *QueryHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsUC.GetStats(r.Context())
	if err != nil {
		ctxlog.From(r.Context()).Error("Failed to compute stats", "error", err)
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.From(context.Background()).Error("Failed to encode response", "error", err)
	}
}
