package dto

import (
	"encoding/json"
	"time"

	"github.com/eshaffer321/order-reconciler/internal/application/report"
	"github.com/eshaffer321/order-reconciler/internal/application/service"
	"github.com/eshaffer321/order-reconciler/internal/domain/model"
	"github.com/eshaffer321/order-reconciler/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ReconcileResponse is returned by POST /api/reconcile.
type ReconcileResponse struct {
	RunID           string                      `json:"run_id,omitempty"`
	DryRun          bool                        `json:"dry_run"`
	Summary         model.Summary               `json:"summary"`
	Result          *model.ReconciliationResult `json:"result"`
	ProposedMemos   []report.Memo               `json:"proposed_memos"`
	ExcludedOrders  int                         `json:"excluded_orders"`
	ExcludedEntries int                         `json:"excluded_entries"`
}

// NewReconcileResponse converts a service result.
func NewReconcileResponse(out *service.RunResult) ReconcileResponse {
	return ReconcileResponse{
		RunID:           out.RunID,
		DryRun:          out.DryRun,
		Summary:         out.Report.Summary,
		Result:          out.Result,
		ProposedMemos:   out.Report.Memos,
		ExcludedOrders:  out.ExcludedOrders,
		ExcludedEntries: out.ExcludedEntries,
	}
}

// RunResponse represents a reconciliation run in API responses.
type RunResponse struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	StartedAt    string          `json:"started_at"`
	CompletedAt  string          `json:"completed_at,omitempty"`
	OrdersSource string          `json:"orders_source"`
	LedgerSource string          `json:"ledger_source"`
	Config       json.RawMessage `json:"config,omitempty"`
	Summary      model.Summary   `json:"summary"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// RunDetailResponse is a run with its matches.
type RunDetailResponse struct {
	RunResponse
	Matches []MatchResponse `json:"matches"`
}

// MatchResponse represents a stored match.
type MatchResponse struct {
	Seq int `json:"seq"`
	model.MatchRecord
}

// NewRunResponse converts a storage run to an API response.
func NewRunResponse(run storage.Run) RunResponse {
	resp := RunResponse{
		ID:           run.ID,
		Status:       string(run.Status),
		StartedAt:    run.StartedAt.UTC().Format(time.RFC3339),
		OrdersSource: run.OrdersSource,
		LedgerSource: run.LedgerSource,
		Summary:      run.Summary,
		ErrorMessage: run.ErrorMessage,
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	if json.Valid([]byte(run.ConfigJSON)) {
		resp.Config = json.RawMessage(run.ConfigJSON)
	}
	return resp
}

// NewMatchResponses converts stored matches.
func NewMatchResponses(matches []storage.StoredMatch) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchResponse{Seq: m.Seq, MatchRecord: m.MatchRecord})
	}
	return out
}
