package storage

import (
	"time"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
)

// RunStatus is the lifecycle state of a run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// DefaultListLimit is used when ListRuns is called without a limit
const DefaultListLimit = 20

// RunOptions describes a run being started
type RunOptions struct {
	OrdersSource string
	LedgerSource string
	ConfigJSON   string
}

// Run represents a reconciliation run record
type Run struct {
	ID           string        `json:"id"`
	Status       RunStatus     `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	OrdersSource string        `json:"orders_source,omitempty"`
	LedgerSource string        `json:"ledger_source,omitempty"`
	ConfigJSON   string        `json:"config,omitempty"`
	Summary      model.Summary `json:"summary"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// StoredMatch is a match as persisted for a run
type StoredMatch struct {
	RunID string `json:"run_id"`
	Seq   int    `json:"seq"`
	model.MatchRecord
}
