package storage

import (
	"context"
	"errors"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory)
// and makes testing with mocks straightforward.
type Repository interface {
	RunRepository
	MatchRepository
	Close() error
}

// RunRepository handles reconciliation run tracking
type RunRepository interface {
	// StartRun records the start of a run and returns it with a fresh ID
	StartRun(ctx context.Context, opts RunOptions) (*Run, error)

	// CompleteRun marks a run completed and stores its summary counts
	CompleteRun(ctx context.Context, runID string, summary model.Summary) error

	// FailRun marks a run failed with the cause
	FailRun(ctx context.Context, runID string, cause error) error

	// ListRuns returns recent runs, newest first (limit <= 0 = default 20)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// GetRun retrieves a run by ID, or ErrNotFound
	GetRun(ctx context.Context, runID string) (*Run, error)
}

// MatchRepository handles committed matches
type MatchRepository interface {
	// SaveMatches stores the matches of a run in result order
	SaveMatches(ctx context.Context, runID string, matches []model.MatchResult) error

	// GetMatches returns the stored matches of a run in result order
	GetMatches(ctx context.Context, runID string) ([]StoredMatch, error)

	// ReconciledOrderIDs returns every order id matched by a completed run
	ReconciledOrderIDs(ctx context.Context) (map[string]bool, error)

	// ReconciledEntryIDs returns every entry id matched by a completed run
	ReconciledEntryIDs(ctx context.Context) (map[string]bool, error)
}
