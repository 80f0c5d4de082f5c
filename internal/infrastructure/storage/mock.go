package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu        sync.Mutex
	runs      map[string]*Run
	runOrder  []string
	matches   map[string][]StoredMatch
	nextRunID int
	clock     time.Time

	// Hooks for test assertions
	StartRunCalled    bool
	CompleteRunCalled bool
	FailRunCalled     bool
	SaveMatchesCalled bool
	LastFailure       error

	// Error injection for testing error paths
	StartRunErr    error
	CompleteRunErr error
	FailRunErr     error
	SaveMatchesErr error
	ListRunsErr    error
	GetRunErr      error
	ReconciledErr  error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:      make(map[string]*Run),
		matches:   make(map[string][]StoredMatch),
		nextRunID: 1,
		clock:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// tick returns a strictly increasing timestamp so runs sort deterministically
func (m *MockRepository) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// StartRun creates a new run with a sequential ID ("run-1", "run-2", ...)
func (m *MockRepository) StartRun(_ context.Context, opts RunOptions) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return nil, m.StartRunErr
	}

	run := &Run{
		ID:           fmt.Sprintf("run-%d", m.nextRunID),
		Status:       RunStatusRunning,
		StartedAt:    m.tick(),
		OrdersSource: opts.OrdersSource,
		LedgerSource: opts.LedgerSource,
		ConfigJSON:   opts.ConfigJSON,
	}
	m.nextRunID++
	m.runs[run.ID] = run
	m.runOrder = append(m.runOrder, run.ID)

	copied := *run
	return &copied, nil
}

// CompleteRun marks a run completed
func (m *MockRepository) CompleteRun(_ context.Context, runID string, summary model.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteRunCalled = true
	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	now := m.tick()
	run.Status = RunStatusCompleted
	run.CompletedAt = &now
	run.Summary = summary
	return nil
}

// FailRun marks a run failed
func (m *MockRepository) FailRun(_ context.Context, runID string, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FailRunCalled = true
	m.LastFailure = cause
	if m.FailRunErr != nil {
		return m.FailRunErr
	}
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	now := m.tick()
	run.Status = RunStatusFailed
	run.CompletedAt = &now
	if cause != nil {
		run.ErrorMessage = cause.Error()
	}
	return nil
}

// ListRuns returns runs newest first
func (m *MockRepository) ListRuns(_ context.Context, limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	runs := make([]Run, 0, len(m.runOrder))
	for i := len(m.runOrder) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, *m.runs[m.runOrder[i]])
	}
	return runs, nil
}

// GetRun retrieves a run by ID
func (m *MockRepository) GetRun(_ context.Context, runID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	run, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

// SaveMatches stores matches for a run
func (m *MockRepository) SaveMatches(_ context.Context, runID string, matches []model.MatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveMatchesCalled = true
	if m.SaveMatchesErr != nil {
		return m.SaveMatchesErr
	}
	if _, ok := m.runs[runID]; !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}

	stored := make([]StoredMatch, len(matches))
	for i, match := range matches {
		stored[i] = StoredMatch{RunID: runID, Seq: i, MatchRecord: model.ToRecord(match)}
	}
	m.matches[runID] = append(m.matches[runID], stored...)
	return nil
}

// GetMatches returns stored matches for a run
func (m *MockRepository) GetMatches(_ context.Context, runID string) ([]StoredMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := append([]StoredMatch{}, m.matches[runID]...)
	sort.SliceStable(result, func(i, j int) bool { return result[i].Seq < result[j].Seq })
	return result, nil
}

// ReconciledOrderIDs returns order ids matched by completed runs
func (m *MockRepository) ReconciledOrderIDs(_ context.Context) (map[string]bool, error) {
	return m.reconciled(func(rec model.MatchRecord) []string { return rec.OrderIDs })
}

// ReconciledEntryIDs returns entry ids matched by completed runs
func (m *MockRepository) ReconciledEntryIDs(_ context.Context) (map[string]bool, error) {
	return m.reconciled(func(rec model.MatchRecord) []string { return rec.EntryIDs })
}

func (m *MockRepository) reconciled(ids func(model.MatchRecord) []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReconciledErr != nil {
		return nil, m.ReconciledErr
	}
	result := make(map[string]bool)
	for runID, matches := range m.matches {
		if m.runs[runID].Status != RunStatusCompleted {
			continue
		}
		for _, sm := range matches {
			for _, id := range ids(sm.MatchRecord) {
				result[id] = true
			}
		}
	}
	return result, nil
}

// Helper methods for test setup

// SeedCompletedRun stores a completed run with matches (for test setup)
func (m *MockRepository) SeedCompletedRun(matches ...model.MatchResult) string {
	run, _ := m.StartRun(context.Background(), RunOptions{OrdersSource: "seed"})
	_ = m.SaveMatches(context.Background(), run.ID, matches)
	_ = m.CompleteRun(context.Background(), run.ID, model.Summary{})
	return run.ID
}

// Reset clears all data and flags (for reuse between tests)
func (m *MockRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = make(map[string]*Run)
	m.runOrder = nil
	m.matches = make(map[string][]StoredMatch)
	m.nextRunID = 1
	m.StartRunCalled = false
	m.CompleteRunCalled = false
	m.FailRunCalled = false
	m.SaveMatchesCalled = false
	m.LastFailure = nil
	m.StartRunErr = nil
	m.CompleteRunErr = nil
	m.FailRunErr = nil
	m.SaveMatchesErr = nil
	m.ListRunsErr = nil
	m.GetRunErr = nil
	m.ReconciledErr = nil
}
