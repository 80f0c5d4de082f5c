package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eshaffer321/order-reconciler/internal/adapters/importers"
	"github.com/eshaffer321/order-reconciler/internal/application/report"
	"github.com/eshaffer321/order-reconciler/internal/domain/matcher"
	"github.com/eshaffer321/order-reconciler/internal/domain/model"
	"github.com/eshaffer321/order-reconciler/internal/domain/normalizer"
	"github.com/eshaffer321/order-reconciler/internal/domain/reconciler"
	"github.com/eshaffer321/order-reconciler/internal/infrastructure/storage"
)

// ErrRunInProgress is returned when a persisted run is requested while another
// one is still executing.
var ErrRunInProgress = errors.New("reconciliation run already in progress")

// ErrNoInput is returned when a request names neither files nor records.
var ErrNoInput = errors.New("no orders or ledger entries provided")

// Request holds parameters for one reconciliation run.
// File paths take precedence over in-memory records.
type Request struct {
	OrdersPath string
	LedgerPath string
	Orders     []normalizer.RawOrder
	Entries    []normalizer.RawLedgerEntry

	// Config overrides the service's matcher config for this run
	Config *matcher.Config

	DryRun            bool
	ExcludeReconciled bool
}

// RunResult is the outcome of a run
type RunResult struct {
	RunID  string                      `json:"run_id,omitempty"`
	DryRun bool                        `json:"dry_run"`
	Result *model.ReconciliationResult `json:"result"`
	Report *report.Report              `json:"report"`

	// Excluded counts records skipped because an earlier run already matched them
	ExcludedOrders  int `json:"excluded_orders"`
	ExcludedEntries int `json:"excluded_entries"`
}

// RunDetail is a stored run with its matches
type RunDetail struct {
	Run     *storage.Run          `json:"run"`
	Matches []storage.StoredMatch `json:"matches"`
}

// ReconcileService runs reconciliations and keeps their history.
type ReconcileService struct {
	config  matcher.Config
	storage storage.Repository
	logger  *slog.Logger
	base    *slog.Logger // unscoped, handed to the engine

	// Only one persisted run at a time so the reconciled-id registry stays consistent
	runLock sync.Mutex
}

// NewReconcileService creates a new service. store may be nil for dry runs only.
func NewReconcileService(config matcher.Config, store storage.Repository, logger *slog.Logger) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		config:  config,
		storage: store,
		logger:  logger.With(slog.String("component", "service")),
		base:    logger,
	}
}

// Config returns the default matcher config
func (s *ReconcileService) Config() matcher.Config {
	return s.config
}

// Run loads the inputs, reconciles them and, unless DryRun is set, records the
// run and its matches.
func (s *ReconcileService) Run(ctx context.Context, req Request) (*RunResult, error) {
	cfg := s.config
	if req.Config != nil {
		cfg = *req.Config
	}
	rec, err := reconciler.New(cfg, s.base)
	if err != nil {
		return nil, err
	}

	persist := !req.DryRun
	if (persist || req.ExcludeReconciled) && s.storage == nil {
		return nil, errors.New("storage is required for persisted runs and exclusion")
	}

	orders, entries, err := s.load(req)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 && len(entries) == 0 {
		return nil, ErrNoInput
	}

	if persist {
		if !s.runLock.TryLock() {
			return nil, ErrRunInProgress
		}
		defer s.runLock.Unlock()
	}

	normalized := normalizer.Normalize(orders, entries)
	for _, w := range normalized.Warnings {
		s.logger.Warn("skipped input record",
			"source", w.Source,
			"record_id", w.RecordID,
			"index", w.Index,
			"reason", w.Reason,
		)
	}

	out := &RunResult{DryRun: req.DryRun}
	if req.ExcludeReconciled {
		if err := s.excludeReconciled(ctx, normalized, out); err != nil {
			return nil, err
		}
	}

	var runID string
	if persist {
		configJSON, err := json.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		run, err := s.storage.StartRun(ctx, storage.RunOptions{
			OrdersSource: source(req.OrdersPath, len(orders)),
			LedgerSource: source(req.LedgerPath, len(entries)),
			ConfigJSON:   string(configJSON),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
		runID = run.ID
		out.RunID = runID
	}

	result, err := rec.ReconcileRecords(normalized.Orders, normalized.Entries)
	if err != nil {
		return nil, s.fail(ctx, runID, err)
	}
	result.Warnings = normalized.Warnings

	rep, err := report.Build(result, report.NewRecords(normalized.Orders, normalized.Entries))
	if err != nil {
		return nil, s.fail(ctx, runID, fmt.Errorf("failed to build report: %w", err))
	}
	out.Result = result
	out.Report = rep

	if persist {
		if err := s.storage.SaveMatches(ctx, runID, result.Matches); err != nil {
			return nil, s.fail(ctx, runID, fmt.Errorf("failed to save matches: %w", err))
		}
		if err := s.storage.CompleteRun(ctx, runID, rep.Summary); err != nil {
			return nil, s.fail(ctx, runID, fmt.Errorf("failed to complete run: %w", err))
		}
	}

	s.logger.Info("reconciliation completed",
		"run_id", runID,
		"dry_run", req.DryRun,
		"normal", rep.Summary.NormalMatches,
		"split", rep.Summary.SplitPayments,
		"consolidated", rep.Summary.ConsolidatedCharges,
		"unmatched_orders", rep.Summary.UnmatchedOrders,
		"unmatched_entries", rep.Summary.UnmatchedEntries,
	)
	return out, nil
}

// ListRuns returns recent runs, newest first
func (s *ReconcileService) ListRuns(ctx context.Context, limit int) ([]storage.Run, error) {
	if s.storage == nil {
		return nil, errors.New("storage is not configured")
	}
	return s.storage.ListRuns(ctx, limit)
}

// GetRun returns a stored run with its matches, or storage.ErrNotFound
func (s *ReconcileService) GetRun(ctx context.Context, runID string) (*RunDetail, error) {
	if s.storage == nil {
		return nil, errors.New("storage is not configured")
	}
	run, err := s.storage.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	matches, err := s.storage.GetMatches(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for run %s: %w", runID, err)
	}
	if matches == nil {
		matches = []storage.StoredMatch{}
	}
	return &RunDetail{Run: run, Matches: matches}, nil
}

func (s *ReconcileService) load(req Request) ([]normalizer.RawOrder, []normalizer.RawLedgerEntry, error) {
	orders, entries := req.Orders, req.Entries

	if req.OrdersPath != "" {
		loaded, err := importers.LoadOrders(req.OrdersPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load orders: %w", err)
		}
		orders = loaded
	}
	if req.LedgerPath != "" {
		loaded, err := importers.LoadLedger(req.LedgerPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load ledger: %w", err)
		}
		entries = loaded
	}

	s.logger.Debug("inputs loaded", "orders", len(orders), "entries", len(entries))
	return orders, entries, nil
}

// excludeReconciled drops records matched by an earlier completed run.
func (s *ReconcileService) excludeReconciled(ctx context.Context, normalized *normalizer.Result, out *RunResult) error {
	orderIDs, err := s.storage.ReconciledOrderIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reconciled orders: %w", err)
	}
	entryIDs, err := s.storage.ReconciledEntryIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reconciled entries: %w", err)
	}

	orders := normalized.Orders[:0]
	for _, o := range normalized.Orders {
		if orderIDs[o.OrderID] {
			out.ExcludedOrders++
			continue
		}
		orders = append(orders, o)
	}
	normalized.Orders = orders

	entries := normalized.Entries[:0]
	for _, e := range normalized.Entries {
		if entryIDs[e.EntryID] {
			out.ExcludedEntries++
			continue
		}
		entries = append(entries, e)
	}
	normalized.Entries = entries

	if out.ExcludedOrders > 0 || out.ExcludedEntries > 0 {
		s.logger.Info("excluded previously reconciled records",
			"orders", out.ExcludedOrders,
			"entries", out.ExcludedEntries,
		)
	}
	return nil
}

// fail records cause on the run (if one was started) and returns it
func (s *ReconcileService) fail(ctx context.Context, runID string, cause error) error {
	s.logger.Error("reconciliation failed", "run_id", runID, "error", cause)
	if runID == "" {
		return cause
	}
	if err := s.storage.FailRun(ctx, runID, cause); err != nil {
		s.logger.Error("failed to mark run as failed", "run_id", runID, "error", err)
	}
	return cause
}

func source(path string, n int) string {
	if path != "" {
		return path
	}
	return fmt.Sprintf("inline (%d records)", n)
}
