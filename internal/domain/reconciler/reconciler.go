// Package reconciler is the entry point of the matching engine.
//
// A Reconciler normalizes raw order and ledger records, commits one-to-one
// matches, searches the residual pools for split payments and consolidated
// charges, and returns the resulting partition. Before returning it asserts
// that every input id landed in exactly one bucket; a failed assertion is an
// internal defect and is returned as ErrInvariantViolation.
package reconciler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/eshaffer321/order-reconciler/internal/domain/matcher"
	"github.com/eshaffer321/order-reconciler/internal/domain/model"
	"github.com/eshaffer321/order-reconciler/internal/domain/normalizer"
)

var (
	// ErrInvalidConfig is returned when the matcher configuration is out of range.
	ErrInvalidConfig = errors.New("invalid reconciler config")

	// ErrDuplicateRecord is returned when pre-normalized records repeat an id.
	ErrDuplicateRecord = errors.New("duplicate record id")

	// ErrInvariantViolation means the engine produced an inconsistent partition.
	ErrInvariantViolation = errors.New("reconciliation invariant violated")
)

// Reconciler runs the full matching pipeline with a fixed configuration.
type Reconciler struct {
	config  matcher.Config
	pairs   *matcher.PairMatcher
	batches *matcher.BatchMatcher
	logger  *slog.Logger
}

// New validates config and builds a Reconciler. A nil logger uses slog.Default().
func New(config matcher.Config, logger *slog.Logger) (*Reconciler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		config:  config,
		pairs:   matcher.NewPairMatcher(config),
		batches: matcher.NewBatchMatcher(config),
		logger:  logger.With(slog.String("component", "reconciler")),
	}, nil
}

// Config returns the configuration the reconciler was built with.
func (r *Reconciler) Config() matcher.Config {
	return r.config
}

// Reconcile normalizes the raw inputs and matches them. Records dropped by the
// normalizer are reported in the result's Warnings and take no further part.
func (r *Reconciler) Reconcile(orders []normalizer.RawOrder, entries []normalizer.RawLedgerEntry) (*model.ReconciliationResult, error) {
	normalized := normalizer.Normalize(orders, entries)
	for _, w := range normalized.Warnings {
		r.logger.Debug("dropped or altered input record",
			slog.String("source", w.Source),
			slog.String("record_id", w.RecordID),
			slog.String("reason", w.Reason))
	}

	result, err := r.ReconcileRecords(normalized.Orders, normalized.Entries)
	if err != nil {
		return nil, err
	}
	result.Warnings = normalized.Warnings
	return result, nil
}

// ReconcileRecords matches records that are already in canonical form.
// Ids must be unique within each collection.
func (r *Reconciler) ReconcileRecords(orders []model.OrderRecord, entries []model.LedgerEntry) (*model.ReconciliationResult, error) {
	if err := uniqueIDs(orders, entries); err != nil {
		return nil, err
	}

	pairs := r.pairs.Match(orders, entries)
	r.logger.Debug("pair matching complete",
		slog.Int("matches", len(pairs.Matches)),
		slog.Int("residual_orders", len(pairs.ResidualOrders)),
		slog.Int("residual_entries", len(pairs.ResidualEntries)))

	batches := r.batches.Match(pairs.ResidualOrders, pairs.ResidualEntries)
	r.logger.Debug("batch matching complete",
		slog.Int("split_payments", len(batches.Splits)),
		slog.Int("consolidated_charges", len(batches.Consolidated)))

	result := &model.ReconciliationResult{
		Matches:          make([]model.MatchResult, 0, len(pairs.Matches)+len(batches.Splits)+len(batches.Consolidated)),
		UnmatchedOrders:  batches.ResidualOrders,
		UnmatchedEntries: batches.ResidualEntries,
	}
	for _, m := range pairs.Matches {
		result.Matches = append(result.Matches, m)
	}
	for _, m := range batches.Splits {
		result.Matches = append(result.Matches, m)
	}
	for _, m := range batches.Consolidated {
		result.Matches = append(result.Matches, m)
	}

	if err := r.checkInvariants(orders, entries, result); err != nil {
		r.logger.Error("reconciliation produced an inconsistent result", slog.String("error", err.Error()))
		return nil, err
	}
	return result, nil
}

// Reconcile runs a one-off reconciliation with config.
func Reconcile(orders []normalizer.RawOrder, entries []normalizer.RawLedgerEntry, config matcher.Config) (*model.ReconciliationResult, error) {
	r, err := New(config, nil)
	if err != nil {
		return nil, err
	}
	return r.Reconcile(orders, entries)
}

func uniqueIDs(orders []model.OrderRecord, entries []model.LedgerEntry) error {
	seen := make(map[string]bool, len(orders))
	for _, o := range orders {
		if seen[o.OrderID] {
			return fmt.Errorf("%w: order %q", ErrDuplicateRecord, o.OrderID)
		}
		seen[o.OrderID] = true
	}
	seen = make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.EntryID] {
			return fmt.Errorf("%w: entry %q", ErrDuplicateRecord, e.EntryID)
		}
		seen[e.EntryID] = true
	}
	return nil
}
