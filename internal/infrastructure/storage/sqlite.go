// Package storage persists reconciliation runs and their matches.
//
// The SQLite implementation keeps a run history and a registry of every order
// and ledger entry matched by a completed run, which lets later runs skip
// records that were already reconciled.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
)

// Storage provides SQLite database access for runs and matches.
// It implements the Repository interface.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	return NewStorageWithLogger(dbPath, nil)
}

// NewStorageWithLogger is NewStorage with an explicit logger
func NewStorageWithLogger(dbPath string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Foreign keys are per-connection in SQLite, so enable them in the DSN
	// to cover every pooled connection.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	s := &Storage{
		db:     db,
		logger: logger.With(slog.String("component", "storage")),
		now:    func() time.Time { return time.Now().UTC() },
	}

	if err := s.runMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartRun records the start of a run
func (s *Storage) StartRun(ctx context.Context, opts RunOptions) (*Run, error) {
	run := &Run{
		ID:           uuid.NewString(),
		Status:       RunStatusRunning,
		StartedAt:    s.now(),
		OrdersSource: opts.OrdersSource,
		LedgerSource: opts.LedgerSource,
		ConfigJSON:   opts.ConfigJSON,
	}

	query := `
		INSERT INTO runs (id, status, started_at, orders_source, ledger_source, config_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Status, run.StartedAt, run.OrdersSource, run.LedgerSource, run.ConfigJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

// CompleteRun records the completion of a run
func (s *Storage) CompleteRun(ctx context.Context, runID string, summary model.Summary) error {
	query := `
		UPDATE runs
		SET status = ?,
		    completed_at = ?,
		    order_count = ?,
		    entry_count = ?,
		    normal_matches = ?,
		    split_payments = ?,
		    consolidated_charges = ?,
		    unmatched_orders = ?,
		    unmatched_entries = ?,
		    warning_count = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		RunStatusCompleted,
		s.now(),
		summary.Orders,
		summary.Entries,
		summary.NormalMatches,
		summary.SplitPayments,
		summary.ConsolidatedCharges,
		summary.UnmatchedOrders,
		summary.UnmatchedEntries,
		summary.Warnings,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run %s: %w", runID, err)
	}
	return requireRow(result, runID)
}

// FailRun records a failed run
func (s *Storage) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	query := `UPDATE runs SET status = ?, completed_at = ?, error_message = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, RunStatusFailed, s.now(), msg, runID)
	if err != nil {
		return fmt.Errorf("failed to mark run %s failed: %w", runID, err)
	}
	return requireRow(result, runID)
}

func requireRow(result sql.Result, runID string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

const runColumns = `
	id, status, started_at, completed_at, orders_source, ledger_source, config_json,
	order_count, entry_count, normal_matches, split_payments, consolidated_charges,
	unmatched_orders, unmatched_entries, warning_count, error_message
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run         Run
		completedAt sql.NullTime
	)
	err := row.Scan(
		&run.ID,
		&run.Status,
		&run.StartedAt,
		&completedAt,
		&run.OrdersSource,
		&run.LedgerSource,
		&run.ConfigJSON,
		&run.Summary.Orders,
		&run.Summary.Entries,
		&run.Summary.NormalMatches,
		&run.Summary.SplitPayments,
		&run.Summary.ConsolidatedCharges,
		&run.Summary.UnmatchedOrders,
		&run.Summary.UnmatchedEntries,
		&run.Summary.Warnings,
		&run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// SaveMatches stores the matches of a run in a single transaction
func (s *Storage) SaveMatches(ctx context.Context, runID string, matches []model.MatchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	matchStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO matches
		(run_id, seq, kind, confidence, order_cents, entry_cents, date_diff_days, amount_diff_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = matchStmt.Close() }()

	memberStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO match_members (match_id, side, record_id, position) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = memberStmt.Close() }()

	for seq, m := range matches {
		rec := model.ToRecord(m)
		result, err := matchStmt.ExecContext(ctx,
			runID, seq, rec.Kind, rec.Confidence,
			rec.OrderCents, rec.EntryCents, rec.DateDiffDays, rec.AmountDiffCents)
		if err != nil {
			return fmt.Errorf("failed to save match %d of run %s: %w", seq, runID, err)
		}
		matchID, err := result.LastInsertId()
		if err != nil {
			return err
		}

		for pos, id := range rec.OrderIDs {
			if _, err := memberStmt.ExecContext(ctx, matchID, "order", id, pos); err != nil {
				return fmt.Errorf("failed to save order %s of match %d: %w", id, seq, err)
			}
		}
		for pos, id := range rec.EntryIDs {
			if _, err := memberStmt.ExecContext(ctx, matchID, "entry", id, pos); err != nil {
				return fmt.Errorf("failed to save entry %s of match %d: %w", id, seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit matches: %w", err)
	}
	s.logger.Debug("saved matches", slog.String("run_id", runID), slog.Int("count", len(matches)))
	return nil
}

// GetMatches returns the stored matches of a run in result order
func (s *Storage) GetMatches(ctx context.Context, runID string) ([]StoredMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, kind, confidence, order_cents, entry_cents, date_diff_days, amount_diff_cents
		FROM matches
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches for run %s: %w", runID, err)
	}

	matches := make([]StoredMatch, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var (
			id int64
			sm = StoredMatch{RunID: runID}
		)
		err := rows.Scan(&id, &sm.Seq, &sm.Kind, &sm.Confidence,
			&sm.OrderCents, &sm.EntryCents, &sm.DateDiffDays, &sm.AmountDiffCents)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		index[id] = len(matches)
		matches = append(matches, sm)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	members, err := s.db.QueryContext(ctx, `
		SELECT mm.match_id, mm.side, mm.record_id
		FROM match_members mm
		JOIN matches m ON m.id = mm.match_id
		WHERE m.run_id = ?
		ORDER BY mm.match_id, mm.side, mm.position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match members for run %s: %w", runID, err)
	}
	defer func() { _ = members.Close() }()

	for members.Next() {
		var (
			matchID  int64
			side, id string
		)
		if err := members.Scan(&matchID, &side, &id); err != nil {
			return nil, err
		}
		i, ok := index[matchID]
		if !ok {
			continue
		}
		if side == "order" {
			matches[i].OrderIDs = append(matches[i].OrderIDs, id)
		} else {
			matches[i].EntryIDs = append(matches[i].EntryIDs, id)
		}
	}
	return matches, members.Err()
}

// ReconciledOrderIDs returns every order id matched by a completed run
func (s *Storage) ReconciledOrderIDs(ctx context.Context) (map[string]bool, error) {
	return s.reconciledIDs(ctx, "order")
}

// ReconciledEntryIDs returns every entry id matched by a completed run
func (s *Storage) ReconciledEntryIDs(ctx context.Context) (map[string]bool, error) {
	return s.reconciledIDs(ctx, "entry")
}

func (s *Storage) reconciledIDs(ctx context.Context, side string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT mm.record_id
		FROM match_members mm
		JOIN matches m ON m.id = mm.match_id
		JOIN runs r ON r.id = m.run_id
		WHERE mm.side = ? AND r.status = ?
	`, side, RunStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciled %s ids: %w", side, err)
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
