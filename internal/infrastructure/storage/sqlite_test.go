package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/order-reconciler/internal/domain/model"
)

func createTempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(createTempDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleMatches() []model.MatchResult {
	return []model.MatchResult{
		model.NormalMatch{OrderID: "111-8888888-3333333", EntryID: "txn-1", Confidence: 100},
		model.SplitPaymentMatch{OrderID: "112-4559127-2161020", EntryIDList: []string{"txn-a", "txn-b"}, Confidence: 97, OrderTotalCents: 3334, EntriesTotalCents: 3334},
		model.ConsolidatedChargeMatch{OrderIDList: []string{"ORDER-A", "ORDER-B"}, EntryID: "txn-c", Confidence: 100, OrdersTotalCents: 6000, EntryAmountCents: 6000},
	}
}

func TestNewStorage_AppliesMigrations(t *testing.T) {
	store := newTestStorage(t)

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	for _, table := range []string{"runs", "matches", "match_members"} {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestNewStorage_ReopenIsIdempotent(t *testing.T) {
	path := createTempDB(t)

	first, err := NewStorage(path)
	require.NoError(t, err)
	run, err := first.StartRun(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStorage(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
}

func TestStorage_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	run, err := store.StartRun(ctx, RunOptions{
		OrdersSource: "orders.csv",
		LedgerSource: "ledger.json",
		ConfigJSON:   `{"match_threshold":60}`,
	})
	require.NoError(t, err)
	assert.Len(t, run.ID, 36, "run IDs are UUIDs")
	assert.Equal(t, RunStatusRunning, run.Status)

	summary := model.Summary{Orders: 5, Entries: 4, NormalMatches: 1, SplitPayments: 1, ConsolidatedCharges: 1, UnmatchedOrders: 1, Warnings: 2}
	require.NoError(t, store.CompleteRun(ctx, run.ID, summary))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.Equal(t, "orders.csv", got.OrdersSource)
	assert.Equal(t, "ledger.json", got.LedgerSource)
	assert.Equal(t, `{"match_threshold":60}`, got.ConfigJSON)
	assert.Equal(t, summary, got.Summary)
	require.NotNil(t, got.CompletedAt)
	assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Second)
}

func TestStorage_FailRun(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	run, err := store.StartRun(ctx, RunOptions{})
	require.NoError(t, err)
	require.NoError(t, store.FailRun(ctx, run.ID, errors.New("ledger file unreadable")))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "ledger file unreadable", got.ErrorMessage)
}

func TestStorage_UnknownRun(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.CompleteRun(ctx, "missing", model.Summary{}), ErrNotFound)
	assert.ErrorIs(t, store.FailRun(ctx, "missing", nil), ErrNotFound)

	err = store.SaveMatches(ctx, "missing", sampleMatches())
	assert.Error(t, err, "foreign key should reject matches for an unknown run")
}

func TestStorage_ListRuns(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	base := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		store.now = func() time.Time { return at }
		run, err := store.StartRun(ctx, RunOptions{})
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	limited, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStorage_SaveAndGetMatches(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	run, err := store.StartRun(ctx, RunOptions{})
	require.NoError(t, err)
	require.NoError(t, store.SaveMatches(ctx, run.ID, sampleMatches()))

	stored, err := store.GetMatches(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	for i, want := range sampleMatches() {
		assert.Equal(t, i, stored[i].Seq)
		assert.Equal(t, run.ID, stored[i].RunID)
		assert.Equal(t, model.ToRecord(want), stored[i].MatchRecord)
		assert.Equal(t, want, model.FromRecord(stored[i].MatchRecord))
	}

	none, err := store.GetMatches(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStorage_ReconciledIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	completed, err := store.StartRun(ctx, RunOptions{})
	require.NoError(t, err)
	require.NoError(t, store.SaveMatches(ctx, completed.ID, sampleMatches()))
	require.NoError(t, store.CompleteRun(ctx, completed.ID, model.Summary{}))

	failed, err := store.StartRun(ctx, RunOptions{})
	require.NoError(t, err)
	require.NoError(t, store.SaveMatches(ctx, failed.ID, []model.MatchResult{
		model.NormalMatch{OrderID: "NOT-COUNTED", EntryID: "txn-x", Confidence: 90},
	}))
	require.NoError(t, store.FailRun(ctx, failed.ID, errors.New("boom")))

	orders, err := store.ReconciledOrderIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"111-8888888-3333333": true,
		"112-4559127-2161020": true,
		"ORDER-A":             true,
		"ORDER-B":             true,
	}, orders)

	entries, err := store.ReconciledEntryIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"txn-1": true, "txn-a": true, "txn-b": true, "txn-c": true}, entries)
}
