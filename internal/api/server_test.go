package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/order-reconciler/internal/api/dto"
	"github.com/eshaffer321/order-reconciler/internal/application/service"
	"github.com/eshaffer321/order-reconciler/internal/domain/matcher"
	"github.com/eshaffer321/order-reconciler/internal/domain/normalizer"
	"github.com/eshaffer321/order-reconciler/internal/infrastructure/logging"
	"github.com/eshaffer321/order-reconciler/internal/infrastructure/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.NewStorageWithLogger(t.TempDir()+"/api.db", logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := service.NewReconcileService(matcher.DefaultConfig(), store, logging.Discard())
	return NewServer(DefaultConfig(), svc, store, logging.Discard())
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_UnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// Submits a split payment, then reads it back through the history endpoints.
func TestServer_ReconcileAndBrowseHistory(t *testing.T) {
	s := newTestServer(t)

	body := dto.ReconcileRequest{
		Orders: []normalizer.RawOrder{{
			OrderID:         "112-4559127-2161020",
			Date:            "2025-10-10",
			Total:           "33.34",
			PaymentLabel:    "Amazon Business Prime Card – 3008",
			MultiChargeHint: true,
		}},
		Entries: []normalizer.RawLedgerEntry{
			{EntryID: "txn-a", Date: "2025-10-10", Amount: "-23.81", AccountLabel: "Amazon Business Prime Card – 3008", CounterpartyLabel: "Amazon"},
			{EntryID: "txn-b", Date: "2025-10-11", Amount: "-9.53", AccountLabel: "Amazon Business Prime Card – 3008", CounterpartyLabel: "Amazon"},
		},
	}

	rec := do(t, s, http.MethodPost, "/api/reconcile", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created dto.ReconcileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.RunID)
	assert.Equal(t, 1, created.Summary.SplitPayments)
	require.Len(t, created.ProposedMemos, 2)
	assert.Equal(t, "Split payment 1 of 2 for order 112-4559127-2161020 ($23.81 of $33.34)", created.ProposedMemos[0].Text)

	rec = do(t, s, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.RunListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, created.RunID, list.Runs[0].ID)
	assert.Equal(t, "completed", list.Runs[0].Status)
	assert.NotEmpty(t, list.Runs[0].Config)

	rec = do(t, s, http.MethodGet, "/api/runs/"+created.RunID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail dto.RunDetailResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	require.Len(t, detail.Matches, 1)
	assert.Equal(t, []string{"txn-a", "txn-b"}, detail.Matches[0].EntryIDs)
	assert.Equal(t, int64(3334), detail.Matches[0].OrderCents)

	// the same records are skipped once reconciled
	body.ExcludeReconciled = true
	body.DryRun = true
	rec = do(t, s, http.MethodPost, "/api/reconcile", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var again dto.ReconcileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&again))
	assert.Equal(t, 1, again.ExcludedOrders)
	assert.Equal(t, 2, again.ExcludedEntries)
	assert.Equal(t, 0, again.Summary.Orders)
}
