package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/order-reconciler/internal/domain/matcher"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
reconciliation:
  match_threshold: 75
  date_tolerance_days: 3
  batch_date_tolerance_days: 7
  amount_tolerance_cents: 2
  max_batch_size: 3
storage:
  database_path: "runs.db"
api:
  port: 9090
observability:
  logging:
    level: debug
    format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 75.0, cfg.Reconciliation.MatchThreshold)
	assert.Equal(t, 3, cfg.Reconciliation.DateToleranceDays)
	assert.Equal(t, 7, cfg.Reconciliation.BatchDateToleranceDays)
	assert.Equal(t, 2, cfg.Reconciliation.AmountToleranceCents)
	assert.Equal(t, 3, cfg.Reconciliation.MaxBatchSize)
	assert.Equal(t, "runs.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
reconciliation:
  match_threshold: 80
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 80.0, cfg.Reconciliation.MatchThreshold)
	assert.Equal(t, 5, cfg.Reconciliation.DateToleranceDays)
	assert.Equal(t, 4, cfg.Reconciliation.MaxBatchSize)
	assert.Equal(t, "reconciler.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "maven", cfg.Observability.Logging.Format)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "reconciliation: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("threshold out of range", func(t *testing.T) {
		_, err := Load(writeConfig(t, "reconciliation:\n  match_threshold: 150\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MatchThreshold")
	})

	t.Run("zero batch size", func(t *testing.T) {
		_, err := Load(writeConfig(t, "reconciliation:\n  max_batch_size: 0\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MaxBatchSize")
	})

	t.Run("unknown log format", func(t *testing.T) {
		_, err := Load(writeConfig(t, "observability:\n  logging:\n    format: xml\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Format")
	})
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "expanded.db")
	path := writeConfig(t, `
storage:
  database_path: "${TEST_DB_PATH}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RECONCILE_MATCH_THRESHOLD", "72.5")
	t.Setenv("RECONCILE_DATE_TOLERANCE_DAYS", "2")
	t.Setenv("RECONCILE_BATCH_DATE_TOLERANCE_DAYS", "6")
	t.Setenv("RECONCILE_AMOUNT_TOLERANCE_CENTS", "0")
	t.Setenv("RECONCILE_MAX_BATCH_SIZE", "5")
	t.Setenv("RECONCILE_DB_PATH", "test.db")
	t.Setenv("RECONCILE_API_PORT", "9999")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "text")

	cfg := LoadFromEnv()
	assert.Equal(t, 72.5, cfg.Reconciliation.MatchThreshold)
	assert.Equal(t, 2, cfg.Reconciliation.DateToleranceDays)
	assert.Equal(t, 6, cfg.Reconciliation.BatchDateToleranceDays)
	assert.Equal(t, 0, cfg.Reconciliation.AmountToleranceCents)
	assert.Equal(t, 5, cfg.Reconciliation.MaxBatchSize)
	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 9999, cfg.API.Port)
	assert.Equal(t, "warn", cfg.Observability.Logging.Level)
	assert.Equal(t, "text", cfg.Observability.Logging.Format)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("RECONCILE_DB_PATH", "")
	t.Setenv("RECONCILE_MATCH_THRESHOLD", "not-a-number")

	cfg := LoadFromEnv()
	assert.Equal(t, "reconciler.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 60.0, cfg.Reconciliation.MatchThreshold)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	t.Setenv("RECONCILE_DB_PATH", "fallback.db")

	cfg := LoadOrEnv_WithPath(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestToMatcherConfig(t *testing.T) {
	assert.Equal(t, matcher.DefaultConfig(), Default().ToMatcherConfig())

	cfg := Default()
	cfg.Reconciliation.DateToleranceDays = -3
	assert.Equal(t, uint(0), cfg.ToMatcherConfig().DateToleranceDays)
}
