package dto

import (
	"github.com/eshaffer321/order-reconciler/internal/domain/matcher"
	"github.com/eshaffer321/order-reconciler/internal/domain/normalizer"
)

// ReconcileRequest is the body of POST /api/reconcile.
type ReconcileRequest struct {
	Orders            []normalizer.RawOrder       `json:"orders"`
	Entries           []normalizer.RawLedgerEntry `json:"entries"`
	Config            *ConfigOverride             `json:"config"`
	DryRun            bool                        `json:"dry_run"`
	ExcludeReconciled bool                        `json:"exclude_reconciled"`
}

// ConfigOverride replaces individual matcher settings for one run.
// Unset fields keep the server's configuration.
type ConfigOverride struct {
	MatchThreshold         *float64 `json:"match_threshold" binding:"omitempty,gte=0,lte=100"`
	DateToleranceDays      *int     `json:"date_tolerance_days" binding:"omitempty,gte=0"`
	BatchDateToleranceDays *int     `json:"batch_date_tolerance_days" binding:"omitempty,gte=0"`
	AmountToleranceCents   *int     `json:"amount_tolerance_cents" binding:"omitempty,gte=0"`
	MaxBatchSize           *int     `json:"max_batch_size" binding:"omitempty,gte=1"`
}

// Apply returns base with the set fields replaced.
func (o *ConfigOverride) Apply(base matcher.Config) matcher.Config {
	if o == nil {
		return base
	}
	if o.MatchThreshold != nil {
		base.MatchThreshold = *o.MatchThreshold
	}
	if o.DateToleranceDays != nil {
		base.DateToleranceDays = uint(*o.DateToleranceDays)
	}
	if o.BatchDateToleranceDays != nil {
		base.BatchDateToleranceDays = uint(*o.BatchDateToleranceDays)
	}
	if o.AmountToleranceCents != nil {
		base.AmountToleranceCents = uint(*o.AmountToleranceCents)
	}
	if o.MaxBatchSize != nil {
		base.MaxBatchSize = uint(*o.MaxBatchSize)
	}
	return base
}

// RunListParams represents query parameters for listing runs.
type RunListParams struct {
	Limit int `json:"limit"`
}

// DefaultRunListParams returns default values for run list params.
func DefaultRunListParams() RunListParams {
	return RunListParams{
		Limit: 20,
	}
}
