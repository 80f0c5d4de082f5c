package matcher

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// Config holds matcher configuration
type Config struct {
	// MatchThreshold is the minimum confidence for any match (default: 60)
	MatchThreshold float64 `validate:"gte=0,lte=100"`

	// DateToleranceDays is the max date difference for a 1:1 pair (default: 5)
	DateToleranceDays uint

	// BatchDateToleranceDays is the window for split/consolidated members.
	// Zero falls back to DateToleranceDays (default: 10)
	BatchDateToleranceDays uint

	// AmountToleranceCents is the max amount difference for a 1:1 pair and
	// the max deviation of a batch sum (default: 1)
	AmountToleranceCents uint

	// MaxBatchSize caps the subset size searched by the batch matcher (default: 4)
	MaxBatchSize uint `validate:"gte=1"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MatchThreshold:         60,
		DateToleranceDays:      5,
		BatchDateToleranceDays: 10,
		AmountToleranceCents:   1,
		MaxBatchSize:           4,
	}
}

var validate = validator.New()

// Validate reports an out-of-range field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid matcher config: %w", err)
	}
	return nil
}

// AmountTolerance returns AmountToleranceCents as int64, saturating at
// math.MaxInt64.
func (c Config) AmountTolerance() int64 {
	return saturate(c.AmountToleranceCents)
}

func (c Config) dateTolerance() int64 {
	return saturate(c.DateToleranceDays)
}

// batchWindow returns the date window used for batch members.
func (c Config) batchWindow() int64 {
	if c.BatchDateToleranceDays == 0 {
		return c.dateTolerance()
	}
	return saturate(c.BatchDateToleranceDays)
}

func (c Config) maxBatch() int {
	if uint64(c.MaxBatchSize) > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(c.MaxBatchSize)
}

func saturate(u uint) int64 {
	if uint64(u) > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(u)
}

// Accepts reports whether confidence meets the match threshold.
func (c Config) Accepts(confidence int) bool {
	return float64(confidence) >= c.MatchThreshold
}
