// Package store persists evaluation batches so metric history survives
// across invocations and regressions between model versions stay visible.
package store

// Batch is one recorded evaluation: the ground truth size plus where the
// results came from.
type Batch struct {
	ID        int64  `json:"id"`
	Label     string `json:"label"` // operator-chosen name, e.g. "nightly-2026-08-22"
	Defects   int    `json:"defects"`
	Runs      int    `json:"runs"`
	CreatedAt string `json:"created_at"`
}

// AggregateRow is one (category, strategy) aggregate inside a batch.
type AggregateRow struct {
	ID        int64   `json:"id"`
	BatchID   int64   `json:"batch_id"`
	Category  string  `json:"category"`
	Strategy  string  `json:"strategy"`
	Runs      int     `json:"runs"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	MeanF1    float64 `json:"mean_f1"`
	StdevF1   float64 `json:"stdev_f1"`
}

// Store records evaluation batches and their aggregates.
type Store interface {
	// CreateBatch records a new evaluation batch and returns its ID.
	CreateBatch(b *Batch) (int64, error)
	// AddAggregate attaches one (category, strategy) aggregate to a batch.
	AddAggregate(row *AggregateRow) (int64, error)
	// ListBatches returns all batches, newest first.
	ListBatches() ([]Batch, error)
	// GetAggregates returns a batch's aggregates ordered by category then
	// strategy.
	GetAggregates(batchID int64) ([]AggregateRow, error)
	// History returns one (category, strategy) aggregate across all batches,
	// oldest first, for trend inspection.
	History(category, strategy string) ([]AggregateRow, error)
	// Close releases the underlying resources.
	Close() error
}
