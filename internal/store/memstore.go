package store

import (
	"sort"
	"sync"
)

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu         sync.Mutex
	nextBatch  int64
	nextAgg    int64
	batches    []Batch
	aggregates []AggregateRow
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{nextBatch: 1, nextAgg: 1}
}

func (m *MemStore) CreateBatch(b *Batch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.CreatedAt == "" {
		b.CreatedAt = nowUTC()
	}
	b.ID = m.nextBatch
	m.nextBatch++
	m.batches = append(m.batches, *b)
	return b.ID, nil
}

func (m *MemStore) AddAggregate(row *AggregateRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row.ID = m.nextAgg
	m.nextAgg++
	m.aggregates = append(m.aggregates, *row)
	return row.ID, nil
}

func (m *MemStore) ListBatches() ([]Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Batch, len(m.batches))
	copy(out, m.batches)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemStore) GetAggregates(batchID int64) ([]AggregateRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AggregateRow
	for _, r := range m.aggregates {
		if r.BatchID == batchID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Strategy < out[j].Strategy
	})
	return out, nil
}

func (m *MemStore) History(category, strategy string) ([]AggregateRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AggregateRow
	for _, r := range m.aggregates {
		if r.Category == category && r.Strategy == strategy {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchID < out[j].BatchID })
	return out, nil
}

func (m *MemStore) Close() error { return nil }
