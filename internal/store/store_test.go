package store

import (
	"path/filepath"
	"testing"
)

// both implementations must satisfy the interface
var (
	_ Store = (*SqlStore)(nil)
	_ Store = (*MemStore)(nil)
)

func testStoreRoundTrip(t *testing.T, s Store) {
	t.Helper()

	b1 := &Batch{Label: "nightly-1", Defects: 30, Runs: 12}
	id1, err := s.CreateBatch(b1)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	b2 := &Batch{Label: "nightly-2", Defects: 30, Runs: 12}
	id2, err := s.CreateBatch(b2)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	rows := []AggregateRow{
		{BatchID: id1, Category: "Raw LLM (gpt-4o)", Strategy: "classic",
			Runs: 12, TP: 100, FP: 40, FN: 60, Precision: 0.714, Recall: 0.625, F1: 0.667,
			MeanF1: 0.66, StdevF1: 0.05},
		{BatchID: id1, Category: "Raw LLM (gpt-4o)", Strategy: "strict",
			Runs: 12, TP: 70, FP: 70, FN: 90, Precision: 0.5, Recall: 0.4375, F1: 0.467,
			MeanF1: 0.46, StdevF1: 0.07},
		{BatchID: id2, Category: "Raw LLM (gpt-4o)", Strategy: "classic",
			Runs: 12, TP: 110, FP: 30, FN: 50, Precision: 0.786, Recall: 0.688, F1: 0.733,
			MeanF1: 0.73, StdevF1: 0.04},
	}
	for i := range rows {
		if _, err := s.AddAggregate(&rows[i]); err != nil {
			t.Fatalf("AddAggregate: %v", err)
		}
	}

	batches, err := s.ListBatches()
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if len(batches) != 2 || batches[0].Label != "nightly-2" {
		t.Errorf("ListBatches = %+v, want newest first", batches)
	}

	aggs, err := s.GetAggregates(id1)
	if err != nil {
		t.Fatalf("GetAggregates: %v", err)
	}
	if len(aggs) != 2 || aggs[0].Strategy != "classic" || aggs[1].Strategy != "strict" {
		t.Errorf("GetAggregates = %+v, want classic then strict", aggs)
	}

	hist, err := s.History("Raw LLM (gpt-4o)", "classic")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 || hist[0].BatchID != id1 || hist[1].BatchID != id2 {
		t.Errorf("History = %+v, want oldest first", hist)
	}
	if hist[1].F1 <= hist[0].F1 {
		t.Errorf("expected the second batch to improve F1: %+v", hist)
	}
}

func TestMemStore(t *testing.T) {
	testStoreRoundTrip(t, NewMemStore())
}

func TestSqlStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "faultbench.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	testStoreRoundTrip(t, s)
}

func TestSqlStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faultbench.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.CreateBatch(&Batch{Label: "x", Defects: 1, Runs: 1}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	batches, err := s2.ListBatches()
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if len(batches) != 1 || batches[0].Label != "x" {
		t.Errorf("data lost across reopen: %+v", batches)
	}
}
