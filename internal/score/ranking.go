package score

import (
	"sort"

	"faultbench/internal/findings"
)

// DefaultKValues are the ranking cutoffs reported alongside the set metrics.
var DefaultKValues = []int{1, 3, 5, 7, 10}

// KMetric is precision and recall at one ranking cutoff.
type KMetric struct {
	K         int     `json:"k"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// RankingMetrics computes Precision@K and Recall@K over findings ranked by
// descending confidence (input order breaks ties, so models that emit
// findings in priority order are ranked as emitted). correct reports whether
// a finding was accepted as a true positive; it is called exactly once per
// finding, in rank order, so a stateful oracle (one that consumes credit per
// matched location) sees a consistent view across cutoffs. totalGT is the
// number of seeded defects, the denominator for recall.
//
// Precision@K uses min(K, len(findings)) as its denominator so a model
// returning three findings is not penalized at K=10 for bugs it never
// reported.
func RankingMetrics(dets []findings.Finding, correct func(findings.Finding) bool,
	totalGT int, ks []int) []KMetric {

	ranked := make([]findings.Finding, len(dets))
	copy(ranked, dets)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	// One rank-order pass with prefix sums: each cutoff reads its hit count
	// instead of re-scanning the prefix and re-asking the oracle.
	hits := make([]int, len(ranked)+1)
	for i, f := range ranked {
		hits[i+1] = hits[i]
		if correct(f) {
			hits[i+1]++
		}
	}

	out := make([]KMetric, 0, len(ks))
	for _, k := range ks {
		cutoff := min(k, len(ranked))
		m := KMetric{K: k}
		if cutoff > 0 {
			m.Precision = float64(hits[cutoff]) / float64(cutoff)
		}
		if totalGT > 0 {
			m.Recall = float64(hits[cutoff]) / float64(totalGT)
		}
		out = append(out, m)
	}
	return out
}
