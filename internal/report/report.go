// Package report renders evaluation results for humans and persists the
// per-run partitions for auditing.
package report

import (
	"fmt"
	"strings"

	"faultbench/internal/evaluate"
	"faultbench/internal/format"
	"faultbench/internal/score"
)

// FormatSummary renders the per-category aggregate tables: one table per
// category, one row per strategy, micro metrics next to the per-run F1
// spread.
func FormatSummary(rep *evaluate.Report, mode format.Mode) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Fault detection evaluation — %d seeded defects, %d runs\n\n",
		rep.Defects, len(rep.Runs))

	for _, cat := range rep.Categories() {
		fmt.Fprintf(&b, "%s\n", cat)
		t := format.NewTable(mode)
		t.Header("Strategy", "Runs", "TP", "FP", "FN", "Precision", "Recall", "F1", "F1 mean", "F1 stdev")
		t.Columns(
			format.ColumnConfig{Number: 1, Align: format.AlignLeft},
			format.ColumnConfig{Number: 6, Align: format.AlignRight},
			format.ColumnConfig{Number: 7, Align: format.AlignRight},
			format.ColumnConfig{Number: 8, Align: format.AlignRight},
			format.ColumnConfig{Number: 9, Align: format.AlignRight},
			format.ColumnConfig{Number: 10, Align: format.AlignRight},
		)
		for _, key := range rep.StrategyKeys(cat) {
			agg := rep.Aggregates[cat][key]
			micro := agg.Micro()
			t.Row(key, agg.Runs(), micro.TP, micro.FP, micro.FN,
				format.FmtRatio(micro.Precision),
				format.FmtRatio(micro.Recall),
				format.FmtRatio(micro.F1),
				format.FmtRatio(agg.MeanF1()),
				format.FmtRatio(agg.StdevF1()))
		}
		b.WriteString(t.String())
		b.WriteString("\n\n")
	}
	return b.String()
}

// FormatRuns renders the per-run detail table for one strategy key.
func FormatRuns(rep *evaluate.Report, key string, mode format.Mode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Per-run results — strategy %s\n", key)

	t := format.NewTable(mode)
	t.Header("Run", "Category", "Findings", "TP", "FP", "FN", "F1")
	t.Columns(
		format.ColumnConfig{Number: 1, Align: format.AlignLeft, MaxWidth: 60},
		format.ColumnConfig{Number: 7, Align: format.AlignRight},
	)
	for _, rr := range rep.Runs {
		if rr.Err != nil {
			t.Row(format.Truncate(rr.Run.Path, 60), rr.Run.Category, "-", "-", "-", "-", "error")
			continue
		}
		res, ok := rr.Results[key]
		if !ok {
			continue
		}
		tp, fp, fn := res.Counts()
		s := score.Score(tp, fp, fn)
		t.Row(format.Truncate(rr.Run.Path, 60), rr.Run.Category, rr.Findings,
			tp, fp, fn, format.FmtRatio(s.F1))
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// FormatRanking renders Precision@K / Recall@K averaged over all runs that
// produced ranking metrics.
func FormatRanking(rep *evaluate.Report, mode format.Mode) string {
	sums := make(map[int]*score.KMetric)
	var order []int
	n := 0
	for _, rr := range rep.Runs {
		if rr.Err != nil || len(rr.Ranking) == 0 {
			continue
		}
		n++
		for _, m := range rr.Ranking {
			agg, ok := sums[m.K]
			if !ok {
				agg = &score.KMetric{K: m.K}
				sums[m.K] = agg
				order = append(order, m.K)
			}
			agg.Precision += m.Precision
			agg.Recall += m.Recall
		}
	}
	if n == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ranking metrics — averaged over %d runs\n", n)
	t := format.NewTable(mode)
	t.Header("K", "Precision@K", "Recall@K")
	t.Columns(
		format.ColumnConfig{Number: 2, Align: format.AlignRight},
		format.ColumnConfig{Number: 3, Align: format.AlignRight},
	)
	for _, k := range order {
		m := sums[k]
		t.Row(k, format.FmtRatio(m.Precision/float64(n)), format.FmtRatio(m.Recall/float64(n)))
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}
