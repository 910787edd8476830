package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"faultbench/internal/evaluate"
	"faultbench/internal/format"
	"faultbench/internal/gtruth"
	"faultbench/internal/match"
	"faultbench/internal/report"
	"faultbench/internal/store"
)

var evaluateFlags struct {
	gt            string
	results       string
	glob          string
	tolerance     int
	iouThresholds []float64
	strategy      string
	out           string
	format        string
	parallel      int
	db            string
	label         string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score LLM runs against the seeded-defect ground truth",
	Long: `Evaluate discovers result files under --results, matches every run against
the ground truth under all strategies, and prints per-category aggregates.
With --out the TP/FP/FN partitions and a JSON summary are persisted; with
--db the aggregates are appended to the history store.`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.gt, "gt", "", "Ground-truth CSV (required)")
	f.StringVar(&evaluateFlags.results, "results", "", "Directory with model result files (required)")
	f.StringVar(&evaluateFlags.glob, "glob", "", "Override run discovery with a glob relative to --results")
	f.IntVar(&evaluateFlags.tolerance, "tolerance", 1, "Line-overlap tolerance for classic matching")
	f.Float64SliceVar(&evaluateFlags.iouThresholds, "iou-thresholds", []float64{0.25, 0.50, 0.75}, "Fixed IoU reporting thresholds")
	f.StringVar(&evaluateFlags.strategy, "strategy", "classic", "Strategy for per-run detail and partition CSVs (classic, strict, identity, adaptive)")
	f.StringVar(&evaluateFlags.out, "out", "", "Directory for partition CSVs and summary JSON")
	f.StringVar(&evaluateFlags.format, "format", "ascii", "Table format (ascii, markdown)")
	f.IntVar(&evaluateFlags.parallel, "parallel", 4, "Number of parallel evaluation workers")
	f.StringVar(&evaluateFlags.db, "db", "", "SQLite history store path (empty = no history)")
	f.StringVar(&evaluateFlags.label, "label", "", "Batch label for the history store")

	_ = evaluateCmd.MarkFlagRequired("gt")
	_ = evaluateCmd.MarkFlagRequired("results")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	detailKey := evaluateFlags.strategy
	if detailKey != evaluate.AdaptiveKey {
		if _, ok := match.ParseStrategy(detailKey); !ok {
			return fmt.Errorf("unknown strategy %q", detailKey)
		}
	}

	defects, err := gtruth.LoadCSV(evaluateFlags.gt)
	if err != nil {
		return err
	}
	if len(defects) == 0 {
		return fmt.Errorf("ground truth %s contains no usable defects", evaluateFlags.gt)
	}

	runs, err := discoverRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no result files found under %s", evaluateFlags.results)
	}

	opts := evaluate.DefaultOptions()
	opts.Config.Tolerance = evaluateFlags.tolerance
	opts.Config.IoUThresholds = evaluateFlags.iouThresholds
	opts.Parallel = evaluateFlags.parallel

	rep, err := evaluate.EvaluateAll(cmd.Context(), defects, runs, opts)
	if err != nil {
		return err
	}

	mode := format.ParseMode(evaluateFlags.format)
	fmt.Print(report.FormatSummary(rep, mode))
	fmt.Print(report.FormatRuns(rep, detailKey, mode))
	if ranking := report.FormatRanking(rep, mode); ranking != "" {
		fmt.Println()
		fmt.Print(ranking)
	}

	if evaluateFlags.out != "" {
		if err := report.WritePartitionCSV(evaluateFlags.out, detailKey, rep); err != nil {
			return err
		}
		if err := report.WriteSummaryJSON(filepath.Join(evaluateFlags.out, "summary.json"), rep); err != nil {
			return err
		}
	}

	if evaluateFlags.db != "" {
		if err := persistHistory(rep); err != nil {
			return err
		}
	}
	return nil
}

// discoverRuns finds result files, honoring the --glob override.
func discoverRuns() ([]evaluate.Run, error) {
	if evaluateFlags.glob == "" {
		return evaluate.DiscoverRuns(evaluateFlags.results)
	}
	paths, err := filepath.Glob(filepath.Join(evaluateFlags.results, evaluateFlags.glob))
	if err != nil {
		return nil, fmt.Errorf("bad --glob: %w", err)
	}
	runs := make([]evaluate.Run, 0, len(paths))
	for _, p := range paths {
		runs = append(runs, evaluate.Run{
			Path:     p,
			Category: evaluate.DetectCategory(p),
			Verified: filepath.Ext(p) == ".csv",
		})
	}
	return runs, nil
}

// persistHistory appends this batch's aggregates to the SQLite store.
func persistHistory(rep *evaluate.Report) error {
	st, err := store.Open(evaluateFlags.db)
	if err != nil {
		return err
	}
	defer st.Close()

	batchID, err := st.CreateBatch(&store.Batch{
		Label:   evaluateFlags.label,
		Defects: rep.Defects,
		Runs:    len(rep.Runs),
	})
	if err != nil {
		return err
	}
	for _, cat := range rep.Categories() {
		for _, key := range rep.StrategyKeys(cat) {
			agg := rep.Aggregates[cat][key]
			micro := agg.Micro()
			row := &store.AggregateRow{
				BatchID:   batchID,
				Category:  cat,
				Strategy:  key,
				Runs:      agg.Runs(),
				TP:        micro.TP,
				FP:        micro.FP,
				FN:        micro.FN,
				Precision: micro.Precision,
				Recall:    micro.Recall,
				F1:        micro.F1,
				MeanF1:    agg.MeanF1(),
				StdevF1:   agg.StdevF1(),
			}
			if _, err := st.AddAggregate(row); err != nil {
				return err
			}
		}
	}
	return nil
}
