// Package evaluate orchestrates a scoring batch: discover result files,
// match each run against the ground truth under every requested strategy,
// and aggregate per-category metrics.
package evaluate

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"faultbench/internal/findings"
	"faultbench/internal/gtruth"
	"faultbench/internal/logging"
	"faultbench/internal/match"
	"faultbench/internal/score"
)

// Options configures a batch evaluation.
type Options struct {
	Config   match.Config
	KValues  []int // ranking cutoffs; nil disables ranking metrics
	Parallel int   // worker limit, minimum 1
}

// DefaultOptions mirrors the experiment defaults.
func DefaultOptions() Options {
	return Options{
		Config:   match.DefaultConfig(),
		KValues:  score.DefaultKValues,
		Parallel: 4,
	}
}

// Aggregation keys for the threshold variants of the adaptive strategy.
func FixedIoUKey(th float64) string { return fmt.Sprintf("iou@%.2f", th) }

const AdaptiveKey = "adaptive"

// RunResult is one run's partitions under every strategy, keyed by strategy
// name or threshold variant.
type RunResult struct {
	Run      Run                      `json:"run"`
	Findings int                      `json:"findings"`
	Results  map[string]*match.Result `json:"results"`
	Ranking  []score.KMetric          `json:"ranking,omitempty"`
	Err      error                    `json:"-"`
}

// Report is the aggregated outcome of a batch.
type Report struct {
	Defects    int                                 `json:"defects"`
	Runs       []*RunResult                        `json:"runs"`
	Aggregates map[string]map[string]*score.Aggregate `json:"aggregates"` // category -> strategy key
}

// Categories returns the report's category names in sorted order.
func (r *Report) Categories() []string {
	out := make([]string, 0, len(r.Aggregates))
	for c := range r.Aggregates {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// StrategyKeys returns every strategy key present for a category, sorted.
func (r *Report) StrategyKeys(category string) []string {
	aggs := r.Aggregates[category]
	out := make([]string, 0, len(aggs))
	for k := range aggs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EvaluateAll scores every run against the ground truth, bounded by
// opts.Parallel workers. A run that cannot be read or parsed is recorded
// with its error and excluded from aggregation; one bad file never aborts
// the batch.
func EvaluateAll(ctx context.Context, defects []gtruth.Defect, runs []Run, opts Options) (*Report, error) {
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	logger := logging.New("evaluate")
	logger.Info("starting batch", "defects", len(defects), "runs", len(runs), "workers", opts.Parallel)

	results := make([]*RunResult, len(runs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)
	for i, run := range runs {
		i, run := i, run // go 1.21: range variables are shared across iterations
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = &RunResult{Run: run, Err: err}
				return nil
			}
			results[i] = EvaluateRun(defects, run, opts)
			return nil
		})
	}
	_ = g.Wait() // per-run errors live in RunResult.Err

	report := &Report{
		Defects:    len(defects),
		Runs:       results,
		Aggregates: make(map[string]map[string]*score.Aggregate),
	}
	for _, rr := range results {
		if rr.Err != nil {
			logger.Warn("run skipped", "path", rr.Run.Path, "error", rr.Err)
			continue
		}
		byStrategy := report.Aggregates[rr.Run.Category]
		if byStrategy == nil {
			byStrategy = make(map[string]*score.Aggregate)
			report.Aggregates[rr.Run.Category] = byStrategy
		}
		for key, res := range rr.Results {
			agg := byStrategy[key]
			if agg == nil {
				agg = &score.Aggregate{Category: rr.Run.Category}
				byStrategy[key] = agg
			}
			agg.Add(score.Score(res.Counts()))
		}
	}
	return report, nil
}

// EvaluateRun scores a single result file under every strategy that applies
// to its format. Verified CSV sheets get identity detection, identity-joined
// localization, and the adaptive strategies; raw JSON dumps get overlap-based
// classic/strict and adaptive matching.
func EvaluateRun(defects []gtruth.Defect, run Run, opts Options) *RunResult {
	rr := &RunResult{Run: run, Results: make(map[string]*match.Result)}

	var dets []findings.Finding
	if run.Verified {
		var err error
		dets, err = findings.LoadVerifiedCSV(run.Path)
		if err != nil {
			rr.Err = fmt.Errorf("load verified run: %w", err)
			return rr
		}
	} else {
		dets = findings.ParseFile(run.Path)
	}
	rr.Findings = len(dets)

	if run.Verified {
		rr.Results[string(match.StrategyIdentity)] = match.Identity(defects, dets)
		classic, strict := match.IdentityLocalization(defects, dets, opts.Config)
		rr.Results[string(match.StrategyClassic)] = classic
		rr.Results[string(match.StrategyStrict)] = strict
	} else {
		classic, strict := match.ClassicStrict(defects, dets, opts.Config)
		rr.Results[string(match.StrategyClassic)] = classic
		rr.Results[string(match.StrategyStrict)] = strict
	}

	adaptive := match.Adaptive(defects, dets, opts.Config)
	for th, res := range adaptive.Fixed {
		rr.Results[FixedIoUKey(th)] = res
	}
	rr.Results[AdaptiveKey] = adaptive.Adaptive

	if len(opts.KValues) > 0 {
		rr.Ranking = rankRun(defects, dets, rr.Results[string(match.StrategyClassic)], opts.KValues)
	}
	return rr
}

// rankRun computes Precision@K / Recall@K using the classic partition as the
// correctness oracle. Correct findings are identified by location key; a
// duplicate report at a matched location only counts once.
func rankRun(defects []gtruth.Defect, dets []findings.Finding, classic *match.Result, ks []int) []score.KMetric {
	credit := make(map[string]int)
	for _, tp := range classic.TruePositives {
		f := findings.Finding{Filename: tp.Filename, StartLine: tp.DetStart, EndLine: tp.DetEnd}
		credit[f.Key()]++
	}
	correct := func(f findings.Finding) bool {
		if credit[f.Key()] > 0 {
			credit[f.Key()]--
			return true
		}
		return false
	}
	return score.RankingMetrics(dets, correct, len(defects), ks)
}
