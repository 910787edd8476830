// Package score turns TP/FP/FN counts into the evaluation metrics reported
// per run and per category: precision, recall, F1, their micro aggregation
// over runs, and the mean/stdev of per-run F1 for stability analysis.
package score

import "math"

// Summary is the metric triple for one partition.
type Summary struct {
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Score computes precision, recall and F1 from raw counts. Every zero
// denominator yields 0.0: a run with no findings has zero precision, a
// ground truth with no defects yields zero recall, and F1 follows suit.
func Score(tp, fp, fn int) Summary {
	s := Summary{TP: tp, FP: fp, FN: fn}
	if tp+fp > 0 {
		s.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		s.Recall = float64(tp) / float64(tp+fn)
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}

// Aggregate accumulates per-run summaries for one category (one model or
// pipeline under one strategy). Micro metrics are computed over summed
// counts; per-run F1 values are kept for mean and spread.
type Aggregate struct {
	Category string    `json:"category"`
	TP       int       `json:"tp"`
	FP       int       `json:"fp"`
	FN       int       `json:"fn"`
	F1s      []float64 `json:"run_f1s"`
}

// Add folds one run's summary into the aggregate.
func (a *Aggregate) Add(s Summary) {
	a.TP += s.TP
	a.FP += s.FP
	a.FN += s.FN
	a.F1s = append(a.F1s, s.F1)
}

// Runs returns the number of runs aggregated so far.
func (a *Aggregate) Runs() int { return len(a.F1s) }

// Micro computes ratio-of-sums metrics over all aggregated runs. This weighs
// each matched defect equally, so large runs dominate; compare with MeanF1
// for the per-run view.
func (a *Aggregate) Micro() Summary {
	return Score(a.TP, a.FP, a.FN)
}

// MeanF1 is the unweighted mean of per-run F1 scores.
func (a *Aggregate) MeanF1() float64 {
	return Mean(a.F1s)
}

// StdevF1 is the sample standard deviation of per-run F1 scores; 0 with
// fewer than two runs.
func (a *Aggregate) StdevF1() float64 {
	return Stdev(a.F1s)
}

// Mean returns the arithmetic mean of xs, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Stdev returns the sample standard deviation of xs, 0 with fewer than two
// values.
func Stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
