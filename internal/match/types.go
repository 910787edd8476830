// Package match pairs LLM findings with seeded ground-truth defects and
// partitions both sides into true positives, false positives, and false
// negatives. Four strategies share one greedy skeleton; all of them enforce
// the at-most-one-match invariant: a defect is consumed by at most one
// finding per run, and a finding claims at most one defect.
package match

import (
	"faultbench/internal/findings"
	"faultbench/internal/gtruth"
)

// Strategy selects the matching criterion.
type Strategy string

const (
	StrategyClassic  Strategy = "classic"  // lenient line overlap with tolerance
	StrategyStrict   Strategy = "strict"   // classic + localization-quality predicate
	StrategyIdentity Strategy = "identity" // verified claimed-ID join
	StrategyAdaptive Strategy = "adaptive" // IoU-greedy with fixed + size-adaptive thresholds
)

// Strategies lists all selectable strategies.
var Strategies = []Strategy{StrategyClassic, StrategyStrict, StrategyIdentity, StrategyAdaptive}

// ParseStrategy validates a --strategy flag value.
func ParseStrategy(s string) (Strategy, bool) {
	for _, st := range Strategies {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Config carries the tunable thresholds shared by all strategies.
type Config struct {
	Tolerance     int       // line-overlap slack, applied symmetrically to both intervals
	IoUThresholds []float64 // fixed reporting thresholds for the adaptive strategy
}

// DefaultConfig mirrors the experiment defaults: ±1 line slack, IoU reported
// at 0.25/0.50/0.75.
func DefaultConfig() Config {
	return Config{
		Tolerance:     1,
		IoUThresholds: []float64{0.25, 0.50, 0.75},
	}
}

// TruePositive records an accepted (defect, finding) pair with enough context
// to audit the decision.
type TruePositive struct {
	DefectID      string  `json:"gt_id"`
	Filename      string  `json:"filename"`
	GTStart       int     `json:"gt_start"`
	GTEnd         int     `json:"gt_end"`
	DetStart      int     `json:"det_start"`
	DetEnd        int     `json:"det_end"`
	GTDescription string  `json:"gt_description"`
	Description   string  `json:"det_description"`
	GTSeverity    string  `json:"gt_severity,omitempty"`
	Severity      string  `json:"det_severity,omitempty"`
	IoU           float64 `json:"iou,omitempty"`          // filled by IoU-based strategies
	RequiredIoU   float64 `json:"required_iou,omitempty"` // adaptive floor at this defect size
}

// FalsePositive records a rejected or unmatched finding.
type FalsePositive struct {
	Filename    string `json:"filename"`
	DetStart    int    `json:"det_start"`
	DetEnd      int    `json:"det_end"`
	Severity    string `json:"severity,omitempty"`
	Description string `json:"description"`
	ClaimedID   string `json:"detected_id,omitempty"`
	Note        string `json:"note,omitempty"` // e.g. duplicate_detection, bad_localization
}

// FalseNegative records a seeded defect no finding accounted for.
type FalseNegative struct {
	DefectID    string  `json:"gt_id"`
	Filename    string  `json:"filename"`
	GTStart     int     `json:"gt_start"`
	GTEnd       int     `json:"gt_end"`
	Category    string  `json:"iso_category,omitempty"`
	Severity    string  `json:"severity,omitempty"`
	Description string  `json:"description"`
	RequiredIoU float64 `json:"required_iou,omitempty"`
}

// Rejection notes attached to false positives.
const (
	NoteDuplicate       = "duplicate_detection"
	NoteBadLocalization = "bad_localization"
	NoteWrongID         = "wrong_id"
	NoteMarkedFP        = "marked_as_fp"
	NoteLowIoU          = "below_iou_threshold"
)

// Result is one strategy's TP/FP/FN partition for one run.
type Result struct {
	Strategy       Strategy        `json:"strategy"`
	TruePositives  []TruePositive  `json:"true_positives"`
	FalsePositives []FalsePositive `json:"false_positives"`
	FalseNegatives []FalseNegative `json:"false_negatives"`
}

// Counts returns (tp, fp, fn).
func (r *Result) Counts() (int, int, int) {
	return len(r.TruePositives), len(r.FalsePositives), len(r.FalseNegatives)
}

func newTruePositive(gt gtruth.Defect, det findings.Finding) TruePositive {
	return TruePositive{
		DefectID:      gt.ID,
		Filename:      gt.Filename,
		GTStart:       gt.StartLine,
		GTEnd:         gt.EndLine,
		DetStart:      det.StartLine,
		DetEnd:        det.EndLine,
		GTDescription: gt.Description,
		Description:   det.Description,
		GTSeverity:    gt.Severity,
		Severity:      det.Severity,
	}
}

func newFalsePositive(det findings.Finding, note string) FalsePositive {
	return FalsePositive{
		Filename:    det.Filename,
		DetStart:    det.StartLine,
		DetEnd:      det.EndLine,
		Severity:    det.Severity,
		Description: det.Description,
		ClaimedID:   det.ClaimedID,
		Note:        note,
	}
}

func newFalseNegative(gt gtruth.Defect) FalseNegative {
	return FalseNegative{
		DefectID:    gt.ID,
		Filename:    gt.Filename,
		GTStart:     gt.StartLine,
		GTEnd:       gt.EndLine,
		Category:    gt.Category,
		Severity:    gt.Severity,
		Description: gt.Description,
	}
}
