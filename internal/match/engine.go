package match

import (
	"sort"

	"faultbench/internal/findings"
	"faultbench/internal/gtruth"
)

// Classic matches findings to defects by line overlap alone. Findings are
// processed per file in ascending start-line order; each one consumes the
// most recently seeded unmatched defect it overlaps (tolerance applied to
// both ranges). See ClassicStrict for the layered variant.
func Classic(defects []gtruth.Defect, dets []findings.Finding, cfg Config) *Result {
	classic, _ := ClassicStrict(defects, dets, cfg)
	return classic
}

// Strict is the classic matching with the localization-quality predicate
// layered on top: a lenient match whose range is too sloppy is demoted to a
// false positive instead of counting.
func Strict(defects []gtruth.Defect, dets []findings.Finding, cfg Config) *Result {
	_, strict := ClassicStrict(defects, dets, cfg)
	return strict
}

// ClassicStrict runs both overlap strategies in one pass. The strict result
// is derived from the classic pairing: every classic true positive is
// re-examined with AcceptableLocalization, and failures become strict false
// positives while their defects return to the false-negative pool. This keeps
// strict TPs a subset of classic TPs by construction.
func ClassicStrict(defects []gtruth.Defect, dets []findings.Finding, cfg Config) (classic, strict *Result) {
	classic = &Result{Strategy: StrategyClassic}
	strict = &Result{Strategy: StrategyStrict}

	// Per-file pools of unmatched defects, consumed back to front so the
	// most recently listed defect wins contested overlaps.
	pool := make(map[string][]int)
	for i, gt := range defects {
		pool[gt.Filename] = append(pool[gt.Filename], i)
	}

	ordered := make([]findings.Finding, len(dets))
	copy(ordered, dets)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Filename != ordered[j].Filename {
			return ordered[i].Filename < ordered[j].Filename
		}
		return ordered[i].StartLine < ordered[j].StartLine
	})

	matched := make(map[int]bool, len(defects))       // defect index -> classic TP
	strictMatched := make(map[int]bool, len(defects)) // defect index -> strict TP

	for _, det := range ordered {
		remaining := pool[det.Filename]
		hit := -1
		for k := len(remaining) - 1; k >= 0; k-- {
			gt := defects[remaining[k]]
			if LinesOverlap(gt.StartLine, gt.EndLine, det.StartLine, det.EndLine, cfg.Tolerance) {
				hit = k
				break
			}
		}
		if hit < 0 {
			classic.FalsePositives = append(classic.FalsePositives, newFalsePositive(det, ""))
			strict.FalsePositives = append(strict.FalsePositives, newFalsePositive(det, ""))
			continue
		}

		gi := remaining[hit]
		pool[det.Filename] = append(remaining[:hit], remaining[hit+1:]...)
		matched[gi] = true

		gt := defects[gi]
		tp := newTruePositive(gt, det)
		tp.IoU = IoU(gt.StartLine, gt.EndLine, det.StartLine, det.EndLine)
		classic.TruePositives = append(classic.TruePositives, tp)

		if AcceptableLocalization(gt, det) {
			strictMatched[gi] = true
			strict.TruePositives = append(strict.TruePositives, tp)
		} else {
			strict.FalsePositives = append(strict.FalsePositives, newFalsePositive(det, NoteBadLocalization))
		}
	}

	for i, gt := range defects {
		if !matched[i] {
			classic.FalseNegatives = append(classic.FalseNegatives, newFalseNegative(gt))
		}
		if !strictMatched[i] {
			strict.FalseNegatives = append(strict.FalseNegatives, newFalseNegative(gt))
		}
	}
	return classic, strict
}

// Identity scores pure detection from verified claimed IDs: a finding counts
// if and only if its claim names a seeded defect nobody claimed before it.
// Later claims of the same defect are duplicates, claims of unknown IDs are
// wrong, and findings verified as hallucinations stay false positives.
func Identity(defects []gtruth.Defect, dets []findings.Finding) *Result {
	res := &Result{Strategy: StrategyIdentity}

	byID := make(map[string]gtruth.Defect, len(defects))
	for _, gt := range defects {
		byID[gt.ID] = gt
	}

	claimed := make(map[string]bool, len(defects))
	for _, det := range dets {
		switch {
		case !det.HasClaim():
			res.FalsePositives = append(res.FalsePositives, newFalsePositive(det, NoteMarkedFP))
		case claimed[det.ClaimedID]:
			res.FalsePositives = append(res.FalsePositives, newFalsePositive(det, NoteDuplicate))
		default:
			gt, ok := byID[det.ClaimedID]
			if !ok {
				res.FalsePositives = append(res.FalsePositives, newFalsePositive(det, NoteWrongID))
				continue
			}
			claimed[det.ClaimedID] = true
			res.TruePositives = append(res.TruePositives, newTruePositive(gt, det))
		}
	}

	for _, gt := range defects {
		if !claimed[gt.ID] {
			res.FalseNegatives = append(res.FalseNegatives, newFalseNegative(gt))
		}
	}
	return res
}

// IdentityLocalization scores localization quality over identity-verified
// pairs: each finding is joined to the defect it claims, then the pair is
// judged by line overlap (classic) and by the strict predicate. Duplicate or
// unknown claims are false positives in both results.
func IdentityLocalization(defects []gtruth.Defect, dets []findings.Finding, cfg Config) (classic, strict *Result) {
	classic = &Result{Strategy: StrategyClassic}
	strict = &Result{Strategy: StrategyStrict}

	byID := make(map[string]gtruth.Defect, len(defects))
	for _, gt := range defects {
		byID[gt.ID] = gt
	}

	classicHit := make(map[string]bool, len(defects))
	strictHit := make(map[string]bool, len(defects))
	consumed := make(map[string]bool, len(defects))

	for _, det := range dets {
		gt, ok := byID[det.ClaimedID]
		if !det.HasClaim() || !ok || consumed[det.ClaimedID] {
			fp := newFalsePositive(det, NoteWrongID)
			if consumed[det.ClaimedID] {
				fp.Note = NoteDuplicate
			}
			classic.FalsePositives = append(classic.FalsePositives, fp)
			strict.FalsePositives = append(strict.FalsePositives, fp)
			continue
		}
		consumed[det.ClaimedID] = true

		tp := newTruePositive(gt, det)
		tp.IoU = IoU(gt.StartLine, gt.EndLine, det.StartLine, det.EndLine)

		if gt.Filename == det.Filename &&
			LinesOverlap(gt.StartLine, gt.EndLine, det.StartLine, det.EndLine, cfg.Tolerance) {
			classicHit[gt.ID] = true
			classic.TruePositives = append(classic.TruePositives, tp)
		} else {
			classic.FalsePositives = append(classic.FalsePositives, newFalsePositive(det, NoteBadLocalization))
		}

		if AcceptableLocalization(gt, det) {
			strictHit[gt.ID] = true
			strict.TruePositives = append(strict.TruePositives, tp)
		} else {
			strict.FalsePositives = append(strict.FalsePositives, newFalsePositive(det, NoteBadLocalization))
		}
	}

	for _, gt := range defects {
		if !classicHit[gt.ID] {
			classic.FalseNegatives = append(classic.FalseNegatives, newFalseNegative(gt))
		}
		if !strictHit[gt.ID] {
			strict.FalseNegatives = append(strict.FalseNegatives, newFalseNegative(gt))
		}
	}
	return classic, strict
}

// AdaptiveResults holds the adaptive strategy's output: one partition per
// fixed IoU threshold plus the size-adaptive partition.
type AdaptiveResults struct {
	Fixed    map[float64]*Result
	Adaptive *Result
}

// candidate is a scored (defect, finding) pair awaiting greedy assignment.
type candidate struct {
	gi, di int
	iou    float64
}

// Adaptive assigns findings to defects by a single global greedy pass over
// candidate pairs sorted by descending IoU, then replays the assignment at
// every threshold. Because the assignment itself is threshold-independent,
// raising the threshold can only demote pairs, never create new ones, so TP
// counts are monotone non-increasing in the threshold.
//
// Candidate pairs form within a file: through the verified claimed ID when
// the finding carries one, otherwise through plain line overlap.
func Adaptive(defects []gtruth.Defect, dets []findings.Finding, cfg Config) AdaptiveResults {
	byID := make(map[string]int, len(defects))
	byFile := make(map[string][]int)
	for i, gt := range defects {
		byID[gt.ID] = i
		byFile[gt.Filename] = append(byFile[gt.Filename], i)
	}

	var cands []candidate
	for di, det := range dets {
		if det.HasClaim() {
			gi, ok := byID[det.ClaimedID]
			if !ok || defects[gi].Filename != det.Filename {
				continue
			}
			gt := defects[gi]
			cands = append(cands, candidate{gi, di,
				IoU(gt.StartLine, gt.EndLine, det.StartLine, det.EndLine)})
			continue
		}
		for _, gi := range byFile[det.Filename] {
			gt := defects[gi]
			if LinesOverlap(gt.StartLine, gt.EndLine, det.StartLine, det.EndLine, cfg.Tolerance) {
				cands = append(cands, candidate{gi, di,
					IoU(gt.StartLine, gt.EndLine, det.StartLine, det.EndLine)})
			}
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].iou != cands[j].iou {
			return cands[i].iou > cands[j].iou
		}
		if cands[i].gi != cands[j].gi {
			return cands[i].gi < cands[j].gi
		}
		return cands[i].di < cands[j].di
	})

	gtTaken := make(map[int]bool, len(defects))
	detTaken := make(map[int]bool, len(dets))
	var assigned []candidate
	for _, c := range cands {
		if gtTaken[c.gi] || detTaken[c.di] {
			continue
		}
		gtTaken[c.gi] = true
		detTaken[c.di] = true
		assigned = append(assigned, c)
	}

	out := AdaptiveResults{Fixed: make(map[float64]*Result, len(cfg.IoUThresholds))}
	for _, th := range cfg.IoUThresholds {
		out.Fixed[th] = replay(defects, dets, assigned, detTaken,
			func(gtruth.Defect) float64 { return th })
	}
	out.Adaptive = replay(defects, dets, assigned, detTaken,
		func(gt gtruth.Defect) float64 { return AdaptiveMinIoU(gt.Size()) })
	return out
}

// replay converts a fixed assignment into a TP/FP/FN partition under one
// acceptance threshold.
func replay(defects []gtruth.Defect, dets []findings.Finding,
	assigned []candidate, detTaken map[int]bool, minIoU func(gtruth.Defect) float64) *Result {

	res := &Result{Strategy: StrategyAdaptive}
	gtHit := make(map[int]bool, len(assigned))

	for _, c := range assigned {
		gt := defects[c.gi]
		need := minIoU(gt)
		if c.iou >= need {
			gtHit[c.gi] = true
			tp := newTruePositive(gt, dets[c.di])
			tp.IoU = c.iou
			tp.RequiredIoU = need
			res.TruePositives = append(res.TruePositives, tp)
		} else {
			res.FalsePositives = append(res.FalsePositives, newFalsePositive(dets[c.di], NoteLowIoU))
		}
	}

	for di, det := range dets {
		if !detTaken[di] {
			res.FalsePositives = append(res.FalsePositives, newFalsePositive(det, ""))
		}
	}
	for gi, gt := range defects {
		if !gtHit[gi] {
			fn := newFalseNegative(gt)
			fn.RequiredIoU = minIoU(gt)
			res.FalseNegatives = append(res.FalseNegatives, fn)
		}
	}
	return res
}
