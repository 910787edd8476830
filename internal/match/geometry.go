package match

import "math"

// LinesOverlap reports whether two inclusive line ranges intersect after
// expanding both by tol lines on each side. The expansion is symmetric, so
// LinesOverlap(a, b) == LinesOverlap(b, a) for any tolerance.
func LinesOverlap(gtStart, gtEnd, detStart, detEnd, tol int) bool {
	return !(gtEnd+tol < detStart-tol || detEnd+tol < gtStart-tol)
}

// IoU computes intersection-over-union for two inclusive 1-based line
// ranges. Both intersection and union count whole lines, so two identical
// single-line ranges score 1.0 and disjoint ranges score 0.0.
func IoU(gtStart, gtEnd, detStart, detEnd int) float64 {
	oStart := max(gtStart, detStart)
	oEnd := min(gtEnd, detEnd)
	if oEnd < oStart {
		return 0.0
	}
	overlap := oEnd - oStart + 1
	union := max(gtEnd, detEnd) - min(gtStart, detStart) + 1
	return float64(overlap) / float64(union)
}

// AdaptiveMinIoU returns the minimum IoU a finding must reach to match a
// defect of the given size under the adaptive strategy. Small defects demand
// near-exact localization; the requirement decays logarithmically for larger
// spans and never drops below 0.30. The curve is capped at the single-line
// tier so it stays monotone non-increasing in defect size.
func AdaptiveMinIoU(size int) float64 {
	if size <= 1 {
		return 0.85
	}
	t := 1.0 - 0.28*math.Log10(float64(size))
	if t > 0.85 {
		return 0.85
	}
	if t < 0.30 {
		return 0.30
	}
	return t
}

// localizationFloor is the strict predicate's minimum IoU at a given defect
// size. It sits below AdaptiveMinIoU: the predicate also enforces span and
// center caps, so the floor alone does not carry the whole burden. Single-line
// defects get a deliberately low floor because a multi-line finding covering
// the right line can never exceed 1/span.
func localizationFloor(size int) float64 {
	if size <= 1 {
		return 0.15
	}
	f := 0.60 - 0.35*math.Log10(float64(size))
	if f < 0.20 {
		return 0.20
	}
	return f
}
