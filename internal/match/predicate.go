package match

import (
	"math"

	"faultbench/internal/findings"
	"faultbench/internal/gtruth"
)

// strictTolerance is the line slack used by the localization predicate. It is
// wider than the classic default because the predicate's IoU, span, and center
// checks already punish sloppy ranges.
const strictTolerance = 3

// AcceptableLocalization decides whether a finding localizes a defect well
// enough to count under the strict strategy. All checks must pass:
//
//   - same file (basenames compared)
//   - line ranges overlap within strictTolerance
//   - IoU at or above a size-adaptive floor
//   - finding span within a size-dependent cap, so a whole-file report
//     cannot claim a two-line defect
//   - range centers within a size-dependent deviation
//
// Single-line defects are special-cased: their floor is relaxed to 0.15 and
// the span cap to 7 lines, since any multi-line finding over a one-line
// defect is bounded by IoU = 1/span.
func AcceptableLocalization(gt gtruth.Defect, det findings.Finding) bool {
	if gt.Filename != det.Filename {
		return false
	}
	if !LinesOverlap(gt.StartLine, gt.EndLine, det.StartLine, det.EndLine, strictTolerance) {
		return false
	}

	gts := gt.Size()
	dts := det.Size()
	if dts < 1 {
		return false
	}
	iou := IoU(gt.StartLine, gt.EndLine, det.StartLine, det.EndLine)

	if gts == 1 {
		return dts <= 7 && iou >= localizationFloor(1)
	}

	if iou < localizationFloor(gts) {
		return false
	}

	maxDet := min(gts*5+15, gts*3+60)
	if dts > maxDet {
		return false
	}

	gtCenter := float64(gt.StartLine+gt.EndLine) / 2
	detCenter := float64(det.StartLine+det.EndLine) / 2
	maxDev := float64(gts)*1.5 + 5
	return math.Abs(gtCenter-detCenter) <= maxDev
}
