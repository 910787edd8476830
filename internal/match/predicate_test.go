package match

import (
	"testing"

	"faultbench/internal/findings"
	"faultbench/internal/gtruth"
)

func gt(file string, start, end int) gtruth.Defect {
	return gtruth.Defect{ID: "E001", Filename: file, StartLine: start, EndLine: end}
}

func det(file string, start, end int) findings.Finding {
	return findings.Finding{Filename: file, StartLine: start, EndLine: end}
}

func TestAcceptableLocalization(t *testing.T) {
	tests := []struct {
		name string
		gt   gtruth.Defect
		det  findings.Finding
		want bool
	}{
		{"exact single line", gt("A.java", 42, 42), det("A.java", 42, 42), true},
		{"different file", gt("A.java", 42, 42), det("B.java", 42, 42), false},
		{"single-line defect, tight finding", gt("A.java", 42, 42), det("A.java", 40, 45), true},
		{"single-line defect, finding spans eight lines", gt("A.java", 42, 42), det("A.java", 40, 47), false},
		{"exact multi-line", gt("A.java", 10, 19), det("A.java", 10, 19), true},
		{"multi-line, good overlap", gt("A.java", 10, 19), det("A.java", 8, 21), true},
		{"no overlap at all", gt("A.java", 10, 19), det("A.java", 100, 110), false},
		// 10-line defect: floor is 0.25; a 3-line tail overlap gives IoU 3/14.
		{"multi-line, overlap below floor", gt("A.java", 10, 19), det("A.java", 17, 23), false},
		// Whole-file report against a 2-line defect: span cap is min(25, 66) = 25.
		{"shotgun report rejected", gt("A.java", 50, 51), det("A.java", 1, 300), false},
		// 20-line defect, center deviation cap 35: a range skewed one line
		// past it fails even though IoU and span are acceptable.
		{"center deviation at the cap", gt("A.java", 100, 119), det("A.java", 100, 189), true},
		{"center deviation past the cap", gt("A.java", 100, 119), det("A.java", 100, 191), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AcceptableLocalization(tt.gt, tt.det); got != tt.want {
				t.Errorf("AcceptableLocalization(%v, %v) = %v, want %v",
					tt.gt, tt.det, got, tt.want)
			}
		})
	}
}

func TestAcceptableLocalization_SpanCap(t *testing.T) {
	// 40-line defect: cap is min(40*5+15, 40*3+60) = 180. The cap only binds
	// for defects this large; below ~30 lines the IoU floor rejects first.
	g := gt("A.java", 100, 139)
	within := det("A.java", 30, 209) // 180 lines, centered on the defect
	if !AcceptableLocalization(g, within) {
		t.Error("finding at the span cap should pass")
	}
	over := det("A.java", 30, 210) // 181 lines, still centered and above the floor
	if AcceptableLocalization(g, over) {
		t.Error("finding one line over the span cap should fail")
	}
}
