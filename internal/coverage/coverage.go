// Package coverage reads JaCoCo XML reports and answers the question the
// defect-seeding pipeline cares about: is the code around each seeded defect
// exercised by the suite at all? A defect in dead code can never be caught
// by differential testing, whatever the LLM says.
package coverage

import (
	"encoding/xml"
	"fmt"
	"os"

	"faultbench/internal/gtruth"
)

// Counter types emitted by JaCoCo.
const (
	CounterInstruction = "INSTRUCTION"
	CounterBranch      = "BRANCH"
	CounterLine        = "LINE"
	CounterMethod      = "METHOD"
	CounterClass       = "CLASS"
)

// Counter is one missed/covered tally.
type Counter struct {
	Missed  int `json:"missed"`
	Covered int `json:"covered"`
}

// Total returns missed + covered.
func (c Counter) Total() int { return c.Missed + c.Covered }

// Ratio returns covered / total, 0.0 when nothing was measured.
func (c Counter) Ratio() float64 {
	if c.Total() == 0 {
		return 0.0
	}
	return float64(c.Covered) / float64(c.Total())
}

// Report is a parsed JaCoCo report: overall counters plus per-source-file
// line coverage.
type Report struct {
	Name     string             `json:"name"`
	Counters map[string]Counter `json:"counters"`
	// Files maps a source basename to the set of lines with at least one
	// covered instruction.
	Files map[string]map[int]bool `json:"-"`
}

// xml wire structures for the JaCoCo report format.
type xmlReport struct {
	XMLName  xml.Name     `xml:"report"`
	Name     string       `xml:"name,attr"`
	Packages []xmlPackage `xml:"package"`
	Counters []xmlCounter `xml:"counter"`
}

type xmlPackage struct {
	Name        string          `xml:"name,attr"`
	SourceFiles []xmlSourceFile `xml:"sourcefile"`
}

type xmlSourceFile struct {
	Name  string    `xml:"name,attr"`
	Lines []xmlLine `xml:"line"`
}

type xmlLine struct {
	Nr int `xml:"nr,attr"`
	MI int `xml:"mi,attr"` // missed instructions
	CI int `xml:"ci,attr"` // covered instructions
}

type xmlCounter struct {
	Type    string `xml:"type,attr"`
	Missed  int    `xml:"missed,attr"`
	Covered int    `xml:"covered,attr"`
}

// ParseFile reads one jacoco.xml report.
func ParseFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coverage report: %w", err)
	}
	return Parse(data)
}

// Parse decodes JaCoCo XML content.
func Parse(data []byte) (*Report, error) {
	var xr xmlReport
	if err := xml.Unmarshal(data, &xr); err != nil {
		return nil, fmt.Errorf("parse coverage report: %w", err)
	}

	rep := &Report{
		Name:     xr.Name,
		Counters: make(map[string]Counter, len(xr.Counters)),
		Files:    make(map[string]map[int]bool),
	}
	for _, c := range xr.Counters {
		rep.Counters[c.Type] = Counter{Missed: c.Missed, Covered: c.Covered}
	}
	for _, pkg := range xr.Packages {
		for _, sf := range pkg.SourceFiles {
			lines := rep.Files[sf.Name]
			if lines == nil {
				lines = make(map[int]bool)
				rep.Files[sf.Name] = lines
			}
			for _, l := range sf.Lines {
				if l.CI > 0 {
					lines[l.Nr] = true
				} else if _, ok := lines[l.Nr]; !ok {
					lines[l.Nr] = false
				}
			}
		}
	}
	return rep, nil
}

// LineCoverage returns the overall LINE counter ratio.
func (r *Report) LineCoverage() float64 {
	return r.Counters[CounterLine].Ratio()
}

// DefectCoverage is one defect's executable-line coverage.
type DefectCoverage struct {
	DefectID string  `json:"gt_id"`
	Filename string  `json:"filename"`
	Lines    int     `json:"lines"`   // executable lines inside the defect range
	Covered  int     `json:"covered"` // of those, lines the suite executed
	Fraction float64 `json:"fraction"`
}

// Reachable reports whether the suite executes any line of the defect.
func (d DefectCoverage) Reachable() bool { return d.Covered > 0 }

// DefectCoverage measures, for each seeded defect, how much of its line
// range the suite executes. Lines absent from the report (comments, blanks)
// carry no instructions and are not counted as executable.
func (r *Report) DefectCoverage(defects []gtruth.Defect) []DefectCoverage {
	out := make([]DefectCoverage, 0, len(defects))
	for _, gt := range defects {
		dc := DefectCoverage{DefectID: gt.ID, Filename: gt.Filename}
		lines := r.Files[gt.Filename]
		for nr := gt.StartLine; nr <= gt.EndLine; nr++ {
			covered, ok := lines[nr]
			if !ok {
				continue
			}
			dc.Lines++
			if covered {
				dc.Covered++
			}
		}
		if dc.Lines > 0 {
			dc.Fraction = float64(dc.Covered) / float64(dc.Lines)
		}
		out = append(out, dc)
	}
	return out
}
