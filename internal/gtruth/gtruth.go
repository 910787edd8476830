// Package gtruth loads the seeded-defect ground truth table. The table is the
// invariant answer key for an experiment: one row per deliberately introduced
// bug, loaded once and never mutated by matching.
package gtruth

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"faultbench/internal/logging"
)

// Defect is one seeded bug from the ground-truth CSV.
type Defect struct {
	ID          string `json:"id"`          // stable identifier, e.g. "E012"
	Filename    string `json:"filename"`    // basename only; directories carry no meaning
	StartLine   int    `json:"start_line"`  // 1-based, inclusive
	EndLine     int    `json:"end_line"`    // 1-based, inclusive; >= StartLine
	Category    string `json:"iso_category"`
	Description string `json:"error_description"`
	Severity    string `json:"severity"`
	ContextHash string `json:"context_hash,omitempty"` // verification hash, unused by matching
}

// Size returns the defect's span in lines (inclusive).
func (d Defect) Size() int {
	return d.EndLine - d.StartLine + 1
}

// requiredColumns must all be present in the ground-truth CSV header.
var requiredColumns = []string{
	"id", "filename", "start_line", "end_line",
	"iso_category", "error_description", "severity",
}

// LoadCSV reads the ground-truth table from path.
// Malformed rows (missing filename, non-integer lines, start > end) are
// skipped with a warning: they are a data-quality problem for the operator,
// never a scoring outcome.
func LoadCSV(path string) ([]Defect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ground truth: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses ground-truth CSV content from r. See LoadCSV.
func Load(r io.Reader) ([]Defect, error) {
	logger := logging.New("gtruth")

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read ground truth header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("ground truth is missing columns: %s", strings.Join(missing, ", "))
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var defects []Defect
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Warn("skipping unreadable row", "line", line, "error", err)
			continue
		}

		d := Defect{
			ID:          strings.ToUpper(field(rec, "id")),
			Filename:    Basename(field(rec, "filename")),
			Category:    field(rec, "iso_category"),
			Description: field(rec, "error_description"),
			Severity:    field(rec, "severity"),
			ContextHash: field(rec, "context_hash"),
		}
		if d.ID == "" || d.Filename == "" {
			logger.Warn("skipping row without id or filename", "line", line)
			continue
		}
		d.StartLine, err = strconv.Atoi(field(rec, "start_line"))
		if err != nil {
			logger.Warn("skipping row with non-integer start_line", "line", line, "id", d.ID)
			continue
		}
		d.EndLine, err = strconv.Atoi(field(rec, "end_line"))
		if err != nil {
			logger.Warn("skipping row with non-integer end_line", "line", line, "id", d.ID)
			continue
		}
		if d.StartLine < 1 || d.EndLine < d.StartLine {
			logger.Warn("skipping row with inconsistent line range",
				"line", line, "id", d.ID, "start", d.StartLine, "end", d.EndLine)
			continue
		}
		defects = append(defects, d)
	}

	return defects, nil
}

// Basename strips any directory components from a reported filename.
// Both forward and backward slashes are handled: LLM output mixes them.
// Degenerate names (empty, bare separators) come back empty so callers
// can reject them; filepath.Base would report "." or "/" instead.
func Basename(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		name = name[i+1:]
	}
	name = filepath.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
