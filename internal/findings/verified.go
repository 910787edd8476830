package findings

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"faultbench/internal/gtruth"
	"faultbench/internal/logging"
)

// validClaimedID matches identifiers assigned during verification, e.g. "E012".
var validClaimedID = regexp.MustCompile(`^E\d{3,}$`)

// idColumnCandidates are header names that may carry the verified
// ground-truth ID, in priority order. Verification sheets are hand-edited
// and the column name drifts between experiments.
var idColumnCandidates = []string{
	"detected_id", "ground_truth_id", "id_mapping", "mapped_id",
	"error_id", "semantically_correct_detected", "correct_id", "id",
}

// LoadVerifiedCSV reads findings that went through manual or semi-automatic
// verification: a detected_errors.csv with an extra column assigning each
// row the ground-truth ID it detects (or blank for a false positive).
// Rows with an absent or malformed ID get ClaimedID = UnmatchedID.
func LoadVerifiedCSV(path string) ([]Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open verified findings: %w", err)
	}
	defer f.Close()
	return LoadVerified(f)
}

// LoadVerified parses verified-findings CSV content from r. See LoadVerifiedCSV.
func LoadVerified(r io.Reader) ([]Finding, error) {
	logger := logging.New("findings")

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read verified findings header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}

	idCol := -1
	for _, cand := range idColumnCandidates {
		if i, ok := col[cand]; ok {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		logger.Warn("no claimed-ID column found, all rows become FP",
			"candidates", strings.Join(idColumnCandidates, ","))
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Finding
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

		name := field(rec, "filename")
		if name == "" {
			continue
		}
		start, err := strconv.Atoi(field(rec, "start_line"))
		if err != nil {
			logger.Warn("skipping row with non-integer start_line", "line", line)
			continue
		}
		end, err := strconv.Atoi(field(rec, "end_line"))
		if err != nil {
			end = start
		}

		claimed := UnmatchedID
		if idCol >= 0 && idCol < len(rec) {
			id := strings.ToUpper(strings.TrimSpace(rec[idCol]))
			if validClaimedID.MatchString(id) {
				claimed = id
			}
		}

		out = append(out, Finding{
			Filename:    gtruth.Basename(name),
			StartLine:   start,
			EndLine:     end,
			Severity:    orUnknown(field(rec, "severity")),
			Description: field(rec, "error_description"),
			ClaimedID:   claimed,
		})
	}

	return out, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
