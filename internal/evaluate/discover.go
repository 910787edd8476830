package evaluate

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Run is one model output file awaiting evaluation.
type Run struct {
	Path     string `json:"path"`
	Category string `json:"category"`
	Verified bool   `json:"verified"` // CSV with claimed-ID column vs raw JSON
}

// resultFile matches the two result layouts produced by the collection
// pipelines: raw LLM output dumps and verified detection sheets.
var (
	rawResult      = regexp.MustCompile(`_fault_bugs.*\.json$`)
	verifiedResult = regexp.MustCompile(`^detected_errors.*\.csv$`)
)

// categoryDir captures the pipeline directory under a Detected/ results tree,
// e.g. Detected/opencode_gpt-4o/run_3/x_fault_bugs_1.json.
var categoryDir = regexp.MustCompile(`(?i)detected[/\\]([^/\\]+)[/\\]`)

// DiscoverRuns walks root and collects every result file it understands.
// Runs come back sorted by path so batch output is reproducible.
func DiscoverRuns(root string) ([]Run, error) {
	var runs []Run
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		base := d.Name()
		switch {
		case rawResult.MatchString(base):
			runs = append(runs, Run{Path: path, Category: DetectCategory(path)})
		case verifiedResult.MatchString(base):
			runs = append(runs, Run{Path: path, Category: DetectCategory(path), Verified: true})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover runs under %s: %w", root, err)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Path < runs[j].Path })
	return runs, nil
}

// DetectCategory derives the reporting category from a result path. The
// directory directly under Detected/ names the pipeline: an opencode_ or
// finetuned_ prefix identifies the agentic and fine-tuned pipelines, anything
// else is a raw LLM run named after its model.
func DetectCategory(path string) string {
	m := categoryDir.FindStringSubmatch(path)
	if m == nil {
		return "Uncategorized"
	}
	dir := m[1]
	lower := strings.ToLower(dir)
	switch {
	case strings.HasPrefix(lower, "opencode_"):
		return fmt.Sprintf("Opencode (%s)", dir[len("opencode_"):])
	case strings.HasPrefix(lower, "finetuned_"):
		return fmt.Sprintf("FineTuned (%s)", dir[len("finetuned_"):])
	case strings.HasPrefix(lower, "ft_"):
		return fmt.Sprintf("FineTuned (%s)", dir[len("ft_"):])
	default:
		return fmt.Sprintf("Raw LLM (%s)", dir)
	}
}
