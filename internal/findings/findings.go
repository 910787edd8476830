// Package findings normalizes LLM defect reports into a canonical record.
// All the heuristics for coping with real-world model output — markdown
// fences, wrapper objects, truncated arrays, alias field names — live here;
// the matching engine never sees raw LLM text.
package findings

import "fmt"

// UnmatchedID is the sentinel claimed-ID for a finding that has not been
// verified against any ground-truth defect.
const UnmatchedID = "FP"

// Finding is one defect report from an LLM run.
type Finding struct {
	Filename    string  `json:"filename"`   // basename only
	StartLine   int     `json:"start_line"` // 1-based, inclusive
	EndLine     int     `json:"end_line"`   // 1-based, inclusive; defaults to StartLine
	Severity    string  `json:"severity"`
	Description string  `json:"error_description"`
	Confidence  float64 `json:"confidence,omitempty"` // 0 when the model reports none
	ClaimedID   string  `json:"detected_id"`          // verified ground-truth ID, or UnmatchedID
}

// Size returns the finding's span in lines (inclusive).
func (f Finding) Size() int {
	return f.EndLine - f.StartLine + 1
}

// Key identifies a finding by its reported location, used for duplicate
// detection across repeated submissions of the same report.
func (f Finding) Key() string {
	return fmt.Sprintf("%s:%d-%d", f.Filename, f.StartLine, f.EndLine)
}

// HasClaim reports whether the finding carries a verified ground-truth ID.
func (f Finding) HasClaim() bool {
	return f.ClaimedID != "" && f.ClaimedID != UnmatchedID
}
