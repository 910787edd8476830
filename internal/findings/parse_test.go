package findings

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_PlainArray(t *testing.T) {
	data := `[
		{"filename": "src/Parser.java", "start_line": 10, "end_line": 12,
		 "severity": "high", "error_description": "off-by-one"},
		{"filename": "Validator.java", "start_line": 55,
		 "severity": "low", "error_description": "missing null check"}
	]`
	got, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []Finding{
		{Filename: "Parser.java", StartLine: 10, EndLine: 12, Severity: "high",
			Description: "off-by-one", ClaimedID: UnmatchedID},
		{Filename: "Validator.java", StartLine: 55, EndLine: 55, Severity: "low",
			Description: "missing null check", ClaimedID: UnmatchedID},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_BugsWrapper(t *testing.T) {
	data := `{"_metadata": {"model": "gpt-4o"}, "bugs": [
		{"file": "A.java", "line": 3, "description": "bad cast"}
	]}`
	got, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(got))
	}
	f := got[0]
	if f.Filename != "A.java" || f.StartLine != 3 || f.EndLine != 3 || f.Description != "bad cast" {
		t.Errorf("unexpected finding: %+v", f)
	}
}

func TestParse_SingleObject(t *testing.T) {
	data := `{"filename": "A.java", "start_line": 7, "end_line": 9, "error_description": "x"}`
	got, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 || got[0].StartLine != 7 {
		t.Errorf("unexpected findings: %+v", got)
	}
}

func TestParse_MarkdownFence(t *testing.T) {
	data := "```json\n[{\"filename\": \"A.java\", \"start_line\": 1, \"end_line\": 2, \"error_description\": \"d\"}]\n```"
	got, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(got))
	}
}

func TestParse_EmbeddedInProse(t *testing.T) {
	data := "Here are the bugs I found:\n[{\"filename\": \"A.java\", \"start_line\": 4, \"error_description\": \"d\"}]\nLet me know if you need more."
	got, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 || got[0].StartLine != 4 {
		t.Errorf("unexpected findings: %+v", got)
	}
}

func TestParse_TruncatedArrayRecovery(t *testing.T) {
	// Array cut off mid-object: the two complete objects survive.
	data := `[
		{"filename": "A.java", "start_line": 1, "end_line": 1, "error_description": "a"},
		{"filename": "B.java", "start_line": 2, "end_line": 3, "error_description": "b"},
		{"filename": "C.java", "start_line": 9, "end_`
	got, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 recovered findings, got %d: %+v", len(got), got)
	}
	if got[0].Filename != "A.java" || got[1].Filename != "B.java" {
		t.Errorf("unexpected recovery: %+v", got)
	}
}

func TestParse_RecoveryKeepsBracesInStrings(t *testing.T) {
	// Braces inside a string value are content, not structure: the object
	// quoting a code snippet must survive recovery intact.
	data := `[
		{"filename": "A.java", "start_line": 5, "end_line": 5, "error_description": "missing } after if { block"},
		{"filename": "B.java", "start_line": 8, "end_line": 9, "error_description": "b"},
		{"filename": "C.java", "start_line": 1, "end_`
	got, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 recovered findings, got %d: %+v", len(got), got)
	}
	if got[0].Filename != "A.java" || got[0].Description != "missing } after if { block" {
		t.Errorf("brace-bearing object lost or mangled: %+v", got[0])
	}
	if got[1].Filename != "B.java" {
		t.Errorf("unexpected recovery: %+v", got[1])
	}
}

func TestParse_AliasFields(t *testing.T) {
	data := `[{"path": "x/Y.java", "startLine": "12", "endLine": "14", "message": "m"}]`
	got, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(got))
	}
	f := got[0]
	if f.Filename != "Y.java" || f.StartLine != 12 || f.EndLine != 14 || f.Description != "m" {
		t.Errorf("alias fields not honored: %+v", f)
	}
}

func TestParse_DropsUnusableReports(t *testing.T) {
	data := `[
		{"start_line": 1, "error_description": "no filename"},
		{"filename": "A.java", "error_description": "no lines"},
		{"filename": "B.java", "start_line": 5, "error_description": "ok"}
	]`
	got, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 || got[0].Filename != "B.java" {
		t.Errorf("expected only the usable report, got: %+v", got)
	}
}

func TestParse_Empty(t *testing.T) {
	got, err := Parse([]byte("   \n  "))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no findings, got %+v", got)
	}
}

func TestParse_NoJSON(t *testing.T) {
	_, err := Parse([]byte("I could not find any bugs in the provided code."))
	if err == nil {
		t.Fatal("expected error for output without JSON")
	}
}

func TestLoadVerified_ClaimedIDs(t *testing.T) {
	csv := `filename,start_line,end_line,error_description,semantically_correct_detected
Parser.java,10,12,off-by-one,E001
Parser.java,10,12,duplicate claim,e001
Validator.java,99,99,hallucinated,
Helper.java,5,6,bad id,X77
`
	got, err := LoadVerified(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadVerified: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 findings, got %d", len(got))
	}
	wantIDs := []string{"E001", "E001", "FP", "FP"}
	for i, want := range wantIDs {
		if got[i].ClaimedID != want {
			t.Errorf("row %d ClaimedID = %q, want %q", i, got[i].ClaimedID, want)
		}
	}
}

func TestLoadVerified_NoIDColumn(t *testing.T) {
	csv := "filename,start_line,end_line,error_description\nA.java,1,2,d\n"
	got, err := LoadVerified(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadVerified: %v", err)
	}
	if len(got) != 1 || got[0].ClaimedID != UnmatchedID {
		t.Errorf("expected FP claim without ID column, got %+v", got)
	}
}

func TestFindingKey(t *testing.T) {
	a := Finding{Filename: "A.java", StartLine: 1, EndLine: 2}
	b := Finding{Filename: "A.java", StartLine: 1, EndLine: 2, Description: "differs"}
	if a.Key() != b.Key() {
		t.Error("findings at the same location should share a key")
	}
	c := Finding{Filename: "A.java", StartLine: 1, EndLine: 3}
	if a.Key() == c.Key() {
		t.Error("different ranges must not share a key")
	}
}
