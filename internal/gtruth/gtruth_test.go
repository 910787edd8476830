package gtruth

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleCSV = `id,filename,start_line,end_line,iso_category,error_description,severity
E001,src/main/java/com/acme/Parser.java,10,12,Functional Correctness,off-by-one in loop bound,high
E002,Validator.java,55,55,Reliability,missing null check,medium
`

func TestLoad_Basic(t *testing.T) {
	defects, err := Load(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []Defect{
		{ID: "E001", Filename: "Parser.java", StartLine: 10, EndLine: 12,
			Category: "Functional Correctness", Description: "off-by-one in loop bound", Severity: "high"},
		{ID: "E002", Filename: "Validator.java", StartLine: 55, EndLine: 55,
			Category: "Reliability", Description: "missing null check", Severity: "medium"},
	}
	if diff := cmp.Diff(want, defects); diff != "" {
		t.Errorf("defects mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_SkipsMalformedRows(t *testing.T) {
	csv := `id,filename,start_line,end_line,iso_category,error_description,severity
E001,A.java,10,12,cat,desc,high
E002,,5,6,cat,missing filename,low
E003,B.java,abc,6,cat,non-integer start,low
E004,C.java,9,4,cat,start after end,low
E005,D.java,3,3,cat,fine,low
`
	defects, err := Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(defects) != 2 {
		t.Fatalf("expected 2 valid defects, got %d: %+v", len(defects), defects)
	}
	if defects[0].ID != "E001" || defects[1].ID != "E005" {
		t.Errorf("unexpected survivors: %+v", defects)
	}
}

func TestLoad_MissingColumns(t *testing.T) {
	csv := "id,filename,start_line\nE001,A.java,10\n"
	_, err := Load(strings.NewReader(csv))
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "end_line") {
		t.Errorf("error should name the missing column, got: %v", err)
	}
}

func TestLoad_UppercasesIDs(t *testing.T) {
	csv := "id,filename,start_line,end_line,iso_category,error_description,severity\ne007,A.java,1,2,c,d,s\n"
	defects, err := Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if defects[0].ID != "E007" {
		t.Errorf("ID = %q, want E007", defects[0].ID)
	}
}

func TestBasename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"src/main/java/Foo.java", "Foo.java"},
		{"Foo.java", "Foo.java"},
		{`src\main\Foo.java`, "Foo.java"},
		{"  padded/Name.java ", "Name.java"},
		{"", ""},
		{"   ", ""},
		{".", ""},
		{"/", ""},
		{`src\`, ""},
	}
	for _, tt := range tests {
		if got := Basename(tt.in); got != tt.want {
			t.Errorf("Basename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefectSize(t *testing.T) {
	if (Defect{StartLine: 10, EndLine: 10}).Size() != 1 {
		t.Error("single-line defect should have size 1")
	}
	if (Defect{StartLine: 10, EndLine: 14}).Size() != 5 {
		t.Error("10-14 should have size 5")
	}
}
