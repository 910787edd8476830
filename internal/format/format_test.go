package format_test

import (
	"strings"
	"testing"

	"faultbench/internal/format"
)

func TestASCII_BasicTable(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Method", "TP", "F1")
	tb.Row("Classic (Overlap)", 12, 0.857)
	tb.Row("Strict (IoU)", 9, 0.720)
	out := tb.String()

	if !strings.Contains(out, "Method") {
		t.Errorf("expected header 'Method' in output:\n%s", out)
	}
	if !strings.Contains(out, "Classic (Overlap)") {
		t.Errorf("expected 'Classic (Overlap)' in output:\n%s", out)
	}
	if !strings.Contains(out, "0.857") {
		t.Errorf("expected '0.857' in output:\n%s", out)
	}
	if !strings.Contains(out, "───") {
		t.Errorf("expected box-drawing characters in ASCII output:\n%s", out)
	}
}

func TestMarkdown_BasicTable(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Run", "Precision", "Recall")
	tb.Row("gpt-4o_fault_bugs_001", 0.8, 0.6)
	out := tb.String()

	if !strings.Contains(out, "| Run") {
		t.Errorf("expected markdown header with '| Run':\n%s", out)
	}
	if !strings.Contains(out, "---") {
		t.Errorf("expected markdown separator '---':\n%s", out)
	}
}

func TestFooter(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Run", "TP")
	tb.Row("r1", 5)
	tb.Row("r2", 7)
	tb.Footer("TOTAL", 12)
	out := tb.String()

	if !strings.Contains(out, "TOTAL") || !strings.Contains(out, "12") {
		t.Errorf("expected footer totals in output:\n%s", out)
	}
}

func TestParseMode(t *testing.T) {
	if format.ParseMode("markdown") != format.Markdown {
		t.Error("markdown should parse to Markdown mode")
	}
	if format.ParseMode("md") != format.Markdown {
		t.Error("md should parse to Markdown mode")
	}
	if format.ParseMode("ascii") != format.ASCII {
		t.Error("ascii should parse to ASCII mode")
	}
	if format.ParseMode("") != format.ASCII {
		t.Error("empty should fall back to ASCII mode")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"a long description of a defect", 10, "a long ..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := format.Truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestFmtLines(t *testing.T) {
	if got := format.FmtLines(10, 12); got != "10-12" {
		t.Errorf("FmtLines = %q, want 10-12", got)
	}
}
