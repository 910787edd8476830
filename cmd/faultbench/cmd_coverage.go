package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"faultbench/internal/coverage"
	"faultbench/internal/format"
	"faultbench/internal/gtruth"
)

var coverageFlags struct {
	report string
	gt     string
	out    string
	format string
}

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Summarize JaCoCo coverage, optionally per seeded defect",
	Long: `Coverage prints the overall JaCoCo counters. With --gt it also reports how
much of each seeded defect's line range the suite executes — a defect in
unexecuted code cannot be caught by differential testing.`,
	RunE: runCoverage,
}

func init() {
	f := coverageCmd.Flags()
	f.StringVar(&coverageFlags.report, "report", "", "JaCoCo XML report (required)")
	f.StringVar(&coverageFlags.gt, "gt", "", "Ground-truth CSV for per-defect coverage")
	f.StringVar(&coverageFlags.out, "out", "", "Write per-defect coverage as JSON to this file")
	f.StringVar(&coverageFlags.format, "format", "ascii", "Table format (ascii, markdown)")
	_ = coverageCmd.MarkFlagRequired("report")
}

func runCoverage(cmd *cobra.Command, _ []string) error {
	rep, err := coverage.ParseFile(coverageFlags.report)
	if err != nil {
		return err
	}

	mode := format.ParseMode(coverageFlags.format)
	t := format.NewTable(mode)
	t.Header("Counter", "Missed", "Covered", "Ratio")
	t.Columns(
		format.ColumnConfig{Number: 2, Align: format.AlignRight},
		format.ColumnConfig{Number: 3, Align: format.AlignRight},
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
	)
	for _, kind := range []string{
		coverage.CounterInstruction, coverage.CounterBranch, coverage.CounterLine,
		coverage.CounterMethod, coverage.CounterClass,
	} {
		c, ok := rep.Counters[kind]
		if !ok {
			continue
		}
		t.Row(kind, c.Missed, c.Covered, format.FmtRatio(c.Ratio()))
	}
	fmt.Println(t.String())

	if coverageFlags.gt == "" {
		return nil
	}

	defects, err := gtruth.LoadCSV(coverageFlags.gt)
	if err != nil {
		return err
	}
	perDefect := rep.DefectCoverage(defects)

	dt := format.NewTable(mode)
	dt.Header("Defect", "File", "Lines", "Executable", "Covered", "Fraction", "Reachable")
	dt.Columns(
		format.ColumnConfig{Number: 6, Align: format.AlignRight},
		format.ColumnConfig{Number: 7, Align: format.AlignCenter},
	)
	for i, dc := range perDefect {
		gt := defects[i]
		dt.Row(dc.DefectID, dc.Filename, format.FmtLines(gt.StartLine, gt.EndLine),
			dc.Lines, dc.Covered, format.FmtRatio(dc.Fraction), format.BoolMark(dc.Reachable()))
	}
	fmt.Println()
	fmt.Println(dt.String())

	if coverageFlags.out != "" {
		data, err := json.MarshalIndent(perDefect, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal defect coverage: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(coverageFlags.out), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(coverageFlags.out, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write defect coverage: %w", err)
		}
	}
	return nil
}
