package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"faultbench/internal/format"
	"faultbench/internal/junit"
)

var difftestFlags struct {
	buggy  string
	clean  []string
	out    string
	format string
}

var difftestCmd = &cobra.Command{
	Use:   "difftest",
	Short: "Classify JUnit results between a buggy build and clean baselines",
	Long: `Difftest reads TEST-*.xml reports from a defect-seeded build and one or
more clean baseline builds, folds parameterized executions into logical
tests, and classifies each test: detected the defect, flaky, escaped,
baseline regression, or failed with no baseline to compare.`,
	RunE: runDifftest,
}

func init() {
	f := difftestCmd.Flags()
	f.StringVar(&difftestFlags.buggy, "buggy", "", "Report directory of the defect-seeded build (required)")
	f.StringSliceVar(&difftestFlags.clean, "clean", nil, "Report directories of clean baseline builds (required, repeatable)")
	f.StringVar(&difftestFlags.out, "out", "", "Write the classification as JSON to this file")
	f.StringVar(&difftestFlags.format, "format", "ascii", "Table format (ascii, markdown)")
	_ = difftestCmd.MarkFlagRequired("buggy")
	_ = difftestCmd.MarkFlagRequired("clean")
}

func runDifftest(cmd *cobra.Command, _ []string) error {
	buggySuites, err := junit.ParseDir(difftestFlags.buggy)
	if err != nil {
		return err
	}
	if len(buggySuites) == 0 {
		return fmt.Errorf("no TEST-*.xml reports under %s", difftestFlags.buggy)
	}
	buggy := junit.Results(buggySuites)

	var cleans []map[string]bool
	for _, dir := range difftestFlags.clean {
		suites, err := junit.ParseDir(dir)
		if err != nil {
			return err
		}
		cleans = append(cleans, junit.Results(suites))
	}

	c := junit.Classify(buggy, cleans)

	mode := format.ParseMode(difftestFlags.format)
	t := format.NewTable(mode)
	t.Header("Outcome", "Tests")
	t.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
	t.Row("detected", len(c.Detected))
	t.Row("flaky", len(c.Flaky))
	t.Row("escaped", len(c.Escaped))
	t.Row("regressions", len(c.Regressions))
	t.Row("no baseline", len(c.NoBaseline))
	fmt.Println(t.String())

	if len(c.Detected) > 0 {
		fmt.Println("\nDefect-revealing tests:")
		for _, name := range c.Detected {
			fmt.Printf("  %s\n", name)
		}
	}

	if difftestFlags.out != "" {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal classification: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(difftestFlags.out), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(difftestFlags.out, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write classification: %w", err)
		}
	}
	return nil
}
