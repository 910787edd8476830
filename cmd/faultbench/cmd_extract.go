package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"faultbench/internal/evaluate"
	"faultbench/internal/findings"
	"faultbench/internal/logging"
)

var extractFlags struct {
	results string
	out     string
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Normalize raw LLM output files into a findings CSV",
	Long: `Extract parses every raw result file under --results, tolerating markdown
fences, wrapper objects and truncated arrays, and writes one detected_errors
CSV per run next to --out. The CSVs feed manual verification and the
identity strategy.`,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&extractFlags.results, "results", "", "Directory with raw LLM output files (required)")
	f.StringVar(&extractFlags.out, "out", "", "Output directory for normalized CSVs (required)")
	_ = extractCmd.MarkFlagRequired("results")
	_ = extractCmd.MarkFlagRequired("out")
}

func runExtract(cmd *cobra.Command, _ []string) error {
	logger := logging.New("extract")

	runs, err := evaluate.DiscoverRuns(extractFlags.results)
	if err != nil {
		return err
	}

	extracted := 0
	for _, run := range runs {
		if run.Verified {
			continue // already normalized
		}
		dets := findings.ParseFile(run.Path)
		if len(dets) == 0 {
			logger.Warn("no findings extracted", "path", run.Path)
		}

		rel, err := filepath.Rel(extractFlags.results, run.Path)
		if err != nil {
			rel = filepath.Base(run.Path)
		}
		outPath := filepath.Join(extractFlags.out, rel[:len(rel)-len(filepath.Ext(rel))]+".csv")
		if err := writeFindingsCSV(outPath, dets); err != nil {
			return err
		}
		extracted++
	}

	logger.Info("extraction complete", "runs", extracted, "out", extractFlags.out)
	fmt.Printf("extracted %d runs into %s\n", extracted, extractFlags.out)
	return nil
}

func writeFindingsCSV(path string, dets []findings.Finding) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"filename", "start_line", "end_line", "severity", "error_description", "detected_id"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, d := range dets {
		rec := []string{
			d.Filename,
			strconv.Itoa(d.StartLine),
			strconv.Itoa(d.EndLine),
			d.Severity,
			d.Description,
			"", // filled during verification
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
