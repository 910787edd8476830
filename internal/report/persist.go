package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"faultbench/internal/evaluate"
	"faultbench/internal/score"
)

// WritePartitionCSV persists one strategy's TP/FP/FN records for every run
// into <dir>/<kind>.csv files, the layout downstream notebooks expect.
func WritePartitionCSV(dir, key string, rep *evaluate.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	var tps, fps, fns [][]string
	for _, rr := range rep.Runs {
		if rr.Err != nil {
			continue
		}
		res, ok := rr.Results[key]
		if !ok {
			continue
		}
		for _, p := range res.TruePositives {
			tps = append(tps, []string{rr.Run.Path, p.DefectID, p.Filename,
				strconv.Itoa(p.GTStart), strconv.Itoa(p.GTEnd),
				strconv.Itoa(p.DetStart), strconv.Itoa(p.DetEnd),
				fmtIoU(p.IoU), p.Description})
		}
		for _, p := range res.FalsePositives {
			fps = append(fps, []string{rr.Run.Path, p.ClaimedID, p.Filename,
				strconv.Itoa(p.DetStart), strconv.Itoa(p.DetEnd), p.Note, p.Description})
		}
		for _, p := range res.FalseNegatives {
			fns = append(fns, []string{rr.Run.Path, p.DefectID, p.Filename,
				strconv.Itoa(p.GTStart), strconv.Itoa(p.GTEnd), p.Category, p.Description})
		}
	}

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"true_positives.csv",
			[]string{"run", "gt_id", "filename", "gt_start", "gt_end", "det_start", "det_end", "iou", "description"}, tps},
		{"false_positives.csv",
			[]string{"run", "detected_id", "filename", "det_start", "det_end", "note", "description"}, fps},
		{"false_negatives.csv",
			[]string{"run", "gt_id", "filename", "gt_start", "gt_end", "iso_category", "description"}, fns},
	}
	for _, f := range files {
		if err := writeCSV(filepath.Join(dir, f.name), f.header, f.rows); err != nil {
			return err
		}
	}
	return nil
}

func fmtIoU(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// jsonSummary is the machine-readable counterpart of FormatSummary.
type jsonSummary struct {
	Defects    int                       `json:"defects"`
	Runs       int                       `json:"runs"`
	Categories map[string]map[string]any `json:"categories"`
}

// WriteSummaryJSON persists the aggregate metrics as JSON.
func WriteSummaryJSON(path string, rep *evaluate.Report) error {
	out := jsonSummary{
		Defects:    rep.Defects,
		Runs:       len(rep.Runs),
		Categories: make(map[string]map[string]any),
	}
	for _, cat := range rep.Categories() {
		byKey := make(map[string]any)
		for _, key := range rep.StrategyKeys(cat) {
			agg := rep.Aggregates[cat][key]
			byKey[key] = struct {
				score.Summary
				Runs    int     `json:"runs"`
				MeanF1  float64 `json:"mean_f1"`
				StdevF1 float64 `json:"stdev_f1"`
			}{agg.Micro(), agg.Runs(), agg.MeanF1(), agg.StdevF1()}
		}
		out.Categories[cat] = byKey
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create summary dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
