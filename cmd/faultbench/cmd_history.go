package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"faultbench/internal/format"
	"faultbench/internal/store"
)

var historyFlags struct {
	db       string
	category string
	strategy string
	format   string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded evaluation batches and metric trends",
	Long: `History lists the batches recorded with evaluate --db. With --category and
--strategy it prints that series across batches, so regressions between model
versions are visible at a glance.`,
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.db, "db", "", "SQLite history store path (required)")
	f.StringVar(&historyFlags.category, "category", "", "Category to trend, e.g. 'Raw LLM (gpt-4o)'")
	f.StringVar(&historyFlags.strategy, "strategy", "classic", "Strategy key to trend")
	f.StringVar(&historyFlags.format, "format", "ascii", "Table format (ascii, markdown)")
	_ = historyCmd.MarkFlagRequired("db")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(historyFlags.db)
	if err != nil {
		return err
	}
	defer st.Close()

	mode := format.ParseMode(historyFlags.format)

	if historyFlags.category != "" {
		rows, err := st.History(historyFlags.category, historyFlags.strategy)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no history for %s / %s", historyFlags.category, historyFlags.strategy)
		}
		t := format.NewTable(mode)
		t.Header("Batch", "Runs", "TP", "FP", "FN", "F1", "F1 mean", "F1 stdev")
		t.Columns(
			format.ColumnConfig{Number: 6, Align: format.AlignRight},
			format.ColumnConfig{Number: 7, Align: format.AlignRight},
			format.ColumnConfig{Number: 8, Align: format.AlignRight},
		)
		for _, r := range rows {
			t.Row(r.BatchID, r.Runs, r.TP, r.FP, r.FN,
				format.FmtRatio(r.F1), format.FmtRatio(r.MeanF1), format.FmtRatio(r.StdevF1))
		}
		fmt.Println(t.String())
		return nil
	}

	batches, err := st.ListBatches()
	if err != nil {
		return err
	}
	t := format.NewTable(mode)
	t.Header("ID", "Label", "Defects", "Runs", "Created")
	for _, b := range batches {
		t.Row(b.ID, b.Label, b.Defects, b.Runs, b.CreatedAt)
	}
	fmt.Println(t.String())
	return nil
}
