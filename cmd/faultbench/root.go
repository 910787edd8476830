package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"faultbench/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "faultbench",
	Short: "Evaluate LLM fault localization against seeded defects",
	Long: "Faultbench scores LLM bug reports against a seeded-defect ground truth\n" +
		"using line-overlap, strict-localization, identity and adaptive-IoU matching,\n" +
		"and classifies how the existing test suite behaves on the same defects.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(localizeCmd)
	rootCmd.AddCommand(difftestCmd)
	rootCmd.AddCommand(coverageCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
