package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"faultbench/internal/llm"
	"faultbench/internal/logging"
)

var localizeFlags struct {
	config   string
	provider string
	model    string
	code     string
	prompt   string
	runs     int
	out      string
}

var localizeCmd = &cobra.Command{
	Use:   "localize",
	Short: "Run LLM fault localization over a source tree",
	Long: `Localize sends the source files under --code to an OpenAI-compatible chat
API and stores the raw responses under --out, named by a reproducible run
hash. Cached runs are reused. The output feeds straight into evaluate.`,
	RunE: runLocalize,
}

func init() {
	f := localizeCmd.Flags()
	f.StringVar(&localizeFlags.config, "config", "", "Provider config YAML (overrides --provider/--model)")
	f.StringVar(&localizeFlags.provider, "provider", "openai", "Builtin provider (openai, grok)")
	f.StringVar(&localizeFlags.model, "model", "", "Model name (required unless set in --config)")
	f.StringVar(&localizeFlags.code, "code", "", "Directory with source files to analyze (required)")
	f.StringVar(&localizeFlags.prompt, "prompt", "", "File overriding the builtin system prompt")
	f.IntVar(&localizeFlags.runs, "runs", 1, "Number of repeated runs (cached runs are not re-billed)")
	f.StringVarP(&localizeFlags.out, "out", "o", "Detected", "Output directory for raw model responses")
	_ = localizeCmd.MarkFlagRequired("code")
}

func runLocalize(cmd *cobra.Command, _ []string) error {
	logger := logging.New("localize")

	var cfg llm.ProviderConfig
	if localizeFlags.config != "" {
		var err error
		cfg, err = llm.LoadConfig(localizeFlags.config)
		if err != nil {
			return err
		}
	} else {
		cfg = llm.DefaultConfig(localizeFlags.provider)
		cfg.Model = localizeFlags.model
	}
	if cfg.Model == "" {
		return fmt.Errorf("no model configured: set --model or provide --config")
	}

	files, err := loadSources(localizeFlags.code)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no source files under %s", localizeFlags.code)
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		return err
	}

	system := ""
	if localizeFlags.prompt != "" {
		data, err := os.ReadFile(localizeFlags.prompt)
		if err != nil {
			return fmt.Errorf("read prompt: %w", err)
		}
		system = string(data)
	}

	outDir := filepath.Join(localizeFlags.out, cfg.Model)
	for i := 0; i < localizeFlags.runs; i++ {
		runDir := outDir
		if localizeFlags.runs > 1 {
			runDir = filepath.Join(outDir, fmt.Sprintf("run_%d", i+1))
		}
		path, err := llm.Localize(cmd.Context(), client, cfg, files, system, runDir)
		if err != nil {
			return fmt.Errorf("run %d: %w", i+1, err)
		}
		logger.Info("run stored", "run", i+1, "path", path)
	}
	return nil
}

// sourceExtensions limit the prompt to reviewable code.
var sourceExtensions = map[string]bool{
	".java": true, ".c": true, ".h": true, ".cpp": true, ".hpp": true,
	".py": true, ".go": true, ".js": true, ".ts": true,
}

func loadSources(root string) (map[string]string, error) {
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !sourceExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.Base(path)] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	return files, nil
}
