package llm

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"faultbench/internal/logging"
)

const systemPrompt = `You are an expert code reviewer hunting for seeded defects.
Report every bug you find as a JSON array. Each element must have:
"filename", "start_line", "end_line", "severity", "error_description".
Respond with JSON only, no prose and no markdown fences.`

// RunHash derives a stable 12-character identifier for one (provider, code)
// combination. Re-running the same model with the same parameters on the same
// sources maps to the same hash, so cached output is reused instead of
// re-billed.
func RunHash(cfg ProviderConfig, code string) string {
	codeSum := md5.Sum([]byte(code))
	seed := fmt.Sprintf("%s|%s|%.3f|%.3f|%d|%s",
		cfg.Provider, cfg.Model, cfg.Temperature, cfg.TopP, cfg.MaxTokens,
		hex.EncodeToString(codeSum[:]))
	sum := sha1.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])[:12]
}

// BuildPrompt assembles the user prompt from source files: each file is
// rendered with 1-based line numbers so the model reports ranges in the same
// coordinates the evaluation uses.
func BuildPrompt(files map[string]string) string {
	var b strings.Builder
	b.WriteString("Find all bugs in the following files.\n")

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	// Deterministic prompt for a deterministic run hash.
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(&b, "\n=== %s ===\n", name)
		for i, line := range strings.Split(files[name], "\n") {
			fmt.Fprintf(&b, "%d: %s\n", i+1, line)
		}
	}
	return b.String()
}

// Localize runs one fault-localization pass over the given sources and
// writes the raw model output to outDir, named by the run hash. If a cached
// result for the same hash exists it is returned without calling the API.
// An empty system falls back to the builtin reviewer prompt. The returned
// path feeds straight into evaluation.
func Localize(ctx context.Context, client *Client, cfg ProviderConfig,
	files map[string]string, system, outDir string) (string, error) {

	logger := logging.New("llm")

	if system == "" {
		system = systemPrompt
	}
	prompt := BuildPrompt(files)
	hash := RunHash(cfg, prompt)
	path := filepath.Join(outDir, fmt.Sprintf("%s_fault_bugs_%s.json", cfg.Model, hash))

	if _, err := os.Stat(path); err == nil {
		logger.Info("using cached run", "hash", hash, "path", path)
		return path, nil
	}

	logger.Info("dispatching localization run",
		"provider", cfg.Provider, "model", cfg.Model, "files", len(files), "hash", hash)
	raw, err := client.Complete(ctx, system, prompt)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		return "", fmt.Errorf("write run output: %w", err)
	}
	return path, nil
}
