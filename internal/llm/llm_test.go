package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(t *testing.T, baseURL string) ProviderConfig {
	t.Setenv("LLM_TEST_KEY", "sk-test")
	cfg := DefaultConfig("openai")
	cfg.BaseURL = baseURL
	cfg.Model = "gpt-test"
	cfg.APIKeyEnv = "LLM_TEST_KEY"
	cfg.Timeout = 5 * time.Second
	return cfg
}

func chatHandler(t *testing.T, content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization header = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "gpt-test" || len(req.Messages) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
		})
	}
}

func TestClient_Complete(t *testing.T) {
	srv := httptest.NewServer(chatHandler(t, `[{"filename":"A.java","start_line":1,"end_line":1,"error_description":"x"}]`))
	defer srv.Close()

	client, err := NewClient(testConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := client.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(got, "A.java") {
		t.Errorf("unexpected completion: %q", got)
	}
}

// Some OpenAI-compatible proxies serve JSON as text/plain; the client must
// decode the body anyway.
func TestClient_MislabeledContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "ok"}, "finish_reason": "stop"},
			},
		})
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := client.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "ok" {
		t.Errorf("completion = %q, want ok", got)
	}
}

func TestClient_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		chatHandler(t, "[]").ServeHTTP(w, r)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.Retries = 2
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Complete(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("Complete after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClient_MissingKey(t *testing.T) {
	cfg := DefaultConfig("openai")
	cfg.APIKeyEnv = "FAULTBENCH_NO_SUCH_KEY"
	os.Unsetenv("FAULTBENCH_NO_SUCH_KEY")
	if _, err := NewClient(cfg); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provider.yaml")
	data := `provider: grok
model: grok-3
temperature: 0.1
timeout_seconds: 30
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Model != "grok-3" || cfg.Temperature != 0.1 {
		t.Errorf("explicit fields lost: %+v", cfg)
	}
	if cfg.BaseURL != "https://api.x.ai/v1" || cfg.APIKeyEnv != "XAI_API_KEY" {
		t.Errorf("provider defaults not applied: %+v", cfg)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.MaxTokens == 0 || cfg.TopP == 0 || cfg.Retries == 0 {
		t.Errorf("sampling defaults not filled: %+v", cfg)
	}
}

func TestRunHash_Stable(t *testing.T) {
	cfg := DefaultConfig("openai")
	cfg.Model = "gpt-test"
	h1 := RunHash(cfg, "code A")
	h2 := RunHash(cfg, "code A")
	if h1 != h2 {
		t.Errorf("hash not stable: %s vs %s", h1, h2)
	}
	if len(h1) != 12 {
		t.Errorf("hash length = %d, want 12", len(h1))
	}
	if h3 := RunHash(cfg, "code B"); h3 == h1 {
		t.Error("different code must change the hash")
	}
	cfg.Temperature = 0.9
	if h4 := RunHash(cfg, "code A"); h4 == h1 {
		t.Error("different sampling must change the hash")
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt(map[string]string{
		"B.java": "x\ny",
		"A.java": "z",
	})
	// Files in sorted order, lines numbered from 1.
	ia, ib := strings.Index(got, "=== A.java ==="), strings.Index(got, "=== B.java ===")
	if ia < 0 || ib < 0 || ia > ib {
		t.Errorf("file ordering wrong:\n%s", got)
	}
	if !strings.Contains(got, "1: x") || !strings.Contains(got, "2: y") {
		t.Errorf("line numbering wrong:\n%s", got)
	}
}

func TestLocalize_CachesByHash(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		chatHandler(t, "[]").ServeHTTP(w, r)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	outDir := t.TempDir()
	files := map[string]string{"A.java": "int x = 0;"}

	p1, err := Localize(context.Background(), client, cfg, files, "", outDir)
	if err != nil {
		t.Fatalf("Localize: %v", err)
	}
	p2, err := Localize(context.Background(), client, cfg, files, "", outDir)
	if err != nil {
		t.Fatalf("Localize (cached): %v", err)
	}
	if p1 != p2 {
		t.Errorf("cache miss: %s vs %s", p1, p2)
	}
	if calls.Load() != 1 {
		t.Errorf("API calls = %d, want 1 (second run cached)", calls.Load())
	}
	if filepath.Ext(p1) != ".json" || !strings.Contains(filepath.Base(p1), "_fault_bugs_") {
		t.Errorf("output name %q does not match the result layout", p1)
	}
	if _, err := os.Stat(p1); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}
