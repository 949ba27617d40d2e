package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mveitas/cclens/internal/config"
	"github.com/mveitas/cclens/internal/query"
)

func TestRenderHourlyUsesInjectedEngine(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "alpha")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	line := `{"type":"assistant","timestamp":"2024-03-20T10:00:00Z","costUSD":0.25,"message":{"usage":{"input_tokens":100,"output_tokens":200}}}` + "\n"
	if err := os.WriteFile(filepath.Join(dir, "usage.jsonl"), []byte(line), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.General.RootPath = root
	cfg.General.Timezone = "UTC"

	// Scan-only engine built once by the caller; rendering must not open
	// anything of its own.
	engine := query.New(cfg, nil)
	if err := renderHourly(engine); err != nil {
		t.Fatalf("renderHourly: %v", err)
	}
}
