package cost

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCost(t *testing.T) {
	table := DefaultTable()

	// 1M input + 1M output at sonnet pricing.
	got := table.Cost("claude-sonnet-4-5-20250929", 1_000_000, 1_000_000)
	if !almostEqual(got, 18.00) {
		t.Errorf("sonnet cost = %v, want 18.00", got)
	}

	// Haiku is cheaper.
	haiku := table.Cost("claude-haiku-4-5-20251001", 1_000_000, 1_000_000)
	if haiku >= got {
		t.Errorf("haiku cost %v should be below sonnet %v", haiku, got)
	}

	// Zero tokens cost nothing.
	if c := table.Cost("claude-sonnet-4-5-20250929", 0, 0); c != 0 {
		t.Errorf("zero-token cost = %v, want 0", c)
	}
}

func TestCostUnknownModelUsesFallback(t *testing.T) {
	table := DefaultTable()
	got := table.Cost("some-future-model", 1_000_000, 0)
	if !almostEqual(got, table.Fallback.InputPerMTok) {
		t.Errorf("fallback cost = %v, want %v", got, table.Fallback.InputPerMTok)
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	content := `
models:
  test-model:
    input: 1.0
    output: 2.0
fallback:
  input: 5.0
  output: 10.0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write pricing file: %v", err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}

	if got := table.Cost("test-model", 1_000_000, 1_000_000); !almostEqual(got, 3.0) {
		t.Errorf("test-model cost = %v, want 3.0", got)
	}
	if got := table.Cost("missing", 1_000_000, 0); !almostEqual(got, 5.0) {
		t.Errorf("fallback cost = %v, want 5.0", got)
	}
}

func TestLoadTableMissingFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	content := `
models:
  only-model:
    input: 1.0
    output: 1.0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write pricing file: %v", err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	if table.Fallback == (Pricing{}) {
		t.Error("missing fallback should be filled from defaults")
	}
}

func TestLoadTableMissingFile(t *testing.T) {
	if _, err := LoadTable("/nonexistent/pricing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
