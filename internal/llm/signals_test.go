package llm

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSignalWatcherStop(t *testing.T) {
	dir := t.TempDir()
	sw, err := NewSignalWatcher(filepath.Join(dir, "signals"))
	if err != nil {
		t.Fatalf("NewSignalWatcher failed: %v", err)
	}
	defer sw.Close()

	if sw.ShouldStop() {
		t.Error("fresh watcher should not report stop")
	}

	stopFile := filepath.Join(dir, "signals", "stop")
	if err := os.WriteFile(stopFile, nil, 0644); err != nil {
		t.Fatal(err)
	}

	// The stat fallback makes detection deterministic.
	if !sw.ShouldStop() {
		t.Error("watcher should report stop after the stop file appears")
	}

	if err := sw.ClearStop(); err != nil {
		t.Fatalf("ClearStop failed: %v", err)
	}
	if _, err := os.Stat(stopFile); !os.IsNotExist(err) {
		t.Error("ClearStop should remove the stop file")
	}
	if sw.ShouldStop() {
		t.Error("watcher should not report stop after ClearStop")
	}
}

func TestSignalWatcherClearWithoutFile(t *testing.T) {
	sw, err := NewSignalWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewSignalWatcher failed: %v", err)
	}
	defer sw.Close()

	if err := sw.ClearStop(); err != nil {
		t.Errorf("ClearStop with no stop file should succeed, got %v", err)
	}
}
