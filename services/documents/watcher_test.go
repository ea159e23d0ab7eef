package documents

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherIngestsDroppedFiles(t *testing.T) {
	idx := &fakeIndex{}
	ing := newTestIngestor(t, nil, idx)
	w, err := NewWatcher(ing, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.settle = 50 * time.Millisecond

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, dir) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "ignored.exe"), []byte("binary"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "faq.md"), []byte("Shipping takes five business days."), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		stats, _ := idx.Stats(ctx)
		if stats.VectorCount > 0 {
			idx.mu.Lock()
			src := idx.chunks[0].Source
			idx.mu.Unlock()
			if src != "faq.md" {
				t.Errorf("indexed source %q, want faq.md", src)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("dropped file was never ingested")
}

func TestIsSupported(t *testing.T) {
	for path, want := range map[string]bool{
		"notes.TXT":   true,
		"a/b/c.docx":  true,
		"report.pdf":  true,
		"archive.zip": false,
		"README":      false,
	} {
		if got := isSupported(path); got != want {
			t.Errorf("isSupported(%q) = %v, want %v", path, got, want)
		}
	}
}
