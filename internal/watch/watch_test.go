package watch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reoring/goavsc/internal/watch"
)

func TestWatcher_ReportsChangesOfWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "user.avsc")
	other := filepath.Join(dir, "other.avsc")
	for _, p := range []string{target, other} {
		if err := os.WriteFile(p, []byte(`"int"`), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	changed := make(chan string, 16)
	w, err := watch.New([]string{target}, zerolog.Nop(), func(path string) { changed <- path })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(other, []byte(`"long"`), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	if err := os.WriteFile(target, []byte(`"long"`), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}

	select {
	case got := <-changed:
		if got != target {
			t.Fatalf("changed=%s want %s", got, target)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.avsc")
	if err := os.WriteFile(path, []byte(`"int"`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, err := watch.New([]string{path}, zerolog.Nop(), func(string) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
}

func TestNew_NoFiles(t *testing.T) {
	if _, err := watch.New(nil, zerolog.Nop(), func(string) {}); err == nil {
		t.Fatal("expected error")
	}
}
