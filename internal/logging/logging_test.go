package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewStderrOnly(t *testing.T) {
	logger, closeFn, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger == nil {
		t.Fatal("nil logger")
	}
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestNewMirrorsToFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "run.log")

	logger, closeFn, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Printf("deleted %d files", 3)
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	content, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), "deleted 3 files") {
		t.Errorf("log file missing entry: %q", content)
	}
}

func TestNewAppends(t *testing.T) {
	p := filepath.Join(t.TempDir(), "run.log")

	for _, msg := range []string{"first", "second"} {
		logger, closeFn, err := New(p)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		logger.Print(msg)
		closeFn()
	}

	content, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "first") || !strings.Contains(string(content), "second") {
		t.Errorf("expected both runs in the log: %q", content)
	}
}

func TestNewBadPath(t *testing.T) {
	if _, _, err := New(filepath.Join(t.TempDir(), "no", "such", "dir", "run.log")); err == nil {
		t.Error("expected error for unreachable log path")
	}
}
