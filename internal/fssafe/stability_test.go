package fssafe

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIsStableMissingFile(t *testing.T) {
	ok, err := IsStable(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatalf("IsStable() error = %v", err)
	}
	if ok {
		t.Error("expected missing file to report not stable")
	}
}

func TestIsStableStaticFile(t *testing.T) {
	origPoll, origBudget := PollInterval, IdleBudget
	PollInterval = 5 * time.Millisecond
	IdleBudget = 20 * time.Millisecond
	defer func() { PollInterval, IdleBudget = origPoll, origBudget }()

	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	ok, err := IsStable(path)
	if err != nil {
		t.Fatalf("IsStable() error = %v", err)
	}
	if !ok {
		t.Error("expected a static file to be reported stable")
	}
}
