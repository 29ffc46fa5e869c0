package fssafe

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAtomicRenameSimpleMove(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "src.txt")
	to := filepath.Join(dir, "nested", "dest.txt")

	if err := os.WriteFile(from, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := AtomicRename(from, to); err != nil {
		t.Fatalf("AtomicRename() error = %v", err)
	}
	if _, err := os.Stat(to); err != nil {
		t.Fatalf("expected destination to exist: %v", err)
	}
	if _, err := os.Stat(from); !os.IsNotExist(err) {
		t.Fatalf("expected source to be gone")
	}
}

func TestAtomicRenameRetriesThenFailsOnPermanentlyMissingSource(t *testing.T) {
	origAttempts, origMin, origMax := MaxRenameAttempts, MissingBackoffMin, MissingBackoffMax
	MaxRenameAttempts = 2
	MissingBackoffMin = time.Millisecond
	MissingBackoffMax = 2 * time.Millisecond
	defer func() {
		MaxRenameAttempts, MissingBackoffMin, MissingBackoffMax = origAttempts, origMin, origMax
	}()

	dir := t.TempDir()
	from := filepath.Join(dir, "does-not-exist.txt")
	to := filepath.Join(dir, "dest.txt")

	err := AtomicRename(from, to)
	if err == nil {
		t.Fatal("expected error for permanently missing source")
	}
}

func TestErrBusyMarksRetryable(t *testing.T) {
	wrapped := ErrBusy(os.ErrPermission)
	if !isBusy(wrapped) {
		t.Error("expected ErrBusy-wrapped error to be classified as busy")
	}
}
