package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDirCreatesNested(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a", "b", "c")

	if err := EnsureDir(target); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		t.Fatalf("expected %q to exist as a directory", target)
	}
}

func TestDirAccessible(t *testing.T) {
	root := t.TempDir()
	if !DirAccessible(root) {
		t.Error("expected existing temp dir to be accessible")
	}
	if DirAccessible(filepath.Join(root, "does-not-exist")) {
		t.Error("expected missing dir to be inaccessible")
	}
}
