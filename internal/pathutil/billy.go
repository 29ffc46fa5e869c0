package pathutil

import (
	"github.com/go-git/go-billy/v5/osfs"
)

// EnsureDir creates dir (and any missing parents) if it does not already
// exist. Rooting a one-off billy.Filesystem at dir just to MkdirAll "." is
// overkill for a single call, but it keeps directory creation and the
// DirAccessible check below going through the same filesystem abstraction
// instead of splitting them across os and billy.
func EnsureDir(dir string) error {
	fs := osfs.New(dir)
	return fs.MkdirAll(".", 0o755)
}

// DirAccessible reports whether dir exists and is statable as a directory.
// The orchestrator's health monitor (namefix.Service) uses this alongside
// the watcher's own IsHealthy check.
func DirAccessible(dir string) bool {
	fs := osfs.New(dir)
	info, err := fs.Stat(".")
	return err == nil && info.IsDir()
}
