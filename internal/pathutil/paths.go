// Package pathutil resolves the OS-aware config/state/logs directories and
// normalizes user-supplied paths the way a desktop tool has to: expand `~`,
// make everything absolute, and keep joins inside their intended base.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

const appName = "namefix"

// Dirs holds the three directories the core persists state into.
type Dirs struct {
	Config string
	State  string
	Logs   string
}

// Resolve computes the config/state/logs directories following:
// NAMEFIX_HOME env override (all three share one root under it), else
// XDG_* variables, else a platform default.
func Resolve() (Dirs, error) {
	if home := os.Getenv("NAMEFIX_HOME"); home != "" {
		home, err := ExpandHome(home)
		if err != nil {
			return Dirs{}, err
		}
		return Dirs{
			Config: filepath.Join(home, "config"),
			State:  filepath.Join(home, "state"),
			Logs:   filepath.Join(home, "logs"),
		}, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Dirs{}, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg, err := xdgOrDefault("XDG_CONFIG_HOME", homeDir, darwinDefault(homeDir, "Library/Application Support"), filepath.Join(homeDir, ".config"))
	if err != nil {
		return Dirs{}, err
	}
	state, err := xdgOrDefault("XDG_STATE_HOME", homeDir, darwinDefault(homeDir, "Library/Application Support"), filepath.Join(homeDir, ".local", "state"))
	if err != nil {
		return Dirs{}, err
	}
	logs, err := xdgOrDefault("XDG_CACHE_HOME", homeDir, darwinDefault(homeDir, "Library/Logs"), filepath.Join(homeDir, ".cache"))
	if err != nil {
		return Dirs{}, err
	}

	return Dirs{
		Config: filepath.Join(cfg, appName),
		State:  filepath.Join(state, appName),
		Logs:   filepath.Join(logs, appName),
	}, nil
}

func darwinDefault(homeDir, sub string) string {
	if runtime.GOOS != "darwin" {
		return ""
	}
	return filepath.Join(homeDir, sub)
}

func xdgOrDefault(envVar, _ string, darwin string, fallback string) (string, error) {
	if v := os.Getenv(envVar); v != "" {
		return ExpandHome(v)
	}
	if runtime.GOOS == "darwin" && darwin != "" {
		return darwin, nil
	}
	return fallback, nil
}

// ExpandHome expands a leading `~` or `~/` to the current user's home
// directory. Paths without a leading `~` are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		// `~otheruser/...` is not supported; pass through.
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand ~: %w", err)
	}
	if path == "~" {
		return homeDir, nil
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// Normalize expands `~`, resolves relative paths against the current
// working directory, and cleans the result. It does not require the path
// to exist.
func Normalize(path string) (string, error) {
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// SecureJoin joins rel onto base the way ConversionService resolves its
// output file inside the chosen output directory: the result is guaranteed
// to stay within base, with no `..`/symlink escape.
func SecureJoin(base, rel string) (string, error) {
	return securejoin.SecureJoin(base, rel)
}
