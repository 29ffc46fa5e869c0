package fssafe

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Retry budget for AtomicRename, tunable for tests.
var (
	MaxRenameAttempts = 10
	BusyBackoffMin    = 50 * time.Millisecond
	BusyBackoffMax    = 150 * time.Millisecond
	MissingBackoffMin = 150 * time.Millisecond
	MissingBackoffMax = 400 * time.Millisecond
)

// AtomicRename ensures to's parent directory exists, then renames from to
// to. It retries on transient EBUSY-shaped errors (jittered 50-150ms) and
// transient ENOENT-shaped errors (jittered 150-400ms) up to
// MaxRenameAttempts times; every other error surfaces immediately.
func AtomicRename(from, to string) error {
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("ensure target directory for %s: %w", to, err)
	}

	var lastErr error
	for attempt := 0; attempt < MaxRenameAttempts; attempt++ {
		err := os.Rename(from, to)
		if err == nil {
			return nil
		}
		lastErr = err

		switch {
		case isBusy(err):
			time.Sleep(jitter(BusyBackoffMin, BusyBackoffMax))
		case isMissing(err):
			time.Sleep(jitter(MissingBackoffMin, MissingBackoffMax))
		default:
			return fmt.Errorf("rename %s to %s: %w", from, to, err)
		}
	}

	return fmt.Errorf("rename %s to %s after %d attempts: %w", from, to, MaxRenameAttempts, lastErr)
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func isBusy(err error) bool {
	if errors.Is(err, errBusySentinel) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "busy") || strings.Contains(msg, "EBUSY")
}

// errBusySentinel lets callers (and tests) wrap a synthetic busy error
// without depending on a platform-specific syscall errno constant.
var errBusySentinel = errors.New("resource busy")

// ErrBusy wraps err so isBusy treats it as a transient EBUSY-class failure.
// Exposed for tests and for platform-specific FsSafe shims to mark an
// OS error as retryable-busy when its message shape differs by platform.
func ErrBusy(err error) error {
	return fmt.Errorf("%w: %w", errBusySentinel, err)
}
