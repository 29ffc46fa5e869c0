// Package fssafe is the single choke point for disk mutation: it decides
// when a newly-appeared file has stopped being written to, and it performs
// the atomic rename every pipeline in the core eventually calls, with the
// retry discipline for EBUSY/ENOENT centralized here instead of scattered
// across callers.
package fssafe

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// These timings are empirical, kept as package-level vars so tests can
// shrink them instead of waiting out real windows.
var (
	PollInterval = 250 * time.Millisecond
	IdleBudget   = 750 * time.Millisecond
)

// IsStable polls path's size at PollInterval and returns true once two
// consecutive reads report the same size, or once IdleBudget has elapsed
// since the first observation, whichever comes first. A file that
// disappears mid-poll (ENOENT) is reported as unstable, not as an error —
// some other actor moved or deleted it first.
func IsStable(path string) (bool, error) {
	start := time.Now()

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	lastSize := info.Size()

	for {
		if time.Since(start) >= IdleBudget {
			return true, nil
		}

		time.Sleep(PollInterval)

		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, err
		}

		if info.Size() == lastSize {
			return true, nil
		}
		lastSize = info.Size()
	}
}
