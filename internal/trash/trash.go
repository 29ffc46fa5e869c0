// Package trash defines the pluggable TrashService contract and a default
// filesystem-backed implementation. The system Trash/Recycle Bin mechanism
// itself is a platform concern left to the host; this package's default
// implementation is a portable, in-state-dir stand-in with the same
// recoverable-delete contract.
package trash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Result reports the outcome of a MoveToTrash call. Failure is reported via
// Success/Error, not a returned error, except when the source file did not
// exist before the attempt.
type Result struct {
	SrcPath string
	Success bool
	Error   string
}

// Service moves a file to a reversible, user-visible trash location.
// Implementations must fail with a returned error only when the source
// file does not exist; every other failure is reported via Result.
type Service interface {
	MoveToTrash(path string) (Result, error)
}

// DirService implements Service by moving files into Dir, a single
// recoverable directory. It does not use the system Trash; namefix.Service
// uses it, rooted under its state directory, unless another Service is
// supplied.
type DirService struct {
	Dir string
}

// New creates a DirService rooted at dir, creating it on first use.
func New(dir string) *DirService {
	return &DirService{Dir: dir}
}

// MoveToTrash moves path into the trash directory, collision-resolving
// with a timestamp suffix, falling back to copy+unlink for cross-volume
// moves (EXDEV).
func (d *DirService) MoveToTrash(path string) (Result, error) {
	if _, err := os.Stat(path); err != nil {
		return Result{}, fmt.Errorf("source file not found: %w", err)
	}

	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return Result{SrcPath: path, Success: false, Error: err.Error()}, nil
	}

	dest := d.destinationFor(path)

	if err := os.Rename(path, dest); err != nil {
		if isCrossDevice(err) {
			if err := copyThenUnlink(path, dest); err != nil {
				return Result{SrcPath: path, Success: false, Error: err.Error()}, nil
			}
			return Result{SrcPath: path, Success: true}, nil
		}
		return Result{SrcPath: path, Success: false, Error: err.Error()}, nil
	}

	return Result{SrcPath: path, Success: true}, nil
}

func (d *DirService) destinationFor(path string) string {
	base := filepath.Base(path)
	dest := filepath.Join(d.Dir, base)
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		dest = filepath.Join(d.Dir, fmt.Sprintf("%s_%d%s", stem, time.Now().UnixNano(), ext))
	}
	return dest
}

func copyThenUnlink(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source for cross-volume trash: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create trash destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy to trash: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync trash copy: %w", err)
	}
	if err := in.Close(); err != nil {
		return fmt.Errorf("close source after copy: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after cross-volume trash: %w", err)
	}
	return nil
}

func isCrossDevice(err error) bool {
	return strings.Contains(err.Error(), "cross-device") || strings.Contains(err.Error(), "invalid cross-device")
}
