// Package journal is the append-only, LIFO undo log: every applied
// rename/convert operation is recorded here, and undo replays the most
// recent entry in reverse. It is the sole authority for undo order.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dwrtz/namefixd/internal/fssafe"
)

// Entry is one recorded (from, to) rename, in append order. ID lets a log
// line be correlated across the journal file and the diagnostic logger.
type Entry struct {
	ID   string    `json:"id"`
	From string    `json:"from"`
	To   string    `json:"to"`
	Ts   time.Time `json:"ts"`
}

// UndoResult is returned by Undo; Reason is set only when Ok is false.
type UndoResult struct {
	Ok      bool
	Reason  string
	Restore string
}

// Store is the NDJSON-backed append-only journal.
type Store struct {
	path string

	mu     sync.Mutex
	cache  []Entry
	loaded bool

	logger *log.Logger
}

// New creates a Store backed by path (the NDJSON file). The parent
// directory and the file itself are created lazily on first Record.
func New(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[journal] ", log.LstdFlags)
	}
	return &Store{path: path, logger: logger}
}

// Record appends one entry and updates the in-memory cache atomically with
// the on-disk append.
func (s *Store) Record(from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return err
	}

	entry := Entry{ID: uuid.NewString(), From: from, To: to, Ts: time.Now()}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure journal directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}

	s.cache = append(s.cache, entry)
	s.logger.Printf("recorded [%s] %s -> %s", entry.ID, entry.From, entry.To)
	return nil
}

// Entries returns a read-only snapshot of the journal in append order.
func (s *Store) Entries() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	out := make([]Entry, len(s.cache))
	copy(out, s.cache)
	return out, nil
}

// Undo pops the most recent entry and attempts to rename its `to` path back
// toward its `from` path (or a `{base}_restored[_N]{ext}` path if `from` is
// occupied). The entry is only removed from the journal once the reverse
// rename has succeeded; a failed undo leaves it in place so it can be
// retried.
func (s *Store) Undo() (UndoResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return UndoResult{}, err
	}

	if len(s.cache) == 0 {
		return UndoResult{Ok: false, Reason: "empty"}, nil
	}

	last := s.cache[len(s.cache)-1]

	target := restoreTarget(last.From)
	if err := fssafe.AtomicRename(last.To, target); err != nil {
		return UndoResult{Ok: false, Reason: err.Error()}, nil
	}

	s.cache = s.cache[:len(s.cache)-1]
	if err := s.rewriteLocked(); err != nil {
		return UndoResult{}, fmt.Errorf("rewrite journal after undo: %w", err)
	}

	s.logger.Printf("undid %s -> %s (restored to %s)", last.From, last.To, target)
	return UndoResult{Ok: true, Restore: target}, nil
}

// restoreTarget returns from if it's free, else from with a `_restored`
// (then `_restored_2`, `_3`, ...) suffix inserted before the extension.
func restoreTarget(from string) string {
	if _, err := os.Stat(from); err != nil {
		return from
	}

	dir := filepath.Dir(from)
	ext := filepath.Ext(from)
	base := strings.TrimSuffix(filepath.Base(from), ext)

	candidate := filepath.Join(dir, base+"_restored"+ext)
	for n := 2; ; n++ {
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_restored_%d%s", base, n, ext))
	}
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.cache = nil
			s.loaded = true
			return nil
		}
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return fmt.Errorf("parse journal line: %w", err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	s.cache = entries
	s.loaded = true
	return nil
}

// rewriteLocked atomically rewrites the journal file from the in-memory
// cache (used after undo pops the last entry).
func (s *Store) rewriteLocked() error {
	tmp := s.path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create temp journal: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, e := range s.cache {
		line, err := json.Marshal(e)
		if err != nil {
			f.Close()
			return fmt.Errorf("marshal journal entry: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			f.Close()
			return fmt.Errorf("write temp journal: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush temp journal: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp journal: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp journal: %w", err)
	}

	return os.Rename(tmp, s.path)
}
