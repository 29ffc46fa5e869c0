// Package config owns the on-disk JSON configuration: loading with
// defaults-on-failure, validating, atomic persistence, legacy-profile
// migration, and a change-notification surface for subscribers.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dwrtz/namefixd/internal/pathutil"
	"github.com/dwrtz/namefixd/internal/profile"
)

// Theme is one of the UI color themes; the core only round-trips it.
type Theme string

// Config is the full persisted shape, written as JSON at
// <configDir>/config.json.
type Config struct {
	WatchDir       string            `json:"watchDir"`
	WatchDirs      []string          `json:"watchDirs"`
	Prefix         string            `json:"prefix"`
	Include        []string          `json:"include"`
	Exclude        []string          `json:"exclude"`
	DryRun         bool              `json:"dryRun"`
	Theme          Theme             `json:"theme"`
	LaunchOnLogin  bool              `json:"launchOnLogin"`
	Profiles       []profile.Profile `json:"profiles" validate:"dive"`
}

// DefaultConfig returns the zero-watchDirs config with the built-in
// profile set and conservative defaults.
func DefaultConfig() *Config {
	return &Config{
		WatchDirs: []string{},
		Include:   []string{},
		Exclude:   []string{},
		DryRun:    false,
		Theme:     "system",
		Profiles:  profile.Defaults(),
	}
}

// Store is the JSON-backed, cached, subscribable ConfigStore.
type Store struct {
	path string

	mu     sync.Mutex
	cached *Config
	loaded bool

	subMu       sync.Mutex
	subscribers []func(Config)

	validate *validator.Validate
	logger   *log.Logger
}

// New creates a Store persisting to path (the config.json file).
func New(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[config] ", log.LstdFlags)
	}
	return &Store{path: path, validate: validator.New(), logger: logger}
}

// Get returns the current config, loading it on first call. On a missing
// or unparseable file, defaults are written atomically and returned. On a
// structurally invalid file, defaults are returned in-memory WITHOUT
// touching the on-disk file, so the user can recover it manually.
func (s *Store) Get() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked()
}

func (s *Store) getLocked() (Config, error) {
	if s.loaded {
		return *s.cached, nil
	}

	cfg, err := s.readFile()
	if err != nil {
		s.logger.Printf("config file missing or unparseable, writing defaults: %v", err)
		def := DefaultConfig()
		normalized := normalize(*def)
		if err := s.persistLocked(normalized); err != nil {
			return Config{}, fmt.Errorf("persist default config: %w", err)
		}
		s.cached = &normalized
		s.loaded = true
		return normalized, nil
	}

	normalized := normalize(*cfg)
	if err := s.validate.Struct(normalized); err != nil {
		s.logger.Printf("config failed structural validation, using defaults in-memory: %v", err)
		def := normalize(*DefaultConfig())
		s.cached = &def
		s.loaded = true
		return def, nil
	}

	s.cached = &normalized
	s.loaded = true
	return normalized, nil
}

// Overrides is a partial Config: nil fields are left unchanged by Set.
type Overrides struct {
	WatchDir      *string
	WatchDirs     []string
	Prefix        *string
	Include       []string
	Exclude       []string
	DryRun        *bool
	Theme         *Theme
	LaunchOnLogin *bool
	Profiles      []profile.Profile
}

// Set merges overrides onto the current config, validates, persists
// atomically, caches, and broadcasts to subscribers.
func (s *Store) Set(o Overrides) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getLocked()
	if err != nil {
		return Config{}, err
	}

	merged := applyOverrides(current, o)
	merged.Profiles = assignProfileIDs(merged.Profiles)
	normalized := normalize(merged)

	if err := s.validate.Struct(normalized); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	for _, p := range normalized.Profiles {
		if !profile.ValidAction(p.Action) {
			return Config{}, fmt.Errorf("profile %s: invalid action %q", p.ID, p.Action)
		}
	}

	if err := s.persistLocked(normalized); err != nil {
		return Config{}, err
	}

	s.cached = &normalized
	s.loaded = true
	s.broadcast(normalized)
	return normalized, nil
}

func applyOverrides(c Config, o Overrides) Config {
	if o.WatchDir != nil {
		c.WatchDir = *o.WatchDir
	}
	if o.WatchDirs != nil {
		c.WatchDirs = o.WatchDirs
	}
	if o.Prefix != nil {
		c.Prefix = *o.Prefix
	}
	if o.Include != nil {
		c.Include = o.Include
	}
	if o.Exclude != nil {
		c.Exclude = o.Exclude
	}
	if o.DryRun != nil {
		c.DryRun = *o.DryRun
	}
	if o.Theme != nil {
		c.Theme = *o.Theme
	}
	if o.LaunchOnLogin != nil {
		c.LaunchOnLogin = *o.LaunchOnLogin
	}
	if o.Profiles != nil {
		c.Profiles = o.Profiles
	}
	return c
}

// OnChange subscribes cb to future Set broadcasts and delivers the current
// value eagerly if already loaded. Returns an unsubscribe function.
func (s *Store) OnChange(cb func(Config)) func() {
	s.mu.Lock()
	loaded := s.loaded
	var current Config
	if loaded {
		current = *s.cached
	}
	s.mu.Unlock()

	s.subMu.Lock()
	s.subscribers = append(s.subscribers, cb)
	idx := len(s.subscribers) - 1
	s.subMu.Unlock()

	if loaded {
		cb(current)
	}

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if idx >= 0 && idx < len(s.subscribers) {
			s.subscribers[idx] = nil
		}
	}
}

func (s *Store) broadcast(cfg Config) {
	s.subMu.Lock()
	subs := make([]func(Config), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()

	for _, cb := range subs {
		if cb != nil {
			cb(cfg)
		}
	}
}

func (s *Store) readFile() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", s.path, err)
	}
	return &cfg, nil
}

func (s *Store) persistLocked(cfg Config) error {
	if err := pathutil.EnsureDir(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Chmod(tmp, 0o600); err != nil {
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename temp config into place: %w", err)
	}
	return nil
}

// normalize trims/resolves/dedups watchDirs (preserving insertion order),
// ensures watchDir == watchDirs[0] when unset, runs legacy profile
// migration, and re-injects any missing built-in default profile.
func normalize(c Config) Config {
	c.WatchDirs = dedupNonEmpty(c.WatchDirs)

	if c.WatchDir == "" && len(c.WatchDirs) > 0 {
		c.WatchDir = c.WatchDirs[0]
	}
	if c.WatchDir != "" && (len(c.WatchDirs) == 0 || c.WatchDirs[0] != c.WatchDir) {
		c.WatchDirs = dedupNonEmpty(append([]string{c.WatchDir}, c.WatchDirs...))
	}
	if len(c.WatchDirs) > 0 {
		c.WatchDir = c.WatchDirs[0]
	}

	if c.Theme == "" {
		c.Theme = "system"
	}

	c.Profiles = migrateLegacy(c)
	c.Profiles = profile.EnsureDefaults(c.Profiles)

	return c
}

// assignProfileIDs mints a uuid for any profile saved without an explicit
// id, so a caller (CLI or future UI) can add a profile without having to
// invent a unique id itself.
func assignProfileIDs(profiles []profile.Profile) []profile.Profile {
	out := make([]profile.Profile, len(profiles))
	copy(out, profiles)
	for i, p := range out {
		if p.ID == "" {
			p.ID = uuid.NewString()
			out[i] = p
		}
	}
	return out
}

// dedupNonEmpty trims whitespace and resolves each entry to an absolute,
// cleaned path before deduping, so "/Downloads", " /Downloads", and
// "/Downloads/" all collapse to the same watchDirs entry.
func dedupNonEmpty(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		normalized, err := pathutil.Normalize(trimmed)
		if err != nil {
			normalized = trimmed
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}

// migrateLegacy synthesizes one profile per legacy include pattern when the
// config predates the profiles field: a config with no profiles but a
// non-empty prefix and include list gets one rename profile per pattern,
// using the legacy prefix and the default template.
func migrateLegacy(c Config) []profile.Profile {
	if len(c.Profiles) > 0 || c.Prefix == "" || len(c.Include) == 0 {
		return c.Profiles
	}

	out := make([]profile.Profile, 0, len(c.Include))
	for i, pattern := range c.Include {
		out = append(out, profile.Profile{
			ID:       fmt.Sprintf("legacy-%d", i),
			Name:     fmt.Sprintf("Legacy: %s", pattern),
			Enabled:  true,
			Pattern:  pattern,
			Template: "<prefix>_<datetime>",
			Prefix:   c.Prefix,
			Priority: i,
			Action:   profile.ActionRename,
		})
	}
	return out
}
