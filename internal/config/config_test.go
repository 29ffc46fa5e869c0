package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dwrtz/namefixd/internal/profile"
)

func TestGetWritesDefaultsWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := New(path, nil)

	cfg, err := s.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(cfg.Profiles) != len(profile.Defaults()) {
		t.Errorf("len(Profiles) = %d; want %d", len(cfg.Profiles), len(profile.Defaults()))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to be written: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %v; want 0600", info.Mode().Perm())
	}
}

func TestGetFallsBackToDefaultsWithoutOverwritingOnStructuralFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	bad := `{"profiles": [{"id": "x", "pattern": ""}]}`
	if err := os.WriteFile(path, []byte(bad), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(path, nil)
	cfg, err := s.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(cfg.Profiles) == 0 {
		t.Error("expected defaults to be returned in-memory")
	}

	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(onDisk) != bad {
		t.Error("expected invalid on-disk config to be left untouched")
	}
}

func TestSetDedupsWatchDirsAndEnforcesPrimary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := New(path, nil)

	cfg, err := s.Set(Overrides{WatchDirs: []string{"/a", "/b", "/a"}})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if len(cfg.WatchDirs) != 2 {
		t.Fatalf("len(WatchDirs) = %d; want 2", len(cfg.WatchDirs))
	}
	if cfg.WatchDir != cfg.WatchDirs[0] {
		t.Errorf("WatchDir = %q; want %q (WatchDirs[0])", cfg.WatchDir, cfg.WatchDirs[0])
	}
}

func TestSetPersistsAndReloadsAcrossStoreInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	s1 := New(path, nil)
	prefix := "MyPrefix"
	if _, err := s1.Set(Overrides{Prefix: &prefix}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	s2 := New(path, nil)
	cfg, err := s2.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cfg.Prefix != prefix {
		t.Errorf("Prefix = %q; want %q", cfg.Prefix, prefix)
	}
}

func TestOnChangeDeliversEagerlyThenOnSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := New(path, nil)
	if _, err := s.Get(); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	var seen []bool
	s.OnChange(func(c Config) { seen = append(seen, c.DryRun) })

	if len(seen) != 1 {
		t.Fatalf("expected eager delivery on subscribe, got %d calls", len(seen))
	}

	dryRun := true
	if _, err := s.Set(Overrides{DryRun: &dryRun}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if len(seen) != 2 || !seen[1] {
		t.Fatalf("seen = %v; want [false true]", seen)
	}
}

func TestMigrateLegacySynthesizesProfilesFromIncludePatterns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	legacy := Config{Prefix: "Old", Include: []string{"*.txt", "*.md"}}
	data, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(path, nil)
	cfg, err := s.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	foundLegacy := 0
	for _, p := range cfg.Profiles {
		if p.Prefix == "Old" {
			foundLegacy++
		}
	}
	if foundLegacy != 2 {
		t.Errorf("found %d legacy-migrated profiles; want 2", foundLegacy)
	}
	if len(cfg.Profiles) != 2+len(profile.Defaults()) {
		t.Errorf("len(Profiles) = %d; want migrated + defaults", len(cfg.Profiles))
	}
}

func TestSetRejectsInvalidProfileAction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := New(path, nil)

	bad := []profile.Profile{{ID: "x", Pattern: "*.png", Action: profile.Action("bogus")}}
	if _, err := s.Set(Overrides{Profiles: bad}); err == nil {
		t.Error("expected error for invalid profile action")
	}
}
