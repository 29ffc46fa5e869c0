// Package namefix is the orchestrator: it owns the watcher supervisor, the
// profile routing, and the rename/convert/trash pipeline, and is the one
// component every UI (CLI, tray, TUI) sits on top of.
package namefix

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dwrtz/namefixd/internal/config"
	"github.com/dwrtz/namefixd/internal/convert"
	"github.com/dwrtz/namefixd/internal/eventbus"
	"github.com/dwrtz/namefixd/internal/fssafe"
	"github.com/dwrtz/namefixd/internal/journal"
	"github.com/dwrtz/namefixd/internal/nametemplate"
	"github.com/dwrtz/namefixd/internal/pathutil"
	"github.com/dwrtz/namefixd/internal/profile"
	"github.com/dwrtz/namefixd/internal/rename"
	"github.com/dwrtz/namefixd/internal/trash"
	"github.com/dwrtz/namefixd/internal/watch"
)

// lifecycle states
type state int

const (
	stateUninitialized state = iota
	stateInitialized
	stateRunning
	stateStopped
)

// HealthCheckInterval is how often the health monitor inspects active
// watchers. Tunable for tests.
var HealthCheckInterval = 30 * time.Second

// MaxRestartAttempts is how many times in a row a directory's watcher may
// fail (a failed health check, then each failed restart) before the health
// monitor gives up on that directory permanently. A successful restart
// resets the count.
var MaxRestartAttempts = 3

// Status is the public snapshot returned by GetStatus. The event published
// on eventbus.KeyStatus is an eventbus.StatusEvent carrying only Running and
// Directories (as WatchedDirs); DryRun and LaunchOnLogin are not part of it.
type Status struct {
	Running       bool
	Directories   []string
	DryRun        bool
	LaunchOnLogin bool
}

// Service is the orchestrator. Zero value is not usable; call Init first.
type Service struct {
	mu    sync.Mutex
	state state

	cfg     *config.Store
	bus     *eventbus.Bus
	journal *journal.Store
	rename  *rename.Service
	convert convert.Service
	trash   trash.Service
	logger  *log.Logger

	dirs pathutil.Dirs

	running bool

	watchersMu sync.Mutex // serializes syncWatchers; a FIFO-ish single-holder lock
	watchers   map[string]*watch.Watcher
	failures   map[string]int
	permaDead  map[string]bool

	healthDone chan struct{}
}

// Deps lets callers substitute the conversion/trash backends (e.g. for
// tests) and the logger. Directories are always resolved by
// pathutil.Resolve in Init.
type Deps struct {
	Convert convert.Service
	Trash   trash.Service
	Logger  *log.Logger
}

// New constructs an uninitialized Service.
func New(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[namefix] ", log.LstdFlags)
	}
	return &Service{
		state:     stateUninitialized,
		bus:       eventbus.New(logger),
		rename:    rename.New(),
		convert:   deps.Convert,
		trash:     deps.Trash,
		logger:    logger,
		watchers:  make(map[string]*watch.Watcher),
		failures:  make(map[string]int),
		permaDead: make(map[string]bool),
	}
}

// On subscribes handler to key's events. See eventbus.Key for the four
// topics. Returns an unsubscribe function.
func (s *Service) On(key eventbus.Key, handler eventbus.Handler) func() {
	return s.bus.On(key, handler)
}

// Init resolves directories, opens the config and journal stores, and
// applies any partial overrides. Idempotent: a second call only re-applies
// overrides.
func (s *Service) Init(overrides config.Overrides) error {
	s.mu.Lock()
	if s.state == stateUninitialized {
		dirs, err := pathutil.Resolve()
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("resolve directories: %w", err)
		}
		s.dirs = dirs

		if s.convert == nil {
			s.convert = convert.NewExecService("magick", []string{"{src}", "{dest}"})
		}
		if s.trash == nil {
			s.trash = trash.New(filepath.Join(dirs.State, "trash"))
		}

		s.cfg = config.New(filepath.Join(dirs.Config, "config.json"), s.logger)
		s.journal = journal.New(filepath.Join(dirs.State, "journal.ndjson"), s.logger)
		s.cfg.OnChange(func(c config.Config) {
			s.bus.Publish(eventbus.KeyConfig, c)
		})

		s.state = stateInitialized
	}
	s.mu.Unlock()

	if _, err := s.cfg.Set(overrides); err != nil {
		return fmt.Errorf("apply init overrides: %w", err)
	}
	return nil
}

func (s *Service) requireInitialized() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateUninitialized {
		return errors.New("namefix: Init must be called before use")
	}
	return nil
}

// Start transitions to running and syncs watchers against config.watchDirs.
func (s *Service) Start() error {
	if err := s.requireInitialized(); err != nil {
		return err
	}
	s.mu.Lock()
	s.running = true
	s.state = stateRunning
	s.mu.Unlock()

	if err := s.syncWatchers(); err != nil {
		return err
	}
	s.startHealthMonitor()
	s.emitStatus()
	return nil
}

// Stop cancels the health-check timer and tears down all watchers.
func (s *Service) Stop() error {
	if err := s.requireInitialized(); err != nil {
		return err
	}
	s.mu.Lock()
	s.running = false
	s.state = stateStopped
	s.mu.Unlock()

	s.stopHealthMonitor()
	err := s.syncWatchers()
	s.emitStatus()
	return err
}

// ToggleRunning flips between Start and Stop.
func (s *Service) ToggleRunning() error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if running {
		return s.Stop()
	}
	return s.Start()
}

// SetConfig merges overrides into the persisted config and resyncs
// watchers if running.
func (s *Service) SetConfig(o config.Overrides) (config.Config, error) {
	if err := s.requireInitialized(); err != nil {
		return config.Config{}, err
	}
	cfg, err := s.cfg.Set(o)
	if err != nil {
		return config.Config{}, err
	}
	if err := s.syncWatchers(); err != nil {
		s.logger.Printf("sync watchers after config change: %v", err)
	}
	s.emitStatus()
	return cfg, nil
}

// SetDryRun is a convenience wrapper around SetConfig.
func (s *Service) SetDryRun(v bool) (config.Config, error) {
	return s.SetConfig(config.Overrides{DryRun: &v})
}

// SetLaunchOnLogin is a convenience wrapper around SetConfig.
func (s *Service) SetLaunchOnLogin(v bool) (config.Config, error) {
	return s.SetConfig(config.Overrides{LaunchOnLogin: &v})
}

// GetProfiles returns the current profile list.
func (s *Service) GetProfiles() ([]profile.Profile, error) {
	cfg, err := s.cfg.Get()
	if err != nil {
		return nil, err
	}
	return cfg.Profiles, nil
}

// GetProfile returns the profile with the given id, or an error if absent.
func (s *Service) GetProfile(id string) (profile.Profile, error) {
	profiles, err := s.GetProfiles()
	if err != nil {
		return profile.Profile{}, err
	}
	for _, p := range profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return profile.Profile{}, fmt.Errorf("profile %q not found", id)
}

// SetProfile upserts p by id.
func (s *Service) SetProfile(p profile.Profile) (config.Config, error) {
	profiles, err := s.GetProfiles()
	if err != nil {
		return config.Config{}, err
	}
	found := false
	for i, existing := range profiles {
		if existing.ID == p.ID {
			profiles[i] = p
			found = true
			break
		}
	}
	if !found {
		profiles = append(profiles, p)
	}
	return s.SetConfig(config.Overrides{Profiles: profiles})
}

// DeleteProfile removes the profile with id (a no-op if absent; built-in
// defaults are re-injected by the config store regardless).
func (s *Service) DeleteProfile(id string) (config.Config, error) {
	profiles, err := s.GetProfiles()
	if err != nil {
		return config.Config{}, err
	}
	out := make([]profile.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return s.SetConfig(config.Overrides{Profiles: out})
}

// ToggleProfile flips Enabled on the named profile.
func (s *Service) ToggleProfile(id string) (config.Config, error) {
	p, err := s.GetProfile(id)
	if err != nil {
		return config.Config{}, err
	}
	p.Enabled = !p.Enabled
	return s.SetProfile(p)
}

// ReorderProfiles assigns Priority by position in ids (ids not present are
// appended after, keeping their relative order).
func (s *Service) ReorderProfiles(ids []string) (config.Config, error) {
	profiles, err := s.GetProfiles()
	if err != nil {
		return config.Config{}, err
	}
	byID := make(map[string]profile.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	out := make([]profile.Profile, 0, len(profiles))
	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		if p, ok := byID[id]; ok {
			p.Priority = i
			out = append(out, p)
			seen[id] = true
		}
	}
	next := len(out)
	for _, p := range profiles {
		if !seen[p.ID] {
			p.Priority = next
			out = append(out, p)
			next++
		}
	}
	return s.SetConfig(config.Overrides{Profiles: out})
}

// AddWatchDir appends dir (normalized) to watchDirs if not already present.
func (s *Service) AddWatchDir(dir string) (config.Config, error) {
	normalized, err := pathutil.Normalize(dir)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := s.cfg.Get()
	if err != nil {
		return config.Config{}, err
	}
	dirs := append(append([]string{}, cfg.WatchDirs...), normalized)
	return s.SetConfig(config.Overrides{WatchDirs: dirs})
}

// RemoveWatchDir removes dir from watchDirs.
func (s *Service) RemoveWatchDir(dir string) (config.Config, error) {
	normalized, err := pathutil.Normalize(dir)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := s.cfg.Get()
	if err != nil {
		return config.Config{}, err
	}
	out := make([]string, 0, len(cfg.WatchDirs))
	for _, d := range cfg.WatchDirs {
		if d != normalized {
			out = append(out, d)
		}
	}
	return s.SetConfig(config.Overrides{WatchDirs: out})
}

// SetPrimaryWatchDir moves dir to the front of watchDirs.
func (s *Service) SetPrimaryWatchDir(dir string) (config.Config, error) {
	normalized, err := pathutil.Normalize(dir)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := s.cfg.Get()
	if err != nil {
		return config.Config{}, err
	}
	out := []string{normalized}
	for _, d := range cfg.WatchDirs {
		if d != normalized {
			out = append(out, d)
		}
	}
	return s.SetConfig(config.Overrides{WatchDir: &normalized, WatchDirs: out})
}

// SetWatchDirs replaces watchDirs wholesale.
func (s *Service) SetWatchDirs(dirs []string) (config.Config, error) {
	normalized := make([]string, 0, len(dirs))
	for _, d := range dirs {
		n, err := pathutil.Normalize(d)
		if err != nil {
			return config.Config{}, err
		}
		normalized = append(normalized, n)
	}
	return s.SetConfig(config.Overrides{WatchDirs: normalized})
}

// GetStatus returns the current snapshot.
func (s *Service) GetStatus() (Status, error) {
	cfg, err := s.cfg.Get()
	if err != nil {
		return Status{}, err
	}
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	s.watchersMu.Lock()
	active := len(s.watchers)
	s.watchersMu.Unlock()

	return Status{
		Running:       running && active > 0,
		Directories:   cfg.WatchDirs,
		DryRun:        cfg.DryRun,
		LaunchOnLogin: cfg.LaunchOnLogin,
	}, nil
}

// UndoLast pops and reverses the most recent journal entry.
func (s *Service) UndoLast() (journal.UndoResult, error) {
	if err := s.requireInitialized(); err != nil {
		return journal.UndoResult{}, err
	}
	return s.journal.Undo()
}

func (s *Service) emitStatus() {
	status, err := s.GetStatus()
	if err != nil {
		s.logger.Printf("emit status: %v", err)
		return
	}
	s.bus.Publish(eventbus.KeyStatus, eventbus.StatusEvent{
		Running:     status.Running,
		WatchedDirs: status.Directories,
	})
}

func (s *Service) toast(level, message string) {
	s.bus.Publish(eventbus.KeyToast, eventbus.ToastEvent{Level: level, Message: message})
}

// syncWatchers is serialized by watchersMu so overlapping config changes
// are applied sequentially, never concurrently.
func (s *Service) syncWatchers() error {
	s.watchersMu.Lock()
	defer s.watchersMu.Unlock()

	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	desired := map[string]bool{}
	if running {
		cfg, err := s.cfg.Get()
		if err != nil {
			return err
		}
		for _, d := range cfg.WatchDirs {
			desired[d] = true
		}
	}

	for dir, w := range s.watchers {
		if !desired[dir] {
			if err := w.Stop(); err != nil {
				s.logger.Printf("stop watcher %s: %v", dir, err)
			}
			delete(s.watchers, dir)
		}
	}

	for dir := range desired {
		if _, exists := s.watchers[dir]; exists {
			continue
		}
		if s.permaDead[dir] {
			continue
		}
		if err := s.startWatcher(dir); err != nil {
			s.logger.Printf("start watcher %s: %v", dir, err)
			s.toast("warn", fmt.Sprintf("could not start watcher for %s: %v", dir, err))
		}
	}

	return nil
}

func (s *Service) startWatcher(dir string) error {
	w := watch.New(dir, s.logger)
	w.OnError(func(dir string, err error) {
		s.logger.Printf("watcher error on %s: %v", dir, err)
		s.toast("warn", fmt.Sprintf("watcher error on %s: %v", dir, err))
	})

	if err := w.Start(func(ev watch.Event) {
		s.handleWatchEvent(ev)
	}); err != nil {
		return err
	}

	s.watchers[dir] = w
	return nil
}

func (s *Service) startHealthMonitor() {
	s.mu.Lock()
	if s.healthDone != nil {
		s.mu.Unlock()
		return
	}
	done := make(chan struct{})
	s.healthDone = done
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(HealthCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runHealthCheck()
			case <-done:
				return
			}
		}
	}()
}

func (s *Service) stopHealthMonitor() {
	s.mu.Lock()
	done := s.healthDone
	s.healthDone = nil
	s.mu.Unlock()
	if done != nil {
		close(done)
	}
}

func (s *Service) runHealthCheck() {
	cfg, err := s.cfg.Get()
	if err != nil {
		s.logger.Printf("health check: read config: %v", err)
		return
	}
	desired := make(map[string]bool, len(cfg.WatchDirs))
	for _, d := range cfg.WatchDirs {
		desired[d] = true
	}

	s.watchersMu.Lock()
	unhealthy := make([]string, 0)
	for dir, w := range s.watchers {
		if !w.IsHealthy() || !pathutil.DirAccessible(dir) {
			unhealthy = append(unhealthy, dir)
		}
	}
	// A directory whose last restart failed has no watcher left to probe;
	// retry it until it recovers or reaches MaxRestartAttempts.
	for dir, n := range s.failures {
		if _, active := s.watchers[dir]; !active && n > 0 && desired[dir] && !s.permaDead[dir] {
			unhealthy = append(unhealthy, dir)
		}
	}
	s.watchersMu.Unlock()

	for _, dir := range unhealthy {
		s.restartWatcher(dir)
	}
}

func (s *Service) restartWatcher(dir string) {
	s.watchersMu.Lock()
	defer s.watchersMu.Unlock()

	if w, ok := s.watchers[dir]; ok {
		w.Stop()
		delete(s.watchers, dir)
	}

	s.failures[dir]++
	if s.failures[dir] >= MaxRestartAttempts {
		s.permaDead[dir] = true
		s.toast("error", fmt.Sprintf("watcher for %s failed %d times, giving up", dir, s.failures[dir]))
		return
	}

	if err := s.startWatcher(dir); err != nil {
		s.logger.Printf("restart watcher %s: %v", dir, err)
		return
	}
	s.failures[dir] = 0
}

// handleWatchEvent is the entry point for step 1-5 of the event pipeline:
// match -> route by action -> execute -> emit.
func (s *Service) handleWatchEvent(ev watch.Event) {
	basename := filepath.Base(ev.Path)

	cfg, err := s.cfg.Get()
	if err != nil {
		s.logger.Printf("read config for event %s: %v", ev.Path, err)
		return
	}

	matcher := profile.Build(cfg.Profiles)
	for _, ce := range matcher.CompileErrors() {
		s.toast("warn", fmt.Sprintf("profile %s: invalid pattern: %v", ce.ID, ce.Err))
	}

	p := matcher.Match(basename)
	if p == nil {
		s.handleLegacyPipeline(ev, cfg, basename)
		return
	}

	switch p.EffectiveAction() {
	case profile.ActionConvert:
		s.runConvertPipeline(ev, *p, cfg, true)
	case profile.ActionRenameConvert:
		s.runRenameConvertPipeline(ev, *p, cfg)
	default:
		s.runRenamePipeline(ev, *p, cfg)
	}
}

// handleLegacyPipeline is the fallback path for configs whose legacy
// include/exclude patterns have not yet produced a matching profile —
// preserved purely for migration compatibility.
func (s *Service) handleLegacyPipeline(ev watch.Event, cfg config.Config, basename string) {
	if len(cfg.Include) == 0 {
		return
	}
	for _, pattern := range cfg.Include {
		matched, err := matchesGlob(pattern, basename)
		if err != nil || !matched {
			continue
		}
		for _, exclude := range cfg.Exclude {
			if excluded, _ := matchesGlob(exclude, basename); excluded {
				return
			}
		}
		legacy := profile.Profile{
			ID:       "legacy-fallback",
			Pattern:  pattern,
			Template: nametemplate.DefaultTemplate,
			Prefix:   cfg.Prefix,
			Action:   profile.ActionRename,
		}
		s.runRenamePipeline(ev, legacy, cfg)
		return
	}
}

func (s *Service) fileEvent(ev watch.Event, profileID, action string) eventbus.FileEvent {
	return eventbus.FileEvent{
		Path:      ev.Path,
		Directory: ev.Dir,
		ProfileID: profileID,
		Action:    action,
		Timestamp: time.UnixMilli(ev.MtimeMs),
	}
}

func (s *Service) runRenamePipeline(ev watch.Event, p profile.Profile, cfg config.Config) {
	basename := filepath.Base(ev.Path)

	if !rename.NeedsRenameForProfile(basename, p) {
		fe := s.fileEvent(ev, p.ID, "skipped")
		s.bus.Publish(eventbus.KeyFile, fe)
		return
	}

	ctx := nametemplate.Context{
		Birthtime:    time.UnixMilli(ev.BirthtimeMs),
		OriginalPath: ev.Path,
		Ext:          filepath.Ext(ev.Path),
		Prefix:       p.Prefix,
	}

	reservation, err := s.rename.TargetForProfile(ev.Path, ctx, p)
	if err != nil {
		fe := s.fileEvent(ev, p.ID, "error")
		fe.Err = err
		s.bus.Publish(eventbus.KeyFile, fe)
		return
	}
	defer s.rename.Release(reservation)

	target := reservation.Path()

	if cfg.DryRun {
		fe := s.fileEvent(ev, p.ID, "preview")
		fe.DestPath = target
		fe.DryRun = true
		s.bus.Publish(eventbus.KeyFile, fe)
		return
	}

	if !waitForSource(ev.Path) {
		s.logger.Printf("source %s disappeared before rename", ev.Path)
		return
	}

	if err := fssafe.AtomicRename(ev.Path, target); err != nil {
		fe := s.fileEvent(ev, p.ID, "error")
		fe.Err = err
		s.bus.Publish(eventbus.KeyFile, fe)
		return
	}

	if err := s.journal.Record(ev.Path, target); err != nil {
		s.logger.Printf("record journal entry %s -> %s: %v", ev.Path, target, err)
	}

	fe := s.fileEvent(ev, p.ID, "applied")
	fe.DestPath = target
	s.bus.Publish(eventbus.KeyFile, fe)
}

func (s *Service) runConvertPipeline(ev watch.Event, p profile.Profile, cfg config.Config, trashAfter bool) {
	ext := filepath.Ext(ev.Path)
	if !s.convert.CanConvert(ext) {
		fe := s.fileEvent(ev, p.ID, "skipped")
		s.bus.Publish(eventbus.KeyFile, fe)
		return
	}

	if cfg.DryRun {
		base := strings.TrimSuffix(filepath.Base(ev.Path), ext)
		fe := s.fileEvent(ev, p.ID, "preview")
		fe.DestPath = filepath.Join(filepath.Dir(ev.Path), base+".jpeg")
		fe.Format = "jpeg"
		fe.DryRun = true
		s.bus.Publish(eventbus.KeyFile, fe)
		return
	}

	result, err := s.convert.Convert(context.Background(), ev.Path, convert.Options{OutputFormat: "jpeg"})
	if err != nil {
		fe := s.fileEvent(ev, p.ID, "convert-error")
		fe.Err = err
		s.bus.Publish(eventbus.KeyFile, fe)
		return
	}

	if err := s.journal.Record(ev.Path, result.DestPath); err != nil {
		s.logger.Printf("record journal entry %s -> %s: %v", ev.Path, result.DestPath, err)
	}

	fe := s.fileEvent(ev, p.ID, "converted")
	fe.DestPath = result.DestPath
	fe.Format = result.Format
	s.bus.Publish(eventbus.KeyFile, fe)

	if !trashAfter {
		return
	}

	trashResult, err := s.trash.MoveToTrash(ev.Path)
	if err != nil || !trashResult.Success {
		reason := trashResult.Error
		if err != nil {
			reason = err.Error()
		}
		s.toast("warn", fmt.Sprintf("could not trash original %s: %s", ev.Path, reason))
		return
	}

	trashedEvent := s.fileEvent(ev, p.ID, "trashed")
	trashedEvent.DestPath = result.DestPath
	trashedEvent.Format = result.Format
	s.bus.Publish(eventbus.KeyFile, trashedEvent)
}

func (s *Service) runRenameConvertPipeline(ev watch.Event, p profile.Profile, cfg config.Config) {
	ext := filepath.Ext(ev.Path)
	if !s.convert.CanConvert(ext) {
		fe := s.fileEvent(ev, p.ID, "skipped")
		s.bus.Publish(eventbus.KeyFile, fe)
		return
	}

	if cfg.DryRun {
		ctx := nametemplate.Context{Birthtime: time.UnixMilli(ev.BirthtimeMs), OriginalPath: ev.Path, Ext: ".jpeg", Prefix: p.Prefix}
		target := nametemplate.Expand(p.Template, ctx)
		fe := s.fileEvent(ev, p.ID, "preview")
		fe.DestPath = filepath.Join(filepath.Dir(ev.Path), target)
		fe.Format = "jpeg"
		fe.DryRun = true
		s.bus.Publish(eventbus.KeyFile, fe)
		return
	}

	converted, err := s.convert.Convert(context.Background(), ev.Path, convert.Options{OutputFormat: "jpeg"})
	if err != nil {
		fe := s.fileEvent(ev, p.ID, "convert-error")
		fe.Err = err
		s.bus.Publish(eventbus.KeyFile, fe)
		return
	}

	convertedEvent := s.fileEvent(ev, p.ID, "converted")
	convertedEvent.DestPath = converted.DestPath
	convertedEvent.Format = converted.Format
	s.bus.Publish(eventbus.KeyFile, convertedEvent)

	info, err := os.Stat(converted.DestPath)
	if err != nil {
		s.logger.Printf("stat converted output %s: %v", converted.DestPath, err)
		return
	}
	ctx := nametemplate.Context{
		Birthtime:    info.ModTime(),
		OriginalPath: converted.DestPath,
		Ext:          filepath.Ext(converted.DestPath),
		Prefix:       p.Prefix,
	}

	reservation, err := s.rename.TargetForProfile(converted.DestPath, ctx, p)
	if err != nil {
		fe := s.fileEvent(ev, p.ID, "error")
		fe.Err = err
		s.bus.Publish(eventbus.KeyFile, fe)
		return
	}
	defer s.rename.Release(reservation)

	target := reservation.Path()
	if err := fssafe.AtomicRename(converted.DestPath, target); err != nil {
		fe := s.fileEvent(ev, p.ID, "error")
		fe.Err = err
		s.bus.Publish(eventbus.KeyFile, fe)
		return
	}

	if err := s.journal.Record(converted.DestPath, target); err != nil {
		s.logger.Printf("record journal entry %s -> %s: %v", converted.DestPath, target, err)
	}

	appliedEvent := s.fileEvent(ev, p.ID, "applied")
	appliedEvent.DestPath = target
	s.bus.Publish(eventbus.KeyFile, appliedEvent)

	trashResult, err := s.trash.MoveToTrash(ev.Path)
	if err != nil || !trashResult.Success {
		reason := trashResult.Error
		if err != nil {
			reason = err.Error()
		}
		s.toast("warn", fmt.Sprintf("could not trash original %s: %s", ev.Path, reason))
		return
	}
	trashedEvent := s.fileEvent(ev, p.ID, "trashed")
	trashedEvent.DestPath = target
	s.bus.Publish(eventbus.KeyFile, trashedEvent)
}

// waitForSource polls for up to ~900ms (150ms steps) for path to still
// exist, returning false if it disappeared before a rename could be
// attempted (another actor moved or deleted it first).
func waitForSource(path string) bool {
	const step = 150 * time.Millisecond
	const attempts = 6
	for i := 0; i < attempts; i++ {
		if _, err := os.Stat(path); err == nil {
			return true
		}
		time.Sleep(step)
	}
	_, err := os.Stat(path)
	return err == nil
}

func matchesGlob(pattern, basename string) (bool, error) {
	return filepath.Match(strings.ToLower(pattern), strings.ToLower(basename))
}
