// Package rename generates the output filename for a matched profile and
// guards it against both on-disk collisions and concurrent in-flight
// operations reserving the same target.
package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/dwrtz/namefixd/internal/nametemplate"
	"github.com/dwrtz/namefixd/internal/profile"
)

// Reservation is a held claim on a target path. Callers MUST call Release
// once the operation that owns it has finished (success or failure).
type Reservation struct {
	Dir      string
	Filename string
}

// Path is the absolute target path this reservation holds.
func (r Reservation) Path() string {
	return filepath.Join(r.Dir, r.Filename)
}

// Service reserves rename targets so that two concurrent pipelines can
// never be handed the same destination path.
type Service struct {
	mu        sync.Mutex
	inFlight  map[string]struct{}
}

// New creates an empty RenameService.
func New() *Service {
	return &Service{inFlight: make(map[string]struct{})}
}

// TargetForProfile expands p's template against ctx to get a base filename,
// then reserves the first free, unoccupied slot for it: base, then
// `{name}_2{ext}`, `{name}_3{ext}`, ... A slot is free when it is neither
// already on disk nor already reserved by another in-flight operation.
func (s *Service) TargetForProfile(srcPath string, ctx nametemplate.Context, p profile.Profile) (Reservation, error) {
	dir := filepath.Dir(srcPath)
	base := nametemplate.Expand(p.Template, ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := base
	for n := 2; ; n++ {
		target := filepath.Join(dir, candidate)

		if _, reserved := s.inFlight[target]; !reserved {
			if _, err := os.Stat(target); os.IsNotExist(err) {
				s.inFlight[target] = struct{}{}
				return Reservation{Dir: dir, Filename: candidate}, nil
			}
		}

		candidate = withCounterSuffix(base, n)
		if n > 10000 {
			return Reservation{}, fmt.Errorf("could not find a free target for %s after %d attempts", srcPath, n)
		}
	}
}

func withCounterSuffix(base string, n int) string {
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%d%s", name, n, ext)
}

// Release frees a previously-held reservation. Callers reserve with
// TargetForProfile and must release in a defer so abandoned pipelines don't
// permanently squat on a target.
func (s *Service) Release(r Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, r.Path())
}

// idempotentPattern matches the default output shape:
// {prefix}_{YYYY-MM-DD}_{HH-MM-SS}[_N].{ext}
var idempotentPattern = regexp.MustCompile(`^.+_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}(_\d+)?\.[A-Za-z0-9]+$`)

// NeedsRenameForProfile reports whether basename still needs processing,
// i.e. it does NOT already look like the default template's output. This
// is what makes re-processing an already-renamed file a no-op.
func NeedsRenameForProfile(basename string, _ profile.Profile) bool {
	return !idempotentPattern.MatchString(basename)
}
