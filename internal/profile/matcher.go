package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dlclark/regexp2"
)

// CompileError records why a configured profile was dropped at matcher
// build time (currently: regex profiles whose pattern fails to compile).
type CompileError struct {
	ID  string
	Err error
}

type compiledProfile struct {
	profile Profile
	test    func(basename string) bool
}

// Matcher is a priority-ordered, first-match-wins set of compiled profile
// tests built from a profile list.
type Matcher struct {
	compiled []compiledProfile
	errors   []CompileError
}

// Build filters profiles to enabled ones, sorts them ascending by priority
// (stable), compiles each pattern (regexp2 when IsRegex, else a
// case-insensitive glob via doublestar), and skips any whose regex fails to
// compile.
func Build(profiles []Profile) *Matcher {
	enabled := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})

	m := &Matcher{}
	for _, p := range enabled {
		test, err := compileTest(p)
		if err != nil {
			m.errors = append(m.errors, CompileError{ID: p.ID, Err: err})
			continue
		}
		m.compiled = append(m.compiled, compiledProfile{profile: p, test: test})
	}
	return m
}

func compileTest(p Profile) (func(string) bool, error) {
	if p.IsRegex {
		re, err := regexp2.Compile(p.Pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("compile regex pattern %q: %w", p.Pattern, err)
		}
		return func(basename string) bool {
			ok, _ := re.MatchString(basename)
			return ok
		}, nil
	}

	pattern := strings.ToLower(p.Pattern)
	return func(basename string) bool {
		matched, err := doublestar.Match(pattern, strings.ToLower(basename))
		return err == nil && matched
	}, nil
}

// Match returns the first (by priority) profile whose test passes, or nil.
// Dotfiles never match.
func (m *Matcher) Match(basename string) *Profile {
	if strings.HasPrefix(basename, ".") {
		return nil
	}
	for _, c := range m.compiled {
		if c.test(basename) {
			p := c.profile
			return &p
		}
	}
	return nil
}

// Test reports whether any profile matches basename.
func (m *Matcher) Test(basename string) bool {
	return m.Match(basename) != nil
}

// CompileErrors returns the profiles dropped at build time because their
// regex failed to compile, for surfacing as a toast.
func (m *Matcher) CompileErrors() []CompileError {
	return m.errors
}
