package profile

import "github.com/dwrtz/namefixd/internal/nametemplate"

// Built-in default profiles that must appear in every valid config,
// matched by id and re-injected at load time if missing.
const (
	IDHeicConvert       = "heic-convert"
	IDScreenshots       = "screenshots"
	IDScreenRecordings  = "screen-recordings"
)

// Defaults returns the built-in profile set in priority order.
func Defaults() []Profile {
	return []Profile{
		{
			ID:       IDHeicConvert,
			Name:     "HEIC Convert",
			Enabled:  true,
			Pattern:  "*.heic",
			Template: nametemplate.DefaultTemplate,
			Priority: 0,
			Action:   ActionConvert,
		},
		{
			ID:       IDScreenshots,
			Name:     "Screenshots",
			Enabled:  true,
			Pattern:  "Screenshot*",
			Prefix:   "Screenshot",
			Template: nametemplate.DefaultTemplate,
			Priority: 1,
			Action:   ActionRename,
		},
		{
			ID:       IDScreenRecordings,
			Name:     "Screen Recordings",
			Enabled:  true,
			Pattern:  "Screen Recording*",
			Prefix:   "Screen_Recording",
			Template: nametemplate.DefaultTemplate,
			Priority: 2,
			Action:   ActionRename,
		},
	}
}

// DefaultIDs is the set of ids every config must contain.
func DefaultIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, p := range Defaults() {
		ids[p.ID] = true
	}
	return ids
}

// EnsureDefaults returns profiles with any missing built-in default
// re-injected (by id), preserving the caller's ordering otherwise.
func EnsureDefaults(profiles []Profile) []Profile {
	present := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		present[p.ID] = true
	}

	out := make([]Profile, len(profiles))
	copy(out, profiles)

	for _, def := range Defaults() {
		if !present[def.ID] {
			out = append(out, def)
		}
	}
	return out
}
