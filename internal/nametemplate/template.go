// Package nametemplate expands the `<...>` template tokens used by
// rename profiles into a concrete filename, and carries the fixed legacy
// format. The built-in default profiles live in package profile.
package nametemplate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DefaultTemplate is the legacy fixed naming format:
// `{prefix}_{YYYY-MM-DD}_{HH-MM-SS}`. The engine appends the source
// extension since the template has no `<ext>` token.
const DefaultTemplate = "<prefix>_<date>_<time>"

// Context supplies the values the template tokens are derived from.
type Context struct {
	Birthtime    time.Time
	OriginalPath string
	Ext          string
	Prefix       string
	// Counter is the value for a <counter> token. When it is nil, a
	// <counter> token is left in the output unexpanded. RenameService does
	// not set it; its collision resolution appends `_N` suffixes instead.
	Counter *int
}

var tokenPattern = regexp.MustCompile(`<([a-zA-Z]+)(?::([^>]+))?>`)

// Expand replaces every recognized token in tmpl with its value from ctx.
// Unknown tokens pass through literally. If tmpl contains no `<ext>` token,
// the source extension is appended to the result.
func Expand(tmpl string, ctx Context) string {
	hasExt := strings.Contains(tmpl, "<ext>")

	expanded := tokenPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		groups := tokenPattern.FindStringSubmatch(match)
		name, arg := groups[1], groups[2]
		if v, ok := resolveToken(name, arg, ctx); ok {
			return v
		}
		return match
	})

	if !hasExt {
		expanded += normalizedExt(ctx.Ext)
	}
	return expanded
}

func resolveToken(name, arg string, ctx Context) (string, bool) {
	switch strings.ToLower(name) {
	case "date":
		return ctx.Birthtime.Format("2006-01-02"), true
	case "time":
		return ctx.Birthtime.Format("15-04-05"), true
	case "datetime":
		return ctx.Birthtime.Format("2006-01-02") + "_" + ctx.Birthtime.Format("15-04-05"), true
	case "original":
		base := filepath.Base(ctx.OriginalPath)
		return strings.TrimSuffix(base, filepath.Ext(base)), true
	case "ext":
		return normalizedExt(ctx.Ext), true
	case "prefix":
		return sanitizePrefix(ctx.Prefix), true
	case "year":
		return ctx.Birthtime.Format("2006"), true
	case "month":
		return ctx.Birthtime.Format("01"), true
	case "day":
		return ctx.Birthtime.Format("02"), true
	case "hour":
		return ctx.Birthtime.Format("15"), true
	case "minute":
		return ctx.Birthtime.Format("04"), true
	case "second":
		return ctx.Birthtime.Format("05"), true
	case "counter":
		width := 3
		if arg != "" {
			if n, err := parsePositiveInt(arg); err == nil {
				width = n
			}
		}
		if ctx.Counter == nil {
			return "", false
		}
		return fmt.Sprintf("%0*d", width, *ctx.Counter), true
	case "upper", "lower", "slug":
		if arg == "" {
			return "", false
		}
		inner, ok := resolveToken(arg, "", ctx)
		if !ok {
			return "", false
		}
		return transform(strings.ToLower(name), inner), true
	default:
		return "", false
	}
}

func transform(kind, value string) string {
	switch kind {
	case "upper":
		return strings.ToUpper(value)
	case "lower":
		return strings.ToLower(value)
	case "slug":
		return slugify(value)
	default:
		return value
	}
}

var slugDisallowed = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(value string) string {
	lowered := strings.ToLower(value)
	slug := slugDisallowed.ReplaceAllString(lowered, "-")
	return strings.Trim(slug, "-")
}

func sanitizePrefix(prefix string) string {
	trimmed := strings.TrimSpace(prefix)
	return strings.ReplaceAll(trimmed, " ", "_")
}

func normalizedExt(ext string) string {
	if ext == "" {
		return ""
	}
	lowered := strings.ToLower(ext)
	if !strings.HasPrefix(lowered, ".") {
		lowered = "." + lowered
	}
	return lowered
}

func parsePositiveInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("non-positive width: %d", n)
	}
	return n, nil
}
