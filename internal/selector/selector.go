// Package selector implements the EntrySelector component (spec §4.5):
// include/exclude glob sets with a case-folding policy and a directory_stop
// policy, applied to entry names.
//
// No teacher generation has entry selection; grounded on
// github.com/bmatcuk/doublestar/v4 (sourced from elliotnunn-BeHierarchic's
// go.mod), which natively implements the directory_stop=true semantics the
// spec calls for by default: `**` crosses `/`, `*`/`?` do not. The
// directory_stop=false case (a bare `*` crossing `/` too) has no doublestar
// flag of its own, so Options.CrossDirectory gets there by rewriting `*` to
// `**` before compiling -- still doublestar doing the actual matching, just
// fed a widened pattern.
package selector

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Options configures a Selector.
type Options struct {
	// CaseSensitive controls whether patterns and names are compared as-is (true) or both lower-cased (false).
	CaseSensitive bool

	// CrossDirectory widens every "*" in a pattern to "**" before compiling it, so a single star crosses "/"
	// the same way doublestar's "**" already does (spec §4.5's directory_stop=false case). The default, false,
	// keeps doublestar's native directory_stop=true behaviour: "*"/"?" stop at "/", only an explicit "**"
	// crosses it.
	CrossDirectory bool
}

// Selector implements spec §4.5's accept predicate:
//
//	accept(name) = (include empty OR any include matches name) AND no exclude matches name
type Selector struct {
	include []string
	exclude []string
	opts    Options
}

// New compiles include/exclude glob sets. Patterns are validated eagerly; an invalid pattern is dropped rather
// than causing every subsequent match to error, since a single bad glob should not make the entire selection
// predicate unusable.
func New(include, exclude []string, opts Options) *Selector {
	s := &Selector{opts: opts}
	s.include = compileValid(include, opts)
	s.exclude = compileValid(exclude, opts)
	return s
}

func compileValid(patterns []string, opts Options) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !opts.CaseSensitive {
			p = strings.ToLower(p)
		}
		if opts.CrossDirectory {
			p = widenStars(p)
		}
		if !doublestar.ValidatePattern(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// widenStars promotes every run of one or more "*" outside of a "[...]" character class to "**", leaving "?"
// and literal characters untouched.
func widenStars(pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	inClass := false

	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; {
		case r == '[' && !inClass:
			inClass = true
			b.WriteRune(r)
		case r == ']' && inClass:
			inClass = false
			b.WriteRune(r)
		case r == '*' && !inClass:
			j := i
			for j < len(runes) && runes[j] == '*' {
				j++
			}
			b.WriteString("**")
			i = j - 1
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Accept applies the predicate of spec §4.5 to name. Directory entries (names ending in "/") are never matched
// except by patterns that themselves end with "/" or "**" -- doublestar.Match already treats a trailing "/" in
// the pattern literally and "**" crosses directory boundaries, so this falls out of the library without extra
// casing, matching the spec's described exemption.
func (s *Selector) Accept(name string) bool {
	cmp := name
	if !s.opts.CaseSensitive {
		cmp = strings.ToLower(name)
	}

	if len(s.include) > 0 && !anyMatch(s.include, cmp) {
		return false
	}

	return !anyMatch(s.exclude, cmp)
}

func anyMatch(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
