// Package discovery turns user-supplied glob patterns into the list of note
// files to process.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// NoteGlob is appended to patterns that name a directory.
const NoteGlob = "**/*.md"

// Filter applies gitignore-style include and exclude rules. A path matching
// an include rule is always kept; otherwise a path matching an exclude rule
// is dropped. Everything else is kept.
type Filter struct {
	inc *ignore.GitIgnore
	exc *ignore.GitIgnore
}

// NewFilter compiles include and exclude rules.
func NewFilter(include, exclude []string) (*Filter, error) {
	inc, err := ignore.CompileIgnoreLines(include...)
	if err != nil {
		return nil, fmt.Errorf("discovery: include rules: %w", err)
	}
	exc, err := ignore.CompileIgnoreLines(exclude...)
	if err != nil {
		return nil, fmt.Errorf("discovery: exclude rules: %w", err)
	}
	return &Filter{inc: inc, exc: exc}, nil
}

// Allows reports whether path passes the filter. A nil Filter allows all.
func (f *Filter) Allows(path string) bool {
	if f == nil {
		return true
	}
	if f.inc.MatchesPath(path) {
		return true
	}
	return !f.exc.MatchesPath(path)
}

// Expand replaces a leading "~" with the user's home directory.
func Expand(pattern string) (string, error) {
	if pattern != "~" && !strings.HasPrefix(pattern, "~/") {
		return pattern, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("discovery: expand %q: %w", pattern, err)
	}
	return filepath.Join(home, strings.TrimPrefix(pattern, "~")), nil
}

// Resolve expands a leading "~" in p and turns a directory into the
// markdown glob below it.
func Resolve(p string) (string, error) {
	p, err := Expand(strings.TrimSpace(p))
	if err != nil || p == "" {
		return p, err
	}
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		p = filepath.Join(p, NoteGlob)
	}
	return p, nil
}

// Roots returns the distinct fixed directory prefixes of resolved patterns:
// the directories a watcher must cover to see every future match.
func Roots(patterns []string) []string {
	seen := make(map[string]struct{})
	var roots []string
	for _, p := range patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
		base = filepath.FromSlash(base)
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}
		roots = append(roots, base)
	}
	sort.Strings(roots)
	return roots
}

// Match reports whether path matches any of the resolved patterns.
func Match(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.PathMatch(p, path); err == nil && ok {
			return true
		}
	}
	return false
}

// Glob expands patterns into a sorted, de-duplicated list of regular files
// accepted by f. Patterns support "**"; a pattern naming a directory
// matches the markdown files below it.
func Glob(patterns []string, f *Filter) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, p := range patterns {
		p, err := Resolve(p)
		if err != nil {
			return nil, err
		}
		if p == "" {
			continue
		}
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("discovery: glob %q: %w", p, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			info, err := os.Stat(m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if !f.Allows(m) {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// ErrOutsideRoots is returned by Confine for a pattern that could match
// files outside every allowed root.
var ErrOutsideRoots = errors.New("pattern outside the allowed roots")

// Confine resolves patterns and checks that each one can only match files
// below the roots of the allowed patterns. Patterns with ".." elements are
// rejected. The resolved, absolute patterns are returned.
func Confine(patterns, allowed []string) ([]string, error) {
	var roots []string
	for _, a := range allowed {
		r, err := absPattern(a)
		if err != nil {
			return nil, err
		}
		if r != "" {
			roots = append(roots, r)
		}
	}
	roots = Roots(roots)

	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if hasDotDot(p) {
			return nil, fmt.Errorf("discovery: %q: %w", p, ErrOutsideRoots)
		}
		r, err := absPattern(p)
		if err != nil {
			return nil, err
		}
		if r == "" {
			continue
		}
		base := Roots([]string{r})[0]
		if !under(base, roots) {
			return nil, fmt.Errorf("discovery: %q: %w", p, ErrOutsideRoots)
		}
		out = append(out, r)
	}
	return out, nil
}

func absPattern(p string) (string, error) {
	r, err := Resolve(p)
	if err != nil || r == "" {
		return r, err
	}
	abs, err := filepath.Abs(r)
	if err != nil {
		return "", fmt.Errorf("discovery: %q: %w", p, err)
	}
	return abs, nil
}

func hasDotDot(p string) bool {
	for _, el := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == filepath.Separator }) {
		if el == ".." {
			return true
		}
	}
	return false
}

func under(dir string, roots []string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
