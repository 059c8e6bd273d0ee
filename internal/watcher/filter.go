package watcher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Filter decides which workspace paths auto-run cares about. Patterns match
// forward-slash paths relative to the root.
type Filter struct {
	root    string
	include []compiledPattern
	ignore  []compiledPattern
}

// NewFilter compiles include and ignore patterns. An empty include list
// matches every .php file.
func NewFilter(root string, include, ignore []string) (*Filter, error) {
	if len(include) == 0 {
		include = []string{"**/*.php"}
	}

	f := &Filter{root: filepath.Clean(root)}
	var err error
	if f.include, err = compile(include); err != nil {
		return nil, err
	}
	if f.ignore, err = compile(ignore); err != nil {
		return nil, err
	}
	return f, nil
}

func compile(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		out = append(out, compiledPattern{pattern: pattern, glob: g})
	}
	return out, nil
}

// Root returns the directory patterns are relative to.
func (f *Filter) Root() string {
	return f.root
}

// Match reports whether the file at path should trigger auto-run.
func (f *Filter) Match(path string) bool {
	rel, ok := f.relative(path)
	if !ok {
		return false
	}
	if f.ignored(rel) {
		return false
	}
	return matchesAny(rel, f.include)
}

// SkipDir reports whether a directory is excluded from watching.
func (f *Filter) SkipDir(path string) bool {
	rel, ok := f.relative(path)
	if !ok {
		return true
	}
	if rel == "." {
		return false
	}
	return f.ignored(rel)
}

func (f *Filter) relative(path string) (string, bool) {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func (f *Filter) ignored(rel string) bool {
	// Tool state is never interesting.
	if rel == ".phptdd" || strings.HasPrefix(rel, ".phptdd/") {
		return true
	}
	if matchesAny(rel, f.ignore) {
		return true
	}
	// "vendor" should match pattern "vendor/**"
	return matchesAny(rel+"/**", f.ignore)
}

// matchesAny also lets "**/x" patterns match x at the root, as users expect.
func matchesAny(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if !strings.HasPrefix(cp.pattern, "**/") {
				continue
			}
			if g, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/'); err == nil && g.Match(path) {
				return true
			}
		}
	}
	return false
}
