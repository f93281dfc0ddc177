package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ignorePattern is one parsed line from .contextignore or a built-in
// exclude list. Matching follows gitignore semantics: negation (!),
// directory-only (trailing /), and root-anchored (leading /) patterns.
type ignorePattern struct {
	negate    bool
	directory bool
	anchored  bool
	raw       string
	compiled  *regexp.Regexp // nil for a literal (no-wildcard) pattern
}

// ignoreSet is an ordered list of patterns; later patterns override
// earlier ones, matching gitignore's last-match-wins semantics.
type ignoreSet struct {
	patterns []ignorePattern
}

func newIgnoreSet() *ignoreSet { return &ignoreSet{} }

// loadContextIgnore reads .contextignore from root, additive to
// whatever patterns are already in the set (spec.md §6).
func (s *ignoreSet) loadContextIgnore(root string) error {
	f, err := os.Open(filepath.Join(root, ".contextignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.add(line)
	}
	return scan.Err()
}

func (s *ignoreSet) add(line string) {
	p := ignorePattern{raw: line}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	p.raw = line
	if strings.ContainsAny(line, "*?[") {
		if re, err := regexp.Compile(globToRegex(line)); err == nil {
			p.compiled = re
		}
	}
	s.patterns = append(s.patterns, p)
}

func globToRegex(pattern string) string {
	re := regexp.QuoteMeta(pattern)
	re = strings.ReplaceAll(re, `\*\*/`, `(?:.*/)?`)
	re = strings.ReplaceAll(re, `\*\*`, `.*`)
	re = strings.ReplaceAll(re, `\*`, `[^/]*`)
	re = strings.ReplaceAll(re, `\?`, `.`)
	return "^" + re + "$"
}

// matches reports whether path (forward-slash, relative to root)
// should be excluded. isDir indicates whether path names a directory.
func (s *ignoreSet) matches(path string, isDir bool) bool {
	path = filepath.ToSlash(path)
	ignored := false
	for _, p := range s.patterns {
		if p.matchesPath(path, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

func (p *ignorePattern) matchesPath(path string, isDir bool) bool {
	if p.directory && !isDir {
		// A directory-only pattern also excludes files/dirs nested under it.
		parts := strings.Split(path, "/")
		for i := range parts {
			if p.matchSegment(strings.Join(parts[:i+1], "/"), parts[i]) {
				return true
			}
		}
		return false
	}

	base := filepath.Base(path)
	if p.anchored {
		return p.matchSegment(path, base)
	}
	if p.matchSegment(path, base) {
		return true
	}
	// Unanchored patterns may match any path segment, not just the base.
	parts := strings.Split(path, "/")
	for _, part := range parts {
		if p.matchSegment(part, part) {
			return true
		}
	}
	return false
}

func (p *ignorePattern) matchSegment(full, base string) bool {
	if p.compiled != nil {
		return p.compiled.MatchString(full) || p.compiled.MatchString(base)
	}
	return full == p.raw || base == p.raw
}

// builtinExcludes lists the directories and extensions spec.md §4.2
// requires to be excluded regardless of .contextignore content.
var builtinExcludes = []string{
	"node_modules/",
	".git/",
	"target/",
	"dist/",
	"build/",
	"vendor/",
	"*.min.js",
	"*.min.css",
}

func newBuiltinIgnoreSet() *ignoreSet {
	s := newIgnoreSet()
	for _, p := range builtinExcludes {
		s.add(p)
	}
	return s
}
