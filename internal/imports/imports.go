// Package imports implements the ImportGraphBuilder of spec.md §4.4:
// language-aware import/require/use parsing, resolved against a
// pre-seeded set of indexed repository paths. Grounded on the
// teacher's per-language extraction dispatch
// (internal/interfaces/indexer.go) generalized to imports instead of
// symbols.
package imports

import (
	"path"
	"regexp"
	"strings"

	"github.com/standardbeagle/ctxpack/internal/types"
)

// Builder resolves import literals to repository-relative paths. It
// must be seeded with the full set of indexed paths before use so
// resolution is an O(1) lookup (spec.md §4.4).
type Builder struct {
	fileIndex map[string]bool
}

// NewBuilder seeds the builder with allPaths, the full set of indexed
// repository-relative paths.
func NewBuilder(allPaths []string) *Builder {
	idx := make(map[string]bool, len(allPaths))
	for _, p := range allPaths {
		idx[p] = true
	}
	return &Builder{fileIndex: idx}
}

var stripSuffixes = []string{".ts", ".tsx", ".js", ".mjs"}

var importPatterns = map[types.Language][]*regexp.Regexp{
	types.LangJavaScript: {
		regexp.MustCompile(`import\s+(?:[\w*{}\s,]+\s+from\s+)?["']([^"']+)["']`),
		regexp.MustCompile(`require\(\s*["']([^"']+)["']\s*\)`),
	},
	types.LangTypeScript: {
		regexp.MustCompile(`import\s+(?:type\s+)?(?:[\w*{}\s,]+\s+from\s+)?["']([^"']+)["']`),
		regexp.MustCompile(`require\(\s*["']([^"']+)["']\s*\)`),
	},
	types.LangGo: {
		regexp.MustCompile(`^\s*"([^"]+)"\s*$`),
		regexp.MustCompile(`^\s*\w*\s*"([^"]+)"\s*$`),
	},
	types.LangPython: {
		regexp.MustCompile(`^\s*import\s+([\w.]+)`),
		regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import`),
	},
	types.LangRust: {
		regexp.MustCompile(`^\s*use\s+([\w:]+)`),
	},
	types.LangJava: {
		regexp.MustCompile(`^\s*import\s+(?:static\s+)?([\w.]+)\s*;`),
	},
	types.LangPHP: {
		regexp.MustCompile(`^\s*(?:require|require_once|include|include_once)\s*\(?\s*["']([^"']+)["']`),
		regexp.MustCompile(`^\s*use\s+([\w\\]+)\s*;`),
	},
	types.LangRuby: {
		regexp.MustCompile(`^\s*require(?:_relative)?\s+["']([^"']+)["']`),
	},
	types.LangC: {
		regexp.MustCompile(`^\s*#include\s*["<]([^">]+)[">]`),
	},
	types.LangCPP: {
		regexp.MustCompile(`^\s*#include\s*["<]([^">]+)[">]`),
	},
}

// Extract parses content for import/require/use directives and
// resolves each literal against the builder's file index.
func (b *Builder) Extract(sourcePath string, lang types.Language, content []byte) []types.ImportEdge {
	patterns := importPatterns[lang]
	if len(patterns) == 0 {
		return nil
	}

	var out []types.ImportEdge
	seen := make(map[string]bool)

	for _, line := range strings.Split(string(content), "\n") {
		for _, re := range patterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			literal := m[len(m)-1]
			if literal == "" || seen[literal] {
				continue
			}
			seen[literal] = true
			out = append(out, types.ImportEdge{
				SourcePath: sourcePath,
				TargetPath: b.resolve(sourcePath, literal),
			})
		}
	}
	return out
}

// resolve implements the four-step strategy of spec.md §4.4: strip
// known suffixes, try a relative-path join, try common extension
// completions, else leave the literal as an external import.
func (b *Builder) resolve(sourcePath, literal string) string {
	if !strings.HasPrefix(literal, ".") {
		// Not a relative import: leave as an external package identifier
		// unless it happens to exactly match an indexed path (e.g. a
		// bare Go import path that mirrors the repo's own module root).
		if b.fileIndex[literal] {
			return literal
		}
		return literal
	}

	stripped := literal
	for _, suf := range stripSuffixes {
		stripped = strings.TrimSuffix(stripped, suf)
	}

	dir := path.Dir(sourcePath)
	joined := path.Clean(path.Join(dir, stripped))

	if b.fileIndex[joined] {
		return joined
	}

	for _, suf := range stripSuffixes {
		if b.fileIndex[joined+suf] {
			return joined + suf
		}
		if b.fileIndex[path.Join(joined, "index"+suf)] {
			return path.Join(joined, "index"+suf)
		}
	}

	return literal
}
