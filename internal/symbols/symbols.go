// Package symbols implements the SymbolExtractor of spec.md §4.3: a
// language-dispatched, regex-driven scanner recognizing class,
// interface/trait, function, method, and top-level constant
// definitions. Per spec.md §9 this is deliberately heuristic rather
// than AST-based — the teacher's own tree-sitter grammars
// (smacker/go-tree-sitter, tree-sitter/*) are dropped for this
// component; see DESIGN.md. The per-language dispatch mirrors the
// teacher's interface-driven indexer (internal/interfaces/indexer.go)
// generalized from one compiled-grammar-per-language table to one
// handwritten regex set per language.
package symbols

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/standardbeagle/ctxpack/internal/types"
)

// Extractor yields SymbolRecords for one file's contents. On parse
// failure it returns whatever it already accumulated; it has no error
// result — extraction never raises (spec.md §4.3).
type Extractor interface {
	Extract(path string, content []byte) []types.SymbolRecord
}

// ForLanguage returns the Extractor for lang, or a no-op extractor
// that yields nothing for an unrecognized language.
func ForLanguage(lang types.Language) Extractor {
	if e, ok := extractors[lang]; ok {
		return e
	}
	return noopExtractor{}
}

type noopExtractor struct{}

func (noopExtractor) Extract(string, []byte) []types.SymbolRecord { return nil }

var extractors = map[types.Language]Extractor{
	types.LangGo:         &regexExtractor{rules: goRules},
	types.LangJavaScript: &regexExtractor{rules: jsRules},
	types.LangTypeScript: &regexExtractor{rules: jsRules},
	types.LangPython:     &regexExtractor{rules: pythonRules, indentBased: true},
	types.LangRust:       &regexExtractor{rules: rustRules},
	types.LangJava:       &regexExtractor{rules: javaRules},
	types.LangPHP:        &regexExtractor{rules: phpRules},
	types.LangRuby:       &regexExtractor{rules: rubyRules, indentBased: true},
	types.LangC:          &regexExtractor{rules: cRules},
	types.LangCPP:        &regexExtractor{rules: cRules},
}

// rule matches one definition line; kind names the SymbolKind it
// produces, and nameIdx is the index of the submatch holding the
// identifier.
type rule struct {
	pattern  *regexp.Regexp
	kind     types.SymbolKind
	nameIdx  int
	signature bool // capture the whole matched line as Signature
}

// regexExtractor scans a file line by line, matching each rule in
// order and computing the symbol's end line by brace or indent
// scanning depending on indentBased.
type regexExtractor struct {
	rules       []rule
	indentBased bool
}

func (e *regexExtractor) Extract(path string, content []byte) []types.SymbolRecord {
	lines := splitLines(content)
	var out []types.SymbolRecord

	for i, line := range lines {
		for _, r := range e.rules {
			m := r.pattern.FindStringSubmatch(line)
			if m == nil || r.nameIdx >= len(m) {
				continue
			}
			name := m[r.nameIdx]
			if name == "" {
				continue
			}
			start := i + 1
			var end int
			if e.indentBased {
				end = scanByIndent(lines, i)
			} else {
				end = scanByBrace(lines, i)
			}
			sym := types.SymbolRecord{
				FilePath:  path,
				Name:      name,
				Kind:      r.kind,
				StartLine: start,
				EndLine:   end,
			}
			if r.signature {
				sym.Signature = strings.TrimSpace(line)
			}
			out = append(out, sym)
			break
		}
	}
	return out
}

func splitLines(content []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// scanByBrace finds the matching closing brace for the block opened
// on lines[start], using a simple depth counter over '{' and '}'.
// It never fails: if no closing brace is found, the symbol runs to
// the end of the file.
func scanByBrace(lines []string, start int) int {
	depth := 0
	seenOpen := false
	for i := start; i < len(lines); i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				depth++
				seenOpen = true
			case '}':
				depth--
			}
		}
		if seenOpen && depth <= 0 {
			return i + 1
		}
	}
	return len(lines)
}

// scanByIndent finds the end of an indentation-delimited block (e.g.
// Python/Ruby) by looking for the first subsequent line with
// indentation less than or equal to the definition line's.
func scanByIndent(lines []string, start int) int {
	baseIndent := indentOf(lines[start])
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if indentOf(lines[i]) <= baseIndent {
			return i
		}
	}
	return len(lines)
}

func indentOf(line string) int {
	n := 0
	for _, ch := range line {
		if ch == ' ' {
			n++
		} else if ch == '\t' {
			n += 4
		} else {
			break
		}
	}
	return n
}
