// Package excerpt implements the ExcerptExtractor of spec.md §4.12:
// it chooses which line range of a candidate file to include in a
// pack, centering on the strongest available evidence (a stacktrace
// or diff line, then a matched symbol), falling back to the whole
// file when short or explicitly requested, and otherwise a bounded
// head excerpt. Grounded on the teacher's
// internal/assemble/snippet_selector.go, which applies the same
// priority order when carving a file down for a context window.
package excerpt

import (
	"bufio"
	"strings"

	"github.com/standardbeagle/ctxpack/internal/types"
)

// FullFileLineThreshold is the spec.md §4.12 cutoff below which a
// whole file is always included rather than excerpted.
const FullFileLineThreshold = 200

// HeadLines is how many leading lines are kept when a file exceeds
// the threshold and no centering hint is available.
const HeadLines = 120

// leadPad and trailPad bound a stacktrace/diff centered window: it is
// asymmetric because the evidence line is more often a call site or
// changed line whose consequences read downward.
const leadPad = 20
const trailPad = 40

// symbolPad is the symmetric pad applied around a matched symbol's
// own [StartLine, EndLine] range.
const symbolPad = 5

// Hint carries the centering evidence for an excerpt, when known. Line
// (a stacktrace frame or diff line) takes priority over a matched
// symbol's own range; zero values mean "no hint of that kind".
type Hint struct {
	Line        int // 1-based
	SymbolStart int // 1-based, inclusive
	SymbolEnd   int // 1-based, inclusive
}

// Extract selects the excerpt for content given an optional centering
// hint and whether the caller asked for the full file regardless of
// size ("snapshot=full" in spec.md §4.12).
func Extract(path, content string, hint Hint, fullSnapshot bool) types.Excerpt {
	lines := splitLines(content)
	total := len(lines)

	if fullSnapshot || total <= FullFileLineThreshold {
		return types.Excerpt{
			Path:       path,
			Content:    content,
			StartLine:  1,
			EndLine:    total,
			TotalLines: total,
			Truncated:  false,
		}
	}

	if hint.Line > 0 {
		start := hint.Line - leadPad
		if start < 1 {
			start = 1
		}
		end := hint.Line + trailPad
		if end > total {
			end = total
		}
		return build(path, lines, start, end, total)
	}

	if hint.SymbolStart > 0 {
		start := hint.SymbolStart - symbolPad
		if start < 1 {
			start = 1
		}
		end := hint.SymbolEnd + symbolPad
		if end > total {
			end = total
		}
		return build(path, lines, start, end, total)
	}

	end := HeadLines
	if end > total {
		end = total
	}
	return build(path, lines, 1, end, total)
}

func build(path string, lines []string, start, end, total int) types.Excerpt {
	if start < 1 {
		start = 1
	}
	if end > total {
		end = total
	}
	selected := lines[start-1 : end]
	return types.Excerpt{
		Path:       path,
		Content:    strings.Join(selected, "\n"),
		StartLine:  start,
		EndLine:    end,
		TotalLines: total,
		Truncated:  end < total || start > 1,
	}
}

func splitLines(content string) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

// MergeRanges merges overlapping or adjacent excerpts for the same
// path, so a file matched by two different hints (e.g. a stacktrace
// line and a distinct symbol) contributes one continuous range rather
// than duplicated content (spec.md §4.12: "overlapping ranges merge").
// A later excerpt that neither overlaps nor touches the merged range is
// dropped, so each path yields exactly one excerpt.
func MergeRanges(excerpts []types.Excerpt) []types.Excerpt {
	byPath := make(map[string][]types.Excerpt)
	var order []string
	for _, e := range excerpts {
		if _, ok := byPath[e.Path]; !ok {
			order = append(order, e.Path)
		}
		byPath[e.Path] = append(byPath[e.Path], e)
	}

	var out []types.Excerpt
	for _, path := range order {
		group := byPath[path]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		// Full-file excerpts (StartLine==1 && EndLine==TotalLines &&
		// !Truncated) always win outright.
		merged := group[0]
		for _, g := range group[1:] {
			if !merged.Truncated {
				break
			}
			if g.StartLine > merged.EndLine+1 || g.EndLine < merged.StartLine-1 {
				continue
			}
			gLines := strings.Split(g.Content, "\n")
			if g.EndLine > merged.EndLine {
				merged.Content += "\n" + strings.Join(gLines[merged.EndLine+1-g.StartLine:], "\n")
				merged.EndLine = g.EndLine
			}
			if g.StartLine < merged.StartLine {
				merged.Content = strings.Join(gLines[:merged.StartLine-g.StartLine], "\n") + "\n" + merged.Content
				merged.StartLine = g.StartLine
			}
			merged.Truncated = merged.StartLine > 1 || merged.EndLine < merged.TotalLines
		}
		out = append(out, merged)
	}
	return out
}
