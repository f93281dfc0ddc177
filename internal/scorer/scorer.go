// Package scorer implements the Scorer of spec.md §4.11: a weighted
// linear combination of each Candidate's Signals, plus additive file
// hint and domain boosts, with a fully deterministic tie-break order.
// Grounded on the teacher's internal/rank/linear_scorer.go (signal ->
// weight table-driven scoring) and its deterministic sort comparator.
package scorer

import (
	"sort"
	"strings"

	"github.com/standardbeagle/ctxpack/internal/config"
	"github.com/standardbeagle/ctxpack/internal/types"
)

// maxReasons bounds how many explanatory strings are kept per
// candidate after scoring (spec.md §4.11: "reasons truncated to top 5").
const maxReasons = 5

// Scorer assigns a deterministic score and rank to a candidate set.
type Scorer struct {
	Weights config.Weights
}

// New builds a Scorer from w.
func New(w config.Weights) *Scorer {
	return &Scorer{Weights: w}
}

// Score scores and sorts candidates in place against task, returning
// the same slice reordered by descending score with a fully
// deterministic tie-break: score desc, then StacktraceHit desc, then
// path length asc, then path lexicographic asc.
func (s *Scorer) Score(candidates []types.Candidate, task types.ResolvedTask) []types.Candidate {
	for i := range candidates {
		candidates[i].Score = s.scoreOne(&candidates[i], task)
		if len(candidates[i].Reasons) > maxReasons {
			candidates[i].Reasons = candidates[i].Reasons[:maxReasons]
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Signals.StacktraceHit != b.Signals.StacktraceHit {
			return a.Signals.StacktraceHit
		}
		if len(a.Path) != len(b.Path) {
			return len(a.Path) < len(b.Path)
		}
		return a.Path < b.Path
	})
	return candidates
}

func (s *Scorer) scoreOne(c *types.Candidate, task types.ResolvedTask) float64 {
	w := s.Weights
	var score float64

	if c.Signals.StacktraceHit {
		score += w.StacktraceHit
	}
	if c.Signals.DiffHit {
		score += w.DiffHit
	}
	if c.Signals.SymbolMatch {
		score += w.SymbolMatch
	}
	if c.Signals.KeywordMatch {
		score += w.KeywordMatch
	}
	if c.Signals.GraphRelated {
		score += w.GraphRelated
	}
	if c.Signals.GitHotspot {
		score += w.GitHotspot
	}
	if c.Signals.TestFile && !domainMatches(task, "testing") {
		score += w.TestFile
	}

	if hasFileHint(task.FilesHint, c.Path) {
		score += w.FileHintBoost
		c.Reasons = append(c.Reasons, "matches file hint")
	}

	domainHits := domainMatchCount(task, c.Path)
	if domainHits > 0 {
		score += w.DomainBoost * float64(domainHits)
		c.Reasons = append(c.Reasons, "domain match")
	}

	if score < 0 {
		score = 0
	}
	return score
}

func hasFileHint(hints []string, path string) bool {
	base := basename(path)
	for _, h := range hints {
		if h == path || basename(h) == base {
			return true
		}
	}
	return false
}

// domainMatchCount counts distinct task domains whose name appears in
// path's basename or directory segments (spec.md §4.11: "+0.10 per
// distinct domain").
func domainMatchCount(task types.ResolvedTask, path string) int {
	lower := strings.ToLower(path)
	n := 0
	for _, d := range task.Domains {
		if strings.Contains(lower, strings.ToLower(d)) {
			n++
		}
	}
	return n
}

// domainMatches reports whether name is among task's resolved domains
// (case-insensitive), used for the test_file penalty exception: a task
// whose own keywords resolved to the "testing" domain shouldn't be
// penalized for surfacing test files (spec.md §4.11).
func domainMatches(task types.ResolvedTask, name string) bool {
	for _, d := range task.Domains {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

func basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
