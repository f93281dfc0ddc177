// Package resolver implements the TaskResolver of spec.md §4.9: it
// fuses KeywordExtractor, StacktraceParser, DiffAnalyzer, and
// DomainManager output into one ResolvedTask, including the weighted
// confidence score the CandidateDiscovery and Scorer stages consume.
// Grounded on the teacher's internal/resolve/task_resolver.go, which
// performs the same multi-source fusion over a chat message plus
// optional pasted trace/diff.
package resolver

import (
	"sort"
	"strings"

	"github.com/standardbeagle/ctxpack/internal/domains"
	"github.com/standardbeagle/ctxpack/internal/keywords"
	"github.com/standardbeagle/ctxpack/internal/taskparse"
	"github.com/standardbeagle/ctxpack/internal/types"
)

// pathDerivedDomainWeight is the confidence assigned to a domain that
// was only discovered via FromPathPrefix (no keyword hit). An exact
// path-prefix match is treated as full-strength evidence, same as a
// keyword pass in which every task keyword hit the domain's table.
const pathDerivedDomainWeight = 1.0

// Input bundles the raw text a caller can supply to Resolve. Only Raw
// is required; StackTrace and Diff are sniffed independently when
// present, and FilesHint is merged in verbatim.
type Input struct {
	Raw        string
	StackTrace string
	Diff       string
	FilesHint  []string
}

// Resolver fuses free text and optional structured hints into a
// ResolvedTask.
type Resolver struct {
	domainMgr *domains.Manager
}

// New builds a Resolver backed by domainMgr (nil uses built-in
// CoreDomains only).
func New(domainMgr *domains.Manager) (*Resolver, error) {
	if domainMgr == nil {
		m, err := domains.New("")
		if err != nil {
			return nil, err
		}
		domainMgr = m
	}
	return &Resolver{domainMgr: domainMgr}, nil
}

// Resolve runs the full pipeline. It never errors: malformed
// stack-trace or diff text simply yields no frames (spec.md §7), and
// an empty Raw still produces a zero-confidence ResolvedTask rather
// than failing.
func (r *Resolver) Resolve(in Input) types.ResolvedTask {
	kws, entities, changeType := keywords.Extract(in.Raw)

	var frames []types.StackFrame
	if strings.TrimSpace(in.StackTrace) != "" {
		frames = taskparse.ParseStackTrace(in.StackTrace)
	}
	var diffFrames []types.DiffFrame
	if strings.TrimSpace(in.Diff) != "" {
		diffFrames = taskparse.ParseDiff(in.Diff)
	}

	filesHint := append([]string(nil), in.FilesHint...)
	filesHint = append(filesHint, entities.FileNames...)
	for _, f := range frames {
		filesHint = append(filesHint, f.File)
	}
	for _, d := range diffFrames {
		filesHint = append(filesHint, d.File)
		if d.RenamedTo != "" {
			filesHint = append(filesHint, d.RenamedTo)
		}
	}
	filesHint = dedup(filesHint)

	selectedDomains, weights := r.domainMgr.Match(kws)
	selectedDomains = r.unionPathDerivedDomains(selectedDomains, weights, filesHint)

	task := types.ResolvedTask{
		Raw:           in.Raw,
		Keywords:      kws,
		Entities:      entities,
		FilesHint:     filesHint,
		StackFrames:   frames,
		DiffFrames:    diffFrames,
		Symbols:       append(append([]string(nil), entities.ClassNames...), entities.MethodNames...),
		Domains:       selectedDomains,
		DomainWeights: weights,
		ChangeType:    changeType,
	}
	task.Confidence = computeConfidence(task)
	return task
}

// computeConfidence implements the exact weighted formula from
// spec.md §4.9: a base contribution per entity category present, plus
// a capped contribution from overall keyword volume.
func computeConfidence(t types.ResolvedTask) types.Confidence {
	c := types.Confidence{
		HasExactFileName:  len(t.Entities.FileNames) > 0,
		HasClassName:      len(t.Entities.ClassNames) > 0,
		HasMethodName:     len(t.Entities.MethodNames) > 0,
		HasRoutePattern:   len(t.Entities.RoutePatterns) > 0,
		HasErrorCode:      len(t.Entities.ErrorCodes) > 0,
		KeywordMatchCount: len(t.Keywords),
	}

	var score float32
	if c.HasExactFileName {
		score += 0.35
	}
	if c.HasClassName {
		score += 0.20
	}
	if c.HasMethodName {
		score += 0.15
	}
	if c.HasRoutePattern {
		score += 0.10
	}
	if c.HasErrorCode {
		score += 0.10
	}

	kwBonus := float32(c.KeywordMatchCount) / 10.0
	if kwBonus > 0.1 {
		kwBonus = 0.1
	}
	score += kwBonus

	if score > 1 {
		score = 1
	}
	c.Overall = score
	return c
}

// unionPathDerivedDomains implements spec.md's "domains = KeywordExtractor
// domains ∪ domains derived from detected file-path prefixes": every
// hinted file is checked against the DomainManager's path-prefix
// heuristic, and any newly discovered domain is folded into selected
// (and given a weight, if it doesn't already have one from the
// keyword pass) before the result is sorted for determinism.
func (r *Resolver) unionPathDerivedDomains(selected []string, weights map[string]float32, filesHint []string) []string {
	present := make(map[string]bool, len(selected))
	for _, d := range selected {
		present[d] = true
	}

	for _, f := range filesHint {
		d := r.domainMgr.FromPathPrefix(f)
		if d == "" || present[d] {
			continue
		}
		present[d] = true
		selected = append(selected, d)
		if _, ok := weights[d]; !ok {
			weights[d] = pathDerivedDomainWeight
		}
	}

	sort.Strings(selected)
	return selected
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
