// Package discovery implements CandidateDiscovery from spec.md §4.10:
// a multi-channel query fan-out over the Store that merges every
// source of evidence for a ResolvedTask into one deduplicated
// candidate set, each carrying the Signals the Scorer weighs.
// Grounded on the teacher's internal/retrieve/candidate_collector.go,
// which runs the same channel set (symbol lookup, fuzzy lookup,
// full-text, graph neighbors, recent/hotspot files) and merges by path.
package discovery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/ctxpack/internal/gitprobe"
	"github.com/standardbeagle/ctxpack/internal/store"
	"github.com/standardbeagle/ctxpack/internal/types"
)

// channelCap bounds how many paths any single channel may contribute,
// preventing one noisy source (e.g. a broad full-text query) from
// crowding out the others before scoring runs.
const channelCap = 50

// Discoverer runs CandidateDiscovery's channels against one Store.
type Discoverer struct {
	Store *store.Store
	Git   *gitprobe.Probe
}

// New builds a Discoverer.
func New(st *store.Store, git *gitprobe.Probe) *Discoverer {
	return &Discoverer{Store: st, Git: git}
}

type accumulator struct {
	order []string
	seen  map[uint64]*types.Candidate
}

func newAccumulator() *accumulator {
	return &accumulator{seen: make(map[uint64]*types.Candidate)}
}

func pathKey(path string) uint64 {
	return xxhash.Sum64String(path)
}

func (a *accumulator) touch(path string) *types.Candidate {
	k := pathKey(path)
	if c, ok := a.seen[k]; ok {
		return c
	}
	c := &types.Candidate{Path: path}
	a.seen[k] = c
	a.order = append(a.order, path)
	return c
}

func (a *accumulator) mark(path, reason string, setSignal func(*types.Signals)) {
	c := a.touch(path)
	setSignal(&c.Signals)
	for _, r := range c.Reasons {
		if r == reason {
			return
		}
	}
	c.Reasons = append(c.Reasons, reason)
}

func (a *accumulator) candidates() []types.Candidate {
	out := make([]types.Candidate, 0, len(a.order))
	for _, p := range a.order {
		out = append(out, *a.seen[pathKey(p)])
	}
	return out
}

// Discover runs every channel against task and returns the merged,
// deduplicated candidate set (unscored — Scorer assigns Score).
func (d *Discoverer) Discover(task types.ResolvedTask) ([]types.Candidate, error) {
	acc := newAccumulator()

	d.stacktraceChannel(acc, task)
	d.diffFilesChannel(acc, task)
	if err := d.symbolChannel(acc, task); err != nil {
		return nil, err
	}
	if err := d.basenameChannel(acc, task); err != nil {
		return nil, err
	}
	if err := d.fulltextChannel(acc, task); err != nil {
		return nil, err
	}
	if err := d.graphChannel(acc, task); err != nil {
		return nil, err
	}
	d.hotspotChannel(acc)
	d.testFileSignal(acc)

	return acc.candidates(), nil
}

func (d *Discoverer) stacktraceChannel(acc *accumulator, task types.ResolvedTask) {
	n := 0
	for _, f := range task.StackFrames {
		if n >= channelCap {
			return
		}
		acc.mark(f.File, "stacktrace:"+strconv.Itoa(f.Line), func(s *types.Signals) { s.StacktraceHit = true })
		if c := acc.touch(f.File); c.CenterLine == 0 {
			c.CenterLine = f.Line
		}
		n++
	}
}

func (d *Discoverer) diffFilesChannel(acc *accumulator, task types.ResolvedTask) {
	n := 0
	for _, f := range task.DiffFrames {
		if n >= channelCap {
			return
		}
		reason := "diff:" + string(f.Status)
		acc.mark(f.File, reason, func(s *types.Signals) { s.DiffHit = true })
		if f.RenamedTo != "" {
			acc.mark(f.RenamedTo, reason, func(s *types.Signals) { s.DiffHit = true })
		}
		n++
	}
}

func (d *Discoverer) symbolChannel(acc *accumulator, task types.ResolvedTask) error {
	n := 0
	for _, sym := range task.Symbols {
		if n >= channelCap {
			break
		}
		recs, err := d.Store.FindSymbolsByName(sym)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fuzzy, ferr := d.Store.FindSymbolsByFuzzy(sym)
			if ferr != nil {
				return ferr
			}
			recs = fuzzy
		}
		for _, r := range recs {
			if n >= channelCap {
				break
			}
			acc.mark(r.FilePath, "symbol:"+r.Name, func(s *types.Signals) { s.SymbolMatch = true })
			if c := acc.touch(r.FilePath); c.SymbolStart == 0 {
				c.SymbolStart = r.StartLine
				c.SymbolEnd = r.EndLine
			}
			n++
		}
	}
	return nil
}

func (d *Discoverer) basenameChannel(acc *accumulator, task types.ResolvedTask) error {
	n := 0
	for _, f := range task.FilesHint {
		if n >= channelCap {
			break
		}
		base := f
		if i := strings.LastIndexByte(f, '/'); i >= 0 {
			base = f[i+1:]
		}
		paths, err := d.Store.FindFilesByBasename(base)
		if err != nil {
			return err
		}
		for _, p := range paths {
			if n >= channelCap {
				break
			}
			acc.mark(p, "basename:"+base, func(s *types.Signals) { s.SymbolMatch = true })
			n++
		}
	}
	return nil
}

func (d *Discoverer) fulltextChannel(acc *accumulator, task types.ResolvedTask) error {
	if len(task.Keywords) == 0 {
		return nil
	}
	query := strings.Join(task.Keywords, " OR ")
	hits, err := d.Store.FulltextSearch(query, channelCap)
	if err != nil {
		return err
	}
	for _, h := range hits {
		acc.mark(h.Path, fmt.Sprintf("fts:%.2f", h.Rank), func(s *types.Signals) { s.KeywordMatch = true })
	}
	return nil
}

// graphChannel walks import-graph neighbors of the stacktrace/diff
// seeds specifically (spec.md §4.10), not every generic file hint.
func (d *Discoverer) graphChannel(acc *accumulator, task types.ResolvedTask) error {
	var seedPaths []string
	for _, f := range task.StackFrames {
		seedPaths = append(seedPaths, f.File)
	}
	for _, f := range task.DiffFrames {
		seedPaths = append(seedPaths, f.File)
		if f.RenamedTo != "" {
			seedPaths = append(seedPaths, f.RenamedTo)
		}
	}

	n := 0
	for _, seed := range seedPaths {
		if n >= channelCap {
			break
		}
		neighbors, err := d.Store.NeighborsOf(seed, 1)
		if err != nil {
			return err
		}
		for _, p := range neighbors {
			if n >= channelCap {
				break
			}
			acc.mark(p, "graph:"+seed, func(s *types.Signals) { s.GraphRelated = true })
			n++
		}
	}
	return nil
}

func (d *Discoverer) hotspotChannel(acc *accumulator) {
	hotspots, err := d.Store.TopHotspots(channelCap)
	if err != nil {
		return
	}
	for _, h := range hotspots {
		acc.mark(h.Path, "hotspot", func(s *types.Signals) { s.GitHotspot = true })
	}
}

func (d *Discoverer) testFileSignal(acc *accumulator) {
	for _, p := range acc.order {
		if isTestFile(p) {
			acc.mark(p, "test", func(s *types.Signals) { s.TestFile = true })
		}
	}
}

func isTestFile(path string) bool {
	lower := strings.ToLower(path)
	markers := []string{"_test.", ".test.", "/test/", "/tests/", "/__tests__/", "spec."}
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
