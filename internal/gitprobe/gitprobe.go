// Package gitprobe implements the GitProbe collaborator of spec.md
// §4.5: per-file commit count, last-modified, and churn, plus
// repo-wide hotspots. Grounded on the teacher's
// internal/git/provider.go (git-dir detection) and
// internal/git/frequency_provider.go (a single batched
// `git log --numstat` invocation parsed in-process), per the §9
// design note that an implementation should pick one batched
// strategy rather than mixing per-file rev-list calls with a
// pipelined git log.
package gitprobe

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	cerrors "github.com/standardbeagle/ctxpack/internal/errors"
)

// Timeout is the per-invocation ceiling from spec.md §5.
const Timeout = 30 * time.Second

// excludedFilePatterns mirrors the teacher's churn exclusion table
// (internal/git/frequency_analyzer.go): changelogs, lockfiles, and
// generated/binary files don't represent meaningful code churn.
var excludedFilePatterns = []string{
	"CHANGELOG*", "HISTORY*", "*.md", "*.rst",
	"package-lock.json", "yarn.lock", "go.sum", "Cargo.lock",
	"dist/*", "build/*", "*.min.js", "*.min.css", "*.generated.*",
}

func isExcludedFromChurn(path string) bool {
	base := filepath.Base(path)
	for _, pat := range excludedFilePatterns {
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, path); ok {
			return true
		}
	}
	return false
}

// commitStat is one file touched by one commit, parsed from
// `git log --numstat`.
type commitStat struct {
	sha       string
	timestamp time.Time
	path      string
	additions int
	deletions int
}

// Probe implements GitProbe against a single repository root. All
// per-file data is computed once, when New runs a single
// batched `git log` invocation, then served from memory — never a
// per-file subprocess.
type Probe struct {
	root      string
	available bool

	commitCount map[string]uint32
	lastMod     map[string]string
	churn       map[string]float32
	recent      []string // paths touched since the refresh window, most-recent-first
}

// New probes root for a .git directory and, if present, runs the
// batched log scan covering the last 6 months (the window spec.md
// §4.5 uses for hotspots; churn narrows to the last 3 months from
// the same dataset). A GitError here degrades to an unavailable probe
// rather than propagating — per spec.md §7 GitError is never fatal.
func New(root string) *Probe {
	p := &Probe{root: root}
	if !hasGitDir(root) {
		return p
	}
	p.available = true
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	if err := p.refresh(ctx); err != nil {
		p.available = false
	}
	return p
}

func hasGitDir(root string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--git-dir")
	cmd.Dir = root
	return cmd.Run() == nil
}

// Available reports whether git commands succeeded against root.
func (p *Probe) Available() bool { return p.available }

func (p *Probe) refresh(ctx context.Context) error {
	since := time.Now().AddDate(0, -6, 0)
	cmd := exec.CommandContext(ctx, "git", "log",
		"--numstat",
		"--format=%H|%at",
		"--since="+since.Format("2006-01-02"),
		"--no-merges",
	)
	cmd.Dir = p.root

	out, err := cmd.Output()
	if err != nil {
		return cerrors.Git("log", err)
	}

	stats := parseNumstat(out)

	threeMonthsAgo := time.Now().AddDate(0, -3, 0)
	commitCount := make(map[string]uint32)
	lastMod := make(map[string]string)
	churnBytes := make(map[string]int)
	var recentPaths []string
	seenRecent := make(map[string]bool)

	for _, s := range stats {
		commitCount[s.path]++
		if ts := s.timestamp.Format(time.RFC3339); lastMod[s.path] == "" || ts > lastMod[s.path] {
			lastMod[s.path] = ts
		}
		if s.timestamp.After(threeMonthsAgo) && !isExcludedFromChurn(s.path) {
			churnBytes[s.path] += s.additions + s.deletions
		}
		if !seenRecent[s.path] {
			seenRecent[s.path] = true
			recentPaths = append(recentPaths, s.path)
		}
	}

	churn := make(map[string]float32, len(churnBytes))
	for path, bytesChanged := range churnBytes {
		v := float32(bytesChanged) / 1000.0
		if v > 1.0 {
			v = 1.0
		}
		churn[path] = v
	}

	p.commitCount = commitCount
	p.lastMod = lastMod
	p.churn = churn
	p.recent = recentPaths
	return nil
}

func parseNumstat(out []byte) []commitStat {
	var stats []commitStat
	var curSHA string
	var curTime time.Time

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.Contains(line, "|") && !strings.Contains(line, "\t") {
			parts := strings.SplitN(line, "|", 2)
			if len(parts) != 2 {
				continue
			}
			curSHA = parts[0]
			if epoch, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
				curTime = time.Unix(epoch, 0).UTC()
			}
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			continue
		}
		add, _ := strconv.Atoi(fields[0])
		del, _ := strconv.Atoi(fields[1])
		path := filepath.ToSlash(fields[2])
		stats = append(stats, commitStat{
			sha:       curSHA,
			timestamp: curTime,
			path:      path,
			additions: add,
			deletions: del,
		})
	}
	return stats
}

// CommitCount returns the number of commits touching path within the
// refreshed window.
func (p *Probe) CommitCount(path string) uint32 {
	if !p.available {
		return 0
	}
	return p.commitCount[path]
}

// LastModified returns the most recent commit timestamp touching path,
// in ISO-8601, or empty when unknown.
func (p *Probe) LastModified(path string) string {
	if !p.available {
		return ""
	}
	return p.lastMod[path]
}

// Churn returns the normalized churn score for path in [0, 1].
func (p *Probe) Churn(path string) float32 {
	if !p.available {
		return 0
	}
	return p.churn[path]
}

// RecentFiles returns paths with any activity since the refresh
// window, most-recently-touched first, capped at limit.
func (p *Probe) RecentFiles(limit int) []string {
	if !p.available {
		return nil
	}
	if limit <= 0 || limit > len(p.recent) {
		limit = len(p.recent)
	}
	return append([]string(nil), p.recent[:limit]...)
}

// Hotspot is one entry in the Hotspots() ranking.
type Hotspot struct {
	Path  string
	Score float32
}

// Hotspots returns the most frequently committed files in the
// refresh window, normalized by the maximum commit count, descending.
func (p *Probe) Hotspots(limit int) []Hotspot {
	if !p.available || len(p.commitCount) == 0 {
		return nil
	}
	var max uint32
	for _, c := range p.commitCount {
		if c > max {
			max = c
		}
	}
	out := make([]Hotspot, 0, len(p.commitCount))
	for path, c := range p.commitCount {
		out = append(out, Hotspot{Path: path, Score: float32(c) / float32(max)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Path < out[j].Path
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// HeadCommit returns the current HEAD sha, or empty if unavailable.
func (p *Probe) HeadCommit() string {
	if !p.available {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = p.root
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// CurrentBranch returns the current branch name, or empty if
// unavailable (e.g. detached HEAD).
func (p *Probe) CurrentBranch() string {
	if !p.available {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = p.root
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	branch := strings.TrimSpace(string(out))
	if branch == "HEAD" {
		return ""
	}
	return branch
}

func (p *Probe) String() string {
	return fmt.Sprintf("gitprobe(root=%s, available=%v)", p.root, p.available)
}
