// Package pack implements the PackComposer of spec.md §4.13: it
// greedily fills a token budget with scored candidates' excerpts and
// emits both a human-readable Markdown pack and a machine-readable
// JSON manifest under .context/packs/<timestamp>-<hash>/. Grounded on
// the teacher's internal/assemble/context_writer.go (the greedy
// budget-bounded walk and the Markdown/JSON dual-output shape).
package pack

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cerrors "github.com/standardbeagle/ctxpack/internal/errors"
	"github.com/standardbeagle/ctxpack/internal/excerpt"
	"github.com/standardbeagle/ctxpack/internal/types"
)

// DefaultBudgetTokens is the spec.md §4.13 default pack size.
const DefaultBudgetTokens = 8000

// bytesPerToken is the fixed token estimator spec.md §9 mandates in
// place of a real tokenizer: budget_tokens * 4 is the byte ceiling.
const bytesPerToken = 4

// ManifestVersion is the schema version stamped into every
// PackManifest's Version field.
const ManifestVersion = "1"

// FileContent supplies a candidate's file body to the composer; the
// caller (normally backed by the Store or a direct file read) decides
// how content is fetched.
type FileContent func(path string) (content string, err error)

// Composer builds context packs from a ResolvedTask and its scored
// candidates.
type Composer struct {
	Root         string // repository root, used to resolve .context/packs
	BudgetTokens int
	Content      FileContent
}

// New builds a Composer. budgetTokens <= 0 uses DefaultBudgetTokens.
func New(root string, budgetTokens int, content FileContent) *Composer {
	if budgetTokens <= 0 {
		budgetTokens = DefaultBudgetTokens
	}
	return &Composer{Root: root, BudgetTokens: budgetTokens, Content: content}
}

// Compose greedily walks candidates in their given (already scored
// and sorted) order, including each file's excerpt until the byte
// budget is exhausted. A candidate whose excerpt does not fit is
// skipped, not truncated further — later, smaller candidates may still
// fit (spec.md §4.13: "greedy best-effort packing, not a knapsack
// solve"). Zero candidates or zero that fit both degrade to an empty
// pack carrying Reason rather than an error.
func (c *Composer) Compose(task types.ResolvedTask, candidates []types.Candidate) (types.PackManifest, string, error) {
	manifest := types.PackManifest{
		Version:      ManifestVersion,
		Task:         task,
		BudgetTokens: c.BudgetTokens,
	}

	if len(candidates) == 0 {
		manifest.Reason = cerrors.Empty("compose", fmt.Errorf("no candidates discovered")).Error()
		return manifest, renderMarkdown(manifest, nil), nil
	}

	byteBudget := c.BudgetTokens * bytesPerToken
	used := 0

	var excerpts []types.Excerpt
	for _, cand := range candidates {
		content, err := c.Content(cand.Path)
		if err != nil {
			manifest.Warnings = append(manifest.Warnings, "skipped "+cand.Path+": "+err.Error())
			continue
		}

		ex := extractExcerpt(cand, content)
		cost := len(ex.Content)
		if used+cost > byteBudget {
			continue
		}
		used += cost
		excerpts = append(excerpts, ex)

		manifest.Files = append(manifest.Files, types.PackFile{
			Path:      cand.Path,
			Score:     cand.Score,
			Reasons:   cand.Reasons,
			StartLine: ex.StartLine,
			EndLine:   ex.EndLine,
			Truncated: ex.Truncated,
		})
	}

	if len(manifest.Files) == 0 {
		manifest.Reason = cerrors.Budget("compose", fmt.Errorf("no candidate fit within %d tokens", c.BudgetTokens)).Error()
	}

	return manifest, renderMarkdown(manifest, excerpts), nil
}

// Write stamps timestamp onto manifest, serializes both outputs, and
// writes context.md / context.json to a fresh
// .context/packs/<timestamp>-<hash>/ directory, returning its path.
func (c *Composer) Write(manifest types.PackManifest, markdown string, timestamp time.Time) (string, error) {
	manifest.Timestamp = timestamp
	dirName := fmt.Sprintf("%s-%s", timestamp.UTC().Format("20060102T150405Z"), shortHash(manifest))

	dir := filepath.Join(c.Root, ".context", "packs", dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", cerrors.IO("mkdir_pack_dir", dir, err)
	}

	mdPath := filepath.Join(dir, "context.md")
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		return "", cerrors.IO("write_context_md", mdPath, err)
	}

	jsonBytes, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", cerrors.Internal("marshal_manifest", err)
	}
	jsonPath := filepath.Join(dir, "context.json")
	if err := os.WriteFile(jsonPath, jsonBytes, 0o644); err != nil {
		return "", cerrors.IO("write_context_json", jsonPath, err)
	}

	return dir, nil
}

// extractExcerpt picks the excerpt for cand's content, centering on
// whichever evidence discovery attached to it. When a candidate
// carries both a stacktrace line and a matched symbol range, both
// windows are extracted and merged (spec.md §4.12: "overlapping ranges
// on the same file are merged") instead of discarding one. When the
// two windows neither overlap nor touch, only the stacktrace window is
// kept.
func extractExcerpt(cand types.Candidate, content string) types.Excerpt {
	var candidates []types.Excerpt
	if cand.CenterLine > 0 {
		candidates = append(candidates, excerpt.Extract(cand.Path, content, excerpt.Hint{Line: cand.CenterLine}, false))
	}
	if cand.SymbolStart > 0 {
		candidates = append(candidates, excerpt.Extract(cand.Path, content, excerpt.Hint{SymbolStart: cand.SymbolStart, SymbolEnd: cand.SymbolEnd}, false))
	}
	if len(candidates) == 0 {
		candidates = append(candidates, excerpt.Extract(cand.Path, content, excerpt.Hint{}, false))
	}
	return excerpt.MergeRanges(candidates)[0]
}

func shortHash(m types.PackManifest) string {
	h := sha1.New()
	h.Write([]byte(m.Task.Raw))
	for _, f := range m.Files {
		h.Write([]byte(f.Path))
	}
	return hex.EncodeToString(h.Sum(nil))[:8]
}

func renderMarkdown(manifest types.PackManifest, excerpts []types.Excerpt) string {
	var b strings.Builder
	b.WriteString("# Context Pack\n\n")

	b.WriteString("## Task\n\n")
	if manifest.Task.Raw != "" {
		b.WriteString(manifest.Task.Raw)
		b.WriteString("\n\n")
	}
	b.WriteString(fmt.Sprintf("- Change type: %s\n", manifest.Task.ChangeType))
	if len(manifest.Task.Domains) > 0 {
		b.WriteString("- Domains: " + strings.Join(manifest.Task.Domains, ", ") + "\n")
	}
	b.WriteString(fmt.Sprintf("- Confidence: %.2f\n\n", manifest.Task.Confidence.Overall))

	if manifest.Reason != "" {
		b.WriteString("_" + manifest.Reason + "_\n")
		return b.String()
	}

	b.WriteString("## Files\n\n")
	excerptByPath := make(map[string]types.Excerpt, len(excerpts))
	for _, e := range excerpts {
		excerptByPath[e.Path] = e
	}

	for _, f := range manifest.Files {
		ex := excerptByPath[f.Path]
		b.WriteString(fmt.Sprintf("### %s (lines %d-%d)\n\n", f.Path, f.StartLine, f.EndLine))
		if len(f.Reasons) > 0 {
			b.WriteString("_" + strings.Join(f.Reasons, "; ") + "_\n\n")
		}
		b.WriteString("```\n")
		b.WriteString(ex.Content)
		if !strings.HasSuffix(ex.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}

	if len(manifest.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range manifest.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}

	return b.String()
}
