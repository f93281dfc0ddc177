package pack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/ctxpack/internal/types"
)

func fakeContent(files map[string]string) FileContent {
	return func(path string) (string, error) {
		c, ok := files[path]
		if !ok {
			return "", fmt.Errorf("no such file: %s", path)
		}
		return c, nil
	}
}

func TestCompose_IncludesFilesWithinBudget(t *testing.T) {
	c := New(t.TempDir(), 1000, fakeContent(map[string]string{
		"a.go": "package a\n",
		"b.go": "package b\n",
	}))
	candidates := []types.Candidate{{Path: "a.go", Score: 1.0}, {Path: "b.go", Score: 0.5}}

	manifest, md, err := c.Compose(types.ResolvedTask{Raw: "fix thing"}, candidates)
	require.NoError(t, err)
	assert.Len(t, manifest.Files, 2)
	assert.Empty(t, manifest.Reason)
	assert.Contains(t, md, "a.go")
	assert.Contains(t, md, "b.go")
}

func TestCompose_NoCandidatesDegradesGracefully(t *testing.T) {
	c := New(t.TempDir(), 1000, fakeContent(nil))
	manifest, md, err := c.Compose(types.ResolvedTask{}, nil)
	require.NoError(t, err)
	assert.Empty(t, manifest.Files)
	assert.NotEmpty(t, manifest.Reason)
	assert.Contains(t, md, manifest.Reason)
}

func TestCompose_SkipsOversizedCandidateGreedily(t *testing.T) {
	bigContent := make([]byte, 100)
	for i := range bigContent {
		bigContent[i] = 'x'
	}
	c := New(t.TempDir(), 10, fakeContent(map[string]string{ // budget 10*4=40 bytes
		"big.go":   string(bigContent),
		"small.go": "ok\n",
	}))
	candidates := []types.Candidate{{Path: "big.go"}, {Path: "small.go"}}

	manifest, _, err := c.Compose(types.ResolvedTask{}, candidates)
	require.NoError(t, err)
	require.Len(t, manifest.Files, 1)
	assert.Equal(t, "small.go", manifest.Files[0].Path)
}

func TestCompose_ZeroCandidatesFitBudgetSetsReason(t *testing.T) {
	bigContent := make([]byte, 1000)
	c := New(t.TempDir(), 1, fakeContent(map[string]string{"big.go": string(bigContent)}))
	candidates := []types.Candidate{{Path: "big.go"}}

	manifest, _, err := c.Compose(types.ResolvedTask{}, candidates)
	require.NoError(t, err)
	assert.Empty(t, manifest.Files)
	assert.NotEmpty(t, manifest.Reason)
}

func TestCompose_CentersExcerptOnCandidateStacktraceLine(t *testing.T) {
	lines := make([]string, 500)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}

	c := New(t.TempDir(), 10000, fakeContent(map[string]string{"big.go": content}))
	candidates := []types.Candidate{{Path: "big.go", CenterLine: 300}}

	manifest, _, err := c.Compose(types.ResolvedTask{}, candidates)
	require.NoError(t, err)
	require.Len(t, manifest.Files, 1)
	assert.Equal(t, 280, manifest.Files[0].StartLine)
	assert.Equal(t, 340, manifest.Files[0].EndLine)
}

func TestCompose_UnreadableFileAddsWarningAndContinues(t *testing.T) {
	c := New(t.TempDir(), 1000, fakeContent(map[string]string{"b.go": "ok\n"}))
	candidates := []types.Candidate{{Path: "missing.go"}, {Path: "b.go"}}

	manifest, _, err := c.Compose(types.ResolvedTask{}, candidates)
	require.NoError(t, err)
	require.Len(t, manifest.Files, 1)
	assert.Equal(t, "b.go", manifest.Files[0].Path)
	assert.NotEmpty(t, manifest.Warnings)
}

func TestWrite_ProducesMarkdownAndJSON(t *testing.T) {
	root := t.TempDir()
	c := New(root, 1000, fakeContent(map[string]string{"a.go": "package a\n"}))
	manifest, md, err := c.Compose(types.ResolvedTask{Raw: "fix a"}, []types.Candidate{{Path: "a.go"}})
	require.NoError(t, err)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dir, err := c.Write(manifest, md, ts)
	require.NoError(t, err)

	mdBytes, err := os.ReadFile(filepath.Join(dir, "context.md"))
	require.NoError(t, err)
	assert.Equal(t, md, string(mdBytes))

	jsonBytes, err := os.ReadFile(filepath.Join(dir, "context.json"))
	require.NoError(t, err)
	var decoded types.PackManifest
	require.NoError(t, json.Unmarshal(jsonBytes, &decoded))
	assert.Equal(t, "fix a", decoded.Task.Raw)
}

func TestWrite_DirNameStampedWithTimestampAndHash(t *testing.T) {
	root := t.TempDir()
	c := New(root, 1000, fakeContent(map[string]string{"a.go": "x\n"}))
	manifest, md, err := c.Compose(types.ResolvedTask{Raw: "task"}, []types.Candidate{{Path: "a.go"}})
	require.NoError(t, err)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dir, err := c.Write(manifest, md, ts)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(dir), "20260102T030405Z")
}
