package excerpt

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/ctxpack/internal/types"
)

func linesContent(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "line " + strconv.Itoa(i+1)
	}
	return strings.Join(lines, "\n")
}

func TestExtract_SmallFileReturnsWholeFile(t *testing.T) {
	content := linesContent(50)
	e := Extract("small.go", content, Hint{}, false)
	assert.Equal(t, 1, e.StartLine)
	assert.Equal(t, 50, e.EndLine)
	assert.False(t, e.Truncated)
	assert.Equal(t, content, e.Content)
}

func TestExtract_FullSnapshotForcesWholeFileEvenWhenLarge(t *testing.T) {
	content := linesContent(500)
	e := Extract("big.go", content, Hint{}, true)
	assert.Equal(t, 500, e.EndLine)
	assert.False(t, e.Truncated)
}

func TestExtract_LargeFileNoHintTakesHead(t *testing.T) {
	content := linesContent(500)
	e := Extract("big.go", content, Hint{}, false)
	assert.Equal(t, 1, e.StartLine)
	assert.Equal(t, HeadLines, e.EndLine)
	assert.True(t, e.Truncated)
}

func TestExtract_LargeFileCentersOnHint(t *testing.T) {
	content := linesContent(500)
	e := Extract("big.go", content, Hint{Line: 300}, false)
	assert.Equal(t, 280, e.StartLine)
	assert.Equal(t, 340, e.EndLine)
	assert.True(t, e.Truncated)
}

func TestExtract_HintNearFileStartClampsToOne(t *testing.T) {
	content := linesContent(500)
	e := Extract("big.go", content, Hint{Line: 5}, false)
	assert.Equal(t, 1, e.StartLine)
	assert.Equal(t, 45, e.EndLine)
}

func TestExtract_SymbolRangeHintUsesNarrowerPad(t *testing.T) {
	content := linesContent(500)
	e := Extract("big.go", content, Hint{SymbolStart: 200, SymbolEnd: 210}, false)
	assert.Equal(t, 195, e.StartLine)
	assert.Equal(t, 215, e.EndLine)
}

func TestExtract_HintNearFileEndClampsToTotal(t *testing.T) {
	content := linesContent(500)
	e := Extract("big.go", content, Hint{Line: 495}, false)
	assert.Equal(t, 500, e.EndLine)
}

func TestExtract_TotalLinesAlwaysReported(t *testing.T) {
	content := linesContent(500)
	e := Extract("big.go", content, Hint{Line: 300}, false)
	assert.Equal(t, 500, e.TotalLines)
}

func TestMergeRanges_OverlappingRangesCombine(t *testing.T) {
	content := linesContent(500)
	a := Extract("big.go", content, Hint{Line: 100}, false) // 80-140
	b := Extract("big.go", content, Hint{Line: 130}, false) // 110-170

	merged := MergeRanges([]types.Excerpt{a, b})
	if assert.Len(t, merged, 1) {
		assert.Equal(t, 80, merged[0].StartLine)
		assert.Equal(t, 170, merged[0].EndLine)
	}
}

func TestMergeRanges_DistinctPathsKeptSeparate(t *testing.T) {
	content := linesContent(50)
	a := Extract("a.go", content, Hint{}, false)
	b := Extract("b.go", content, Hint{}, false)

	merged := MergeRanges([]types.Excerpt{a, b})
	assert.Len(t, merged, 2)
}

func TestMergeRanges_DisjointLaterRangeIsDropped(t *testing.T) {
	content := linesContent(500)
	a := Extract("big.go", content, Hint{Line: 50}, false)  // 30-90
	b := Extract("big.go", content, Hint{Line: 450}, false) // 430-490

	merged := MergeRanges([]types.Excerpt{a, b})
	require.Len(t, merged, 1)
}
