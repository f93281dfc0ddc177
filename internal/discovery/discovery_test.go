package discovery

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/ctxpack/internal/gitprobe"
	"github.com/standardbeagle/ctxpack/internal/store"
	"github.com/standardbeagle/ctxpack/internal/types"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestDiscover_StackFramesProduceStacktraceSignal(t *testing.T) {
	st := openTestStore(t)
	d := New(st, gitprobe.New(t.TempDir()))

	task := types.ResolvedTask{StackFrames: []types.StackFrame{{File: "internal/service/payment.go", Line: 42}}}
	candidates, err := d.Discover(task)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "internal/service/payment.go", candidates[0].Path)
	assert.True(t, candidates[0].Signals.StacktraceHit)
	assert.Contains(t, candidates[0].Reasons, "stacktrace:42")
}

func TestDiscover_DiffFramesProduceDiffSignal(t *testing.T) {
	st := openTestStore(t)
	d := New(st, gitprobe.New(t.TempDir()))

	task := types.ResolvedTask{DiffFrames: []types.DiffFrame{{File: "internal/service/payment.go", Status: types.DiffModified}}}
	candidates, err := d.Discover(task)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].Signals.DiffHit)
	assert.Contains(t, candidates[0].Reasons, "diff:modified")
}

func TestDiscover_SymbolChannelFindsExactMatch(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.UpsertFile(types.FileRecord{Path: "a.go"}))
	require.NoError(t, st.InsertSymbol(types.SymbolRecord{FilePath: "a.go", Name: "ChargeCustomer", Kind: types.KindFunction}))

	d := New(st, gitprobe.New(t.TempDir()))
	task := types.ResolvedTask{Symbols: []string{"ChargeCustomer"}}

	candidates, err := d.Discover(task)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "a.go", candidates[0].Path)
	assert.True(t, candidates[0].Signals.SymbolMatch)
}

func TestDiscover_DedupMergesSignalsAcrossChannels(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.UpsertFile(types.FileRecord{Path: "a.go"}))
	require.NoError(t, st.InsertSymbol(types.SymbolRecord{FilePath: "a.go", Name: "ChargeCustomer", Kind: types.KindFunction}))
	require.NoError(t, st.IndexFileContent("a.go", "charge payment customer"))

	d := New(st, gitprobe.New(t.TempDir()))
	task := types.ResolvedTask{
		StackFrames: []types.StackFrame{{File: "a.go", Line: 1}},
		Symbols:     []string{"ChargeCustomer"},
		Keywords:    []string{"charge"},
	}

	candidates, err := d.Discover(task)
	require.NoError(t, err)
	require.Len(t, candidates, 1, "same path from multiple channels should merge into one candidate")
	c := candidates[0]
	assert.True(t, c.Signals.StacktraceHit)
	assert.True(t, c.Signals.SymbolMatch)
	assert.True(t, c.Signals.KeywordMatch)
	assert.GreaterOrEqual(t, len(c.Reasons), 2)
}

func TestDiscover_TestFileSignalSetForTestPaths(t *testing.T) {
	st := openTestStore(t)
	d := New(st, gitprobe.New(t.TempDir()))

	task := types.ResolvedTask{StackFrames: []types.StackFrame{{File: "internal/service/payment_test.go", Line: 1}}}
	candidates, err := d.Discover(task)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].Signals.TestFile)
	assert.Contains(t, candidates[0].Reasons, "test")
}

func TestDiscover_HotspotChannel(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.UpsertFile(types.FileRecord{Path: "hot.go"}))
	require.NoError(t, st.UpsertGitSignal(types.GitSignal{Path: "hot.go", ChurnScore: 0.8, CommitCount: 5}))

	d := New(st, gitprobe.New(t.TempDir()))
	candidates, err := d.Discover(types.ResolvedTask{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "hot.go", candidates[0].Path)
	assert.True(t, candidates[0].Signals.GitHotspot)
}

func TestDiscover_GraphChannelFindsNeighbors(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.UpsertFile(types.FileRecord{Path: "a.go"}))
	require.NoError(t, st.UpsertFile(types.FileRecord{Path: "b.go"}))
	require.NoError(t, st.InsertImport(types.ImportEdge{SourcePath: "a.go", TargetPath: "b.go"}))

	d := New(st, gitprobe.New(t.TempDir()))
	task := types.ResolvedTask{StackFrames: []types.StackFrame{{File: "a.go", Line: 1}}}

	candidates, err := d.Discover(task)
	require.NoError(t, err)

	var sawNeighbor bool
	for _, c := range candidates {
		if c.Path == "b.go" {
			sawNeighbor = true
			assert.True(t, c.Signals.GraphRelated)
			assert.Contains(t, c.Reasons, "graph:a.go")
		}
	}
	assert.True(t, sawNeighbor)
}

func TestDiscover_EmptyTaskReturnsNoErrorNoHotspots(t *testing.T) {
	st := openTestStore(t)
	d := New(st, gitprobe.New(t.TempDir()))

	candidates, err := d.Discover(types.ResolvedTask{})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
