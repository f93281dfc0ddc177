package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/ctxpack/internal/scanner"
	"github.com/standardbeagle/ctxpack/internal/store"
)

// TestMain verifies the errgroup worker pool in Index leaves no
// goroutines behind once g.Wait() returns.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ctxpack.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func writeFixtureRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(
		"package main\n\nfunc main() {\n\tgreet()\n}\n\nfunc greet() {\n\tprintln(\"hi\")\n}\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "util"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "util", "helper.go"), []byte(
		"package util\n\nfunc Helper() int {\n\treturn 1\n}\n"), 0o644))
	return root
}

func TestIndex_FullPipelineCountsFilesSymbolsAndImports(t *testing.T) {
	root := writeFixtureRepo(t)
	st := openTestStore(t)

	ix, err := New(root, st, scanner.Options{}, nil)
	require.NoError(t, err)

	stats, warnings, err := ix.Index(context.Background())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 3, stats.Symbols) // main, greet, Helper

	rec, ok, err := st.GetFile("main.go")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "main.go", rec.Path)

	syms, err := st.FindSymbolsByName("greet")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "main.go", syms[0].FilePath)
}

func TestIndex_ReindexWithUnchangedContentSkipsReprocessing(t *testing.T) {
	root := writeFixtureRepo(t)
	st := openTestStore(t)

	ix, err := New(root, st, scanner.Options{}, nil)
	require.NoError(t, err)

	_, _, err = ix.Index(context.Background())
	require.NoError(t, err)

	stats, warnings, err := ix.Index(context.Background())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 2, stats.Files)
	assert.Zero(t, stats.Symbols) // unchanged files are skipped by processFile's hash check
}

func TestIndex_ProgressCallbackInvokedPerFile(t *testing.T) {
	root := writeFixtureRepo(t)
	st := openTestStore(t)

	var calls int
	ix, err := New(root, st, scanner.Options{}, func(done, total int, path string) {
		calls++
		assert.LessOrEqual(t, done, total)
	})
	require.NoError(t, err)

	_, _, err = ix.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIncrementalUpdate_DeletesMissingFileFromStore(t *testing.T) {
	root := writeFixtureRepo(t)
	st := openTestStore(t)

	ix, err := New(root, st, scanner.Options{}, nil)
	require.NoError(t, err)
	_, _, err = ix.Index(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "util", "helper.go")))

	stats, warnings, err := ix.IncrementalUpdate(context.Background(), []string{"util/helper.go"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Zero(t, stats.Files)

	_, ok, err := st.GetFile("util/helper.go")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIncrementalUpdate_ReprocessesChangedFile(t *testing.T) {
	root := writeFixtureRepo(t)
	st := openTestStore(t)

	ix, err := New(root, st, scanner.Options{}, nil)
	require.NoError(t, err)
	_, _, err = ix.Index(context.Background())
	require.NoError(t, err)

	newContent := "package main\n\nfunc main() {}\n\nfunc greet() {}\n\nfunc farewell() {}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(newContent), 0o644))

	stats, warnings, err := ix.IncrementalUpdate(context.Background(), []string{"main.go"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 3, stats.Symbols)

	syms, err := st.FindSymbolsByName("farewell")
	require.NoError(t, err)
	assert.Len(t, syms, 1)
}
