package mcpserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePath_JoinsUnderDotContext(t *testing.T) {
	p := storePath("/repo")
	assert.Equal(t, filepath.Join("/repo", ".context", "index.db"), p)
}

func TestReadFile_ReadsRelativeToRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0o644))

	content, err := readFile(root, "a.go")
	require.NoError(t, err)
	assert.Equal(t, "package a\n", content)
}

func TestReadFile_MissingFileErrors(t *testing.T) {
	root := t.TempDir()
	_, err := readFile(root, "missing.go")
	assert.Error(t, err)
}
