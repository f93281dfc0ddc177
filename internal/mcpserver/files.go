package mcpserver

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/ctxpack/internal/store"
)

func storePath(root string) string {
	return store.DefaultPath(root)
}

func readFile(root, relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
