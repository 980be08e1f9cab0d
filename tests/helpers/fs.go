package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TempDirWithFiles creates a temporary directory (removed automatically
// when the test completes) containing files with the exact names given.
func TempDirWithFiles(t *testing.T, files []string) (string, []string) {
	dirPath := t.TempDir()
	filePaths := make([]string, 0, len(files))
	for _, filename := range files {
		path := filepath.Join(dirPath, filename)
		assert.Nil(t, os.WriteFile(path, []byte(filename), 0o644), "failed to create file in temporary dir")
		filePaths = append(filePaths, path)
	}

	assert.Len(t, filePaths, len(files), "Expected file paths recorded to match length of requested files")
	return dirPath, filePaths
}
