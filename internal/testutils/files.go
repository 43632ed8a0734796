// TiCS: disabled // Test helpers.

package testutils

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

// GetDirContents returns the contents of a directory as a map of file paths to file contents.
// The contents are read as strings.
// The maxDepth parameter limits the depth of the directory tree to read.
func GetDirContents(t *testing.T, dir string, maxDepth uint) (map[string]string, error) {
	t.Helper()

	files := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == dir {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		depth := uint(strings.Count(filepath.ToSlash(relPath), "/") + 1)
		if depth > maxDepth {
			return fmt.Errorf("max depth %d exceeded at %s", maxDepth, relPath)
		}

		if !d.IsDir() {
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			// Normalize content between Windows and Linux
			content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
			files[filepath.ToSlash(relPath)] = string(content)
		}

		return nil
	})

	return files, err
}

// WriteUTF16 writes text to path encoded as UTF-16 little endian with a byte order mark,
// the way vehicle log captures are stored.
func WriteUTF16(t *testing.T, path, text string) {
	t.Helper()

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte(text))
	require.NoError(t, err, "Setup: could not encode UTF-16 text")
	require.NoError(t, os.WriteFile(path, data, 0600), "Setup: could not write UTF-16 file")
}

// WriteFiles creates every file of files under dir, creating parent directories as needed.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0750), "Setup: could not create parent directory")
		require.NoError(t, os.WriteFile(p, []byte(content), 0600), "Setup: could not write file")
	}
}
