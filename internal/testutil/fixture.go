// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/afero"
)

// Files maps slash-separated paths, relative to a root, to file contents.
type Files map[string]string

// WriteFiles writes files below root on fsys, creating parent directories.
// Paths are written in sorted order. The test fails immediately on error.
func WriteFiles(t testing.TB, fsys afero.Fs, root string, files Files) {
	t.Helper()

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := fsys.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", full, err)
		}
		if err := afero.WriteFile(fsys, full, []byte(files[p]), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", full, err)
		}
	}
}

// WriteTree writes files below root on the OS filesystem.
func WriteTree(t testing.TB, root string, files Files) {
	t.Helper()
	WriteFiles(t, afero.NewOsFs(), root, files)
}
