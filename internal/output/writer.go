// SPDX-License-Identifier: MPL-2.0

// Package output writes rendered plans to disk.
//
// Writes are a best-effort sequence: linked files first, in plan order, then
// the index. The first failure stops the sequence; files already written are
// left in place. Content that is already on disk is not rewritten.
package output

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/usagerules/usagerules/internal/graph"
	"github.com/usagerules/usagerules/internal/render"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

type (
	// Writer writes plans to a filesystem.
	Writer struct {
		// FS is the destination filesystem. Defaults to the OS filesystem.
		FS afero.Fs
	}

	// Written summarizes a completed write sequence.
	Written struct {
		// Paths lists every file of the plan, in write order.
		Paths []string
		// Changed counts files whose content was written.
		Changed int
		// Unchanged counts files that already held the rendered content.
		Unchanged int
	}

	// WriteError reports the write that stopped the sequence.
	WriteError struct {
		// Path is the file being written.
		Path string
		// Package is the package whose guidance the file holds; nil for the index.
		Package *graph.Key
		// Written lists the files completed before the failure.
		Written []string
		// Err is the underlying filesystem error.
		Err error
	}
)

// Error implements the error interface.
func (e *WriteError) Error() string {
	if e.Package != nil {
		return fmt.Sprintf("failed to write guidance of %s to %s: %v", e.Package, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to write index %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *WriteError) Unwrap() error { return e.Err }

// NewWriter creates a Writer over fsys (the OS filesystem when nil).
func NewWriter(fsys afero.Fs) *Writer {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Writer{FS: fsys}
}

// Write writes every linked file of plan and then the index, splicing the
// index block into the file's existing content.
func (w *Writer) Write(plan *render.Plan) (Written, error) {
	fsys := w.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	var res Written
	for _, f := range plan.Files {
		if err := w.put(fsys, f.Path, f.Content, &res); err != nil {
			return res, &WriteError{Path: f.Path, Package: f.Package, Written: res.Paths, Err: err}
		}
	}

	existing, err := afero.ReadFile(fsys, plan.Index.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return res, &WriteError{Path: plan.Index.Path, Written: res.Paths, Err: err}
	}
	index := render.Splice(existing, plan.Index.Content)
	if err := w.put(fsys, plan.Index.Path, index, &res); err != nil {
		return res, &WriteError{Path: plan.Index.Path, Written: res.Paths, Err: err}
	}

	return res, nil
}

func (w *Writer) put(fsys afero.Fs, path string, content []byte, res *Written) error {
	if current, err := afero.ReadFile(fsys, path); err == nil && bytes.Equal(current, content) {
		slog.Debug("output unchanged", "path", path)
		res.Paths = append(res.Paths, path)
		res.Unchanged++
		return nil
	}

	if err := fsys.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return err
	}
	if err := afero.WriteFile(fsys, path, content, filePerm); err != nil {
		return err
	}

	slog.Debug("output written", "path", path, "bytes", len(content))
	res.Paths = append(res.Paths, path)
	res.Changed++
	return nil
}
