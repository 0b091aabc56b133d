// SPDX-License-Identifier: MPL-2.0

// Package engine runs the usage-rules operations end to end: resolve the
// package set, locate guidance, apply the selection policy, render and write.
//
// Provider and write failures are fatal and returned as errors. Everything
// recoverable along the way is collected as diagnostics on the result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/usagerules/usagerules/internal/graph"
	"github.com/usagerules/usagerules/internal/guidance"
	"github.com/usagerules/usagerules/internal/output"
	"github.com/usagerules/usagerules/internal/render"
	"github.com/usagerules/usagerules/internal/selection"
)

// DefaultOutput is the index document written when no output is requested.
const DefaultOutput = "AGENTS.md"

// ErrPackageNotFound is returned by Preview when no resolved package has the
// requested name.
var ErrPackageNotFound = errors.New("package not found")

type (
	// Engine wires the provider, locator and writer together.
	Engine struct {
		provider graph.Provider
		locator  *guidance.Locator
		writer   *output.Writer
	}

	// ProviderError wraps a failure to resolve the package set.
	ProviderError struct {
		ManifestDir string
		Err         error
	}

	// SyncRequest holds the inputs of Sync.
	SyncRequest struct {
		// ManifestDir is the project directory handed to the provider.
		ManifestDir string
		// Policy selects the packages.
		Policy selection.Policy
		// Output is the index document path, relative to ManifestDir unless absolute.
		Output string
		// Folder enables linked mode when set; relative to ManifestDir unless absolute.
		Folder string
		// Style is the link style of linked mode.
		Style render.LinkStyle
	}

	// SyncResult reports a completed Sync.
	SyncResult struct {
		// IndexPath and Folder are the resolved output locations (Folder empty in merged mode).
		IndexPath string
		Folder    string
		// Total is the number of resolved packages.
		Total int
		// Included lists the packages rendered into the output, in output order.
		Included []graph.Package
		// Inline and Linked split Included by decision. In merged mode linked
		// packages are rendered inline but still counted as linked.
		Inline int
		Linked int
		// Excluded counts packages with guidance that the policy left out.
		Excluded int
		// NoGuidance counts packages without a usage-rules.md.
		NoGuidance int
		// Conflicts lists names on both the inline and remove lists.
		Conflicts []string
		// Unknown lists names on either list that match no package.
		Unknown []string
		// Written summarizes the write sequence.
		Written output.Written
		// Diagnostics are the recoverable conditions met while locating guidance.
		Diagnostics []guidance.Diagnostic
	}

	// ListRequest holds the inputs of List.
	ListRequest struct {
		ManifestDir string
		Policy      selection.Policy
	}

	// ListRow describes one resolved package.
	ListRow struct {
		Package     graph.Package
		HasGuidance bool
		// Includes is the number of sub-files of the package's guidance.
		Includes int
		Decision selection.Decision
	}

	// ListResult reports a completed List.
	ListResult struct {
		Rows        []ListRow
		Conflicts   []string
		Unknown     []string
		Diagnostics []guidance.Diagnostic
	}

	// PreviewResult holds the guidance of every package matching a name.
	PreviewResult struct {
		// Documents are the located documents, ordered by version then source.
		Documents []*guidance.Document
		// Packages are all resolved packages with the name, with or without guidance.
		Packages []graph.Package
		// Rendered is the concatenated section of every document, exactly as
		// Sync renders it.
		Rendered    []byte
		Diagnostics []guidance.Diagnostic
	}
)

// New creates an Engine.
func New(provider graph.Provider, locator *guidance.Locator, writer *output.Writer) *Engine {
	return &Engine{provider: provider, locator: locator, writer: writer}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("failed to resolve packages of %s: %v", e.ManifestDir, e.Err)
}

// Unwrap returns the provider error.
func (e *ProviderError) Unwrap() error { return e.Err }

// Sync renders the selected guidance and writes it.
func (e *Engine) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	pkgs, err := e.packages(ctx, req.ManifestDir)
	if err != nil {
		return nil, err
	}
	if req.Output == "" {
		req.Output = DefaultOutput
	}

	located, diags := e.locator.LocateAll(pkgs)
	decisions := req.Policy.Apply(pkgs)

	res := &SyncResult{
		IndexPath:   resolve(req.ManifestDir, req.Output),
		Total:       len(pkgs),
		Conflicts:   req.Policy.Conflicts(),
		Unknown:     req.Policy.Unknown(pkgs),
		Diagnostics: diags,
	}

	entries := make([]render.Entry, 0, len(located))
	for _, l := range located {
		dec := decisions.Of(l.Package)
		switch {
		case !l.HasGuidance():
			res.NoGuidance++
		case !dec.Included():
			res.Excluded++
		default:
			entries = append(entries, render.Entry{Doc: l.Doc, Decision: dec})
		}
	}

	var plan *render.Plan
	if req.Folder == "" {
		plan = render.MergedPlan(res.IndexPath, entries)
	} else {
		res.Folder = resolve(req.ManifestDir, req.Folder)
		plan, err = render.Linked(entries, render.LinkedOptions{IndexPath: res.IndexPath, Folder: res.Folder, Style: req.Style})
		if err != nil {
			return nil, err
		}
	}

	for _, entry := range render.Included(entries) {
		res.Included = append(res.Included, entry.Doc.Package)
		if entry.Decision == selection.Inline {
			res.Inline++
		} else {
			res.Linked++
		}
	}

	res.Written, err = e.writer.Write(plan)
	if err != nil {
		return res, err
	}

	slog.Debug("sync complete", "index", res.IndexPath, "included", len(res.Included), "changed", res.Written.Changed)
	return res, nil
}

// List reports every resolved package with its guidance status and decision.
func (e *Engine) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	pkgs, err := e.packages(ctx, req.ManifestDir)
	if err != nil {
		return nil, err
	}

	located, diags := e.locator.LocateAll(pkgs)
	decisions := req.Policy.Apply(pkgs)

	rows := make([]ListRow, 0, len(located))
	for _, l := range located {
		row := ListRow{Package: l.Package, HasGuidance: l.HasGuidance(), Decision: decisions.Of(l.Package)}
		if l.Doc != nil {
			row.Includes = len(l.Doc.Includes)
		}
		rows = append(rows, row)
	}
	slices.SortStableFunc(rows, func(a, b ListRow) int { return graph.Compare(a.Package, b.Package) })

	return &ListResult{
		Rows:        rows,
		Conflicts:   req.Policy.Conflicts(),
		Unknown:     req.Policy.Unknown(pkgs),
		Diagnostics: diags,
	}, nil
}

// Preview locates and renders the guidance of the packages named name.
func (e *Engine) Preview(ctx context.Context, manifestDir, name string) (*PreviewResult, error) {
	pkgs, err := e.packages(ctx, manifestDir)
	if err != nil {
		return nil, err
	}

	res := &PreviewResult{}
	for _, pkg := range graph.Sorted(pkgs) {
		if pkg.Name == name {
			res.Packages = append(res.Packages, pkg)
		}
	}
	if len(res.Packages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, name)
	}

	located, diags := e.locator.LocateAll(res.Packages)
	res.Diagnostics = diags
	for _, l := range located {
		if l.Doc == nil {
			continue
		}
		res.Documents = append(res.Documents, l.Doc)
		res.Rendered = append(res.Rendered, render.Section(l.Doc)...)
	}
	return res, nil
}

func (e *Engine) packages(ctx context.Context, manifestDir string) ([]graph.Package, error) {
	pkgs, err := e.provider.Packages(ctx, manifestDir)
	if err != nil {
		return nil, &ProviderError{ManifestDir: manifestDir, Err: err}
	}
	pkgs = graph.Dedupe(pkgs)
	slog.Debug("resolved packages", "dir", manifestDir, "count", len(pkgs))
	return pkgs, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}
