// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

type (
	// GoModules lists the modules of a Go project through the go command.
	GoModules struct {
		opts Options
	}

	// listedModule mirrors the subset of `go list -m -json` output we consume.
	listedModule struct {
		Path    string
		Version string
		Main    bool
		Dir     string
		Replace *listedModule
	}
)

// NewGoModules creates a Go modules provider.
func NewGoModules(opts Options) *GoModules {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	return &GoModules{opts: opts}
}

// Packages returns every module in the build list except the main module(s).
func (g *GoModules) Packages(ctx context.Context, manifestDir string) ([]Package, error) {
	var direct map[string]bool
	if g.opts.DirectOnly {
		var err error
		if direct, err = directRequirements(filepath.Join(manifestDir, GoModFile)); err != nil {
			return nil, err
		}
	}

	// Without --fetch the module proxy is disabled so listing never touches the network.
	var env []string
	if g.opts.Fetch {
		if _, err := g.opts.Runner.Run(ctx, Command{Dir: manifestDir, Name: "go", Args: []string{"mod", "download"}}); err != nil {
			return nil, fmt.Errorf("failed to download modules: %w", err)
		}
	} else {
		env = []string{"GOPROXY=off"}
	}

	out, err := g.opts.Runner.Run(ctx, Command{
		Dir:  manifestDir,
		Name: "go",
		Args: []string{"list", "-m", "-json", "all"},
		Env:  env,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	mods, err := decodeModules(out)
	if err != nil {
		return nil, err
	}

	pkgs := make([]Package, 0, len(mods))
	for _, m := range mods {
		if m.Main {
			continue
		}
		if direct != nil && !direct[m.Path] {
			continue
		}
		pkgs = append(pkgs, modulePackage(m))
	}

	return Dedupe(pkgs), nil
}

// decodeModules reads the stream of JSON objects `go list -m -json` prints.
func decodeModules(data []byte) ([]listedModule, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var mods []listedModule
	for {
		var m listedModule
		err := dec.Decode(&m)
		if errors.Is(err, io.EOF) {
			return mods, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse go list output: %w", err)
		}
		mods = append(mods, m)
	}
}

// modulePackage converts a listed module, following its replacement if any.
func modulePackage(m listedModule) Package {
	p := Package{
		Name:    m.Path,
		Version: m.Version,
		Source:  SourceRegistry,
		Root:    m.Dir,
	}

	if r := m.Replace; r != nil {
		if r.Dir != "" {
			p.Root = r.Dir
		}
		if r.Version == "" && modfile.IsDirectoryPath(r.Path) {
			p.Source = SourceLocal
			return p
		}
		p.Version = r.Version
	}

	if module.IsPseudoVersion(p.Version) {
		p.Source = SourceVCS
	}

	return p
}

// directRequirements returns the module paths go.mod requires without an
// "// indirect" annotation.
func directRequirements(goModPath string) (map[string]bool, error) {
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", goModPath, err)
	}
	f, err := modfile.ParseLax(goModPath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", goModPath, err)
	}

	direct := make(map[string]bool, len(f.Require))
	for _, req := range f.Require {
		if !req.Indirect {
			direct[req.Mod.Path] = true
		}
	}
	return direct, nil
}
