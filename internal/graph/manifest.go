// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type (
	// Manifest reads the package set from an explicit usage-rules.packages.toml:
	//
	//	[[package]]
	//	name = "alpha"
	//	version = "1.2.0"
	//	source = "registry"
	//	path = "vendor/alpha"
	//
	// source defaults to "local"; relative paths resolve against the manifest directory.
	Manifest struct{}

	manifestFile struct {
		Packages []manifestEntry `toml:"package"`
	}

	manifestEntry struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Source  Source `toml:"source"`
		Path    string `toml:"path"`
	}
)

// NewManifest creates a manifest provider.
func NewManifest() *Manifest {
	return &Manifest{}
}

// Packages parses <manifestDir>/usage-rules.packages.toml.
func (m *Manifest) Packages(_ context.Context, manifestDir string) ([]Package, error) {
	path := filepath.Join(manifestDir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var f manifestFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var errs []error
	pkgs := make([]Package, 0, len(f.Packages))
	for i, e := range f.Packages {
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, fmt.Errorf("package[%d]: name must not be empty", i))
			continue
		}
		if strings.TrimSpace(e.Path) == "" {
			errs = append(errs, fmt.Errorf("package[%d] %s: path must not be empty", i, e.Name))
			continue
		}
		if e.Source == "" {
			e.Source = SourceLocal
		}
		if ok, srcErrs := e.Source.IsValid(); !ok {
			errs = append(errs, fmt.Errorf("package[%d] %s: %w", i, e.Name, srcErrs[0]))
			continue
		}

		root := e.Path
		if !filepath.IsAbs(root) {
			root = filepath.Join(manifestDir, root)
		}
		if root, err = filepath.Abs(root); err != nil {
			errs = append(errs, fmt.Errorf("package[%d] %s: %w", i, e.Name, err))
			continue
		}

		pkgs = append(pkgs, Package{Name: e.Name, Version: e.Version, Source: e.Source, Root: root})
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid %s: %w", path, errors.Join(errs...))
	}

	return Dedupe(pkgs), nil
}
