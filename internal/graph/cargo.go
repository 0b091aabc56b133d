// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type (
	// Cargo lists the crates of a Rust project through `cargo metadata`.
	Cargo struct {
		opts Options
	}

	cargoMetadata struct {
		Packages         []cargoPackage `json:"packages"`
		WorkspaceMembers []string       `json:"workspace_members"`
	}

	cargoPackage struct {
		ID           string            `json:"id"`
		Name         string            `json:"name"`
		Version      string            `json:"version"`
		Source       *string           `json:"source"`
		ManifestPath string            `json:"manifest_path"`
		Dependencies []cargoDependency `json:"dependencies"`
	}

	cargoDependency struct {
		Name string `json:"name"`
	}

	// cargoManifest is the part of Cargo.toml needed to find the root package.
	cargoManifest struct {
		Package struct {
			Name string `toml:"name"`
		} `toml:"package"`
	}
)

// NewCargo creates a Cargo provider.
func NewCargo(opts Options) *Cargo {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	return &Cargo{opts: opts}
}

// Packages returns every non-workspace crate in the resolved graph. With
// DirectOnly set, only the crates the root package declares are kept; a virtual
// workspace uses the union of its members' declarations.
func (c *Cargo) Packages(ctx context.Context, manifestDir string) ([]Package, error) {
	rootName, err := cargoRootName(filepath.Join(manifestDir, CargoFile))
	if err != nil {
		return nil, err
	}

	args := []string{"metadata", "--format-version", "1"}
	if !c.opts.Fetch {
		args = append(args, "--offline")
	}
	out, err := c.opts.Runner.Run(ctx, Command{Dir: manifestDir, Name: "cargo", Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to read cargo metadata: %w", err)
	}

	var meta cargoMetadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse cargo metadata JSON: %w", err)
	}

	members := make(map[string]bool, len(meta.WorkspaceMembers))
	for _, id := range meta.WorkspaceMembers {
		members[id] = true
	}

	var direct map[string]bool
	if c.opts.DirectOnly {
		direct = make(map[string]bool)
		found := false
		for _, p := range meta.Packages {
			if !members[p.ID] || (rootName != "" && p.Name != rootName) {
				continue
			}
			found = true
			for _, d := range p.Dependencies {
				direct[d.Name] = true
			}
		}
		if rootName != "" && !found {
			return nil, fmt.Errorf("cargo package %s not found in metadata", rootName)
		}
	}

	pkgs := make([]Package, 0, len(meta.Packages))
	for _, p := range meta.Packages {
		if members[p.ID] {
			continue
		}
		if direct != nil && !direct[p.Name] {
			continue
		}
		pkgs = append(pkgs, Package{
			Name:    p.Name,
			Version: p.Version,
			Source:  cargoSource(p.Source),
			Root:    filepath.Dir(p.ManifestPath),
		})
	}

	return Dedupe(pkgs), nil
}

// cargoRootName reads [package].name from Cargo.toml. Virtual workspaces have no
// [package] table and yield "".
func cargoRootName(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m.Package.Name, nil
}

func cargoSource(src *string) Source {
	switch {
	case src == nil:
		return SourceLocal
	case strings.HasPrefix(*src, "git+"):
		return SourceVCS
	default:
		return SourceRegistry
	}
}
