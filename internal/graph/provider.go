// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// KindAuto detects the provider from the files present in the project directory.
	KindAuto Kind = "auto"
	// KindGo resolves Go module dependencies.
	KindGo Kind = "go"
	// KindCargo resolves Rust crate dependencies.
	KindCargo Kind = "cargo"
	// KindManifest reads an explicit usage-rules.packages.toml.
	KindManifest Kind = "manifest"

	// GoModFile is the Go module manifest.
	GoModFile = "go.mod"
	// CargoFile is the Cargo manifest.
	CargoFile = "Cargo.toml"
	// ManifestFile is the explicit package manifest.
	ManifestFile = "usage-rules.packages.toml"
)

var (
	// ErrInvalidKind is the sentinel error wrapped by InvalidKindError.
	ErrInvalidKind = errors.New("invalid provider kind")
	// ErrNoManifest is returned when auto-detection finds no known manifest.
	ErrNoManifest = errors.New("no project manifest found")
)

type (
	// Kind selects which build tool resolves the dependency set.
	Kind string

	// InvalidKindError is returned when a Kind value is not recognized.
	// It wraps ErrInvalidKind for errors.Is() compatibility.
	InvalidKindError struct {
		Value Kind
	}

	// Provider returns the resolved, de-duplicated package set of the project
	// rooted at manifestDir. Any error is fatal for the caller.
	Provider interface {
		Packages(ctx context.Context, manifestDir string) ([]Package, error)
	}

	// Options configures the toolchain-backed providers.
	Options struct {
		// DirectOnly limits the set to the project's direct dependencies.
		DirectOnly bool
		// Fetch lets the build tool download missing packages before listing.
		Fetch bool
		// Runner executes build-tool commands. Defaults to ExecRunner.
		Runner Runner
	}

	// autoProvider defers the provider choice to the moment the manifest
	// directory is known.
	autoProvider struct {
		opts Options
	}
)

// Error implements the error interface.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid provider kind %q (valid: auto, go, cargo, manifest)", e.Value)
}

// Unwrap returns ErrInvalidKind for errors.Is() compatibility.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// IsValid returns whether the Kind is one of the defined values,
// and a list of validation errors if it is not.
func (k Kind) IsValid() (bool, []error) {
	switch k {
	case KindAuto, KindGo, KindCargo, KindManifest:
		return true, nil
	default:
		return false, []error{&InvalidKindError{Value: k}}
	}
}

// New creates the provider for kind.
func New(kind Kind, opts Options) (Provider, error) {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}

	switch kind {
	case KindAuto, "":
		return &autoProvider{opts: opts}, nil
	case KindGo:
		return NewGoModules(opts), nil
	case KindCargo:
		return NewCargo(opts), nil
	case KindManifest:
		return NewManifest(), nil
	default:
		return nil, &InvalidKindError{Value: kind}
	}
}

// Detect reports which provider applies to dir. An explicit package manifest wins
// over go.mod, which wins over Cargo.toml.
func Detect(dir string) (Kind, error) {
	for _, candidate := range []struct {
		file string
		kind Kind
	}{
		{ManifestFile, KindManifest},
		{GoModFile, KindGo},
		{CargoFile, KindCargo},
	} {
		if fileExists(filepath.Join(dir, candidate.file)) {
			return candidate.kind, nil
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %s, %s, %s)", ErrNoManifest, dir, ManifestFile, GoModFile, CargoFile)
}

// Packages detects the provider for manifestDir and delegates to it.
func (p *autoProvider) Packages(ctx context.Context, manifestDir string) ([]Package, error) {
	kind, err := Detect(manifestDir)
	if err != nil {
		return nil, err
	}
	delegate, err := New(kind, p.opts)
	if err != nil {
		return nil, err
	}
	return delegate.Packages(ctx, manifestDir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
