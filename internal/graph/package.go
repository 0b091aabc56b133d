// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/mod/semver"
)

const (
	// SourceRegistry is a package fetched from a package registry or module proxy.
	SourceRegistry Source = "registry"
	// SourceVCS is a package pinned to a version-control revision.
	SourceVCS Source = "vcs"
	// SourceLocal is a package read from a local path (workspace member, replace directive).
	SourceLocal Source = "local"
)

// ErrInvalidSource is the sentinel error wrapped by InvalidSourceError.
var ErrInvalidSource = errors.New("invalid package source")

type (
	// Source describes where a package's files came from.
	Source string

	// InvalidSourceError is returned when a Source value is not recognized.
	// It wraps ErrInvalidSource for errors.Is() compatibility.
	InvalidSourceError struct {
		Value Source
	}

	// Key is the identity of a package. Two packages with the same Key are the
	// same package, no matter how many dependents reference them.
	Key struct {
		Name    string
		Version string
		Source  Source
	}

	// Package is one resolved dependency.
	Package struct {
		// Name is the package name as the build tool reports it
		// (a module path for Go, a crate name for Cargo).
		Name string
		// Version is the resolved version, empty for unversioned local packages.
		Version string
		// Source is the package provenance.
		Source Source
		// Root is the absolute directory holding the package files. Empty when the
		// build tool has not materialised the package on disk.
		Root string
	}
)

// Error implements the error interface.
func (e *InvalidSourceError) Error() string {
	return fmt.Sprintf("invalid package source %q (valid: registry, vcs, local)", e.Value)
}

// Unwrap returns ErrInvalidSource for errors.Is() compatibility.
func (e *InvalidSourceError) Unwrap() error { return ErrInvalidSource }

// String returns the string representation of the Source.
func (s Source) String() string { return string(s) }

// IsValid returns whether the Source is one of the defined values,
// and a list of validation errors if it is not.
func (s Source) IsValid() (bool, []error) {
	switch s {
	case SourceRegistry, SourceVCS, SourceLocal:
		return true, nil
	default:
		return false, []error{&InvalidSourceError{Value: s}}
	}
}

// Key returns the identity triple of the package.
func (p Package) Key() Key {
	return Key{Name: p.Name, Version: p.Version, Source: p.Source}
}

// String returns "name version" (or just the name for unversioned packages).
func (p Package) String() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + " " + p.Version
}

// String returns "name@version (source)".
func (k Key) String() string {
	if k.Version == "" {
		return fmt.Sprintf("%s (%s)", k.Name, k.Source)
	}
	return fmt.Sprintf("%s@%s (%s)", k.Name, k.Version, k.Source)
}

// Dedupe returns pkgs with every repeated identity removed. The first occurrence
// wins and the relative order of the survivors is preserved.
func Dedupe(pkgs []Package) []Package {
	seen := make(map[Key]struct{}, len(pkgs))
	out := make([]Package, 0, len(pkgs))
	for _, p := range pkgs {
		if _, dup := seen[p.Key()]; dup {
			continue
		}
		seen[p.Key()] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Compare orders packages by name, then version, then source. Versions that are
// valid semver compare semantically so v1.10.0 sorts after v1.9.0.
func Compare(a, b Package) int {
	return CompareKeys(a.Key(), b.Key())
}

// CompareKeys is Compare for identity keys.
func CompareKeys(a, b Key) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := compareVersions(a.Version, b.Version); c != 0 {
		return c
	}
	return cmp.Compare(a.Source, b.Source)
}

// Sorted returns a copy of pkgs in Compare order.
func Sorted(pkgs []Package) []Package {
	out := slices.Clone(pkgs)
	slices.SortStableFunc(out, Compare)
	return out
}

func compareVersions(a, b string) int {
	va, vb := canonicalVersion(a), canonicalVersion(b)
	if semver.IsValid(va) && semver.IsValid(vb) {
		if c := semver.Compare(va, vb); c != 0 {
			return c
		}
	}
	return cmp.Compare(a, b)
}

// canonicalVersion adds the "v" prefix that Cargo and manifest versions lack.
func canonicalVersion(v string) string {
	if v == "" || v[0] == 'v' {
		return v
	}
	return "v" + v
}
