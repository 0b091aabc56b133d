// SPDX-License-Identifier: MPL-2.0

// Package selection decides which packages contribute guidance and how.
//
// The rules are applied in a fixed order, first match wins:
//  1. a name on the remove list is excluded
//  2. a name on the inline list is inlined
//  3. with include-all set, every other package is linked
//  4. otherwise the package is excluded
//
// A name on both lists is therefore excluded. That is reported by Conflicts
// for the user's benefit but is not an error.
package selection

import (
	"errors"
	"fmt"
	"slices"

	"github.com/usagerules/usagerules/internal/graph"
)

const (
	// Excluded packages produce no output.
	Excluded Decision = "excluded"
	// Inline packages are rendered directly into the output document.
	Inline Decision = "inline"
	// Linked packages get their own file, referenced from the index. Without a
	// link folder they are rendered inline.
	Linked Decision = "linked"
)

// ErrInvalidDecision is the sentinel error wrapped by InvalidDecisionError.
var ErrInvalidDecision = errors.New("invalid selection decision")

type (
	// Decision is the selection outcome for one package.
	Decision string

	// InvalidDecisionError is returned when a Decision value is not recognized.
	// It wraps ErrInvalidDecision for errors.Is() compatibility.
	InvalidDecisionError struct {
		Value Decision
	}

	// Policy holds the selection directives.
	Policy struct {
		// IncludeAll links every package not otherwise named.
		IncludeAll bool
		// Inline names packages rendered inline.
		Inline []string
		// Remove names packages that are always excluded.
		Remove []string
	}

	// Decisions maps package identities to their decision.
	Decisions map[graph.Key]Decision
)

// Error implements the error interface.
func (e *InvalidDecisionError) Error() string {
	return fmt.Sprintf("invalid selection decision %q (valid: excluded, inline, linked)", e.Value)
}

// Unwrap returns ErrInvalidDecision for errors.Is() compatibility.
func (e *InvalidDecisionError) Unwrap() error { return ErrInvalidDecision }

// String returns the string representation of the Decision.
func (d Decision) String() string { return string(d) }

// IsValid returns whether the Decision is one of the defined values,
// and a list of validation errors if it is not.
func (d Decision) IsValid() (bool, []error) {
	switch d {
	case Excluded, Inline, Linked:
		return true, nil
	default:
		return false, []error{&InvalidDecisionError{Value: d}}
	}
}

// Included reports whether the decision puts the package in the output.
func (d Decision) Included() bool {
	return d == Inline || d == Linked
}

// Decide returns the decision for a package name.
func (p Policy) Decide(name string) Decision {
	switch {
	case slices.Contains(p.Remove, name):
		return Excluded
	case slices.Contains(p.Inline, name):
		return Inline
	case p.IncludeAll:
		return Linked
	default:
		return Excluded
	}
}

// Apply decides every package. Packages sharing a name share a decision.
func (p Policy) Apply(pkgs []graph.Package) Decisions {
	d := make(Decisions, len(pkgs))
	for _, pkg := range pkgs {
		d[pkg.Key()] = p.Decide(pkg.Name)
	}
	return d
}

// Of returns the decision recorded for pkg, Excluded when there is none.
func (d Decisions) Of(pkg graph.Package) Decision {
	if dec, ok := d[pkg.Key()]; ok {
		return dec
	}
	return Excluded
}

// Count returns how many recorded decisions equal dec.
func (d Decisions) Count(dec Decision) int {
	n := 0
	for _, v := range d {
		if v == dec {
			n++
		}
	}
	return n
}

// Conflicts returns the sorted, de-duplicated names present on both the
// inline and remove lists.
func (p Policy) Conflicts() []string {
	var out []string
	for _, name := range p.Inline {
		if slices.Contains(p.Remove, name) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Unknown returns the sorted, de-duplicated names on either list that match
// no package in pkgs. They usually indicate a typo.
func (p Policy) Unknown(pkgs []graph.Package) []string {
	known := make(map[string]struct{}, len(pkgs))
	for _, pkg := range pkgs {
		known[pkg.Name] = struct{}{}
	}

	var out []string
	for _, name := range slices.Concat(p.Inline, p.Remove) {
		if _, ok := known[name]; !ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
