// SPDX-License-Identifier: MPL-2.0

package guidance

import (
	"errors"
	"fmt"

	"github.com/usagerules/usagerules/internal/graph"
)

const (
	// SeverityWarning indicates a recoverable condition; the package is still processed.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a package whose guidance could not be used at all.
	SeverityError Severity = "error"

	// CodeReferenceNotFound is a sub-file reference whose target does not exist.
	CodeReferenceNotFound DiagnosticCode = "reference_not_found"
	// CodeReferenceUnreadable is a sub-file reference whose target exists but cannot be read.
	CodeReferenceUnreadable DiagnosticCode = "reference_unreadable"
	// CodeReferenceOutsidePackage is a sub-file reference that escapes the package root.
	CodeReferenceOutsidePackage DiagnosticCode = "reference_outside_package"
	// CodePrimaryUnreadable is a usage-rules.md that exists but cannot be read.
	CodePrimaryUnreadable DiagnosticCode = "primary_unreadable"
	// CodePackageNotLocal is a package the build tool has not placed on disk.
	CodePackageNotLocal DiagnosticCode = "package_not_local"
	// CodeRulesDirScanFailed is a usage_rules directory that could not be listed.
	CodeRulesDirScanFailed DiagnosticCode = "rules_dir_scan_failed"
)

var (
	// ErrInvalidSeverity is the sentinel error wrapped by InvalidSeverityError.
	ErrInvalidSeverity = errors.New("invalid diagnostic severity")
	// ErrInvalidDiagnosticCode is the sentinel error wrapped by InvalidDiagnosticCodeError.
	ErrInvalidDiagnosticCode = errors.New("invalid diagnostic code")
)

type (
	// Severity represents guidance diagnostic severity.
	Severity string

	// DiagnosticCode is a machine-readable diagnostic identifier.
	DiagnosticCode string

	// InvalidSeverityError is returned when a Severity value is not recognized.
	InvalidSeverityError struct {
		Value Severity
	}

	// InvalidDiagnosticCodeError is returned when a DiagnosticCode value is not recognized.
	InvalidDiagnosticCodeError struct {
		Value DiagnosticCode
	}

	// Diagnostic is a structured, non-fatal condition found while locating
	// guidance. Diagnostics are returned to callers (rather than written to
	// stderr) so the CLI owns the rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "reference_not_found").
		Code DiagnosticCode
		// Message is the human-readable description.
		Message string
		// Package identifies the package being processed.
		Package graph.Key
		// Path is the file path associated with this diagnostic (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}
)

// Error implements the error interface.
func (e *InvalidSeverityError) Error() string {
	return fmt.Sprintf("invalid diagnostic severity %q (valid: warning, error)", e.Value)
}

// Unwrap returns ErrInvalidSeverity for errors.Is() compatibility.
func (e *InvalidSeverityError) Unwrap() error { return ErrInvalidSeverity }

// Error implements the error interface.
func (e *InvalidDiagnosticCodeError) Error() string {
	return fmt.Sprintf("invalid diagnostic code %q", e.Value)
}

// Unwrap returns ErrInvalidDiagnosticCode for errors.Is() compatibility.
func (e *InvalidDiagnosticCodeError) Unwrap() error { return ErrInvalidDiagnosticCode }

// IsValid returns whether the Severity is one of the defined values,
// and a list of validation errors if it is not.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityWarning, SeverityError:
		return true, nil
	default:
		return false, []error{&InvalidSeverityError{Value: s}}
	}
}

// IsValid returns whether the DiagnosticCode is one of the defined values,
// and a list of validation errors if it is not.
func (c DiagnosticCode) IsValid() (bool, []error) {
	switch c {
	case CodeReferenceNotFound, CodeReferenceUnreadable, CodeReferenceOutsidePackage,
		CodePrimaryUnreadable, CodePackageNotLocal, CodeRulesDirScanFailed:
		return true, nil
	default:
		return false, []error{&InvalidDiagnosticCodeError{Value: c}}
	}
}

func warning(code DiagnosticCode, pkg graph.Package, path string, cause error, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Package:  pkg.Key(),
		Path:     path,
		Cause:    cause,
	}
}
