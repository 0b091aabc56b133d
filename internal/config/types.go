// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/usagerules/usagerules/internal/graph"
	"github.com/usagerules/usagerules/internal/render"
	"github.com/usagerules/usagerules/internal/selection"
)

// DefaultOutput is the index document written when no output is configured.
const DefaultOutput = "AGENTS.md"

var (
	// ErrInvalidOutputPath is the sentinel error wrapped by InvalidOutputPathError.
	ErrInvalidOutputPath = errors.New("invalid output path")
	// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
	ErrInvalidPackageName = errors.New("invalid package name")
	// ErrInvalidProviderConfig is the sentinel error wrapped by InvalidProviderConfigError.
	ErrInvalidProviderConfig = errors.New("invalid provider config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// OutputPath is a path to a generated document or folder.
	OutputPath string

	// InvalidOutputPathError is returned when an OutputPath is whitespace-only.
	// It wraps ErrInvalidOutputPath for errors.Is() compatibility.
	InvalidOutputPathError struct {
		Value OutputPath
	}

	// PackageName names a package on the inline or remove list.
	PackageName string

	// InvalidPackageNameError is returned when a PackageName is empty or padded.
	// It wraps ErrInvalidPackageName for errors.Is() compatibility.
	InvalidPackageNameError struct {
		Value PackageName
	}

	// InvalidProviderConfigError is returned when ProviderConfig has invalid fields.
	// It wraps ErrInvalidProviderConfig for errors.Is() compatibility.
	InvalidProviderConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Output is the index document, relative to the project directory.
		Output OutputPath `json:"output" mapstructure:"output"`
		// Folder enables linked mode; linked packages are written here.
		Folder OutputPath `json:"folder" mapstructure:"folder"`
		// LinkStyle selects how the index references linked files.
		LinkStyle render.LinkStyle `json:"link_style" mapstructure:"link_style"`
		// IncludeAll links every package not named on a list.
		IncludeAll bool `json:"include_all" mapstructure:"include_all"`
		// Inline names packages rendered into the index.
		Inline []PackageName `json:"inline" mapstructure:"inline"`
		// Remove names packages that are always excluded.
		Remove []PackageName `json:"remove" mapstructure:"remove"`
		// RulesDir sweeps each package's usage_rules/ directory for extra files.
		RulesDir bool `json:"rules_dir" mapstructure:"rules_dir"`
		// Provider configures dependency resolution.
		Provider ProviderConfig `json:"provider" mapstructure:"provider"`
		// UI contains user interface settings.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// ProviderConfig configures how the package set is resolved.
	ProviderConfig struct {
		// Kind selects the build tool; "auto" detects it from the project files.
		Kind graph.Kind `json:"kind" mapstructure:"kind"`
		// DirectOnly limits the set to direct dependencies.
		DirectOnly bool `json:"direct_only" mapstructure:"direct_only"`
		// Fetch lets the build tool download missing packages.
		Fetch bool `json:"fetch" mapstructure:"fetch"`
	}

	// UIConfig contains UI-related configuration.
	UIConfig struct {
		// Verbose enables debug logging and full error chains.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface.
func (e *InvalidOutputPathError) Error() string {
	return fmt.Sprintf("invalid output path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidOutputPath for errors.Is() compatibility.
func (e *InvalidOutputPathError) Unwrap() error { return ErrInvalidOutputPath }

// String returns the string representation of the OutputPath.
func (p OutputPath) String() string { return string(p) }

// IsValid returns whether the OutputPath is empty or non-blank,
// and a list of validation errors if it is not.
func (p OutputPath) IsValid() (bool, []error) {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidOutputPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q: must be non-empty without surrounding whitespace", e.Value)
}

// Unwrap returns ErrInvalidPackageName for errors.Is() compatibility.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }

// String returns the string representation of the PackageName.
func (n PackageName) String() string { return string(n) }

// IsValid returns whether the PackageName is usable,
// and a list of validation errors if it is not.
func (n PackageName) IsValid() (bool, []error) {
	if n == "" || strings.TrimSpace(string(n)) != string(n) {
		return false, []error{&InvalidPackageNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidProviderConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "provider: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidProviderConfig for errors.Is() compatibility.
func (e *InvalidProviderConfigError) Unwrap() error { return ErrInvalidProviderConfig }

// IsValid returns whether the ProviderConfig has valid fields,
// and a list of validation errors if it does not.
func (c ProviderConfig) IsValid() (bool, []error) {
	if valid, fieldErrs := c.Kind.IsValid(); !valid {
		return false, []error{&InvalidProviderConfigError{FieldErrors: fieldErrs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid returns whether the Config has valid fields (delegating to each
// typed field), and a list of validation errors if it does not.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Output.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Folder.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.LinkStyle.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, name := range append(append([]PackageName(nil), c.Inline...), c.Remove...) {
		if valid, fieldErrs := name.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.Provider.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Policy returns the selection policy the configuration describes.
func (c Config) Policy() selection.Policy {
	return selection.Policy{
		IncludeAll: c.IncludeAll,
		Inline:     names(c.Inline),
		Remove:     names(c.Remove),
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Output:     DefaultOutput,
		Folder:     "",
		LinkStyle:  render.LinkMarkdown,
		IncludeAll: false,
		Inline:     []PackageName{},
		Remove:     []PackageName{},
		RulesDir:   true,
		Provider: ProviderConfig{
			Kind:       graph.KindAuto,
			DirectOnly: false,
			Fetch:      false,
		},
		UI: UIConfig{
			Verbose: false,
		},
	}
}

func names(list []PackageName) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, string(n))
	}
	return out
}
