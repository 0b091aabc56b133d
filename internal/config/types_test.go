// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/usagerules/usagerules/internal/graph"
	"github.com/usagerules/usagerules/internal/render"
	"github.com/usagerules/usagerules/internal/selection"
)

func TestOutputPath_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path OutputPath
		want bool
	}{
		{"", true},
		{"AGENTS.md", true},
		{"docs/rules", true},
		{"   ", false},
		{"\t\n", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.path), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.path.IsValid()
			if isValid != tt.want {
				t.Errorf("OutputPath(%q).IsValid() = %v, want %v", tt.path, isValid, tt.want)
			}
			if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidOutputPath)) {
				t.Errorf("error should wrap ErrInvalidOutputPath, got: %v", errs)
			}
		})
	}
}

func TestPackageName_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name PackageName
		want bool
	}{
		{"serde", true},
		{"github.com/spf13/cobra", true},
		{"my pkg", true},
		{"", false},
		{" serde", false},
		{"serde\t", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.name.IsValid()
			if isValid != tt.want {
				t.Errorf("PackageName(%q).IsValid() = %v, want %v", tt.name, isValid, tt.want)
			}
			if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidPackageName)) {
				t.Errorf("error should wrap ErrInvalidPackageName, got: %v", errs)
			}
		})
	}
}

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	if valid, errs := DefaultConfig().IsValid(); !valid {
		t.Fatalf("DefaultConfig().IsValid() = false: %v", errs)
	}

	cfg := DefaultConfig()
	cfg.Output = " "
	cfg.LinkStyle = "wiki"
	cfg.Remove = []PackageName{"ok", ""}
	cfg.Provider.Kind = "npm"

	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("expected invalid config")
	}
	if !errors.Is(errs[0], ErrInvalidConfig) {
		t.Fatalf("error should wrap ErrInvalidConfig, got: %v", errs[0])
	}

	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) {
		t.Fatalf("error should be *InvalidConfigError, got %T", errs[0])
	}
	if len(cfgErr.FieldErrors) != 4 {
		t.Errorf("expected 4 field errors, got %d: %v", len(cfgErr.FieldErrors), cfgErr.FieldErrors)
	}
	if !errors.Is(cfgErr.FieldErrors[1], render.ErrInvalidLinkStyle) {
		t.Errorf("second field error should wrap render.ErrInvalidLinkStyle, got: %v", cfgErr.FieldErrors[1])
	}
	if !errors.Is(cfgErr.FieldErrors[3], ErrInvalidProviderConfig) {
		t.Errorf("last field error should wrap ErrInvalidProviderConfig, got: %v", cfgErr.FieldErrors[3])
	}
	if msg := errs[0].Error(); !strings.Contains(msg, "; ") {
		t.Errorf("InvalidConfigError should join field messages, got %q", msg)
	}
}

func TestProviderConfig_IsValid(t *testing.T) {
	t.Parallel()

	for _, kind := range []graph.Kind{graph.KindAuto, graph.KindGo, graph.KindCargo, graph.KindManifest} {
		if valid, errs := (ProviderConfig{Kind: kind}).IsValid(); !valid {
			t.Errorf("ProviderConfig{Kind: %q}.IsValid() = false: %v", kind, errs)
		}
	}

	_, errs := ProviderConfig{Kind: "GO"}.IsValid()
	if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidProviderConfig) {
		t.Fatalf("expected ErrInvalidProviderConfig, got %v", errs)
	}
	var provErr *InvalidProviderConfigError
	if !errors.As(errs[0], &provErr) || !errors.Is(provErr.FieldErrors[0], graph.ErrInvalidKind) {
		t.Errorf("field error should wrap graph.ErrInvalidKind, got %v", errs[0])
	}
}

func TestConfig_Policy(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.IncludeAll = true
	cfg.Inline = []PackageName{"alpha"}
	cfg.Remove = []PackageName{"beta", "gamma"}

	want := selection.Policy{
		IncludeAll: true,
		Inline:     []string{"alpha"},
		Remove:     []string{"beta", "gamma"},
	}
	if diff := cmp.Diff(want, cfg.Policy()); diff != "" {
		t.Errorf("Policy() mismatch (-want +got):\n%s", diff)
	}
}
