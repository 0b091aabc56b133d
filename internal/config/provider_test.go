// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"path/filepath"
	"testing"
)

func TestProvider_Load(t *testing.T) {
	t.Parallel()

	opts, _, projectDir := isolated(t)
	writeConfig(t, filepath.Join(projectDir, ProjectFileName), `folder: "rules"`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Folder != "rules" {
		t.Errorf("Folder = %q, want rules", cfg.Folder)
	}
}

func TestProvider_Load_Error(t *testing.T) {
	t.Parallel()

	opts, _, projectDir := isolated(t)
	writeConfig(t, filepath.Join(projectDir, ProjectFileName), `rules_dir: "yes"`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err == nil {
		t.Fatal("expected schema error for non-bool rules_dir")
	}
	if cfg != nil {
		t.Errorf("Load() should return nil config on error, got %+v", cfg)
	}
}

func TestProvider_Load_ConfigDirOverride(t *testing.T) {
	t.Cleanup(Reset)

	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, "config.cue"), `include_all: true`)
	SetConfigDirOverride(dir)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ProjectDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if !cfg.IncludeAll {
		t.Error("user config from the override directory should be loaded")
	}
}
