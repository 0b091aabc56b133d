// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const cargoMetadataOutput = `{
  "packages": [
    {
      "id": "app 0.1.0 (path+file:///src/app)",
      "name": "app",
      "version": "0.1.0",
      "source": null,
      "manifest_path": "/src/app/Cargo.toml",
      "dependencies": [{"name": "serde"}, {"name": "sibling"}]
    },
    {
      "id": "serde 1.0.200 (registry+https://github.com/rust-lang/crates.io-index)",
      "name": "serde",
      "version": "1.0.200",
      "source": "registry+https://github.com/rust-lang/crates.io-index",
      "manifest_path": "/home/u/.cargo/registry/src/serde-1.0.200/Cargo.toml",
      "dependencies": [{"name": "serde_derive"}]
    },
    {
      "id": "serde_derive 1.0.200 (registry+https://github.com/rust-lang/crates.io-index)",
      "name": "serde_derive",
      "version": "1.0.200",
      "source": "registry+https://github.com/rust-lang/crates.io-index",
      "manifest_path": "/home/u/.cargo/registry/src/serde_derive-1.0.200/Cargo.toml",
      "dependencies": []
    },
    {
      "id": "sibling 0.3.0 (git+https://example.com/sibling#abc)",
      "name": "sibling",
      "version": "0.3.0",
      "source": "git+https://example.com/sibling#abc",
      "manifest_path": "/home/u/.cargo/git/checkouts/sibling/abc/Cargo.toml",
      "dependencies": []
    }
  ],
  "workspace_members": ["app 0.1.0 (path+file:///src/app)"]
}`

func cargoProject(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, CargoFile), manifest)
	return dir
}

func TestCargo_Packages(t *testing.T) {
	t.Parallel()

	dir := cargoProject(t, "[package]\nname = \"app\"\nversion = \"0.1.0\"\n")
	runner := &fakeRunner{outputs: map[string]string{
		"cargo metadata --format-version 1 --offline": cargoMetadataOutput,
	}}

	got, err := NewCargo(Options{Runner: runner}).Packages(context.Background(), dir)
	if err != nil {
		t.Fatalf("Packages() error: %v", err)
	}

	want := []Package{
		{Name: "serde", Version: "1.0.200", Source: SourceRegistry, Root: "/home/u/.cargo/registry/src/serde-1.0.200"},
		{Name: "serde_derive", Version: "1.0.200", Source: SourceRegistry, Root: "/home/u/.cargo/registry/src/serde_derive-1.0.200"},
		{Name: "sibling", Version: "0.3.0", Source: SourceVCS, Root: "/home/u/.cargo/git/checkouts/sibling/abc"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Packages() mismatch (-want +got):\n%s", diff)
	}
}

func TestCargo_DirectOnly(t *testing.T) {
	t.Parallel()

	dir := cargoProject(t, "[package]\nname = \"app\"\n")
	runner := &fakeRunner{outputs: map[string]string{
		"cargo metadata --format-version 1": cargoMetadataOutput,
	}}

	got, err := NewCargo(Options{Runner: runner, DirectOnly: true, Fetch: true}).Packages(context.Background(), dir)
	if err != nil {
		t.Fatalf("Packages() error: %v", err)
	}

	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"serde", "sibling"}, names); diff != "" {
		t.Errorf("direct crates mismatch (-want +got):\n%s", diff)
	}
}

func TestCargo_DirectOnly_RootMissing(t *testing.T) {
	t.Parallel()

	dir := cargoProject(t, "[package]\nname = \"other\"\n")
	runner := &fakeRunner{outputs: map[string]string{
		"cargo metadata --format-version 1 --offline": cargoMetadataOutput,
	}}

	if _, err := NewCargo(Options{Runner: runner, DirectOnly: true}).Packages(context.Background(), dir); err == nil {
		t.Fatal("Packages() should fail when the root crate is absent from metadata")
	}
}

func TestCargo_VirtualWorkspace(t *testing.T) {
	t.Parallel()

	dir := cargoProject(t, "[workspace]\nmembers = [\"app\"]\n")
	runner := &fakeRunner{outputs: map[string]string{
		"cargo metadata --format-version 1 --offline": cargoMetadataOutput,
	}}

	got, err := NewCargo(Options{Runner: runner, DirectOnly: true}).Packages(context.Background(), dir)
	if err != nil {
		t.Fatalf("Packages() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Packages() = %v, want the two crates the members declare", got)
	}
}

func TestCargo_InvalidManifest(t *testing.T) {
	t.Parallel()

	dir := cargoProject(t, "[package\nname=")
	if _, err := NewCargo(Options{Runner: &fakeRunner{}}).Packages(context.Background(), dir); err == nil {
		t.Fatal("Packages() should fail on an unparsable Cargo.toml")
	}
}

func TestCargoSource(t *testing.T) {
	t.Parallel()

	git := "git+https://example.com/x#1"
	reg := "registry+https://github.com/rust-lang/crates.io-index"
	tests := []struct {
		src  *string
		want Source
	}{
		{nil, SourceLocal},
		{&git, SourceVCS},
		{&reg, SourceRegistry},
	}
	for _, tt := range tests {
		if got := cargoSource(tt.src); got != tt.want {
			t.Errorf("cargoSource() = %q, want %q", got, tt.want)
		}
	}
}
