// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/usagerules/usagerules/internal/graph"
	"github.com/usagerules/usagerules/internal/guidance"
	"github.com/usagerules/usagerules/internal/output"
	"github.com/usagerules/usagerules/internal/render"
	"github.com/usagerules/usagerules/internal/selection"
)

const projectDir = "/proj"

type (
	staticProvider struct {
		pkgs []graph.Package
		err  error
	}

	// readOnlyPathFs rejects writes below one directory.
	readOnlyPathFs struct {
		afero.Fs
		prefix string
	}
)

func (p staticProvider) Packages(context.Context, string) ([]graph.Package, error) {
	return p.pkgs, p.err
}

func (f readOnlyPathFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if strings.HasPrefix(name, f.prefix) && flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: syscall.EACCES}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func pkg(name, version string) graph.Package {
	return graph.Package{Name: name, Version: version, Source: graph.SourceRegistry, Root: "/deps/" + name + "@" + version}
}

func addGuidance(t *testing.T, fsys afero.Fs, p graph.Package, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(p.Root, filepath.FromSlash(rel))
		if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newEngine(fsys afero.Fs, pkgs ...graph.Package) *Engine {
	return New(staticProvider{pkgs: pkgs}, guidance.NewLocator(fsys, true), output.NewWriter(fsys))
}

func readFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestSync_MergedOnlyGuidedPackages(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	alpha, beta := pkg("alpha", "1.0.0"), pkg("beta", "1.0.0")
	addGuidance(t, fsys, alpha, map[string]string{guidance.PrimaryFileName: "alpha rules\n"})
	addGuidance(t, fsys, beta, map[string]string{"README.md": "no guidance\n"})

	res, err := newEngine(fsys, beta, alpha).Sync(context.Background(), SyncRequest{
		ManifestDir: projectDir,
		Policy:      selection.Policy{IncludeAll: true},
	})
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	if res.IndexPath != "/proj/AGENTS.md" {
		t.Errorf("IndexPath = %q, want default output", res.IndexPath)
	}
	if res.Total != 2 || res.Linked != 1 || res.NoGuidance != 1 || res.Excluded != 0 {
		t.Errorf("counts = total %d linked %d no-guidance %d excluded %d", res.Total, res.Linked, res.NoGuidance, res.Excluded)
	}

	out := readFile(t, fsys, res.IndexPath)
	if n := strings.Count(out, "<!-- usage-rules:package name="); n != 1 {
		t.Errorf("output has %d sections, want 1:\n%s", n, out)
	}
	if !strings.Contains(out, "alpha rules") || strings.Contains(out, "beta") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSync_CycleIncludedOnce(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	gamma := pkg("gamma", "0.1.0")
	addGuidance(t, fsys, gamma, map[string]string{
		guidance.PrimaryFileName: "GAMMA-PRIMARY\nSee ./sub/a.md for more.\n",
		"sub/a.md":               "GAMMA-SUB\nSee ../usage-rules.md.\n",
	})

	res, err := newEngine(fsys, gamma).Sync(context.Background(), SyncRequest{
		ManifestDir: projectDir,
		Policy:      selection.Policy{Inline: []string{"gamma"}},
	})
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	out := readFile(t, fsys, res.IndexPath)
	for _, s := range []string{"GAMMA-PRIMARY", "GAMMA-SUB", "## gamma usage"} {
		if n := strings.Count(out, s); n != 1 {
			t.Errorf("%q appears %d times, want 1", s, n)
		}
	}
	if res.Inline != 1 {
		t.Errorf("Inline = %d, want 1", res.Inline)
	}
}

func TestSync_InlineAndRemoveConflict(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	delta := pkg("delta", "1.0.0")
	addGuidance(t, fsys, delta, map[string]string{guidance.PrimaryFileName: "DELTA\n"})

	res, err := newEngine(fsys, delta).Sync(context.Background(), SyncRequest{
		ManifestDir: projectDir,
		Policy:      selection.Policy{IncludeAll: true, Inline: []string{"delta"}, Remove: []string{"delta"}},
	})
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	if res.Excluded != 1 || len(res.Included) != 0 {
		t.Errorf("delta should be excluded, got %+v", res)
	}
	if diff := cmp.Diff([]string{"delta"}, res.Conflicts); diff != "" {
		t.Errorf("Conflicts mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(readFile(t, fsys, res.IndexPath), "DELTA") {
		t.Error("excluded package rendered")
	}
}

func TestSync_LinkedSameNameVersions(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	v1, v2 := pkg("util", "1.0.0"), pkg("util", "2.0.0")
	addGuidance(t, fsys, v1, map[string]string{guidance.PrimaryFileName: "util one\n"})
	addGuidance(t, fsys, v2, map[string]string{guidance.PrimaryFileName: "util two\n"})

	res, err := newEngine(fsys, v2, v1).Sync(context.Background(), SyncRequest{
		ManifestDir: projectDir,
		Policy:      selection.Policy{IncludeAll: true},
		Folder:      "usage_rules",
		Style:       render.LinkMarkdown,
	})
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	if res.Folder != "/proj/usage_rules" {
		t.Errorf("Folder = %q", res.Folder)
	}
	if got := readFile(t, fsys, "/proj/usage_rules/util@1.0.0.md"); !strings.Contains(got, "util one") {
		t.Errorf("util@1.0.0.md = %q", got)
	}
	if got := readFile(t, fsys, "/proj/usage_rules/util@2.0.0.md"); !strings.Contains(got, "util two") {
		t.Errorf("util@2.0.0.md = %q", got)
	}

	index := readFile(t, fsys, res.IndexPath)
	for _, link := range []string{"(usage_rules/util@1.0.0.md)", "(usage_rules/util@2.0.0.md)"} {
		if !strings.Contains(index, link) {
			t.Errorf("index missing link %s:\n%s", link, index)
		}
	}
	if res.Written.Changed != 3 {
		t.Errorf("Written.Changed = %d, want 3", res.Written.Changed)
	}
}

func TestSync_Idempotent(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	a, b := pkg("a", "1.0.0"), pkg("b", "1.0.0")
	addGuidance(t, fsys, a, map[string]string{guidance.PrimaryFileName: "a\n", "usage_rules/x.md": "x\n"})
	addGuidance(t, fsys, b, map[string]string{guidance.PrimaryFileName: "b\nSee missing.md\n"})
	if err := afero.WriteFile(fsys, "/proj/AGENTS.md", []byte("# Hand written\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := SyncRequest{ManifestDir: projectDir, Policy: selection.Policy{IncludeAll: true, Inline: []string{"b"}}, Folder: "rules", Style: render.LinkAt}
	eng := newEngine(fsys, a, b)

	if _, err := eng.Sync(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	first := readFile(t, fsys, "/proj/AGENTS.md")
	firstLinked := readFile(t, fsys, "/proj/rules/a.md")

	res, err := newEngine(fsys, b, a).Sync(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Written.Changed != 0 {
		t.Errorf("second Sync() rewrote %d files", res.Written.Changed)
	}
	if got := readFile(t, fsys, "/proj/AGENTS.md"); got != first {
		t.Errorf("index differs between runs:\n%s\n---\n%s", first, got)
	}
	if got := readFile(t, fsys, "/proj/rules/a.md"); got != firstLinked {
		t.Error("linked file differs between runs")
	}
	if !strings.HasPrefix(first, "# Hand written\n\n") {
		t.Errorf("preamble lost:\n%s", first)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != guidance.CodeReferenceNotFound {
		t.Errorf("Diagnostics = %v, want one reference_not_found", res.Diagnostics)
	}
}

func TestSync_ProviderFailureWritesNothing(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	eng := New(staticProvider{err: errors.New("go.mod: no such file")}, guidance.NewLocator(fsys, true), output.NewWriter(fsys))

	_, err := eng.Sync(context.Background(), SyncRequest{ManifestDir: projectDir, Policy: selection.Policy{IncludeAll: true}})
	var pErr *ProviderError
	if !errors.As(err, &pErr) {
		t.Fatalf("Sync() error = %v, want *ProviderError", err)
	}
	if ok, _ := afero.Exists(fsys, "/proj/AGENTS.md"); ok {
		t.Error("no output may be written when the provider fails")
	}
}

func TestSync_WriteFailureNamesPackage(t *testing.T) {
	t.Parallel()

	mem := afero.NewMemMapFs()
	a, b := pkg("a", "1.0.0"), pkg("b", "1.0.0")
	addGuidance(t, mem, a, map[string]string{guidance.PrimaryFileName: "a\n"})
	addGuidance(t, mem, b, map[string]string{guidance.PrimaryFileName: "b\n"})
	fsys := readOnlyPathFs{Fs: mem, prefix: "/proj/rules/b"}

	_, err := newEngine(fsys, a, b).Sync(context.Background(), SyncRequest{
		ManifestDir: projectDir,
		Policy:      selection.Policy{IncludeAll: true},
		Folder:      "rules",
	})

	var wErr *output.WriteError
	if !errors.As(err, &wErr) {
		t.Fatalf("Sync() error = %v, want *output.WriteError", err)
	}
	if wErr.Package == nil || wErr.Package.Name != "b" {
		t.Errorf("WriteError.Package = %v, want b", wErr.Package)
	}
	if ok, _ := afero.Exists(mem, "/proj/rules/a.md"); !ok {
		t.Error("files written before the failure should remain")
	}
}

func TestSync_UnknownNames(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	res, err := newEngine(fsys, pkg("alpha", "1")).Sync(context.Background(), SyncRequest{
		ManifestDir: projectDir,
		Policy:      selection.Policy{Inline: []string{"alhpa"}},
		Output:      "/elsewhere/CLAUDE.md",
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"alhpa"}, res.Unknown); diff != "" {
		t.Errorf("Unknown mismatch (-want +got):\n%s", diff)
	}
	if res.IndexPath != "/elsewhere/CLAUDE.md" {
		t.Errorf("IndexPath = %q", res.IndexPath)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	alpha, beta, gamma := pkg("alpha", "1.0.0"), pkg("beta", "2.0.0"), pkg("gamma", "0.1.0")
	addGuidance(t, fsys, alpha, map[string]string{guidance.PrimaryFileName: "See a.md\nSee b.md\n", "a.md": "a", "b.md": "b"})
	addGuidance(t, fsys, gamma, map[string]string{guidance.PrimaryFileName: "g"})

	res, err := newEngine(fsys, gamma, beta, alpha).List(context.Background(), ListRequest{
		ManifestDir: projectDir,
		Policy:      selection.Policy{IncludeAll: true, Remove: []string{"gamma"}},
	})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}

	want := []ListRow{
		{Package: alpha, HasGuidance: true, Includes: 2, Decision: selection.Linked},
		{Package: beta, HasGuidance: false, Decision: selection.Linked},
		{Package: gamma, HasGuidance: true, Decision: selection.Excluded},
	}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Errorf("Rows mismatch (-want +got):\n%s", diff)
	}
	if ok, _ := afero.Exists(fsys, "/proj/AGENTS.md"); ok {
		t.Error("List() must not write output")
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	v1, v2, other := pkg("util", "1.0.0"), pkg("util", "2.0.0"), pkg("other", "1.0.0")
	addGuidance(t, fsys, v1, map[string]string{guidance.PrimaryFileName: "one\n"})
	eng := newEngine(fsys, v2, other, v1)

	res, err := eng.Preview(context.Background(), projectDir, "util")
	if err != nil {
		t.Fatalf("Preview() error: %v", err)
	}
	if len(res.Packages) != 2 || len(res.Documents) != 1 {
		t.Fatalf("Preview() packages %d documents %d, want 2 and 1", len(res.Packages), len(res.Documents))
	}
	if diff := cmp.Diff(string(render.Section(res.Documents[0])), string(res.Rendered)); diff != "" {
		t.Errorf("Rendered mismatch (-want +got):\n%s", diff)
	}

	if _, err := eng.Preview(context.Background(), projectDir, "missing"); !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("Preview(missing) error = %v, want ErrPackageNotFound", err)
	}
}
