// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-03-01T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-03-01T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		// Test binaries report Main.Version == "(devel)".
		Version = "dev"

		if got, want := getVersionString(), "dev (built from source)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestRootCommand_Tree(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(NewApp(Dependencies{}))

	for _, name := range []string{"sync", "list", "show", "config"} {
		sub, _, err := root.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not registered (err %v)", name, err)
		}
	}

	for _, flag := range []string{"project", "config", "verbose"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
	if f := root.PersistentFlags().ShorthandLookup("C"); f == nil || f.Name != "project" {
		t.Error("-C should be the shorthand of --project")
	}

	sync, _, _ := root.Find([]string{"sync"})
	for _, flag := range []string{"all", "inline", "remove", "output", "folder", "link-style", "fetch", "direct", "watch"} {
		if sync.Flags().Lookup(flag) == nil {
			t.Errorf("sync flag --%s missing", flag)
		}
	}
}

func TestRootCommand_Help(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := f.run("--help"); err != nil {
		t.Fatalf("--help: %v", err)
	}
	if !strings.Contains(f.stdout.String(), "usage-rules sync --all") {
		t.Errorf("help should show examples\n%s", f.stdout.String())
	}
}
