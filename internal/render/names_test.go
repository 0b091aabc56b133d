// SPDX-License-Identifier: MPL-2.0

package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/usagerules/usagerules/internal/graph"
	"github.com/usagerules/usagerules/internal/selection"
)

func TestFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"serde", "serde.md"},
		{"github.com/acme/log", "github.com__acme__log.md"},
		{"@scope/pkg", "@scope__pkg.md"},
		{"a b:c", "a-b-c.md"},
		{".hidden", "-hidden.md"},
		{"..", "--.md"},
		{"", "package.md"},
		{"naïve", "na-ve.md"},
	}
	for _, tt := range tests {
		if got := FileName(tt.name); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestAssignFileNames(t *testing.T) {
	t.Parallel()

	entry := func(name, version string, source graph.Source) Entry {
		return Entry{Doc: doc(name, version, source, "x"), Decision: selection.Linked}
	}

	tests := []struct {
		name    string
		entries []Entry
		want    []string
	}{
		{
			name:    "unique names",
			entries: []Entry{entry("a", "1", graph.SourceRegistry), entry("b", "1", graph.SourceRegistry)},
			want:    []string{"a.md", "b.md"},
		},
		{
			name:    "versions disambiguate",
			entries: []Entry{entry("util", "1.0.0", graph.SourceRegistry), entry("util", "2.0.0", graph.SourceRegistry)},
			want:    []string{"util@1.0.0.md", "util@2.0.0.md"},
		},
		{
			name:    "sources disambiguate",
			entries: []Entry{entry("util", "1.0.0", graph.SourceRegistry), entry("util", "1.0.0", graph.SourceLocal)},
			want:    []string{"util@1.0.0-registry.md", "util@1.0.0-local.md"},
		},
		{
			name: "only clashing names suffixed",
			entries: []Entry{
				entry("solo", "1.0.0", graph.SourceRegistry),
				entry("util", "1.0.0", graph.SourceRegistry),
				entry("util", "2.0.0", graph.SourceRegistry),
				entry("util", "2.0.0", graph.SourceVCS),
			},
			want: []string{"solo.md", "util@1.0.0.md", "util@2.0.0-registry.md", "util@2.0.0-vcs.md"},
		},
		{
			name:    "case folding clash",
			entries: []Entry{entry("Util", "1", graph.SourceRegistry), entry("util", "2", graph.SourceRegistry)},
			want:    []string{"Util@1.md", "util@2.md"},
		},
		{
			name:    "sanitized clash falls back to counter",
			entries: []Entry{entry("a/b", "", ""), entry("a__b", "", "")},
			want:    []string{"a__b.md", "a__b-2.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AssignFileNames(tt.entries)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("AssignFileNames() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
