// SPDX-License-Identifier: MPL-2.0

package guidance

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Reference detection is a heuristic rather than a grammar: a marker phrase
// followed by the first relative .md token on the same line. These cases pin
// down the behaviour, including lines where it picks the "wrong" token.
func TestScanReferences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"plain see", "See sub/a.md for details.", []string{"sub/a.md"}},
		{"dot slash", "see ./sub/a.md", []string{"./sub/a.md"}},
		{"parent dir", "Refer to ../shared/common.md when in doubt.", []string{"../shared/common.md"}},
		{"refer to with extra spaces", "refer   to extra.md", []string{"extra.md"}},
		{"markdown link", "For testing, see [the testing guide](docs/testing.md).", []string{"docs/testing.md"}},
		{"link with title", `See [x](x.md "Title")`, []string{"x.md"}},
		{"marker inside link text", "[see the details](details.md)", []string{"details.md"}},
		{"backticks", "See `rules/errors.md` for error handling.", []string{"rules/errors.md"}},
		{"bold path", "See **advanced.md**.", []string{"advanced.md"}},
		{"italic path", "See _advanced.md_, then continue.", []string{"advanced.md"}},
		{"leading underscore kept", "See _internals.md for details.", []string{"_internals.md"}},
		{"dunder name kept", "See `__init__.md`.", []string{"__init__.md"}},
		{"dunder name unquoted", "refer to __init__.md", []string{"__init__.md"}},
		{"fragment stripped", "See guide.md#install for setup.", []string{"guide.md"}},
		{"uppercase extension", "SEE NOTES.MD", []string{"NOTES.MD"}},
		{"first token wins", "See a.md and b.md", []string{"a.md"}},
		{"token before marker ignored", "b.md: see a.md", []string{"a.md"}},
		{"one per line", "See a.md\nnothing here\nrefer to c.md", []string{"a.md", "c.md"}},
		{"url rejected", "See https://example.com/guide.md for more.", nil},
		{"url skipped for later token", "See https://example.com/x.md or local.md", []string{"local.md"}},
		{"absolute path rejected", "See /etc/guide.md", nil},
		{"anchor rejected", "See #usage.md above", nil},
		{"not markdown", "See config.toml for settings.", nil},
		{"no marker", "Details live in sub/a.md.", nil},
		{"marker needs word boundary", "We have seen sub/a.md before. Overseer b.md", nil},
		{"bare extension", "see .md files", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ScanReferences([]byte(tt.content))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ScanReferences(%q) mismatch (-want +got):\n%s", tt.content, diff)
			}
		})
	}
}

func TestScanReferences_CRLF(t *testing.T) {
	t.Parallel()

	got := ScanReferences([]byte("See a.md\r\nSee b.md\r\n"))
	if diff := cmp.Diff([]string{"a.md", "b.md"}, got); diff != "" {
		t.Errorf("ScanReferences() mismatch (-want +got):\n%s", diff)
	}
}
