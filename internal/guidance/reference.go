// SPDX-License-Identifier: MPL-2.0

package guidance

import (
	"bufio"
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// markerPattern finds the phrase that introduces a sub-file reference.
	markerPattern = regexp.MustCompile(`(?i)\b(?:see|refer\s+to)\b`)

	// tokenPattern splits the text after a marker into candidate tokens, in
	// order: markdown link targets, backtick spans, then bare words.
	tokenPattern = regexp.MustCompile("\\]\\(([^)\\s]+)[^)]*\\)|`([^`]+)`|([^\\s`()\\[\\]<>]+)")
)

// ScanReferences returns the sub-file references found in content, one per
// line at most, in line order.
//
// A line references a file when a marker phrase ("see", "refer to") is
// followed somewhere later on the line by a relative path ending in ".md".
// The first such token after the marker wins. URLs, absolute paths and bare
// anchors are never references; a "#fragment" suffix is dropped.
func ScanReferences(content []byte) []string {
	var refs []string
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	for sc.Scan() {
		if ref, ok := lineReference(sc.Text()); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func lineReference(line string) (string, bool) {
	loc := markerPattern.FindStringIndex(line)
	if loc == nil {
		return "", false
	}

	for _, m := range tokenPattern.FindAllStringSubmatch(line[loc[1]:], -1) {
		token := m[1]
		if token == "" {
			token = m[2]
		}
		if token == "" {
			token = m[3]
		}
		if ref, ok := relativeMarkdownPath(token); ok {
			return ref, true
		}
	}
	return "", false
}

// stripEmphasis removes matching markdown emphasis around token, as in
// "**x.md**" or "_x.md_". A lone leading underscore belongs to the file name.
func stripEmphasis(token string) string {
	for len(token) >= 2 && (token[0] == '*' || token[0] == '_') && token[len(token)-1] == token[0] {
		token = token[1 : len(token)-1]
	}
	return strings.TrimRight(token, ".,;:!?")
}

// relativeMarkdownPath reports whether token is a plausible relative path to a
// markdown file and returns it without trailing punctuation or fragment.
func relativeMarkdownPath(token string) (string, bool) {
	token = strings.TrimRight(token, ".,;:!?'\"")
	token = strings.TrimLeft(token, "'\"")
	token = stripEmphasis(token)

	if token == "" || strings.HasPrefix(token, "#") || strings.Contains(token, "://") {
		return "", false
	}
	if i := strings.IndexByte(token, '#'); i >= 0 {
		token = token[:i]
	}
	if strings.HasPrefix(token, "/") || filepath.IsAbs(token) || strings.HasPrefix(token, "mailto:") {
		return "", false
	}
	if len(token) <= len(".md") || !strings.EqualFold(token[len(token)-len(".md"):], ".md") {
		return "", false
	}
	return token, true
}
