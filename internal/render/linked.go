// SPDX-License-Identifier: MPL-2.0

package render

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/usagerules/usagerules/internal/selection"
)

const (
	// LinkMarkdown references linked files with a relative markdown link.
	LinkMarkdown LinkStyle = "markdown"
	// LinkAt references linked files with an "@path" reference, which some
	// agent tools resolve by loading the file eagerly.
	LinkAt LinkStyle = "at"
)

var (
	// ErrInvalidLinkStyle is the sentinel error wrapped by InvalidLinkStyleError.
	ErrInvalidLinkStyle = errors.New("invalid link style")

	// ErrFolderRequired is returned when linked mode is requested without a folder.
	ErrFolderRequired = errors.New("linked output requires a folder")
)

type (
	// LinkStyle selects how the index references linked files.
	LinkStyle string

	// InvalidLinkStyleError is returned when a LinkStyle value is not recognized.
	// It wraps ErrInvalidLinkStyle for errors.Is() compatibility.
	InvalidLinkStyleError struct {
		Value LinkStyle
	}

	// LinkedOptions configures linked-folder rendering.
	LinkedOptions struct {
		// IndexPath is the index document path.
		IndexPath string
		// Folder is the directory receiving one file per linked package.
		Folder string
		// Style is the link style used in the index. Defaults to LinkMarkdown.
		Style LinkStyle
	}
)

// Error implements the error interface.
func (e *InvalidLinkStyleError) Error() string {
	return fmt.Sprintf("invalid link style %q (valid: markdown, at)", e.Value)
}

// Unwrap returns ErrInvalidLinkStyle for errors.Is() compatibility.
func (e *InvalidLinkStyleError) Unwrap() error { return ErrInvalidLinkStyle }

// String returns the string representation of the LinkStyle.
func (s LinkStyle) String() string { return string(s) }

// IsValid returns whether the LinkStyle is one of the defined values,
// and a list of validation errors if it is not.
func (s LinkStyle) IsValid() (bool, []error) {
	switch s {
	case LinkMarkdown, LinkAt:
		return true, nil
	default:
		return false, []error{&InvalidLinkStyleError{Value: s}}
	}
}

// Link renders the index reference to target, a slash path relative to the
// index directory.
func (s LinkStyle) Link(name, target string) string {
	if s == LinkAt {
		return "@" + target
	}
	return "[" + name + " usage rules](" + target + ")"
}

// Linked renders the linked-folder layout. Inline entries become sections of
// the index; every linked entry gets a file in the folder and an index section
// holding the link.
func Linked(entries []Entry, opts LinkedOptions) (*Plan, error) {
	if opts.Folder == "" {
		return nil, ErrFolderRequired
	}
	if opts.Style == "" {
		opts.Style = LinkMarkdown
	}
	if ok, errs := opts.Style.IsValid(); !ok {
		return nil, errs[0]
	}

	included := Included(entries)
	var linked []Entry
	for _, e := range included {
		if e.Decision == selection.Linked {
			linked = append(linked, e)
		}
	}
	names := AssignFileNames(linked)

	indexPath := filepath.Clean(opts.IndexPath)
	indexDir := filepath.Dir(indexPath)
	plan := &Plan{Files: make([]File, 0, len(linked))}
	targets := make(map[int]string, len(linked))

	li := 0
	for i, e := range included {
		if e.Decision != selection.Linked {
			continue
		}
		path := filepath.Join(opts.Folder, names[li])
		li++
		if path == indexPath {
			return nil, fmt.Errorf("linked file for %s would overwrite the index %s", e.Doc.Package, indexPath)
		}
		rel, err := filepath.Rel(indexDir, path)
		if err != nil {
			return nil, fmt.Errorf("failed to link %s from %s: %w", path, indexPath, err)
		}
		key := e.Key()
		plan.Files = append(plan.Files, File{Path: path, Package: &key, Content: Section(e.Doc)})
		targets[i] = filepath.ToSlash(rel)
	}

	sections := make([][]byte, 0, len(included))
	for i, e := range included {
		target, isLinked := targets[i]
		if !isLinked {
			sections = append(sections, Section(e.Doc))
			continue
		}
		sections = append(sections, linkSection(e, opts.Style.Link(e.Doc.Package.Name, target)))
	}

	plan.Index = File{Path: opts.IndexPath, Content: block(Header(len(linked) > 0), sections)}
	return plan, nil
}

func linkSection(e Entry, link string) []byte {
	var b bytes.Buffer
	b.WriteString(PackageStart(e.Key()))
	b.WriteString("\n")
	writeHeading(&b, e.Doc.Package.Name)
	b.WriteString(link)
	b.WriteString("\n\n")
	b.WriteString(PackageEnd(e.Key()))
	b.WriteString("\n")
	return b.Bytes()
}

// FileName maps a package name to a portable markdown file name: path
// separators become "__", anything outside [A-Za-z0-9._@-] becomes "-".
func FileName(name string) string {
	return sanitize(name) + ".md"
}

// AssignFileNames returns one distinct file name per entry, in entry order.
// A name shared by several entries is suffixed with "@<version>"; entries
// still clashing get "-<source>", and any remaining clash a counter. Names are
// compared case-insensitively so case-folding filesystems are safe.
func AssignFileNames(entries []Entry) []string {
	stems := make([]string, len(entries))
	for i, e := range entries {
		stems[i] = sanitize(e.Doc.Package.Name)
	}

	disambiguate(stems, func(i int) string {
		if v := entries[i].Doc.Package.Version; v != "" {
			return "@" + sanitize(v)
		}
		return ""
	})
	disambiguate(stems, func(i int) string {
		if s := entries[i].Doc.Package.Source; s != "" {
			return "-" + sanitize(string(s))
		}
		return ""
	})

	used := make(map[string]bool, len(stems))
	names := make([]string, len(stems))
	for i, stem := range stems {
		candidate := stem
		for n := 2; used[strings.ToLower(candidate)]; n++ {
			candidate = stem + "-" + strconv.Itoa(n)
		}
		used[strings.ToLower(candidate)] = true
		names[i] = candidate + ".md"
	}
	return names
}

// disambiguate appends suffix(i) to every stem that is shared with another.
func disambiguate(stems []string, suffix func(int) string) {
	counts := make(map[string]int, len(stems))
	for _, s := range stems {
		counts[strings.ToLower(s)]++
	}
	for i, s := range stems {
		if counts[strings.ToLower(s)] > 1 {
			stems[i] = s + suffix(i)
		}
	}
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '/' || r == '\\':
			b.WriteString("__")
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-', r == '@':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := b.String()
	if trimmed := strings.TrimLeft(out, "."); trimmed != out {
		out = strings.Repeat("-", len(out)-len(trimmed)) + trimmed
	}
	if out == "" {
		return "package"
	}
	return out
}
