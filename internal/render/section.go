// SPDX-License-Identifier: MPL-2.0

package render

import (
	"bytes"
	"slices"

	"github.com/usagerules/usagerules/internal/graph"
	"github.com/usagerules/usagerules/internal/guidance"
	"github.com/usagerules/usagerules/internal/selection"
)

const (
	headerText = "IMPORTANT: Consult these usage rules early and often when working with the packages listed below. " +
		"Before attempting to use any of these packages or to discover if you should use them, review their usage rules " +
		"to understand the correct patterns, conventions, and best practices."

	linkedNote = "Each package's usage rules are contained in separate files within the linked folder. " +
		"Please refer to the individual files for detailed usage instructions."
)

type (
	// Entry is one package's located guidance together with its decision.
	Entry struct {
		Doc      *guidance.Document
		Decision selection.Decision
	}

	// File is one document to write.
	File struct {
		// Path is where the document goes.
		Path string
		// Package is the package whose guidance the file holds; nil for the index.
		Package *graph.Key
		// Content is the rendered document. For the index this is the generated
		// block only, to be spliced into any existing file.
		Content []byte
	}

	// Plan is the full set of documents one run produces.
	Plan struct {
		Index File
		Files []File
	}
)

// Key returns the identity of the entry's package.
func (e Entry) Key() graph.Key { return e.Doc.Package.Key() }

// Included returns the entries that reach the output, ordered by package name,
// then version, then source. Entries without a document or with an excluding
// decision are dropped.
func Included(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Doc != nil && e.Decision.Included() {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		return graph.Compare(a.Doc.Package, b.Doc.Package)
	})
	return out
}

// Header returns the preface of a generated block.
func Header(linked bool) string {
	if linked {
		return headerText + "\n\n" + linkedNote + "\n"
	}
	return headerText + "\n"
}

// Section renders the complete guidance of one package: opening marker,
// heading, primary content, every sub-file behind its own marker, closing marker.
func Section(doc *guidance.Document) []byte {
	var b bytes.Buffer
	b.WriteString(PackageStart(doc.Package.Key()))
	b.WriteString("\n")
	writeHeading(&b, doc.Package.Name)
	writeContent(&b, doc.Primary.Content)
	for _, inc := range doc.Includes {
		b.WriteString("\n")
		b.WriteString(FileStart(inc.Rel))
		b.WriteString("\n")
		writeContent(&b, inc.Content)
	}
	b.WriteString("\n")
	b.WriteString(PackageEnd(doc.Package.Key()))
	b.WriteString("\n")
	return b.Bytes()
}

// Merged renders every included entry as a section of one block.
func Merged(entries []Entry) []byte {
	included := Included(entries)
	sections := make([][]byte, 0, len(included))
	for _, e := range included {
		sections = append(sections, Section(e.Doc))
	}
	return block(Header(false), sections)
}

// MergedPlan returns the plan of a merged-mode run writing indexPath.
func MergedPlan(indexPath string, entries []Entry) *Plan {
	return &Plan{Index: File{Path: indexPath, Content: Merged(entries)}}
}

// block wraps sections between the block markers. An empty block carries no
// header so a project without guidance gets an empty generated region.
func block(header string, sections [][]byte) []byte {
	var b bytes.Buffer
	b.WriteString(BlockStart)
	b.WriteString("\n")
	if len(sections) > 0 {
		b.WriteString(header)
		for _, s := range sections {
			b.WriteString("\n")
			b.Write(s)
		}
		b.WriteString("\n")
	}
	b.WriteString(BlockEnd)
	b.WriteString("\n")
	return b.Bytes()
}

func writeHeading(b *bytes.Buffer, name string) {
	b.WriteString("## ")
	b.WriteString(name)
	b.WriteString(" usage\n\n")
}

// writeContent copies content verbatim, terminating it with a newline.
func writeContent(b *bytes.Buffer, content []byte) {
	if len(content) == 0 {
		return
	}
	b.Write(content)
	if content[len(content)-1] != '\n' {
		b.WriteString("\n")
	}
}
