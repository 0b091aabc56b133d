// SPDX-License-Identifier: MPL-2.0

package render

import (
	"strconv"
	"strings"

	"github.com/usagerules/usagerules/internal/graph"
)

const (
	// BlockStart opens the generated region of an output document.
	BlockStart = "<!-- usage-rules-start -->"
	// BlockEnd closes the generated region of an output document.
	BlockEnd = "<!-- usage-rules-end -->"

	markerPrefix = "<!-- usage-rules:"
	markerSuffix = " -->"
)

// PackageStart returns the marker opening the section of the package k.
func PackageStart(k graph.Key) string {
	return markerPrefix + "package " + keyAttrs(k) + markerSuffix
}

// PackageEnd returns the marker closing the section of the package k. It
// carries the full identity so sections of same-named packages stay distinct.
func PackageEnd(k graph.Key) string {
	return markerPrefix + "package-end " + keyAttrs(k) + markerSuffix
}

// FileStart returns the marker preceding an included sub-file.
func FileStart(rel string) string {
	return markerPrefix + "file path=" + attr(rel) + markerSuffix
}

func keyAttrs(k graph.Key) string {
	return "name=" + attr(k.Name) + " version=" + attr(k.Version) + " source=" + attr(string(k.Source))
}

// attr quotes an attribute value. '>' is escaped as \u003e so a value
// containing "-->" cannot close the comment; strconv.Unquote restores it.
func attr(v string) string {
	return strings.ReplaceAll(strconv.Quote(v), ">", `\u003e`)
}
