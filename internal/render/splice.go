// SPDX-License-Identifier: MPL-2.0

package render

import (
	"bytes"
)

// Splice replaces the generated region of existing with block, which must be
// a complete block as returned by Merged or Linked.
//
// Text before the first BlockStart and after the last BlockEnd is kept. A
// BlockStart without a closing BlockEnd is treated as a region running to the
// end of the text. Without any BlockStart all of existing is kept above the
// new block. Splicing the same block twice yields the same bytes.
func Splice(existing, block []byte) []byte {
	before, after := existing, []byte(nil)

	if start := bytes.Index(existing, []byte(BlockStart)); start >= 0 {
		before = existing[:start]
		if i := bytes.LastIndex(existing[start:], []byte(BlockEnd)); i >= 0 {
			after = existing[start+i+len(BlockEnd):]
		}
	}

	before = bytes.TrimRight(before, " \t\r\n")
	after = bytes.TrimLeft(after, " \t\r\n")

	var b bytes.Buffer
	if len(before) > 0 {
		b.Write(before)
		b.WriteString("\n\n")
	}
	b.Write(block)
	if len(after) > 0 {
		b.WriteString("\n")
		b.Write(after)
	}
	return b.Bytes()
}
