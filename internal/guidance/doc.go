// SPDX-License-Identifier: MPL-2.0

// Package guidance locates the usage-rules documents a package ships and
// resolves the sub-files they reference.
//
// A package participates when its root holds usage-rules.md. Starting from that
// file the locator follows "see <path>.md" style references depth-first,
// pre-order, including every distinct file once. It can additionally sweep the
// conventional usage_rules/ directory for markdown files no reference reached.
//
// File organization:
//   - diagnostic.go: Non-fatal diagnostics returned to callers
//   - reference.go: Line scanner for sub-file references
//   - locator.go: Document discovery and traversal
package guidance
