// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the file or package involved and
// remediation hints. Errors can link to a catalog Issue whose Markdown page is
// rendered with glamour when the CLI runs in verbose mode.
package issue
