// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers that fail the test on error:
// environment and working directory overrides with restoring cleanups,
// and fixture trees of package files written to real or in-memory filesystems.
package testutil
