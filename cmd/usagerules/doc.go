// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the usage-rules CLI.
//
// The Cobra command tree is built by NewRootCommand around an App, the
// composition root holding the configuration provider, the dependency graph
// provider factory and the filesystem. Tests build an App with fakes; main
// calls Execute, which runs the tree through fang.
package cmd
