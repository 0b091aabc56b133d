// SPDX-License-Identifier: MPL-2.0

// Package graph resolves the dependency set of a project into Package records.
//
// The actual resolution is delegated to the project's build tool: the Go toolchain
// (`go list -m -json all`), Cargo (`cargo metadata`) or an explicit TOML manifest.
// Every Provider returns packages that are already de-duplicated by identity
// (name, version, source); Dedupe is available for callers that merge sets.
//
// File organization:
//   - package.go: Package, Key, Source and de-duplication
//   - provider.go: Provider interface, Kind and provider construction
//   - runner.go: process execution seam used by the toolchain-backed providers
//   - gomod.go, cargo.go, manifest.go: the concrete providers
package graph
