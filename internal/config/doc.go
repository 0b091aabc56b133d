// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Values are layered, later sources winning: built-in defaults, the user file
// (config.cue under $XDG_CONFIG_HOME/usage-rules, ~/Library/Application Support/usage-rules
// on macOS, %APPDATA%\usage-rules on Windows), the project file usage-rules.cue, and
// USAGE_RULES_* environment variables. A --config file replaces both files.
//
// Files are validated against an embedded CUE schema (config_schema.cue) before they are
// merged, so unknown fields and invalid enum values are reported with their CUE path.
package config
