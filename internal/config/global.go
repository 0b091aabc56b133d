// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the platform config directory when set.
var configDirOverride string

// Reset clears overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride makes ConfigDir return dir.
// os.UserHomeDir does not honor HOME on every platform, so tests use this
// instead of rewriting the environment.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
