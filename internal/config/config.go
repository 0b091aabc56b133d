// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/usagerules/usagerules/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "usage-rules"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// ProjectFileName is the per-project config file.
	ProjectFileName = "usage-rules.cue"
	// EnvPrefix prefixes environment overrides (USAGE_RULES_OUTPUT, USAGE_RULES_PROVIDER_KIND, ...).
	EnvPrefix = "USAGE_RULES"
)

//go:embed config_schema.cue
var configSchema string

type (
	// Paths lists the configuration files that apply to a load.
	Paths struct {
		// Explicit is the --config file; when set it is the only file loaded.
		Explicit string
		// User is the user-level config file.
		User string
		// Project is the project-level config file.
		Project string
	}
)

// ConfigDir returns the usage-rules configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ResolvePaths returns the configuration files a load with opts would read.
// Files that do not exist are left empty, except an explicit file, which is
// returned as given.
func ResolvePaths(opts LoadOptions) (Paths, error) {
	if opts.ConfigFilePath != "" {
		return Paths{Explicit: opts.ConfigFilePath}, nil
	}

	var paths Paths
	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return Paths{}, err
	}
	if userPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(userPath) {
		paths.User = userPath
	}
	if opts.ProjectDir != "" {
		if projectPath := filepath.Join(opts.ProjectDir, ProjectFileName); fileExists(projectPath) {
			paths.Project = projectPath
		}
	}
	return paths, nil
}

// Files returns the existing files in load order.
func (p Paths) Files() []string {
	var files []string
	for _, f := range []string{p.Explicit, p.User, p.Project} {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// loadWithOptions performs option-driven config loading without mutating
// package-level cache state. Defaults are overlaid by the user file, then the
// project file, then USAGE_RULES_* environment variables.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, Paths, error) {
	select {
	case <-ctx.Done():
		return nil, Paths{}, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("output", defaults.Output)
	v.SetDefault("folder", defaults.Folder)
	v.SetDefault("link_style", defaults.LinkStyle)
	v.SetDefault("include_all", defaults.IncludeAll)
	v.SetDefault("inline", defaults.Inline)
	v.SetDefault("remove", defaults.Remove)
	v.SetDefault("rules_dir", defaults.RulesDir)
	v.SetDefault("provider.kind", defaults.Provider.Kind)
	v.SetDefault("provider.direct_only", defaults.Provider.DirectOnly)
	v.SetDefault("provider.fetch", defaults.Provider.Fetch)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A --config file must exist; the conventional locations are optional.
	if opts.ConfigFilePath != "" && !fileExists(opts.ConfigFilePath) {
		return nil, Paths{}, issue.NewErrorContext().
			WithIssue(issue.ConfigLoadFailedId).
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Check that the file exists and is readable").
			WithSuggestion("Use 'usage-rules config show' to see the default configuration").
			Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
			BuildError()
	}

	paths, err := ResolvePaths(opts)
	if err != nil {
		return nil, Paths{}, err
	}

	for _, path := range paths.Files() {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, Paths{}, issue.NewErrorContext().
				WithIssue(issue.ConfigLoadFailedId).
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("See 'usage-rules config --help' for configuration options").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, Paths{}, fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the CUE schema, so validate the merged result.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, Paths{}, issue.NewErrorContext().
			WithIssue(issue.ConfigLoadFailedId).
			WithOperation("validate configuration").
			WithSuggestion("Check " + EnvPrefix + "_* environment variables for typos").
			WithSuggestion("Run 'usage-rules config show' to inspect the effective values").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, paths, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// The file decodes to map[string]any rather than a struct so Viper keeps
// layering defaults, later files and environment overrides on top of it.
// Concrete(false) is used because every field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := checkFileSize(data, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	// Unify with schema to validate against #Config definition
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default usage-rules.cue into projectDir and
// returns its path. An existing file is left untouched and created is false.
func CreateDefaultConfig(projectDir string) (path string, created bool, err error) {
	path = filepath.Join(projectDir, ProjectFileName)

	if _, statErr := os.Stat(path); statErr == nil {
		return path, false, nil
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return path, false, fmt.Errorf("failed to write config file: %w", err)
	}
	return path, true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// usage-rules configuration\n")
	sb.WriteString("// Flags override these values; USAGE_RULES_* environment variables override both files.\n\n")

	fmt.Fprintf(&sb, "output: %q\n", cfg.Output)
	if cfg.Folder != "" {
		fmt.Fprintf(&sb, "folder: %q\n", cfg.Folder)
	} else {
		sb.WriteString("// folder: \"usage_rules\" // uncomment for one file per linked package\n")
	}
	fmt.Fprintf(&sb, "link_style: %q\n", cfg.LinkStyle)
	fmt.Fprintf(&sb, "include_all: %v\n", cfg.IncludeAll)
	fmt.Fprintf(&sb, "inline: %s\n", cueList(cfg.Inline))
	fmt.Fprintf(&sb, "remove: %s\n", cueList(cfg.Remove))
	fmt.Fprintf(&sb, "rules_dir: %v\n", cfg.RulesDir)

	sb.WriteString("\nprovider: {\n")
	fmt.Fprintf(&sb, "\tkind: %q\n", cfg.Provider.Kind)
	fmt.Fprintf(&sb, "\tdirect_only: %v\n", cfg.Provider.DirectOnly)
	fmt.Fprintf(&sb, "\tfetch: %v\n", cfg.Provider.Fetch)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(list []PackageName) string {
	if len(list) == 0 {
		return "[]"
	}
	quoted := make([]string, 0, len(list))
	for _, n := range list {
		quoted = append(quoted, fmt.Sprintf("%q", n))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
