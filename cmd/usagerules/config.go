// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/usagerules/usagerules/internal/config"
)

// newConfigCommand creates the `usage-rules config` command tree.
func newConfigCommand(app *App, flags *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage usage-rules configuration",
		Long: `Manage usage-rules configuration.

Configuration is read from, later files winning:
  - the user file:
      Linux: ~/.config/usage-rules/config.cue
      macOS: ~/Library/Application Support/usage-rules/config.cue
      Windows: %APPDATA%\usage-rules\config.cue
  - the project file: usage-rules.cue in the project directory
  - USAGE_RULES_* environment variables (e.g. USAGE_RULES_OUTPUT)

A file passed with --config replaces both files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context(), flags)
			if err != nil {
				return reportError(cmd, app.stderr, err, flags.verbose)
			}
			_, _ = fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default usage-rules.cue in the project directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(flags)
			if err != nil {
				return reportError(cmd, app.stderr, err, flags.verbose)
			}
			path, created, err := config.CreateDefaultConfig(dir)
			if err != nil {
				return reportError(cmd, app.stderr, err, flags.verbose)
			}
			if !created {
				_, _ = fmt.Fprintf(app.stdout, "%s already exists, left unchanged\n", CmdStyle.Render(path))
				return nil
			}
			_, _ = fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration files that apply",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(flags)
			if err != nil {
				return reportError(cmd, app.stderr, err, flags.verbose)
			}
			paths, err := config.ResolvePaths(config.LoadOptions{ConfigFilePath: flags.configFile, ProjectDir: dir})
			if err != nil {
				return reportError(cmd, app.stderr, err, flags.verbose)
			}

			if paths.Explicit != "" {
				_, _ = fmt.Fprintf(app.stdout, "Config file: %s\n", paths.Explicit)
				return nil
			}

			cfgDir, err := config.ConfigDir()
			if err != nil {
				return reportError(cmd, app.stderr, err, flags.verbose)
			}
			_, _ = fmt.Fprintf(app.stdout, "User config: %s\n", orMissing(paths.User, filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)))
			_, _ = fmt.Fprintf(app.stdout, "Project config: %s\n", orMissing(paths.Project, filepath.Join(dir, config.ProjectFileName)))
			return nil
		},
	})

	return cfgCmd
}

func projectDir(flags *globalFlags) (string, error) {
	dir := flags.project
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project directory: %w", err)
	}
	return abs, nil
}

func orMissing(found, expected string) string {
	if found != "" {
		return found
	}
	return expected + " " + SubtitleStyle.Render("(not found)")
}
