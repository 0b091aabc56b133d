// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the usage-rules command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "usage-rules",
		Short: "Gather dependency usage rules into one agent document",
		Long: TitleStyle.Render("usage-rules") + SubtitleStyle.Render(" - Gather dependency usage rules into one agent document") + `

usage-rules resolves the project's dependencies with its build tool
(go, cargo, or an explicit usage-rules.packages.toml), collects every
usage-rules.md the packages ship together with the files they reference,
and writes them into a marked block of an index document such as AGENTS.md.

` + SubtitleStyle.Render("Examples:") + `
  usage-rules list                          Show every package and its decision
  usage-rules sync --all                    Inline the rules of every package
  usage-rules sync --all --folder rules     One file per package, linked from the index
  usage-rules sync --inline cobra,viper     Only the named packages
  usage-rules show github.com/spf13/cobra   Preview a package's section`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.installLogger(flags.verbose)
		},
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().StringVarP(&flags.project, "project", "C", "", "project directory (default is the current directory)")
	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (replaces the user and project config files)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newSyncCommand(app, flags))
	rootCmd.AddCommand(newListCommand(app, flags))
	rootCmd.AddCommand(newShowCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Run executes the CLI with the process arguments and returns the exit code.
func Run() int {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))

	// fang.WithVersion is required because fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return 1
	}
	return 0
}

// Execute runs the CLI and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Run())
}
