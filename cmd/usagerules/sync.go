// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/usagerules/usagerules/internal/config"
	"github.com/usagerules/usagerules/internal/engine"
	"github.com/usagerules/usagerules/internal/graph"
	"github.com/usagerules/usagerules/internal/issue"
	"github.com/usagerules/usagerules/internal/render"
	"github.com/usagerules/usagerules/internal/watch"
)

// syncFlags holds the sync overrides. Each value applies only when its flag is set.
type syncFlags struct {
	all       bool
	inline    []string
	remove    []string
	output    string
	folder    string
	linkStyle string
	fetch     bool
	direct    bool
	watch     bool
}

func newSyncCommand(app *App, flags *globalFlags) *cobra.Command {
	sf := &syncFlags{}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Write the selected usage rules into the index document",
		Long: `Write the selected usage rules into the index document.

Packages are selected in this order: a package on the remove list is
excluded, a package on the inline list is rendered into the index, and
with --all every other package is included too.

Without --folder every included package is rendered into the index. With
--folder, packages selected by --all get one file each in the folder and
the index links to them; inline packages stay in the index.

Only the marked usage-rules block of the index is replaced; text around it
is preserved.

With --watch the command keeps running and syncs again whenever the
configuration, the dependency manifest or the usage rules of an included
package change.`,
		Example: `  usage-rules sync --all
  usage-rules sync --inline github.com/spf13/cobra --remove github.com/spf13/pflag
  usage-rules sync --all --folder .rules --link-style at -o CLAUDE.md
  usage-rules sync --all --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, app, flags, sf)
		},
	}

	syncCmd.Flags().BoolVar(&sf.all, "all", false, "include every package with usage rules")
	syncCmd.Flags().StringSliceVar(&sf.inline, "inline", nil, "packages to render into the index (comma-separated)")
	syncCmd.Flags().StringSliceVar(&sf.remove, "remove", nil, "packages to always exclude (comma-separated)")
	syncCmd.Flags().StringVarP(&sf.output, "output", "o", "", "index document (default "+config.DefaultOutput+")")
	syncCmd.Flags().StringVar(&sf.folder, "folder", "", "write one file per linked package into this folder")
	syncCmd.Flags().StringVar(&sf.linkStyle, "link-style", "", "how the index links package files: markdown or at")
	syncCmd.Flags().BoolVar(&sf.fetch, "fetch", false, "let the build tool download missing packages")
	syncCmd.Flags().BoolVar(&sf.direct, "direct", false, "only the project's direct dependencies")
	syncCmd.Flags().BoolVarP(&sf.watch, "watch", "w", false, "sync again when usage rules or the manifest change")

	return syncCmd
}

// apply overlays the flags that were set on cfg.
func (sf *syncFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("all") {
		cfg.IncludeAll = sf.all
	}
	if f.Changed("inline") {
		cfg.Inline = packageNames(sf.inline)
	}
	if f.Changed("remove") {
		cfg.Remove = packageNames(sf.remove)
	}
	if f.Changed("output") {
		cfg.Output = config.OutputPath(sf.output)
	}
	if f.Changed("folder") {
		cfg.Folder = config.OutputPath(sf.folder)
	}
	if f.Changed("fetch") {
		cfg.Provider.Fetch = sf.fetch
	}
	if f.Changed("direct") {
		cfg.Provider.DirectOnly = sf.direct
	}
	if f.Changed("link-style") {
		if cfg.Folder == "" {
			return issue.NewErrorContext().
				WithIssue(issue.InvalidSelectionId).
				WithOperation("select link style").
				WithSuggestion("Pass --folder to write one file per package").
				Wrap(render.ErrFolderRequired).
				BuildError()
		}
		cfg.LinkStyle = render.LinkStyle(sf.linkStyle)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return issue.NewErrorContext().
			WithIssue(issue.InvalidSelectionId).
			WithOperation("validate sync options").
			Wrap(errs[0]).
			BuildError()
	}
	return nil
}

func runSync(cmd *cobra.Command, app *App, flags *globalFlags, sf *syncFlags) error {
	s, res, err := syncOnce(cmd, app, flags, sf)
	if err != nil {
		return err
	}
	if !sf.watch {
		return nil
	}

	roots := watchRoots(s.projectDir, res)
	w, err := watch.New(watch.Config{
		Roots:    roots,
		Patterns: watchPatterns,
		Skip:     outputPaths(res),
		OnChange: func(ctx context.Context, changed []string) error {
			slog.Debug("inputs changed", "paths", changed)
			_, _ = fmt.Fprintf(app.stdout, "\n%s %d file(s) changed, syncing again\n", SubtitleStyle.Render("↻"), len(changed))
			// Failures are reported by syncOnce; watching continues.
			_, _, _ = syncOnce(cmd, app, flags, sf)
			return nil
		},
	})
	if err != nil {
		return reportError(cmd, app.stderr, err, s.verbose)
	}

	_, _ = fmt.Fprintf(app.stdout, "\nWatching %d location(s) for changes. Press Ctrl+C to stop.\n", len(w.Roots()))
	if err := w.Run(cmd.Context()); err != nil {
		return reportError(cmd, app.stderr, err, s.verbose)
	}
	return nil
}

// watchPatterns select the files whose change can alter the output.
var watchPatterns = []string{
	"**/*.md",
	"**/*.cue",
	"**/" + graph.ManifestFile,
	"**/" + graph.GoModFile,
	"**/go.sum",
	"**/go.work",
	"**/" + graph.CargoFile,
	"**/Cargo.lock",
}

// watchRoots returns the project directory and the root of every included package.
func watchRoots(projectDir string, res *engine.SyncResult) []string {
	roots := []string{projectDir}
	for _, pkg := range res.Included {
		roots = append(roots, pkg.Root)
	}
	return roots
}

// outputPaths returns the files a sync writes, which must not retrigger it.
func outputPaths(res *engine.SyncResult) []string {
	paths := []string{res.IndexPath}
	if res.Folder != "" {
		paths = append(paths, res.Folder)
	}
	return paths
}

// syncOnce loads the configuration, applies the flags and runs one sync.
// Errors are reported before they are returned.
func syncOnce(cmd *cobra.Command, app *App, flags *globalFlags, sf *syncFlags) (*session, *engine.SyncResult, error) {
	s, err := app.open(cmd.Context(), flags)
	if err != nil {
		return nil, nil, reportError(cmd, app.stderr, err, flags.verbose)
	}
	if err := sf.apply(cmd, s.cfg); err != nil {
		return nil, nil, reportError(cmd, app.stderr, err, s.verbose)
	}

	eng, err := app.engine(s.cfg)
	if err != nil {
		return nil, nil, reportError(cmd, app.stderr, err, s.verbose)
	}

	res, err := eng.Sync(cmd.Context(), engine.SyncRequest{
		ManifestDir: s.projectDir,
		Policy:      s.cfg.Policy(),
		Output:      string(s.cfg.Output),
		Folder:      string(s.cfg.Folder),
		Style:       s.cfg.LinkStyle,
	})
	if res != nil {
		app.Diagnostics.Render(cmd.Context(), res.Diagnostics, app.stderr)
	}
	if err != nil {
		return nil, nil, reportError(cmd, app.stderr, classifyError("sync usage rules", s.projectDir, err), s.verbose)
	}

	printSyncResult(app.stdout, app.stderr, res, s.verbose)
	return s, res, nil
}

func printSyncResult(stdout, stderr io.Writer, res *engine.SyncResult, verbose bool) {
	for _, name := range res.Conflicts {
		_, _ = fmt.Fprintf(stderr, "%s: %s is on both the inline and remove lists; removed\n", WarningStyle.Render("warning"), name)
	}
	for _, name := range res.Unknown {
		_, _ = fmt.Fprintf(stderr, "%s: %s matches no dependency\n", WarningStyle.Render("warning"), name)
	}

	for _, pkg := range res.Included {
		_, _ = fmt.Fprintf(stdout, "%s %s\n", SuccessStyle.Render("✓"), packageLabel(pkg.Name, pkg.Version))
	}
	if len(res.Included) > 0 {
		_, _ = fmt.Fprintln(stdout)
	}

	_, _ = fmt.Fprintf(stdout, "%s %d packages: %d inline, %d linked, %d excluded, %d without usage rules\n",
		TitleStyle.Render("Processed"), res.Total, res.Inline, res.Linked, res.Excluded, res.NoGuidance)

	written := fmt.Sprintf("Wrote %s", CmdStyle.Render(res.IndexPath))
	if res.Folder != "" {
		written += fmt.Sprintf(" and %d file(s) in %s", len(res.Written.Paths)-1, CmdStyle.Render(res.Folder))
	}
	_, _ = fmt.Fprintf(stdout, "%s (%d changed, %d unchanged)\n", written, res.Written.Changed, res.Written.Unchanged)

	if verbose {
		for _, path := range res.Written.Paths {
			_, _ = fmt.Fprintf(stdout, "  %s\n", SubtitleStyle.Render(path))
		}
	}
}

func packageNames(names []string) []config.PackageName {
	out := make([]config.PackageName, 0, len(names))
	for _, n := range names {
		out = append(out, config.PackageName(n))
	}
	return out
}

func packageLabel(name, version string) string {
	if version == "" {
		return CmdStyle.Render(name)
	}
	return CmdStyle.Render(name) + " " + SubtitleStyle.Render(version)
}
