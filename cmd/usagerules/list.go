// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/usagerules/usagerules/internal/engine"
)

func newListCommand(app *App, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List dependencies and their usage rules",
		Long: `List every resolved dependency, whether it ships usage rules, how many
sub-files its rules include, and what the configured selection does with it.

  [✓] name version (N sub-files) → decision`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context(), flags)
			if err != nil {
				return reportError(cmd, app.stderr, err, flags.verbose)
			}

			eng, err := app.engine(s.cfg)
			if err != nil {
				return reportError(cmd, app.stderr, err, s.verbose)
			}

			res, err := eng.List(cmd.Context(), engine.ListRequest{ManifestDir: s.projectDir, Policy: s.cfg.Policy()})
			if err != nil {
				return reportError(cmd, app.stderr, classifyError("list packages", s.projectDir, err), s.verbose)
			}

			app.Diagnostics.Render(cmd.Context(), res.Diagnostics, app.stderr)
			printListResult(app.stdout, res)
			return nil
		},
	}
}

func printListResult(w io.Writer, res *engine.ListResult) {
	if len(res.Rows) == 0 {
		_, _ = fmt.Fprintln(w, SubtitleStyle.Render("No dependencies found."))
		return
	}

	withRules := 0
	for _, row := range res.Rows {
		mark := "[ ]"
		if row.HasGuidance {
			mark = "[" + SuccessStyle.Render("✓") + "]"
			withRules++
		}

		line := mark + " " + packageLabel(row.Package.Name, row.Package.Version)
		if row.HasGuidance {
			line += fmt.Sprintf(" (%d sub-files)", row.Includes)
		}
		line += " → " + decisionStyles[row.Decision].Render(row.Decision.String())
		_, _ = fmt.Fprintln(w, line)
	}

	_, _ = fmt.Fprintf(w, "\n%d of %d packages have usage rules\n", withRules, len(res.Rows))
	for _, name := range res.Conflicts {
		_, _ = fmt.Fprintf(w, "%s: %s is on both the inline and remove lists; removed\n", WarningStyle.Render("warning"), name)
	}
	for _, name := range res.Unknown {
		_, _ = fmt.Fprintf(w, "%s: %s matches no dependency\n", WarningStyle.Render("warning"), name)
	}
}
