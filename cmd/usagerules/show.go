// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCommand(app *App, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <package>",
		Short: "Print a package's usage rules section",
		Long: `Print the section sync would write for a package: its usage-rules.md
and every file it references, between the package markers.

Every resolved package with the name is printed, ordered by version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context(), flags)
			if err != nil {
				return reportError(cmd, app.stderr, err, flags.verbose)
			}

			eng, err := app.engine(s.cfg)
			if err != nil {
				return reportError(cmd, app.stderr, err, s.verbose)
			}

			res, err := eng.Preview(cmd.Context(), s.projectDir, args[0])
			if err != nil {
				return reportError(cmd, app.stderr, classifyError("show package", s.projectDir, err), s.verbose)
			}

			app.Diagnostics.Render(cmd.Context(), res.Diagnostics, app.stderr)
			if len(res.Documents) == 0 {
				_, _ = fmt.Fprintf(app.stderr, "%s has no usage rules\n", CmdStyle.Render(args[0]))
				return nil
			}
			_, _ = app.stdout.Write(res.Rendered)
			return nil
		},
	}
}
