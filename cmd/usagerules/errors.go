// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/usagerules/usagerules/internal/engine"
	"github.com/usagerules/usagerules/internal/graph"
	"github.com/usagerules/usagerules/internal/issue"
	"github.com/usagerules/usagerules/internal/output"
	"github.com/usagerules/usagerules/internal/render"
)

// classifyError attaches operation context, suggestions and a catalog entry
// to a fatal engine error. Errors that already carry context pass through.
func classifyError(operation, projectDir string, err error) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	ctx := issue.NewErrorContext().WithOperation(operation).Wrap(err)

	var (
		providerErr *engine.ProviderError
		writeErr    *output.WriteError
	)
	switch {
	case errors.Is(err, graph.ErrNoManifest):
		ctx.WithIssue(issue.ManifestNotFoundId).
			WithResource(projectDir).
			WithSuggestion("Run usage-rules from the project root or pass --project").
			WithSuggestion(fmt.Sprintf("Create %s to list packages explicitly", graph.ManifestFile))
	case errors.As(err, &providerErr):
		ctx.WithIssue(issue.ProviderFailedId).
			WithResource(providerErr.ManifestDir).
			WithSuggestion("Run the build tool directly to see its full output").
			WithSuggestion("Pass --fetch to let the build tool download missing packages")
	case errors.As(err, &writeErr):
		ctx.WithIssue(issue.OutputWriteFailedId).
			WithSuggestion("Check that the output location is writable")
		if len(writeErr.Written) > 0 {
			ctx.WithSuggestion(fmt.Sprintf("%d file(s) were written before the failure and are complete", len(writeErr.Written)))
		}
	case errors.Is(err, engine.ErrPackageNotFound):
		ctx.WithIssue(issue.PackageNotFoundId).
			WithSuggestion("Run 'usage-rules list' to see the resolved packages")
	case errors.Is(err, render.ErrFolderRequired), errors.Is(err, render.ErrInvalidLinkStyle):
		ctx.WithIssue(issue.InvalidSelectionId)
	}

	return ctx.BuildError()
}

// reportError renders err to stderr and returns the ExitError that stops the
// command without Cobra printing it again.
func reportError(cmd *cobra.Command, stderr io.Writer, err error, verbose bool) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	_, _ = fmt.Fprintln(stderr, ErrorStyle.Render("error: ")+formatErrorForDisplay(err, verbose))

	var ae *issue.ActionableError
	if verbose && errors.As(err, &ae) {
		if entry := ae.Issue(); entry != nil {
			rendered, renderErr := entry.Render("dark")
			if renderErr != nil {
				slog.Warn("failed to render issue catalog entry", "issueID", ae.IssueId, "error", renderErr)
			} else {
				_, _ = fmt.Fprint(stderr, rendered)
			}
		}
	}

	return &ExitError{Code: 1}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
