// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/usagerules/usagerules/internal/config"
	"github.com/usagerules/usagerules/internal/engine"
	"github.com/usagerules/usagerules/internal/graph"
	"github.com/usagerules/usagerules/internal/guidance"
	"github.com/usagerules/usagerules/internal/output"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives the App and builds its engine through it.
	App struct {
		Config      ConfigProvider
		Providers   ProviderFactory
		FS          afero.Fs
		Diagnostics DiagnosticRenderer
		stdout      io.Writer
		stderr      io.Writer
		logger      *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config      ConfigProvider
		Providers   ProviderFactory
		FS          afero.Fs
		Diagnostics DiagnosticRenderer
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// ProviderFactory creates the dependency graph provider for a config.
	ProviderFactory func(kind graph.Kind, opts graph.Options) (graph.Provider, error)

	// DiagnosticRenderer renders guidance diagnostics.
	DiagnosticRenderer interface {
		Render(ctx context.Context, diags []guidance.Diagnostic, stderr io.Writer)
	}

	// globalFlags holds the persistent root flags.
	globalFlags struct {
		project    string
		configFile string
		verbose    bool
	}

	// session is the per-invocation state shared by the subcommands.
	session struct {
		cfg        *config.Config
		projectDir string
		verbose    bool
	}

	defaultDiagnosticRenderer struct{}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Providers == nil {
		deps.Providers = graph.New
	}
	if deps.FS == nil {
		deps.FS = afero.NewOsFs()
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = &defaultDiagnosticRenderer{}
	}

	return &App{
		Config:      deps.Config,
		Providers:   deps.Providers,
		FS:          deps.FS,
		Diagnostics: deps.Diagnostics,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
		logger: log.NewWithOptions(deps.Stderr, log.Options{
			Prefix: config.AppName,
			Level:  log.WarnLevel,
		}),
	}
}

// installLogger makes the App's logger the slog default for library packages.
func (a *App) installLogger(verbose bool) {
	if verbose {
		a.logger.SetLevel(log.DebugLevel)
	}
	slog.SetDefault(slog.New(a.logger))
}

// open resolves the project directory and loads its configuration.
func (a *App) open(ctx context.Context, flags *globalFlags) (*session, error) {
	abs, err := projectDir(flags)
	if err != nil {
		return nil, err
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configFile,
		ProjectDir:     abs,
	})
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, projectDir: abs, verbose: flags.verbose || cfg.UI.Verbose}
	if s.verbose && !flags.verbose {
		a.installLogger(true)
	}
	slog.Debug("configuration loaded", "project", abs, "provider", cfg.Provider.Kind)
	return s, nil
}

// engine builds the engine for cfg.
func (a *App) engine(cfg *config.Config) (*engine.Engine, error) {
	provider, err := a.Providers(cfg.Provider.Kind, graph.Options{
		DirectOnly: cfg.Provider.DirectOnly,
		Fetch:      cfg.Provider.Fetch,
	})
	if err != nil {
		return nil, err
	}
	return engine.New(provider, guidance.NewLocator(a.FS, cfg.RulesDir), output.NewWriter(a.FS)), nil
}

// Render writes diagnostics to stderr with lipgloss styling.
func (r *defaultDiagnosticRenderer) Render(_ context.Context, diags []guidance.Diagnostic, stderr io.Writer) {
	for _, diag := range diags {
		prefix := WarningStyle.Render("warning")
		if diag.Severity == guidance.SeverityError {
			prefix = ErrorStyle.Render("error")
		}

		msg := diag.Message
		if diag.Package.Name != "" {
			msg = CmdStyle.Render(diag.Package.Name) + ": " + msg
		}

		if diag.Path != "" {
			_, _ = fmt.Fprintf(stderr, "%s: %s (%s)\n", prefix, msg, diag.Path)
			continue
		}

		_, _ = fmt.Fprintf(stderr, "%s: %s\n", prefix, msg)
	}
}
