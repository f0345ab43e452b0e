package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"sisu-catalog/internal/cache"
	"sisu-catalog/internal/config"
	"sisu-catalog/internal/domain"
	"sisu-catalog/internal/providers/sisu"
	"sisu-catalog/internal/resolver"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// App holds what the commands share. Catalog may be preset (tests);
// otherwise the catalog client is built from Config.
type App struct {
	Config  config.Config
	Catalog resolver.Catalog

	logger *slog.Logger
	engine *resolver.Engine
	format string
}

// NewRootCmd creates the top-level "sisu-catalog" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "sisu-catalog",
		Short:         "Browse degree programmes, study modules and course units from the curriculum catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.format != formatText && app.format != formatJSON {
				return fmt.Errorf("unknown --format %q (want text or json)", app.format)
			}
			if logLevel != "" {
				app.Config.LogLevel = strings.ToLower(logLevel)
			}
			if err := app.Config.Validate(); err != nil {
				return err
			}
			app.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: app.Config.SlogLevel()}))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&app.format, "format", formatText, "output format: text or json")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default LOG_LEVEL)")

	root.AddCommand(
		newProgrammesCmd(app),
		newTreeCmd(app),
		newExportCmd(app),
		newServeCmd(app),
		newRecordCmd(app),
	)

	return root
}

// bootstrap builds the engine and loads the programme index once.
func (a *App) bootstrap(ctx context.Context) (*resolver.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}
	catalog := a.Catalog
	if catalog == nil {
		catalog = sisu.New(a.Config.Catalog(), cache.New(), a.logger)
	}
	engine := resolver.New(catalog, resolver.Options{
		Logger:     a.logger,
		MaxWorkers: a.Config.MaxWorkers,
	})
	if err := engine.LoadProgrammes(ctx); err != nil {
		return nil, fmt.Errorf("loading programmes: %w", err)
	}
	a.engine = engine
	return engine, nil
}

// resolveProgramme bootstraps, finds the programme and resolves its tree.
func (a *App) resolveProgramme(ctx context.Context, id string) (*domain.DegreeProgramme, error) {
	engine, err := a.bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := engine.Programme(domain.ID(id))
	if !ok {
		return nil, fmt.Errorf("programme %q: %w", id, resolver.ErrProgrammeNotFound)
	}
	if err := engine.EnsureResolved(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
