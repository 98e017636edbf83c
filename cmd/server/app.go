package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/mastery/internal/config"
	"github.com/phrazzld/mastery/internal/domain/mastery"
	"github.com/phrazzld/mastery/internal/platform/clock"
	"github.com/phrazzld/mastery/internal/platform/gemini"
	"github.com/phrazzld/mastery/internal/platform/metrics"
	"github.com/phrazzld/mastery/internal/platform/postgres"
	"github.com/phrazzld/mastery/internal/platform/sqlite"
	"github.com/phrazzld/mastery/internal/service/lifecycle"
	"github.com/phrazzld/mastery/internal/service/review"
	"github.com/phrazzld/mastery/internal/service/session"
	"github.com/phrazzld/mastery/internal/store"
)

// application holds the shared dependencies of every command and closes
// them on shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	db      *sql.DB
	stores  store.Stores
	clock   clock.Clock
	metrics *metrics.Metrics

	lifecycle lifecycle.Service
	session   session.Service
	review    review.Service
}

// newApplication opens the configured record store and builds the services.
// clk overrides the system clock; m may be nil.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	clk clock.Clock,
	m *metrics.Metrics,
) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		clock:   clk,
		metrics: m,
	}

	if app.clock == nil {
		loc, err := cfg.Scheduling.Location()
		if err != nil {
			return nil, fmt.Errorf("failed to load scheduling timezone: %w", err)
		}
		app.clock = clock.NewSystem(loc)
	}

	var err error
	app.db, app.stores, err = openStores(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	evaluator, err := mastery.NewEvaluatorWithParams(mastery.NewParams(mastery.ParamsConfig{
		Ladder:           cfg.Scheduling.LadderDays,
		MasteryStreak:    cfg.Scheduling.MasteryStreak,
		ReinforcementRun: cfg.Scheduling.ReinforcementRun,
	}))
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create mastery evaluator: %w", err)
	}

	var opts []session.Option
	if cfg.LLM.Enabled() {
		writer, err := gemini.NewStrategyWriter(ctx, logger.With("component", "strategy_writer"), cfg.LLM)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to initialize strategy writer: %w", err)
		}
		opts = append(opts, session.WithStrategyWriter(writer))
		logger.Info("strategy writer initialized", "model", cfg.LLM.ModelName)
	}

	if app.lifecycle, err = lifecycle.NewService(app.stores, app.clock, m, logger); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create lifecycle service: %w", err)
	}
	if app.session, err = session.NewService(app.stores, evaluator, app.clock, m, logger, opts...); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create session service: %w", err)
	}
	if app.review, err = review.NewService(app.stores, m, logger); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create review service: %w", err)
	}

	return app, nil
}

// openStores connects to the configured driver. SQLite databases are
// migrated on open; PostgreSQL schemas are managed with the migrate command.
func openStores(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, store.Stores, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, store.Stores{}, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		logger.Debug("database connection established", "driver", cfg.Driver)
		return db, sqlite.NewStores(db, logger), nil
	case "postgres":
		db, err := postgres.Open(ctx, cfg.URL)
		if err != nil {
			return nil, store.Stores{}, fmt.Errorf("failed to open postgres database: %w", err)
		}
		logger.Debug("database connection established", "driver", cfg.Driver)
		return db, postgres.NewStores(db, logger), nil
	default:
		return nil, store.Stores{}, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// cleanup releases the database connection.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
}
