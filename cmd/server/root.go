package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/mastery/internal/config"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/platform/clock"
	"github.com/phrazzld/mastery/internal/platform/logger"
	"github.com/phrazzld/mastery/internal/platform/metrics"
	"github.com/spf13/cobra"
)

// cli carries state shared by the subcommands.
type cli struct {
	configPath string
	// clock overrides the system clock; tests pin it.
	clock clock.Clock
}

func newRootCmd() *cobra.Command {
	return (&cli{}).rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mastery",
		Short:         "Knowledge-point mastery tracking and review scheduling",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "",
		"config file (default: ./config.yaml, then MASTERY_* environment variables)")

	root.AddCommand(
		c.serveCmd(),
		c.migrateCmd(),
		c.dueCmd(),
		c.reportCmd(),
		c.taskCmd(),
		c.attemptCmd(),
		c.suggestCmd(),
		c.verifyCmd(),
	)
	return root
}

// load reads the configuration and sets up logging on the command's stderr.
func (c *cli) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFrom(c.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.SetupWithWriter(cfg.Server, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return cfg, log, nil
}

// withApp loads config, builds the application, runs fn and cleans up.
// Metrics are only collected by long-running commands.
func (c *cli) withApp(cmd *cobra.Command, longRunning bool, fn func(ctx context.Context, app *application) error) error {
	cfg, log, err := c.load(cmd)
	if err != nil {
		return err
	}
	ctx := logger.WithLogger(cmd.Context(), log)

	var m *metrics.Metrics
	if longRunning && cfg.Metrics.Enabled {
		m = metrics.NewMetrics()
	}

	app, err := newApplication(ctx, cfg, log, c.clock, m)
	if err != nil {
		return err
	}
	defer app.cleanup()

	return fn(ctx, app)
}

// parseAsOf reads a YYYY-MM-DD flag value as a date in the clock's zone.
// An empty value means now.
func parseAsOf(raw string, clk clock.Clock) (time.Time, error) {
	now := clk.Now()
	if raw == "" {
		return now, nil
	}
	t, err := time.ParseInLocation(domain.DateLayout, raw, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(domain.DateLayout)
}
