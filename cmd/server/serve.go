package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"task-matrix/internal/api"
	"task-matrix/internal/config"
	"task-matrix/internal/logging"
	"task-matrix/internal/middleware"
	"task-matrix/internal/monitoring"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type ServeCmd struct {
	cfg *config.Config

	skipMigrate bool
}

func NewServeCmd(cfg *config.Config) *ServeCmd {
	return &ServeCmd{cfg: cfg}
}

func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "skip-migrate",
				Usage:       "do not run schema migrations on startup",
				Sources:     cli.EnvVars("SKIP_MIGRATE"),
				Destination: &cmd.skipMigrate,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.Component(log.Logger, "server")

	app, err := NewApp(ctx, cmd.cfg, log.Logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if !cmd.skipMigrate {
		if err := app.Pool.Migrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	monitor := monitoring.NewMonitor()
	monitor.RegisterHealthCheck("database", true, app.Pool.Health)
	monitor.RegisterHealthCheck("cache", false, app.Cache.Health)
	monitor.RegisterStats("database", app.Pool.Stats)
	monitor.RegisterStats("cache", app.Cache.Stats)

	var limiter *middleware.RateLimiter
	if cmd.cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: cmd.cfg.RateLimit.RequestsPerMin,
			Burst:             cmd.cfg.RateLimit.BurstSize,
			CleanupInterval:   cmd.cfg.RateLimit.CleanupInterval,
		})
		go limiter.Run(ctx)
	}

	router := api.NewRouter(api.Dependencies{
		Config:      cmd.cfg,
		Logger:      logging.Component(log.Logger, "http"),
		Tasks:       app.Tasks,
		Statistics:  app.Statistics,
		Auth:        app.Auth,
		Register:    app.Register,
		Monitor:     monitor,
		RateLimiter: limiter,
	})

	srv := &http.Server{
		Addr:         cmd.cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cmd.cfg.Server.ReadTimeout,
		WriteTimeout: cmd.cfg.Server.WriteTimeout,
		IdleTimeout:  cmd.cfg.Server.IdleTimeout,
	}

	go cmd.purgeTokens(ctx, app)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cmd.cfg.Server.Environment).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// purgeTokens drops expired refresh tokens once an hour.
func (cmd *ServeCmd) purgeTokens(ctx context.Context, app *App) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.Auth.PurgeExpiredTokens(ctx)
			if err != nil {
				app.Logger.Warn().Err(err).Msg("failed to purge expired tokens")
				continue
			}
			app.Logger.Debug().Int64("purged", n).Msg("expired tokens purged")
		}
	}
}
