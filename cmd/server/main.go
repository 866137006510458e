package main

import (
	"context"
	"fmt"
	"os"

	"task-matrix/internal/config"
	"task-matrix/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

var version = "dev"

type Flags struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
}

func main() {
	var (
		flags     = &Flags{}
		cfg       = &config.Config{}
		logCloser func()
	)

	app := &cli.Command{
		Name:    "task-matrix",
		Usage:   "Eisenhower matrix task service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to a YAML config file",
				Sources:     cli.EnvVars("CONFIG_FILE"),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "override the configured log level",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "override the configured log file",
				Destination: &flags.LogFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			loaded, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.LogLevel != "" {
				loaded.Log.Level = flags.LogLevel
			}
			if flags.LogFile != "" {
				loaded.Log.File = flags.LogFile
			}
			*cfg = *loaded

			logger, closer, err := logging.New(cfg.Log.Level, cfg.Log.File, cfg.Log.Pretty)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			logging.SetGlobal(logger)
			logCloser = closer
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = NewServeCmd(cfg).Register(app)
	app = NewWorkerCmd(cfg).Register(app)
	app = NewMigrateCmd(cfg).Register(app)
	app = NewDigestCmd(cfg).Register(app)

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
