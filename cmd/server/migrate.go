package main

import (
	"context"
	"fmt"

	"task-matrix/internal/config"
	"task-matrix/internal/database"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type MigrateCmd struct {
	cfg *config.Config
}

func NewMigrateCmd(cfg *config.Config) *MigrateCmd {
	return &MigrateCmd{cfg: cfg}
}

func (cmd *MigrateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "migrate",
		Usage:  "Create or update the database schema",
		Action: cmd.run,
	})
	return app
}

func (cmd *MigrateCmd) run(ctx context.Context, c *cli.Command) error {
	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cmd.cfg, log.Logger))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	if err := pool.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("driver", cmd.cfg.Database.Driver).Msg("schema up to date")
	return nil
}
