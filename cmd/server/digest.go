package main

import (
	"context"
	"fmt"

	"task-matrix/internal/config"
	"task-matrix/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type DigestCmd struct {
	cfg *config.Config

	refresh bool
}

func NewDigestCmd(cfg *config.Config) *DigestCmd {
	return &DigestCmd{cfg: cfg}
}

func (cmd *DigestCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "enqueue-digests",
		Usage: "Queue an alert digest for every active user",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "refresh-stats",
				Usage:       "also queue a statistics refresh per user",
				Destination: &cmd.refresh,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DigestCmd) run(ctx context.Context, c *cli.Command) error {
	app, err := NewApp(ctx, cmd.cfg, log.Logger)
	if err != nil {
		return err
	}
	defer app.Close()

	client, err := app.RequireRedis()
	if err != nil {
		return fmt.Errorf("enqueue-digests: %w", err)
	}
	queue := worker.NewJobQueue(client, cmd.cfg.Worker.MaxRetries)

	ids, err := app.Users.ActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, id := range ids {
		if _, err := queue.EnqueueAlertDigest(ctx, id); err != nil {
			return err
		}
		if cmd.refresh {
			if _, err := queue.EnqueueStatisticsRefresh(ctx, id); err != nil {
				return err
			}
		}
	}

	log.Info().Int("users", len(ids)).Bool("refresh_stats", cmd.refresh).Msg("digests queued")
	return nil
}
