package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"task-matrix/internal/config"
	"task-matrix/internal/logging"
	"task-matrix/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type WorkerCmd struct {
	cfg *config.Config
}

func NewWorkerCmd(cfg *config.Config) *WorkerCmd {
	return &WorkerCmd{cfg: cfg}
}

func (cmd *WorkerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "worker",
		Usage:  "Process background jobs from the Redis queues",
		Action: cmd.run,
	})
	return app
}

func (cmd *WorkerCmd) run(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cmd.cfg, log.Logger)
	if err != nil {
		return err
	}
	defer app.Close()

	client, err := app.RequireRedis()
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}

	jobLog := logging.Component(log.Logger, "jobs")
	w := worker.NewWorker(worker.WorkerConfig{
		RedisClient:  client,
		PollInterval: cmd.cfg.Worker.PollInterval,
		Queues:       cmd.cfg.Worker.Queues,
		Logger:       log.Logger,
	})
	w.RegisterHandler(worker.JobTypeStatisticsRefresh, worker.StatisticsRefreshHandler(app.Statistics, jobLog))
	w.RegisterHandler(worker.JobTypeAlertDigest, worker.AlertDigestHandler(app.Tasks, jobLog))

	w.Start(ctx, cmd.cfg.Worker.Concurrency)
	<-ctx.Done()
	w.Stop()
	return nil
}
