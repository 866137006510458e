package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-matrix/internal/cache"
	"task-matrix/internal/config"
	"task-matrix/internal/database"
	"task-matrix/internal/matrix"
	"task-matrix/internal/repositories"
	"task-matrix/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const l1MaxEntries = 10000

// App holds the long-lived dependencies every command builds on.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Pool   *database.DatabasePool
	Redis  *redis.Client
	Cache  *cache.MultiLevelCache

	Users      repositories.UserRepository
	Tasks      services.TaskService
	Statistics services.StatisticsService
	Auth       *services.AuthServiceImpl
	Register   services.RegisterService
}

func NewApp(ctx context.Context, cfg *config.Config, l zerolog.Logger) (*App, error) {
	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg, l))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	app := &App{Config: cfg, Logger: l, Pool: pool}

	var l2 cache.Cache
	if cfg.Redis.Enabled {
		app.Redis = cache.NewRedisClient(cache.CacheConfigFrom(cfg))
		if err := app.Redis.Ping(ctx).Err(); err != nil {
			l.Warn().Err(err).Str("addr", cfg.GetRedisAddr()).Msg("redis unreachable, continuing with the in-process cache")
		}
		l2 = cache.NewRedisCache(app.Redis, "tm:")
	}
	app.Cache = cache.NewMultiLevelCache(
		cache.NewMemoryCache(l1MaxEntries),
		l2,
		cache.WithL1TTL(time.Minute),
		cache.WithBreaker(cache.NewCircuitBreaker(cache.DefaultCircuitBreakerConfig())),
		cache.WithLogger(l),
	)

	var (
		clock      = matrix.SystemClock{}
		taskRepo   = services.NewCachedTaskRepository(repositories.NewTaskRepository(pool.DB), app.Cache, cfg.Redis.CacheTTL, l)
		statsRepo  = repositories.NewStatisticsRepository(pool.DB)
		users      = repositories.NewUserRepository(pool.DB)
		tokens     = repositories.NewTokenRepository(pool.DB)
		statistics = services.NewStatisticsService(taskRepo, statsRepo, clock, l)
	)

	app.Users = users
	app.Statistics = statistics
	app.Tasks = services.NewTaskService(taskRepo, statistics, clock, l)
	app.Auth = services.NewAuthService(users, tokens, cfg.Auth, clock, l)
	app.Register = services.NewRegisterService(users, statsRepo, cfg.Auth.BCryptCost, l)
	return app, nil
}

// RequireRedis returns the shared client or an error when Redis is disabled.
func (a *App) RequireRedis() (*redis.Client, error) {
	if a.Redis == nil {
		return nil, errors.New("redis is disabled; set REDIS_ENABLED=true")
	}
	return a.Redis, nil
}

func (a *App) Close() {
	if err := a.Cache.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("failed to close cache")
	}
	if err := a.Pool.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("failed to close database")
	}
}
