package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultJWTSecret = "your-secret-key"
)

type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	Worker    WorkerConfig    `json:"worker" yaml:"worker"`
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

type ServerConfig struct {
	Host           string        `json:"host" yaml:"host"`
	Port           string        `json:"port" yaml:"port"`
	ReadTimeout    time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout    time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	Environment    string        `json:"environment" yaml:"environment"`
	AllowedOrigins []string      `json:"allowed_origins" yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver          string        `json:"driver" yaml:"driver"`
	Host            string        `json:"host" yaml:"host"`
	Port            string        `json:"port" yaml:"port"`
	User            string        `json:"user" yaml:"user"`
	Password        string        `json:"password" yaml:"password"`
	Name            string        `json:"name" yaml:"name"`
	SSLMode         string        `json:"ssl_mode" yaml:"ssl_mode"`
	Path            string        `json:"path" yaml:"path"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`
}

type RedisConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	Host         string        `json:"host" yaml:"host"`
	Port         string        `json:"port" yaml:"port"`
	Password     string        `json:"password" yaml:"password"`
	DB           int           `json:"db" yaml:"db"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns"`
	MaxRetries   int           `json:"max_retries" yaml:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	CacheTTL     time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

type WorkerConfig struct {
	Concurrency  int           `json:"concurrency" yaml:"concurrency"`
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
	Queues       []string      `json:"queues" yaml:"queues"`
	MaxRetries   int           `json:"max_retries" yaml:"max_retries"`
}

type AuthConfig struct {
	JWTSecret       string        `json:"-" yaml:"jwt_secret"`
	Issuer          string        `json:"issuer" yaml:"issuer"`
	AccessTokenTTL  time.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `json:"refresh_token_ttl" yaml:"refresh_token_ttl"`
	BCryptCost      int           `json:"bcrypt_cost" yaml:"bcrypt_cost"`
}

type RateLimitConfig struct {
	Enabled         bool          `json:"enabled" yaml:"enabled"`
	RequestsPerMin  int           `json:"requests_per_minute" yaml:"requests_per_minute"`
	BurstSize       int           `json:"burst_size" yaml:"burst_size"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	File   string `json:"file" yaml:"file"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           "8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			Environment:    "development",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Name:            "task_matrix",
			SSLMode:         "disable",
			Path:            "task_matrix.db",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:      true,
			Host:         "localhost",
			Port:         "6379",
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CacheTTL:     5 * time.Minute,
		},
		Worker: WorkerConfig{
			Concurrency:  4,
			PollInterval: 5 * time.Second,
			Queues:       []string{"high_priority", "default", "low_priority"},
			MaxRetries:   3,
		},
		Auth: AuthConfig{
			JWTSecret:       defaultJWTSecret,
			Issuer:          "task-matrix",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			BCryptCost:      10,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			RequestsPerMin:  100,
			BurstSize:       10,
			CleanupInterval: 10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file named by
// CONFIG_FILE (if any) and finally the environment. Environment values win.
func LoadConfig() (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

// Load is LoadConfig with an explicit YAML path; an empty path skips the file.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvAsDuration("IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.Environment = getEnv("ENVIRONMENT", c.Server.Environment)
	c.Server.AllowedOrigins = getEnvAsSlice("ALLOWED_ORIGINS", c.Server.AllowedOrigins)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSL_MODE", c.Database.SSLMode)
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)
	c.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)
	c.Database.ConnMaxIdleTime = getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", c.Database.ConnMaxIdleTime)

	c.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnv("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)
	c.Redis.PoolSize = getEnvAsInt("REDIS_POOL_SIZE", c.Redis.PoolSize)
	c.Redis.MinIdleConns = getEnvAsInt("REDIS_MIN_IDLE_CONNS", c.Redis.MinIdleConns)
	c.Redis.MaxRetries = getEnvAsInt("REDIS_MAX_RETRIES", c.Redis.MaxRetries)
	c.Redis.DialTimeout = getEnvAsDuration("REDIS_DIAL_TIMEOUT", c.Redis.DialTimeout)
	c.Redis.ReadTimeout = getEnvAsDuration("REDIS_READ_TIMEOUT", c.Redis.ReadTimeout)
	c.Redis.WriteTimeout = getEnvAsDuration("REDIS_WRITE_TIMEOUT", c.Redis.WriteTimeout)
	c.Redis.CacheTTL = getEnvAsDuration("REDIS_CACHE_TTL", c.Redis.CacheTTL)

	c.Worker.Concurrency = getEnvAsInt("WORKER_CONCURRENCY", c.Worker.Concurrency)
	c.Worker.PollInterval = getEnvAsDuration("WORKER_POLL_INTERVAL", c.Worker.PollInterval)
	c.Worker.Queues = getEnvAsSlice("WORKER_QUEUES", c.Worker.Queues)
	c.Worker.MaxRetries = getEnvAsInt("WORKER_MAX_RETRIES", c.Worker.MaxRetries)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.Issuer = getEnv("JWT_ISSUER", c.Auth.Issuer)
	c.Auth.AccessTokenTTL = getEnvAsDuration("ACCESS_TOKEN_TTL", c.Auth.AccessTokenTTL)
	c.Auth.RefreshTokenTTL = getEnvAsDuration("REFRESH_TOKEN_TTL", c.Auth.RefreshTokenTTL)
	c.Auth.BCryptCost = getEnvAsInt("BCRYPT_COST", c.Auth.BCryptCost)

	c.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerMin = getEnvAsInt("RATE_LIMIT_RPM", c.RateLimit.RequestsPerMin)
	c.RateLimit.BurstSize = getEnvAsInt("RATE_LIMIT_BURST", c.RateLimit.BurstSize)
	c.RateLimit.CleanupInterval = getEnvAsDuration("RATE_LIMIT_CLEANUP", c.RateLimit.CleanupInterval)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	c.Log.Pretty = getEnvAsBool("LOG_PRETTY", c.Log.Pretty)
}

func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("server.port", c.Server.Port, required),
		criterio.Run("database.driver", c.Database.Driver, oneOf(DriverPostgres, DriverSQLite)),
		criterio.Run("database.max_open_conns", c.Database.MaxOpenConns, nonNegative),
		criterio.Run("database.max_idle_conns", c.Database.MaxIdleConns, nonNegative),
		criterio.Run("database.password", c.Database.Password, c.requireInProduction(c.Database.Driver == DriverPostgres)),
		criterio.Run("redis.pool_size", c.Redis.PoolSize, nonNegative),
		criterio.Run("worker.concurrency", c.Worker.Concurrency, positive),
		criterio.Run("auth.jwt_secret", c.Auth.JWTSecret, c.validateSecret),
		criterio.Run("auth.bcrypt_cost", c.Auth.BCryptCost, validateCost),
		criterio.Run("rate_limit.requests_per_minute", c.RateLimit.RequestsPerMin, c.validateRate),
		criterio.Run("log.level", c.Log.Level, oneOf("trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled")),
	)
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("is required")
	}
	return nil
}

func oneOf(allowed ...string) func(string) error {
	return func(s string) error {
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
}

func nonNegative(n int) error {
	if n < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func positive(n int) error {
	if n <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func validateCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

func (c *Config) requireInProduction(applies bool) func(string) error {
	return func(s string) error {
		if applies && c.IsProduction() && s == "" {
			return errors.New("is required in production")
		}
		return nil
	}
}

func (c *Config) validateSecret(secret string) error {
	if secret == "" {
		return errors.New("is required")
	}
	if c.IsProduction() && secret == defaultJWTSecret {
		return errors.New("must be set in production")
	}
	return nil
}

func (c *Config) validateRate(rpm int) error {
	if c.RateLimit.Enabled && rpm <= 0 {
		return errors.New("must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == DriverSQLite {
		return c.Database.Path
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
