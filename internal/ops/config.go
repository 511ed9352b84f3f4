// Package ops loads and validates the service configuration. Bad config
// fails at startup, never at trade time.
package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/yanun0323/errors"

	"main/internal/router"
	"main/pkg/conn"
)

// Repository backend names accepted in config.
const (
	BackendMemory   = "memory"
	BackendPebble   = "pebble"
	BackendPostgres = "postgres"
)

const (
	defaultThrottleIntervalMs = 1000
	defaultCommandsPerSecond  = 50
	defaultNewOrdersPerSecond = 10
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Repository RepositoryConfig `json:"repository"`
	Throttle   ThrottleConfig   `json:"throttle"`
	Profiling  ProfilingConfig  `json:"profiling"`
}

// RepositoryConfig selects and parameterizes the durable backend.
type RepositoryConfig struct {
	Backend  string         `json:"backend"`
	Path     string         `json:"path"`
	Postgres PostgresConfig `json:"postgres"`
}

// PostgresConfig describes the shared PostgreSQL instance.
type PostgresConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Password     string `json:"password"`
	Database     string `json:"database"`
	SSLMode      string `json:"sslMode"`
	MaxOpenConns int    `json:"maxOpenConns"`
	MaxIdleConns int    `json:"maxIdleConns"`
}

// ThrottleConfig carries the broker's published rate limits.
type ThrottleConfig struct {
	CommandsPerInterval  int `json:"commandsPerInterval"`
	NewOrdersPerInterval int `json:"newOrdersPerInterval"`
	IntervalMs           int `json:"intervalMs"`
}

// ProfilingConfig enables continuous profiling.
type ProfilingConfig struct {
	Enabled       bool   `json:"enabled"`
	ServerAddress string `json:"serverAddress"`
	AppName       string `json:"appName"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Backend   string
	Path      string
	Postgres  conn.Option
	Router    router.Config
	Profiling ProfilingConfig
}

// Load reads a JSON config file and resolves it, applying defaults and
// rejecting anything the service cannot run with.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config file")
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "parse config file")
	}
	return Resolve(cfg)
}

// Resolve validates a parsed config and fills defaults.
func Resolve(cfg FileConfig) (Loaded, error) {
	backend, err := resolveBackend(cfg.Repository)
	if err != nil {
		return Loaded{}, err
	}
	routerCfg, err := resolveThrottle(cfg.Throttle)
	if err != nil {
		return Loaded{}, err
	}
	if cfg.Profiling.Enabled && cfg.Profiling.ServerAddress == "" {
		return Loaded{}, errors.New("profiling enabled without a server address")
	}
	profiling := cfg.Profiling
	if profiling.AppName == "" {
		profiling.AppName = "execd"
	}
	return Loaded{
		Backend: backend,
		Path:    cfg.Repository.Path,
		Postgres: conn.Option{
			Host:         cfg.Repository.Postgres.Host,
			Port:         cfg.Repository.Postgres.Port,
			User:         cfg.Repository.Postgres.User,
			Password:     cfg.Repository.Postgres.Password,
			Database:     cfg.Repository.Postgres.Database,
			SSLMode:      cfg.Repository.Postgres.SSLMode,
			MaxOpenConns: cfg.Repository.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Repository.Postgres.MaxIdleConns,
		},
		Router:    routerCfg,
		Profiling: profiling,
	}, nil
}

func resolveBackend(cfg RepositoryConfig) (string, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return BackendMemory, nil
	case BackendPebble:
		if cfg.Path == "" {
			return "", errors.New("pebble backend requires repository.path")
		}
		return BackendPebble, nil
	case BackendPostgres:
		if cfg.Postgres.Database == "" {
			return "", errors.New("postgres backend requires repository.postgres.database")
		}
		return BackendPostgres, nil
	default:
		return "", errors.Errorf("unknown repository backend: %s", cfg.Backend)
	}
}

func resolveThrottle(cfg ThrottleConfig) (router.Config, error) {
	out := router.Config{
		CommandsPerInterval:  cfg.CommandsPerInterval,
		NewOrdersPerInterval: cfg.NewOrdersPerInterval,
		Interval:             time.Duration(cfg.IntervalMs) * time.Millisecond,
	}
	if out.CommandsPerInterval == 0 {
		out.CommandsPerInterval = defaultCommandsPerSecond
	}
	if out.NewOrdersPerInterval == 0 {
		out.NewOrdersPerInterval = defaultNewOrdersPerSecond
	}
	if out.Interval == 0 {
		out.Interval = defaultThrottleIntervalMs * time.Millisecond
	}
	if out.CommandsPerInterval < 0 || out.NewOrdersPerInterval < 0 || out.Interval < 0 {
		return router.Config{}, errors.New("throttle rates must not be negative")
	}
	if out.NewOrdersPerInterval > out.CommandsPerInterval {
		return router.Config{}, errors.Errorf(
			"newOrdersPerInterval %d exceeds commandsPerInterval %d",
			out.NewOrdersPerInterval, out.CommandsPerInterval)
	}
	return out, nil
}
