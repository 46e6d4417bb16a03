package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/charlesng35/guestbook/internal/database"
)

// EnvPrefix prefixes every environment override, e.g. GUESTBOOK_SERVER_PORT.
const EnvPrefix = "GUESTBOOK"

// Config represents the runtime configuration for the guestbook service.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Session     SessionConfig     `mapstructure:"session"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	LogLevel       string   `mapstructure:"log_level"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
	Pool     PoolConfig   `mapstructure:"pool"`
}

// PoolConfig bounds the connection pool. Zero values keep the driver defaults.
type PoolConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	Database string            `mapstructure:"database"`
	Username string            `mapstructure:"username"`
	Password string            `mapstructure:"password"`
	Options  map[string]string `mapstructure:"options"`
}

// SessionConfig controls visitor sessions and their anti-forgery tokens.
type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	TokenStore string        `mapstructure:"token_store"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints and bounds each probe.
type HealthConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MaintenanceConfig holds cron specs for background jobs. An empty spec disables the job.
type MaintenanceConfig struct {
	TokenCleanupSchedule string `mapstructure:"token_cleanup_schedule"`
	StatsSchedule        string `mapstructure:"stats_schedule"`
}

// Token store backends.
const (
	TokenStoreMemory   = "memory"
	TokenStoreDatabase = "database"
)

// LoadConfig initialises application configuration using Viper with sensible defaults.
// Paths are searched after ./config; environment variables override file values.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	switch c.Session.TokenStore {
	case TokenStoreMemory, TokenStoreDatabase:
	default:
		return fmt.Errorf("config: unsupported session.token_store %q", c.Session.TokenStore)
	}
	if c.Session.TTL <= 0 {
		return errors.New("config: session.ttl must be positive")
	}
	return nil
}

// DatabaseSettings converts the configuration into connection parameters for the selected driver.
func (c DatabaseConfig) DatabaseSettings() database.Config {
	cfg := database.Config{
		Driver: strings.ToLower(c.Driver),
		Path:   c.Path,
		DSN:    c.DSN,
		Pool: database.PoolSettings{
			MaxOpenConns:    c.Pool.MaxOpenConns,
			MaxIdleConns:    c.Pool.MaxIdleConns,
			ConnMaxLifetime: c.Pool.ConnMaxLifetime,
		},
	}

	var auth DBAuthConfig
	switch cfg.Driver {
	case "postgres", "postgresql":
		auth = c.Postgres
	case "mysql":
		auth = c.MySQL
	default:
		return cfg
	}

	cfg.Host = auth.Host
	cfg.Port = auth.Port
	cfg.Name = auth.Database
	cfg.User = auth.Username
	cfg.Password = auth.Password
	cfg.Options = auth.Options
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/guestbook.sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.postgres.host", "127.0.0.1")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "guestbook")
	v.SetDefault("database.postgres.username", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.mysql.host", "127.0.0.1")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.database", "guestbook")
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.pool.max_open_conns", 10)
	v.SetDefault("database.pool.max_idle_conns", 5)
	v.SetDefault("database.pool.conn_max_lifetime", "30m")

	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", "12h")
	v.SetDefault("session.cookie_name", "guestbook_session")
	v.SetDefault("session.token_store", TokenStoreMemory)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)
	v.SetDefault("monitoring.health_check.timeout", "3s")

	v.SetDefault("maintenance.token_cleanup_schedule", "@hourly")
	v.SetDefault("maintenance.stats_schedule", "@every 5m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
