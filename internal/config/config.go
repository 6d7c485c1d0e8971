// Package config provides configuration management for the inventory service.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/vyrodovalexey/inventory/internal/store"
)

// Default configuration values.
const (
	DefaultServerPort      = 8080
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultAuthMode        = "none"
	DefaultStoreDriver     = store.DriverSQLite
	DefaultSQLitePath      = "inventory.db"
	DefaultDotEnvFile      = ".env"
)

// EnvPrefix is prepended to every key to form its environment variable.
const EnvPrefix = "APP"

// Configuration keys. The environment variable for a key is APP_ followed by
// the key in upper case.
const (
	KeyServerPort      = "server_port"
	KeyLogLevel        = "log_level"
	KeyShutdownTimeout = "shutdown_timeout"
	KeyMetricsEnabled  = "metrics_enabled"
	KeyStoreDriver     = "store_driver"
	KeySQLitePath      = "sqlite_path"
	KeyPostgresDSN     = "postgres_dsn"
	KeyAuthMode        = "auth_mode"
	KeyBasicAuthUsers  = "basic_auth_users"
	KeyAPIKeys         = "api_keys"
)

// Environment variable names.
const (
	EnvServerPort      = "APP_SERVER_PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvStoreDriver     = "APP_STORE_DRIVER"
	EnvSQLitePath      = "APP_SQLITE_PATH"
	EnvPostgresDSN     = "APP_POSTGRES_DSN"
	EnvAuthMode        = "APP_AUTH_MODE"
	EnvBasicAuthUsers  = "APP_BASIC_AUTH_USERS"
	EnvAPIKeys         = "APP_API_KEYS" //nolint:gosec // env var name, not a credential
	EnvConfigFile      = "APP_CONFIG_FILE"
)

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// Store settings.
	StoreDriver string
	SQLitePath  string
	PostgresDSN string

	// Authentication mode: none, basic, apikey, multi.
	AuthMode string

	// Basic auth settings (format: "user1:bcrypt_hash,user2:bcrypt_hash").
	BasicAuthUsers string

	// API key settings (format: "key1:name1,key2:name2").
	APIKeys string
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidAuthMode        = errors.New(
		"auth mode must be one of: none, basic, apikey, multi",
	)
	ErrInvalidBasicAuthConfig = errors.New(
		"basic auth users must be set when auth mode is basic",
	)
	ErrInvalidAPIKeyConfig = errors.New(
		"API keys must be set when auth mode is apikey",
	)
	ErrInvalidMultiAuthConfig = errors.New(
		"at least one auth config must be provided when auth mode is multi",
	)
	ErrInvalidStoreDriver = errors.New(
		"store driver must be one of: memory, sqlite, postgres",
	)
	ErrInvalidSQLiteConfig = errors.New(
		"sqlite path must be set when store driver is sqlite",
	)
	ErrInvalidPostgresConfig = errors.New(
		"postgres DSN must be set when store driver is postgres",
	)
)

// Load reads configuration with this priority, highest first: environment
// variables, variables from a .env file, the YAML file named by
// APP_CONFIG_FILE, defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(DefaultDotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", DefaultDotEnvFile, err)
	}

	v := newViper()

	if path := os.Getenv(EnvConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// newViper returns a viper instance with defaults and environment binding.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyServerPort, DefaultServerPort)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyShutdownTimeout, DefaultShutdownTimeout)
	v.SetDefault(KeyMetricsEnabled, DefaultMetricsEnabled)
	v.SetDefault(KeyStoreDriver, DefaultStoreDriver)
	v.SetDefault(KeySQLitePath, DefaultSQLitePath)
	v.SetDefault(KeyPostgresDSN, "")
	v.SetDefault(KeyAuthMode, DefaultAuthMode)
	v.SetDefault(KeyBasicAuthUsers, "")
	v.SetDefault(KeyAPIKeys, "")

	return v
}

// fromViper converts raw values into a Config. Values that do not parse
// are errors rather than silent zeroes.
func fromViper(v *viper.Viper) (*Config, error) {
	port, err := cast.ToIntE(v.Get(KeyServerPort))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", EnvServerPort, err)
	}

	timeout, err := cast.ToDurationE(v.Get(KeyShutdownTimeout))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
	}

	metrics, err := cast.ToBoolE(v.Get(KeyMetricsEnabled))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
	}

	return &Config{
		ServerPort:      port,
		LogLevel:        v.GetString(KeyLogLevel),
		ShutdownTimeout: timeout,
		MetricsEnabled:  metrics,
		StoreDriver:     v.GetString(KeyStoreDriver),
		SQLitePath:      v.GetString(KeySQLitePath),
		PostgresDSN:     v.GetString(KeyPostgresDSN),
		AuthMode:        v.GetString(KeyAuthMode),
		BasicAuthUsers:  v.GetString(KeyBasicAuthUsers),
		APIKeys:         v.GetString(KeyAPIKeys),
	}, nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	return nil
}

// validateServer validates server-related configuration.
func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	return nil
}

// validateStore validates the store driver and its connection settings.
func (c *Config) validateStore() error {
	switch c.StoreDriver {
	case store.DriverMemory:
	case store.DriverSQLite:
		if c.SQLitePath == "" {
			return ErrInvalidSQLiteConfig
		}
	case store.DriverPostgres:
		if c.PostgresDSN == "" {
			return ErrInvalidPostgresConfig
		}
	default:
		return ErrInvalidStoreDriver
	}

	return nil
}

// validateAuth validates authentication configuration.
func (c *Config) validateAuth() error {
	authMode := c.authModeOrDefault()

	validAuthModes := map[string]bool{
		"none":   true,
		"basic":  true,
		"apikey": true,
		"multi":  true,
	}
	if !validAuthModes[authMode] {
		return ErrInvalidAuthMode
	}

	switch authMode {
	case "basic":
		if c.BasicAuthUsers == "" {
			return ErrInvalidBasicAuthConfig
		}
	case "apikey":
		if c.APIKeys == "" {
			return ErrInvalidAPIKeyConfig
		}
	case "multi":
		if !c.hasAnyAuthConfig() {
			return ErrInvalidMultiAuthConfig
		}
	}

	return nil
}

// authModeOrDefault returns the auth mode, defaulting to "none" if empty.
func (c *Config) authModeOrDefault() string {
	if c.AuthMode == "" {
		return DefaultAuthMode
	}
	return c.AuthMode
}

// hasAnyAuthConfig checks if at least one auth-related configuration is provided.
func (c *Config) hasAnyAuthConfig() bool {
	return c.BasicAuthUsers != "" || c.APIKeys != ""
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// StoreOptions returns the store selection for this configuration.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver:      c.StoreDriver,
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
	}
}
