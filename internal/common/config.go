package common

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/n42-extract/constants"
)

// Config holds all application configuration
type Config struct {
	Extract  ExtractConfig  `yaml:"extract"`
	Batch    BatchConfig    `yaml:"batch"`
	Database DatabaseConfig `yaml:"database"`
	Watch    WatchConfig    `yaml:"watch"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// ExtractConfig holds classification settings
type ExtractConfig struct {
	Sigma float64 `yaml:"sigma"`
}

// BatchConfig holds batch-run settings
type BatchConfig struct {
	Workers    int  `yaml:"workers"`
	FailFast   bool `yaml:"fail_fast"`
	SkipHidden bool `yaml:"skip_hidden"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // sqlite | postgres
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// WatchConfig holds daemon watch settings
type WatchConfig struct {
	Dirs           []string      `yaml:"dirs"`
	Debounce       time.Duration `yaml:"debounce"`
	QueueSize      int           `yaml:"queue_size"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	ExportDir       string        `yaml:"export_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Extract: ExtractConfig{Sigma: constants.DefaultSigma},
		Batch:   BatchConfig{Workers: 4},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "file:n42.db",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Watch: WatchConfig{
			Debounce:       500 * time.Millisecond,
			QueueSize:      256,
			ProcessTimeout: time.Minute,
		},
		Server: ServerConfig{
			HTTPAddr:        ":8080",
			GRPCAddr:        ":9090",
			ExportDir:       "./exports",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile overlays a YAML file on the defaults, then the environment.
// An empty path behaves like LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "parse config file", err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(c *Config) error {
	sigma, err := requireEnvAsFloat64("N42_SIGMA", c.Extract.Sigma)
	if err != nil {
		return err
	}
	c.Extract.Sigma = sigma

	c.Batch.Workers = getEnvAsInt("N42_WORKERS", c.Batch.Workers)
	c.Batch.FailFast = getEnvAsBool("N42_FAIL_FAST", c.Batch.FailFast)
	c.Batch.SkipHidden = getEnvAsBool("N42_SKIP_HIDDEN", c.Batch.SkipHidden)

	c.Database.Driver = getEnv("N42_DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("N42_DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("N42_DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("N42_DB_MIN_CONNS", c.Database.MinConns)
	c.Database.DialTimeout = getEnvAsDuration("N42_DB_DIAL_TIMEOUT", c.Database.DialTimeout)

	if dirs := getEnv("N42_WATCH_DIRS", ""); dirs != "" {
		c.Watch.Dirs = splitList(dirs)
	}
	c.Watch.Debounce = getEnvAsDuration("N42_WATCH_DEBOUNCE", c.Watch.Debounce)
	c.Watch.QueueSize = getEnvAsInt("N42_QUEUE_SIZE", c.Watch.QueueSize)
	c.Watch.ProcessTimeout = getEnvAsDuration("N42_PROCESS_TIMEOUT", c.Watch.ProcessTimeout)

	c.Server.HTTPAddr = getEnv("N42_HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("N42_GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.ExportDir = getEnv("N42_EXPORT_DIR", c.Server.ExportDir)
	c.Server.ShutdownTimeout = getEnvAsDuration("N42_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Log.Level = getEnv("N42_LOG_LEVEL", c.Log.Level)
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

// requireEnvAsFloat64 is strict: a set but unparsable value is an error, since the
// threshold changes every classification.
func requireEnvAsFloat64(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, NewAppError("CONFIG_ERROR", fmt.Sprintf("%s=%q is not a number", key, value), ErrInvalidInput)
	}
	return floatVal, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("extract.sigma", c.Extract.Sigma, PositiveFinite).
		Field("batch.workers", c.Batch.Workers, PositiveInt).
		Field("database.driver", c.Database.Driver, Required, OneOf("sqlite", "postgres")).
		Field("database.dsn", c.Database.DSN, Required)
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// SlogLevel maps Log.Level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidateSigma is the caller-side check for a threshold multiplier.
func ValidateSigma(sigma float64) error {
	if math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma <= 0 {
		return NewAppError("INVALID_SIGMA", fmt.Sprintf("sigma must be a positive finite number, got %v", sigma), ErrInvalidInput)
	}
	return nil
}
