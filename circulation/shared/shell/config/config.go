package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported values of DB_DRIVER.
const (
	DriverPGX      = "pgx"      // pgxpool, or one pgx connection per acquisition with pool size 0
	DriverPostgres = "postgres" // lib/pq with database/sql
	DriverSQLX     = "sqlx"     // lib/pq with sqlx
	DriverMySQL    = "mysql"    // go-sql-driver/mysql with sqlx
	DriverSQLite   = "sqlite3"  // mattn/go-sqlite3 with database/sql
)

// ErrInvalidConfig is returned when the loaded configuration can't be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Library  LibraryConfig  `yaml:"library"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	OTel     OTelConfig     `yaml:"otel"`
}

// DatabaseConfig describes how to reach the database and how to manage connections.
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	Name             string        `yaml:"name"`
	SSLMode          string        `yaml:"sslmode"`
	Path             string        `yaml:"path"`
	ReplicaHost      string        `yaml:"replica_host"`
	PoolSize         int           `yaml:"pool_size"`
	RetryAttempts    int           `yaml:"retry_attempts"`
	RetryBaseDelay   time.Duration `yaml:"retry_base_delay"`
	RetryJitter      float64       `yaml:"retry_jitter"`
	AcquireTimeout   time.Duration `yaml:"acquire_timeout"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `yaml:"conn_max_idle_time"`
	MigrateOnStartup bool          `yaml:"migrate_on_startup"`
}

// LibraryConfig holds the circulation rules.
type LibraryConfig struct {
	// LoanPeriodDays sets the due date of new loans. 0 means loans have no due date.
	LoanPeriodDays int `yaml:"loan_period_days"`
	// TimeZone is the IANA zone whose calendar day counts as today. Empty means the local zone.
	TimeZone string `yaml:"time_zone"`
}

// Location resolves TimeZone.
func (c LibraryConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}

	return time.LoadLocation(c.TimeZone)
}

// Clock returns the current time in the configured zone. Call it on a validated config only.
func (c LibraryConfig) Clock() func() time.Time {
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}

	return func() time.Time {
		return time.Now().In(loc)
	}
}

// HTTPConfig holds the web server settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// OTelConfig switches the OpenTelemetry adapters on. Without an Endpoint nothing is exported
// and the handlers keep logging through slog.
type OTelConfig struct {
	Enabled        bool          `yaml:"enabled"`
	ServiceName    string        `yaml:"service_name"`
	Endpoint       string        `yaml:"endpoint"` // OTLP gRPC collector, e.g. localhost:4317
	Insecure       bool          `yaml:"insecure"`
	ExportInterval time.Duration `yaml:"export_interval"`
}

// Exporting reports whether telemetry leaves the process.
func (c OTelConfig) Exporting() bool {
	return c.Enabled && c.Endpoint != ""
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:           DriverPGX,
			Host:             "localhost",
			Port:             5432,
			User:             "library",
			Password:         "library",
			Name:             "library",
			SSLMode:          "disable",
			Path:             "./library.db",
			PoolSize:         10,
			RetryAttempts:    3,
			RetryBaseDelay:   time.Second,
			AcquireTimeout:   5 * time.Second,
			ConnMaxLifetime:  time.Hour,
			ConnMaxIdleTime:  5 * time.Minute,
			MigrateOnStartup: true,
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		OTel: OTelConfig{
			ServiceName:    "librarydesk",
			ExportInterval: 15 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if not empty),
// the .env file at envFile (if it exists) and the environment.
func Load(path string, envFile string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, errors.Join(ErrInvalidConfig, fmt.Errorf("loading %s: %w", path, err))
		}
	}

	if envFile != "" {
		if _, statErr := os.Stat(envFile); statErr == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, errors.Join(ErrInvalidConfig, fmt.Errorf("loading %s: %w", envFile, err))
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides overrides every setting that has a non-empty environment variable.
func applyEnvOverrides(cfg *Config) error {
	stringVars := map[string]*string{
		"DB_DRIVER":                   &cfg.Database.Driver,
		"DB_HOST":                     &cfg.Database.Host,
		"DB_USER":                     &cfg.Database.User,
		"DB_PASSWORD":                 &cfg.Database.Password,
		"DB_NAME":                     &cfg.Database.Name,
		"DB_PATH":                     &cfg.Database.Path,
		"DB_REPLICA_HOST":             &cfg.Database.ReplicaHost,
		"DB_SSLMODE":                  &cfg.Database.SSLMode,
		"HTTP_ADDR":                   &cfg.HTTP.Addr,
		"LOG_LEVEL":                   &cfg.Log.Level,
		"LOG_FORMAT":                  &cfg.Log.Format,
		"OTEL_SERVICE_NAME":           &cfg.OTel.ServiceName,
		"OTEL_EXPORTER_OTLP_ENDPOINT": &cfg.OTel.Endpoint,
		"LIBRARY_TIMEZONE":            &cfg.Library.TimeZone,
	}

	for key, target := range stringVars {
		if value := os.Getenv(key); value != "" {
			*target = value
		}
	}

	intVars := map[string]*int{
		"DB_PORT":                  &cfg.Database.Port,
		"DB_POOL_SIZE":             &cfg.Database.PoolSize,
		"DB_RETRY_ATTEMPTS":        &cfg.Database.RetryAttempts,
		"LIBRARY_LOAN_PERIOD_DAYS": &cfg.Library.LoanPeriodDays,
	}

	for key, target := range intVars {
		if value := os.Getenv(key); value != "" {
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return errors.Join(ErrInvalidConfig, fmt.Errorf("%s: %w", key, err))
			}

			*target = parsed
		}
	}

	durationVars := map[string]*time.Duration{
		"DB_RETRY_BASE_DELAY":   &cfg.Database.RetryBaseDelay,
		"DB_ACQUIRE_TIMEOUT":    &cfg.Database.AcquireTimeout,
		"HTTP_SHUTDOWN_TIMEOUT": &cfg.HTTP.ShutdownTimeout,
		"OTEL_EXPORT_INTERVAL":  &cfg.OTel.ExportInterval,
	}

	for key, target := range durationVars {
		if value := os.Getenv(key); value != "" {
			parsed, err := time.ParseDuration(value)
			if err != nil {
				return errors.Join(ErrInvalidConfig, fmt.Errorf("%s: %w", key, err))
			}

			*target = parsed
		}
	}

	if value := os.Getenv("DB_RETRY_JITTER"); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Join(ErrInvalidConfig, fmt.Errorf("DB_RETRY_JITTER: %w", err))
		}

		cfg.Database.RetryJitter = parsed
	}

	boolVars := map[string]*bool{
		"OTEL_ENABLED":                &cfg.OTel.Enabled,
		"OTEL_EXPORTER_OTLP_INSECURE": &cfg.OTel.Insecure,
		"DB_MIGRATE_ON_STARTUP":       &cfg.Database.MigrateOnStartup,
	}

	for key, target := range boolVars {
		if value := os.Getenv(key); value != "" {
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				return errors.Join(ErrInvalidConfig, fmt.Errorf("%s: %w", key, err))
			}

			*target = parsed
		}
	}

	return nil
}

// Validate checks that the configuration can be used to start the application.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPGX, DriverPostgres, DriverSQLX, DriverMySQL:
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.Join(ErrInvalidConfig, errors.New("database host and name must not be empty"))
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.Join(ErrInvalidConfig, errors.New("database path must not be empty"))
		}
	default:
		return errors.Join(ErrInvalidConfig, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}

	if c.Database.PoolSize < 0 {
		return errors.Join(ErrInvalidConfig, errors.New("pool size must not be negative"))
	}

	if c.Database.PoolSize == 0 && c.Database.Driver != DriverPGX {
		return errors.Join(ErrInvalidConfig, errors.New("pool size 0 (direct connections) is only supported by the pgx driver"))
	}

	if c.Database.RetryAttempts <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("retry attempts must be positive"))
	}

	if c.Database.AcquireTimeout <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("acquire timeout must be positive"))
	}

	if _, err := c.Library.Location(); err != nil {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("library time zone: %w", err))
	}

	if c.Library.LoanPeriodDays < 0 {
		return errors.Join(ErrInvalidConfig, errors.New("loan period must not be negative"))
	}

	if c.OTel.Enabled && c.OTel.ExportInterval <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("otel export interval must be positive"))
	}

	if c.HTTP.Addr == "" {
		return errors.Join(ErrInvalidConfig, errors.New("http address must not be empty"))
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	return nil
}
