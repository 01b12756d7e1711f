package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Log       LogConfig
	Auth      AuthConfig
	Notify    NotifyConfig
	Booking   BookingConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"`       // seconds
	RequestTimeout  int    `envconfig:"SERVER_REQUEST_TIMEOUT" default:"10"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
type DBConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	User           string `envconfig:"DB_USER" default:"postgres"`
	Password       string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name           string `envconfig:"DB_NAME" default:"trek_db"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns       int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns       int    `envconfig:"DB_MIN_CONNS" default:"5"`
	MaxRetries     int    `envconfig:"DB_MAX_RETRIES" default:"5"`
	MigrateOnStart bool   `envconfig:"DB_MIGRATE_ON_START" default:"true"`
}

// DSN returns the PostgreSQL connection string used by the pgx pool.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("%s&pool_max_conns=%d&pool_min_conns=%d", c.MigrationDSN(), c.MaxConns, c.MinConns)
}

// MigrationDSN returns the connection string without pool parameters,
// which the migration driver would otherwise forward to the server.
func (c DBConfig) MigrationDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// AuthConfig holds session token configuration.
type AuthConfig struct {
	JWTSecret string `envconfig:"AUTH_JWT_SECRET" default:"dev-secret-change-me"` // CHANGE IN PRODUCTION
	TokenTTL  int    `envconfig:"AUTH_TOKEN_TTL_MIN" default:"60"`                 // minutes
}

// NotifyConfig holds booking notification configuration.
// An empty AMQPURL makes notifications go to the log only.
type NotifyConfig struct {
	AMQPURL   string `envconfig:"NOTIFY_AMQP_URL"`
	Exchange  string `envconfig:"NOTIFY_EXCHANGE" default:"trek.bookings"`
	Timeout   int    `envconfig:"NOTIFY_TIMEOUT" default:"5"` // seconds
	QueueSize int    `envconfig:"NOTIFY_QUEUE_SIZE" default:"256"`
	Workers   int    `envconfig:"NOTIFY_WORKERS" default:"2"`
}

// Admission modes for new bookings.
const (
	AdmissionStrict   = "strict"
	AdmissionAdvisory = "advisory"
)

// ParticipantLimit is the largest group a single booking may carry.
const ParticipantLimit = 20

// BookingConfig holds booking rules.
type BookingConfig struct {
	MaxParticipants int    `envconfig:"BOOKING_MAX_PARTICIPANTS" default:"20"`
	Admission       string `envconfig:"BOOKING_ADMISSION" default:"strict"`
}

// ReconcileConfig holds the periodic slot reconciliation settings.
type ReconcileConfig struct {
	Interval int `envconfig:"RECONCILE_INTERVAL" default:"900"` // seconds, 0 disables
	Timeout  int `envconfig:"RECONCILE_TIMEOUT" default:"120"`  // seconds per sweep, 0 is unbounded
}

// IntervalDuration returns the sweep interval as a time.Duration.
func (c ReconcileConfig) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// TimeoutDuration returns the per-sweep deadline as a time.Duration.
func (c ReconcileConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Load reads an optional .env file and parses environment variables into the Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.Booking.Admission != AdmissionStrict && cfg.Booking.Admission != AdmissionAdvisory {
		return nil, fmt.Errorf("BOOKING_ADMISSION must be %q or %q, got %q",
			AdmissionStrict, AdmissionAdvisory, cfg.Booking.Admission)
	}
	if cfg.Booking.MaxParticipants < 1 || cfg.Booking.MaxParticipants > ParticipantLimit {
		return nil, fmt.Errorf("BOOKING_MAX_PARTICIPANTS must be between 1 and %d, got %d",
			ParticipantLimit, cfg.Booking.MaxParticipants)
	}
	return &cfg, nil
}
