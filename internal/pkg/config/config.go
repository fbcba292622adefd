package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (DB connection, brokers)
// - default: Values common across all environments (intervals, grace periods)
// -----------------------------------------------------------------------------

type Config struct {
	DB      DBConfig
	Log     LogConfig
	Jobs    JobsConfig
	Billing BillingConfig
	Kafka   KafkaConfig
	Video   VideoConfig
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

type JobsConfig struct {
	ExpireOrdersInterval     time.Duration `envconfig:"JOB_EXPIRE_ORDERS_INTERVAL" default:"5m"`
	ExpireBookingsInterval   time.Duration `envconfig:"JOB_EXPIRE_BOOKINGS_INTERVAL" default:"5m"`
	ReconciliationInterval   time.Duration `envconfig:"JOB_RECONCILIATION_INTERVAL" default:"1h"`
	NoShowInterval           time.Duration `envconfig:"JOB_NOSHOW_INTERVAL" default:"10m"`
	SessionEndInterval       time.Duration `envconfig:"JOB_SESSION_END_INTERVAL" default:"2m"`
	StaleSessionInterval     time.Duration `envconfig:"JOB_STALE_SESSION_INTERVAL" default:"15m"`
	PayoutInterval           time.Duration `envconfig:"JOB_PAYOUT_INTERVAL" default:"1h"`
	OrderExpiry              time.Duration `envconfig:"ORDER_EXPIRY" default:"30m"`
	BookingExpiry            time.Duration `envconfig:"BOOKING_EXPIRY" default:"30m"`
	ReconciliationMinAge     time.Duration `envconfig:"RECONCILIATION_MIN_AGE" default:"10m"`
	ReconciliationMaxAge     time.Duration `envconfig:"RECONCILIATION_MAX_AGE" default:"24h"`
	ProviderTimeout          time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"15s"`
	DevModeBypassSessionEnd  bool          `envconfig:"DEV_BYPASS_SESSION_END" default:"false"`
}

type BillingConfig struct {
	DefaultCommissionRate string        `envconfig:"COMMISSION_RATE_DEFAULT" default:"0.15"`
	BookingHoldback       time.Duration `envconfig:"BOOKING_HOLDBACK" default:"72h"`
	CourseHoldback        time.Duration `envconfig:"COURSE_HOLDBACK" default:"336h"`
}

type KafkaConfig struct {
	Brokers     []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	EventsTopic string   `envconfig:"KAFKA_EVENTS_TOPIC" default:"mentorbook.domain-events"`
	Enabled     bool     `envconfig:"KAFKA_ENABLED" default:"true"`
}

type VideoConfig struct {
	NoShowGrace     time.Duration `envconfig:"NOSHOW_GRACE" default:"15m"`
	SessionEndGrace time.Duration `envconfig:"SESSION_END_GRACE" default:"10m"`
	StaleSessionAge time.Duration `envconfig:"STALE_SESSION_AGE" default:"30m"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	// .env is optional; real environments set variables directly
	if err := godotenv.Load(".env"); err == nil {
		slog.Info("loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Level: "error",
		},
		Kafka: KafkaConfig{
			Enabled: false,
		},
	}
}
