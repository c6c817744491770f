package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores service settings.
type Config struct {
	Port      int
	LogLevel  string
	DB        DB
	Redis     Redis
	Kafka     Kafka
	Dispatch  Dispatch
	Notify    Notify
	RateLimit RateLimit
	Pprof     PprofConfig
}

// DB stores Postgres connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN returns the pgx connection string.
func (d DB) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Pass),
		Host:     d.Host + ":" + d.Port,
		Path:     d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Redis stores live location index settings. Empty Addr disables the index.
type Redis struct {
	Addr     string
	Password string
	GeoKey   string
}

// Enabled reports whether the live location index is configured.
func (r Redis) Enabled() bool { return r.Addr != "" }

// Kafka stores lifecycle event consumer settings.
type Kafka struct {
	Brokers      []string
	Group        string
	Topics       []string
	// EventTimeout bounds the handling of one consumed event.
	EventTimeout time.Duration
}

// Dispatch tunes offer rounds and the sweep.
type Dispatch struct {
	Strategy         string
	MaxBroadcast     int
	SweepInterval    time.Duration
	SweepBatch       int
	OfferTimeout     time.Duration
	OperationTimeout time.Duration
	// SweepTimeout bounds one sweep and must stay below Kafka.EventTimeout.
	SweepTimeout     time.Duration
}

// Notify configures push delivery.
type Notify struct {
	Sink        string
	Workers     int
	QueueSize   int
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	FCMEndpoint string
	FCMKey      string
	KafkaTopic  string
}

// RateLimit configures the per-courier token bucket.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// PprofConfig configures the optional pprof listener.
type PprofConfig struct {
	Enabled bool
	Addr    string
	User    string
	Pass    string
}

// Notification sinks.
const (
	SinkLog   = "log"
	SinkFCM   = "fcm"
	SinkWS    = "ws"
	SinkKafka = "kafka"
)

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port:      DefaultPort(),
		LogLevel:  "info",
		DB:        DefaultDB(),
		Redis:     Redis{GeoKey: defaultGeoKey},
		Kafka:     DefaultKafka(),
		Dispatch:  DefaultDispatch(),
		Notify:    DefaultNotify(),
		RateLimit: DefaultRateLimit(),
		Pprof:     DefaultPprof(),
	}
	var errs []error

	setIntFromEnv(&cfg.Port, "PORT", &errs)
	setStringFromEnv(&cfg.LogLevel, "LOG_LEVEL")
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	setStringFromEnv(&cfg.DB.Host, "POSTGRES_HOST")
	setStringFromEnv(&cfg.DB.Port, "POSTGRES_PORT")
	setStringFromEnv(&cfg.DB.User, "POSTGRES_USER")
	setStringFromEnv(&cfg.DB.Pass, "POSTGRES_PASSWORD")
	setStringFromEnv(&cfg.DB.Name, "POSTGRES_DB")
	requirePort(cfg.DB.Port, "POSTGRES_PORT", &errs)

	cfg.Redis.Addr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.Redis.GeoKey, "REDIS_GEO_KEY")

	setListFromEnv(&cfg.Kafka.Brokers, "KAFKA_BROKERS")
	setStringFromEnv(&cfg.Kafka.Group, "KAFKA_GROUP")
	setListFromEnv(&cfg.Kafka.Topics, "KAFKA_TOPICS")
	setDurationFromEnv(&cfg.Kafka.EventTimeout, "KAFKA_EVENT_TIMEOUT", &errs)

	setStringFromEnv(&cfg.Dispatch.Strategy, "DISPATCH_STRATEGY")
	cfg.Dispatch.Strategy = strings.ToLower(cfg.Dispatch.Strategy)
	setIntFromEnv(&cfg.Dispatch.MaxBroadcast, "DISPATCH_MAX_BROADCAST", &errs)
	setDurationFromEnv(&cfg.Dispatch.SweepInterval, "DISPATCH_SWEEP_INTERVAL", &errs)
	setIntFromEnv(&cfg.Dispatch.SweepBatch, "DISPATCH_SWEEP_BATCH", &errs)
	setDurationFromEnv(&cfg.Dispatch.OfferTimeout, "DISPATCH_OFFER_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.Dispatch.OperationTimeout, "DISPATCH_OPERATION_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.Dispatch.SweepTimeout, "DISPATCH_SWEEP_TIMEOUT", &errs)

	setStringFromEnv(&cfg.Notify.Sink, "NOTIFY_SINK")
	cfg.Notify.Sink = strings.ToLower(cfg.Notify.Sink)
	setIntFromEnv(&cfg.Notify.Workers, "NOTIFY_WORKERS", &errs)
	setIntFromEnv(&cfg.Notify.QueueSize, "NOTIFY_QUEUE_SIZE", &errs)
	setIntFromEnv(&cfg.Notify.MaxAttempts, "NOTIFY_MAX_ATTEMPTS", &errs)
	setDurationFromEnv(&cfg.Notify.BaseDelay, "NOTIFY_BASE_DELAY", &errs)
	setDurationFromEnv(&cfg.Notify.MaxDelay, "NOTIFY_MAX_DELAY", &errs)
	setStringFromEnv(&cfg.Notify.FCMEndpoint, "FCM_ENDPOINT")
	cfg.Notify.FCMKey = os.Getenv("FCM_KEY")
	setStringFromEnv(&cfg.Notify.KafkaTopic, "NOTIFY_KAFKA_TOPIC")

	setBoolFromEnv(&cfg.RateLimit.Enabled, "RATE_LIMIT_ENABLED", &errs)
	setFloatFromEnv(&cfg.RateLimit.Rate, "RATE_LIMIT_RATE", &errs)
	setIntFromEnv(&cfg.RateLimit.Burst, "RATE_LIMIT_BURST", &errs)
	setDurationFromEnv(&cfg.RateLimit.TTL, "RATE_LIMIT_TTL", &errs)
	setIntFromEnv(&cfg.RateLimit.MaxBuckets, "RATE_LIMIT_MAX_BUCKETS", &errs)

	setStringFromEnv(&cfg.Pprof.Addr, "PPROF_ADDR")
	cfg.Pprof.User = os.Getenv("PPROF_USER")
	cfg.Pprof.Pass = os.Getenv("PPROF_PASS")
	setBoolFromEnv(&cfg.Pprof.Enabled, "PPROF_ENABLED", &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	switch c.Dispatch.Strategy {
	case "broadcast", "pin":
	default:
		errs = append(errs, fmt.Errorf("invalid DISPATCH_STRATEGY %q: want broadcast or pin", c.Dispatch.Strategy))
	}
	if c.Dispatch.MaxBroadcast < 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_MAX_BROADCAST must be >= 0"))
	}
	if c.Dispatch.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_SWEEP_INTERVAL must be > 0"))
	}
	if c.Dispatch.SweepBatch <= 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_SWEEP_BATCH must be > 0"))
	}
	if c.Dispatch.SweepTimeout <= 0 || c.Dispatch.SweepTimeout >= c.Kafka.EventTimeout {
		errs = append(errs, fmt.Errorf("DISPATCH_SWEEP_TIMEOUT must be > 0 and below KAFKA_EVENT_TIMEOUT (%s)", c.Kafka.EventTimeout))
	}
	switch c.Notify.Sink {
	case SinkLog, SinkWS:
	case SinkFCM:
		if c.Notify.FCMEndpoint == "" {
			errs = append(errs, fmt.Errorf("FCM_ENDPOINT is required for NOTIFY_SINK=fcm"))
		}
	case SinkKafka:
		if len(c.Kafka.Brokers) == 0 || c.Notify.KafkaTopic == "" {
			errs = append(errs, fmt.Errorf("KAFKA_BROKERS and NOTIFY_KAFKA_TOPIC are required for NOTIFY_SINK=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid NOTIFY_SINK %q", c.Notify.Sink))
	}
	if c.Notify.Workers <= 0 || c.Notify.QueueSize <= 0 || c.Notify.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("NOTIFY_WORKERS, NOTIFY_QUEUE_SIZE and NOTIFY_MAX_ATTEMPTS must be > 0"))
	}
	return errors.Join(errs...)
}
