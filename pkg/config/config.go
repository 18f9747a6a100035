package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Escrow       EscrowConfig
	Scheduler    SchedulerConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SAFETRADE_APP_ENV" required:"true"`
	Port         string `envconfig:"SAFETRADE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SAFETRADE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SAFETRADE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SAFETRADE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SAFETRADE_DB_DSN"`
	Driver string `envconfig:"SAFETRADE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SAFETRADE_DB_HOST"`
	LegacyPort     int    `envconfig:"SAFETRADE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SAFETRADE_DB_USER"`
	LegacyPassword string `envconfig:"SAFETRADE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SAFETRADE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SAFETRADE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SAFETRADE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SAFETRADE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SAFETRADE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SAFETRADE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SAFETRADE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SAFETRADE_REDIS_ADDR"`
	Password     string        `envconfig:"SAFETRADE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SAFETRADE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SAFETRADE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SAFETRADE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SAFETRADE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SAFETRADE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SAFETRADE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// EscrowConfig carries the timing rules of the settlement lifecycle.
type EscrowConfig struct {
	DefaultInspectionPeriodDays int           `envconfig:"SAFETRADE_ESCROW_INSPECTION_PERIOD_DAYS" default:"3"`
	DeliveryGracePeriodDays     int           `envconfig:"SAFETRADE_ESCROW_DELIVERY_GRACE_DAYS" default:"3"`
	DisputeGraceDays            int           `envconfig:"SAFETRADE_ESCROW_DISPUTE_GRACE_DAYS" default:"14"`
	PayoutDelayDays             int           `envconfig:"SAFETRADE_ESCROW_PAYOUT_DELAY_DAYS" default:"0"`
	StockCacheTTL               time.Duration `envconfig:"SAFETRADE_ESCROW_STOCK_CACHE_TTL" default:"5m"`
}

func (e EscrowConfig) DefaultInspectionPeriod() time.Duration {
	return time.Duration(e.DefaultInspectionPeriodDays) * 24 * time.Hour
}

func (e EscrowConfig) DeliveryGracePeriod() time.Duration {
	return time.Duration(e.DeliveryGracePeriodDays) * 24 * time.Hour
}

func (e EscrowConfig) DisputeGracePeriod() time.Duration {
	return time.Duration(e.DisputeGraceDays) * 24 * time.Hour
}

func (e EscrowConfig) PayoutDelay() time.Duration {
	return time.Duration(e.PayoutDelayDays) * 24 * time.Hour
}

// SchedulerConfig tunes the auto-transition worker.
type SchedulerConfig struct {
	Interval    time.Duration `envconfig:"SAFETRADE_SCHEDULER_INTERVAL" default:"1m"`
	BatchSize   int           `envconfig:"SAFETRADE_SCHEDULER_BATCH_SIZE" default:"100"`
	MaxAttempts int           `envconfig:"SAFETRADE_SCHEDULER_MAX_ATTEMPTS" default:"5"`
	BackoffBase time.Duration `envconfig:"SAFETRADE_SCHEDULER_BACKOFF_BASE" default:"1m"`
	LockTTL     time.Duration `envconfig:"SAFETRADE_SCHEDULER_LOCK_TTL" default:"2m"`
}

// RateLimitConfig throttles mutating API traffic.
type RateLimitConfig struct {
	WriteWindow     time.Duration `envconfig:"SAFETRADE_RATE_LIMIT_WRITE_WINDOW" default:"1m"`
	WriteIPLimit    int           `envconfig:"SAFETRADE_RATE_LIMIT_WRITE_IP_LIMIT" default:"120"`
	WriteActorLimit int           `envconfig:"SAFETRADE_RATE_LIMIT_WRITE_ACTOR_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SAFETRADE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SAFETRADE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"SAFETRADE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SAFETRADE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SAFETRADE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SAFETRADE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	TransactionTopic        string `envconfig:"SAFETRADE_PUBSUB_TRANSACTION_TOPIC" default:"st-transaction-events"`
	TransactionSubscription string `envconfig:"SAFETRADE_PUBSUB_TRANSACTION_SUBSCRIPTION"`
	NotificationTopic       string `envconfig:"SAFETRADE_PUBSUB_NOTIFICATION_TOPIC" default:"st-notification-events"`
	PayoutTopic             string `envconfig:"SAFETRADE_PUBSUB_PAYOUT_TOPIC" default:"st-payout-events"`
	InventoryTopic          string `envconfig:"SAFETRADE_PUBSUB_INVENTORY_TOPIC" default:"st-inventory-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SAFETRADE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SAFETRADE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SAFETRADE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
