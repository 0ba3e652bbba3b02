package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "HUELLITAS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment variable names referenced outside of struct tags.
const (
	EnvAppEnv                  = "HUELLITAS_APP_ENV"
	EnvPort                    = "HUELLITAS_APP_PORT"
	EnvTimezone                = "HUELLITAS_APP_TIMEZONE"
	EnvDBDriver                = "HUELLITAS_DB_DRIVER"
	EnvDBDSN                   = "HUELLITAS_DB_DSN"
	EnvDBHost                  = "HUELLITAS_DB_HOST"
	EnvDBUser                  = "HUELLITAS_DB_USER"
	EnvDBName                  = "HUELLITAS_DB_NAME"
	EnvRedisURL                = "HUELLITAS_REDIS_URL"
	EnvJWTSecret               = "HUELLITAS_JWT_SECRET"
	EnvJWTIssuer               = "HUELLITAS_JWT_ISSUER"
	EnvJWTExpMins              = "HUELLITAS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "HUELLITAS_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID            = "HUELLITAS_GCP_PROJECT_ID"
	EnvPubSubDomainTopic       = "HUELLITAS_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubNotificationTopic = "HUELLITAS_PUBSUB_NOTIFICATION_TOPIC"
	EnvReminderWindowDays      = "HUELLITAS_REMINDER_WINDOW_DAYS"
	EnvCronSchedule            = "HUELLITAS_CRON_SCHEDULE"
)

// Postgres connection parts accepted when no DSN is configured.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
	Workflow      WorkflowConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HUELLITAS_APP_ENV" required:"true"`
	Port         string `envconfig:"HUELLITAS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"HUELLITAS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HUELLITAS_LOG_WARN_STACK" default:"false"`
	Timezone     string `envconfig:"HUELLITAS_APP_TIMEZONE" default:"America/Bogota"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the timezone used for calendar-date rules such as "tomorrow".
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvTimezone, name, err)
	}
	return loc, nil
}

type DBConfig struct {
	DSN    string `envconfig:"HUELLITAS_DB_DSN"`
	Driver string `envconfig:"HUELLITAS_DB_DRIVER" default:"sqlite"`

	LegacyHost     string `envconfig:"HUELLITAS_DB_HOST"`
	LegacyPort     int    `envconfig:"HUELLITAS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HUELLITAS_DB_USER"`
	LegacyPassword string `envconfig:"HUELLITAS_DB_PASSWORD"`
	LegacyName     string `envconfig:"HUELLITAS_DB_NAME"`
	LegacySSLMode  string `envconfig:"HUELLITAS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HUELLITAS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HUELLITAS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HUELLITAS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HUELLITAS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is SQLite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"HUELLITAS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HUELLITAS_REDIS_ADDR"`
	Password     string        `envconfig:"HUELLITAS_REDIS_PASSWORD"`
	DB           int           `envconfig:"HUELLITAS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HUELLITAS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HUELLITAS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HUELLITAS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HUELLITAS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HUELLITAS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"HUELLITAS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"HUELLITAS_JWT_ISSUER" default:"huellitas"`
	ExpirationMinutes      int    `envconfig:"HUELLITAS_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"HUELLITAS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HUELLITAS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HUELLITAS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HUELLITAS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HUELLITAS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HUELLITAS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"HUELLITAS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"HUELLITAS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"HUELLITAS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"HUELLITAS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"HUELLITAS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"HUELLITAS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"HUELLITAS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HUELLITAS_AUTO_MIGRATE" default:"false"`
}

// WorkflowConfig tunes the adoption/visit side effects exposed to clients.
type WorkflowConfig struct {
	ReminderWindowDays      int `envconfig:"HUELLITAS_REMINDER_WINDOW_DAYS" default:"7"`
	NotificationPollSeconds int `envconfig:"HUELLITAS_NOTIFICATION_POLL_SECONDS" default:"30"`
	ReminderPollSeconds     int `envconfig:"HUELLITAS_REMINDER_POLL_SECONDS" default:"300"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"HUELLITAS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic       string `envconfig:"HUELLITAS_PUBSUB_DOMAIN_TOPIC" default:"huellitas-domain-events"`
	NotificationTopic string `envconfig:"HUELLITAS_PUBSUB_NOTIFICATION_TOPIC" default:"huellitas-notification-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"HUELLITAS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"HUELLITAS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"HUELLITAS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Schedule              string        `envconfig:"HUELLITAS_CRON_SCHEDULE" default:"0 6 * * *"`
	LockTTL               time.Duration `envconfig:"HUELLITAS_CRON_LOCK_TTL" default:"30m"`
	NotificationRetention int           `envconfig:"HUELLITAS_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
	OutboxRetention       int           `envconfig:"HUELLITAS_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:huellitas.db?_foreign_keys=on&_busy_timeout=5000"
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
