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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Notify       NotifyConfig
	Push         PushConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"PARCELTRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"PARCELTRACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PARCELTRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PARCELTRACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PARCELTRACK_DB_DSN"`
	Driver string `envconfig:"PARCELTRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PARCELTRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"PARCELTRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PARCELTRACK_DB_USER"`
	LegacyPassword string `envconfig:"PARCELTRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"PARCELTRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"PARCELTRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PARCELTRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PARCELTRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PARCELTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PARCELTRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PARCELTRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PARCELTRACK_REDIS_ADDR"`
	Password     string        `envconfig:"PARCELTRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"PARCELTRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PARCELTRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PARCELTRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PARCELTRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PARCELTRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PARCELTRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PARCELTRACK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PARCELTRACK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PARCELTRACK_JWT_EXPIRATION_MINUTES" required:"true"`
}

// NotifyConfig carries the sync-client knobs. The defaults mirror the web
// client this service replaced: a 30s authoritative poll and a fixed 3s
// reconnect delay on the push channel.
type NotifyConfig struct {
	PollInterval   time.Duration `envconfig:"PARCELTRACK_NOTIFY_POLL_INTERVAL" default:"30s"`
	ReconnectDelay time.Duration `envconfig:"PARCELTRACK_NOTIFY_RECONNECT_DELAY" default:"3s"`
	FetchLimit     int           `envconfig:"PARCELTRACK_NOTIFY_FETCH_LIMIT" default:"15"`
}

type PushConfig struct {
	Channel      string        `envconfig:"PARCELTRACK_PUSH_CHANNEL" default:"pt:notify:push"`
	WriteTimeout time.Duration `envconfig:"PARCELTRACK_PUSH_WRITE_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PARCELTRACK_AUTO_MIGRATE" default:"false"`
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
