package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is passed to envconfig; the field tags carry fully-qualified names.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names shared by Load and the test helpers.
const (
	EnvAppEnv    = "STORYREEL_APP_ENV"
	EnvPort      = "STORYREEL_APP_PORT"
	EnvDBDSN     = "STORYREEL_DB_DSN"
	EnvDBHost    = "STORYREEL_DB_HOST"
	EnvDBUser    = "STORYREEL_DB_USER"
	EnvDBName    = "STORYREEL_DB_NAME"
	EnvRedisURL  = "STORYREEL_REDIS_URL"
	EnvJWTSecret = "STORYREEL_JWT_SECRET"
	EnvJWTIssuer = "STORYREEL_JWT_ISSUER"
	EnvJWTExpMin = "STORYREEL_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"STORYREEL_APP_ENV" required:"true"`
	Port         string `envconfig:"STORYREEL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STORYREEL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STORYREEL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STORYREEL_DB_DSN"`
	Driver string `envconfig:"STORYREEL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STORYREEL_DB_HOST"`
	LegacyPort     int    `envconfig:"STORYREEL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STORYREEL_DB_USER"`
	LegacyPassword string `envconfig:"STORYREEL_DB_PASSWORD"`
	LegacyName     string `envconfig:"STORYREEL_DB_NAME"`
	LegacySSLMode  string `envconfig:"STORYREEL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STORYREEL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STORYREEL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STORYREEL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STORYREEL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STORYREEL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STORYREEL_REDIS_ADDR"`
	Password     string        `envconfig:"STORYREEL_REDIS_PASSWORD"`
	DB           int           `envconfig:"STORYREEL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STORYREEL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STORYREEL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STORYREEL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STORYREEL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STORYREEL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STORYREEL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STORYREEL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STORYREEL_JWT_EXPIRATION_MINUTES" required:"true"`
}

// AccessTokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STORYREEL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STORYREEL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STORYREEL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STORYREEL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STORYREEL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"STORYREEL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentifierLimit  int           `envconfig:"STORYREEL_AUTH_RATE_LIMIT_LOGIN_IDENTIFIER_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"STORYREEL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"STORYREEL_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterUsernameLimit int           `envconfig:"STORYREEL_AUTH_RATE_LIMIT_REGISTER_USERNAME_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"STORYREEL_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STORYREEL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STORYREEL_AUTO_MIGRATE" default:"false"`
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
