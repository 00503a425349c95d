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
	PayFast      PayFastConfig
	Sync         SyncConfig
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
	Env          string `envconfig:"CLASSPILOT_APP_ENV" required:"true"`
	Port         string `envconfig:"CLASSPILOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CLASSPILOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLASSPILOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CLASSPILOT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CLASSPILOT_DB_DSN"`
	Driver string `envconfig:"CLASSPILOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CLASSPILOT_DB_HOST"`
	LegacyPort     int    `envconfig:"CLASSPILOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CLASSPILOT_DB_USER"`
	LegacyPassword string `envconfig:"CLASSPILOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"CLASSPILOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"CLASSPILOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLASSPILOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLASSPILOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLASSPILOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLASSPILOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CLASSPILOT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CLASSPILOT_REDIS_ADDR"`
	Password     string        `envconfig:"CLASSPILOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLASSPILOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLASSPILOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLASSPILOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLASSPILOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLASSPILOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLASSPILOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PayFastConfig pins the ITN verification inputs at process start. The
// passphrase only participates in signing when Mode is "production",
// matching the gateway sandbox's weaker contract.
type PayFastConfig struct {
	MerchantID string `envconfig:"CLASSPILOT_PAYFAST_MERCHANT_ID" required:"true"`
	Passphrase string `envconfig:"CLASSPILOT_PAYFAST_PASSPHRASE"`
	Mode       string `envconfig:"CLASSPILOT_PAYFAST_MODE" default:"sandbox"`

	// AuditLogEnabled gates subscription log inserts for deployments that
	// predate the subscription_logs relation.
	AuditLogEnabled bool `envconfig:"CLASSPILOT_PAYFAST_AUDIT_LOG" default:"true"`

	// ITNTargetURL is where the legacy proxy path forwards notifications.
	// Empty means the process's own ITN endpoint.
	ITNTargetURL string `envconfig:"CLASSPILOT_PAYFAST_ITN_TARGET"`
}

// IsProduction reports whether ITN signing must include the passphrase.
func (p PayFastConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(p.Mode), PayFastModeProduction)
}

// SigningPassphrase returns the passphrase to feed into signature
// verification, or empty outside production mode.
func (p PayFastConfig) SigningPassphrase() string {
	if !p.IsProduction() {
		return ""
	}
	return p.Passphrase
}

type SyncConfig struct {
	RegistrationsURL string        `envconfig:"CLASSPILOT_SYNC_REGISTRATIONS_URL"`
	ServiceKey       string        `envconfig:"CLASSPILOT_SYNC_SERVICE_KEY"`
	Interval         time.Duration `envconfig:"CLASSPILOT_SYNC_INTERVAL" default:"5m"`
	RequestTimeout   time.Duration `envconfig:"CLASSPILOT_SYNC_REQUEST_TIMEOUT" default:"30s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CLASSPILOT_AUTO_MIGRATE" default:"false"`
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
