package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	Payments  PaymentsConfig
	Invites   InvitesConfig
	Lookup    OrderLookupConfig
	Mailer    MailerConfig
	Bootstrap BootstrapConfig
	Features  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payments.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AT_APP_ENV" required:"true"`
	Port         string `envconfig:"AT_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"AT_APP_BASE_URL" required:"true"`
	LogLevel     string `envconfig:"AT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AT_DB_DSN"`
	Driver string `envconfig:"AT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AT_DB_HOST"`
	LegacyPort     int    `envconfig:"AT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AT_DB_USER"`
	LegacyPassword string `envconfig:"AT_DB_PASSWORD"`
	LegacyName     string `envconfig:"AT_DB_NAME"`
	LegacySSLMode  string `envconfig:"AT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AT_REDIS_ADDR"`
	Password     string        `envconfig:"AT_REDIS_PASSWORD"`
	DB           int           `envconfig:"AT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AT_ARGON_KEY_LEN" default:"32"`
}

// PaymentsConfig selects enabled gateways and carries per-provider secrets.
// A provider with no secret key runs in mock-checkout mode (dev/demo).
type PaymentsConfig struct {
	Enabled         []string      `envconfig:"AT_PAYMENTS_ENABLED" default:"paystack"`
	DefaultProvider string        `envconfig:"AT_PAYMENTS_DEFAULT" default:"paystack"`
	HTTPTimeout     time.Duration `envconfig:"AT_PAYMENTS_HTTP_TIMEOUT" default:"5s"`

	PaystackSecretKey     string `envconfig:"AT_PAYSTACK_SECRET_KEY"`
	FlutterwaveSecretKey  string `envconfig:"AT_FLUTTERWAVE_SECRET_KEY"`
	FlutterwaveSecretHash string `envconfig:"AT_FLUTTERWAVE_SECRET_HASH"`
	StripeSecretKey       string `envconfig:"AT_STRIPE_SECRET_KEY"`
	StripeWebhookSecret   string `envconfig:"AT_STRIPE_WEBHOOK_SECRET"`
}

// ProviderEnabled reports whether the named gateway is switched on.
func (p PaymentsConfig) ProviderEnabled(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, candidate := range p.Enabled {
		if strings.ToLower(strings.TrimSpace(candidate)) == name {
			return true
		}
	}
	return false
}

func (p PaymentsConfig) validate() error {
	if len(p.Enabled) == 0 {
		return fmt.Errorf("at least one payment provider must be enabled")
	}
	if p.DefaultProvider != "" && !p.ProviderEnabled(p.DefaultProvider) {
		return fmt.Errorf("default payment provider %q is not enabled", p.DefaultProvider)
	}
	return nil
}

type InvitesConfig struct {
	TTLHours int `envconfig:"AT_INVITE_TTL_HOURS" default:"72"`
}

// TTL returns the invite time-to-live.
func (i InvitesConfig) TTL() time.Duration {
	if i.TTLHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(i.TTLHours) * time.Hour
}

type OrderLookupConfig struct {
	Window      time.Duration `envconfig:"AT_ORDER_LOOKUP_WINDOW" default:"1m"`
	MaxAttempts int           `envconfig:"AT_ORDER_LOOKUP_MAX_ATTEMPTS" default:"10"`
}

type MailerConfig struct {
	APIURL      string `envconfig:"AT_MAILER_API_URL"`
	APIKey      string `envconfig:"AT_MAILER_API_KEY"`
	DefaultFrom string `envconfig:"AT_MAILER_FROM_EMAIL" default:"orders@arewatasty.com"`
}

type BootstrapConfig struct {
	SuperadminEmail    string `envconfig:"AT_BOOTSTRAP_SUPERADMIN_EMAIL"`
	SuperadminPassword string `envconfig:"AT_BOOTSTRAP_SUPERADMIN_PASSWORD"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AT_AUTO_MIGRATE" default:"false"`
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
