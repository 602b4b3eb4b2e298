package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes every environment variable consumed by the service.
const EnvPrefix = "CLICKSHOP"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Tokens       TokenConfig
	RateLimit    AuthRateLimitConfig
	GoogleOAuth  GoogleOAuthConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Frontend     FrontendConfig
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
	Env          string `envconfig:"CLICKSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"CLICKSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CLICKSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLICKSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CLICKSHOP_DB_DSN"`
	Driver string `envconfig:"CLICKSHOP_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CLICKSHOP_DB_HOST"`
	Port     int    `envconfig:"CLICKSHOP_DB_PORT" default:"5432"`
	User     string `envconfig:"CLICKSHOP_DB_USER"`
	Password string `envconfig:"CLICKSHOP_DB_PASSWORD"`
	Name     string `envconfig:"CLICKSHOP_DB_NAME"`
	SSLMode  string `envconfig:"CLICKSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLICKSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLICKSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLICKSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLICKSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CLICKSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CLICKSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"CLICKSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLICKSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLICKSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLICKSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLICKSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLICKSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLICKSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CLICKSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CLICKSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CLICKSHOP_JWT_EXPIRATION_MINUTES" required:"true"`
}

// AccessTokenTTL returns the session token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CLICKSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CLICKSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CLICKSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CLICKSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CLICKSHOP_ARGON_KEY_LEN" default:"32"`
}

// TokenConfig governs verification and password-reset token lifecycle.
type TokenConfig struct {
	TTLMinutes     int `envconfig:"CLICKSHOP_VERIFICATION_TOKEN_TTL_MINUTES" default:"120"`
	MaxAttempts    int `envconfig:"CLICKSHOP_VERIFICATION_MAX_ATTEMPTS" default:"5"`
	LockoutMinutes int `envconfig:"CLICKSHOP_VERIFICATION_LOCKOUT_MINUTES" default:"15"`
}

// TTL returns the verification/reset token lifetime, distinct from the session TTL.
func (t TokenConfig) TTL() time.Duration {
	if t.TTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(t.TTLMinutes) * time.Minute
}

// Lockout returns the window applied after the attempt budget is exhausted.
func (t TokenConfig) Lockout() time.Duration {
	if t.LockoutMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(t.LockoutMinutes) * time.Minute
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CLICKSHOP_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CLICKSHOP_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CLICKSHOP_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CLICKSHOP_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CLICKSHOP_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CLICKSHOP_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ForgotWindow       time.Duration `envconfig:"CLICKSHOP_RATE_LIMIT_FORGOT_WINDOW" default:"5m"`
	ForgotEmailLimit   int           `envconfig:"CLICKSHOP_RATE_LIMIT_FORGOT_EMAIL_LIMIT" default:"3"`
	ForgotIPLimit      int           `envconfig:"CLICKSHOP_RATE_LIMIT_FORGOT_IP_LIMIT" default:"10"`
}

// GoogleOAuthConfig is optional; Google sign-in is disabled when the client pair is absent.
type GoogleOAuthConfig struct {
	ClientID     string `envconfig:"CLICKSHOP_GOOGLE_CLIENT_ID"`
	ClientSecret string `envconfig:"CLICKSHOP_GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `envconfig:"CLICKSHOP_GOOGLE_REDIRECT_URL"`
}

// Enabled reports whether both client credentials are configured.
func (g GoogleOAuthConfig) Enabled() bool {
	return strings.TrimSpace(g.ClientID) != "" && strings.TrimSpace(g.ClientSecret) != ""
}

type GCPConfig struct {
	ProjectID string `envconfig:"CLICKSHOP_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	EmailTopic string `envconfig:"CLICKSHOP_PUBSUB_EMAIL_TOPIC" default:"cs-email-events"`
}

type FrontendConfig struct {
	BaseURL string `envconfig:"CLICKSHOP_FRONTEND_BASE_URL" default:"http://localhost:3000"`
}

// ResetPasswordURL assembles the link delivered in reset emails; the raw token in the
// query string is the only state carried.
func (f FrontendConfig) ResetPasswordURL(rawToken string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(f.BaseURL, "/"), url.QueryEscape(rawToken))
}

// VerifyEmailURL assembles the link delivered in verification emails.
func (f FrontendConfig) VerifyEmailURL(rawToken string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(f.BaseURL, "/"), url.QueryEscape(rawToken))
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CLICKSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CLICKSHOP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	if db.Host == "" {
		missing = append(missing, "CLICKSHOP_DB_HOST")
	}
	if db.User == "" {
		missing = append(missing, "CLICKSHOP_DB_USER")
	}
	if db.Name == "" {
		missing = append(missing, "CLICKSHOP_DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("either CLICKSHOP_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
