package config

import "time"

type AppConfig struct {
	ListenAddr string `yaml:"listen_addr" env:"PORTFOLIO_LISTEN_ADDR" env-default:":8080"`
	AppEnv     string `yaml:"app_env" env:"PORTFOLIO_APP_ENV" env-default:"development"`
	DBDriver   string `yaml:"db_driver" env:"PORTFOLIO_DB_DRIVER"`
	DBURL      string `yaml:"db_url" env:"PORTFOLIO_DB_URL"`
	DBPath     string `yaml:"db_path" env:"PORTFOLIO_DB_PATH"`
	Pepper     string `yaml:"pepper" env:"PORTFOLIO_PEPPER"`
	TLSEnabled bool   `yaml:"tls_enabled" env:"PORTFOLIO_TLS_ENABLED"`
	TLSCert    string `yaml:"tls_cert" env:"PORTFOLIO_TLS_CERT"`
	TLSKey     string `yaml:"tls_key" env:"PORTFOLIO_TLS_KEY"`

	Session       SessionConfig       `yaml:"session"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Security      SecurityConfig      `yaml:"security"`
	Observability ObservabilityConfig `yaml:"observability"`
	Audit         AuditConfig         `yaml:"audit"`
}

type SessionConfig struct {
	Secret string        `yaml:"secret" env:"PORTFOLIO_SESSION_SECRET"`
	Issuer string        `yaml:"issuer" env:"PORTFOLIO_SESSION_ISSUER" env-default:"portfolio-admin"`
	TTL    time.Duration `yaml:"ttl" env:"PORTFOLIO_SESSION_TTL" env-default:"24h"`
}

type RateLimitConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"PORTFOLIO_RATE_LIMIT_MAX_ATTEMPTS" env-default:"5"`
	Window      time.Duration `yaml:"window" env:"PORTFOLIO_RATE_LIMIT_WINDOW" env-default:"15m"`
}

type SecurityConfig struct {
	TrustedProxies []string `yaml:"trusted_proxies" env:"PORTFOLIO_TRUSTED_PROXIES"`
}

type ObservabilityConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled" env:"PORTFOLIO_METRICS_ENABLED"`
	MetricsToken   string `yaml:"metrics_token" env:"PORTFOLIO_METRICS_TOKEN"`
}

type AuditConfig struct {
	RetentionDays int    `yaml:"retention_days" env:"PORTFOLIO_AUDIT_RETENTION_DAYS" env-default:"90"`
	PruneSchedule string `yaml:"prune_schedule" env:"PORTFOLIO_AUDIT_PRUNE_SCHEDULE" env-default:"17 3 * * *"`
}

func (c *AppConfig) IsProduction() bool {
	if c == nil {
		return false
	}
	return c.AppEnv == "production"
}
