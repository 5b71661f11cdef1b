package config

import (
	"fmt"
	"strings"
)

const (
	devSessionSecret = "dev-only-session-secret-change-me"
	devPepper        = "dev-only-pepper-change-me"
)

func Validate(cfg *AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	switch driver {
	case "", "postgres", "pg", "sqlite":
	default:
		return fmt.Errorf("unsupported db_driver: %s", cfg.DBDriver)
	}
	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if cfg.RateLimit.MaxAttempts <= 0 {
		return fmt.Errorf("rate_limit.max_attempts must be positive")
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	if cfg.Audit.RetentionDays < 0 {
		return fmt.Errorf("audit.retention_days must not be negative")
	}
	secret := strings.TrimSpace(cfg.Session.Secret)
	pepper := strings.TrimSpace(cfg.Pepper)
	if cfg.IsProduction() {
		if secret == "" || secret == devSessionSecret {
			return fmt.Errorf("session.secret must be set to a non-default value in production")
		}
		if len(secret) < 32 {
			return fmt.Errorf("session.secret must be at least 32 characters")
		}
		if pepper == "" || pepper == devPepper {
			return fmt.Errorf("pepper must be set to a non-default value in production")
		}
		if strings.TrimSpace(cfg.DBURL) == "" && driver != "sqlite" {
			return fmt.Errorf("db_url must be set in production")
		}
	}
	if secret == "" {
		cfg.Session.Secret = devSessionSecret
	}
	if pepper == "" {
		cfg.Pepper = devPepper
	}
	return nil
}
