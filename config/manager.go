package config

import (
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	defaultConfigPath = "config/app.yaml"
	envPrefix         = "PORTFOLIO_"
)

func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	cfgPath := resolveConfigPath()
	if st, err := os.Stat(cfgPath); err == nil && !st.IsDir() {
		if err := cleanenv.ReadConfig(cfgPath, cfg); err != nil {
			return nil, err
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	applyEnvAliases(cfg)
	normalizeConfig(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvAliases honors the short env names the deployment scripts use
// alongside the canonical PORTFOLIO_* names.
func applyEnvAliases(cfg *AppConfig) {
	if cfg == nil {
		return
	}
	if v := getEnv("PEPPER"); v != "" {
		cfg.Pepper = strings.TrimSpace(v)
	}
	if v := getEnv("SESSION_SECRET", "JWT_SECRET"); v != "" {
		cfg.Session.Secret = strings.TrimSpace(v)
	}
	if v := getEnv("ENV", "APP_ENV"); v != "" {
		cfg.AppEnv = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getEnv("DATABASE_URL", "DB_URL"); v != "" {
		cfg.DBURL = strings.TrimSpace(v)
	}
	if v := getEnv("PORT"); v != "" {
		cfg.ListenAddr = listenAddrWithPort(cfg.ListenAddr, v)
	}
	if v := getEnv("METRICS_TOKEN"); v != "" {
		cfg.Observability.MetricsToken = strings.TrimSpace(v)
	}
}

func normalizeConfig(cfg *AppConfig) {
	if cfg == nil {
		return
	}
	cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr)
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.DBURL = strings.TrimSpace(cfg.DBURL)
	cfg.DBPath = strings.TrimSpace(cfg.DBPath)
	cfg.Pepper = strings.TrimSpace(cfg.Pepper)
	cfg.Session.Secret = strings.TrimSpace(cfg.Session.Secret)
	cfg.Session.Issuer = strings.TrimSpace(cfg.Session.Issuer)
	cfg.Observability.MetricsToken = strings.TrimSpace(cfg.Observability.MetricsToken)
	cfg.Audit.PruneSchedule = strings.TrimSpace(cfg.Audit.PruneSchedule)
	trimmed := cfg.Security.TrustedProxies[:0]
	for _, p := range cfg.Security.TrustedProxies {
		if v := strings.TrimSpace(p); v != "" {
			trimmed = append(trimmed, v)
		}
	}
	cfg.Security.TrustedProxies = trimmed
}

func resolveConfigPath() string {
	if v := getEnv("CONFIG_PATH", envPrefix+"CONFIG_PATH"); v != "" {
		return strings.TrimSpace(v)
	}
	return defaultConfigPath
}

func getEnv(names ...string) string {
	for _, name := range names {
		if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func listenAddrWithPort(addr, port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return addr
	}
	host := ""
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host = addr[:i]
	}
	return host + ":" + port
}
