package config

import (
	"strings"
	"time"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Valkey   ValkeyConfig
	Webhook  WebhookConfig
	Bot      BotConfig
	Provider ProviderConfig
}

type AppConfig struct {
	Version        string
	Port           string
	Debug          bool
	Environment    string
	BasePath       string
	TrustedProxies []string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB name for Postgres
	// TenantURLTemplate builds per-tenant DSNs; "{db_name}" is replaced with
	// the tenant's logical database name.
	TenantURLTemplate string
}

type ValkeyConfig struct {
	Enabled   bool
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	DedupTTL  time.Duration
}

type WebhookConfig struct {
	// MaxEventsPerBatch bounds contact and message events independently.
	MaxEventsPerBatch int
	MaxBodyBytes      int
}

type BotConfig struct {
	HookTimeout time.Duration
}

type ProviderConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	debug := getEnvBool("APP_DEBUG", false) || getEnvBool("DEBUG", false)

	appCfg := AppConfig{
		Version:     "v1.2.0",
		Port:        getEnv("APP_PORT", "3000"),
		Debug:       debug,
		Environment: getEnv("APP_ENV", "development"),
		BasePath:    getEnv("APP_BASE_PATH", ""),
	}
	if v := getEnv("APP_TRUSTED_PROXIES", ""); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	dbDriver := getEnv("DB_DRIVER", "sqlite")
	tenantTemplate := getEnv("DB_TENANT_URL_TEMPLATE", "")
	if tenantTemplate == "" {
		if dbDriver == "postgres" {
			tenantTemplate = "host=" + getEnv("DB_HOST", "localhost") +
				" user=" + getEnv("DB_USER", "postgres") +
				" password=" + getEnv("DB_PASSWORD", "") +
				" dbname={db_name} port=" + getEnv("DB_PORT", "5432") +
				" sslmode=disable TimeZone=UTC"
		} else {
			tenantTemplate = "file:storages/{db_name}.db?_journal_mode=WAL&_foreign_keys=on"
		}
	}

	dbCfg := DatabaseConfig{
		Driver:            dbDriver,
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              getEnvInt("DB_PORT", 5432),
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", ""),
		Name:              getEnv("DB_NAME", "storages/main.db"),
		TenantURLTemplate: tenantTemplate,
	}

	valkeyCfg := ValkeyConfig{
		Enabled:   getEnvBool("VALKEY_ENABLED", false),
		Address:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		Password:  getEnv("VALKEY_PASSWORD", ""),
		DB:        getEnvInt("VALKEY_DB", 0),
		KeyPrefix: getEnv("VALKEY_KEY_PREFIX", "azcrm:"),
		DedupTTL:  time.Duration(getEnvInt("DEDUP_CACHE_TTL_SECONDS", 3600)) * time.Second,
	}

	cfg := &Config{
		App:      appCfg,
		Database: dbCfg,
		Valkey:   valkeyCfg,
		Webhook: WebhookConfig{
			MaxEventsPerBatch: getEnvInt("WEBHOOK_MAX_EVENTS_PER_BATCH", 100),
			MaxBodyBytes:      getEnvInt("WEBHOOK_MAX_BODY_BYTES", 1024*1024),
		},
		Bot: BotConfig{
			HookTimeout: time.Duration(getEnvInt("BOT_HOOK_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Provider: ProviderConfig{
			BaseURL: getEnv("PROVIDER_BASE_URL", "https://api.wazzup24.com/v3"),
			Timeout: time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 15)) * time.Second,
		},
	}

	Global = cfg
	return cfg, nil
}
