// Package server provides configuration helpers that define runtime
// defaults and validation for the ratechat relay.
package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ExchangeConfig controls the exchange command's rate provider.
type ExchangeConfig struct {
	APIURL         string   `yaml:"api_url"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxDays        int      `yaml:"max_days"`
	Currencies     []string `yaml:"currencies"`
}

// Timeout returns the provider request timeout as a duration.
func (c ExchangeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheConfig controls the optional Redis rate-sheet cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// TTL returns the cache entry lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// AuditLogConfig controls the command audit log. An empty path disables
// persistence.
type AuditLogConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config holds the relay configuration including security controls.
type Config struct {
	Port           string         `yaml:"port"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	MaxMessageSize int64          `yaml:"max_message_size"`
	Exchange       ExchangeConfig `yaml:"exchange"`
	Cache          CacheConfig    `yaml:"cache"`
	AuditLog       AuditLogConfig `yaml:"audit_log"`
	Logging        LoggingConfig  `yaml:"logging"`
}

// NewConfig creates a Config populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

func defaultConfig() Config {
	return Config{
		Port: ":8080",
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize: 512,
		Exchange: ExchangeConfig{
			TimeoutSeconds: 10,
			MaxDays:        10,
			Currencies:     []string{"USD", "EUR"},
		},
		Cache: CacheConfig{
			Addr:       "localhost:6379",
			TTLMinutes: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 512
	}
	if cfg.Exchange.TimeoutSeconds <= 0 {
		cfg.Exchange.TimeoutSeconds = 10
	}
	if cfg.Exchange.MaxDays <= 0 {
		cfg.Exchange.MaxDays = 10
	}
	if len(cfg.Exchange.Currencies) == 0 {
		cfg.Exchange.Currencies = []string{"USD", "EUR"}
	}
	if cfg.Cache.TTLMinutes <= 0 {
		cfg.Cache.TTLMinutes = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	return cfg
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// and environment variable overrides, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(&cfg)
	cfg = sanitizeConfig(cfg)
	return &cfg, nil
}

// NewConfigFromEnv creates a Config from environment variables alone,
// falling back to defaults for anything unset.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()
	applyEnv(&cfg)
	cfg = sanitizeConfig(cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseList(origins)
	}
	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseInt64Value(maxSize, cfg.MaxMessageSize)
	}
	if apiURL := os.Getenv("EXCHANGE_API_URL"); apiURL != "" {
		cfg.Exchange.APIURL = apiURL
	}
	if timeout := os.Getenv("EXCHANGE_TIMEOUT_SECONDS"); timeout != "" {
		cfg.Exchange.TimeoutSeconds = parseIntValue(timeout, cfg.Exchange.TimeoutSeconds)
	}
	if maxDays := os.Getenv("EXCHANGE_MAX_DAYS"); maxDays != "" {
		cfg.Exchange.MaxDays = parseIntValue(maxDays, cfg.Exchange.MaxDays)
	}
	if currencies := os.Getenv("EXCHANGE_CURRENCIES"); currencies != "" {
		cfg.Exchange.Currencies = parseList(currencies)
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Cache.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		cfg.Cache.DB = parseIntValue(db, cfg.Cache.DB)
	}
	if ttl := os.Getenv("RATE_CACHE_TTL_MINUTES"); ttl != "" {
		cfg.Cache.TTLMinutes = parseIntValue(ttl, cfg.Cache.TTLMinutes)
	}
	if path := os.Getenv("AUDIT_LOG_PATH"); path != "" {
		cfg.AuditLog.Path = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseInt64Value(value string, defaultValue int64) int64 {
	if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}
