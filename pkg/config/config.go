package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ConfigFile is read from the working directory when present.
const ConfigFile = "config.yaml"

// AI providers accepted by AIConfig.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderFunction  = "function" // hosted generate-interpretation endpoint
	ProviderNone      = "none"     // template text only
)

// Config holds all configuration for tarot-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	AI             AIConfig             `yaml:"ai"`
	Interpretation InterpretationConfig `yaml:"interpretation"`
}

// DatabaseConfig holds PostgreSQL configuration. An empty Host disables
// persistence and the server keeps readings in memory.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:""`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"tarot"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"tarot"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	SkipMigrations bool   `yaml:"skip_migrations" env:"PG_SKIP_MIGRATIONS" env-default:"false"`

	// CatalogFromDB serves cards and spreads from the cards/spreads tables
	// instead of the embedded deck. Empty tables are seeded from the
	// embedded deck at startup.
	CatalogFromDB bool `yaml:"catalog_from_db" env:"PG_CATALOG_FROM_DB" env-default:"false"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// ConnectionString returns a PostgreSQL URL usable by pgx and golang-migrate.
func (c *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig configures the shared AI response cache tier. An empty Host
// keeps the cache in-process only.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Enabled reports whether a Redis server is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Addr returns host:port.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AIConfig selects where premium interpretation text comes from.
type AIConfig struct {
	Provider    string  `yaml:"provider" env:"AI_PROVIDER" env-default:"none"`
	BaseURL     string  `yaml:"base_url" env:"AI_BASE_URL" env-default:""`
	Model       string  `yaml:"model" env:"AI_MODEL" env-default:""`
	Temperature float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.7"`
	MaxTokens   int     `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"1500"`
	APIKey      string  `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML

	// Hosted function settings, used when Provider is "function".
	FunctionsURL string `yaml:"functions_url" env:"AI_FUNCTIONS_URL" env-default:""`
	FunctionName string `yaml:"function_name" env:"AI_FUNCTION_NAME" env-default:"generate-interpretation"`
}

// Enabled reports whether any remote generation is configured.
func (c *AIConfig) Enabled() bool {
	return c.Provider != ProviderNone
}

// InterpretationConfig tunes the enrichment pipeline.
type InterpretationConfig struct {
	CacheCapacity     int           `yaml:"cache_capacity" env:"INTERPRETATION_CACHE_CAPACITY" env-default:"100"`
	CacheTTL          time.Duration `yaml:"cache_ttl" env:"INTERPRETATION_CACHE_TTL" env-default:"1h"`
	MaxAttempts       int           `yaml:"max_attempts" env:"INTERPRETATION_MAX_ATTEMPTS" env-default:"3"`
	RetryDelay        time.Duration `yaml:"retry_delay" env:"INTERPRETATION_RETRY_DELAY" env-default:"1s"`
	AttemptTimeout    time.Duration `yaml:"attempt_timeout" env:"INTERPRETATION_ATTEMPT_TIMEOUT" env-default:"50s"`
	CircuitThreshold  int           `yaml:"circuit_threshold" env:"INTERPRETATION_CIRCUIT_THRESHOLD" env-default:"5"`
	CircuitReset      time.Duration `yaml:"circuit_reset" env:"INTERPRETATION_CIRCUIT_RESET" env-default:"30s"`
	AdviceMode        string        `yaml:"advice_mode" env:"INTERPRETATION_ADVICE_MODE" env-default:"random"`
	QuestionMaxLength int           `yaml:"question_max_length" env:"INTERPRETATION_QUESTION_MAX_LENGTH" env-default:"500"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// Without a config.yaml only the environment is consulted.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(ConfigFile); err == nil {
		if err := cleanenv.ReadConfig(ConfigFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", ConfigFile, err)
	}

	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderNone
	}
	c.Interpretation.AdviceMode = strings.ToLower(strings.TrimSpace(c.Interpretation.AdviceMode))
	c.Database.Host = ResolveHostForDocker(c.Database.Host)
	c.Redis.Host = ResolveHostForDocker(c.Redis.Host)
}

func (c *Config) validate() error {
	if err := c.validateTLS(); err != nil {
		return err
	}

	switch c.AI.Provider {
	case ProviderNone:
	case ProviderFunction:
		if c.AI.FunctionsURL == "" {
			return fmt.Errorf("ai.functions_url is required for provider %q", c.AI.Provider)
		}
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		if c.AI.Model == "" {
			return fmt.Errorf("ai.model is required for provider %q", c.AI.Provider)
		}
	default:
		return fmt.Errorf("unsupported ai.provider %q", c.AI.Provider)
	}

	switch c.Interpretation.AdviceMode {
	case "random", "hash":
	default:
		return fmt.Errorf("interpretation.advice_mode must be random or hash, got %q", c.Interpretation.AdviceMode)
	}

	if c.Interpretation.MaxAttempts < 1 {
		return fmt.Errorf("interpretation.max_attempts must be at least 1")
	}
	if c.Interpretation.CacheCapacity < 1 {
		return fmt.Errorf("interpretation.cache_capacity must be at least 1")
	}
	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// IsLocal reports whether the server runs in local development mode.
func (c *Config) IsLocal() bool {
	return c.Env == "" || c.Env == "local"
}
