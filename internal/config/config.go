package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the sync service needs. It is loaded once at
// startup and injected into services at construction; nothing in the core
// reads the environment directly.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Google   GoogleConfig   `mapstructure:"google"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Timezone string `mapstructure:"timezone"`
}

// GoogleConfig carries the OAuth client credentials used for refresh-token
// exchange. Consent flow and token storage live outside this service.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	MaxResults   int64  `mapstructure:"max_results"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type ScraperConfig struct {
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	MaxChunkChars int           `mapstructure:"max_chunk_chars"`
}

// ArchiveConfig enables the optional raw-page S3 archive. An empty bucket
// name disables archiving entirely.
type ArchiveConfig struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
	Prefix string `mapstructure:"prefix"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DSN builds the postgres connection string for gorm.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.Timezone)
}

// Load reads configuration from the environment (AGENDA_ prefixed variables,
// e.g. AGENDA_OPENAI_API_KEY) with sane defaults for everything that has one.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AGENDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "agenda_sync")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")

	v.SetDefault("google.max_results", 250)

	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.max_tokens", 4000)

	v.SetDefault("scraper.fetch_timeout", 45*time.Second)
	v.SetDefault("scraper.max_chunk_chars", 100000)

	v.SetDefault("archive.prefix", "raw-pages")
	v.SetDefault("archive.region", "us-west-2")

	v.SetDefault("logging.level", "info")

	// Viper only maps env vars it has seen; BindEnv each key explicitly so
	// Unmarshal picks them up without a config file present.
	for _, key := range []string{
		"database.host", "database.port", "database.user", "database.password",
		"database.name", "database.sslmode", "database.timezone",
		"google.client_id", "google.client_secret", "google.max_results",
		"openai.api_key", "openai.model", "openai.temperature", "openai.max_tokens",
		"scraper.fetch_timeout", "scraper.max_chunk_chars",
		"archive.bucket", "archive.region", "archive.prefix",
		"logging.level",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings the core cannot run without.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai api key is required")
	}
	if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
		return fmt.Errorf("google oauth client id and secret are required")
	}
	return nil
}
