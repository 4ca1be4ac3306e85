package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Engine   EngineConfig
	Sheets   SheetsConfig
	Schedule ScheduleConfig
	MongoDB  MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// Provider authentication header variants.
const (
	AuthBearer = "bearer"
	AuthAPIKey = "apikey"
)

// ProviderConfig contains credentials and options for the messaging provider.
type ProviderConfig struct {
	Name         string
	BaseURL      string
	BulkPath     string
	SinglePath   string
	APIKey       string
	SenderNumber string
	WebhookDNID  string
	APIVersion   string
	AuthScheme   string
	Timeout      time.Duration
}

// EngineConfig tunes message generation. The defaults match what the provider
// integration has always run with; change them only against the provider's
// throughput limits.
type EngineConfig struct {
	ChunkSize        int
	UnitTimeout      time.Duration
	ChunkPacing      time.Duration
	ChunkConcurrency int
}

// Engine defaults.
const (
	DefaultChunkSize   = 5000
	DefaultUnitTimeout = 30 * time.Second
	DefaultChunkPacing = 200 * time.Millisecond
)

// SheetsConfig contains configuration required to read recipient lists from Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ReportRange     string
}

// Enabled reports whether a spreadsheet is configured.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// ScheduleConfig describes the optional recurring broadcast.
type ScheduleConfig struct {
	CronSchedule string
	TemplateName string
	SheetRange   string
	Timezone     string
}

// Enabled reports whether a recurring broadcast is configured.
func (s ScheduleConfig) Enabled() bool {
	return s.CronSchedule != ""
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Provider: ProviderConfig{
			Name:         getenvWithDefault("PROVIDER_NAME", "waba"),
			BaseURL:      os.Getenv("PROVIDER_BASE_URL"),
			BulkPath:     getenvWithDefault("PROVIDER_BULK_PATH", "/messages/bulk"),
			SinglePath:   getenvWithDefault("PROVIDER_SINGLE_PATH", "/messages"),
			APIKey:       os.Getenv("PROVIDER_API_KEY"),
			SenderNumber: os.Getenv("PROVIDER_SENDER_NUMBER"),
			WebhookDNID:  os.Getenv("PROVIDER_WEBHOOK_DN_ID"),
			APIVersion:   getenvWithDefault("PROVIDER_API_VERSION", "v1.0.9"),
			AuthScheme:   strings.ToLower(getenvWithDefault("PROVIDER_AUTH_SCHEME", AuthBearer)),
			Timeout:      getenvDuration("PROVIDER_TIMEOUT", 30*time.Second),
		},
		Engine: EngineConfig{
			ChunkSize:        getenvInt("ENGINE_CHUNK_SIZE", DefaultChunkSize),
			UnitTimeout:      getenvDuration("ENGINE_UNIT_TIMEOUT", DefaultUnitTimeout),
			ChunkPacing:      getenvDuration("ENGINE_CHUNK_PACING", DefaultChunkPacing),
			ChunkConcurrency: getenvInt("ENGINE_CHUNK_CONCURRENCY", 0),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			ReportRange:     os.Getenv("GOOGLE_SHEET_REPORT_RANGE"),
		},
		Schedule: ScheduleConfig{
			CronSchedule: os.Getenv("BROADCAST_CRON_SCHEDULE"),
			TemplateName: os.Getenv("BROADCAST_TEMPLATE_NAME"),
			SheetRange:   os.Getenv("BROADCAST_SHEET_RANGE"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "broadcaster"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Provider.BaseURL == "":
		return errors.New("PROVIDER_BASE_URL must be provided")
	case c.Provider.APIKey == "":
		return errors.New("PROVIDER_API_KEY must be provided")
	case c.Provider.SenderNumber == "":
		return errors.New("PROVIDER_SENDER_NUMBER must be provided")
	}

	if c.Provider.AuthScheme != AuthBearer && c.Provider.AuthScheme != AuthAPIKey {
		return fmt.Errorf("PROVIDER_AUTH_SCHEME must be %q or %q", AuthBearer, AuthAPIKey)
	}

	if c.Engine.ChunkSize < 1 {
		return errors.New("ENGINE_CHUNK_SIZE must be >= 1")
	}
	if c.Engine.UnitTimeout <= 0 {
		return errors.New("ENGINE_UNIT_TIMEOUT must be positive")
	}
	if c.Engine.ChunkPacing < 0 {
		return errors.New("ENGINE_CHUNK_PACING cannot be negative")
	}
	if c.Engine.ChunkConcurrency < 0 {
		return errors.New("ENGINE_CHUNK_CONCURRENCY cannot be negative")
	}

	if c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided with GOOGLE_SHEETS_CREDENTIALS_PATH")
	}

	if c.Schedule.Enabled() {
		if !c.Sheets.Enabled() {
			return errors.New("BROADCAST_CRON_SCHEDULE requires Google Sheets configuration")
		}
		if c.Schedule.TemplateName == "" {
			return errors.New("BROADCAST_TEMPLATE_NAME must be provided")
		}
		if c.Schedule.SheetRange == "" {
			return errors.New("BROADCAST_SHEET_RANGE must be provided")
		}
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
