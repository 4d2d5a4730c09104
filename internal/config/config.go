package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/sendtime-optimizer/internal/analyzer"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Notify   NotifyConfig   `yaml:"notify"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds analysis-cache settings.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// TTL returns the cache TTL as a duration.
func (r RedisConfig) TTL() time.Duration { return time.Duration(r.TTLSeconds) * time.Second }

// IngestConfig holds S3 campaign-report ingestion settings.
type IngestConfig struct {
	Enabled         bool   `yaml:"enabled"`
	S3Bucket        string `yaml:"s3_bucket"`
	S3Region        string `yaml:"s3_region"`
	AWSProfile      string `yaml:"aws_profile"`
	IntervalMinutes int    `yaml:"interval_minutes"`
}

// Interval returns the poll interval as a duration.
func (i IngestConfig) Interval() time.Duration {
	return time.Duration(i.IntervalMinutes) * time.Minute
}

// NotifyConfig holds SES report-email settings.
type NotifyConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Region     string   `yaml:"region"`
	AccessKey  string   `yaml:"access_key"`
	SecretKey  string   `yaml:"secret_key"`
	FromEmail  string   `yaml:"from_email"`
	Recipients []string `yaml:"recipients"`
}

// AnalyzerConfig allows overriding the curated best-practice table. Empty
// means the built-in default table.
type AnalyzerConfig struct {
	BestPractices []BestPracticeConfig `yaml:"best_practices"`
}

// BestPracticeConfig is one curated send-time row from config.
type BestPracticeConfig struct {
	DayOfWeek string  `yaml:"day_of_week"`
	HourOfDay int     `yaml:"hour_of_day"`
	Score     float64 `yaml:"score"`
	Rationale string  `yaml:"rationale"`
}

// BestPracticeTable converts the config rows to analyzer entries, or nil
// when unset so the analyzer falls back to its default table.
func (a AnalyzerConfig) BestPracticeTable() []analyzer.BestPracticeEntry {
	if len(a.BestPractices) == 0 {
		return nil
	}
	entries := make([]analyzer.BestPracticeEntry, 0, len(a.BestPractices))
	for _, bp := range a.BestPractices {
		entries = append(entries, analyzer.BestPracticeEntry{
			DayOfWeek: bp.DayOfWeek,
			HourOfDay: bp.HourOfDay,
			Score:     bp.Score,
			Rationale: bp.Rationale,
		})
	}
	return entries
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.TTLSeconds == 0 {
		cfg.Redis.TTLSeconds = 300
	}
	if cfg.Ingest.S3Region == "" {
		cfg.Ingest.S3Region = "us-west-2"
	}
	if cfg.Ingest.IntervalMinutes == 0 {
		cfg.Ingest.IntervalMinutes = 5
	}
	if cfg.Notify.Region == "" {
		cfg.Notify.Region = "us-west-2"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// No config file: run on defaults plus env overrides.
		cfg = &Config{}
		applyDefaults(cfg)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("INGEST_S3_BUCKET"); v != "" {
		cfg.Ingest.S3Bucket = v
		cfg.Ingest.Enabled = true
	}
	if v := os.Getenv("INGEST_S3_REGION"); v != "" {
		cfg.Ingest.S3Region = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.Notify.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.Notify.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.Notify.Region = v
	}
	if v := os.Getenv("NOTIFY_FROM_EMAIL"); v != "" {
		cfg.Notify.FromEmail = v
		cfg.Notify.Enabled = true
	}
	if v := os.Getenv("NOTIFY_RECIPIENTS"); v != "" {
		var recipients []string
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				recipients = append(recipients, r)
			}
		}
		cfg.Notify.Recipients = recipients
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}
