// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads process configuration from the environment.
//
// An optional .env file in the working directory is read first; values
// already present in the environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is every tunable of the server, the CLI and the Discord bot.
type Config struct {
	Port    int    `env:"INVENTORY_PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"release"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"file:inventory.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"`

	SecretKey  string        `env:"SECRET_KEY"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	LLMBackend    string  `env:"LLM_BACKEND" envDefault:"gemini"`
	GeminiAPIKey  string  `env:"GEMINI_API_KEY"`
	GeminiModel   string  `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	OpenAIAPIKey  string  `env:"OPENAI_API_KEY"`
	OpenAIModel   string  `env:"OPENAI_MODEL"`
	OllamaBaseURL string  `env:"OLLAMA_BASE_URL"`
	OllamaModel   string  `env:"OLLAMA_MODEL"`
	LLMRateLimit  float64 `env:"LLM_RATE_LIMIT" envDefault:"2"`
	LLMBurst      int     `env:"LLM_BURST" envDefault:"4"`

	MailServer        string `env:"MAIL_SERVER"`
	MailPort          int    `env:"MAIL_PORT" envDefault:"587"`
	MailUseTLS        bool   `env:"MAIL_USE_TLS" envDefault:"true"`
	MailUseSSL        bool   `env:"MAIL_USE_SSL" envDefault:"false"`
	MailUsername      string `env:"MAIL_USERNAME"`
	MailPassword      string `env:"MAIL_PASSWORD"`
	MailDefaultSender string `env:"MAIL_DEFAULT_SENDER"`

	NotifyEnabled  bool          `env:"NOTIFY_ENABLED" envDefault:"true"`
	NotifyInterval time.Duration `env:"NOTIFY_INTERVAL" envDefault:"15m"`

	AnalyticsEnabled     bool   `env:"ANALYTICS_ENABLED" envDefault:"true"`
	AnalyticsCron        string `env:"ANALYTICS_CRON" envDefault:"0 2 * * *"`
	AnalyticsWindowDays  int    `env:"ANALYTICS_WINDOW_DAYS" envDefault:"90"`
	AnalyticsConcurrency int    `env:"ANALYTICS_CONCURRENCY" envDefault:"4"`

	InfluxURL    string `env:"INFLUX_URL"`
	InfluxToken  string `env:"INFLUX_TOKEN"`
	InfluxOrg    string `env:"INFLUX_ORG"`
	InfluxBucket string `env:"INFLUX_BUCKET" envDefault:"inventory"`

	OTelEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TracingStdout bool   `env:"TRACING_STDOUT" envDefault:"false"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDir   string `env:"LOG_DIR"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`

	DiscordToken string `env:"DISCORD_TOKEN"`
	DiscordGuild string `env:"DISCORD_GUILD"`
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// LoadFrom parses an explicit environment map instead of os.Environ.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	if strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		c.DatabaseDriver = "postgres"
	}
	if c.AnalyticsWindowDays <= 0 {
		c.AnalyticsWindowDays = 90
	}
	if c.AnalyticsConcurrency <= 0 {
		c.AnalyticsConcurrency = 1
	}
}

// Validate reports missing settings required by the HTTP server.
func (c Config) Validate() error {
	var missing []string
	if c.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MailConfigured reports whether outgoing email can be sent.
func (c Config) MailConfigured() bool {
	return c.MailServer != "" && c.MailDefaultSender != ""
}
