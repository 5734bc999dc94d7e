package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	ServiceName string `mapstructure:"SERVICE_NAME"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Auth: comma separated static bearer tokens and/or an HS256 secret.
	StaticTokens string `mapstructure:"STATIC_TOKENS"`
	JWTSecret    string `mapstructure:"JWT_HMAC_SECRET"`

	DefaultTimezone       string        `mapstructure:"DEFAULT_TIMEZONE"`
	SlotStepMinutes       int           `mapstructure:"SLOT_STEP_MINUTES"`
	DefaultBufferMinutes  int           `mapstructure:"DEFAULT_BUFFER_MINUTES"`
	ExternalFetchTimeout  time.Duration `mapstructure:"EXTERNAL_FETCH_TIMEOUT"`
	ExternalFetchAttempts int           `mapstructure:"EXTERNAL_FETCH_ATTEMPTS"`
	EmployeeConcurrency   int           `mapstructure:"EMPLOYEE_CONCURRENCY"`

	GoogleCalendarEndpoint string `mapstructure:"GOOGLE_CALENDAR_ENDPOINT"`
	GraphEndpoint          string `mapstructure:"MICROSOFT_GRAPH_ENDPOINT"`

	// Redis backs the shared rate limiter when set.
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int    `mapstructure:"REDIS_DB"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	OTelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSampleRatio float64 `mapstructure:"OTEL_SAMPLING_RATIO"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVICE_NAME", "availability-service")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STATIC_TOKENS", "")
	v.SetDefault("JWT_HMAC_SECRET", "")
	v.SetDefault("DEFAULT_TIMEZONE", "Africa/Johannesburg")
	v.SetDefault("SLOT_STEP_MINUTES", 30)
	v.SetDefault("DEFAULT_BUFFER_MINUTES", 15)
	v.SetDefault("EXTERNAL_FETCH_TIMEOUT", "3s")
	v.SetDefault("EXTERNAL_FETCH_ATTEMPTS", 2)
	v.SetDefault("EMPLOYEE_CONCURRENCY", 8)
	v.SetDefault("GOOGLE_CALENDAR_ENDPOINT", "")
	v.SetDefault("MICROSOFT_GRAPH_ENDPOINT", "https://graph.microsoft.com/v1.0")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317")
	v.SetDefault("OTEL_SAMPLING_RATIO", 1.0)
}

// Load reads config.yaml from the working directory or ./config when present
// and lets environment variables override every key.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	defaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL required"))
	}
	if c.SlotStepMinutes <= 0 {
		errs = append(errs, fmt.Errorf("SLOT_STEP_MINUTES must be positive, got %d", c.SlotStepMinutes))
	}
	if c.DefaultBufferMinutes < 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_BUFFER_MINUTES must not be negative, got %d", c.DefaultBufferMinutes))
	}
	if c.ExternalFetchTimeout <= 0 {
		errs = append(errs, errors.New("EXTERNAL_FETCH_TIMEOUT must be positive"))
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_TIMEZONE: %w", err))
	}
	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLING_RATIO must be within [0,1], got %v", c.OTelSampleRatio))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Tokens returns the configured static bearer tokens.
func (c *Config) Tokens() []string {
	var out []string
	for _, t := range strings.Split(c.StaticTokens, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
