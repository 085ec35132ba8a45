package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	Port     string

	DatastoreDriver string
	DatabaseURL     string
	RedisURL        string
	AMQPURL         string

	AppURL         string
	JWTSecret      string
	CronSecret     string
	AllowedOrigins []string

	Twilio TwilioConfig
	SMTP   SMTPConfig

	DefaultCountryCode string
	CampaignSendDelay  time.Duration
	AutoSendWindow     time.Duration
	AutoSendLockTTL    time.Duration

	TracingEnabled bool
	JaegerEndpoint string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func (t TwilioConfig) Configured() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.From != ""
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg := &Config{
		Env:      GetEnv("ENV", "development"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),
		Port:     GetEnv("PORT", "8080"),

		DatastoreDriver: GetEnv("DATASTORE_DRIVER", "postgres"),
		DatabaseURL:     databaseURL(),
		RedisURL:        GetEnv("REDIS_URL", ""),
		AMQPURL:         GetEnv("AMQP_URL", ""),

		AppURL:         strings.TrimRight(GetEnv("APP_URL", "http://localhost:3000"), "/"),
		JWTSecret:      GetEnv("JWT_SECRET", ""),
		CronSecret:     GetEnv("CRON_SECRET", ""),
		AllowedOrigins: strings.Split(GetEnv("ALLOWED_ORIGINS", "*"), ","),

		Twilio: TwilioConfig{
			AccountSID: GetEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  GetEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: GetEnv("TWILIO_FROM_NUMBER", ""),
		},
		SMTP: SMTPConfig{
			Host:     GetEnv("SMTP_HOST", ""),
			Port:     GetEnvInt("SMTP_PORT", 587),
			Username: GetEnv("SMTP_USERNAME", ""),
			Password: GetEnv("SMTP_PASSWORD", ""),
			From:     GetEnv("SMTP_FROM", "ProReview <noreply@proreview.fr>"),
		},

		DefaultCountryCode: GetEnv("DEFAULT_COUNTRY_CODE", "+33"),
		CampaignSendDelay:  GetEnvDuration("CAMPAIGN_SEND_DELAY", 100*time.Millisecond),
		AutoSendWindow:     GetEnvDuration("AUTO_SEND_WINDOW", time.Hour),
		AutoSendLockTTL:    GetEnvDuration("AUTO_SEND_LOCK_TTL", 10*time.Minute),

		TracingEnabled: GetEnvBool("TRACING_ENABLED", false),
		JaegerEndpoint: GetEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from DB_* parts.
func databaseURL() string {
	if url := GetEnv("DATABASE_URL", ""); url != "" {
		return url
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		GetEnv("DB_USER", "postgres"),
		GetEnv("DB_PASSWORD", "postgres"),
		GetEnv("DB_HOST", "localhost"),
		GetEnv("DB_PORT", "5432"),
		GetEnv("DB_NAME", "reviewboost"),
		GetEnv("DB_SSLMODE", "disable"),
	)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.DatastoreDriver != "postgres" && c.DatastoreDriver != "memory" {
		return fmt.Errorf("unknown datastore driver %q", c.DatastoreDriver)
	}
	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.CronSecret == "" {
			return fmt.Errorf("CRON_SECRET is required in production")
		}
	}
	if c.CampaignSendDelay < 0 {
		return fmt.Errorf("campaign send delay must not be negative")
	}
	if c.AutoSendWindow <= 0 {
		return fmt.Errorf("auto-send window must be positive")
	}
	if c.AutoSendLockTTL <= 0 {
		return fmt.Errorf("auto-send lock ttl must be positive")
	}
	return nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
