package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	CreatorJWTSecret   string
	CORSAllowedOrigins []string
	TemplatesPath      string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Engine events
	KafkaBrokers         []string
	KafkaEngineTopic     string
	OutboxDeliveryPeriod time.Duration

	// Chatter plan thresholds
	RenewalWindowDays int
	PackPushMinSpend  float64
	LateSessionExtras int
	CreatorTimezone   string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisTLS:             getEnvAsBool("REDIS_TLS", false),
		CreatorJWTSecret:     getEnv("CREATOR_JWT_SECRET", ""),
		CORSAllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS"),
		TemplatesPath:        getEnv("TEMPLATES_PATH", ""),
		RateLimitRPS:         getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:       getEnvAsInt("RATE_LIMIT_BURST", 20),
		KafkaBrokers:         getEnvAsList("KAFKA_BROKERS"),
		KafkaEngineTopic:     getEnv("KAFKA_ENGINE_TOPIC", "creator.engine.events"),
		OutboxDeliveryPeriod: getEnvAsDuration("OUTBOX_DELIVERY_INTERVAL", 2*time.Second),
		RenewalWindowDays:    getEnvAsInt("RENEWAL_WINDOW_DAYS", 7),
		PackPushMinSpend:     getEnvAsFloat("PACK_PUSH_MIN_SPEND", 50),
		LateSessionExtras:    getEnvAsInt("LATE_SESSION_EXTRAS", 3),
		CreatorTimezone:      getEnv("CREATOR_TIMEZONE", "UTC"),
	}
}

// PlanOptions maps the plan thresholds onto chatterplan options. Unset or
// non-positive values keep the defaults.
func (c *Config) PlanOptions() chatterplan.Options {
	opts := chatterplan.DefaultOptions()
	if c.RenewalWindowDays > 0 {
		opts.RenewalWindowDays = c.RenewalWindowDays
	}
	if c.PackPushMinSpend > 0 {
		opts.PackPushMinSpend = c.PackPushMinSpend
	}
	if c.LateSessionExtras > 0 {
		opts.LateSessionExtras = c.LateSessionExtras
	}
	return opts
}

// Location resolves CREATOR_TIMEZONE, falling back to UTC.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.CreatorTimezone); err == nil && c.CreatorTimezone != "" {
		return loc
	}
	return time.UTC
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
