package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultPort                  = "8080"
	DefaultAccessTokenExpiryMin  = 30
	DefaultRefreshTokenExpiryDay = 30
	DefaultCodeTTLMinutes        = 10
	DefaultMaxCodeAttempts       = 3
	DefaultRateLimitPerHour      = 5
	DefaultRateLimitWindowHours  = 1
	DefaultDispatchTimeoutSec    = 10
)

type Config struct {
	Env                  string
	Port                 string
	LogLevel             string
	DBURL                string
	AccessTokenSecret    string
	AccessExpiryMin      int
	RefreshExpiryDays    int
	CodeTTLMinutes       int
	MaxCodeAttempts      int
	RateLimitPerHour     int
	RateLimitWindowHours int
	DispatchTimeoutSec   int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	SMSAPIURL   string
	SMSAPIKey   string
	SMSSenderID string
	SMSDryRun   bool
}

// Load reads config/.env.<env> (if present), then the process environment.
// Environment variables take precedence over file values. Missing signing
// secret or DB URL is fatal: the service must not start without them.
func Load() *Config {
	env := getEnv("ENV", "development")

	envFile := ".env.dev"
	if env == "production" {
		envFile = ".env.prod"
	}
	// godotenv.Load never overrides variables already set in the environment.
	_ = godotenv.Load(fmt.Sprintf("config/%s", envFile))

	return &Config{
		Env:                  env,
		Port:                 getEnv("PORT", DefaultPort),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DBURL:                mustGetEnv("DB_URL"),
		AccessTokenSecret:    mustGetEnv("ACCESS_TOKEN_SECRET"),
		AccessExpiryMin:      getEnvAsInt("ACCESS_TOKEN_EXPIRY", DefaultAccessTokenExpiryMin),
		RefreshExpiryDays:    getEnvAsInt("REFRESH_TOKEN_EXPIRY_DAYS", DefaultRefreshTokenExpiryDay),
		CodeTTLMinutes:       getEnvAsInt("CODE_TTL_MINUTES", DefaultCodeTTLMinutes),
		MaxCodeAttempts:      getEnvAsInt("MAX_CODE_ATTEMPTS", DefaultMaxCodeAttempts),
		RateLimitPerHour:     getEnvAsInt("RATE_LIMIT_PER_HOUR", DefaultRateLimitPerHour),
		RateLimitWindowHours: getEnvAsInt("RATE_LIMIT_WINDOW_HOURS", DefaultRateLimitWindowHours),
		DispatchTimeoutSec:   getEnvAsInt("DISPATCH_TIMEOUT_SECONDS", DefaultDispatchTimeoutSec),
		SMTPHost:             getEnv("SMTP_HOST", "localhost"),
		SMTPPort:             getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:             getEnv("SMTP_USER", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:             getEnv("SMTP_FROM", "no-reply@expotoworld.com"),
		SMSAPIURL:            getEnv("SMS_API_URL", ""),
		SMSAPIKey:            getEnv("SMS_API_KEY", ""),
		SMSSenderID:          getEnv("SMS_SENDER_ID", ""),
		SMSDryRun:            getEnvAsBool("SMS_DRY_RUN", false),
	}
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required config: %s", key)

	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)

		return defaultVal
	}

	return val
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %t", key, defaultVal)

		return defaultVal
	}

	return val
}
