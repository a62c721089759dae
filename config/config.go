package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	GinMode     string
	Environment string
	CORSOrigins []string
	RateLimit   int
	Timezone    string

	// Database
	DBDriver          string
	DBDSN             string
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Auth
	JWTSecret             string
	JWTExpiry             time.Duration
	SuperAdminEmail       string
	SuperAdminPassword    string
	DefaultRestaurantSlug string

	// Redis (restaurant cache, optional)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Notifications
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	TwilioBaseURL     string
	ResendAPIKey      string
	ResendFrom        string
	ResendBaseURL     string
	NotifyTimeout     time.Duration

	SentryDSN string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		Environment: getEnv("APP_ENV", "development"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://127.0.0.1:5500,http://localhost:3000")),
		RateLimit:   getEnvInt("RATE_LIMIT_PER_SECOND", 50),
		Timezone:    getEnv("APP_TIMEZONE", "Local"),

		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBDSN:             getEnv("DB_DSN", ""),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "tablereserve"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute,

		JWTSecret:             getEnv("JWT_SECRET", ""),
		JWTExpiry:             parseDuration(getEnv("JWT_EXPIRY", "24h"), 24*time.Hour),
		SuperAdminEmail:       getEnv("SUPER_ADMIN_EMAIL", ""),
		SuperAdminPassword:    getEnv("SUPER_ADMIN_PASSWORD", ""),
		DefaultRestaurantSlug: getEnv("DEFAULT_RESTAURANT_SLUG", "carmelitas"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      parseDuration(getEnv("RESTAURANT_CACHE_TTL", "5m"), 5*time.Minute),

		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		TwilioBaseURL:     getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		ResendAPIKey:      getEnv("RESEND_API_KEY", ""),
		ResendFrom:        getEnv("RESEND_FROM", "Tablereserve <noreply@tablereserve.app>"),
		ResendBaseURL:     getEnv("RESEND_BASE_URL", "https://api.resend.com"),
		NotifyTimeout:     parseDuration(getEnv("NOTIFY_TIMEOUT", "10s"), 10*time.Second),

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}
}

// Location resolves APP_TIMEZONE. Reservation dates are naive local dates,
// so "today" is computed in this zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) SMSConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

func (c *Config) EmailConfigured() bool {
	return c.ResendAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
