package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string

	OTLPEndpoint string

	// MediaStreamURL is the public websocket endpoint call audio is
	// bridged to when a voice agent answers.
	MediaStreamURL string

	AuthJWTSecret string

	// StaffDomains are email domains whose users may reach staff surfaces.
	StaffDomains []string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RateLimit RateLimitConfig

	Providers ProvidersConfig
}

// RateLimitConfig configures the redis-backed webhook/ingest limiter.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WebhookRate  float64
	WebhookBurst int
	IngestRate   float64
	IngestBurst  int
}

// ProvidersConfig carries upstream provider endpoints and credentials.
// Vendor identity stays inside the adapter packages.
type ProvidersConfig struct {
	TelephonyBaseURL  string
	TelephonyAuthSID  string
	TelephonyAuthKey  string
	MessagingBaseURL  string
	MessagingAPIKey   string
	VoiceBaseURL      string
	VoiceAPIKey       string
	LeadSearchBaseURL string
	LeadSearchAPIKey  string
	CalendarBaseURL   string
	CalendarAPIKey    string
	BillingSecretKey  string
	WebhookSecret     string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "samla"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		MediaStreamURL: getenv("MEDIA_STREAM_URL", "wss://media.samla.app/agent"),

		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),

		StaffDomains: parseList(getenv("STAFF_EMAIL_DOMAINS", "samla.app,samla.dev")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "samla"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: strings.TrimSpace(getenv("RATE_LIMIT_REDIS_PASSWORD", "")),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			WebhookRate:   getenvFloat("RATE_LIMIT_WEBHOOK_RATE", 50),
			WebhookBurst:  getenvInt("RATE_LIMIT_WEBHOOK_BURST", 100),
			IngestRate:    getenvFloat("RATE_LIMIT_INGEST_RATE", 20),
			IngestBurst:   getenvInt("RATE_LIMIT_INGEST_BURST", 40),
		},

		Providers: ProvidersConfig{
			TelephonyBaseURL:  getenv("TELEPHONY_BASE_URL", ""),
			TelephonyAuthSID:  strings.TrimSpace(getenv("TELEPHONY_AUTH_SID", "")),
			TelephonyAuthKey:  strings.TrimSpace(getenv("TELEPHONY_AUTH_KEY", "")),
			MessagingBaseURL:  getenv("MESSAGING_BASE_URL", ""),
			MessagingAPIKey:   strings.TrimSpace(getenv("MESSAGING_API_KEY", "")),
			VoiceBaseURL:      getenv("VOICE_BASE_URL", ""),
			VoiceAPIKey:       strings.TrimSpace(getenv("VOICE_API_KEY", "")),
			LeadSearchBaseURL: getenv("LEAD_SEARCH_BASE_URL", ""),
			LeadSearchAPIKey:  strings.TrimSpace(getenv("LEAD_SEARCH_API_KEY", "")),
			CalendarBaseURL:   getenv("CALENDAR_BASE_URL", ""),
			CalendarAPIKey:    strings.TrimSpace(getenv("CALENDAR_API_KEY", "")),
			BillingSecretKey:  strings.TrimSpace(getenv("BILLING_SECRET_KEY", "")),
			WebhookSecret:     strings.TrimSpace(getenv("PROVIDER_WEBHOOK_SECRET", "")),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
