package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DevSigningSecret is the insecure local-development fallback. A production
// deployment must set CABO_SIGNING_SECRET explicitly; cmd/server refuses to
// start in production while this value is in effect.
const DevSigningSecret = "cabo-dev-secret"

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	BaseURL     string
	FrontendURL string

	// Customer sessions
	JWTSecret string

	// Merchant dashboard (Google sign-in)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	AllowedEmails      []string

	// Attribution engine
	SigningSecret  string
	AttribTTLDays  int
	AttribScope    string // "sitewide" | "landing"
	RequireConsent bool
	DiscountMapRaw string
	Currency       string

	// Purchase postback
	WebhookURL          string
	WebhookKeyID        string
	WebhookSecret       string
	WebhookExternalKeys bool // key items by external product code instead of internal id

	CatalogSeedFile string
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:db.sqlite"),
		AppEnv:      getEnv("APP_ENV", "local"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:8080"),

		JWTSecret: getEnv("JWT_SECRET", "secret"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		AllowedEmails:      splitList(getEnv("ALLOWED_EMAILS", "")),

		SigningSecret:  resolveSigningSecret(),
		AttribTTLDays:  getEnvInt("CABO_COOKIE_TTL_DAYS", 14),
		AttribScope:    getEnv("CABO_SCOPE", "sitewide"),
		RequireConsent: getEnvBool("REQUIRE_MARKETING_CONSENT", false),
		DiscountMapRaw: getEnv("CABO_DISCOUNT_MAP", ""),
		Currency:       getEnv("CURRENCY", "TRY"),

		WebhookURL:          getEnv("CABO_WEBHOOK_URL", ""),
		WebhookKeyID:        getEnv("CABO_WEBHOOK_KEY_ID", ""),
		WebhookSecret:       getEnv("CABO_WEBHOOK_SECRET", ""),
		WebhookExternalKeys: getEnvBool("CABO_WEBHOOK_USE_EXTERNAL_CODES", false),

		CatalogSeedFile: getEnv("CATALOG_SEED_FILE", ""),
	}
}

// resolveSigningSecret walks the fallback chain: the dedicated key, then the
// legacy key older deployments still set, then the dev default.
func resolveSigningSecret() string {
	if v := os.Getenv("CABO_SIGNING_SECRET"); v != "" {
		return v
	}
	if v := os.Getenv("REFERRAL_COOKIE_SECRET"); v != "" {
		return v
	}
	return DevSigningSecret
}

// IsProduction reports whether this deployment should behave strictly
// (secure cookies, fail-fast on dev secrets).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
