package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	BaseURL         string
	DatabaseType    string // sqlite, postgres or mysql
	DatabasePath    string // sqlite file
	DatabaseURL     string // postgres/mysql DSN
	SessionDuration time.Duration
	CSRFSecret      string
	Timezone        string

	// Word lookup
	DictionaryBaseURL      string
	DictionaryLanguage     string
	ConjugationBaseURL     string
	LookupTimeout          time.Duration
	EnrichmentTimeout      time.Duration // 0 derives the bound from the lookup settings
	ConjugationConcurrency int
	ConjugationRate        float64 // requests per second, 0 disables pacing
	CORSAllowOrigin        string

	// Freemium quotas, keyed by feature
	Quotas map[string]int

	// Generative text
	AIBaseURL string
	AIAPIKey  string
	AIModel   string

	// OAuth and bearer tokens
	GoogleClientID     string
	GoogleClientSecret string
	JWKSURL            string
	TokenIssuer        string
	TokenAudience      string

	// Email
	SESRegion    string
	SESFromEmail string
	EmailEnabled bool

	// Payments
	PaymentWebhookSecret string
	PremiumDuration      time.Duration

	// Background jobs
	SchedulerEnabled bool
	ReminderHour     int
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to read .env file: %v", err)
	}

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		BaseURL:         strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		DatabaseType:    strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DatabasePath:    getEnv("DB_PATH", "./palabras.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),
		CSRFSecret:      getEnv("CSRF_SECRET", ""),
		Timezone:        getEnv("TZ_NAME", "UTC"),

		DictionaryBaseURL:      getEnv("DICTIONARY_BASE_URL", "https://en.wiktionary.org/api/rest_v1"),
		DictionaryLanguage:     getEnv("DICTIONARY_LANGUAGE", "es"),
		ConjugationBaseURL:     getEnv("CONJUGATION_BASE_URL", ""),
		LookupTimeout:          getEnvDuration("LOOKUP_TIMEOUT", 5*time.Second),
		EnrichmentTimeout:      getEnvDuration("ENRICHMENT_TIMEOUT", 0),
		ConjugationConcurrency: getEnvInt("CONJUGATION_CONCURRENCY", 6),
		ConjugationRate:        getEnvFloat("CONJUGATION_RATE", 20),
		CORSAllowOrigin:        getEnv("CORS_ALLOW_ORIGIN", "*"),

		Quotas: map[string]int{
			"wordsAdded":       getEnvInt("QUOTA_WORDS_ADDED", 5),
			"quizzesPlayed":    getEnvInt("QUOTA_QUIZZES_PLAYED", 3),
			"matchesPlayed":    getEnvInt("QUOTA_MATCHES_PLAYED", 3),
			"flashcardsViewed": getEnvInt("QUOTA_FLASHCARDS_VIEWED", 20),
			"aiRequests":       getEnvInt("QUOTA_AI_REQUESTS", 5),
		},

		AIBaseURL: getEnv("AI_BASE_URL", ""),
		AIAPIKey:  getEnv("AI_API_KEY", ""),
		AIModel:   getEnv("AI_MODEL", "gpt-4o-mini"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		JWKSURL:            getEnv("JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs"),
		TokenIssuer:        getEnv("TOKEN_ISSUER", "https://accounts.google.com"),
		TokenAudience:      getEnv("TOKEN_AUDIENCE", getEnv("GOOGLE_CLIENT_ID", "")),

		SESRegion:    getEnv("SES_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		EmailEnabled: getEnvBool("EMAIL_ENABLED", false),

		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		PremiumDuration:      getEnvDuration("PREMIUM_DURATION", 31*24*time.Hour),

		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", true),
		ReminderHour:     getEnvInt("REMINDER_HOUR", 18),
	}
}

// Location resolves Timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Warning: unknown time zone %q, using UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}

// OAuthEnabled reports whether Google sign-in is configured
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// AIEnabled reports whether the generative text proxy is configured
func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid integer for %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Warning: invalid number for %s=%q, using %g", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid boolean for %s=%q, using %t", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

// getEnvDuration accepts Go durations ("5s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: invalid duration for %s=%q, using %s", key, raw, defaultValue)
	return defaultValue
}
