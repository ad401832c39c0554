package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port        string
	LogLevel    string
	Environment string

	// Local session tokens
	JWTSecret   string
	TokenExpiry time.Duration

	// Managed services
	SupabaseURL        string
	SupabaseKey        string
	SupabaseProjectRef string

	DefaultCurrency string

	EmailServiceProvider string

	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	MailgunDomain        string
	MailgunPrivateAPIKey string

	SenderEmail string
	SenderName  string

	AnalysisCacheTTL time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "optimoney-insecure-development-signing-secret-32b")
	if jwtSecret == "optimoney-insecure-development-signing-secret-32b" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	environment := getEnv("ENVIRONMENT", "development")
	if environment != "development" && environment != "staging" && environment != "production" {
		log.Printf("WARNING: Unknown ENVIRONMENT '%s'. Expected development, staging or production.", environment)
	}

	supabaseURL := getEnv("SUPABASE_URL", "")
	supabaseKey := getEnv("SUPABASE_KEY", "")
	if supabaseURL == "" || supabaseKey == "" {
		log.Fatalf("FATAL: SUPABASE_URL and SUPABASE_KEY are required. Set them in the environment or a .env file.")
	}

	Cfg = &AppConfig{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: environment,

		JWTSecret:   jwtSecret,
		TokenExpiry: getEnvAsDuration("TOKEN_EXPIRY", 24*time.Hour),

		SupabaseURL:        supabaseURL,
		SupabaseKey:        supabaseKey,
		SupabaseProjectRef: getEnv("SUPABASE_PROJECT_REF", ""),

		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "CLP"),

		EmailServiceProvider: getEnv("EMAIL_SERVICE_PROVIDER", "mock"),

		SMTPServer:   getEnv("SMTP_SERVER", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),

		SenderEmail: getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:  getEnv("SENDER_NAME", "OptiMoney"),

		AnalysisCacheTTL: getEnvAsDuration("ANALYSIS_CACHE_TTL", 15*time.Minute),
	}

	if Cfg.EmailServiceProvider == "mailgun" {
		if Cfg.MailgunDomain == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_PRIVATE_API_KEY is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.SenderEmail == "noreply@example.com" || Cfg.SenderEmail == "" {
			log.Fatalf("FATAL: SENDER_EMAIL must be configured properly (e.g., your Mailgun sender) when EMAIL_SERVICE_PROVIDER is 'mailgun'.")
		}
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, Environment=%s, EmailProvider=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.Environment, Cfg.EmailServiceProvider)
}

// IsProduction reports whether the server runs with production hardening.
// Development bypass tokens are refused when this is true.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
