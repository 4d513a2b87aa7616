package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

var Module = fx.Module("config", fx.Provide(Load))

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// PublicBaseURL is where providers send payers back after checkout.
	PublicBaseURL string

	// PlatformRate is the flat commission the platform takes on every
	// settled order, as a fraction of the gross.
	PlatformRate decimal.Decimal

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

	Cashfree ProviderConfig
	Razorpay ProviderConfig

	Email EmailConfig
}

// ProviderConfig carries one gateway's credentials and fee model.
type ProviderConfig struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	FeeRate       decimal.Decimal
	FeeFixed      decimal.Decimal
	FeeTaxRate    decimal.Decimal
}

func (p ProviderConfig) Configured() bool {
	return strings.TrimSpace(p.KeyID) != "" && strings.TrimSpace(p.KeySecret) != ""
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:       getenv("APP_SERVICE", "formpay"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Environment:   getenv("ENVIRONMENT", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		PublicBaseURL: strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		PlatformRate:  getenvDecimal("PLATFORM_COMMISSION_RATE", "0.03"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "formpay"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		Cashfree: ProviderConfig{
			BaseURL:       getenv("CASHFREE_BASE_URL", "https://api.cashfree.com"),
			KeyID:         strings.TrimSpace(getenv("CASHFREE_CLIENT_ID", "")),
			KeySecret:     strings.TrimSpace(getenv("CASHFREE_CLIENT_SECRET", "")),
			WebhookSecret: strings.TrimSpace(getenv("CASHFREE_WEBHOOK_SECRET", "")),
			FeeRate:       getenvDecimal("CASHFREE_FEE_RATE", "0.025"),
			FeeFixed:      getenvDecimal("CASHFREE_FEE_FIXED", "3"),
			FeeTaxRate:    getenvDecimal("CASHFREE_FEE_TAX_RATE", "0"),
		},
		Razorpay: ProviderConfig{
			BaseURL:       getenv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			KeyID:         strings.TrimSpace(getenv("RAZORPAY_KEY_ID", "")),
			KeySecret:     strings.TrimSpace(getenv("RAZORPAY_KEY_SECRET", "")),
			WebhookSecret: strings.TrimSpace(getenv("RAZORPAY_WEBHOOK_SECRET", "")),
			FeeRate:       getenvDecimal("RAZORPAY_FEE_RATE", "0.02"),
			FeeFixed:      getenvDecimal("RAZORPAY_FEE_FIXED", "3"),
			FeeTaxRate:    getenvDecimal("RAZORPAY_FEE_TAX_RATE", "0.18"),
		},

		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", ""),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "payments@formpay.local"),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
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

func getenvDecimal(key string, def string) decimal.Decimal {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		value = def
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.RequireFromString(def)
	}
	return parsed
}
