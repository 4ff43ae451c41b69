package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the gateway reads from the environment, resolved
// once at startup and passed to constructors as immutable configuration.
type Config struct {
	Port string
	Env  string // "development" or "production"

	PayPalMode         string // "sandbox" or "production"
	PayPalClientID     string
	PayPalClientSecret string
	CallbackBaseURL    string
	BrandName          string
	Currency           string

	DatabaseURL string // optional; enables the Postgres-backed store

	KafkaBrokers      string // optional; comma separated, enables event publishing
	KafkaPaymentTopic string

	AllowedOrigins string
}

// LoadConfig reads configuration from the environment, loading a local .env
// file first when present. Missing PayPal credentials are not fatal here;
// the client reports them as a typed error at call time.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		Env:                getEnv("APP_ENV", "development"),
		PayPalMode:         getEnv("PAYPAL_MODE", "sandbox"),
		PayPalClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
		CallbackBaseURL:    getEnv("CALLBACK_BASE_URL", "http://localhost:3000"),
		BrandName:          getEnv("BRAND_NAME", "Payment Gateway"),
		Currency:           getEnv("CURRENCY", "USD"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		KafkaBrokers:       os.Getenv("KAFKA_BROKERS"),
		KafkaPaymentTopic:  getEnv("KAFKA_PAYMENT_TOPIC", "payment-events"),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
	}
	return cfg, nil
}

// ReturnURL is where PayPal redirects the payer after approving an order.
func (c *Config) ReturnURL() string {
	return strings.TrimSuffix(c.CallbackBaseURL, "/") + "/api/v1/payments/callback"
}

// CancelURL is where PayPal redirects the payer after abandoning checkout.
func (c *Config) CancelURL() string {
	return strings.TrimSuffix(c.CallbackBaseURL, "/") + "/api/v1/payments/callback/cancel"
}

// IsDevelopment reports whether diagnostic detail may appear in responses.
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
