// Package config loads service configuration from the environment. Viper
// binds the variables so deployment secrets stay out of the binary and main
// stays lean.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable for the donation gateway. Values are loaded from
// environment variables, optionally seeded from a .env file.
type Config struct {
	ServerAddr      string `mapstructure:"SERVER_ADDR"`
	FrontendBaseURL string `mapstructure:"FRONTEND_URL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	PayPalClientID     string `mapstructure:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `mapstructure:"PAYPAL_CLIENT_SECRET"`
	PayPalAPIBase      string `mapstructure:"PAYPAL_API_BASE"`

	BankAccountName   string `mapstructure:"BANK_ACCOUNT_NAME"`
	BankAccountNumber string `mapstructure:"BANK_ACCOUNT_NUMBER"`
	BankRoutingNumber string `mapstructure:"BANK_ROUTING_NUMBER"`
	BankName          string `mapstructure:"BANK_NAME"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	FromEmail    string `mapstructure:"FROM_EMAIL"`
	ContactEmail string `mapstructure:"CONTACT_EMAIL"`

	DonationEventQueue string `mapstructure:"DONATION_EVENT_QUEUE"`

	IntakeRateLimitPerMinute int `mapstructure:"INTAKE_RATE_LIMIT_PER_MINUTE"`
}

// RateLimitWindow is fixed at one minute; only the per-window budget is
// configurable.
const RateLimitWindow = time.Minute

// Load reads configuration from environment variables, with an optional .env
// file under path for local development.
func Load(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_ADDR", ":8080")
	viper.SetDefault("FRONTEND_URL", "http://localhost:5173")
	viper.SetDefault("PAYPAL_API_BASE", "https://api-m.sandbox.paypal.com")
	viper.SetDefault("BANK_ACCOUNT_NAME", "Adelante Story Foundation")
	viper.SetDefault("BANK_ACCOUNT_NUMBER", "123456789")
	viper.SetDefault("BANK_ROUTING_NUMBER", "021000021")
	viper.SetDefault("BANK_NAME", "Chase Bank")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("FROM_EMAIL", "donations@adelantestory.com")
	viper.SetDefault("CONTACT_EMAIL", "donations@adelantestory.com")
	viper.SetDefault("DONATION_EVENT_QUEUE", "givegate.donation_events")
	viper.SetDefault("INTAKE_RATE_LIMIT_PER_MINUTE", 60)

	for _, key := range []string{
		"SERVER_ADDR", "FRONTEND_URL",
		"DATABASE_URL", "REDIS_URL", "RABBITMQ_URL",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET",
		"PAYPAL_CLIENT_ID", "PAYPAL_CLIENT_SECRET", "PAYPAL_API_BASE",
		"BANK_ACCOUNT_NAME", "BANK_ACCOUNT_NUMBER", "BANK_ROUTING_NUMBER", "BANK_NAME",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD",
		"FROM_EMAIL", "CONTACT_EMAIL",
		"DONATION_EVENT_QUEUE", "INTAKE_RATE_LIMIT_PER_MINUTE",
	} {
		_ = viper.BindEnv(key)
	}

	// The .env file is optional; environment variables alone are fine.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
