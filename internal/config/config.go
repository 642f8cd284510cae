package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"qreta-backend-go/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	StorageBucket                    string `mapstructure:"STORAGE_BUCKET"`
	StripeSecretKey                  string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret              string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripePriceStarter               string `mapstructure:"STRIPE_PRICE_STARTER"`
	StripePricePro                   string `mapstructure:"STRIPE_PRICE_PRO"`
	ClientURL                        string `mapstructure:"CLIENT_URL"`
	MaintenanceMode                  bool   `mapstructure:"MAINTENANCE_MODE"`
}

var appConfig *Config

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("MAINTENANCE_MODE", false)

	// Bind environment variables
	viper.BindEnv("PORT")
	viper.BindEnv("GIN_MODE")
	viper.BindEnv("FIREBASE_PROJECT_ID")
	viper.BindEnv("GOOGLE_APPLICATION_CREDENTIALS")
	viper.BindEnv("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64")
	viper.BindEnv("STORAGE_BUCKET")
	viper.BindEnv("STRIPE_SECRET_KEY")
	viper.BindEnv("STRIPE_WEBHOOK_SECRET")
	viper.BindEnv("STRIPE_PRICE_STARTER")
	viper.BindEnv("STRIPE_PRICE_PRO")
	viper.BindEnv("CLIENT_URL")
	viper.BindEnv("MAINTENANCE_MODE")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	// Validate required fields
	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	if cfg.GoogleApplicationCredentials == "" && cfg.FirebaseServiceAccountJSONBase64 == "" {
		return nil, errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
	}
	if cfg.StorageBucket == "" {
		return nil, errors.New("STORAGE_BUCKET is required")
	}
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is required")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.StripePriceStarter == "" || cfg.StripePricePro == "" {
		return nil, errors.New("STRIPE_PRICE_STARTER and STRIPE_PRICE_PRO are required")
	}
	if cfg.ClientURL == "" {
		return nil, errors.New("CLIENT_URL is required")
	}

	appConfig = &cfg
	return appConfig, nil
}

// GetConfig returns the loaded application configuration.
// It will panic if LoadConfig has not been called successfully.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config not loaded; call LoadConfig first")
	}
	return appConfig
}

// PlanForPriceID maps a Stripe price ID to the canonical plan it sells.
// Unknown price IDs return ok=false; the webhook handler keeps the previous
// plan in that case instead of silently downgrading.
func (c *Config) PlanForPriceID(priceID string) (models.Plan, bool) {
	switch priceID {
	case c.StripePriceStarter:
		return models.PlanStarter, true
	case c.StripePricePro:
		return models.PlanPro, true
	}
	return "", false
}

// PriceIDForPlan is the inverse mapping, used when pre-configuring portal
// plan-change flows. The free plan has no price.
func (c *Config) PriceIDForPlan(plan models.Plan) string {
	switch plan {
	case models.PlanStarter:
		return c.StripePriceStarter
	case models.PlanPro:
		return c.StripePricePro
	}
	return ""
}
