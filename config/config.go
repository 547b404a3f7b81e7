package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type ToolConfig struct {
	BaseURL     string
	Name        string
	Description string
}

// IsConfigured returns true if all required tool configuration is present
func (c ToolConfig) IsConfigured() bool {
	return c.BaseURL != "" && c.Name != ""
}

// LoginURL is the OIDC third-party login initiation endpoint.
func (c ToolConfig) LoginURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/lti/login"
}

// LaunchURL is the message launch redirect endpoint.
func (c ToolConfig) LaunchURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/lti/launch"
}

// JWKSURL is where the tool publishes its public signing keys.
func (c ToolConfig) JWKSURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/lti/jwks"
}

type ClerkConfig struct {
	SecretKey string
}

// IsConfigured returns true if all required Clerk configuration is present
func (c ClerkConfig) IsConfigured() bool {
	return c.SecretKey != ""
}

type AlertingConfig struct {
	WebhookURL string
}

// IsConfigured returns true if all required alerting configuration is present
func (c AlertingConfig) IsConfigured() bool {
	return c.WebhookURL != ""
}

type AppConfig struct {
	// Core configuration (always required)
	DatabaseURL        string
	DatabaseSchema     string
	Port               string // Optional with default "9001"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	UseStrictConfig    bool // If true, error when any integration is not fully configured

	// Integration configurations (grouped)
	ToolConfig     ToolConfig
	ClerkConfig    ClerkConfig
	AlertingConfig AlertingConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	// Core required configuration
	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	databaseSchema, err := getEnvRequired("DB_SCHEMA")
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		// Core configuration
		DatabaseURL:        databaseURL,
		DatabaseSchema:     databaseSchema,
		Port:               getEnvWithDefault("PORT", "9001"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		UseStrictConfig:    getEnvWithDefault("USE_STRICT_CONFIG", "true") == "true",

		// Tool configuration (required for registration and launches)
		ToolConfig: ToolConfig{
			BaseURL:     os.Getenv("TOOL_BASE_URL"),
			Name:        getEnvWithDefault("TOOL_NAME", "Game Tool"),
			Description: getEnvWithDefault("TOOL_DESCRIPTION", "An LTI 1.3 Advantage tool"),
		},

		// Clerk configuration (optional)
		ClerkConfig: ClerkConfig{
			SecretKey: os.Getenv("CLERK_SECRET_KEY"),
		},

		// Alerting configuration (optional)
		AlertingConfig: AlertingConfig{
			WebhookURL: os.Getenv("SLACK_ALERT_WEBHOOK_URL"),
		},
	}

	// Log which integrations are configured
	if config.ToolConfig.IsConfigured() {
		log.Printf("✅ Tool endpoints configured for %s", config.ToolConfig.BaseURL)
	} else {
		log.Printf("⚠️ Tool base URL not configured - dynamic registration will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("tool is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.ClerkConfig.IsConfigured() {
		log.Printf("✅ Clerk authentication configured")
	} else {
		log.Printf("⚠️ Clerk authentication not configured - Admin endpoints will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("clerk authentication is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.AlertingConfig.IsConfigured() {
		log.Printf("✅ Error alerting configured")
	} else {
		log.Printf("⚠️ Error alerting not configured - alerts will only be logged")
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
