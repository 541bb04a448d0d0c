// Package config loads the tester's configuration from environment
// variables, with defaults matching the standard local deployment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full runtime configuration of the tester.
type Config struct {
	// AgentBaseURL is the booking agent's API root.
	AgentBaseURL string
	// GatewayURL is the gateway mock's base URL.
	GatewayURL string
	// ClientPhone is the simulated customer's full phone number.
	ClientPhone string
	// ResponseTimeout bounds how long each send waits for the agent's reply.
	ResponseTimeout time.Duration
	// PollInterval is the delay between capture polls while waiting.
	PollInterval time.Duration
	// LogsDir receives one conversation log per scenario.
	LogsDir string
	// MaxSteps bounds the number of utterances per conversation.
	MaxSteps int

	// Database settings for the agent's bookings database (read-only access).
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

// WebhookURL returns the agent's inbound webhook endpoint.
func (c Config) WebhookURL() string {
	return c.AgentBaseURL + "/api/webhook/whatsapp-webhook"
}

// PhoneLast9 returns the trailing nine digits of the client phone, which is
// how the agent stores the contact number.
func (c Config) PhoneLast9() string {
	if len(c.ClientPhone) <= 9 {
		return c.ClientPhone
	}
	return c.ClientPhone[len(c.ClientPhone)-9:]
}

// DSN returns the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadFromEnv builds a Config from environment variables.
func LoadFromEnv() (Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxSteps, err := strconv.Atoi(getEnvOrDefault("MAX_STEPS", "30"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid MAX_STEPS: %w", err)
	}
	responseTimeout, err := time.ParseDuration(getEnvOrDefault("RESPONSE_TIMEOUT", "90s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid RESPONSE_TIMEOUT: %w", err)
	}
	pollInterval, err := time.ParseDuration(getEnvOrDefault("POLL_INTERVAL", "300ms"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
	}

	return Config{
		AgentBaseURL:    getEnvOrDefault("AGENT_BASE_URL", "http://localhost:5082"),
		GatewayURL:      getEnvOrDefault("GATEWAY_URL", "http://localhost:8080"),
		ClientPhone:     getEnvOrDefault("CLIENT_PHONE", "34692747052"),
		ResponseTimeout: responseTimeout,
		PollInterval:    pollInterval,
		LogsDir:         getEnvOrDefault("LOGS_DIR", "logs"),
		MaxSteps:        maxSteps,
		DBHost:          getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:          port,
		DBUser:          getEnvOrDefault("DB_USER", "villacarmen"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          getEnvOrDefault("DB_NAME", "villacarmen"),
		DBSSLMode:       getEnvOrDefault("DB_SSLMODE", "disable"),
	}, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
