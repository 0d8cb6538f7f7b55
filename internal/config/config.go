// Package config handles application config.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

// CognitoConfig holds user pool and app client config.
type CognitoConfig struct {
	UserPoolID   string
	ClientID     string
	ClientSecret string
	Region       string
	// Endpoint overrides the service endpoint, e.g. for a local emulator.
	Endpoint string
	// TenantNameAttr is the user pool's schema name for the tenant name.
	TenantNameAttr string
	// AccessKeyID and SecretAccessKey are optional static credentials.
	// When unset the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// GatewayConfig holds gateway behaviour config.
type GatewayConfig struct {
	AuthEventsMaxResults int
	// IPCryptKey enables auth-event IP pseudonymization when set.
	IPCryptKey string
}

// LogConfig holds logging config.
type LogConfig struct {
	Level       string
	ServiceName string
}

// Config holds all application config.
type Config struct {
	Cognito CognitoConfig
	Gateway GatewayConfig
	Log     LogConfig
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer or returns a default value.
// If the value cannot be parsed as an int, the default is returned.
func getEnvInt(key string, defaultVal int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultVal
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultVal
	}
	return value
}

// validate checks that all required configuration values are present.
func (c *Config) validate() error {
	if c.Cognito.UserPoolID == "" {
		return fmt.Errorf("COGNITO_USER_POOL_ID is required")
	}
	if c.Cognito.ClientID == "" {
		return fmt.Errorf("COGNITO_CLIENT_ID is required")
	}
	if c.Cognito.ClientSecret == "" {
		return fmt.Errorf("COGNITO_CLIENT_SECRET is required")
	}
	if (c.Cognito.AccessKeyID == "") != (c.Cognito.SecretAccessKey == "") {
		return fmt.Errorf("COGNITO_ACCESS_KEY_ID and COGNITO_SECRET_ACCESS_KEY must be set together")
	}
	if c.Gateway.AuthEventsMaxResults < 1 || c.Gateway.AuthEventsMaxResults > 60 {
		return fmt.Errorf("AUTH_EVENTS_MAX_RESULTS must be between 1 and 60")
	}
	return nil
}

// Load reads configuration from env variables.
func Load() (*Config, error) {
	cfg := &Config{
		Cognito: CognitoConfig{
			UserPoolID:      os.Getenv("COGNITO_USER_POOL_ID"),
			ClientID:        os.Getenv("COGNITO_CLIENT_ID"),
			ClientSecret:    os.Getenv("COGNITO_CLIENT_SECRET"),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Endpoint:        os.Getenv("COGNITO_ENDPOINT"),
			TenantNameAttr:  getEnv("COGNITO_TENANT_NAME_ATTR", "custom:tenatName"),
			AccessKeyID:     os.Getenv("COGNITO_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("COGNITO_SECRET_ACCESS_KEY"),
		},
		Gateway: GatewayConfig{
			AuthEventsMaxResults: getEnvInt("AUTH_EVENTS_MAX_RESULTS", 10),
			IPCryptKey:           os.Getenv("IPCRYPT_KEY"),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			ServiceName: getEnv("SERVICE_NAME", "identity-gateway"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LogValue renders the config for structured logs with secrets left out.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user_pool_id", c.Cognito.UserPoolID),
		slog.String("client_id", c.Cognito.ClientID),
		slog.String("region", c.Cognito.Region),
		slog.String("endpoint", c.Cognito.Endpoint),
		slog.String("tenant_name_attr", c.Cognito.TenantNameAttr),
		slog.Bool("static_credentials", c.Cognito.AccessKeyID != ""),
		slog.Int("auth_events_max_results", c.Gateway.AuthEventsMaxResults),
		slog.Bool("ip_pseudonymization", c.Gateway.IPCryptKey != ""),
		slog.String("log_level", c.Log.Level),
	)
}
