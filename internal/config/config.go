// Package config provides configuration management for the lead relay service.
// It handles loading configuration from environment variables with sensible
// defaults and validates the configuration to ensure the service starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - CORS_ALLOWED_ORIGIN: Origin allowed on the submission endpoint (default: *)
//   - DATABASE_PATH: SQLite path for the submission audit log (default: ./lead_relay.db)
//   - TLS_CERT / TLS_KEY: Optional TLS certificate and key paths
//
// CRM Configuration:
//   - ZOHO_CLIENT_ID: OAuth2 client identifier (required)
//   - ZOHO_CLIENT_SECRET: OAuth2 client secret (required)
//   - ZOHO_REFRESH_TOKEN: Long-lived refresh credential (required)
//   - ZOHO_ACCOUNTS_URL: Authorization server base URL (default: https://accounts.zoho.com)
//   - ZOHO_API_DOMAIN: CRM API base URL (default: https://www.zohoapis.com)
//   - TOKEN_SAFETY_MARGIN: How early a cached token is treated as expired (default: 60s)
//   - HTTP_TIMEOUT: Timeout for outbound calls to both upstreams (default: 15s)
//
// Redis / Rate Limiting (optional, disabled when REDIS_ADDRESS is unset):
//   - REDIS_ADDRESS: Redis server address (host:port)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//   - RATE_LIMIT_ENABLED: Enable rate limiting (default: true)
//   - RATE_LIMIT_DEFAULT: Requests allowed per window per client IP (default: 60)
//   - RATE_LIMIT_WINDOW: Rate limit time window (default: 60s)
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the lead relay service.
// The configuration is loaded using the Load() function and should be
// validated using the Validate() method before use.
type Config struct {
	// Application settings
	Port              string // Server port number
	LogLevel          string // Logging level (debug, info, warn, error)
	CORSAllowedOrigin string // Value for Access-Control-Allow-Origin
	DatabasePath      string // Path to the SQLite audit log database
	TLSCert           string // TLS certificate path (optional)
	TLSKey            string // TLS key path (optional)

	// CRM credentials and endpoints
	ZohoClientID     string // OAuth2 client identifier
	ZohoClientSecret string // OAuth2 client secret
	ZohoRefreshToken string // Long-lived refresh credential
	ZohoAccountsURL  string // Authorization server base URL
	ZohoAPIDomain    string // CRM API base URL

	// Token handling
	TokenSafetyMargin time.Duration // Treat tokens as expired this early
	HTTPTimeout       time.Duration // Timeout for outbound upstream calls

	// Redis configuration for rate limiting
	RedisAddress  string // Redis server address (host:port), empty disables Redis
	RedisPassword string // Redis authentication password
	RedisDB       int    // Redis database number (0-15)
	RedisPoolSize int    // Redis connection pool size

	// Rate limiting configuration
	RateLimitEnabled bool          // Whether rate limiting is enabled
	RateLimitDefault int           // Requests allowed per window
	RateLimitWindow  time.Duration // Rate limiting time window
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config to ensure all required values are properly set and valid.
func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
		DatabasePath:      getEnv("DATABASE_PATH", "./lead_relay.db"),
		TLSCert:           getEnv("TLS_CERT", ""),
		TLSKey:            getEnv("TLS_KEY", ""),

		ZohoClientID:     getEnv("ZOHO_CLIENT_ID", ""),
		ZohoClientSecret: getEnv("ZOHO_CLIENT_SECRET", ""),
		ZohoRefreshToken: getEnv("ZOHO_REFRESH_TOKEN", ""),
		ZohoAccountsURL:  getEnv("ZOHO_ACCOUNTS_URL", "https://accounts.zoho.com"),
		ZohoAPIDomain:    getEnv("ZOHO_API_DOMAIN", "https://www.zohoapis.com"),

		TokenSafetyMargin: getDurationEnv("TOKEN_SAFETY_MARGIN", 60*time.Second),
		HTTPTimeout:       getDurationEnv("HTTP_TIMEOUT", 15*time.Second),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 10),

		RateLimitEnabled: getBoolEnv("RATE_LIMIT_ENABLED", true),
		RateLimitDefault: getIntEnv("RATE_LIMIT_DEFAULT", 60),
		RateLimitWindow:  getDurationEnv("RATE_LIMIT_WINDOW", 60*time.Second),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable value or returns a default value.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv retrieves a duration environment variable value or returns a default
// value. Accepts Go duration strings ("60s", "1m") or a bare number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

// Validate performs validation on the configuration to ensure all required
// fields are present and all values are valid. The application should call
// this method after loading configuration and before starting.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if c.ZohoClientID == "" {
		return fmt.Errorf("ZOHO_CLIENT_ID environment variable is required")
	}
	if c.ZohoClientSecret == "" {
		return fmt.Errorf("ZOHO_CLIENT_SECRET environment variable is required")
	}
	if c.ZohoRefreshToken == "" {
		return fmt.Errorf("ZOHO_REFRESH_TOKEN environment variable is required")
	}

	for _, endpoint := range []struct {
		name  string
		value string
	}{
		{"ZOHO_ACCOUNTS_URL", c.ZohoAccountsURL},
		{"ZOHO_API_DOMAIN", c.ZohoAPIDomain},
	} {
		parsed, err := url.Parse(endpoint.value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute URL", endpoint.name)
		}
	}

	if c.TokenSafetyMargin < 0 {
		return fmt.Errorf("TOKEN_SAFETY_MARGIN must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}

	if c.RedisDB < 0 || c.RedisDB > 15 {
		return fmt.Errorf("REDIS_DB must be between 0 and 15")
	}

	if c.RateLimitEnabled {
		if c.RateLimitDefault < 1 {
			return fmt.Errorf("RATE_LIMIT_DEFAULT must be at least 1")
		}
		if c.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}

	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}

	return nil
}

// TokenURL returns the full authorization server token endpoint.
func (c *Config) TokenURL() string {
	return c.ZohoAccountsURL + "/oauth/v2/token"
}
