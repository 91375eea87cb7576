package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequired sets the credential variables Validate insists on.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ZOHO_CLIENT_ID", "client-id")
	t.Setenv("ZOHO_CLIENT_SECRET", "client-secret")
	t.Setenv("ZOHO_REFRESH_TOKEN", "refresh-token")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "*", cfg.CORSAllowedOrigin)
	assert.Equal(t, "./lead_relay.db", cfg.DatabasePath)
	assert.Equal(t, "https://accounts.zoho.com", cfg.ZohoAccountsURL)
	assert.Equal(t, "https://www.zohoapis.com", cfg.ZohoAPIDomain)
	assert.Equal(t, 60*time.Second, cfg.TokenSafetyMargin)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Empty(t, cfg.RedisAddress)
	assert.True(t, cfg.RateLimitEnabled)
	assert.Equal(t, 60, cfg.RateLimitDefault)
	assert.Equal(t, 60*time.Second, cfg.RateLimitWindow)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGIN", "https://example.com")
	t.Setenv("ZOHO_ACCOUNTS_URL", "https://accounts.zoho.eu")
	t.Setenv("HTTP_TIMEOUT", "30s")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://example.com", cfg.CORSAllowedOrigin)
	assert.Equal(t, "https://accounts.zoho.eu", cfg.ZohoAccountsURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.False(t, cfg.RateLimitEnabled)
}

func TestLoad_DurationAcceptsBareSeconds(t *testing.T) {
	setRequired(t)
	t.Setenv("TOKEN_SAFETY_MARGIN", "120")

	cfg := Load()
	assert.Equal(t, 120*time.Second, cfg.TokenSafetyMargin)
}

func TestLoad_InvalidDurationKeepsDefault(t *testing.T) {
	setRequired(t)
	t.Setenv("TOKEN_SAFETY_MARGIN", "soon")

	cfg := Load()
	assert.Equal(t, 60*time.Second, cfg.TokenSafetyMargin)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:              "8080",
			ZohoClientID:      "id",
			ZohoClientSecret:  "secret",
			ZohoRefreshToken:  "refresh",
			ZohoAccountsURL:   "https://accounts.zoho.com",
			ZohoAPIDomain:     "https://www.zohoapis.com",
			TokenSafetyMargin: 60 * time.Second,
			HTTPTimeout:       15 * time.Second,
			RateLimitEnabled:  true,
			RateLimitDefault:  60,
			RateLimitWindow:   time.Minute,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Port = "not-a-port" },
			wantErr: "PORT",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantErr: "PORT",
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.ZohoClientID = "" },
			wantErr: "ZOHO_CLIENT_ID",
		},
		{
			name:    "missing client secret",
			mutate:  func(c *Config) { c.ZohoClientSecret = "" },
			wantErr: "ZOHO_CLIENT_SECRET",
		},
		{
			name:    "missing refresh token",
			mutate:  func(c *Config) { c.ZohoRefreshToken = "" },
			wantErr: "ZOHO_REFRESH_TOKEN",
		},
		{
			name:    "relative accounts url",
			mutate:  func(c *Config) { c.ZohoAccountsURL = "accounts.zoho.com" },
			wantErr: "ZOHO_ACCOUNTS_URL",
		},
		{
			name:    "relative api domain",
			mutate:  func(c *Config) { c.ZohoAPIDomain = "/crm" },
			wantErr: "ZOHO_API_DOMAIN",
		},
		{
			name:    "negative safety margin",
			mutate:  func(c *Config) { c.TokenSafetyMargin = -time.Second },
			wantErr: "TOKEN_SAFETY_MARGIN",
		},
		{
			name:    "zero http timeout",
			mutate:  func(c *Config) { c.HTTPTimeout = 0 },
			wantErr: "HTTP_TIMEOUT",
		},
		{
			name:    "redis db out of range",
			mutate:  func(c *Config) { c.RedisDB = 16 },
			wantErr: "REDIS_DB",
		},
		{
			name:    "rate limit below one",
			mutate:  func(c *Config) { c.RateLimitDefault = 0 },
			wantErr: "RATE_LIMIT_DEFAULT",
		},
		{
			name: "rate limit ignored when disabled",
			mutate: func(c *Config) {
				c.RateLimitEnabled = false
				c.RateLimitDefault = 0
			},
		},
		{
			name:    "tls cert without key",
			mutate:  func(c *Config) { c.TLSCert = "/etc/tls/cert.pem" },
			wantErr: "TLS_CERT and TLS_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTokenURL(t *testing.T) {
	cfg := &Config{ZohoAccountsURL: "https://accounts.zoho.eu"}
	assert.Equal(t, "https://accounts.zoho.eu/oauth/v2/token", cfg.TokenURL())
}
