package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dws-frontend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	assert.NotEmpty(t, cfg.Services.EventServiceURL)
	assert.NotEmpty(t, cfg.Services.TicketServiceURL)
	assert.Equal(t, "organiser", cfg.Identity.OrganiserRole)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 1000, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 100, cfg.RateLimit.Burst)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(*Config) {}, false},
		{"missing app name", func(c *Config) { c.App.Name = "" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"missing event service url", func(c *Config) { c.Services.EventServiceURL = "" }, true},
		{"missing ticket service url", func(c *Config) { c.Services.TicketServiceURL = "" }, true},
		{"missing jwt secret", func(c *Config) { c.Identity.JWTSecret = "" }, true},
		{"default secret in production", func(c *Config) { c.App.Environment = "production" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
