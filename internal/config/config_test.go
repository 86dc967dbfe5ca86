package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "dev-secret-change-me", cfg.JWT.Secret)
	assert.Len(t, cfg.Subscriptions.Plans, 3)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"production without secret", func(c *Config) { c.Server.Env = "production" }, true},
		{"production with short secret", func(c *Config) {
			c.Server.Env = "production"
			c.JWT.Secret = "short"
		}, true},
		{"production with long secret", func(c *Config) {
			c.Server.Env = "production"
			c.JWT.Secret = "0123456789abcdef0123456789abcdef"
		}, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, true},
		{"price not multiple of 5", func(c *Config) { c.Subscriptions.Plans[0].Price = 1001 }, true},
		{"duplicate plan", func(c *Config) {
			c.Subscriptions.Plans = append(c.Subscriptions.Plans, c.Subscriptions.Plans[0])
		}, true},
		{"zero duration", func(c *Config) { c.Subscriptions.Plans[1].DurationDays = 0 }, true},
		{"no plans", func(c *Config) { c.Subscriptions.Plans = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
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

func TestFindPlan(t *testing.T) {
	cfg := Default()

	plan, ok := cfg.FindPlan("annonceur")
	require.True(t, ok)
	assert.Equal(t, float64(5000), plan.Price)
	assert.Equal(t, 30, plan.DurationDays)

	_, ok = cfg.FindPlan("gold")
	assert.False(t, ok)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
server:
  port: 8080
  env: development
  base_url: https://api.businessconnect.sn
database:
  driver: sqlite
  url: "file::memory:"
marketplace:
  report_threshold: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CINETPAY_SITE_ID", "445566")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.Server.Port, "env overrides the file")
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Marketplace.ReportThreshold)
	assert.Equal(t, 5, cfg.Marketplace.MaxImages, "defaults survive a partial file")
	assert.Equal(t, "445566", cfg.CinetPay.SiteID)
	assert.Equal(t, "https://api.businessconnect.sn/api/subscriptions/webhook", cfg.CinetPay.NotifyURL)
	assert.Same(t, cfg, GetConfig())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("DATABASE_DRIVER", "sqlite")

	cfg := LoadConfig()

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}
