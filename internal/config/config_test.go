package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no stray ladderd.toml is found.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3001", cfg.Gateway.URL)
	assert.Equal(t, 5*time.Second, cfg.Gateway.PollInterval)
	assert.Equal(t, 2, cfg.Ladder.MinOrders)
	assert.Equal(t, 0, cfg.Ladder.MaxOrders)
	assert.Equal(t, 5*time.Minute, cfg.Signing.AttemptTimeout)
	assert.Equal(t, "ladderd.db", cfg.Journal.Path)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ladderd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[gateway]
url = "https://gateway.example.com"
poll_interval = "2s"

[ladder]
max_orders = 8

[signing]
inter_sign_delay = "0s"

[journal]
path = "/var/lib/ladderd/journal.db"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://gateway.example.com", cfg.Gateway.URL)
	assert.Equal(t, 2*time.Second, cfg.Gateway.PollInterval)
	assert.Equal(t, 8, cfg.Ladder.MaxOrders)
	assert.Equal(t, time.Duration(0), cfg.Signing.InterSignDelay)
	assert.Equal(t, "/var/lib/ladderd/journal.db", cfg.Journal.Path)

	// Untouched sections keep their defaults.
	assert.Equal(t, "https://xrplcluster.com", cfg.XRPL.URL)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LADDERD_GATEWAY_URL", "https://env.example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.Gateway.URL)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}
	t.Chdir(t.TempDir())

	tests := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{"min orders too low", func(c *Config) { c.Ladder.MinOrders = 1 }, "min_orders"},
		{"negative max orders", func(c *Config) { c.Ladder.MaxOrders = -1 }, "max_orders"},
		{"zero order size", func(c *Config) { c.Ladder.MinOrderSize = 0 }, "min_order_size"},
		{"empty gateway url", func(c *Config) { c.Gateway.URL = "" }, "gateway.url"},
		{"zero poll interval", func(c *Config) { c.Gateway.PollInterval = 0 }, "poll_interval"},
		{"empty journal path", func(c *Config) { c.Journal.Path = "" }, "journal.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}
