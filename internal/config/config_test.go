package config

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.App.Port)
	assert.Equal(t, DriverMongo, cfg.Storage.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.App.TokenTTL)
	assert.Equal(t, 1000, cfg.RateLimit.Max)
	assert.Equal(t, 100, cfg.RateLimit.AuthMax)
	assert.Equal(t, "10M", cfg.HTTP.BodyLimit)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.UploadsEnabled())
}

func TestLoad_EnvOverridesFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diarydesk.yaml")
	content := []byte(`
app:
  port: "7000"
  jwt_secret: from-file
  token_ttl: 1h
storage:
  driver: sqlite
  sqlite_path: /tmp/notes.db
rate_limit:
  max: 50
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "8080")
	t.Setenv("RATE_LIMIT_AUTH_MAX", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "from-file", cfg.App.JWTSecret)
	assert.Equal(t, time.Hour, cfg.App.TokenTTL)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/notes.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 50, cfg.RateLimit.Max)
	assert.Equal(t, 5, cfg.RateLimit.AuthMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Storage.Driver = "postgres" },
			wantErr: ErrUnknownDriver,
		},
		{
			name:    "default secret rejected in production",
			mutate:  func(c *Config) { c.App.Env = EnvProduction },
			wantErr: ErrDefaultJWTSecret,
		},
		{
			name:    "empty secret",
			mutate:  func(c *Config) { c.App.JWTSecret = "" },
			wantErr: ErrMissingJWTSecret,
		},
		{
			name:    "malformed proxy range",
			mutate:  func(c *Config) { c.HTTP.TrustedProxies = []string{"10.0.0.0/33"} },
			wantErr: ErrInvalidProxy,
		},
		{
			name:   "proxy ranges and hosts",
			mutate: func(c *Config) { c.HTTP.TrustedProxies = []string{"10.0.0.0/8", "192.0.2.1", "::1"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTP_ProxyRanges(t *testing.T) {
	h := HTTP{TrustedProxies: []string{"10.0.0.0/8", "192.0.2.1"}}
	ranges, err := h.ProxyRanges()
	require.NoError(t, err)
	require.Len(t, ranges, 2)

	assert.True(t, ranges[0].Contains(net.ParseIP("10.1.2.3")))
	assert.True(t, ranges[1].Contains(net.ParseIP("192.0.2.1")))
	assert.False(t, ranges[1].Contains(net.ParseIP("192.0.2.2")))

	ranges, err = HTTP{}.ProxyRanges()
	require.NoError(t, err)
	assert.Empty(t, ranges)
}
