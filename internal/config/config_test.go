package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Upstream.APIEndpoint = "https://api.example.com"
	cfg.Upstream.APIKey = "key"
	cfg.Upstream.StaticUpstream = "https://main--site.example.page"
	return cfg
}

func TestSetDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, defaultServiceName, cfg.Service.Name)
	assert.Equal(t, defaultVersion, cfg.Service.Version)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, defaultContentEndpoint, cfg.Upstream.ContentEndpoint)
	assert.Equal(t, defaultUpstreamTimeout, cfg.Upstream.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, defaultSiteName, cfg.Site.Name)
	assert.Equal(t, defaultTwitterSite, cfg.Site.TwitterSite)
	assert.Equal(t, defaultLoggingLevel, cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing api endpoint", mutate: func(c *Config) { c.Upstream.APIEndpoint = "" }, wantErr: "upstream.api_endpoint: is required"},
		{name: "relative static upstream", mutate: func(c *Config) { c.Upstream.StaticUpstream = "/static" }, wantErr: "upstream.static_upstream: must be an absolute http(s) URL"},
		{name: "missing api key", mutate: func(c *Config) { c.Upstream.APIKey = "" }, wantErr: "upstream.api_key: is required"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port: must be between 1 and 65535"},
		{name: "negative timeout", mutate: func(c *Config) { c.Upstream.Timeout = -time.Second }, wantErr: "upstream.timeout: must not be negative"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level: must be one of: debug, info, warn, error, fatal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
upstream:
  content_endpoint: https://yaml.example.com
  api_key: from-yaml
  timeout: 5s
site:
  name: Example
`), 0o600))

	t.Setenv("API_KEY", "from-env")
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://yaml.example.com", cfg.Upstream.ContentEndpoint)
	assert.Equal(t, "from-env", cfg.Upstream.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "Example", cfg.Site.Name)
	assert.Equal(t, defaultTwitterSite, cfg.Site.TwitterSite)
}
