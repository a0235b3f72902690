package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isabella232/tmg-ucm/infrastructure/config"
)

type sample struct {
	Name    string        `env:"SAMPLE_NAME"    yaml:"name"`
	Timeout time.Duration `env:"SAMPLE_TIMEOUT" yaml:"timeout"`
	Nested  struct {
		Enabled bool     `env:"SAMPLE_ENABLED" yaml:"enabled"`
		Tags    []string `env:"SAMPLE_TAGS"    yaml:"tags"`
	} `yaml:"nested"`
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("SAMPLE_TIMEOUT", "5s")
	t.Setenv("SAMPLE_TAGS", "a, b")

	path := writeFile(t, "name: from-yaml\ntimeout: 1s\nnested:\n  enabled: true\n")

	cfg, err := config.Load[sample](path)
	require.NoError(t, err)

	assert.Equal(t, "from-yaml", cfg.Name)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.Nested.Enabled)
	assert.Equal(t, []string{"a", "b"}, cfg.Nested.Tags)
}

func TestLoad_MissingFileUsesZeroValue(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("SAMPLE_NAME", "env-only")

	cfg, err := config.Load[sample](filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.Name)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	_, err := config.Load[sample](writeFile(t, "name: [unterminated"))
	require.Error(t, err)
}

func TestLoadWithDefaults_EnvBeatsDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("SAMPLE_NAME", "env")

	cfg, err := config.LoadWithDefaults[sample](writeFile(t, "{}"), func(s *sample) {
		s.Name = "default"
		s.Timeout = time.Minute
	})
	require.NoError(t, err)

	assert.Equal(t, "env", cfg.Name)
	assert.Equal(t, time.Minute, cfg.Timeout)
}

func TestLoad_EnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("SAMPLE_ENV_FILE_ONLY=yes\n"), 0o600))
	t.Setenv("ENV_FILE", envPath)
	t.Cleanup(func() { _ = os.Unsetenv("SAMPLE_ENV_FILE_ONLY") })

	_, err := config.Load[sample](writeFile(t, "{}"))
	require.NoError(t, err)
	assert.Equal(t, "yes", os.Getenv("SAMPLE_ENV_FILE_ONLY"))
}

func TestValidateURL(t *testing.T) {
	t.Parallel()

	assert.NoError(t, config.ValidateURL("u", "https://example.com"))
	assert.Error(t, config.ValidateURL("u", ""))
	assert.Error(t, config.ValidateURL("u", "example.com/path"))
	assert.Error(t, config.ValidateURL("u", "ftp://example.com"))

	var ve *config.ValidationError
	require.ErrorAs(t, config.ValidatePort("server.port", 0), &ve)
	assert.Equal(t, "server.port", ve.Field)
}
