package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears every TADA_ variable.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"TADA_CONFIG", "TADA_API_URL", "TADA_OWNER_ID", "TADA_LOG_LEVEL", "TADA_LOG_FILE", "TADA_THEME"} {
		t.Setenv(k, "")
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout.Duration)
	assert.Equal(t, 3*time.Second, cfg.ErrorTimeout.Duration)
	assert.Equal(t, DefaultMaxConcurrency, cfg.MaxConcurrency)
	assert.Equal(t, filepath.Join(home, ".tada", "tada.log"), cfg.LogFile)
	assert.Empty(t, cfg.Path)
	assert.ErrorIs(t, cfg.RequireOwner(), ErrNoOwner)
}

func TestLoadUserFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".tada", "config.toml")
	writeFile(t, path, `
api_url = "https://todos.example.com/api"
owner_id = 12
timeout = "2s"
max_concurrency = 2
theme = "mono"
`)

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "https://todos.example.com/api", cfg.APIURL)
	assert.Equal(t, 12, cfg.OwnerID)
	assert.Equal(t, 2*time.Second, cfg.Timeout.Duration)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.Equal(t, "mono", cfg.Theme)
	assert.Equal(t, path, cfg.Path)
	assert.NoError(t, cfg.RequireOwner())
}

func TestPrecedenceFileEnvFlags(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, path, "owner_id = 1\nlog_level = \"info\"\n")
	t.Setenv("TADA_OWNER_ID", "2")
	t.Setenv("TADA_LOG_LEVEL", "debug")

	cfg, err := Load(Overrides{ConfigPath: path, OwnerID: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.OwnerID, "flag wins over env")
	assert.Equal(t, "debug", cfg.LogLevel, "env wins over file")
}

func TestExplicitConfigMustExist(t *testing.T) {
	isolate(t)
	_, err := Load(Overrides{ConfigPath: filepath.Join(t.TempDir(), "missing.toml")})
	assert.Error(t, err)
}

func TestUnknownKeysRejected(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "c.toml")
	writeFile(t, path, "owner = 3\n")

	_, err := Load(Overrides{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys: owner")
}

func TestBadEnvOwner(t *testing.T) {
	isolate(t)
	t.Setenv("TADA_OWNER_ID", "me")
	_, err := Load(Overrides{})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"relative url":   func(c *Config) { c.APIURL = "/items" },
		"ftp url":        func(c *Config) { c.APIURL = "ftp://example.com" },
		"negative owner": func(c *Config) { c.OwnerID = -1 },
		"zero timeout":   func(c *Config) { c.Timeout = Duration{} },
		"zero error ttl": func(c *Config) { c.ErrorTimeout = Duration{} },
		"negative limit": func(c *Config) { c.MaxConcurrency = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestBadDuration(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "c.toml")
	writeFile(t, path, "timeout = \"soon\"\n")
	_, err := Load(Overrides{ConfigPath: path})
	assert.Error(t, err)
}
