// Package config resolves client settings from defaults, a TOML file, the
// environment and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrNoOwner means no owner id was configured. Nothing can run without one.
var ErrNoOwner = errors.New("no owner id configured (set owner_id, TADA_OWNER_ID or --owner)")

const (
	DefaultAPIURL         = "http://localhost:3000"
	DefaultTimeout        = 10 * time.Second
	DefaultErrorTimeout   = 3 * time.Second
	DefaultMaxConcurrency = 8
	DefaultTheme          = "classic"
	DefaultLogLevel       = "warn"

	configFileName = "config.toml"
	logFileName    = "tada.log"
)

// Config holds every setting the client reads.
type Config struct {
	APIURL         string   `toml:"api_url"`
	OwnerID        int      `toml:"owner_id"`
	Timeout        Duration `toml:"timeout"`
	ErrorTimeout   Duration `toml:"error_timeout"`
	MaxConcurrency int      `toml:"max_concurrency"`
	LogLevel       string   `toml:"log_level"`
	LogFile        string   `toml:"log_file"`
	Theme          string   `toml:"theme"`

	// Path of the file the values were read from, if any.
	Path string `toml:"-"`
}

// Duration lets TOML files say timeout = "5s".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Overrides are values set explicitly on the command line. Zero values mean
// "not set".
type Overrides struct {
	ConfigPath string
	APIURL     string
	OwnerID    int
	LogLevel   string
	Theme      string
}

// Dir is the per-user directory holding config, credentials and logs.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	cfg := Config{
		APIURL:         DefaultAPIURL,
		Timeout:        Duration{DefaultTimeout},
		ErrorTimeout:   Duration{DefaultErrorTimeout},
		MaxConcurrency: DefaultMaxConcurrency,
		LogLevel:       DefaultLogLevel,
		Theme:          DefaultTheme,
	}
	if dir, err := Dir(); err == nil {
		cfg.LogFile = filepath.Join(dir, logFileName)
	}
	return cfg
}

// Load applies, in order: defaults, the config file, environment, overrides.
// An explicit ConfigPath must exist; the default file is optional.
func Load(o Overrides) (*Config, error) {
	cfg := Defaults()

	path := o.ConfigPath
	explicit := path != ""
	if path == "" {
		path = os.Getenv("TADA_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		if dir, err := Dir(); err == nil {
			path = filepath.Join(dir, configFileName)
		}
	}
	if path != "" {
		if err := loadFile(&cfg, path, explicit); err != nil {
			return nil, err
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return nil, err
	}
	applyOverrides(&cfg, o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(cfg *Config, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("loading config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	return nil
}

func loadEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("TADA_API_URL")); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("TADA_OWNER_ID")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TADA_OWNER_ID: not a number: %q", v)
		}
		cfg.OwnerID = n
	}
	if v := strings.TrimSpace(os.Getenv("TADA_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("TADA_LOG_FILE")); v != "" {
		cfg.LogFile = v
	}
	if v := strings.TrimSpace(os.Getenv("TADA_THEME")); v != "" {
		cfg.Theme = v
	}
	return nil
}

func applyOverrides(cfg *Config, o Overrides) {
	if o.APIURL != "" {
		cfg.APIURL = o.APIURL
	}
	if o.OwnerID != 0 {
		cfg.OwnerID = o.OwnerID
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.Theme != "" {
		cfg.Theme = o.Theme
	}
}

// Validate checks values that would otherwise fail later. A missing owner is
// not an error here: it is reported by RequireOwner so the UI can show a
// warning instead of failing to start.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url %q: want an absolute http(s) URL", c.APIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url %q: unsupported scheme %q", c.APIURL, u.Scheme)
	}
	if c.OwnerID < 0 {
		return fmt.Errorf("owner_id must be positive, got %d", c.OwnerID)
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.ErrorTimeout.Duration <= 0 {
		return fmt.Errorf("error_timeout must be positive, got %s", c.ErrorTimeout)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must not be negative, got %d", c.MaxConcurrency)
	}
	return nil
}

// RequireOwner returns ErrNoOwner when no owner id is set.
func (c *Config) RequireOwner() error {
	if c.OwnerID <= 0 {
		return ErrNoOwner
	}
	return nil
}
