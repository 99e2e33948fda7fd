// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; the bearer token goes to the token store.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"querymind/cli/internal/xdg"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DefaultServerURL is the backend base URL used when nothing else is configured.
const DefaultServerURL = "http://localhost:8000"

// Token store backends selectable through token_backend.
const (
	BackendKeychain = "keychain"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds non-sensitive CLI settings.
type Config struct {
	ServerURL  string `yaml:"server_url"`
	InstanceID string `yaml:"instance_id"`
	// TokenBackend selects where the bearer token is persisted.
	TokenBackend string `yaml:"token_backend"`
	// RequestTimeout is a Go duration string; empty or "0" means no timeout.
	RequestTimeout string `yaml:"request_timeout,omitempty"`
	// LogLevel is a zap level name; --verbose forces debug.
	LogLevel  string      `yaml:"log_level"`
	Redis     RedisConfig `yaml:"redis,omitempty"`
	Endpoints Endpoints   `yaml:"endpoints,omitempty"`
}

// RedisConfig holds connection settings for the redis token backend.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Endpoints overrides backend paths. Empty fields keep the built-in defaults.
type Endpoints struct {
	Token        string `yaml:"token,omitempty"`
	Me           string `yaml:"me,omitempty"`
	UploadSchema string `yaml:"upload_schema,omitempty"`
	Query        string `yaml:"query,omitempty"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		ServerURL:    DefaultServerURL,
		TokenBackend: BackendKeychain,
		LogLevel:     "warn",
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration; missing file returns defaults.
// Environment overrides are applied on top of the file in both cases.
func Load() (Config, error) {
	c, err := loadFile()
	if err != nil {
		return c, err
	}
	c.applyEnvOverrides()
	c.fillDefaults()
	return c, nil
}

// loadFile reads the file alone, without environment overrides.
func loadFile() (Config, error) {
	c := Defaults()
	p, err := Path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", p, err)
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

// EnsureInstanceID assigns a random instance id on first use and persists it.
// The id scopes the stored token so unrelated installations never share one.
// Only the id is written; environment and flag overrides in c stay in memory.
func EnsureInstanceID(c *Config) error {
	if c.InstanceID != "" {
		return nil
	}
	onDisk, err := loadFile()
	if err != nil {
		return err
	}
	if onDisk.InstanceID == "" {
		onDisk.InstanceID = uuid.NewString()
		if err := Save(onDisk); err != nil {
			return err
		}
	}
	c.InstanceID = onDisk.InstanceID
	return nil
}

// Timeout parses RequestTimeout. A bare integer is read as seconds.
func (c Config) Timeout() (time.Duration, error) {
	v := strings.TrimSpace(c.RequestTimeout)
	if v == "" || v == "0" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid request_timeout %q: %w", v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid request_timeout %q: negative", v)
	}
	return d, nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("QUERYMIND_SERVER")); v != "" {
		c.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv("QUERYMIND_TOKEN_BACKEND")); v != "" {
		c.TokenBackend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("QUERYMIND_REDIS_ADDR")); v != "" {
		c.Redis.Addr = v
	}
	if os.Getenv("QUERYMIND_VERBOSE") == "1" {
		c.LogLevel = "debug"
	}
}

func (c *Config) fillDefaults() {
	if strings.TrimSpace(c.ServerURL) == "" {
		c.ServerURL = DefaultServerURL
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	if c.TokenBackend == "" {
		c.TokenBackend = BackendKeychain
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}
