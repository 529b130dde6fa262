package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/harrylevesque/desuite/internal/crypto"
	"github.com/harrylevesque/desuite/internal/utils"
)

// Config holds the settings shared by the server, client and dev backend.
// Values come from config.json, then environment overrides.
type Config struct {
	ListenAddr     string   `json:"listenAddr"`
	BackendURL     string   `json:"backendUrl"`
	DevBackend     bool     `json:"devBackend"`
	SessionKeyHex  string   `json:"sessionKeyHex"`
	SessionKeyFile string   `json:"sessionKeyFile"`
	SessionDir     string   `json:"sessionDir"`
	SecureCookies  bool     `json:"secureCookies"`
	RequestTimeout Duration `json:"requestTimeout"`
	LogFile        string   `json:"logFile"`
}

// Duration accepts "15s" style strings in config.json.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return fmt.Errorf("duration: %w", err)
		}
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Environment variables that override config.json.
const (
	EnvListen      = "DESUITE_LISTEN"
	EnvBackendURL  = "DESUITE_BACKEND_URL"
	EnvDevBackend  = "DESUITE_DEV_BACKEND"
	EnvSessionKey  = "DESUITE_SESSION_KEY_HEX"
	EnvSessionDir  = "DESUITE_SESSION_DIR"
	EnvSecure      = "DESUITE_SECURE_COOKIES"
	EnvTimeout     = "DESUITE_TIMEOUT"
	EnvLogFile     = "DESUITE_LOG_FILE"
	DefaultKeyFile = "session.key"
)

func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		BackendURL:     "http://localhost:8081",
		SessionKeyFile: DefaultKeyFile,
		SessionDir:     utils.GetSessionDir(),
		RequestTimeout: Duration(15 * time.Second),
	}
}

// Load reads path (a missing file means defaults) and applies environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			if err := json.NewDecoder(f).Decode(&cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return cfg, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvListen); ok && v != "" {
		c.ListenAddr = v
	}
	if v, ok := lookup(EnvBackendURL); ok && v != "" {
		c.BackendURL = strings.TrimRight(v, "/")
	}
	if v, ok := lookup(EnvSessionKey); ok && v != "" {
		c.SessionKeyHex = v
	}
	if v, ok := lookup(EnvSessionDir); ok && v != "" {
		c.SessionDir = v
	}
	if v, ok := lookup(EnvLogFile); ok {
		c.LogFile = v
	}
	if v, ok := lookup(EnvDevBackend); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDevBackend, err)
		}
		c.DevBackend = b
	}
	if v, ok := lookup(EnvSecure); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSecure, err)
		}
		c.SecureCookies = b
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.RequestTimeout = Duration(d)
	}
	return nil
}

// Validate checks the settings a server needs before it starts.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listenAddr is required")
	}
	if !c.DevBackend {
		u, err := url.Parse(c.BackendURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("backendUrl %q is not an absolute URL", c.BackendURL)
		}
	}
	if c.RequestTimeout <= 0 {
		return errors.New("requestTimeout must be positive")
	}
	return nil
}

// SessionKey returns the 32-byte session key from SessionKeyHex, or from
// SessionKeyFile when no hex value is set.
func (c Config) SessionKey() ([]byte, error) {
	if c.SessionKeyHex != "" {
		return crypto.ParseHexKey(c.SessionKeyHex)
	}
	path := c.SessionKeyFile
	if path == "" {
		path = DefaultKeyFile
	}
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(utils.GetProjectRoot(), path)
		}
	}
	key, err := crypto.ReadKeyFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s not set and %s unreadable: %w", EnvSessionKey, path, err)
	}
	return key, nil
}
