package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.RequestTimeout.Std() != 15*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"listenAddr":":9000","backendUrl":"http://backend:8081","requestTimeout":"3s"}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(EnvBackendURL, "http://other:9999/")
	t.Setenv(EnvDevBackend, "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("listen = %q", cfg.ListenAddr)
	}
	if cfg.BackendURL != "http://other:9999" {
		t.Fatalf("backend = %q", cfg.BackendURL)
	}
	if !cfg.DevBackend || cfg.RequestTimeout.Std() != 3*time.Second {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestBadEnvRejected(t *testing.T) {
	t.Setenv(EnvTimeout, "soon")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for bad timeout")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.BackendURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid backend url")
	}
	cfg.DevBackend = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dev backend ignores url: %v", err)
	}
}

func TestSessionKeySources(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	cfg := Default()
	cfg.SessionKeyHex = hex.EncodeToString(key)
	got, err := cfg.SessionKey()
	if err != nil || len(got) != 32 || got[31] != 31 {
		t.Fatalf("hex key: %v %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "session.key")
	os.WriteFile(path, []byte(hex.EncodeToString(key)), 0600)
	cfg = Default()
	cfg.SessionKeyFile = path
	if _, err := cfg.SessionKey(); err != nil {
		t.Fatalf("file key: %v", err)
	}

	cfg.SessionKeyFile = filepath.Join(t.TempDir(), "missing.key")
	if _, err := cfg.SessionKey(); err == nil {
		t.Fatalf("expected missing key error")
	}
}
