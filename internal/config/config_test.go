package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "backend-url: https://api.example.com/\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.BackendURL != "https://api.example.com" {
		t.Errorf("backend URL = %q, want trailing slash trimmed", cfg.BackendURL)
	}
	if cfg.ConsolePort != 8317 {
		t.Errorf("console port = %d, want default 8317", cfg.ConsolePort)
	}
	if cfg.AuthDir == "" || !strings.HasSuffix(cfg.AuthDir, ".gajpati-admin") {
		t.Errorf("auth dir = %q, want home-relative default", cfg.AuthDir)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("request timeout = %d, want 0", cfg.RequestTimeout)
	}
}

func TestLoadConfigFullValues(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
backend-url: http://localhost:8000
auth-dir: /tmp/gajpati-test
console-port: 9000
request-log: true
request-timeout: 30
logging-to-file: true
debug: true
open-browser: true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.ConsolePort != 9000 || !cfg.RequestLog || cfg.RequestTimeout != 30 || !cfg.Debug || !cfg.OpenBrowser {
		t.Errorf("parsed config = %+v", cfg)
	}
	if cfg.LogDir != "logs" {
		t.Errorf("log dir = %q, want default logs when file logging is on", cfg.LogDir)
	}
	if got := cfg.TokenFilePath(); got != filepath.Join("/tmp/gajpati-test", "session.json") {
		t.Errorf("token file path = %q", got)
	}
	if got := cfg.ConsoleURL(); got != "http://127.0.0.1:9000" {
		t.Errorf("console URL = %q", got)
	}
}

func TestLoadConfigRejectsMissingBackendURL(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "console-port: 9000\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for missing backend-url")
	}
}

func TestLoadConfigRejectsBadBackendURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"not a url", "/just/a/path", "example.com"} {
		path := writeConfig(t, "backend-url: "+raw+"\n")
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("backend-url %q accepted, want rejection", raw)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
