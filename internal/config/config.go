// Package config loads and validates the admin console configuration from a
// YAML file and provides structured access to backend address, auth storage,
// console and logging settings.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// BackendURL is the origin of the Gajpati backend (scheme + host). The
	// /api/v1 prefix is appended by the SDK.
	BackendURL string `yaml:"backend-url"`

	// AuthDir is the directory holding the persisted session token file.
	AuthDir string `yaml:"auth-dir"`

	// ConsolePort is the local port the admin console listens on.
	ConsolePort int `yaml:"console-port"`

	// RequestLog enables access logging for console requests.
	RequestLog bool `yaml:"request-log"`

	// RequestTimeout bounds each backend call, in seconds. Zero disables the
	// deadline entirely; a hung backend call then stalls its caller.
	RequestTimeout int `yaml:"request-timeout"`

	// LoggingToFile redirects logs from stdout to rotated files under LogDir.
	LoggingToFile bool `yaml:"logging-to-file"`

	// LogDir is where rotated log files are written when LoggingToFile is set.
	LogDir string `yaml:"log-dir"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`

	// OpenBrowser opens the console URL in the default browser on startup.
	OpenBrowser bool `yaml:"open-browser"`
}

const (
	defaultConsolePort = 8317
	defaultAuthDirName = ".gajpati-admin"
)

// LoadConfig reads, parses and validates the configuration file.
func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("config: read %s failed: %w", configFile, err)
	}

	cfg := &Config{}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s failed: %w", configFile, err)
	}

	if err = cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	if c.BackendURL == "" {
		return fmt.Errorf("config: backend-url is required")
	}
	parsed, err := url.Parse(c.BackendURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("config: backend-url %q is not a valid origin", c.BackendURL)
	}

	if c.ConsolePort <= 0 {
		c.ConsolePort = defaultConsolePort
	}
	if c.RequestTimeout < 0 {
		c.RequestTimeout = 0
	}

	if strings.TrimSpace(c.AuthDir) == "" {
		home, errHome := os.UserHomeDir()
		if errHome != nil {
			return fmt.Errorf("config: resolve home dir for auth-dir failed: %w", errHome)
		}
		c.AuthDir = filepath.Join(home, defaultAuthDirName)
	} else if strings.HasPrefix(c.AuthDir, "~/") {
		home, errHome := os.UserHomeDir()
		if errHome != nil {
			return fmt.Errorf("config: resolve home dir for auth-dir failed: %w", errHome)
		}
		c.AuthDir = filepath.Join(home, c.AuthDir[2:])
	}

	if c.LoggingToFile && strings.TrimSpace(c.LogDir) == "" {
		c.LogDir = "logs"
	}
	return nil
}

// TokenFilePath is the single named entry in persistent storage that holds
// the bearer token. Its absence implies an unauthenticated session.
func (c *Config) TokenFilePath() string {
	return filepath.Join(c.AuthDir, "session.json")
}

// ConsoleURL is the local address the console is reachable at.
func (c *Config) ConsoleURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", c.ConsolePort)
}
