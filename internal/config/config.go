// Package config provides configuration management for the Shoplite chat CLI.
package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Environment keys read by Load.
const (
	KeyBaseURL = "SHOPLITE_BASE_URL"
	KeyTimeout = "SHOPLITE_TIMEOUT"
	KeyDataDir = "SHOPLITE_DATA_DIR"
)

// DefaultBaseURL is the public tunnel the Shoplite chat service is exposed on.
const DefaultBaseURL = "https://erik-unkindhearted-shonta.ngrok-free.dev"

// Keys lists the keys that may be stored in config.env, in display order.
var Keys = []string{KeyBaseURL, KeyTimeout}

// Config holds all configuration for the chat client.
type Config struct {
	// BaseURL is the address prefix the /chat path is appended to.
	BaseURL string

	// Timeout bounds a single request. Zero means no timeout.
	Timeout time.Duration

	// DataDir is the directory holding config.env.
	DataDir string
}

// Load creates a Config from the config file and environment variables.
// Values are resolved in order: environment variable > config file > default.
func Load() (*Config, error) {
	dataDir := envOr(KeyDataDir, defaultDataDir())

	fileValues, err := ReadFile(filepath.Join(dataDir, "config.env"))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	// Resolved in memory; the process environment is never modified.
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileValues[key]
	}

	cfg := &Config{
		BaseURL: valueOr(lookup(KeyBaseURL), DefaultBaseURL),
		Timeout: durationOr(lookup(KeyTimeout), 0),
		DataDir: dataDir,
	}
	return cfg, nil
}

// Validate checks that the configuration can be used to reach the service.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", KeyBaseURL, c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s %q: scheme must be http or https", KeyBaseURL, c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s %q: missing host", KeyBaseURL, c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%s must not be negative", KeyTimeout)
	}
	return nil
}

// FilePath returns the path of config.env inside DataDir.
func (c *Config) FilePath() string {
	return filepath.Join(c.DataDir, "config.env")
}

// FilePath returns the config.env path used when no Config has been loaded yet.
func FilePath() string {
	return filepath.Join(envOr(KeyDataDir, defaultDataDir()), "config.env")
}

// ReadFile reads KEY=VALUE pairs from path. A missing file yields an empty map.
func ReadFile(path string) (map[string]string, error) {
	values := make(map[string]string)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			values[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return values, scanner.Err()
}

// WriteFile writes values to path, known keys first, then any extras sorted.
func WriteFile(path string, values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# Shoplite chat configuration")
	fmt.Fprintln(w, "# Managed by: shoplite config")
	fmt.Fprintln(w, "# Environment variables override these values.")
	fmt.Fprintln(w)

	written := make(map[string]bool)
	for _, k := range Keys {
		if v, ok := values[k]; ok && v != "" {
			fmt.Fprintf(w, "%s=%s\n", k, v)
			written[k] = true
		}
	}

	var extras []string
	for k, v := range values {
		if !written[k] && v != "" {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		fmt.Fprintf(w, "%s=%s\n", k, values[k])
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func durationOr(v string, fallback time.Duration) time.Duration {
	if v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func valueOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func envOr(key, fallback string) string {
	return valueOr(os.Getenv(key), fallback)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shoplite"
	}
	return filepath.Join(home, ".shoplite")
}
