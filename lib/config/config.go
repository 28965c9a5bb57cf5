// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable Load reads the config path
// from.
const EnvVar = "PROCSINGLETON_CONFIG"

// Config is the configuration of a procsingleton binary.
type Config struct {
	// UserDataDir is the profile directory guarded by the singleton.
	// Default: ~/.config/procsingleton
	UserDataDir string `yaml:"user_data_dir"`

	// ExecutableName is the basename another process's executable must
	// have to count as an instance of this program. Empty means the
	// basename of the running binary.
	ExecutableName string `yaml:"executable_name"`

	// SkipProcessCheck treats every PID named by the lock as a live
	// instance. Useful when the owner runs under a different
	// executable name, such as a test harness.
	SkipProcessCheck bool `yaml:"skip_process_check"`

	// SocketDirectory is where the private socket directory is
	// created. Empty means the system temporary directory.
	SocketDirectory string `yaml:"socket_directory"`

	// RetryAttempts is how often to retry connecting to the owner.
	// Default: 20
	RetryAttempts int `yaml:"retry_attempts"`

	// Timeout bounds the whole notify attempt, as a Go duration.
	// Default: 20s
	Timeout string `yaml:"timeout"`

	// KillUnresponsive kills an owner that never answers.
	// Default: true
	KillUnresponsive bool `yaml:"kill_unresponsive"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `yaml:"log_level"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig configures the Prometheus endpoint of the owner.
type MetricsConfig struct {
	// ListenAddress is the host:port serving /metrics. Empty disables
	// the endpoint.
	ListenAddress string `yaml:"listen_address"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		UserDataDir:      filepath.Join(homeDir, ".config", "procsingleton"),
		RetryAttempts:    20,
		Timeout:          "20s",
		KillUnresponsive: true,
		LogLevel:         "info",
	}
}

// Load loads configuration from the file named by PROCSINGLETON_CONFIG.
// It fails if the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your procsingleton.yaml config file, or use --config flag", EnvVar)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Values in
// the file override Default; paths are expanded afterwards.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.ExpandVariables()
	return cfg, nil
}

// ExpandVariables expands ${VAR} and ${VAR:-default} patterns in the
// path fields. SocketDirectory may refer to ${USER_DATA_DIR}.
func (c *Config) ExpandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.UserDataDir = expandVars(c.UserDataDir, vars)
	vars["USER_DATA_DIR"] = c.UserDataDir

	c.SocketDirectory = expandVars(c.SocketDirectory, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, preferring
// vars over the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// NotifyTimeout returns Timeout parsed. Call Validate first; an
// unparsable value yields zero.
func (c *Config) NotifyTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Timeout)
	return timeout
}

// SlogLevel returns LogLevel as a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.UserDataDir == "" {
		errs = append(errs, fmt.Errorf("user_data_dir is required"))
	}

	if c.RetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("retry_attempts must not be negative, got %d", c.RetryAttempts))
	}

	if timeout, err := time.ParseDuration(c.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	} else if timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}

	logLevels := []string{"debug", "info", "warn", "error"}
	if !contains(logLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level must be one of: %v", logLevels))
	}

	if c.Metrics.ListenAddress != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.ListenAddress); err != nil {
			errs = append(errs, fmt.Errorf("metrics.listen_address: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the profile directory if it does not exist.
func (c *Config) EnsurePaths() error {
	if err := os.MkdirAll(c.UserDataDir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", c.UserDataDir, err)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
