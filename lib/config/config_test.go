// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.RetryAttempts != 20 {
		t.Errorf("expected retry_attempts=20, got %d", cfg.RetryAttempts)
	}

	if cfg.NotifyTimeout() != 20*time.Second {
		t.Errorf("expected timeout=20s, got %s", cfg.Timeout)
	}

	if !cfg.KillUnresponsive {
		t.Error("expected kill_unresponsive=true by default")
	}

	if filepath.Base(cfg.UserDataDir) != "procsingleton" {
		t.Errorf("expected user_data_dir to end in procsingleton, got %s", cfg.UserDataDir)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresEnvVar(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when PROCSINGLETON_CONFIG not set, got nil")
	}

	expectedMsg := "PROCSINGLETON_CONFIG environment variable not set"
	if !strings.HasPrefix(err.Error(), expectedMsg) {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithEnvVar(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "procsingleton.yaml")

	configContent := `
user_data_dir: /test/profile
retry_attempts: 3
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(EnvVar, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.UserDataDir != "/test/profile" {
		t.Errorf("expected user_data_dir=/test/profile, got %s", cfg.UserDataDir)
	}

	if cfg.RetryAttempts != 3 {
		t.Errorf("expected retry_attempts=3, got %d", cfg.RetryAttempts)
	}

	// Unset fields keep their defaults.
	if cfg.Timeout != "20s" {
		t.Errorf("expected timeout=20s, got %s", cfg.Timeout)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "procsingleton.yaml")

	configContent := `
user_data_dir: /custom/profile
executable_name: browser
skip_process_check: true
socket_directory: /run/user/1000
retry_attempts: 5
timeout: 2s
kill_unresponsive: false
log_level: debug

metrics:
  listen_address: 127.0.0.1:9464
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.UserDataDir != "/custom/profile" {
		t.Errorf("expected user_data_dir=/custom/profile, got %s", cfg.UserDataDir)
	}

	if cfg.ExecutableName != "browser" {
		t.Errorf("expected executable_name=browser, got %s", cfg.ExecutableName)
	}

	if !cfg.SkipProcessCheck {
		t.Error("expected skip_process_check=true")
	}

	if cfg.SocketDirectory != "/run/user/1000" {
		t.Errorf("expected socket_directory=/run/user/1000, got %s", cfg.SocketDirectory)
	}

	if cfg.RetryAttempts != 5 {
		t.Errorf("expected retry_attempts=5, got %d", cfg.RetryAttempts)
	}

	if cfg.NotifyTimeout() != 2*time.Second {
		t.Errorf("expected timeout=2s, got %s", cfg.Timeout)
	}

	if cfg.KillUnresponsive {
		t.Error("expected kill_unresponsive=false")
	}

	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.SlogLevel())
	}

	if cfg.Metrics.ListenAddress != "127.0.0.1:9464" {
		t.Errorf("expected listen_address=127.0.0.1:9464, got %s", cfg.Metrics.ListenAddress)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "procsingleton.yaml")
	if err := os.WriteFile(configPath, []byte("retry_attempts: [not, a, number]\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("expected error for a malformed config file")
	}
}

func TestLoadFile_ExpandsPaths(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	configPath := filepath.Join(t.TempDir(), "procsingleton.yaml")
	configContent := `
user_data_dir: ${HOME}/profiles/work
socket_directory: ${USER_DATA_DIR}/sockets
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.UserDataDir != "/home/tester/profiles/work" {
		t.Errorf("expected expanded user_data_dir, got %s", cfg.UserDataDir)
	}
	if cfg.SocketDirectory != "/home/tester/profiles/work/sockets" {
		t.Errorf("expected expanded socket_directory, got %s", cfg.SocketDirectory)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/profile",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/profile",
		},
		{
			input:    "${PROCSINGLETON_TEST_MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "zero retries and timeout",
			modify: func(c *Config) {
				c.RetryAttempts = 0
				c.Timeout = "0s"
			},
			wantErr: false,
		},
		{
			name: "empty user data dir",
			modify: func(c *Config) {
				c.UserDataDir = ""
			},
			wantErr: true,
		},
		{
			name: "negative retries",
			modify: func(c *Config) {
				c.RetryAttempts = -1
			},
			wantErr: true,
		},
		{
			name: "unparsable timeout",
			modify: func(c *Config) {
				c.Timeout = "twenty seconds"
			},
			wantErr: true,
		},
		{
			name: "negative timeout",
			modify: func(c *Config) {
				c.Timeout = "-5s"
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.LogLevel = "verbose"
			},
			wantErr: true,
		},
		{
			name: "metrics address without port",
			modify: func(c *Config) {
				c.Metrics.ListenAddress = "localhost"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.UserDataDir = ""
	cfg.RetryAttempts = -3
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"user_data_dir", "retry_attempts", "log_level"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

func TestEnsurePaths(t *testing.T) {
	cfg := Default()
	cfg.UserDataDir = filepath.Join(t.TempDir(), "nested", "profile")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	info, err := os.Stat(cfg.UserDataDir)
	if err != nil {
		t.Fatalf("profile directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("path %s is not a directory", cfg.UserDataDir)
	}
}
