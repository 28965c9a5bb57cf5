// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/procsingleton/lib/config"
	"github.com/bureau-foundation/procsingleton/lib/process"
	"github.com/bureau-foundation/procsingleton/lib/singleton"
	"github.com/bureau-foundation/procsingleton/lib/telemetry"
	"github.com/bureau-foundation/procsingleton/lib/version"
)

func main() {
	code, err := run(os.Args)
	if err != nil {
		process.Fatal(err)
	}
	os.Exit(code)
}

// options is the parsed command line.
type options struct {
	config      *config.Config
	forwarded   []string
	showVersion bool
	showHelp    bool
	flagSet     *pflag.FlagSet
}

func parseOptions(args []string) (*options, error) {
	var (
		configPath       string
		userDataDir      string
		executableName   string
		socketDirectory  string
		retryAttempts    int
		timeout          time.Duration
		noKill           bool
		skipProcessCheck bool
		metricsAddress   string
		logLevel         string
		parsed           options
	)

	flagSet := pflag.NewFlagSet("procsingleton", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to procsingleton.yaml (default: $"+config.EnvVar+", then built-in defaults)")
	flagSet.StringVar(&userDataDir, "user-data-dir", "", "profile directory to guard")
	flagSet.StringVar(&executableName, "executable-name", "", "executable basename that counts as another instance")
	flagSet.StringVar(&socketDirectory, "socket-directory", "", "directory for the private socket directory")
	flagSet.IntVar(&retryAttempts, "retry-attempts", singleton.DefaultRetryAttempts, "connection attempts before giving up on the owner")
	flagSet.DurationVar(&timeout, "timeout", singleton.DefaultTimeout, "total time allowed for notifying the owner")
	flagSet.BoolVar(&noKill, "no-kill", false, "never kill an unresponsive owner")
	flagSet.BoolVar(&skipProcessCheck, "skip-process-check", false, "treat any PID in the lock as a live instance")
	flagSet.StringVar(&metricsAddress, "metrics-address", "", "host:port for the Prometheus /metrics endpoint")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.BoolVar(&parsed.showVersion, "version", false, "print version information and exit")
	flagSet.BoolVarP(&parsed.showHelp, "help", "h", false, "show help")
	flagSet.SetOutput(os.Stderr)
	parsed.flagSet = flagSet

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			parsed.showHelp = true
			return &parsed, nil
		}
		return nil, err
	}
	if parsed.showVersion || parsed.showHelp {
		return &parsed, nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("user-data-dir") {
		cfg.UserDataDir = userDataDir
	}
	if flagSet.Changed("executable-name") {
		cfg.ExecutableName = executableName
	}
	if flagSet.Changed("socket-directory") {
		cfg.SocketDirectory = socketDirectory
	}
	if flagSet.Changed("retry-attempts") {
		cfg.RetryAttempts = retryAttempts
	}
	if flagSet.Changed("timeout") {
		cfg.Timeout = timeout.String()
	}
	if flagSet.Changed("no-kill") {
		cfg.KillUnresponsive = !noKill
	}
	if flagSet.Changed("skip-process-check") {
		cfg.SkipProcessCheck = skipProcessCheck
	}
	if flagSet.Changed("metrics-address") {
		cfg.Metrics.ListenAddress = metricsAddress
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	cfg.ExpandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	parsed.config = cfg
	parsed.forwarded = flagSet.Args()
	return &parsed, nil
}

// loadConfig reads the --config file, else the file named by the
// environment, else the defaults.
func loadConfig(path string) (*config.Config, error) {
	switch {
	case path != "":
		return config.LoadFile(path)
	case os.Getenv(config.EnvVar) != "":
		return config.Load()
	default:
		return config.Default(), nil
	}
}

func run(args []string) (int, error) {
	parsed, err := parseOptions(args[1:])
	if err != nil {
		return 0, err
	}
	if parsed.showVersion {
		fmt.Printf("procsingleton %s\n", version.Full())
		return 0, nil
	}
	if parsed.showHelp {
		printHelp(parsed.flagSet)
		return 0, nil
	}
	cfg := parsed.config

	if err := cfg.EnsurePaths(); err != nil {
		return 0, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var shuttingDown atomic.Bool
	s, err := singleton.New(singleton.Config{
		UserDataDir:      cfg.UserDataDir,
		Logger:           logger,
		Recorder:         telemetry.New(registry),
		Prompt:           newTerminalPrompt(os.Stdin, os.Stderr),
		ExecutableName:   cfg.ExecutableName,
		SkipProcessCheck: cfg.SkipProcessCheck,
		SocketDirectory:  cfg.SocketDirectory,
		OnNotification: func(_ context.Context, notification singleton.Notification) bool {
			if shuttingDown.Load() {
				return false
			}
			logger.Info("command line forwarded",
				"argv", notification.CommandLine,
				"current_dir", notification.CurrentDir,
			)
			return true
		},
	})
	if err != nil {
		return 0, err
	}

	argv := append([]string{args[0]}, parsed.forwarded...)
	result := notifyOrCreate(ctx, s, argv, cfg)
	switch result {
	case singleton.ProcessNotified:
		logger.Info("command line delivered to profile owner", "user_data_dir", cfg.UserDataDir)
		return 0, nil
	case singleton.ProfileInUse, singleton.LockError:
		logger.Error("profile is not available",
			"user_data_dir", cfg.UserDataDir,
			"result", result.String(),
		)
		return process.ExitCode(result), nil
	}

	defer s.Cleanup()
	logger.Info("profile owner started",
		"user_data_dir", cfg.UserDataDir,
		"pid", os.Getpid(),
		"version", version.Info(),
	)

	if cfg.Metrics.ListenAddress != "" {
		server := startMetricsServer(cfg.Metrics.ListenAddress, registry, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	if err := s.StartWatching(ctx); err != nil {
		return 0, fmt.Errorf("starting singleton watcher: %w", err)
	}

	<-ctx.Done()
	shuttingDown.Store(true)
	logger.Info("shutting down")
	s.Cleanup()
	s.Wait()
	return 0, nil
}

// notifyOrCreate forwards argv to the owner or makes this process the
// owner, honoring kill_unresponsive.
func notifyOrCreate(ctx context.Context, s *singleton.Singleton, argv []string, cfg *config.Config) singleton.NotifyResult {
	if cfg.KillUnresponsive {
		return s.NotifyOtherProcessWithTimeoutOrCreate(ctx, argv, cfg.RetryAttempts, cfg.NotifyTimeout())
	}

	result := s.NotifyOtherProcessWithTimeout(ctx, argv, cfg.RetryAttempts, cfg.NotifyTimeout(), false)
	if result != singleton.ProcessNone {
		return result
	}
	if err := s.Create(); err != nil {
		slog.Error("creating singleton failed", "error", err)
		return singleton.LockError
	}
	return singleton.ProcessNone
}

func startMetricsServer(address string, registry *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "address", address, "error", err)
		}
	}()
	logger.Info("serving metrics", "address", address)
	return server
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `procsingleton: single-instance guard for a profile directory.

The first invocation for a profile becomes its owner and logs every
command line forwarded to it. Later invocations hand their arguments
to the owner and exit.

Usage:
  procsingleton [flags] [-- args...]

Examples:
  # Become the owner of the default profile
  procsingleton

  # Forward a command line to the running owner
  procsingleton --user-data-dir ~/profiles/work -- --new-window https://example.com

Exit status:
  0   command line delivered, or owner shut down cleanly
  21  profile in use by another process
  22  profile could be neither notified nor locked

Flags:
`)
	flagSet.PrintDefaults()
}
