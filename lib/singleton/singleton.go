// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bureau-foundation/procsingleton/lib/clock"
	"github.com/bureau-foundation/procsingleton/lib/procinfo"
)

const (
	// DefaultTimeout bounds the whole notify attempt and each reader's
	// wait for data.
	DefaultTimeout = 20 * time.Second

	// DefaultRetryAttempts is how many times the connector retries a
	// socket that does not accept.
	DefaultRetryAttempts = 20
)

var (
	// ErrLockHeld is returned by Create when another process created the
	// lock first.
	ErrLockHeld = errors.New("singleton lock is held by another process")

	// ErrSocketPathTooLong is returned by Create when the socket path
	// would not fit in a sockaddr_un.
	ErrSocketPathTooLong = errors.New("socket path too long")

	// ErrNotCreated is returned by StartWatching before a successful
	// Create.
	ErrNotCreated = errors.New("singleton not created")

	// ErrAlreadyCreated is returned by Create on a Singleton that already
	// owns the profile.
	ErrAlreadyCreated = errors.New("singleton already created")

	// ErrAlreadyWatching is returned by a second StartWatching call.
	ErrAlreadyWatching = errors.New("singleton already watching")
)

// Notification is a command line forwarded by another process.
type Notification struct {
	CommandLine []string
	CurrentDir  string
}

// NotificationFunc handles a forwarded command line on the owner. It
// runs on a single dispatch goroutine, one notification at a time.
// Returning true replies ACK; false replies SHUTDOWN, telling the
// sender that this process is going away and it should take over the
// profile itself.
type NotificationFunc func(ctx context.Context, notification Notification) bool

// Config holds the parameters for New. UserDataDir is required; every
// other field has a default.
type Config struct {
	// UserDataDir is the profile directory holding the lock, socket and
	// cookie symlinks.
	UserDataDir string

	// OnNotification handles forwarded command lines. Required by
	// StartWatching.
	OnNotification NotificationFunc

	Logger    *slog.Logger
	Clock     clock.Clock
	Inspector procinfo.Inspector
	Recorder  Recorder

	// Prompt decides whether to take over a profile locked by another
	// host. Nil declines.
	Prompt ProfileInUsePrompt

	// Kill terminates an unresponsive owner. The default sends SIGKILL
	// and records the outcome.
	Kill func(pid int)

	// CurrentPID defaults to os.Getpid().
	CurrentPID int

	// Hostname defaults to os.Hostname().
	Hostname string

	// ExecutableName is the basename a process's executable must have
	// to count as another instance. Defaults to the basename of
	// os.Executable().
	ExecutableName string

	// SkipProcessCheck treats every PID as another instance.
	SkipProcessCheck bool

	// SocketDirectory is where the private socket directory is
	// created. Defaults to os.TempDir().
	SocketDirectory string

	// ReaderTimeout is how long an accepted connection may stay silent.
	// Defaults to DefaultTimeout.
	ReaderTimeout time.Duration
}

// Singleton coordinates ownership of one profile directory.
type Singleton struct {
	userDataDir string
	lockPath    string
	socketPath  string
	cookiePath  string

	logger           *slog.Logger
	clock            clock.Clock
	inspector        procinfo.Inspector
	recorder         Recorder
	prompt           ProfileInUsePrompt
	kill             func(pid int)
	currentPID       int
	hostname         string
	executableName   string
	skipProcessCheck bool
	socketDirectory  string
	readerTimeout    time.Duration
	onNotification   NotificationFunc

	mu        sync.Mutex
	listener  *net.UnixListener
	socketDir string
	cookie    string
	watcher   *watcher

	// retired holds watchers stopped by Cleanup until Wait has seen
	// them exit.
	retired []*watcher
}

// New returns a Singleton for config.UserDataDir. It touches nothing
// on disk.
func New(config Config) (*Singleton, error) {
	if config.UserDataDir == "" {
		return nil, errors.New("singleton: UserDataDir is required")
	}

	s := &Singleton{
		userDataDir:      config.UserDataDir,
		lockPath:         filepath.Join(config.UserDataDir, LockFilename),
		socketPath:       filepath.Join(config.UserDataDir, SocketFilename),
		cookiePath:       filepath.Join(config.UserDataDir, CookieFilename),
		logger:           config.Logger,
		clock:            config.Clock,
		inspector:        config.Inspector,
		recorder:         config.Recorder,
		prompt:           config.Prompt,
		kill:             config.Kill,
		currentPID:       config.CurrentPID,
		hostname:         config.Hostname,
		executableName:   config.ExecutableName,
		skipProcessCheck: config.SkipProcessCheck,
		socketDirectory:  config.SocketDirectory,
		readerTimeout:    config.ReaderTimeout,
		onNotification:   config.OnNotification,
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("user_data_dir", s.userDataDir)
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.inspector == nil {
		s.inspector = procinfo.System()
	}
	if s.recorder == nil {
		s.recorder = NopRecorder{}
	}
	if s.kill == nil {
		s.kill = s.killProcess
	}
	if s.currentPID == 0 {
		s.currentPID = os.Getpid()
	}
	if s.hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("singleton: determining hostname: %w", err)
		}
		s.hostname = hostname
	}
	if s.executableName == "" {
		executable, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("singleton: determining executable name: %w", err)
		}
		s.executableName = filepath.Base(executable)
	}
	if s.socketDirectory == "" {
		s.socketDirectory = os.TempDir()
	}
	if s.readerTimeout <= 0 {
		s.readerTimeout = DefaultTimeout
	}

	return s, nil
}

// LockPath returns the path of the SingletonLock symlink.
func (s *Singleton) LockPath() string { return s.lockPath }

// SocketPath returns the path of the SingletonSocket symlink.
func (s *Singleton) SocketPath() string { return s.socketPath }

// CookiePath returns the path of the SingletonCookie symlink.
func (s *Singleton) CookiePath() string { return s.cookiePath }

// Create makes this process the owner of the profile: it takes the
// lock, publishes the socket and cookie symlinks, and starts
// listening. On failure nothing created here is left behind. Errors
// wrap ErrLockHeld when another process owns the profile.
func (s *Singleton) Create() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return ErrAlreadyCreated
	}

	if err := s.acquireLock(LockTarget(s.hostname, s.currentPID)); err != nil {
		return err
	}

	listener, socketDir, cookie, err := s.publishSocket()
	if err != nil {
		s.unlinkPath(s.lockPath)
		return err
	}

	s.listener = listener
	s.socketDir = socketDir
	s.cookie = cookie
	s.logger.Info("singleton created",
		"lock_path", s.lockPath,
		"socket", filepath.Join(socketDir, SocketFilename),
	)
	return nil
}

// publishSocket creates the private socket directory, the socket and
// cookie symlinks, and the listener. The caller holds the lock.
func (s *Singleton) publishSocket() (listener *net.UnixListener, socketDir, cookie string, err error) {
	socketDir, err = os.MkdirTemp(s.socketDirectory, "procsingleton-")
	if err != nil {
		return nil, "", "", fmt.Errorf("creating socket directory: %w", err)
	}
	defer func() {
		if err != nil {
			s.unlinkPath(s.socketPath)
			s.unlinkPath(s.cookiePath)
			if removeErr := os.RemoveAll(socketDir); removeErr != nil {
				s.logger.Warn("removing socket directory failed", "path", socketDir, "error", removeErr)
			}
		}
	}()

	info, err := os.Stat(socketDir)
	if err != nil {
		return nil, "", "", fmt.Errorf("checking socket directory: %w", err)
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		return nil, "", "", fmt.Errorf("socket directory %s has mode %#o, want 0700", socketDir, perm)
	}

	socketTarget := filepath.Join(socketDir, SocketFilename)
	if err := checkSocketPath(socketTarget); err != nil {
		return nil, "", "", err
	}

	cookie, err = generateCookie()
	if err != nil {
		return nil, "", "", err
	}

	s.unlinkPath(s.socketPath)
	s.unlinkPath(s.cookiePath)
	if err := symlinkPath(socketTarget, s.socketPath); err != nil {
		return nil, "", "", fmt.Errorf("creating socket symlink: %w", err)
	}
	if err := symlinkPath(cookie, s.cookiePath); err != nil {
		return nil, "", "", fmt.Errorf("creating cookie symlink: %w", err)
	}
	if err := symlinkPath(cookie, filepath.Join(socketDir, CookieFilename)); err != nil {
		return nil, "", "", fmt.Errorf("creating remote cookie symlink: %w", err)
	}

	listener, err = net.ListenUnix("unix", &net.UnixAddr{Name: socketTarget, Net: "unix"})
	if err != nil {
		return nil, "", "", fmt.Errorf("listening on %s: %w", socketTarget, err)
	}
	listener.SetUnlinkOnClose(true)
	return listener, socketDir, cookie, nil
}

// Cleanup gives up ownership: it stops the watcher, closes the
// listener, unlinks the symlinks and removes the socket directory.
// Symlinks that no longer point at this process's lock, socket or
// cookie are left alone, so Cleanup on a Singleton that never created
// anything is a no-op. Safe to call more than once and from inside the
// notification callback. Create and StartWatching may be called again
// afterwards.
func (s *Singleton) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		s.watcher.stop()
		s.retired = append(s.retired, s.watcher)
		s.watcher = nil
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("closing singleton listener failed", "error", err)
		}
		s.listener = nil
	}

	if s.socketDir != "" {
		if s.readLink(s.socketPath) == filepath.Join(s.socketDir, SocketFilename) {
			s.unlinkPath(s.socketPath)
		}
		if s.readLink(s.cookiePath) == s.cookie {
			s.unlinkPath(s.cookiePath)
		}
		if err := os.RemoveAll(s.socketDir); err != nil {
			s.logger.Warn("removing socket directory failed", "path", s.socketDir, "error", err)
		}
		if s.readLink(s.lockPath) == LockTarget(s.hostname, s.currentPID) {
			s.unlinkPath(s.lockPath)
		}
		s.logger.Info("singleton cleaned up", "lock_path", s.lockPath)
		s.socketDir = ""
		s.cookie = ""
	}
}
