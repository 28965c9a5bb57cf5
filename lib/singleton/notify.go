// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/procsingleton/lib/netutil"
	"github.com/bureau-foundation/procsingleton/lib/singleton/wire"
)

// NotifyOtherProcess forwards this process's command line to the
// profile owner with the default retry count and timeout, killing an
// owner that does not answer.
func (s *Singleton) NotifyOtherProcess(ctx context.Context) NotifyResult {
	return s.NotifyOtherProcessWithTimeout(ctx, os.Args, DefaultRetryAttempts, DefaultTimeout, true)
}

// NotifyOtherProcessWithTimeout forwards argv to the profile owner.
//
// Connecting is retried retryAttempts times, timeout/retryAttempts
// apart. Between attempts the lock is inspected: a missing, invalid,
// orphaned or self-owned lock means nobody else owns the profile and
// the result is ProcessNone. A lock held by another host is only
// broken if the prompt agrees. When the last attempt fails and
// killUnresponsive is set, the owner is killed and the result is
// ProcessNone.
func (s *Singleton) NotifyOtherProcessWithTimeout(ctx context.Context, argv []string, retryAttempts int, timeout time.Duration, killUnresponsive bool) NotifyResult {
	if retryAttempts < 0 {
		s.logger.Warn("negative retry attempts, using zero", "retry_attempts", retryAttempts)
		retryAttempts = 0
	}
	if timeout < 0 {
		s.logger.Warn("negative notify timeout, using zero", "timeout", timeout)
		timeout = 0
	}
	var sleepInterval time.Duration
	if retryAttempts > 0 {
		sleepInterval = timeout / time.Duration(retryAttempts)
	}

	var conn *net.UnixConn
	for retries := 0; retries <= retryAttempts; retries++ {
		if connected, ok := s.connectSocket(ctx, timeout); ok {
			conn = connected
			break
		}

		lock, found := s.readLock()
		if !found {
			// No owner and no lock: the caller can take the profile.
			return ProcessNone
		}

		if !lock.Valid() {
			s.logger.Warn("removing invalid singleton lock", "lock_path", s.lockPath)
			s.unlinkPath(s.lockPath)
			s.recorder.RemoteProcessInteraction(InvalidLockFile)
			return ProcessNone
		}

		if lock.Hostname != s.hostname && !s.IsBrowserProcess(lock.PID) {
			if s.confirmUnlock(ctx, lock) {
				s.unlinkPath(s.lockPath)
				s.recorder.RemoteProcessInteraction(ProfileUnlocked)
				return ProcessNone
			}
			return ProfileInUse
		}

		if !s.IsBrowserProcess(lock.PID) {
			s.logger.Info("removing orphaned singleton lock",
				"lock_path", s.lockPath,
				"pid", lock.PID,
				"hostname", lock.Hostname,
			)
			s.unlinkPath(s.lockPath)
			s.recorder.RemoteProcessInteraction(OrphanedLockFile)
			return ProcessNone
		}

		if s.IsSameInstance(lock.PID) {
			// The lock names this process or one of its children, as after
			// a relaunch that reused the profile.
			s.unlinkPath(s.lockPath)
			s.recorder.RemoteProcessInteraction(SameBrowserInstance)
			return ProcessNone
		}

		if retries == retryAttempts {
			s.logger.Warn("profile owner did not accept connections",
				"pid", lock.PID,
				"retry_attempts", retryAttempts,
			)
			if !killUnresponsive || !s.killProcessByLockPath(ctx, false) {
				return ProfileInUse
			}
			s.recorder.HungProcessTerminated(NotifyAttemptsExceeded)
			return ProcessNone
		}

		select {
		case <-ctx.Done():
			s.logger.Info("notify cancelled while waiting to retry", "error", ctx.Err())
			return ProfileInUse
		case <-s.clock.After(sleepInterval):
		}
	}

	defer conn.Close()
	return s.sendStartup(ctx, conn, argv, timeout)
}

// sendStartup delivers argv on an established connection and
// interprets the reply.
func (s *Singleton) sendStartup(ctx context.Context, conn *net.UnixConn, argv []string, timeout time.Duration) NotifyResult {
	currentDir, err := os.Getwd()
	if err != nil {
		s.logger.Error("reading current directory failed", "error", err)
		return ProcessNone
	}

	message, err := wire.EncodeStartup(currentDir, argv)
	if err != nil {
		s.logger.Error("not forwarding command line", "error", err)
		return ProfileInUse
	}

	if timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			s.logger.Warn("setting write deadline failed", "error", err)
		}
	}
	if _, err := conn.Write(message); err != nil {
		s.logger.Warn("writing startup message failed", "error", err)
		return s.killAfterSocketFailure(ctx, SocketWriteFailed)
	}

	// The half-close tells the owner the message is complete.
	if err := netutil.CloseWrite(conn); err != nil {
		s.logger.Warn("half-closing singleton connection failed", "error", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		s.logger.Warn("setting read deadline failed", "error", err)
	}
	reply := make([]byte, wire.MaxReplyLength)
	count, err := readReply(conn, reply)
	if count == 0 {
		switch {
		case netutil.IsTimeout(err):
			s.logger.Warn("profile owner did not reply in time", "timeout", timeout)
		case err != nil && !netutil.IsExpectedCloseError(err):
			s.logger.Warn("reading reply from profile owner failed", "error", err)
		default:
			s.logger.Warn("profile owner closed the connection without replying")
		}
		return s.killAfterSocketFailure(ctx, SocketReadFailed)
	}

	switch wire.ParseReply(reply[:count]) {
	case wire.ReplyShutdown:
		s.recorder.RemoteProcessInteraction(RemoteProcessShuttingDown)
		return ProcessNone
	case wire.ReplyACK:
		return ProcessNotified
	default:
		s.logger.Warn("unexpected reply from profile owner", "reply", string(reply[:count]))
		return ProcessNotified
	}
}

// killAfterSocketFailure runs the kill path for an owner that accepted
// the connection but failed the exchange.
func (s *Singleton) killAfterSocketFailure(ctx context.Context, reason TerminateReason) NotifyResult {
	if !s.killProcessByLockPath(ctx, true) {
		return ProfileInUse
	}
	s.recorder.HungProcessTerminated(reason)
	return ProcessNone
}

// readReply reads into buffer until it is full, the peer closes, or
// the deadline passes. It returns the byte count and the error that
// ended the read, if any.
func readReply(conn net.Conn, buffer []byte) (int, error) {
	total := 0
	for total < len(buffer) {
		count, err := conn.Read(buffer[total:])
		total += count
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// connectSocket dials the owner's socket after checking that the
// socket directory carries this profile's cookie. The cookie is
// checked again after connecting to rule out a directory swapped in
// between.
func (s *Singleton) connectSocket(ctx context.Context, timeout time.Duration) (*net.UnixConn, bool) {
	target, err := os.Readlink(s.socketPath)
	if err != nil {
		if errors.Is(err, unix.EINVAL) {
			// Not a symlink: a socket created directly in the profile
			// directory by an older version.
			conn, dialErr := dialSocket(ctx, s.socketPath, timeout)
			if dialErr != nil {
				return nil, false
			}
			return conn, true
		}
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("reading socket symlink failed", "path", s.socketPath, "error", err)
		}
		return nil, false
	}

	cookie := s.readLink(s.cookiePath)
	if cookie == "" {
		return nil, false
	}
	remoteCookie := filepath.Join(filepath.Dir(target), CookieFilename)
	if !s.checkCookie(remoteCookie, cookie) {
		return nil, false
	}

	if checkSocketPath(target) != nil {
		s.logger.Warn("socket symlink target too long", "target", target)
		return nil, false
	}
	conn, err := dialSocket(ctx, target, timeout)
	if err != nil {
		return nil, false
	}

	if !s.checkCookie(remoteCookie, cookie) {
		conn.Close()
		return nil, false
	}
	return conn, true
}

func dialSocket(ctx context.Context, path string, timeout time.Duration) (*net.UnixConn, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	return conn.(*net.UnixConn), nil
}

// NotifyOtherProcessOrCreate forwards this process's command line to
// the owner, or makes this process the owner. See
// NotifyOtherProcessWithTimeoutOrCreate.
func (s *Singleton) NotifyOtherProcessOrCreate(ctx context.Context) NotifyResult {
	return s.NotifyOtherProcessWithTimeoutOrCreate(ctx, os.Args, DefaultRetryAttempts, DefaultTimeout)
}

// NotifyOtherProcessWithTimeoutOrCreate tries to notify the owner,
// killing it if it does not answer. If there is no owner it calls
// Create; ProcessNone then means this process owns the profile. If
// another process won the race to Create, that process is notified
// instead (without killing). LockError means neither worked.
func (s *Singleton) NotifyOtherProcessWithTimeoutOrCreate(ctx context.Context, argv []string, retryAttempts int, timeout time.Duration) NotifyResult {
	start := s.clock.Now()

	result := s.NotifyOtherProcessWithTimeout(ctx, argv, retryAttempts, timeout, true)
	if result != ProcessNone {
		s.recordTiming(result, start)
		return result
	}

	err := s.Create()
	if err == nil {
		s.recorder.NotifyDuration(TimeToCreate, s.clock.Now().Sub(start))
		return ProcessNone
	}
	s.logger.Info("create lost to another process, notifying it", "error", err)

	// Another process probably created the lock between our notify and
	// Create. Retry the notify without killing a process that was just
	// starting up.
	result = s.NotifyOtherProcessWithTimeout(ctx, argv, retryAttempts, timeout, false)
	s.recordTiming(result, start)
	if result != ProcessNone {
		return result
	}
	return LockError
}

func (s *Singleton) recordTiming(result NotifyResult, start time.Time) {
	timing := TimeToFailure
	if result == ProcessNotified {
		timing = TimeToNotify
	}
	s.recorder.NotifyDuration(timing, s.clock.Now().Sub(start))
}
