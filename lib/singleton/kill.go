// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

import (
	"context"
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// killProcessByLockPath removes the lock and kills the process it
// names. It returns false only when the lock belongs to another host
// and the prompt declined to break it; in every other case the caller
// may take over the profile. isConnected is true when the owner
// accepted a connection, which proves it runs on this host whatever
// the lock says.
func (s *Singleton) killProcessByLockPath(ctx context.Context, isConnected bool) bool {
	lock, _ := s.readLock()

	if lock.Hostname != "" && lock.Hostname != s.hostname && !isConnected {
		if s.confirmUnlock(ctx, lock) {
			s.unlinkPath(s.lockPath)
			s.recorder.RemoteProcessInteraction(ProfileUnlockedBeforeKill)
			return true
		}
		return false
	}

	s.unlinkPath(s.lockPath)

	if s.IsSameInstance(lock.PID) {
		s.recorder.RemoteProcessInteraction(SameBrowserInstanceBeforeKill)
		return true
	}

	if lock.PID > 0 {
		s.logger.Warn("killing unresponsive profile owner", "pid", lock.PID)
		s.kill(lock.PID)
		return true
	}

	s.recorder.RemoteProcessInteraction(FailedToExtractPID)
	s.logger.Error("singleton lock has no usable PID", "lock_path", s.lockPath)
	return true
}

// killProcess sends SIGKILL to pid and records the outcome. A process
// that is already gone counts as killed.
func (s *Singleton) killProcess(pid int) {
	err := unix.Kill(pid, unix.SIGKILL)

	var errno syscall.Errno
	if errors.As(err, &errno) {
		s.recorder.TerminateErrorCode(int(errno))
	} else {
		s.recorder.TerminateErrorCode(0)
	}

	switch {
	case err == nil:
		s.recorder.RemoteProcessInteraction(TerminateSucceeded)
	case errors.Is(err, unix.ESRCH):
		s.recorder.RemoteProcessInteraction(RemoteProcessNotFound)
	case errors.Is(err, unix.EPERM):
		s.logger.Error("not permitted to kill profile owner", "pid", pid, "error", err)
		s.recorder.RemoteProcessInteraction(TerminateNotEnoughPermissions)
	default:
		s.logger.Error("killing profile owner failed", "pid", pid, "error", err)
		s.recorder.RemoteProcessInteraction(TerminateFailed)
	}
}

// confirmUnlock logs that another host seems to own the profile and
// asks the prompt whether to take it anyway.
func (s *Singleton) confirmUnlock(ctx context.Context, lock Lock) bool {
	s.logger.Error("profile appears to be in use by a process on another computer",
		"lock_path", s.lockPath,
		"hostname", lock.Hostname,
		"pid", lock.PID,
	)
	if s.prompt == nil {
		return false
	}
	return s.prompt.ConfirmUnlock(ctx, LockOwner{
		LockPath: s.lockPath,
		Hostname: lock.Hostname,
		PID:      lock.PID,
	})
}
