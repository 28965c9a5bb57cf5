// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// Names of the entries in the profile directory and, for the socket
// and cookie, in the private socket directory.
const (
	LockFilename   = "SingletonLock"
	SocketFilename = "SingletonSocket"
	CookieFilename = "SingletonCookie"
)

// lockDelimiter separates hostname and PID in the lock target.
// Hostnames may contain it, so parsing splits on the last one.
const lockDelimiter = "-"

// Lock is the decoded target of a SingletonLock symlink.
type Lock struct {
	Hostname string
	// PID is -1 when the target has no parsable PID.
	PID int
}

// Valid reports whether the lock names a host. A lock without one is
// garbage and is removed by the connector.
func (l Lock) Valid() bool { return l.Hostname != "" }

// LockTarget returns the symlink target that records hostname and
// pid as the profile owner.
func LockTarget(hostname string, pid int) string {
	return hostname + lockDelimiter + strconv.Itoa(pid)
}

// ParseLockTarget splits a lock target at its last delimiter. ok is
// false when the delimiter is missing (hostname is then empty) or the
// PID does not parse (pid is then -1).
func ParseLockTarget(target string) (hostname string, pid int, ok bool) {
	index := strings.LastIndex(target, lockDelimiter)
	if index < 0 {
		return "", -1, false
	}
	hostname = target[:index]
	pid, err := strconv.Atoi(target[index+len(lockDelimiter):])
	if err != nil {
		return hostname, -1, false
	}
	return hostname, pid, true
}

// ReadLock reads and decodes the lock symlink at path. found is false
// with a nil error when nothing exists at path. A path that exists but
// cannot be read as a symlink yields found=false and the readlink
// error.
func ReadLock(path string) (lock Lock, found bool, err error) {
	target, err := os.Readlink(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Lock{PID: -1}, false, nil
		}
		return Lock{PID: -1}, false, err
	}
	hostname, pid, _ := ParseLockTarget(target)
	return Lock{Hostname: hostname, PID: pid}, true, nil
}

// readLock is ReadLock on the profile lock, logging unexpected errors.
func (s *Singleton) readLock() (Lock, bool) {
	lock, found, err := ReadLock(s.lockPath)
	if err != nil {
		s.logger.Warn("reading singleton lock failed",
			"lock_path", s.lockPath,
			"error", err,
		)
	}
	return lock, found
}

// readLink returns the target of the symlink at path, or "" if it
// cannot be read. Errors other than a missing file are logged.
func (s *Singleton) readLink(path string) string {
	target, err := os.Readlink(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("readlink failed", "path", path, "error", err)
		}
		return ""
	}
	return target
}

// unlinkPath removes path. A missing path counts as success; other
// failures are logged and reported as false.
func (s *Singleton) unlinkPath(path string) bool {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return true
	}
	s.logger.Error("unlink failed", "path", path, "error", err)
	return false
}

// symlinkPath creates a symlink at path pointing to target. On network
// filesystems a retransmitted symlink(2) can report EEXIST for a link
// the first transmission created, so a failure is rechecked by reading
// the link back: a link that already points at target is ours.
func symlinkPath(target, path string) error {
	err := os.Symlink(target, path)
	if err == nil {
		return nil
	}
	if existing, readErr := os.Readlink(path); readErr == nil && existing == target {
		return nil
	}
	return err
}

// acquireLock creates the profile lock pointing at target.
func (s *Singleton) acquireLock(target string) error {
	err := symlinkPath(target, s.lockPath)
	if err == nil {
		return nil
	}

	info, statErr := os.Lstat(s.lockPath)
	if statErr == nil && info.Mode().IsRegular() {
		return s.replaceLegacyLock(target)
	}

	if existing, readErr := os.Readlink(s.lockPath); readErr == nil {
		return fmt.Errorf("%w: %s points to %q", ErrLockHeld, s.lockPath, existing)
	}
	return fmt.Errorf("%w: creating %s: %v", ErrLockHeld, s.lockPath, err)
}

// replaceLegacyLock handles a lock left as a regular file by an older
// singleton that used flock(2) instead of a symlink. If no process
// holds the flock any more, the file is replaced by a symlink lock.
func (s *Singleton) replaceLegacyLock(target string) error {
	legacy := flock.New(s.lockPath)
	locked, err := legacy.TryLock()
	if err != nil {
		return fmt.Errorf("%w: locking legacy lock file %s: %v", ErrLockHeld, s.lockPath, err)
	}
	if !locked {
		return fmt.Errorf("%w: legacy lock file %s is held by a running process", ErrLockHeld, s.lockPath)
	}
	defer func() {
		if err := legacy.Unlock(); err != nil {
			s.logger.Warn("releasing legacy lock file failed", "lock_path", s.lockPath, "error", err)
		}
	}()

	s.logger.Info("replacing legacy singleton lock file", "lock_path", s.lockPath)
	if err := os.Remove(s.lockPath); err != nil {
		return fmt.Errorf("removing legacy lock file %s: %w", s.lockPath, err)
	}
	if err := symlinkPath(target, s.lockPath); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrLockHeld, s.lockPath, err)
	}
	return nil
}
