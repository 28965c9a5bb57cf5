// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

import (
	"errors"
	"path/filepath"

	"github.com/bureau-foundation/procsingleton/lib/procinfo"
)

// maxAncestorDepth bounds the parent walk in IsSameInstance.
const maxAncestorDepth = 1024

// IsBrowserProcess reports whether pid runs the same executable as
// this process, judged by the basename of its executable path. On
// platforms where processes cannot be inspected every positive pid
// counts as a browser, so a live owner's lock is never taken for an
// orphan.
func (s *Singleton) IsBrowserProcess(pid int) bool {
	if s.skipProcessCheck {
		return true
	}
	if pid <= 0 {
		return false
	}
	path, err := s.inspector.ExecutablePath(pid)
	if errors.Is(err, procinfo.ErrUnsupported) {
		return true
	}
	if err != nil || path == "" {
		return false
	}
	return filepath.Base(path) == s.executableName
}

// IsSameInstance reports whether pid is this process or one of its
// descendants, with every process on the way up running the same
// executable.
func (s *Singleton) IsSameInstance(pid int) bool {
	for depth := 0; pid != s.currentPID; depth++ {
		if pid <= 0 || depth >= maxAncestorDepth {
			return false
		}
		parent, err := s.inspector.ParentPID(pid)
		if err != nil || parent <= 0 {
			return false
		}
		pid = parent
		if !s.IsBrowserProcess(pid) {
			return false
		}
	}
	return true
}
