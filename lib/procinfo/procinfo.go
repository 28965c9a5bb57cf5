// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procinfo

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned on platforms without an inspector.
	ErrUnsupported = errors.New("process inspection not supported on this platform")

	// ErrNoProcess is returned when pid does not name a live process.
	ErrNoProcess = errors.New("no such process")
)

// Inspector looks up facts about running processes.
type Inspector interface {
	// ExecutablePath returns the absolute path of the executable that
	// pid is running.
	ExecutablePath(pid int) (string, error)

	// ParentPID returns the parent of pid.
	ParentPID(pid int) (int, error)
}

// System returns the Inspector for the running operating system.
func System() Inspector { return systemInspector{} }

type systemInspector struct{}

func (systemInspector) ExecutablePath(pid int) (string, error) {
	if pid <= 0 {
		return "", fmt.Errorf("pid %d: %w", pid, ErrNoProcess)
	}
	return executablePath(pid)
}

func (systemInspector) ParentPID(pid int) (int, error) {
	if pid <= 0 {
		return 0, fmt.Errorf("pid %d: %w", pid, ErrNoProcess)
	}
	return parentPID(pid)
}
