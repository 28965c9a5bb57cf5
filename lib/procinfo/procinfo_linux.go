// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procinfo

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// procRoot is overridden in tests to point at a fabricated /proc.
var procRoot = "/proc"

// deletedSuffix is appended by the kernel to /proc/<pid>/exe when the
// binary was replaced or removed after the process started.
const deletedSuffix = " (deleted)"

func executablePath(pid int) (string, error) {
	target, err := os.Readlink(fmt.Sprintf("%s/%d/exe", procRoot, pid))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("pid %d: %w", pid, ErrNoProcess)
		}
		return "", fmt.Errorf("reading executable of pid %d: %w", pid, err)
	}
	return strings.TrimSuffix(target, deletedSuffix), nil
}

func parentPID(pid int) (int, error) {
	data, err := os.ReadFile(fmt.Sprintf("%s/%d/stat", procRoot, pid))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("pid %d: %w", pid, ErrNoProcess)
		}
		return 0, fmt.Errorf("reading stat of pid %d: %w", pid, err)
	}
	return parseStatParent(string(data))
}

// parseStatParent extracts field 4 (ppid) from a /proc/<pid>/stat
// line. The command name in field 2 is parenthesized and may itself
// contain spaces or parentheses, so parsing starts after the last ')'.
func parseStatParent(stat string) (int, error) {
	closing := strings.LastIndexByte(stat, ')')
	if closing < 0 {
		return 0, fmt.Errorf("malformed stat line %q", stat)
	}
	fields := strings.Fields(stat[closing+1:])
	if len(fields) < 2 {
		return 0, fmt.Errorf("malformed stat line %q", stat)
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("parsing ppid %q: %w", fields[1], err)
	}
	return ppid, nil
}
