// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procinfo

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

func executablePath(pid int) (string, error) {
	// kern.procargs2 starts with a 4-byte argc followed by the
	// NUL-terminated executable path.
	data, err := unix.SysctlRaw("kern.procargs2", pid)
	if err != nil {
		if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ESRCH) {
			return "", fmt.Errorf("pid %d: %w", pid, ErrNoProcess)
		}
		return "", fmt.Errorf("kern.procargs2 for pid %d: %w", pid, err)
	}
	if len(data) < 5 {
		return "", fmt.Errorf("kern.procargs2 for pid %d: short buffer", pid)
	}
	path := data[4:]
	if end := bytes.IndexByte(path, 0); end >= 0 {
		path = path[:end]
	}
	return string(path), nil
}

func parentPID(pid int) (int, error) {
	info, err := unix.SysctlKinfoProc("kern.proc.pid", pid)
	if err != nil {
		return 0, fmt.Errorf("kern.proc.pid for pid %d: %w", pid, err)
	}
	if int(info.Proc.P_pid) != pid {
		return 0, fmt.Errorf("pid %d: %w", pid, ErrNoProcess)
	}
	return int(info.Eproc.Ppid), nil
}
