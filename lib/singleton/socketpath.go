// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// maxSocketPathLength is the longest path that fits in sun_path with
// its terminating NUL.
var maxSocketPathLength = len(unix.RawSockaddrUnix{}.Path) - 1

func checkSocketPath(path string) error {
	if len(path) > maxSocketPathLength {
		return fmt.Errorf("%w: %d bytes (limit %d): %s", ErrSocketPathTooLong, len(path), maxSocketPathLength, path)
	}
	return nil
}
