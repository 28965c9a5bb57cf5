// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides helpers shared by the singleton test
// suites.
//
// [SocketDir] returns a short directory under /tmp. Unix socket paths
// are limited to 108 bytes (104 on macOS), and t.TempDir() paths are
// often long enough to push a socket path over that limit. Profile
// directories in the singleton tests also hold a symlink to a socket,
// so they are created with SocketDir too.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// guard that keeps a broken test from hanging forever. They are the
// only place the test suites wait on wall-clock time.
package testutil
