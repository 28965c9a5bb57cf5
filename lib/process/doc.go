// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for procsingleton
// binaries. It centralizes the raw I/O and exit paths that exist
// before or after the structured logger:
//
//   - Fatal error reporting to stderr when the logger may not be
//     initialized (pre-logger).
//   - Mapping a singleton.NotifyResult to the process exit status, so
//     scripts that launch a second instance can tell a delivered
//     command line from a profile held elsewhere.
package process
