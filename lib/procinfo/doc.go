// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package procinfo answers the two questions the singleton asks about
// another process: which executable is it running, and who is its
// parent.
//
// [System] reads them from the operating system: /proc on Linux and
// the kern.procargs2 / kern.proc.pid sysctls on macOS. Other platforms
// return [ErrUnsupported]. Tests substitute their own [Inspector] to
// describe an arbitrary process tree.
package procinfo
