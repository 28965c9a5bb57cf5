// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Procsingleton guards a profile directory so that only one instance
// of a program uses it at a time.
//
// The first invocation for a profile becomes its owner: it takes the
// SingletonLock, listens on the SingletonSocket, and logs every
// command line later invocations forward to it until SIGINT or
// SIGTERM. Later invocations deliver their arguments (everything after
// "--") to the owner and exit 0. An owner that does not answer is
// killed and replaced.
//
// Exit status 21 means the profile is held by another process, usually
// on another host sharing the directory over a network filesystem,
// and the user declined to unlock it. Exit status 22 means the profile
// could be neither notified nor locked.
//
// With metrics.listen_address configured, the owner serves Prometheus
// metrics at /metrics.
package main
