// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for procsingleton
// binaries.
//
// Three package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//
// [Version] is set manually for releases. The injected values default
// to "unknown" during development builds and test runs.
//
//	go build -ldflags "-X github.com/bureau-foundation/procsingleton/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
