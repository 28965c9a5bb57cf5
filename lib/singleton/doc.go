// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package singleton makes sure only one process at a time owns a
// profile directory, and forwards the command line of any later
// process to that owner.
//
// # Files
//
// Three symlinks live in the profile directory:
//
//   - SingletonLock points at "<hostname>-<pid>" of the owner. The
//     target does not exist; the link is only a carrier for the string.
//   - SingletonSocket points at the owner's Unix socket, which lives in
//     a private (0700) temporary directory because many network
//     filesystems cannot hold sockets.
//   - SingletonCookie points at a random decimal string. The same
//     cookie is linked next to the socket in the temporary directory,
//     binding that directory to this profile. A connecting process
//     checks the cookie before and after connect(2); since /tmp is
//     sticky, a match on both sides means the socket belonged to the
//     profile owner at the time of the connection.
//
// # Flow
//
// A starting process calls [Singleton.NotifyOtherProcessOrCreate]. If
// an owner answers, the command line is delivered and the caller gets
// [ProcessNotified] and should exit. If nobody owns the profile, the
// caller becomes the owner ([ProcessNone]), calls
// [Singleton.StartWatching], and later [Singleton.Cleanup].
//
// When the socket does not answer, the lock decides what happens: a
// lock from another host asks the [ProfileInUsePrompt]; a lock naming
// a dead or foreign process is removed; a live owner that keeps not
// answering is killed with SIGKILL once the retries run out.
//
// Every outcome is a [NotifyResult]. Nothing in the notify path
// returns an error: I/O failures are logged and folded into a result,
// and every decision is reported to the [Recorder].
//
// The package targets POSIX systems.
package singleton
