// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/procsingleton/lib/singleton"
)

// Exit codes for a process that did not become the profile owner.
const (
	// ExitProfileInUse reports that another process, possibly on
	// another host, holds the profile.
	ExitProfileInUse = 21

	// ExitLockError reports that the profile could be neither notified
	// nor locked.
	ExitLockError = 22
)

// Fatal writes "error: err" to stderr and exits with code 1. Use it in
// main() for errors from run() where the structured logger may not be
// initialized.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// ExitCode returns the exit status for a process that stops after a
// notify attempt. ProcessNone is not an exit condition (the process
// owns the profile) and maps to 0 like ProcessNotified.
func ExitCode(result singleton.NotifyResult) int {
	switch result {
	case singleton.ProfileInUse:
		return ExitProfileInUse
	case singleton.LockError:
		return ExitLockError
	default:
		return 0
	}
}
