// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

import "context"

// LockOwner describes a lock held by a process on another host.
type LockOwner struct {
	LockPath string
	Hostname string
	PID      int
}

// ProfileInUsePrompt asks the user whether to take over a profile that
// another host appears to be using. It is only consulted for locks
// from a different hostname, typically a profile on a shared network
// filesystem.
type ProfileInUsePrompt interface {
	// ConfirmUnlock returns true if the user chose to remove the other
	// host's lock and continue.
	ConfirmUnlock(ctx context.Context, owner LockOwner) bool
}

// PromptFunc adapts a function to ProfileInUsePrompt.
type PromptFunc func(ctx context.Context, owner LockOwner) bool

// ConfirmUnlock calls f.
func (f PromptFunc) ConfirmUnlock(ctx context.Context, owner LockOwner) bool {
	return f(ctx, owner)
}
