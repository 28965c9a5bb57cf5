// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"testing"

	"github.com/bureau-foundation/procsingleton/lib/singleton"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		result singleton.NotifyResult
		want   int
	}{
		{singleton.ProcessNone, 0},
		{singleton.ProcessNotified, 0},
		{singleton.ProfileInUse, ExitProfileInUse},
		{singleton.LockError, ExitLockError},
	}
	for _, test := range tests {
		if got := ExitCode(test.result); got != test.want {
			t.Errorf("ExitCode(%v) = %d, want %d", test.result, got, test.want)
		}
	}
}
