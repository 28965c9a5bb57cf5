// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

import (
	"context"
	"testing"
	"time"

	"github.com/bureau-foundation/procsingleton/lib/procinfo"
)

func TestIsSameInstanceForCurrentProcess(t *testing.T) {
	env := newTestEnv(t)
	config := env.config(4321)
	config.Inspector = &fakeInspector{processes: map[int]fakeProcess{}}
	s := env.newSingleton(config)

	if !s.IsSameInstance(4321) {
		t.Error("IsSameInstance(current PID) = false")
	}
}

func TestIsSameInstanceWalksParents(t *testing.T) {
	env := newTestEnv(t)
	browser := "/opt/browser/" + testExecutable
	env.inspector.set(3000, browser, clientPID)
	env.inspector.set(3001, browser, 3000)
	env.inspector.set(3100, "/bin/sh", clientPID)
	env.inspector.set(3101, browser, 3100)
	env.inspector.set(3200, browser, 3201)
	env.inspector.set(3201, browser, 3200)
	s := env.newSingleton(env.config(clientPID))

	tests := []struct {
		pid  int
		want bool
	}{
		{3000, true},
		{3001, true},
		{3101, false},
		{ownerPID, false},
		{3200, false},
		{9999, false},
		{0, false},
		{-1, false},
	}
	for _, test := range tests {
		if got := s.IsSameInstance(test.pid); got != test.want {
			t.Errorf("IsSameInstance(%d) = %v, want %v", test.pid, got, test.want)
		}
	}
}

func TestIsBrowserProcess(t *testing.T) {
	env := newTestEnv(t)
	env.inspector.set(3000, "/usr/lib/other/"+testExecutable, 1)
	env.inspector.set(3001, "/opt/browser/"+testExecutable+"-helper", 1)
	env.inspector.set(3002, "", 1)
	s := env.newSingleton(env.config(clientPID))

	tests := []struct {
		pid  int
		want bool
	}{
		{ownerPID, true},
		{3000, true},
		{3001, false},
		{3002, false},
		{9999, false},
		{0, false},
	}
	for _, test := range tests {
		if got := s.IsBrowserProcess(test.pid); got != test.want {
			t.Errorf("IsBrowserProcess(%d) = %v, want %v", test.pid, got, test.want)
		}
	}
}

func TestSkipProcessCheck(t *testing.T) {
	env := newTestEnv(t)
	config := env.config(clientPID)
	config.SkipProcessCheck = true
	s := env.newSingleton(config)

	if !s.IsBrowserProcess(9999) {
		t.Error("IsBrowserProcess with the check skipped = false")
	}
}

// unsupportedInspector behaves like a platform without process inspection.
type unsupportedInspector struct{}

func (unsupportedInspector) ExecutablePath(int) (string, error) {
	return "", procinfo.ErrUnsupported
}

func (unsupportedInspector) ParentPID(int) (int, error) {
	return 0, procinfo.ErrUnsupported
}

func TestIsBrowserProcessWithoutInspection(t *testing.T) {
	env := newTestEnv(t)
	config := env.config(clientPID)
	config.Inspector = unsupportedInspector{}
	s := env.newSingleton(config)

	if !s.IsBrowserProcess(4245) {
		t.Error("IsBrowserProcess(4245) = false when inspection is unsupported")
	}
	if s.IsBrowserProcess(0) {
		t.Error("IsBrowserProcess(0) = true")
	}
	if s.IsSameInstance(4245) {
		t.Error("IsSameInstance(4245) = true when inspection is unsupported")
	}
	if !s.IsSameInstance(clientPID) {
		t.Error("IsSameInstance(current PID) = false")
	}
}

func TestNotifyKeepsLiveLockWithoutInspection(t *testing.T) {
	env := newTestEnv(t)
	env.writeLock(LockTarget(testHostname, 4245))

	recorder := newRecordingRecorder()
	config := env.config(clientPID)
	config.Inspector = unsupportedInspector{}
	config.Recorder = recorder
	client := env.newSingleton(config)

	result := client.NotifyOtherProcessWithTimeout(context.Background(), []string{"browser"}, 0, time.Second, false)
	if result != ProfileInUse {
		t.Fatalf("result = %v, want PROFILE_IN_USE", result)
	}
	if !env.lockExists() {
		t.Error("lock of an uninspectable owner was removed")
	}
	for _, interaction := range recorder.Interactions() {
		if interaction == OrphanedLockFile {
			t.Errorf("interactions = %v, lock treated as orphaned", recorder.Interactions())
		}
	}
}
