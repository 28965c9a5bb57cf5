// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/procsingleton/lib/clock"
	"github.com/bureau-foundation/procsingleton/lib/procinfo"
	"github.com/bureau-foundation/procsingleton/lib/testutil"
)

const (
	testHostname   = "testhost"
	testExecutable = "browser"
	ownerPID       = 1000
	clientPID      = 2000
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeProcess is one entry in a fakeInspector process table.
type fakeProcess struct {
	executable string
	parent     int
}

// fakeInspector answers from a fixed process table. Unknown PIDs
// report procinfo.ErrNoProcess.
type fakeInspector struct {
	mu        sync.Mutex
	processes map[int]fakeProcess
}

func newFakeInspector() *fakeInspector {
	return &fakeInspector{processes: map[int]fakeProcess{
		ownerPID:  {executable: "/opt/browser/" + testExecutable, parent: 1},
		clientPID: {executable: "/opt/browser/" + testExecutable, parent: 1},
	}}
}

func (f *fakeInspector) set(pid int, executable string, parent int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processes[pid] = fakeProcess{executable: executable, parent: parent}
}

func (f *fakeInspector) ExecutablePath(pid int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	process, ok := f.processes[pid]
	if !ok {
		return "", procinfo.ErrNoProcess
	}
	return process.executable, nil
}

func (f *fakeInspector) ParentPID(pid int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	process, ok := f.processes[pid]
	if !ok {
		return 0, procinfo.ErrNoProcess
	}
	return process.parent, nil
}

// recordingRecorder keeps every signal. Reader outcomes are also sent
// on readers so tests can wait for a connection to finish.
type recordingRecorder struct {
	mu           sync.Mutex
	interactions []InteractionResult
	terminations []TerminateReason
	errorCodes   []int
	timings      []Timing

	readers chan ReaderState
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{readers: make(chan ReaderState, 64)}
}

func (r *recordingRecorder) RemoteProcessInteraction(result InteractionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interactions = append(r.interactions, result)
}

func (r *recordingRecorder) HungProcessTerminated(reason TerminateReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminations = append(r.terminations, reason)
}

func (r *recordingRecorder) TerminateErrorCode(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorCodes = append(r.errorCodes, code)
}

func (r *recordingRecorder) NotifyDuration(timing Timing, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timings = append(r.timings, timing)
}

func (r *recordingRecorder) ReaderFinished(state ReaderState) {
	r.readers <- state
}

func (r *recordingRecorder) Interactions() []InteractionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]InteractionResult(nil), r.interactions...)
}

func (r *recordingRecorder) Terminations() []TerminateReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TerminateReason(nil), r.terminations...)
}

func (r *recordingRecorder) Timings() []Timing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Timing(nil), r.timings...)
}

// killRecorder stands in for SIGKILL.
type killRecorder struct {
	mu   sync.Mutex
	pids []int
}

func (k *killRecorder) kill(pid int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pids = append(k.pids, pid)
}

func (k *killRecorder) Killed() []int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]int(nil), k.pids...)
}

// testEnv is a profile directory shared by the singletons of one test.
type testEnv struct {
	t          *testing.T
	profileDir string
	socketDir  string
	inspector  *fakeInspector
	clock      *clock.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		t:          t,
		profileDir: testutil.SocketDir(t),
		socketDir:  testutil.SocketDir(t),
		inspector:  newFakeInspector(),
		clock:      clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
}

// config returns a Config for a process with the given PID. Callers
// adjust fields before passing it to newSingleton.
func (e *testEnv) config(pid int) Config {
	return Config{
		UserDataDir:     e.profileDir,
		Logger:          testLogger(),
		Clock:           e.clock,
		Inspector:       e.inspector,
		Recorder:        NopRecorder{},
		Kill:            func(int) { e.t.Errorf("unexpected kill") },
		CurrentPID:      pid,
		Hostname:        testHostname,
		ExecutableName:  testExecutable,
		SocketDirectory: e.socketDir,
	}
}

func (e *testEnv) newSingleton(config Config) *Singleton {
	e.t.Helper()
	s, err := New(config)
	if err != nil {
		e.t.Fatalf("New: %v", err)
	}
	e.t.Cleanup(s.Cleanup)
	return s
}

// writeLock plants a lock symlink with the given target.
func (e *testEnv) writeLock(target string) {
	e.t.Helper()
	if err := os.Symlink(target, e.lockPath()); err != nil {
		e.t.Fatalf("planting lock: %v", err)
	}
}

func (e *testEnv) lockPath() string { return e.profileDir + "/" + LockFilename }

func (e *testEnv) lockExists() bool {
	_, err := os.Lstat(e.lockPath())
	return err == nil
}

// startOwner creates and starts watching an owner whose callback
// forwards notifications and answers handled.
func (e *testEnv) startOwner(ctx context.Context, handled bool, recorder Recorder) (*Singleton, <-chan Notification) {
	e.t.Helper()
	notifications := make(chan Notification, 8)
	config := e.config(ownerPID)
	config.Recorder = recorder
	config.OnNotification = func(_ context.Context, notification Notification) bool {
		notifications <- notification
		return handled
	}
	owner := e.newSingleton(config)
	if err := owner.Create(); err != nil {
		e.t.Fatalf("Create: %v", err)
	}
	if err := owner.StartWatching(ctx); err != nil {
		e.t.Fatalf("StartWatching: %v", err)
	}
	return owner, notifications
}

func equalInteractions(got []InteractionResult, want ...InteractionResult) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
