// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

import "time"

// Recorder receives the telemetry signals of the notify and listen
// paths. Implementations must be safe for concurrent use; the
// listener reports from its connection goroutines.
type Recorder interface {
	// RemoteProcessInteraction records a decision about another
	// process or its lock.
	RemoteProcessInteraction(result InteractionResult)

	// HungProcessTerminated records why an owner was killed.
	HungProcessTerminated(reason TerminateReason)

	// TerminateErrorCode records the errno of kill(2), 0 on success.
	TerminateErrorCode(code int)

	// NotifyDuration records how long a notify-or-create call took.
	NotifyDuration(timing Timing, elapsed time.Duration)

	// ReaderFinished records the final state of an accepted
	// connection.
	ReaderFinished(state ReaderState)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RemoteProcessInteraction(InteractionResult) {}
func (NopRecorder) HungProcessTerminated(TerminateReason)      {}
func (NopRecorder) TerminateErrorCode(int)                     {}
func (NopRecorder) NotifyDuration(Timing, time.Duration)       {}
func (NopRecorder) ReaderFinished(ReaderState)                 {}
