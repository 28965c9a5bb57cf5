// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

// NotifyResult is the outcome of trying to reach the profile owner.
type NotifyResult int

const (
	// ProcessNone means no other process handled the request; the
	// caller should become (or already is) the owner.
	ProcessNone NotifyResult = iota
	// ProcessNotified means the owner received the command line.
	ProcessNotified
	// ProfileInUse means another process holds the profile and the
	// caller must give up.
	ProfileInUse
	// LockError means neither notifying nor creating the lock worked.
	LockError
)

func (r NotifyResult) String() string {
	switch r {
	case ProcessNone:
		return "PROCESS_NONE"
	case ProcessNotified:
		return "PROCESS_NOTIFIED"
	case ProfileInUse:
		return "PROFILE_IN_USE"
	case LockError:
		return "LOCK_ERROR"
	default:
		return "UNKNOWN"
	}
}

// InteractionResult names a decision taken about another process or
// its lock.
type InteractionResult int

const (
	TerminateSucceeded InteractionResult = iota
	TerminateFailed
	RemoteProcessNotFound
	TerminateNotEnoughPermissions
	RemoteProcessShuttingDown
	ProfileUnlocked
	ProfileUnlockedBeforeKill
	SameBrowserInstance
	SameBrowserInstanceBeforeKill
	FailedToExtractPID
	InvalidLockFile
	OrphanedLockFile
)

var interactionResultNames = [...]string{
	TerminateSucceeded:            "terminate_succeeded",
	TerminateFailed:               "terminate_failed",
	RemoteProcessNotFound:         "remote_process_not_found",
	TerminateNotEnoughPermissions: "terminate_not_enough_permissions",
	RemoteProcessShuttingDown:     "remote_process_shutting_down",
	ProfileUnlocked:               "profile_unlocked",
	ProfileUnlockedBeforeKill:     "profile_unlocked_before_kill",
	SameBrowserInstance:           "same_browser_instance",
	SameBrowserInstanceBeforeKill: "same_browser_instance_before_kill",
	FailedToExtractPID:            "failed_to_extract_pid",
	InvalidLockFile:               "invalid_lock_file",
	OrphanedLockFile:              "orphaned_lock_file",
}

func (r InteractionResult) String() string {
	if r < 0 || int(r) >= len(interactionResultNames) {
		return "unknown"
	}
	return interactionResultNames[r]
}

// TerminateReason records why an unresponsive owner was killed.
type TerminateReason int

const (
	NotifyAttemptsExceeded TerminateReason = iota
	SocketWriteFailed
	SocketReadFailed
)

func (r TerminateReason) String() string {
	switch r {
	case NotifyAttemptsExceeded:
		return "notify_attempts_exceeded"
	case SocketWriteFailed:
		return "socket_write_failed"
	case SocketReadFailed:
		return "socket_read_failed"
	default:
		return "unknown"
	}
}

// Timing labels the elapsed-time measurements of
// NotifyOtherProcessWithTimeoutOrCreate.
type Timing string

const (
	TimeToNotify  Timing = "notify"
	TimeToFailure Timing = "failure"
	TimeToCreate  Timing = "create"
)

// ReaderState tracks one accepted connection on the owner side.
type ReaderState int

const (
	// ReaderWaitingForData is the state from accept until a complete
	// message arrives or the inactivity timer fires.
	ReaderWaitingForData ReaderState = iota
	// ReaderGotMessage means the message was parsed and handed to the
	// notification callback.
	ReaderGotMessage
	// ReaderAckSent means the reply was written and the connection
	// closed.
	ReaderAckSent
	// ReaderTimedOut means the inactivity timer closed the connection.
	ReaderTimedOut
	// ReaderRejected means the peer sent a malformed message or the
	// read failed.
	ReaderRejected
	// ReaderClosed means the watcher stopped while the connection was
	// open.
	ReaderClosed
)

func (s ReaderState) String() string {
	switch s {
	case ReaderWaitingForData:
		return "waiting_for_data"
	case ReaderGotMessage:
		return "got_message"
	case ReaderAckSent:
		return "ack_sent"
	case ReaderTimedOut:
		return "timed_out"
	case ReaderRejected:
		return "rejected"
	case ReaderClosed:
		return "closed"
	default:
		return "unknown"
	}
}
