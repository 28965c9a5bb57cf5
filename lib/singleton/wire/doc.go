// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire encodes and decodes the two messages exchanged over the
// singleton socket.
//
// The connecting process sends one startup message and half-closes:
//
//	START \0 <current dir> \0 <argv[0]> \0 ... \0 <argv[n]>
//
// The owner answers with a single token, [ACK] when it handled the
// request or [Shutdown] when it is exiting and the new process should
// carry on alone. Both sides use plain ASCII framing with NUL
// separators; there is no length prefix because the write side is
// half-closed once the message is sent.
package wire
