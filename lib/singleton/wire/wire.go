// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	// StartToken opens every startup message.
	StartToken = "START"

	// ACK is the owner's reply after handling a startup message.
	ACK = "ACK"

	// Shutdown is the owner's reply when it is exiting and did not
	// handle the request.
	Shutdown = "SHUTDOWN"

	// Delimiter separates tokens in a startup message.
	Delimiter byte = 0

	// MaxMessageLength bounds a startup message.
	MaxMessageLength = 32 * 1024

	// MaxReplyLength is the longest reply token.
	MaxReplyLength = len(Shutdown)

	// MinMessageLength is the shortest message the listener accepts:
	// the start token, its terminator, and room for a one-byte
	// directory and argv[0] with their separators.
	MinMessageLength = len(StartToken) + 1 + 4
)

var (
	// ErrMalformed is returned by ParseStartup for anything that is not
	// a well-formed startup message.
	ErrMalformed = errors.New("malformed startup message")

	// ErrMessageTooLarge is returned by EncodeStartup when the encoded
	// message would exceed MaxMessageLength.
	ErrMessageTooLarge = errors.New("startup message too large")
)

// Startup is the decoded form of a startup message.
type Startup struct {
	CurrentDir string
	Argv       []string
}

// EncodeStartup builds the startup message for currentDir and argv.
func EncodeStartup(currentDir string, argv []string) ([]byte, error) {
	size := len(StartToken) + 1 + len(currentDir)
	for _, arg := range argv {
		size += 1 + len(arg)
	}
	if size > MaxMessageLength {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrMessageTooLarge, size, MaxMessageLength)
	}

	message := make([]byte, 0, size)
	message = append(message, StartToken...)
	message = append(message, Delimiter)
	message = append(message, currentDir...)
	for _, arg := range argv {
		message = append(message, Delimiter)
		message = append(message, arg...)
	}
	return message, nil
}

// ParseStartup decodes a startup message. The message must be at
// least MinMessageLength bytes, split into at least three tokens, and
// begin with StartToken. Tokens are returned byte for byte; surrounding
// whitespace is not trimmed.
func ParseStartup(message []byte) (Startup, error) {
	if len(message) < MinMessageLength {
		return Startup{}, fmt.Errorf("%w: %d bytes is shorter than %d", ErrMalformed, len(message), MinMessageLength)
	}
	if len(message) > MaxMessageLength {
		return Startup{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrMalformed, len(message), MaxMessageLength)
	}

	tokens := bytes.Split(message, []byte{Delimiter})
	if len(tokens) < 3 {
		return Startup{}, fmt.Errorf("%w: %d tokens", ErrMalformed, len(tokens))
	}
	if string(tokens[0]) != StartToken {
		return Startup{}, fmt.Errorf("%w: first token %q", ErrMalformed, tokens[0])
	}

	argv := make([]string, 0, len(tokens)-2)
	for _, token := range tokens[2:] {
		argv = append(argv, string(token))
	}
	return Startup{CurrentDir: string(tokens[1]), Argv: argv}, nil
}

// Reply classifies what the owner sent back.
type Reply int

const (
	// ReplyUnknown is any reply that is neither ACK nor SHUTDOWN.
	ReplyUnknown Reply = iota
	// ReplyACK means the owner handled the request.
	ReplyACK
	// ReplyShutdown means the owner is exiting.
	ReplyShutdown
)

func (r Reply) String() string {
	switch r {
	case ReplyACK:
		return ACK
	case ReplyShutdown:
		return Shutdown
	default:
		return "UNKNOWN"
	}
}

// ParseReply classifies a reply by prefix, matching how the owner's
// token may be followed by nothing or by trailing bytes.
func ParseReply(reply []byte) Reply {
	switch {
	case bytes.HasPrefix(reply, []byte(Shutdown)):
		return ReplyShutdown
	case bytes.HasPrefix(reply, []byte(ACK)):
		return ReplyACK
	default:
		return ReplyUnknown
	}
}

// ReplyToken returns the token the owner sends for handled.
func ReplyToken(handled bool) []byte {
	if handled {
		return []byte(ACK)
	}
	return []byte(Shutdown)
}
