// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
)

// generateCookie returns a random 64-bit value in decimal.
func generateCookie() (string, error) {
	var buffer [8]byte
	if _, err := rand.Read(buffer[:]); err != nil {
		return "", fmt.Errorf("generating cookie: %w", err)
	}
	return strconv.FormatUint(binary.LittleEndian.Uint64(buffer[:]), 10), nil
}

// checkCookie reports whether the cookie symlink at path carries
// cookie.
func (s *Singleton) checkCookie(path, cookie string) bool {
	return s.readLink(path) == cookie
}
