// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"fmt"
	"net"
)

// CloseWrite shuts down the write side of conn so the peer reads EOF
// while this side can still read the reply. Connections that cannot
// half-close are left untouched and an error is returned.
func CloseWrite(conn net.Conn) error {
	halfCloser, ok := conn.(interface{ CloseWrite() error })
	if !ok {
		return fmt.Errorf("connection type %T does not support half-close", conn)
	}
	return halfCloser.CloseWrite()
}
