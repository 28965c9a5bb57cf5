// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds small helpers for stream sockets shared by the
// singleton's connecting and listening sides.
package netutil
