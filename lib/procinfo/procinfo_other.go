// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux && !darwin

package procinfo

func executablePath(int) (string, error) { return "", ErrUnsupported }

func parentPID(int) (int, error) { return 0, ErrUnsupported }
