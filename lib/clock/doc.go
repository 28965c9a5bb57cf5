// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the time source used by the singleton connector and
// listener. Production code takes a [Clock] and receives [Real];
// tests pass a [FakeClock] and move time forward explicitly.
//
// Two timing concerns go through this package:
//
//   - the connector's pause between connection attempts, and
//   - each accepted connection's inactivity timer.
//
// Socket read and write deadlines are not routed through Clock: the
// kernel compares them against wall time, so they are always computed
// from time.Now.
//
// # Driving the fake
//
// A goroutine that calls After or AfterFunc on a FakeClock
// registers a pending waiter. Tests call WaitForTimers to block until
// the expected waiters exist, then Advance to fire them:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go connector.run(fake)
//	fake.WaitForTimers(1)
//	fake.Advance(time.Second)
package clock
