// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at initial.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{current: initial}
	fake.changed = sync.NewCond(&fake.mu)
	return fake
}

// FakeClock is a Clock whose time only moves when Advance is called.
// It is safe for concurrent use.
//
// AfterFunc callbacks run synchronously inside Advance, in deadline
// order. A callback must not call Advance on the same clock.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	pending []*pendingWait
	changed *sync.Cond
}

// pendingWait is one registered After or AfterFunc.
type pendingWait struct {
	deadline time.Time

	// Exactly one of channel and callback is set.
	channel  chan time.Time
	callback func()

	cancelled bool
	done      bool
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After registers a waiter that receives once the clock has advanced
// by d.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}
	c.registerLocked(&pendingWait{deadline: c.current.Add(d), channel: channel})
	return channel
}

// AfterFunc registers f to run once the clock has advanced by d. A
// non-positive d runs f before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stopFunc: func() bool { return false }}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	wait := &pendingWait{deadline: c.current.Add(d), callback: f}
	c.registerLocked(wait)
	return &Timer{stopFunc: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if wait.cancelled || wait.done {
			return false
		}
		wait.cancelled = true
		c.changed.Broadcast()
		return true
	}}
}

// Advance moves the clock forward by d and fires every waiter whose
// deadline is now due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	now := c.current
	c.mu.Unlock()

	for {
		due := c.takeDue(now)
		if len(due) == 0 {
			return
		}
		for _, wait := range due {
			if wait.callback != nil {
				wait.callback()
				continue
			}
			select {
			case wait.channel <- now:
			default:
			}
		}
	}
}

// WaitForTimers blocks until at least n waiters are pending.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of waiters that have neither fired
// nor been stopped.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *FakeClock) registerLocked(wait *pendingWait) {
	c.pending = append(c.pending, wait)
	c.changed.Broadcast()
}

func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, wait := range c.pending {
		if !wait.cancelled {
			count++
		}
	}
	return count
}

// takeDue removes and returns the waiters due at now, sorted by
// deadline.
func (c *FakeClock) takeDue(now time.Time) []*pendingWait {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due, remaining []*pendingWait
	for _, wait := range c.pending {
		switch {
		case wait.cancelled:
		case wait.deadline.After(now):
			remaining = append(remaining, wait)
		default:
			wait.done = true
			due = append(due, wait)
		}
	}
	c.pending = remaining
	if len(due) > 0 {
		c.changed.Broadcast()
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	return due
}
