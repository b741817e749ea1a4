// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// FakeClock is a deterministic Clock for tests. Time stands still until
// Advance is called. Tickers fire during Advance, once for every full
// interval that elapses.
//
// Tick delivery is non-blocking: like time.Ticker, a tick is dropped
// when the consumer has not drained the previous one.
type FakeClock struct {
	mu      sync.Mutex
	changed *sync.Cond
	now     time.Time
	tickers []*fakeTicker
}

type fakeTicker struct {
	ch       chan time.Time
	interval time.Duration
	next     time.Time
	stopped  bool
}

// Fake returns a FakeClock fixed at start.
func Fake(start time.Time) *FakeClock {
	c := &FakeClock{now: start}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// Now returns the fake clock's current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker registers a fake ticker firing every d of fake time.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ticker := &fakeTicker{
		ch:       make(chan time.Time, 1),
		interval: d,
		next:     c.now.Add(d),
	}
	c.tickers = append(c.tickers, ticker)
	c.changed.Broadcast()

	return &Ticker{
		C: ticker.ch,
		stopFunc: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			ticker.stopped = true
			c.changed.Broadcast()
		},
	}
}

// Advance moves the fake time forward by d, delivering ticks for every
// ticker deadline that falls within the advanced window, in deadline
// order. Delivery is non-blocking per ticker, matching time.Ticker's
// drop-on-backpressure behavior.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.now.Add(d)
	for {
		earliest := c.earliestDeadline()
		if earliest == nil || earliest.next.After(target) {
			break
		}
		c.now = earliest.next
		earliest.next = earliest.next.Add(earliest.interval)
		select {
		case earliest.ch <- c.now:
		default:
		}
	}
	c.now = target
}

// TickerCount reports how many live (unstopped) tickers are registered.
// Tests use it to assert that timers are armed and disarmed as a unit.
func (c *FakeClock) TickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, ticker := range c.tickers {
		if !ticker.stopped {
			count++
		}
	}
	return count
}

// WaitForTickers blocks until at least n live tickers are registered.
// Tests use it to synchronize with code that arms timers from another
// goroutine before advancing the clock.
func (c *FakeClock) WaitForTickers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		count := 0
		for _, ticker := range c.tickers {
			if !ticker.stopped {
				count++
			}
		}
		if count >= n {
			return
		}
		c.changed.Wait()
	}
}

// earliestDeadline returns the live ticker with the soonest deadline,
// or nil when no live tickers exist. Caller holds c.mu.
func (c *FakeClock) earliestDeadline() *fakeTicker {
	var earliest *fakeTicker
	for _, ticker := range c.tickers {
		if ticker.stopped {
			continue
		}
		if earliest == nil || ticker.next.Before(earliest.next) {
			earliest = ticker
		}
	}
	return earliest
}
