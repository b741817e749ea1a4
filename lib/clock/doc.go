// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock parameter instead of calling time.Now
// or time.NewTicker directly. Real() provides standard library behavior.
// Fake() provides a deterministic clock that advances only when Advance
// is called.
//
// # Wiring Pattern
//
// Add a Clock field to structs that use time:
//
//	type SessionController struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	s := &SessionController{clock: clock.Real()}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	s := &SessionController{clock: c}
//	c.Advance(5 * time.Second) // fire due tickers deterministically
package clock
