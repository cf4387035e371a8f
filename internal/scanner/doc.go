// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package scanner runs the acquisition loop: it samples frames from a
// capture stream, decodes them, debounces repeated values and hands each
// confirmed event to a dispatcher.
//
// The Controller owns the capture stream. Exactly one loop goroutine runs
// per session; Start and Stop are serialized so that at most one stream is
// held at any time. A session ends on Stop, on the idle watchdog or when
// the stream reports it is gone.
package scanner
