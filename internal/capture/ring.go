// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import "sync"

// lineRing keeps the last N diagnostic lines of a capture process.
type lineRing struct {
	mu    sync.Mutex
	lines []string
	pos   int
	full  bool
}

func newLineRing(size int) *lineRing {
	return &lineRing{lines: make([]string, size)}
}

func (r *lineRing) Add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.pos] = line
	r.pos = (r.pos + 1) % len(r.lines)
	if r.pos == 0 {
		r.full = true
	}
}

// Lines returns the buffered lines oldest first.
func (r *lineRing) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]string(nil), r.lines[:r.pos]...)
	}
	res := make([]string, len(r.lines))
	copy(res, r.lines[r.pos:])
	copy(res[len(r.lines)-r.pos:], r.lines[:r.pos])
	return res
}

// Last returns the newest line or "".
func (r *lineRing) Last() string {
	lines := r.Lines()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
