// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// Effect is a best-effort feedback side effect.
type Effect interface {
	Fire(ctx context.Context) error
}

// EffectFunc adapts a function to Effect.
type EffectFunc func(ctx context.Context) error

func (f EffectFunc) Fire(ctx context.Context) error { return f(ctx) }

// Bell rings the terminal bell on W.
type Bell struct {
	W io.Writer
}

func (b Bell) Fire(context.Context) error {
	if b.W == nil {
		return errors.New("bell: no output")
	}
	_, err := io.WriteString(b.W, "\a")
	return err
}

const defaultCommandTimeout = 2 * time.Second

// Command runs an external program, e.g. a haptics helper.
type Command struct {
	Argv    []string
	Timeout time.Duration
}

func (c Command) Fire(ctx context.Context) error {
	if len(c.Argv) == 0 {
		return errors.New("command: empty argv")
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (%s)", c.Argv[0], err, truncate(string(out), 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
