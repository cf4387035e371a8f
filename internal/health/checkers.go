// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"os"
	"time"

	"github.com/ManuGH/codescan/internal/resilience"
)

// FuncChecker adapts a function to Checker.
type FuncChecker struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewFuncChecker creates a checker backed by fn.
func NewFuncChecker(name string, fn func(ctx context.Context) CheckResult) *FuncChecker {
	return &FuncChecker{name: name, fn: fn}
}

func (c *FuncChecker) Name() string { return c.name }

func (c *FuncChecker) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// PathChecker checks that a capture device node or stills directory exists.
// A missing path is degraded: devices may be plugged in later.
type PathChecker struct {
	name string
	path string
}

// NewPathChecker creates a checker for path existence.
func NewPathChecker(name, path string) *PathChecker {
	return &PathChecker{name: name, path: path}
}

func (c *PathChecker) Name() string { return c.name }

func (c *PathChecker) Check(context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}
	if _, err := os.Stat(c.path); err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Status: StatusDegraded, Error: "not found", Message: c.path}
		}
		return CheckResult{Status: StatusDegraded, Error: err.Error(), Message: c.path}
	}
	return CheckResult{Status: StatusHealthy, Message: c.path}
}

// BreakerChecker reports a circuit breaker. Open is degraded: scanning
// continues and lookups surface as not found.
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker creates a checker for cb.
func NewBreakerChecker(name string, cb *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: cb}
}

func (c *BreakerChecker) Name() string { return c.name }

func (c *BreakerChecker) Check(context.Context) CheckResult {
	switch st := c.breaker.State(); st {
	case resilience.StateClosed:
		return CheckResult{Status: StatusHealthy, Message: string(st)}
	default:
		return CheckResult{Status: StatusDegraded, Message: string(st)}
	}
}

// Pinger is implemented by backends with a connectivity probe.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PingChecker probes a backend such as the Redis cache.
type PingChecker struct {
	name    string
	target  Pinger
	timeout time.Duration
	// failStatus is reported when the probe fails.
	failStatus Status
}

// NewPingChecker creates a checker for target. A failed probe reports failStatus.
func NewPingChecker(name string, target Pinger, failStatus Status) *PingChecker {
	return &PingChecker{name: name, target: target, timeout: 2 * time.Second, failStatus: failStatus}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.target.HealthCheck(ctx); err != nil {
		return CheckResult{Status: c.failStatus, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}
