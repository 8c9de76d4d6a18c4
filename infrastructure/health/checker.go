// Package health runs named dependency checks for liveness and readiness probes.
package health

import (
	"context"
	"sort"
	"sync"
)

// Status represents the health status of a service
type Status string

const (
	// StatusHealthy means every check passed.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy means at least one check failed.
	StatusUnhealthy Status = "unhealthy"
)

// Check represents a health check
type Check interface {
	// Name returns the name of the health check
	Name() string
	// Check performs the health check and returns an error if unhealthy
	Check(ctx context.Context) error
}

type namedCheck struct {
	name string
	fn   func(ctx context.Context) error
}

func (n namedCheck) Name() string                    { return n.name }
func (n namedCheck) Check(ctx context.Context) error { return n.fn(ctx) }

// Checker manages health checks for a service
type Checker struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewChecker creates a new health checker
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]Check),
	}
}

// Register adds a check, replacing any check with the same name.
func (c *Checker) Register(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[check.Name()] = check
}

// RegisterFunc registers a health check function
func (c *Checker) RegisterFunc(name string, fn func(ctx context.Context) error) {
	c.Register(namedCheck{name: name, fn: fn})
}

// Names returns the registered check names, sorted.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check performs all registered health checks
func (c *Checker) Check(ctx context.Context) (Status, map[string]string) {
	c.mu.RLock()
	checks := make([]Check, 0, len(c.checks))
	for _, check := range c.checks {
		checks = append(checks, check)
	}
	c.mu.RUnlock()

	results := make(map[string]string, len(checks))
	status := StatusHealthy

	for _, check := range checks {
		if err := check.Check(ctx); err != nil {
			results[check.Name()] = "error: " + err.Error()
			status = StatusUnhealthy
			continue
		}
		results[check.Name()] = "ok"
	}

	return status, results
}
