package health

import (
	"context"
	"sync"
	"time"
)

// Checker is a dependency that can report its health.
type Checker interface {
	Health(ctx context.Context) error
}

type component struct {
	name     string
	checker  Checker
	critical bool
}

// Monitor aggregates health status from registered components.
type Monitor struct {
	components []component
	timeout    time.Duration
	cacheFor   time.Duration
	lastCheck  time.Time
	lastReport HealthReport
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor. Reports are cached for cacheFor
// so probes do not hammer the database.
func NewMonitor(cacheFor time.Duration) *Monitor {
	return &Monitor{
		timeout:  3 * time.Second,
		cacheFor: cacheFor,
	}
}

// Register adds a component. A failing critical component makes the whole
// system critical; a failing non-critical one only degrades it.
func (m *Monitor) Register(name string, checker Checker, critical bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, checker: checker, critical: critical})
	m.lastCheck = time.Time{}
}

// CheckHealth checks every registered component.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cacheFor > 0 && !m.lastCheck.IsZero() && time.Since(m.lastCheck) < m.cacheFor {
		return m.lastReport
	}

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Components:   make(map[string]ComponentHealth, len(m.components)),
	}

	for _, c := range m.components {
		h := ComponentHealth{Name: c.name, Status: StatusHealthy, Critical: c.critical}

		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := c.checker.Health(checkCtx)
		cancel()

		if err != nil {
			h.Error = err.Error()
			if c.critical {
				h.Status = StatusCritical
			} else {
				h.Status = StatusDegraded
			}
		}
		report.Components[c.name] = h

		// Aggregate status (worst case wins)
		switch {
		case h.Status == StatusCritical:
			report.SystemStatus = StatusCritical
		case h.Status == StatusDegraded && report.SystemStatus == StatusHealthy:
			report.SystemStatus = StatusDegraded
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
