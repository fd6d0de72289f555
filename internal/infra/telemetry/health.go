package telemetry

import (
	"sort"
	"sync"
)

// HealthCheck returns nil while the named component is healthy.
type HealthCheck func() error

// HealthReport is the JSON body served on /healthz.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthTracker aggregates component checks.
type HealthTracker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheck
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{checks: make(map[string]HealthCheck)}
}

// Register adds or replaces the check stored under name.
func (t *HealthTracker) Register(name string, check HealthCheck) {
	if t == nil || check == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checks[name] = check
}

func (t *HealthTracker) Report() HealthReport {
	if t == nil {
		return HealthReport{Status: "ok"}
	}
	t.mu.RLock()
	names := make([]string, 0, len(t.checks))
	for name := range t.checks {
		names = append(names, name)
	}
	checks := make(map[string]HealthCheck, len(t.checks))
	for name, check := range t.checks {
		checks[name] = check
	}
	t.mu.RUnlock()
	sort.Strings(names)

	report := HealthReport{Status: "ok"}
	for _, name := range names {
		if report.Checks == nil {
			report.Checks = make(map[string]string, len(names))
		}
		if err := checks[name](); err != nil {
			report.Status = "degraded"
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}
