package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ProbeStatus encodes the outcome of a health probe.
type ProbeStatus string

const (
	StatusUp       ProbeStatus = "up"
	StatusDown     ProbeStatus = "down"
	StatusDegraded ProbeStatus = "degraded"
)

// DefaultProbeTimeout bounds a single probe when the manager has no explicit timeout.
const DefaultProbeTimeout = 3 * time.Second

// severity orders statuses from healthy to failing.
func (s ProbeStatus) severity() int {
	switch s {
	case StatusUp:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// ProbeResult captures a single dependency check outcome.
type ProbeResult struct {
	Component string        `json:"component"`
	Status    ProbeStatus   `json:"status"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// HealthReport aggregates probe results for a liveness or readiness evaluation.
type HealthReport struct {
	Success bool          `json:"success"`
	Status  ProbeStatus   `json:"status"`
	Checks  []ProbeResult `json:"checks"`
}

func (r *HealthReport) add(result ProbeResult) {
	r.Checks = append(r.Checks, result)
	if result.Status.severity() > r.Status.severity() {
		r.Status = result.Status
	}
	r.Success = r.Status == StatusUp
}

// Check is a named probe against one dependency of the guestbook.
type Check struct {
	Name string
	Run  func(ctx context.Context) ProbeResult
}

// NewCheck constructs a health check. A nil probe always reports down.
func NewCheck(name string, fn func(ctx context.Context) ProbeResult) Check {
	if fn == nil {
		fn = func(context.Context) ProbeResult {
			return ProbeResult{Status: StatusDown, Details: "probe not implemented"}
		}
	}
	return Check{Name: name, Run: fn}
}

// HealthOption customises a HealthManager.
type HealthOption func(*HealthManager)

// WithProbeTimeout bounds each probe run. Non-positive values keep the default.
func WithProbeTimeout(timeout time.Duration) HealthOption {
	return func(m *HealthManager) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// HealthManager runs the liveness probes (process and maintenance jobs) and
// readiness probes (database) behind the /health endpoints.
type HealthManager struct {
	mu        sync.RWMutex
	liveness  []Check
	readiness []Check
	timeout   time.Duration
}

// NewHealthManager constructs an empty health manager.
func NewHealthManager(opts ...HealthOption) *HealthManager {
	m := &HealthManager{timeout: DefaultProbeTimeout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterLiveness appends a liveness probe. Unnamed checks are ignored.
func (m *HealthManager) RegisterLiveness(check Check) {
	if check.Name == "" {
		return
	}
	m.mu.Lock()
	m.liveness = append(m.liveness, check)
	m.mu.Unlock()
}

// RegisterReadiness appends a readiness probe. Unnamed checks are ignored.
func (m *HealthManager) RegisterReadiness(check Check) {
	if check.Name == "" {
		return
	}
	m.mu.Lock()
	m.readiness = append(m.readiness, check)
	m.mu.Unlock()
}

// EvaluateLiveness executes all configured liveness checks.
func (m *HealthManager) EvaluateLiveness(ctx context.Context) HealthReport {
	m.mu.RLock()
	checks := append([]Check(nil), m.liveness...)
	m.mu.RUnlock()
	return m.evaluate(ctx, checks)
}

// EvaluateReadiness executes all configured readiness checks.
func (m *HealthManager) EvaluateReadiness(ctx context.Context) HealthReport {
	m.mu.RLock()
	checks := append([]Check(nil), m.readiness...)
	m.mu.RUnlock()
	return m.evaluate(ctx, checks)
}

func (m *HealthManager) evaluate(ctx context.Context, checks []Check) HealthReport {
	if ctx == nil {
		ctx = context.Background()
	}
	report := HealthReport{
		Success: true,
		Status:  StatusUp,
		Checks:  make([]ProbeResult, 0, len(checks)),
	}
	for _, check := range checks {
		report.add(m.run(ctx, check))
	}
	return report
}

func (m *HealthManager) run(parent context.Context, check Check) (result ProbeResult) {
	ctx, cancel := context.WithTimeout(parent, m.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = ProbeResult{Status: StatusDown, Details: panicDetails(rec)}
		}
		if result.Status == "" {
			result.Status = StatusDown
		}
		if result.Duration == 0 {
			result.Duration = time.Since(start)
		}
		result.Component = check.Name
	}()

	return check.Run(ctx)
}

func panicDetails(rec any) string {
	switch v := rec.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("panic: %v", v)
	}
}

// ResultFromError converts a probe error into a ProbeResult. Timeouts and
// cancellations degrade instead of failing.
func ResultFromError(component string, err error, duration time.Duration) ProbeResult {
	if duration < 0 {
		duration = 0
	}
	result := ProbeResult{Component: component, Status: StatusUp, Duration: duration}
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		result.Status = StatusDegraded
		result.Details = err.Error()
	default:
		result.Status = StatusDown
		result.Details = err.Error()
	}
	return result
}
