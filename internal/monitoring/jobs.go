package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/charlesng35/guestbook/pkg/metrics"
)

// Job results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// JobSummary describes the recent history of a maintenance job.
type JobSummary struct {
	Job                 string        `json:"job"`
	LastStatus          string        `json:"last_status"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	LastSuccessAt       time.Time     `json:"last_success_at"`
	TotalRuns           uint64        `json:"total_runs"`
}

// JobTracker keeps the outcome of scheduled maintenance jobs for health probes.
type JobTracker struct {
	mu   sync.Mutex
	jobs map[string]*JobSummary
	now  func() time.Time
}

// NewJobTracker constructs an empty tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{
		jobs: make(map[string]*JobSummary),
		now:  time.Now,
	}
}

// Register makes a job visible before its first run.
func (t *JobTracker) Register(job string) {
	if t == nil || job == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.jobs[job]; !ok {
		t.jobs[job] = &JobSummary{Job: job}
	}
}

// RecordRun stores the outcome of one job run. A nil err counts as success.
func (t *JobTracker) RecordRun(job string, err error, duration time.Duration) {
	if t == nil || job == "" {
		return
	}
	if duration < 0 {
		duration = 0
	}

	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	metrics.MaintenanceRuns.WithLabelValues(job, result).Inc()

	t.mu.Lock()
	defer t.mu.Unlock()

	summary, ok := t.jobs[job]
	if !ok {
		summary = &JobSummary{Job: job}
		t.jobs[job] = summary
	}

	now := t.now()
	summary.LastStatus = result
	summary.LastRunAt = now
	summary.LastDuration = duration
	summary.TotalRuns++

	if err != nil {
		summary.LastError = err.Error()
		summary.ConsecutiveFailures++
		return
	}
	summary.LastError = ""
	summary.ConsecutiveFailures = 0
	summary.LastSuccessAt = now
}

// Snapshot returns copies of all job summaries ordered by job name.
func (t *JobTracker) Snapshot() []JobSummary {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]JobSummary, 0, len(t.jobs))
	for _, summary := range t.jobs {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}
