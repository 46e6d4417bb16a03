package checks

import (
	"context"
	"strings"
	"time"

	"github.com/charlesng35/guestbook/internal/monitoring"
)

const defaultMaintenanceMaxAge = 6 * time.Hour

// Maintenance reports degraded when a scheduled job keeps failing or has not
// run within maxAge. When maxAge is zero a 6h window is used.
func Maintenance(tracker *monitoring.JobTracker, maxAge time.Duration) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultMaintenanceMaxAge
	}

	return monitoring.NewCheck("maintenance", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		jobs := tracker.Snapshot()

		if len(jobs) == 0 {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusUp,
				Details:  "no maintenance jobs registered",
				Duration: time.Since(start),
			}
		}

		status := monitoring.StatusUp
		var problems []string

		for _, job := range jobs {
			if job.TotalRuns == 0 {
				problems = append(problems, job.Job+": pending first run")
				continue
			}

			if job.ConsecutiveFailures > 0 {
				status = monitoring.StatusDegraded
				problems = append(problems, job.Job+": "+job.LastError)
			}

			if start.Sub(job.LastRunAt) > maxAge {
				status = monitoring.StatusDegraded
				problems = append(problems, job.Job+": stale run "+job.LastRunAt.UTC().Format(time.RFC3339))
			}
		}

		return monitoring.ProbeResult{
			Status:   status,
			Details:  strings.Join(problems, "; "),
			Duration: time.Since(start),
		}
	})
}
