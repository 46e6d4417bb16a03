package maintenance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/guestbook/internal/monitoring"
	"github.com/charlesng35/guestbook/pkg/logger"
	"github.com/charlesng35/guestbook/pkg/metrics"
)

// Job names reported to the tracker and metrics.
const (
	JobTokenCleanup = "token_cleanup"
	JobEntryStats   = "entry_stats"
)

const (
	defaultTokenSpec = "@hourly"
	defaultStatsSpec = "@every 5m"
)

// ExpiredPurger removes expired records, such as lapsed anti-forgery tokens.
type ExpiredPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// EntryCounter reports how many guestbook entries are stored.
type EntryCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Cleaner coordinates background maintenance: purging expired tokens and
// refreshing the stored-entries gauge.
type Cleaner struct {
	tokens  ExpiredPurger
	entries EntryCounter
	tracker *monitoring.JobTracker
	cron    *cron.Cron
	now     func() time.Time
	log     *zap.Logger

	tokenSchedule string
	statsSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used to decide which tokens expired.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithTracker records job outcomes for the maintenance health probe.
func WithTracker(tracker *monitoring.JobTracker) Option {
	return func(cleaner *Cleaner) {
		cleaner.tracker = tracker
	}
}

// WithTokenSchedule overrides the cron specification for token cleanup.
// An empty spec disables the job.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		cleaner.tokenSchedule = spec
	}
}

// WithStatsSchedule overrides the cron specification for the entry gauge refresh.
// An empty spec disables the job.
func WithStatsSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		cleaner.statsSchedule = spec
	}
}

// NewCleaner constructs a Cleaner. A nil dependency skips the matching job.
func NewCleaner(tokens ExpiredPurger, entries EntryCounter, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		tokens:        tokens,
		entries:       entries,
		now:           time.Now,
		tokenSchedule: defaultTokenSpec,
		statsSchedule: defaultStatsSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

type job struct {
	name string
	spec string
	run  func(ctx context.Context) error
}

func (c *Cleaner) jobs() []job {
	var jobs []job
	if c.tokens != nil && enabled(c.tokenSchedule) {
		jobs = append(jobs, job{name: JobTokenCleanup, spec: c.tokenSchedule, run: c.purgeTokens})
	}
	if c.entries != nil && enabled(c.statsSchedule) {
		jobs = append(jobs, job{name: JobEntryStats, spec: c.statsSchedule, run: c.refreshStats})
	}
	return jobs
}

func enabled(spec string) bool {
	return strings.TrimSpace(spec) != ""
}

// Start registers the enabled jobs with the scheduler and launches it.
func (c *Cleaner) Start() error {
	jobs := c.jobs()
	if len(jobs) == 0 {
		return nil
	}

	for _, j := range jobs {
		j := j
		c.tracker.Register(j.name)
		if _, err := c.cron.AddFunc(j.spec, func() {
			if err := c.execute(context.Background(), j); err != nil {
				c.log.Warn("maintenance job failed", zap.String("job", j.name), zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler. The returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every enabled job sequentially and aggregates their errors.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	for _, j := range c.jobs() {
		errs = multierr.Append(errs, c.execute(ctx, j))
	}
	return errs
}

func (c *Cleaner) execute(ctx context.Context, j job) error {
	start := time.Now()
	err := j.run(ctx)
	c.tracker.RecordRun(j.name, err, time.Since(start))
	return err
}

func (c *Cleaner) purgeTokens(ctx context.Context) error {
	removed, err := c.tokens.DeleteExpired(ctx, c.now())
	if err != nil {
		return fmt.Errorf("purge expired tokens: %w", err)
	}
	if removed > 0 {
		c.log.Info("expired tokens purged", zap.Int64("removed", removed))
	}
	return nil
}

func (c *Cleaner) refreshStats(ctx context.Context) error {
	count, err := c.entries.Count(ctx)
	if err != nil {
		return fmt.Errorf("count entries: %w", err)
	}
	metrics.StoredEntries.Set(float64(count))
	return nil
}
