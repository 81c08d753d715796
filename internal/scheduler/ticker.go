package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// EverySpec turns a poll interval into a cron descriptor.
func EverySpec(interval time.Duration) string {
	return "@every " + interval.String()
}

// CronTicker delivers poll ticks on a cron schedule. The tick channel holds
// one pending tick; ticks that fire while one is still pending are dropped.
type CronTicker struct {
	Cron   *cron.Cron
	Logger *log.Logger

	spec  string
	ticks chan time.Time
}

// NewCronTicker registers spec, a six-field cron expression or a
// descriptor such as "@every 5s".
func NewCronTicker(spec string) (*CronTicker, error) {
	t := &CronTicker{
		Cron:   cron.New(cron.WithSeconds()),
		Logger: log.Default(),
		spec:   spec,
		ticks:  make(chan time.Time, 1),
	}
	if _, err := t.Cron.AddFunc(spec, func() { t.offer(time.Now()) }); err != nil {
		return nil, fmt.Errorf("register poll schedule %q: %w", spec, err)
	}
	return t, nil
}

// Ticks is the channel to hand to Scheduler.Run.
func (t *CronTicker) Ticks() <-chan time.Time { return t.ticks }

func (t *CronTicker) offer(now time.Time) bool {
	select {
	case t.ticks <- now:
		return true
	default:
		t.logf("[WARN] poll cycle still running, dropping tick at %s", now.Format(time.TimeOnly))
		return false
	}
}

// Start starts the cron scheduler.
func (t *CronTicker) Start() {
	t.Cron.Start()
	t.logf("[INFO] poll schedule started: %s", t.spec)
}

// Stop stops the cron scheduler and waits for a running job to return.
func (t *CronTicker) Stop() {
	<-t.Cron.Stop().Done()
	t.logf("[INFO] poll schedule stopped")
}

func (t *CronTicker) logf(format string, args ...any) {
	l := t.Logger
	if l == nil {
		l = log.Default()
	}
	l.Output(2, fmt.Sprintf(format, args...))
}
