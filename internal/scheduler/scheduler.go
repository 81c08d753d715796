package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"TradeSentinel/internal/collector"
	"TradeSentinel/internal/command"
	"TradeSentinel/internal/notifier"
	"TradeSentinel/internal/recorder"
	"TradeSentinel/internal/registry"
)

// Defaults applied when the corresponding field is zero.
const (
	DefaultWorkers      = 4
	DefaultFetchTimeout = 10 * time.Second
	DefaultSinkTimeout  = 5 * time.Second
)

// Scheduler owns the registry and runs poll cycles against it. Every
// method must be called from the goroutine running Run, or before Run
// starts.
type Scheduler struct {
	Source   collector.Source
	Registry *registry.Registry
	Recorder recorder.Recorder
	Notifier notifier.Notifier

	Workers      int
	FetchTimeout time.Duration
	// SinkTimeout bounds each trade log write and notification.
	SinkTimeout time.Duration

	// MarketOpen, when set, skips symbols whose exchange is closed.
	MarketOpen func(symbol string, t time.Time) bool

	Logger *log.Logger
}

// NewScheduler creates a scheduler. Nil sinks are replaced by no-ops.
func NewScheduler(src collector.Source, reg *registry.Registry, rec recorder.Recorder, n notifier.Notifier) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	return &Scheduler{
		Source:       src,
		Registry:     reg,
		Recorder:     rec,
		Notifier:     n,
		Workers:      DefaultWorkers,
		FetchTimeout: DefaultFetchTimeout,
		SinkTimeout:  DefaultSinkTimeout,
		Logger:       log.Default(),
	}
}

func (s *Scheduler) logf(format string, args ...any) {
	l := s.Logger
	if l == nil {
		l = log.Default()
	}
	l.Output(2, fmt.Sprintf(format, args...))
}

// Run handles commands and ticks one at a time until an exit command, the
// command channel closing or ctx being cancelled. A closed tick channel
// only stops polling.
func (s *Scheduler) Run(ctx context.Context, cmds <-chan command.Command, ticks <-chan time.Time) error {
	s.logf("[INFO] scheduler started: %d symbols, source %s", s.Registry.Len(), s.Source.Name())
	for {
		select {
		case <-ctx.Done():
			s.logf("[INFO] scheduler stopped: %v", ctx.Err())
			return nil
		case cmd, ok := <-cmds:
			if !ok {
				s.logf("[INFO] command channel closed, scheduler stopped")
				return nil
			}
			if _, stop := s.HandleCommand(cmd); stop {
				s.logf("[INFO] exit requested, scheduler stopped")
				return nil
			}
		case now, ok := <-ticks:
			if !ok {
				s.logf("[WARN] tick source closed, polling disabled")
				ticks = nil
				continue
			}
			s.PollOnce(ctx, now)
		}
	}
}

// HandleCommand applies cmd to the registry, answers on its reply channel
// and returns the answer. stop is true for Exit.
func (s *Scheduler) HandleCommand(cmd command.Command) (reply string, stop bool) {
	switch cmd.Kind {
	case command.Add:
		e, added := s.Registry.Add(cmd.Symbol)
		switch {
		case e == nil:
			reply = command.Usage
		case added:
			s.logf("[INFO] tracking %s", e.Symbol)
			reply = "tracking " + e.Symbol
		default:
			reply = "already tracking " + e.Symbol
		}
	case command.Remove:
		symbol := registry.Normalize(cmd.Symbol)
		if s.Registry.Remove(symbol) {
			s.logf("[INFO] stopped tracking %s", symbol)
			reply = "stopped tracking " + symbol
		} else {
			reply = symbol + " is not tracked"
		}
	case command.List:
		reply = notifier.FormatList(s.Registry.Symbols())
	case command.Status:
		reply = notifier.FormatStatus(s.Registry.Entries())
	case command.Exit:
		reply, stop = "bye", true
	default:
		reply = command.Usage
	}
	cmd.Respond(reply)
	return reply, stop
}
