// Package schedule runs recurring tasks on fixed intervals.
//
//	s := schedule.New()
//	s.Every(15 * time.Minute).Name("rating:repair").WithoutOverlapping().Run(sweep)
//	_ = s.Run(ctx) // blocks until ctx is done
package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Task is the function signature for a scheduled task.
type Task func(ctx context.Context) error

type entry struct {
	id        string
	interval  time.Duration
	task      Task
	noOverlap bool
	immediate bool

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Builder configures a single entry before it is registered.
type Builder struct {
	s *Scheduler
	e *entry
}

type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	tick    time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

func New() *Scheduler {
	return &Scheduler{tick: time.Second, now: time.Now}
}

// Every starts a builder for a task repeated each d.
func (s *Scheduler) Every(d time.Duration) *Builder {
	return &Builder{s: s, e: &entry{interval: d}}
}

// WithoutOverlapping skips a run while the previous one is still executing.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

// Immediately makes the first run happen on the first tick instead of
// after one interval.
func (b *Builder) Immediately() *Builder {
	b.e.immediate = true
	return b
}

// Name gives the entry an identifier for logging.
func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// Run registers the task.
func (b *Builder) Run(task Task) {
	b.e.task = task
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	if !b.e.immediate {
		b.e.lastRun = b.s.now()
	}
	b.s.entries = append(b.s.entries, b.e)
}

// Run dispatches due tasks until ctx is cancelled, then waits for running
// tasks to return.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	logger.Info("schedule: scheduler started", "tasks", len(s.List()))

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: scheduler stopped")
			return nil
		case <-ticker.C:
			s.runDue(ctx, s.now())
		}
	}
}

func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := make([]*entry, len(s.entries))
	copy(current, s.entries)
	s.mu.Unlock()

	for _, e := range current {
		if e.due(now) {
			s.dispatch(ctx, e, now)
		}
	}
}

func (e *entry) due(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mu.Lock()
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
		}()

		start := time.Now()
		if err := e.task(ctx); err != nil {
			logger.Error("schedule: task failed", "id", e.id, "error", err)
			return
		}
		logger.Info("schedule: task finished", "id", e.id, "duration", time.Since(start).String())
	}()
}

// List returns the registered entries for CLI display.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, fmt.Sprintf("%s  [every %s]", e.id, e.interval))
	}
	sort.Strings(out)
	return out
}

// RunNow executes every task named id once, synchronously.
func (s *Scheduler) RunNow(ctx context.Context, id string) error {
	s.mu.Lock()
	var matched []*entry
	for _, e := range s.entries {
		if e.id == id {
			matched = append(matched, e)
		}
	}
	s.mu.Unlock()

	if len(matched) == 0 {
		return fmt.Errorf("schedule: no task named %q", id)
	}
	for _, e := range matched {
		if err := e.task(ctx); err != nil {
			return err
		}
	}
	return nil
}
