// Package queue runs background jobs with retries. Jobs are JSON-encoded in
// an envelope naming their registered type, so any driver that moves bytes
// can carry them.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// Job is the interface every queued job must satisfy.
type Job interface {
	// Handle executes the job. Return a non-nil error to signal failure.
	Handle(ctx context.Context) error
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is available. A nil payload with a nil
	// error means the wait timed out.
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver is implemented by drivers that schedule delayed jobs natively.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
	// Promote moves due delayed jobs onto the queue until ctx ends.
	Promote(ctx context.Context)
}

// FailedJob holds information about a job that exhausted its retries.
type FailedJob struct {
	Type     string
	Payload  json.RawMessage
	Err      error
	FailedAt time.Time
	Attempts int
}

type Options struct {
	MaxRetry int
	// Backoff returns the pause before the given retry attempt.
	Backoff func(attempt int) time.Duration
	// FailedStore persists exhausted jobs when set.
	FailedStore *gorm.DB
}

// Manager is the queue hub. It is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob
	opts     Options
}

func New(driver Driver, opts Options) *Manager {
	if opts.MaxRetry < 1 {
		opts.MaxRetry = 3
	}
	if opts.Backoff == nil {
		opts.Backoff = func(attempt int) time.Duration { return time.Duration(attempt) * time.Second }
	}
	return &Manager{driver: driver, registry: map[string]func() Job{}, opts: opts}
}

// Register makes a job type available for decoding. The factory must
// return a pointer; its dynamic type names the job on the wire.
func (m *Manager) Register(factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[typeName(factory())] = factory
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func typeName(job Job) string { return fmt.Sprintf("%T", job) }

func encode(job Job) ([]byte, error) {
	name := typeName(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal job %s: %w", name, err)
	}
	env, err := json.Marshal(envelope{Type: name, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return env, nil
}

// Dispatch pushes job onto the queue immediately.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	raw, err := encode(job)
	if err != nil {
		return err
	}
	return m.driver.Push(ctx, raw)
}

// DispatchAfter pushes job after delay. Drivers without native delay
// support hold the job in a timer goroutine.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	raw, err := encode(job)
	if err != nil {
		return err
	}
	if d, ok := m.driver.(DelayedDriver); ok {
		return d.PushDelayed(ctx, raw, delay)
	}
	time.AfterFunc(delay, func() {
		if err := m.driver.Push(context.Background(), raw); err != nil {
			logger.Error("queue: delayed dispatch failed", "error", err)
		}
	})
	return nil
}

// Run starts n workers and blocks until ctx is cancelled and all in-flight
// jobs have finished.
func (m *Manager) Run(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	if d, ok := m.driver.(DelayedDriver); ok {
		go d.Promote(ctx)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
	wg.Wait()
	return nil
}

func (m *Manager) work(ctx context.Context) {
	for ctx.Err() == nil {
		raw, err := m.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if raw == nil {
			continue
		}
		m.process(ctx, raw)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	m.runWithRetry(ctx, job, env)
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, env envelope) {
	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= m.opts.MaxRetry; attempt++ {
		lastErr = job.Handle(ctx)
		if lastErr == nil {
			metrics.RecordQueueJob(env.Type, "ok", start)
			logger.Info("queue: job processed", "type", env.Type, "attempt", attempt)
			return
		}
		logger.Warn("queue: job failed", "type", env.Type, "attempt", attempt, "error", lastErr)
		if attempt == m.opts.MaxRetry {
			break
		}
		select {
		case <-ctx.Done():
			// Shutting down: hand the job back for the next worker.
			if err := m.driver.Push(context.Background(), mustEncode(env)); err != nil {
				logger.Error("queue: requeue on shutdown failed", "type", env.Type, "error", err)
			}
			return
		case <-time.After(m.opts.Backoff(attempt)):
		}
	}

	metrics.RecordQueueJob(env.Type, "failed", start)
	m.persistFailed(ctx, env, lastErr)
	logger.Error("queue: job exhausted retries", "type", env.Type, "error", lastErr)
}

func mustEncode(env envelope) []byte {
	raw, _ := json.Marshal(env)
	return raw
}

// Failed returns a snapshot of jobs that exhausted their retries in this
// process.
func (m *Manager) Failed() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailedJob, len(m.failed))
	copy(out, m.failed)
	return out
}
