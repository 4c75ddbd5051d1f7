package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

type clearCall struct {
	user    primitive.ObjectID
	version int64
}

type recordingCarts struct {
	repositories.CartRepository

	mu       sync.Mutex
	calls    []clearCall
	failures int
}

func (c *recordingCarts) Clear(_ context.Context, userID primitive.ObjectID, version int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, clearCall{userID, version})
	if c.failures > 0 {
		c.failures--
		return false, errors.New("store unavailable")
	}
	return true, nil
}

func (c *recordingCarts) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type recordingRepairer struct {
	mu      sync.Mutex
	sources map[primitive.ObjectID]string
}

func (r *recordingRepairer) Repair(_ context.Context, id primitive.ObjectID, source string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[id] = source
	return true, nil
}

func (r *recordingRepairer) source(id primitive.ObjectID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sources[id]
}

func startQueue(t *testing.T, carts *recordingCarts, repairer *recordingRepairer) *Dispatcher {
	t.Helper()
	m := queue.New(queue.NewMemoryDriver(16), queue.Options{
		MaxRetry: 3,
		Backoff:  func(int) time.Duration { return time.Millisecond },
	})
	Register(m, carts, repairer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Run(ctx, 1)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return NewDispatcher(m)
}

func TestScheduleCartClear_RetriesUntilCleared(t *testing.T) {
	carts := &recordingCarts{failures: 1}
	d := startQueue(t, carts, &recordingRepairer{sources: map[primitive.ObjectID]string{}})
	user := primitive.NewObjectID()

	require.NoError(t, d.ScheduleCartClear(context.Background(), user, 7))

	assert.Eventually(t, func() bool { return carts.count() == 2 }, time.Second, 5*time.Millisecond)
	carts.mu.Lock()
	defer carts.mu.Unlock()
	assert.Equal(t, clearCall{user, 7}, carts.calls[1])
}

func TestScheduleRatingRepair_RunsAsJobRepair(t *testing.T) {
	repairer := &recordingRepairer{sources: map[primitive.ObjectID]string{}}
	d := startQueue(t, &recordingCarts{}, repairer)
	product := primitive.NewObjectID()

	require.NoError(t, d.ScheduleRatingRepair(context.Background(), product))

	assert.Eventually(t, func() bool { return repairer.source(product) == services.RepairByJob }, time.Second, 5*time.Millisecond)
}

func TestClearCartJob_BadIDIsDropped(t *testing.T) {
	carts := &recordingCarts{}
	job := &ClearCartJob{UserID: "nope", carts: carts}

	assert.NoError(t, job.Handle(context.Background()))
	assert.Zero(t, carts.count())
}
