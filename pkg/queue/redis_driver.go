package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// RedisDriver keeps immediate jobs in a list (LPUSH/BRPOP) and delayed jobs
// in a sorted set scored by due time.
type RedisDriver struct {
	rdb        *redis.Client
	queueKey   string
	delayedKey string
	block      time.Duration
}

// NewRedisDriver shares the client opened by pkg/cache.
func NewRedisDriver(rdb *redis.Client, prefix string) *RedisDriver {
	return &RedisDriver{
		rdb:        rdb,
		queueKey:   prefix + "queue:jobs",
		delayedKey: prefix + "queue:delayed",
		block:      5 * time.Second,
	}
}

func (d *RedisDriver) Push(ctx context.Context, payload []byte) error {
	if err := d.rdb.LPush(ctx, d.queueKey, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	result, err := d.rdb.BRPop(ctx, d.block, d.queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue/redis: pop: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	return []byte(result[1]), nil
}

func (d *RedisDriver) PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error {
	runAt := float64(time.Now().Add(delay).Unix())
	if err := d.rdb.ZAdd(ctx, d.delayedKey, redis.Z{Score: runAt, Member: string(payload)}).Err(); err != nil {
		return fmt.Errorf("queue/redis: push delayed: %w", err)
	}
	return nil
}

func (d *RedisDriver) Promote(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.promoteDue(ctx, time.Now()); err != nil && ctx.Err() == nil {
				logger.Warn("queue/redis: promote delayed", "error", err)
			}
		}
	}
}

// promoteDue moves jobs due at or before now onto the immediate list.
func (d *RedisDriver) promoteDue(ctx context.Context, now time.Time) error {
	jobs, err := d.rdb.ZRangeByScore(ctx, d.delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil || len(jobs) == 0 {
		return err
	}
	for _, job := range jobs {
		// ZRem decides ownership when several instances promote at once.
		removed, err := d.rdb.ZRem(ctx, d.delayedKey, job).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		if err := d.rdb.LPush(ctx, d.queueKey, job).Err(); err != nil {
			return err
		}
	}
	return nil
}
