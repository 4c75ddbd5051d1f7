package queue

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// FailedJobRecord is the GORM model for exhausted jobs.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"autoCreateTime"`
}

func (FailedJobRecord) TableName() string { return "storefront_failed_jobs" }

// ListFailed returns the most recent persisted failures.
func ListFailed(ctx context.Context, db *gorm.DB, limit int) ([]FailedJobRecord, error) {
	var rows []FailedJobRecord
	err := db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (m *Manager) persistFailed(ctx context.Context, env envelope, lastErr error) {
	now := time.Now()
	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{
		Type: env.Type, Payload: env.Payload, Err: lastErr, FailedAt: now, Attempts: m.opts.MaxRetry,
	})
	m.mu.Unlock()

	if m.opts.FailedStore == nil {
		return
	}

	record := FailedJobRecord{
		JobType:  env.Type,
		Payload:  string(env.Payload),
		Error:    lastErr.Error(),
		Attempts: m.opts.MaxRetry,
		FailedAt: now,
	}
	// The worker's context may already be done at shutdown.
	if err := m.opts.FailedStore.WithContext(context.WithoutCancel(ctx)).Create(&record).Error; err != nil {
		logger.Error("queue: persist failed job", "type", env.Type, "error", err)
	}
}
