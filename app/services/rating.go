package services

import (
	"context"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

// Repair sources recorded in the audit log.
const (
	RepairOnRead  = "read"
	RepairBySweep = "sweep"
	RepairByJob   = "job"
	RepairByCLI   = "cli"
)

// repairAttempts bounds re-reads when counters move under a repair.
const repairAttempts = 3

// RoundAverage is total/count rounded half away from zero to one decimal,
// or 0 when count is 0.
func RoundAverage(total, count int64) float64 {
	if count <= 0 {
		return 0
	}
	return decimal.NewFromInt(total).
		Div(decimal.NewFromInt(count)).
		Round(1).
		InexactFloat64()
}

// Drifted reports whether the stored average disagrees with the counters.
func Drifted(s models.RatingSnapshot) bool {
	return s.AverageRating != RoundAverage(s.TotalRatings, s.ReviewCount)
}

// RatingRepairer recomputes cached averages from their counters.
type RatingRepairer struct {
	products repositories.ProductRepository
	audit    repositories.RatingAuditRepository
	workers  int
}

// NewRatingRepairer builds a repairer. audit may be nil when the ops
// database is unavailable.
func NewRatingRepairer(products repositories.ProductRepository, audit repositories.RatingAuditRepository, workers int) *RatingRepairer {
	if workers < 1 {
		workers = 1
	}
	return &RatingRepairer{products: products, audit: audit, workers: workers}
}

// Repair re-reads productID's counters and overwrites a drifted average.
// It reports whether a write happened.
func (r *RatingRepairer) Repair(ctx context.Context, productID primitive.ObjectID, source string) (bool, error) {
	snap, err := r.products.RatingSnapshot(ctx, productID)
	if err != nil {
		return false, err
	}
	return r.repairSnapshot(ctx, snap, source)
}

func (r *RatingRepairer) repairSnapshot(ctx context.Context, snap models.RatingSnapshot, source string) (bool, error) {
	for attempt := 0; attempt < repairAttempts; attempt++ {
		if !Drifted(snap) {
			return false, nil
		}
		want := RoundAverage(snap.TotalRatings, snap.ReviewCount)
		ok, err := r.products.SetAverage(ctx, snap.ProductID, snap.TotalRatings, snap.ReviewCount, want)
		if err != nil {
			return false, err
		}
		if ok {
			r.record(ctx, snap, want, source)
			return true, nil
		}
		// Counters moved; the writer that moved them settles the average,
		// but re-check in case that write is lost too.
		if snap, err = r.products.RatingSnapshot(ctx, snap.ProductID); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (r *RatingRepairer) record(ctx context.Context, snap models.RatingSnapshot, want float64, source string) {
	metrics.RatingRepairs.WithLabelValues(source).Inc()
	logger.WithCtx(ctx).Info("average rating repaired",
		"product_id", snap.ProductID.Hex(), "source", source,
		"old", snap.AverageRating, "new", want)

	if r.audit == nil {
		return
	}
	entry := &models.RatingRepair{
		ProductID:  snap.ProductID.Hex(),
		Source:     source,
		OldAverage: snap.AverageRating,
		NewAverage: want,
		Total:      snap.TotalRatings,
		Count:      snap.ReviewCount,
	}
	if err := r.audit.Record(ctx, entry); err != nil {
		logger.WithCtx(ctx).Warn("rating repair audit failed", "product_id", entry.ProductID, "error", err)
	}
}

// History lists the latest recorded repairs of productID, newest first.
func (r *RatingRepairer) History(ctx context.Context, productID primitive.ObjectID, limit int) ([]models.RatingRepair, error) {
	if r.audit == nil {
		return nil, nil
	}
	return r.audit.Recent(ctx, productID, limit)
}

// RepairAll scans every product and repairs drifted averages on a bounded
// worker pool. It returns the number of products repaired.
func (r *RatingRepairer) RepairAll(ctx context.Context) (int, error) {
	pool := workerpool.New(r.workers)
	var repaired, failed atomic.Int64

	scanErr := r.products.EachRating(ctx, func(s models.RatingSnapshot) error {
		if !Drifted(s) {
			return nil
		}
		return pool.SubmitWait(ctx, func() {
			ok, err := r.repairSnapshot(ctx, s, RepairBySweep)
			switch {
			case err != nil:
				failed.Add(1)
				logger.WithCtx(ctx).Warn("rating repair failed", "product_id", s.ProductID.Hex(), "error", err)
			case ok:
				repaired.Add(1)
			}
		})
	})
	pool.Shutdown()

	if n := failed.Load(); n > 0 {
		logger.WithCtx(ctx).Warn("rating sweep finished with failures", "failed", n)
	}
	return int(repaired.Load()), scanErr
}
