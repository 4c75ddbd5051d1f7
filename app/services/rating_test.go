package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
)

func TestRoundAverage(t *testing.T) {
	tests := []struct {
		total, count int64
		want         float64
	}{
		{0, 0, 0},
		{4, 1, 4},
		{9, 2, 4.5},
		{7, 2, 3.5},
		{10, 3, 3.3},
		{11, 3, 3.7},
		{5, 4, 1.3},
		{13, 4, 3.3},
		{1, 20, 0.1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundAverage(tt.total, tt.count), "%d/%d", tt.total, tt.count)
	}
}

func TestDrifted(t *testing.T) {
	assert.False(t, Drifted(models.RatingSnapshot{TotalRatings: 9, ReviewCount: 2, AverageRating: 4.5}))
	assert.True(t, Drifted(models.RatingSnapshot{TotalRatings: 9, ReviewCount: 2, AverageRating: 4}))
	assert.False(t, Drifted(models.RatingSnapshot{}))
}

func driftProduct(db *memDB, total, count int64, avg float64) primitive.ObjectID {
	id := db.addProduct("Drifted", 1, primitive.NilObjectID)
	db.mu.Lock()
	p := db.products[id]
	p.TotalRatings, p.ReviewCount, p.AverageRating = total, count, avg
	db.mu.Unlock()
	return id
}

func TestRepair_WritesOnlyWhenDrifted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	fine := driftProduct(f.db, 9, 2, 4.5)
	off := driftProduct(f.db, 9, 2, 1)

	ok, err := f.repairer.Repair(ctx, fine, RepairByJob)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.repairer.Repair(ctx, off, RepairByJob)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4.5, f.db.product(off).AverageRating)

	require.Len(t, f.audit.rows, 1)
	row := f.audit.rows[0]
	assert.Equal(t, off.Hex(), row.ProductID)
	assert.Equal(t, RepairByJob, row.Source)
	assert.Equal(t, 1.0, row.OldAverage)
	assert.Equal(t, 4.5, row.NewAverage)
}

func TestRepairAll_SweepsEveryProduct(t *testing.T) {
	f := newFixture()
	ids := []primitive.ObjectID{
		driftProduct(f.db, 10, 3, 0),
		driftProduct(f.db, 4, 1, 2),
		driftProduct(f.db, 7, 2, 3.5),
	}
	f.db.addProduct("Unreviewed", 1, primitive.NilObjectID)

	n, err := f.repairer.RepairAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3.3, f.db.product(ids[0]).AverageRating)
	assert.Equal(t, 4.0, f.db.product(ids[1]).AverageRating)
	assert.Equal(t, 3.5, f.db.product(ids[2]).AverageRating)
	for _, row := range f.audit.rows {
		assert.Equal(t, RepairBySweep, row.Source)
	}
}

func TestRepair_NilAuditIsAllowed(t *testing.T) {
	db := newMemDB()
	id := driftProduct(db, 4, 1, 0)
	r := NewRatingRepairer(memProducts{db: db}, nil, 0)

	ok, err := r.Repair(context.Background(), id, RepairByJob)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepair_HistoryIsPerProductNewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := driftProduct(f.db, 9, 2, 1)
	other := driftProduct(f.db, 4, 1, 0)

	_, err := f.repairer.Repair(ctx, id, RepairByJob)
	require.NoError(t, err)
	_, err = f.repairer.Repair(ctx, other, RepairByJob)
	require.NoError(t, err)
	f.db.mu.Lock()
	f.db.products[id].AverageRating = 2
	f.db.mu.Unlock()
	_, err = f.repairer.Repair(ctx, id, RepairByCLI)
	require.NoError(t, err)

	rows, err := f.repairer.History(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, RepairByCLI, rows[0].Source)
	assert.Equal(t, 2.0, rows[0].OldAverage)
	assert.Equal(t, RepairByJob, rows[1].Source)

	rows, err = f.repairer.History(ctx, id, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRepair_HistoryWithoutAudit(t *testing.T) {
	r := NewRatingRepairer(memProducts{db: newMemDB()}, nil, 1)
	rows, err := r.History(context.Background(), primitive.NewObjectID(), 5)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
