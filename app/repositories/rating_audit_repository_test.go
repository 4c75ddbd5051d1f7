package repositories

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
)

func openAuditDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.RatingRepair{}))
	return db
}

func TestRatingAudit_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewRatingAuditRepository(openAuditDB(t))

	p1, p2 := primitive.NewObjectID(), primitive.NewObjectID()
	require.NoError(t, repo.Record(ctx, &models.RatingRepair{ProductID: p1.Hex(), Source: "sweep", OldAverage: 4, NewAverage: 4.5, Total: 9, Count: 2}))
	require.NoError(t, repo.Record(ctx, &models.RatingRepair{ProductID: p2.Hex(), Source: "read", NewAverage: 3, Total: 3, Count: 1}))
	require.NoError(t, repo.Record(ctx, &models.RatingRepair{ProductID: p1.Hex(), Source: "job", OldAverage: 4.5, NewAverage: 3.5, Total: 7, Count: 2}))

	rows, err := repo.Recent(ctx, p1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "job", rows[0].Source)
	assert.Equal(t, 3.5, rows[0].NewAverage)

	all, err := repo.Recent(ctx, primitive.NilObjectID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
