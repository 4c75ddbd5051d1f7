package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/pkg/storage"
)

func TestCatalogExporter_WritesEveryPage(t *testing.T) {
	db := newMemDB()
	for i := 0; i < exportPageSize+5; i++ {
		db.addProduct("Item", 1, primitive.NilObjectID)
	}
	driftProduct(db, 9, 2, 0)

	disk, err := storage.NewLocalDisk(t.TempDir(), "http://cdn.test")
	require.NoError(t, err)
	e := NewCatalogExporter(memProducts{db: db}, disk)
	e.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	url, n, err := e.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exportPageSize+6, n)
	assert.Equal(t, "http://cdn.test/exports/catalog-20260102T030405Z.json", url)

	body, err := disk.Get(context.Background(), "exports/catalog-20260102T030405Z.json")
	require.NoError(t, err)

	var rows []ExportedProduct
	require.NoError(t, json.Unmarshal(body, &rows))
	assert.Len(t, rows, exportPageSize+6)

	var rated int
	for _, r := range rows {
		if r.ReviewCount > 0 {
			rated++
			assert.Equal(t, 4.5, r.AverageRating)
		}
	}
	assert.Equal(t, 1, rated)
}
