package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

const exportPageSize = 100

// ExportedProduct is one line of a catalog export.
type ExportedProduct struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Price         float64 `json:"price"`
	ReviewCount   int64   `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

// CatalogExporter writes the catalog with ratings to a storage disk.
type CatalogExporter struct {
	products repositories.ProductRepository
	disk     storage.Disk
	now      func() time.Time
}

func NewCatalogExporter(products repositories.ProductRepository, disk storage.Disk) *CatalogExporter {
	return &CatalogExporter{products: products, disk: disk, now: time.Now}
}

// Export writes a JSON array of every product and returns its URL and the
// number of products written.
func (e *CatalogExporter) Export(ctx context.Context) (string, int, error) {
	var rows []ExportedProduct
	for page := 1; ; page++ {
		items, total, err := e.products.List(ctx, models.ProductFilter{Page: page, Limit: exportPageSize})
		if err != nil {
			return "", 0, err
		}
		for _, p := range items {
			rows = append(rows, ExportedProduct{
				ID:            p.ID.Hex(),
				Name:          p.Name,
				Category:      p.Category,
				Price:         p.Price,
				ReviewCount:   p.ReviewCount,
				AverageRating: RoundAverage(p.TotalRatings, p.ReviewCount),
			})
		}
		if len(items) == 0 || int64(page*exportPageSize) >= total {
			break
		}
	}
	if rows == nil {
		rows = []ExportedProduct{}
	}

	body, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("catalog export: marshal: %w", err)
	}
	path := fmt.Sprintf("exports/catalog-%s.json", e.now().UTC().Format("20060102T150405Z"))
	if err := e.disk.Put(ctx, path, bytes.NewReader(body)); err != nil {
		return "", 0, err
	}
	return e.disk.URL(path), len(rows), nil
}
