package fetch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"gorm.io/gorm"
)

// InventoryFetcher reads all active products and summarizes record count and
// the number of items at or below their minimum stock.
type InventoryFetcher struct {
	db  *gorm.DB
	now func() time.Time
}

func NewInventoryFetcher(db *gorm.DB) *InventoryFetcher {
	return &InventoryFetcher{db: db, now: time.Now}
}

func (f *InventoryFetcher) Fetch(ctx context.Context, params map[string]interface{}) (*models.ReportData, error) {
	var products []models.Product
	if err := f.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %v", err)
	}

	lowStock := 0
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		if p.LowStock() {
			lowStock++
		}
		rows = append(rows, []string{
			p.Name,
			p.Category,
			p.Supplier,
			strconv.Itoa(p.AvailableStock),
			strconv.Itoa(p.MinStock),
			p.Price.StringFixed(2),
		})
	}

	now := f.now()
	return &models.ReportData{
		Period:      now.Format("2006-01-02"),
		GeneratedAt: now,
		Columns:     []string{"Product", "Category", "Supplier", "Stock", "Min Stock", "Price"},
		Rows:        rows,
		Summary: models.ReportSummary{
			TotalRecords:   len(products),
			LowStockItems:  &lowStock,
			FiltersApplied: []string{"category", "supplier", "active"},
		},
	}, nil
}
