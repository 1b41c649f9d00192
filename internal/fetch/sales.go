package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesFetcher reads sale records in the report window and summarizes record
// count and total amount in the store's native currency.
type SalesFetcher struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSalesFetcher(db *gorm.DB) *SalesFetcher {
	return &SalesFetcher{db: db, now: time.Now}
}

func (f *SalesFetcher) Fetch(ctx context.Context, params map[string]interface{}) (*models.ReportData, error) {
	start, end, err := reportWindow(params, f.now())
	if err != nil {
		return nil, err
	}

	var sales []models.Sale
	if err := f.db.WithContext(ctx).
		Where("sale_date BETWEEN ? AND ?", start, end).
		Order("sale_date desc").
		Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch sales: %v", err)
	}

	total := decimal.Zero
	rows := make([][]string, 0, len(sales))
	for _, sale := range sales {
		total = total.Add(sale.Total)
		rows = append(rows, []string{
			sale.SaleDate.Format("2006-01-02"),
			sale.CustomerName,
			sale.Status,
			sale.Total.StringFixed(2),
		})
	}

	return &models.ReportData{
		Period:      formatPeriod(start, end),
		GeneratedAt: f.now(),
		Columns:     []string{"Date", "Customer", "Status", "Total"},
		Rows:        rows,
		Summary: models.ReportSummary{
			TotalRecords:   len(sales),
			TotalAmount:    &total,
			Currency:       "USD",
			FiltersApplied: []string{"date range", "status"},
		},
	}, nil
}
