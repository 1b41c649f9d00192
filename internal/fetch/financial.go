package fetch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FinancialFetcher reads the same sale window as the sales fetcher but
// summarizes aggregate totals per day without per-line detail.
type FinancialFetcher struct {
	db  *gorm.DB
	now func() time.Time
}

func NewFinancialFetcher(db *gorm.DB) *FinancialFetcher {
	return &FinancialFetcher{db: db, now: time.Now}
}

func (f *FinancialFetcher) Fetch(ctx context.Context, params map[string]interface{}) (*models.ReportData, error) {
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

	type dayTotal struct {
		orders  int
		revenue decimal.Decimal
	}
	days := make(map[string]*dayTotal)
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.Total)
		day := sale.SaleDate.Format("2006-01-02")
		dt, ok := days[day]
		if !ok {
			dt = &dayTotal{}
			days[day] = dt
		}
		dt.orders++
		dt.revenue = dt.revenue.Add(sale.Total)
	}

	keys := make([]string, 0, len(days))
	for day := range days {
		keys = append(keys, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	rows := make([][]string, 0, len(keys))
	for _, day := range keys {
		rows = append(rows, []string{
			day,
			strconv.Itoa(days[day].orders),
			days[day].revenue.StringFixed(2),
		})
	}

	return &models.ReportData{
		Period:      formatPeriod(start, end),
		GeneratedAt: f.now(),
		Columns:     []string{"Date", "Orders", "Revenue"},
		Rows:        rows,
		Summary: models.ReportSummary{
			TotalRecords:   len(sales),
			TotalAmount:    &total,
			Currency:       "USD",
			FiltersApplied: []string{"period"},
		},
	}, nil
}
