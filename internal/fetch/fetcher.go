package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"gorm.io/gorm"
)

// Fetcher pulls raw records from the store and computes a summary for one
// report type. A fetch failure is surfaced as an error, never as an empty
// result dressed as success.
type Fetcher interface {
	Fetch(ctx context.Context, params map[string]interface{}) (*models.ReportData, error)
}

// Registry maps report types to fetch strategies.
type Registry struct {
	fetchers map[models.ReportType]Fetcher
}

// NewRegistry builds a registry with the built-in sales, inventory and
// financial strategies. Custom-type fetchers are registered by the host.
func NewRegistry(db *gorm.DB) *Registry {
	r := &Registry{fetchers: make(map[models.ReportType]Fetcher)}
	r.Register(models.ReportTypeSales, NewSalesFetcher(db))
	r.Register(models.ReportTypeInventory, NewInventoryFetcher(db))
	r.Register(models.ReportTypeFinancial, NewFinancialFetcher(db))
	return r
}

func (r *Registry) Register(t models.ReportType, f Fetcher) {
	r.fetchers[t] = f
}

func (r *Registry) Get(t models.ReportType) (Fetcher, error) {
	f, ok := r.fetchers[t]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for report type %q", t)
	}
	return f, nil
}

// reportWindow resolves the [startDate, endDate] parameters, defaulting to
// the trailing 30 days when unset.
func reportWindow(params map[string]interface{}, now time.Time) (time.Time, time.Time, error) {
	start := now.AddDate(0, 0, -30)
	end := now

	if v, ok := params["startDate"]; ok {
		t, err := parseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate: %v", err)
		}
		start = t
	}
	if v, ok := params["endDate"]; ok {
		t, err := parseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate: %v", err)
		}
		end = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("endDate %s is before startDate %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return start, end, nil
}

func parseDate(v interface{}) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		if t, err := time.Parse(time.RFC3339, d); err == nil {
			return t, nil
		}
		if t, err := time.Parse("2006-01-02", d); err == nil {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", d)
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %v", v)
	}
}

func formatPeriod(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
}
