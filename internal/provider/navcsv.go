package provider

import (
	"datdash/internal/domain"
	"datdash/internal/util"
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

type navOverrideRow struct {
	Date        string  `csv:"date"`
	NavPerShare float64 `csv:"nav_per_share"`
}

// LoadNavOverride reads a historical NAV-per-share series from csv. Used
// when a company publishes audited NAV figures that should replace the
// computed series.
func LoadNavOverride(path string) ([]domain.PricePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open nav override %s: %w", path, err)
	}
	defer f.Close()

	rows := []navOverrideRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("malformed nav override %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("nav override %s has no rows", path)
	}

	points := []domain.PricePoint{}
	for _, row := range rows {
		date, err := time.Parse(time.DateOnly, row.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q in nav override %s: %w", row.Date, path, err)
		}
		points = append(points, domain.PricePoint{
			Date:  util.TruncateToDate(date),
			Value: decimal.NewFromFloat(row.NavPerShare),
		})
	}

	return normalizePoints(points), nil
}
