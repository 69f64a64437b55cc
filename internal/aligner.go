package internal

import (
	"datdash/internal/domain"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// slot names used when aligning a company's series
const (
	SlotSharePrice        = string(domain.SeriesKindSharePrice)
	SlotSharesOutstanding = string(domain.SeriesKindSharesOutstanding)
	SlotTreasuryHoldings  = string(domain.SeriesKindTreasuryHoldings)
	SlotBenchmarkPrice    = string(domain.SeriesKindBenchmarkPrice)
	SlotNavOverride       = "nav_override"
)

// AlignSeries normalizes heterogeneous series onto one date index. The index
// covers the intersection of the ranges actually covered by every input (no
// extrapolating before a series starts), and within that window takes the
// union of observed dates. Gaps are forward-filled from the most recent
// prior value; a date with no prior value gets a nil marker.
//
// Output is fully determined by the inputs - same series in, byte-identical
// AlignedSeries out.
func AlignSeries(inputs map[string]domain.Series) (*domain.AlignedSeries, error) {
	if len(inputs) == 0 {
		return nil, &domain.InsufficientDataError{Reason: "no series to align"}
	}

	sorted := map[string][]domain.PricePoint{}
	var windowStart, windowEnd time.Time
	for name, series := range inputs {
		if len(series.Points) == 0 {
			return nil, &domain.InsufficientDataError{
				Reason: fmt.Sprintf("series %q (%s) has no points", name, series.Symbol),
			}
		}

		points := make([]domain.PricePoint, len(series.Points))
		copy(points, series.Points)
		sort.Slice(points, func(i, j int) bool {
			return points[i].Date.Before(points[j].Date)
		})
		sorted[name] = points

		first := points[0].Date
		last := points[len(points)-1].Date
		if windowStart.IsZero() || first.After(windowStart) {
			windowStart = first
		}
		if windowEnd.IsZero() || last.Before(windowEnd) {
			windowEnd = last
		}
	}

	if windowStart.After(windowEnd) {
		return nil, &domain.InsufficientDataError{
			Reason: fmt.Sprintf("no overlapping date range (latest series start %s is after earliest series end %s)",
				windowStart.Format(time.DateOnly), windowEnd.Format(time.DateOnly)),
		}
	}

	// union of observed dates inside the window
	dateSet := map[time.Time]bool{}
	for _, points := range sorted {
		for _, p := range points {
			if !p.Date.Before(windowStart) && !p.Date.After(windowEnd) {
				dateSet[p.Date] = true
			}
		}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	slots := map[string][]*decimal.Decimal{}
	for name, points := range sorted {
		values := make([]*decimal.Decimal, len(dates))
		i := 0
		var lastKnown *decimal.Decimal
		for di, d := range dates {
			for i < len(points) && !points[i].Date.After(d) {
				v := points[i].Value
				lastKnown = &v
				i++
			}
			values[di] = lastKnown
		}
		slots[name] = values
	}

	return &domain.AlignedSeries{
		Dates: dates,
		Slots: slots,
	}, nil
}
