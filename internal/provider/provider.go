package provider

import (
	"context"
	"datdash/internal/domain"
	"fmt"
	"sort"
)

// DataSource fetches one raw time series. Implementations must be safe for
// concurrent calls on distinct symbols and must return points with strictly
// increasing, unique dates.
type DataSource interface {
	Fetch(ctx context.Context, symbol string, kind domain.SeriesKind, r domain.DateRange) ([]domain.PricePoint, error)
}

// BalanceSheetSource exposes the latest cash/debt snapshot for a company,
// used for debt-adjusted NAV. Separate from DataSource because these are
// point-in-time filings values, not series.
type BalanceSheetSource interface {
	BalanceSheet(ecosystemID, ticker string) (*domain.BalanceSheet, error)
}

// NewKindRouter dispatches fetches to a source per series kind. Market
// prices (share + benchmark) and treasury figures (holdings + shares
// outstanding) typically come from different providers.
func NewKindRouter(routes map[domain.SeriesKind]DataSource) DataSource {
	return &kindRouterHandler{routes: routes}
}

type kindRouterHandler struct {
	routes map[domain.SeriesKind]DataSource
}

func (h kindRouterHandler) Fetch(ctx context.Context, symbol string, kind domain.SeriesKind, r domain.DateRange) ([]domain.PricePoint, error) {
	source, ok := h.routes[kind]
	if !ok {
		return nil, &domain.DataUnavailableError{
			Symbol: symbol,
			Kind:   kind,
			Err:    fmt.Errorf("no source registered for kind %s", kind),
		}
	}
	return source.Fetch(ctx, symbol, kind, r)
}

// normalizePoints sorts by date and drops duplicate dates, keeping the last
// observation for a date. Providers occasionally return the in-flight bar
// twice.
func normalizePoints(points []domain.PricePoint) []domain.PricePoint {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	out := []domain.PricePoint{}
	for _, p := range points {
		if len(out) > 0 && out[len(out)-1].Date.Equal(p.Date) {
			out[len(out)-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}
