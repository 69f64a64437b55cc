package provider

import (
	"context"
	"datdash/internal/domain"
	"datdash/internal/util"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

// NewYahooProvider returns a DataSource backed by Yahoo Finance daily bars.
// It serves share-price and benchmark-price kinds; crypto benchmarks use
// Yahoo's pair symbols, e.g. SOL-USD.
func NewYahooProvider() DataSource {
	return &yahooProviderHandler{}
}

type yahooProviderHandler struct{}

func (h yahooProviderHandler) Fetch(ctx context.Context, symbol string, kind domain.SeriesKind, r domain.DateRange) ([]domain.PricePoint, error) {
	if kind != domain.SeriesKindSharePrice && kind != domain.SeriesKindBenchmarkPrice {
		return nil, &domain.DataUnavailableError{
			Symbol: symbol,
			Kind:   kind,
			Err:    fmt.Errorf("yahoo provider does not serve %s series", kind),
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.DataUnavailableError{Symbol: symbol, Kind: kind, Err: err}
	}

	start := r.Start
	end := r.End
	params := &chart.Params{
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Symbol:   symbol,
		Interval: datetime.OneDay,
	}
	// chart.Get carries no context, so cancellation is only observed before
	// the request goes out
	iter := chart.Get(params)

	points := []domain.PricePoint{}
	for iter.Next() {
		points = append(points, domain.PricePoint{
			Date:  util.TruncateToDate(time.Unix(int64(iter.Bar().Timestamp), 0)),
			Value: iter.Bar().AdjClose,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, &domain.DataUnavailableError{
			Symbol: symbol,
			Kind:   kind,
			Err:    fmt.Errorf("failed to get prices: %w", err),
		}
	}
	if len(points) == 0 {
		return nil, &domain.DataUnavailableError{
			Symbol: symbol,
			Kind:   kind,
			Err:    fmt.Errorf("no bars returned between %s and %s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly)),
		}
	}

	return normalizePoints(points), nil
}
