package provider

import (
	"context"
	"datdash/internal/domain"
	"datdash/internal/util"
	"fmt"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// NewAlpacaProvider returns a DataSource backed by alpaca market data.
// Equity symbols go through the stock bars endpoint; benchmark symbols in
// pair form (e.g. SOL-USD) go through crypto bars.
func NewAlpacaProvider(apiKey, apiSecret string) DataSource {
	mdClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})

	return &alpacaProviderHandler{
		MdClient: mdClient,
	}
}

type alpacaProviderHandler struct {
	MdClient *marketdata.Client
}

func (h alpacaProviderHandler) Fetch(ctx context.Context, symbol string, kind domain.SeriesKind, r domain.DateRange) ([]domain.PricePoint, error) {
	if kind != domain.SeriesKindSharePrice && kind != domain.SeriesKindBenchmarkPrice {
		return nil, &domain.DataUnavailableError{
			Symbol: symbol,
			Kind:   kind,
			Err:    fmt.Errorf("alpaca provider does not serve %s series", kind),
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.DataUnavailableError{Symbol: symbol, Kind: kind, Err: err}
	}

	points := []domain.PricePoint{}
	if kind == domain.SeriesKindBenchmarkPrice && strings.Contains(symbol, "-") {
		// SOL-USD -> SOL/USD
		pair := strings.Replace(symbol, "-", "/", 1)
		bars, err := h.MdClient.GetCryptoBars(pair, marketdata.GetCryptoBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     r.Start,
			End:       r.End,
		})
		if err != nil {
			return nil, &domain.DataUnavailableError{Symbol: symbol, Kind: kind, Err: err}
		}
		for _, bar := range bars {
			points = append(points, domain.PricePoint{
				Date:  util.TruncateToDate(bar.Timestamp),
				Value: decimal.NewFromFloat(bar.Close),
			})
		}
	} else {
		bars, err := h.MdClient.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame:  marketdata.OneDay,
			Adjustment: marketdata.Split,
			Start:      r.Start,
			End:        r.End,
		})
		if err != nil {
			return nil, &domain.DataUnavailableError{Symbol: symbol, Kind: kind, Err: err}
		}
		for _, bar := range bars {
			points = append(points, domain.PricePoint{
				Date:  util.TruncateToDate(bar.Timestamp),
				Value: decimal.NewFromFloat(bar.Close),
			})
		}
	}

	if len(points) == 0 {
		return nil, &domain.DataUnavailableError{
			Symbol: symbol,
			Kind:   kind,
			Err:    fmt.Errorf("no bars returned"),
		}
	}

	return normalizePoints(points), nil
}
