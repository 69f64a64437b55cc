package app

import (
	"context"
	"datdash/internal"
	"datdash/internal/domain"
	mock_provider "datdash/internal/provider/mocks"
	"datdash/internal/util"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.Equal(b)
})

type fakeRegistry struct {
	configs []domain.EcosystemConfig
	err     error
}

func (f fakeRegistry) Discover(ctx context.Context) ([]domain.EcosystemConfig, error) {
	return f.configs, f.err
}

type fakeBalanceSheets struct {
	sheets map[string]*domain.BalanceSheet
}

func (f fakeBalanceSheets) BalanceSheet(ecosystemID, ticker string) (*domain.BalanceSheet, error) {
	sheet, ok := f.sheets[ticker]
	if !ok {
		return nil, fmt.Errorf("no balance sheet for %s", ticker)
	}
	return sheet, nil
}

func point(year, month, day int, value float64) domain.PricePoint {
	return domain.PricePoint{
		Date:  util.NewDate(year, month, day),
		Value: decimal.NewFromFloat(value),
	}
}

func solanaConfig() domain.EcosystemConfig {
	return domain.EcosystemConfig{
		ID:                   "solana",
		Name:                 "Solana",
		BenchmarkSymbol:      "SOL",
		BenchmarkQuoteSymbol: "SOL-USD",
		YtdBaseDate:          util.NewDate(2026, 1, 5),
		CorrelationWindow:    5,
		Companies: []domain.CompanyConfig{
			{Ticker: "ABCD", DisplayName: "ABCD", TreasuryAssetSymbol: "SOL"},
			{Ticker: "BADCO", DisplayName: "BADCO", TreasuryAssetSymbol: "SOL"},
		},
	}
}

// wires the mock source with healthy data for ABCD and the benchmark, and a
// failing share price fetch for BADCO
func healthySource(t *testing.T) *mock_provider.MockDataSource {
	t.Helper()
	ctrl := gomock.NewController(t)
	source := mock_provider.NewMockDataSource(ctrl)

	source.EXPECT().
		Fetch(gomock.Any(), "SOL-USD", domain.SeriesKindBenchmarkPrice, gomock.Any()).
		Return([]domain.PricePoint{
			point(2026, 1, 5, 100),
			point(2026, 1, 6, 101),
			point(2026, 1, 7, 102),
		}, nil).
		AnyTimes()

	source.EXPECT().
		Fetch(gomock.Any(), "ABCD", domain.SeriesKindSharePrice, gomock.Any()).
		Return([]domain.PricePoint{
			point(2026, 1, 5, 10),
			point(2026, 1, 6, 10),
			point(2026, 1, 7, 11),
		}, nil).
		AnyTimes()
	source.EXPECT().
		Fetch(gomock.Any(), "ABCD", domain.SeriesKindTreasuryHoldings, gomock.Any()).
		Return([]domain.PricePoint{
			point(2026, 1, 5, 1000),
			point(2026, 1, 7, 1000),
		}, nil).
		AnyTimes()
	source.EXPECT().
		Fetch(gomock.Any(), "ABCD", domain.SeriesKindSharesOutstanding, gomock.Any()).
		Return([]domain.PricePoint{
			point(2026, 1, 5, 50),
			point(2026, 1, 7, 50),
		}, nil).
		AnyTimes()

	source.EXPECT().
		Fetch(gomock.Any(), "BADCO", domain.SeriesKindSharePrice, gomock.Any()).
		Return(nil, &domain.DataUnavailableError{
			Symbol: "BADCO",
			Kind:   domain.SeriesKindSharePrice,
			Err:    fmt.Errorf("no quote"),
		}).
		AnyTimes()
	source.EXPECT().
		Fetch(gomock.Any(), "BADCO", gomock.Any(), gomock.Any()).
		Return([]domain.PricePoint{
			point(2026, 1, 5, 500),
			point(2026, 1, 7, 500),
		}, nil).
		AnyTimes()

	return source
}

func newHandler(source *mock_provider.MockDataSource, configs ...domain.EcosystemConfig) ComparisonHandler {
	return ComparisonHandler{
		Registry: fakeRegistry{configs: configs},
		Source:   source,
		BalanceSheets: fakeBalanceSheets{sheets: map[string]*domain.BalanceSheet{
			"ABCD": {
				TotalCash: decimal.NewFromInt(1000),
				TotalDebt: decimal.Zero,
			},
		}},
		MetricEngine:         internal.NewMetricEngine(),
		Calendar:             internal.NewTradingCalendar(),
		MaxConcurrentFetches: 4,
	}
}

func Test_ComparisonHandler_Build(t *testing.T) {
	ctx := context.Background()
	asOf := util.NewDate(2026, 1, 7)

	t.Run("one failing company never takes down its siblings", func(t *testing.T) {
		handler := newHandler(healthySource(t), solanaConfig())

		out, err := handler.Build(ctx, BuildInput{AsOf: asOf})
		require.NoError(t, err)
		require.Len(t, out, 1)

		report := out["solana"]
		require.NotNil(t, report)

		require.NotNil(t, report.Benchmark)
		require.Equal(t, "SOL", report.Benchmark.Symbol)
		require.InDelta(t, 0.02, report.Benchmark.YtdReturn.InexactFloat64(), 0.0001)

		abcd := report.Companies["ABCD"]
		require.Equal(t, domain.CompanyStatusAvailable, abcd.Status)
		require.Len(t, abcd.NavPerShare, 3)
		// (1000 sol x $100 + $1000 cash) / 50 shares
		require.NotNil(t, abcd.NavPerShare[0])
		require.InDelta(t, 2020.0, abcd.NavPerShare[0].InexactFloat64(), 0.0001)
		require.NotNil(t, abcd.YtdReturn)
		require.InDelta(t, 0.1, abcd.YtdReturn.InexactFloat64(), 0.0001)

		badco := report.Companies["BADCO"]
		require.Equal(t, domain.CompanyStatusUnavailable, badco.Status)
		require.NotEmpty(t, badco.StatusReason)
		require.Nil(t, badco.Aligned)
	})

	t.Run("identical inputs build identical reports", func(t *testing.T) {
		handler := newHandler(healthySource(t), solanaConfig())

		first, err := handler.Build(ctx, BuildInput{AsOf: asOf})
		require.NoError(t, err)
		second, err := handler.Build(ctx, BuildInput{AsOf: asOf})
		require.NoError(t, err)

		require.Equal(t, "", cmp.Diff(first, second, decimalComparer))
	})

	t.Run("filters to the requested ecosystem ids", func(t *testing.T) {
		other := solanaConfig()
		other.ID = "ethereum"
		other.BenchmarkQuoteSymbol = "ETH-USD"
		handler := newHandler(healthySource(t), solanaConfig(), other)

		out, err := handler.Build(ctx, BuildInput{
			AsOf:         asOf,
			EcosystemIDs: []string{"solana"},
		})
		require.NoError(t, err)
		require.Len(t, out, 1)
		require.NotNil(t, out["solana"])
	})

	t.Run("a benchmark failure marks every company unavailable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_provider.NewMockDataSource(ctrl)
		source.EXPECT().
			Fetch(gomock.Any(), "SOL-USD", domain.SeriesKindBenchmarkPrice, gomock.Any()).
			Return(nil, &domain.DataUnavailableError{
				Symbol: "SOL-USD",
				Kind:   domain.SeriesKindBenchmarkPrice,
				Err:    fmt.Errorf("provider down"),
			}).
			AnyTimes()
		source.EXPECT().
			Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]domain.PricePoint{point(2026, 1, 5, 1)}, nil).
			AnyTimes()

		handler := newHandler(source, solanaConfig())
		out, err := handler.Build(ctx, BuildInput{AsOf: asOf})
		require.NoError(t, err)

		report := out["solana"]
		require.Nil(t, report.Benchmark)
		for ticker, company := range report.Companies {
			require.Equal(t, domain.CompanyStatusUnavailable, company.Status, ticker)
		}
	})

	t.Run("an expired timeout abandons fetches and marks companies unavailable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		source := mock_provider.NewMockDataSource(ctrl)
		source.EXPECT().
			Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, symbol string, kind domain.SeriesKind, r domain.DateRange) ([]domain.PricePoint, error) {
				<-ctx.Done()
				return nil, &domain.DataUnavailableError{Symbol: symbol, Kind: kind, Err: ctx.Err()}
			}).
			AnyTimes()

		handler := newHandler(source, solanaConfig())
		handler.Timeout = 50 * time.Millisecond

		started := time.Now()
		out, err := handler.Build(ctx, BuildInput{AsOf: asOf})
		require.NoError(t, err)
		require.Less(t, time.Since(started), 5*time.Second)

		report := out["solana"]
		require.Nil(t, report.Benchmark)
		require.Len(t, report.Companies, 2)
		for ticker, company := range report.Companies {
			require.Equal(t, domain.CompanyStatusUnavailable, company.Status, ticker)
			require.NotEmpty(t, company.StatusReason, ticker)
		}
	})

	t.Run("a weekend ytd base date snaps back to the prior trading day", func(t *testing.T) {
		config := solanaConfig()
		config.YtdBaseDate = util.NewDate(2026, 1, 4) // sunday
		handler := newHandler(healthySource(t), config)

		out, err := handler.Build(ctx, BuildInput{AsOf: asOf})
		require.NoError(t, err)
		require.Equal(t, util.NewDate(2026, 1, 2), out["solana"].Ecosystem.YtdBaseDate)
	})

	t.Run("zero discovered ecosystems is an error", func(t *testing.T) {
		handler := newHandler(healthySource(t))
		_, err := handler.Build(ctx, BuildInput{AsOf: asOf})
		require.Error(t, err)
	})

	t.Run("an unknown filter id is an error", func(t *testing.T) {
		handler := newHandler(healthySource(t), solanaConfig())
		_, err := handler.Build(ctx, BuildInput{
			AsOf:         asOf,
			EcosystemIDs: []string{"dogecoin"},
		})
		require.Error(t, err)
	})

	t.Run("discovery failure propagates", func(t *testing.T) {
		handler := newHandler(healthySource(t), solanaConfig())
		handler.Registry = fakeRegistry{err: &domain.ConfigError{Path: "configs", Err: fmt.Errorf("unreadable")}}

		_, err := handler.Build(ctx, BuildInput{AsOf: asOf})
		require.Error(t, err)
	})
}
