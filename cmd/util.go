package cmd

import (
	"datdash/api"
	"datdash/internal"
	"datdash/internal/app"
	"datdash/internal/domain"
	"datdash/internal/provider"
	"datdash/internal/registry"
	"fmt"
	"time"
)

// InitializeDependencies wires the full graph from settings: registry,
// provider chain (market + holdings routed by kind, wrapped in retry then
// cache), metric engine, comparison builder, api handler.
func InitializeDependencies() (*api.ApiHandler, *internal.Settings, error) {
	settings, err := internal.LoadSettings()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var marketSource provider.DataSource
	switch settings.MarketProvider {
	case "yahoo":
		marketSource = provider.NewYahooProvider()
	case "alpaca":
		if settings.Alpaca == nil {
			return nil, nil, fmt.Errorf("marketProvider is alpaca but no alpaca credentials configured")
		}
		marketSource = provider.NewAlpacaProvider(settings.Alpaca.ApiKey, settings.Alpaca.ApiSecret)
	default:
		return nil, nil, fmt.Errorf("unknown market provider %q", settings.MarketProvider)
	}

	holdingsProvider := provider.NewHoldingsProvider(settings.HoldingsFile)

	source := provider.NewKindRouter(map[domain.SeriesKind]provider.DataSource{
		domain.SeriesKindSharePrice:        marketSource,
		domain.SeriesKindBenchmarkPrice:    marketSource,
		domain.SeriesKindTreasuryHoldings:  holdingsProvider,
		domain.SeriesKindSharesOutstanding: holdingsProvider,
	})
	source = provider.NewRetryingSource(source, settings.FetchRetries, 0)
	source = provider.NewCachingSource(source, time.Duration(settings.CacheTtlSeconds)*time.Second)

	comparisonHandler := app.ComparisonHandler{
		Registry:             registry.NewDirectoryRegistry(settings.ConfigsDir),
		Source:               source,
		BalanceSheets:        holdingsProvider,
		MetricEngine:         internal.NewMetricEngine(),
		Calendar:             internal.NewTradingCalendar(),
		MaxConcurrentFetches: settings.MaxConcurrentFetches,
		Timeout:              time.Duration(settings.BuildTimeoutSeconds) * time.Second,
	}

	return &api.ApiHandler{
		ComparisonHandler: comparisonHandler,
		Registry:          comparisonHandler.Registry,
	}, settings, nil
}
