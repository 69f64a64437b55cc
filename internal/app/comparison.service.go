package app

import (
	"context"
	"datdash/internal"
	"datdash/internal/domain"
	"datdash/internal/logger"
	"datdash/internal/provider"
	"datdash/internal/registry"
	"datdash/internal/util"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ComparisonHandler orchestrates one dashboard refresh: discover configs,
// fetch every required series, align, compute metrics, assemble one report
// per ecosystem. Per-company failures downgrade to an unavailable status and
// never abort siblings; the call itself fails only when discovery fails or
// yields zero ecosystems.
type ComparisonHandler struct {
	Registry      registry.ConfigRegistry
	Source        provider.DataSource
	BalanceSheets provider.BalanceSheetSource
	MetricEngine  internal.MetricEngine
	Calendar      *internal.TradingCalendar

	// fetch concurrency across all companies and ecosystems, to respect
	// provider rate limits
	MaxConcurrentFetches int

	// overall build budget. zero means no timeout. on expiry, in-flight
	// fetches are abandoned and late companies come back unavailable.
	Timeout time.Duration
}

type BuildInput struct {
	// AsOf is the refresh timestamp; series are fetched up to this date.
	// Passed in explicitly so rebuilds with identical inputs are
	// bit-identical.
	AsOf time.Time

	// EcosystemIDs optionally narrows the build. Empty means all.
	EcosystemIDs []string
}

func (h ComparisonHandler) Build(ctx context.Context, in BuildInput) (map[string]*domain.ComparisonReport, error) {
	log := logger.FromContext(ctx)

	configs, err := h.Registry.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("config discovery failed: %w", err)
	}
	if len(in.EcosystemIDs) > 0 {
		wanted := map[string]bool{}
		for _, id := range in.EcosystemIDs {
			wanted[id] = true
		}
		filtered := []domain.EcosystemConfig{}
		for _, config := range configs {
			if wanted[config.ID] {
				filtered = append(filtered, config)
			}
		}
		configs = filtered
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("no valid ecosystem configs discovered")
	}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	maxFetches := h.MaxConcurrentFetches
	if maxFetches <= 0 {
		maxFetches = 8
	}
	sem := make(chan struct{}, maxFetches)

	out := map[string]*domain.ComparisonReport{}
	var outMu sync.Mutex

	var wg sync.WaitGroup
	for _, config := range configs {
		wg.Add(1)
		go func(config domain.EcosystemConfig) {
			defer wg.Done()
			report := h.buildEcosystem(ctx, config, in.AsOf, sem)
			outMu.Lock()
			out[config.ID] = report
			outMu.Unlock()
		}(config)
	}
	wg.Wait()

	log.Infof("built comparison reports for %d ecosystem(s)", len(out))
	return out, nil
}

func (h ComparisonHandler) buildEcosystem(ctx context.Context, config domain.EcosystemConfig, asOf time.Time, sem chan struct{}) *domain.ComparisonReport {
	log := logger.FromContext(ctx)

	// a weekend or holiday base date has no bar of its own; snap it back to
	// the prior trading day before sizing the window and rebasing ytd
	config.YtdBaseDate = h.Calendar.SnapToTradingDay(config.YtdBaseDate)

	report := &domain.ComparisonReport{
		Ecosystem: config,
		Companies: map[string]domain.CompanyMetrics{},
	}

	dateRange := domain.DateRange{
		Start: h.Calendar.LookbackStart(config.YtdBaseDate, config.CorrelationWindow),
		End:   util.TruncateToDate(asOf),
	}

	// the benchmark series is shared by every company in the ecosystem, so
	// fetch it once and treat it as read-only afterwards
	benchmarkPoints, benchmarkErr := h.fetch(ctx, sem, config.BenchmarkQuoteSymbol, domain.SeriesKindBenchmarkPrice, dateRange)
	if benchmarkErr == nil {
		report.Benchmark = benchmarkSummary(config, benchmarkPoints)
	}

	var wg sync.WaitGroup
	var companiesMu sync.Mutex
	for _, company := range config.Companies {
		wg.Add(1)
		go func(company domain.CompanyConfig) {
			defer wg.Done()

			metrics := h.buildCompany(ctx, config, company, dateRange, benchmarkPoints, benchmarkErr, sem)
			companiesMu.Lock()
			report.Companies[company.Ticker] = *metrics
			companiesMu.Unlock()

			if metrics.Status == domain.CompanyStatusUnavailable {
				log.Warnf("company %s in ecosystem %s unavailable: %s", company.Ticker, config.ID, metrics.StatusReason)
			}
		}(company)
	}
	wg.Wait()

	return report
}

// buildCompany runs the full per-company pipeline: fetch, join, align,
// compute. Any failure becomes an unavailable status here.
func (h ComparisonHandler) buildCompany(
	ctx context.Context,
	config domain.EcosystemConfig,
	company domain.CompanyConfig,
	dateRange domain.DateRange,
	benchmarkPoints []domain.PricePoint,
	benchmarkErr error,
	sem chan struct{},
) *domain.CompanyMetrics {
	unavailable := func(err error) *domain.CompanyMetrics {
		return &domain.CompanyMetrics{
			Ticker:       company.Ticker,
			Config:       company,
			Status:       domain.CompanyStatusUnavailable,
			StatusReason: err.Error(),
		}
	}

	if benchmarkErr != nil {
		return unavailable(fmt.Errorf("benchmark %s unavailable: %w", config.BenchmarkSymbol, benchmarkErr))
	}

	type seriesRequest struct {
		slot   string
		symbol string
		kind   domain.SeriesKind
	}
	requests := []seriesRequest{
		{slot: internal.SlotSharePrice, symbol: company.Ticker, kind: domain.SeriesKindSharePrice},
	}
	if company.NavOverrideFile == "" {
		sharesSymbol := company.Ticker
		if company.SharesOutstandingSource != "" {
			sharesSymbol = company.SharesOutstandingSource
		}
		requests = append(requests,
			seriesRequest{slot: internal.SlotTreasuryHoldings, symbol: company.Ticker, kind: domain.SeriesKindTreasuryHoldings},
			seriesRequest{slot: internal.SlotSharesOutstanding, symbol: sharesSymbol, kind: domain.SeriesKindSharesOutstanding},
		)
	}

	// each (symbol, kind) fetch runs independently; the company joins on
	// all of them before aligning
	type fetchResult struct {
		slot   string
		points []domain.PricePoint
		err    error
	}
	results := make([]fetchResult, len(requests))
	var wg sync.WaitGroup
	for i, request := range requests {
		wg.Add(1)
		go func(i int, request seriesRequest) {
			defer wg.Done()
			points, err := h.fetch(ctx, sem, request.symbol, request.kind, dateRange)
			results[i] = fetchResult{slot: request.slot, points: points, err: err}
		}(i, request)
	}
	wg.Wait()

	inputs := map[string]domain.Series{
		internal.SlotBenchmarkPrice: {
			Symbol: config.BenchmarkSymbol,
			Kind:   domain.SeriesKindBenchmarkPrice,
			Points: benchmarkPoints,
		},
	}
	for _, result := range results {
		if result.err != nil {
			return unavailable(result.err)
		}
		inputs[result.slot] = domain.Series{
			Symbol: company.Ticker,
			Points: result.points,
		}
	}

	if company.NavOverrideFile != "" {
		points, err := provider.LoadNavOverride(company.NavOverrideFile)
		if err != nil {
			return unavailable(&domain.DataUnavailableError{
				Symbol: company.Ticker,
				Kind:   domain.SeriesKindTreasuryHoldings,
				Err:    err,
			})
		}
		inputs[internal.SlotNavOverride] = domain.Series{
			Symbol: company.Ticker,
			Points: points,
		}
	}

	aligned, err := internal.AlignSeries(inputs)
	if err != nil {
		return unavailable(err)
	}

	var balanceSheet *domain.BalanceSheet
	if h.BalanceSheets != nil && company.NavOverrideFile == "" {
		balanceSheet, err = h.BalanceSheets.BalanceSheet(config.ID, company.Ticker)
		if err != nil {
			// nav degrades to unadjusted, not unavailable
			logger.FromContext(ctx).Warnf("no balance sheet for %s: %s", company.Ticker, err.Error())
			balanceSheet = nil
		}
	}

	metrics, err := h.MetricEngine.Compute(internal.ComputeMetricsInput{
		Aligned:      aligned,
		Company:      company,
		Ecosystem:    config,
		BalanceSheet: balanceSheet,
	})
	if err != nil {
		return unavailable(err)
	}

	return metrics
}

// fetch acquires a slot in the bounded pool, then delegates to the source.
// A timed-out wait surfaces as DataUnavailable so the company is flagged,
// not the whole report.
func (h ComparisonHandler) fetch(ctx context.Context, sem chan struct{}, symbol string, kind domain.SeriesKind, r domain.DateRange) ([]domain.PricePoint, error) {
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, &domain.DataUnavailableError{Symbol: symbol, Kind: kind, Err: ctx.Err()}
	}
	defer func() { <-sem }()

	return h.Source.Fetch(ctx, symbol, kind, r)
}

func benchmarkSummary(config domain.EcosystemConfig, points []domain.PricePoint) *domain.BenchmarkSummary {
	if len(points) == 0 {
		return nil
	}

	baseIdx := -1
	for i, p := range points {
		if p.Date.After(config.YtdBaseDate) {
			break
		}
		baseIdx = i
	}
	if baseIdx == -1 {
		baseIdx = 0
	}

	base := points[baseIdx].Value
	current := points[len(points)-1].Value
	if base.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	return &domain.BenchmarkSummary{
		Symbol:       config.BenchmarkSymbol,
		BasePrice:    base,
		CurrentPrice: current,
		YtdReturn:    current.Div(base).Sub(decimal.NewFromInt(1)),
	}
}
