package internal

import (
	"datdash/internal/domain"
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

type MetricEngine interface {
	Compute(in ComputeMetricsInput) (*domain.CompanyMetrics, error)
}

type ComputeMetricsInput struct {
	Aligned   *domain.AlignedSeries
	Company   domain.CompanyConfig
	Ecosystem domain.EcosystemConfig

	// latest cash/debt snapshot for debt-adjusted NAV. nil means no
	// adjustment.
	BalanceSheet *domain.BalanceSheet
}

func NewMetricEngine() MetricEngine {
	return metricEngineHandler{}
}

type metricEngineHandler struct{}

// Compute derives every comparison metric for one company on the aligned
// date index. No resampling happens here - every output series shares the
// input index.
func (h metricEngineHandler) Compute(in ComputeMetricsInput) (*domain.CompanyMetrics, error) {
	aligned := in.Aligned
	company := in.Company
	if aligned == nil || aligned.Len() == 0 {
		return nil, &domain.MetricComputationError{
			Ticker: company.Ticker,
			Reason: "empty aligned series",
		}
	}

	navPerShare, err := h.navPerShare(in)
	if err != nil {
		return nil, err
	}

	sharePrices := aligned.Slot(SlotSharePrice)
	benchPrices := aligned.Slot(SlotBenchmarkPrice)

	premium := premiumDiscount(sharePrices, navPerShare)

	relative, err := relativeReturn(company.Ticker, sharePrices, benchPrices)
	if err != nil {
		return nil, err
	}

	metrics := &domain.CompanyMetrics{
		Ticker:          company.Ticker,
		Config:          company,
		Status:          domain.CompanyStatusAvailable,
		Aligned:         aligned,
		NavPerShare:     navPerShare,
		PremiumDiscount: premium,
		RelativeReturn:  relative,
	}

	ytd, benchYtd := ytdReturns(aligned, sharePrices, benchPrices, in.Ecosystem)
	metrics.YtdReturn = ytd
	if ytd != nil && benchYtd != nil {
		// arithmetic difference vs the benchmark, same convention as the
		// table column on the dashboard
		rel := ytd.Sub(*benchYtd)
		metrics.RelativeYtdReturn = &rel
	}

	metrics.ReturnCorrelation = returnCorrelation(sharePrices, benchPrices, in.Ecosystem.CorrelationWindow)

	return metrics, nil
}

// navPerShare computes (holdings in benchmark units x benchmark price
// + cash - non-convertible debt) / shares outstanding per date. A csv
// override series wins when configured. Shares outstanding arrives
// forward-filled from the aligner - holding the last known value is the
// documented policy since share counts change on filings, not daily.
func (h metricEngineHandler) navPerShare(in ComputeMetricsInput) ([]*decimal.Decimal, error) {
	aligned := in.Aligned
	company := in.Company

	if override := aligned.Slot(SlotNavOverride); override != nil {
		return override, nil
	}

	rate := one
	if company.TreasuryAssetSymbol != in.Ecosystem.BenchmarkSymbol {
		if company.ConversionRate == nil {
			return nil, &domain.MetricComputationError{
				Ticker: company.Ticker,
				Reason: fmt.Sprintf("treasury asset %s cannot be priced against benchmark %s (no conversion rate)",
					company.TreasuryAssetSymbol, in.Ecosystem.BenchmarkSymbol),
			}
		}
		rate = *company.ConversionRate
	}

	holdings := aligned.Slot(SlotTreasuryHoldings)
	shares := aligned.Slot(SlotSharesOutstanding)
	benchPrices := aligned.Slot(SlotBenchmarkPrice)
	if holdings == nil || shares == nil || benchPrices == nil {
		return nil, &domain.MetricComputationError{
			Ticker: company.Ticker,
			Reason: "missing holdings, shares outstanding or benchmark series",
		}
	}

	netCash := decimal.Zero
	if in.BalanceSheet != nil {
		nonConvertibleDebt := decimal.Zero
		if company.ConvertibleDebt != nil {
			nonConvertibleDebt = decimal.Max(decimal.Zero, in.BalanceSheet.TotalDebt.Sub(*company.ConvertibleDebt))
		}
		netCash = in.BalanceSheet.TotalCash.Sub(nonConvertibleDebt)
	}

	out := make([]*decimal.Decimal, aligned.Len())
	for i := range aligned.Dates {
		if holdings[i] == nil || shares[i] == nil || benchPrices[i] == nil {
			continue
		}
		if shares[i].LessThanOrEqual(decimal.Zero) {
			continue
		}
		nav := holdings[i].Mul(rate).Mul(*benchPrices[i]).Add(netCash).Div(*shares[i])
		out[i] = &nav
	}

	return out, nil
}

// premiumDiscount is (share price / NAV per share) - 1, defined only where
// NAV per share > 0. The zero guard keeps a negative-equity date as a
// missing marker instead of a nonsense ratio.
func premiumDiscount(sharePrices, navPerShare []*decimal.Decimal) []*decimal.Decimal {
	out := make([]*decimal.Decimal, len(navPerShare))
	if sharePrices == nil {
		return out
	}
	for i := range navPerShare {
		if sharePrices[i] == nil || navPerShare[i] == nil {
			continue
		}
		if navPerShare[i].LessThanOrEqual(decimal.Zero) {
			continue
		}
		v := sharePrices[i].Div(*navPerShare[i]).Sub(one)
		out[i] = &v
	}
	return out
}

// relativeReturn rebases share and benchmark prices to 1.0 at the first date
// where both are present, then takes (share relative / benchmark relative)
// - 1 per date.
func relativeReturn(ticker string, sharePrices, benchPrices []*decimal.Decimal) ([]*decimal.Decimal, error) {
	if sharePrices == nil || benchPrices == nil {
		return nil, &domain.MetricComputationError{
			Ticker: ticker,
			Reason: "missing share price or benchmark series",
		}
	}

	baseIdx := -1
	for i := range sharePrices {
		if sharePrices[i] != nil && benchPrices[i] != nil {
			baseIdx = i
			break
		}
	}
	if baseIdx == -1 {
		return nil, &domain.MetricComputationError{
			Ticker: ticker,
			Reason: "no date where both share price and benchmark are present",
		}
	}

	shareBase := *sharePrices[baseIdx]
	benchBase := *benchPrices[baseIdx]
	if shareBase.LessThanOrEqual(decimal.Zero) || benchBase.LessThanOrEqual(decimal.Zero) {
		return nil, &domain.MetricComputationError{
			Ticker: ticker,
			Reason: "non-positive price at rebase date",
		}
	}

	out := make([]*decimal.Decimal, len(sharePrices))
	for i := baseIdx; i < len(sharePrices); i++ {
		if sharePrices[i] == nil || benchPrices[i] == nil {
			continue
		}
		benchRelative := benchPrices[i].Div(benchBase)
		if benchRelative.IsZero() {
			continue
		}
		shareRelative := sharePrices[i].Div(shareBase)
		v := shareRelative.Div(benchRelative).Sub(one)
		out[i] = &v
	}

	return out, nil
}

// ytdReturns computes (current / base) - 1 for the share and the benchmark,
// where base is the value on or immediately before the ecosystem's ytd base
// date and current is the latest present value.
func ytdReturns(aligned *domain.AlignedSeries, sharePrices, benchPrices []*decimal.Decimal, eco domain.EcosystemConfig) (*decimal.Decimal, *decimal.Decimal) {
	baseIdx := -1
	for i, d := range aligned.Dates {
		if d.After(eco.YtdBaseDate) {
			break
		}
		baseIdx = i
	}
	if baseIdx == -1 {
		return nil, nil
	}

	return seriesReturn(sharePrices, baseIdx), seriesReturn(benchPrices, baseIdx)
}

func seriesReturn(values []*decimal.Decimal, baseIdx int) *decimal.Decimal {
	if values == nil || values[baseIdx] == nil || values[baseIdx].LessThanOrEqual(decimal.Zero) {
		return nil
	}
	for i := len(values) - 1; i >= baseIdx; i-- {
		if values[i] == nil {
			continue
		}
		v := values[i].Div(*values[baseIdx]).Sub(one)
		return &v
	}
	return nil
}

// returnCorrelation is the pearson correlation of daily returns over the
// last `window` aligned return pairs. nil when fewer pairs exist, same as
// the dashboard leaving the column blank.
func returnCorrelation(sharePrices, benchPrices []*decimal.Decimal, window int) *float64 {
	if sharePrices == nil || benchPrices == nil || window < 2 {
		return nil
	}

	shareReturns := []float64{}
	benchReturns := []float64{}
	for i := 1; i < len(sharePrices); i++ {
		if sharePrices[i] == nil || sharePrices[i-1] == nil || benchPrices[i] == nil || benchPrices[i-1] == nil {
			continue
		}
		if sharePrices[i-1].LessThanOrEqual(decimal.Zero) || benchPrices[i-1].LessThanOrEqual(decimal.Zero) {
			continue
		}
		shareReturns = append(shareReturns, sharePrices[i].Div(*sharePrices[i-1]).Sub(one).InexactFloat64())
		benchReturns = append(benchReturns, benchPrices[i].Div(*benchPrices[i-1]).Sub(one).InexactFloat64())
	}

	if len(shareReturns) < window {
		return nil
	}

	shareReturns = shareReturns[len(shareReturns)-window:]
	benchReturns = benchReturns[len(benchReturns)-window:]
	correlation, err := stats.Correlation(benchReturns, shareReturns)
	if err != nil {
		return nil
	}
	return &correlation
}
