package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EcosystemConfig describes one tracked crypto ecosystem - a benchmark asset
// and the DAT companies holding treasuries of it. Loaded from a config record
// by the registry and immutable after that.
type EcosystemConfig struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	BenchmarkSymbol string `json:"benchmark"`

	// BenchmarkQuoteSymbol is the provider symbol quoting the benchmark in
	// USD, e.g. SOL-USD for benchmark asset SOL.
	BenchmarkQuoteSymbol string `json:"benchmarkQuoteSymbol"`

	YtdBaseDate       time.Time       `json:"ytdBaseDate"`
	CorrelationWindow int             `json:"correlationWindow"`
	Companies         []CompanyConfig `json:"companies"`
}

type CompanyConfig struct {
	Ticker              string `json:"ticker"`
	DisplayName         string `json:"displayName"`
	TreasuryAssetSymbol string `json:"treasuryAssetSymbol"`

	// SharesOutstandingSource optionally names an alternate source key for
	// the shares series. Empty means the default holdings source.
	SharesOutstandingSource string `json:"sharesOutstandingSource,omitempty"`

	// NavOverrideFile optionally points at a csv of historical NAV-per-share
	// values which replaces the computed NAV series entirely.
	NavOverrideFile string `json:"navOverrideFile,omitempty"`

	// ConversionRate converts the treasury asset into benchmark-asset units
	// when the two symbols differ. Required in that case.
	ConversionRate *decimal.Decimal `json:"conversionRate,omitempty"`

	// ConvertibleDebt caps how much of total debt is treated as convertible
	// when computing debt-adjusted NAV. When nil, all debt is assumed
	// convertible and nothing is subtracted.
	ConvertibleDebt *decimal.Decimal `json:"convertibleDebt,omitempty"`
}

// BalanceSheet carries the latest-known cash and debt snapshot for a company.
// These change on filings, not daily, so they are applied flat across the
// report window.
type BalanceSheet struct {
	TotalCash decimal.Decimal `json:"totalCash"`
	TotalDebt decimal.Decimal `json:"totalDebt"`
}
