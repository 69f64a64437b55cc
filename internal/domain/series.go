package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeriesKind distinguishes what a fetched series measures, since the
// underlying sources and units differ per kind.
type SeriesKind string

const (
	SeriesKindSharePrice        SeriesKind = "share_price"
	SeriesKindSharesOutstanding SeriesKind = "shares_outstanding"
	SeriesKindTreasuryHoldings  SeriesKind = "treasury_holdings"
	SeriesKindBenchmarkPrice    SeriesKind = "benchmark_price"
)

// PricePoint is one (calendar date, value) observation. Dates are truncated
// to midnight UTC - no intraday granularity.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// Series is an ordered sequence of points for one symbol. Dates are strictly
// increasing and unique within one fetched series.
type Series struct {
	Symbol string       `json:"symbol"`
	Kind   SeriesKind   `json:"kind"`
	Points []PricePoint `json:"points"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// AlignedSeries maps a shared ordered date index to one value slice per slot.
// A nil entry is an explicit missing marker. Every slice has the same length
// as Dates.
type AlignedSeries struct {
	Dates []time.Time                   `json:"dates"`
	Slots map[string][]*decimal.Decimal `json:"slots"`
}

func (a *AlignedSeries) Len() int {
	return len(a.Dates)
}

// Slot returns the value slice for a slot name, or nil if absent.
func (a *AlignedSeries) Slot(name string) []*decimal.Decimal {
	return a.Slots[name]
}

type CompanyStatus string

const (
	CompanyStatusAvailable   CompanyStatus = "available"
	CompanyStatusUnavailable CompanyStatus = "unavailable"
)

// CompanyMetrics holds the aligned inputs plus every derived series for one
// company. Recomputed on each refresh, never persisted.
type CompanyMetrics struct {
	Ticker string        `json:"ticker"`
	Config CompanyConfig `json:"config"`

	Status       CompanyStatus `json:"status"`
	StatusReason string        `json:"statusReason,omitempty"`

	Aligned         *AlignedSeries     `json:"aligned,omitempty"`
	NavPerShare     []*decimal.Decimal `json:"navPerShare,omitempty"`
	PremiumDiscount []*decimal.Decimal `json:"premiumDiscount,omitempty"`
	RelativeReturn  []*decimal.Decimal `json:"relativeReturn,omitempty"`

	// summary fields, ytd_base_date-relative
	YtdReturn         *decimal.Decimal `json:"ytdReturn,omitempty"`
	RelativeYtdReturn *decimal.Decimal `json:"relativeYtdReturn,omitempty"`

	// pearson correlation of daily returns vs the benchmark over the
	// ecosystem's correlation window. nil when not enough return pairs.
	ReturnCorrelation *float64 `json:"returnCorrelation,omitempty"`
}

// BenchmarkSummary is the per-ecosystem benchmark header: base price at the
// ytd base date, the latest price, and the return between them.
type BenchmarkSummary struct {
	Symbol       string          `json:"symbol"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	YtdReturn    decimal.Decimal `json:"ytdReturn"`
}

// ComparisonReport is the full result for one ecosystem. Built fresh per
// refresh and owned by the caller that built it.
type ComparisonReport struct {
	Ecosystem EcosystemConfig           `json:"ecosystem"`
	Benchmark *BenchmarkSummary         `json:"benchmark,omitempty"`
	Companies map[string]CompanyMetrics `json:"companies"`
}
