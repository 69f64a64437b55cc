package provider

import (
	"context"
	"datdash/internal/domain"
	"datdash/internal/util"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// holdings file layout, one entry per ecosystem id. the updater writes a few
// extra bookkeeping keys which are ignored here:
//
//	{
//	  "solana": {
//	    "tickers": {
//	      "ABCD": {
//	        "coin_held": 120000,
//	        "shares_outstanding": 64000000,
//	        "total_cash": 2000000,
//	        "total_debt": 0,
//	        "coin_held_updated": "2025-07-28",
//	        "history": [{"date": "2025-06-30", "coin_held": 90000, "shares_outstanding": 61000000}]
//	      }
//	    }
//	  }
//	}
type holdingsFile map[string]ecosystemHoldings

type ecosystemHoldings struct {
	Tickers map[string]tickerHoldings `json:"tickers"`
}

type tickerHoldings struct {
	CoinHeld          float64            `json:"coin_held"`
	SharesOutstanding float64            `json:"shares_outstanding"`
	TotalCash         float64            `json:"total_cash"`
	TotalDebt         float64            `json:"total_debt"`
	CoinHeldUpdated   string             `json:"coin_held_updated"`
	History           []holdingsSnapshot `json:"history"`
}

type holdingsSnapshot struct {
	Date              string  `json:"date"`
	CoinHeld          float64 `json:"coin_held"`
	SharesOutstanding float64 `json:"shares_outstanding"`
}

// HoldingsProvider serves treasury-holdings and shares-outstanding series
// from a locally cached holdings file (refreshed out of band by a separate
// updater). It also exposes balance-sheet snapshots for debt-adjusted NAV.
type HoldingsProvider struct {
	Path string

	loadOnce sync.Once
	file     holdingsFile
	loadErr  error
}

func NewHoldingsProvider(path string) *HoldingsProvider {
	return &HoldingsProvider{Path: path}
}

func (h *HoldingsProvider) load() (holdingsFile, error) {
	h.loadOnce.Do(func() {
		f, err := os.ReadFile(h.Path)
		if err != nil {
			h.loadErr = fmt.Errorf("could not open holdings file %s: %w", h.Path, err)
			return
		}
		file := holdingsFile{}
		if err := json.Unmarshal(f, &file); err != nil {
			h.loadErr = fmt.Errorf("malformed holdings file %s: %w", h.Path, err)
			return
		}
		h.file = file
	})
	return h.file, h.loadErr
}

func (h *HoldingsProvider) lookup(ticker string) (*tickerHoldings, error) {
	file, err := h.load()
	if err != nil {
		return nil, err
	}
	for _, eco := range file {
		if info, ok := eco.Tickers[ticker]; ok {
			return &info, nil
		}
	}
	return nil, fmt.Errorf("ticker %s not present in holdings file", ticker)
}

func (h *HoldingsProvider) Fetch(ctx context.Context, symbol string, kind domain.SeriesKind, r domain.DateRange) ([]domain.PricePoint, error) {
	if kind != domain.SeriesKindTreasuryHoldings && kind != domain.SeriesKindSharesOutstanding {
		return nil, &domain.DataUnavailableError{
			Symbol: symbol,
			Kind:   kind,
			Err:    fmt.Errorf("holdings provider does not serve %s series", kind),
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.DataUnavailableError{Symbol: symbol, Kind: kind, Err: err}
	}

	info, err := h.lookup(symbol)
	if err != nil {
		return nil, &domain.DataUnavailableError{Symbol: symbol, Kind: kind, Err: err}
	}

	points := []domain.PricePoint{}
	for _, snap := range info.History {
		date, err := time.Parse(time.DateOnly, snap.Date)
		if err != nil {
			return nil, &domain.DataUnavailableError{
				Symbol: symbol,
				Kind:   kind,
				Err:    fmt.Errorf("invalid history date %q: %w", snap.Date, err),
			}
		}
		value := snap.CoinHeld
		if kind == domain.SeriesKindSharesOutstanding {
			value = snap.SharesOutstanding
		}
		points = append(points, domain.PricePoint{
			Date:  util.TruncateToDate(date),
			Value: decimal.NewFromFloat(value),
		})
	}

	// the current snapshot always contributes a point. with no history at
	// all, it is dated at the range start so a lone snapshot covers the
	// whole requested window instead of collapsing the alignment
	// intersection to a single day.
	current := info.CoinHeld
	if kind == domain.SeriesKindSharesOutstanding {
		current = info.SharesOutstanding
	}
	if current <= 0 {
		if len(points) == 0 {
			return nil, &domain.DataUnavailableError{
				Symbol: symbol,
				Kind:   kind,
				Err:    fmt.Errorf("no %s value known", kind),
			}
		}
	} else {
		currentDate := r.Start
		if len(points) > 0 {
			currentDate = r.End
			if parsed, err := time.Parse(time.DateOnly, info.CoinHeldUpdated); err == nil {
				currentDate = util.TruncateToDate(parsed)
			}
		}
		points = append(points, domain.PricePoint{
			Date:  currentDate,
			Value: decimal.NewFromFloat(current),
		})
	}

	points = normalizePoints(points)

	// clip to the requested range, keeping the last point at or before the
	// range start so forward-fill has an anchor
	out := []domain.PricePoint{}
	for _, p := range points {
		if p.Date.After(r.End) {
			continue
		}
		if p.Date.Before(r.Start) {
			if len(out) == 1 && out[0].Date.Before(r.Start) {
				out[0] = p
				continue
			}
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, &domain.DataUnavailableError{
			Symbol: symbol,
			Kind:   kind,
			Err:    fmt.Errorf("no data points within requested range"),
		}
	}

	return out, nil
}

func (h *HoldingsProvider) BalanceSheet(ecosystemID, ticker string) (*domain.BalanceSheet, error) {
	file, err := h.load()
	if err != nil {
		return nil, err
	}
	eco, ok := file[ecosystemID]
	if !ok {
		return nil, fmt.Errorf("ecosystem %s not present in holdings file", ecosystemID)
	}
	info, ok := eco.Tickers[ticker]
	if !ok {
		return nil, fmt.Errorf("ticker %s not present in holdings file", ticker)
	}
	return &domain.BalanceSheet{
		TotalCash: decimal.NewFromFloat(info.TotalCash),
		TotalDebt: decimal.NewFromFloat(info.TotalDebt),
	}, nil
}
