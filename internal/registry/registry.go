package registry

import (
	"context"
	"datdash/internal/domain"
	"datdash/internal/logger"
	"datdash/internal/util"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultCorrelationWindow = 60

// ConfigRegistry discovers ecosystem config records. A record that fails
// validation degrades to "ecosystem unavailable" - it is logged and skipped,
// never aborts discovery of the others.
type ConfigRegistry interface {
	Discover(ctx context.Context) ([]domain.EcosystemConfig, error)
}

func NewDirectoryRegistry(dir string) ConfigRegistry {
	return &directoryRegistryHandler{
		Dir: dir,
	}
}

type directoryRegistryHandler struct {
	Dir string
}

// one record per json file
type ecosystemRecord struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Benchmark         string          `json:"benchmark"`
	BenchmarkQuote    string          `json:"benchmark_quote"`
	YtdBaseDate       string          `json:"ytd_base_date"`
	CorrelationWindow int             `json:"correlation_window"`
	Companies         []companyRecord `json:"companies"`
}

type companyRecord struct {
	Ticker                  string   `json:"ticker"`
	DisplayName             string   `json:"display_name"`
	TreasuryAssetSymbol     string   `json:"treasury_asset_symbol"`
	SharesOutstandingSource string   `json:"shares_outstanding_source"`
	NavOverride             string   `json:"nav_override"`
	ConversionRate          *float64 `json:"conversion_rate"`
	ConvertibleDebt         *float64 `json:"convertible_debt"`
}

func (h directoryRegistryHandler) Discover(ctx context.Context) ([]domain.EcosystemConfig, error) {
	log := logger.FromContext(ctx)

	entries, err := os.ReadDir(h.Dir)
	if err != nil {
		return nil, &domain.ConfigError{
			Path: h.Dir,
			Err:  fmt.Errorf("failed to read config directory: %w", err),
		}
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	seen := map[string]string{}
	out := []domain.EcosystemConfig{}
	for _, name := range names {
		path := filepath.Join(h.Dir, name)
		config, err := loadRecord(path)
		if err != nil {
			log.Warnf("skipping config record: %s", err.Error())
			continue
		}
		if prev, ok := seen[config.ID]; ok {
			cfgErr := &domain.ConfigError{
				Path: path,
				Err:  fmt.Errorf("duplicate ecosystem id %q (already defined in %s)", config.ID, prev),
			}
			log.Warnf("skipping config record: %s", cfgErr.Error())
			continue
		}
		seen[config.ID] = path
		out = append(out, *config)
	}

	return out, nil
}

func loadRecord(path string) (*domain.EcosystemConfig, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigError{Path: path, Err: err}
	}

	record := ecosystemRecord{}
	if err := json.Unmarshal(f, &record); err != nil {
		return nil, &domain.ConfigError{Path: path, Err: fmt.Errorf("malformed json: %w", err)}
	}

	config, err := record.toConfig()
	if err != nil {
		return nil, &domain.ConfigError{Path: path, Err: err}
	}

	return config, nil
}

func (r ecosystemRecord) toConfig() (*domain.EcosystemConfig, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("missing ecosystem id")
	}
	if r.Benchmark == "" {
		return nil, fmt.Errorf("missing benchmark symbol")
	}
	if len(r.Companies) == 0 {
		return nil, fmt.Errorf("ecosystem %q has no companies", r.ID)
	}

	baseDate := util.NewDate(time.Now().UTC().Year(), 1, 1)
	if r.YtdBaseDate != "" {
		parsed, err := time.Parse(time.DateOnly, r.YtdBaseDate)
		if err != nil {
			return nil, fmt.Errorf("invalid ytd_base_date %q: %w", r.YtdBaseDate, err)
		}
		baseDate = util.TruncateToDate(parsed)
	}

	window := r.CorrelationWindow
	if window == 0 {
		window = defaultCorrelationWindow
	} else if window < 2 {
		return nil, fmt.Errorf("correlation_window must be >= 2, got %d", window)
	}

	name := r.Name
	if name == "" {
		name = r.ID
	}

	companies := []domain.CompanyConfig{}
	for i, c := range r.Companies {
		if c.Ticker == "" {
			return nil, fmt.Errorf("company %d in ecosystem %q is missing a ticker", i, r.ID)
		}
		if c.TreasuryAssetSymbol == "" {
			return nil, fmt.Errorf("company %s in ecosystem %q is missing a treasury asset symbol", c.Ticker, r.ID)
		}
		displayName := c.DisplayName
		if displayName == "" {
			displayName = c.Ticker
		}
		company := domain.CompanyConfig{
			Ticker:                  c.Ticker,
			DisplayName:             displayName,
			TreasuryAssetSymbol:     c.TreasuryAssetSymbol,
			SharesOutstandingSource: c.SharesOutstandingSource,
			NavOverrideFile:         c.NavOverride,
		}
		if c.ConversionRate != nil {
			rate := decimal.NewFromFloat(*c.ConversionRate)
			if rate.LessThanOrEqual(decimal.Zero) {
				return nil, fmt.Errorf("company %s has non-positive conversion_rate", c.Ticker)
			}
			company.ConversionRate = &rate
		}
		if c.ConvertibleDebt != nil {
			debt := decimal.NewFromFloat(*c.ConvertibleDebt)
			company.ConvertibleDebt = &debt
		}
		companies = append(companies, company)
	}

	quote := r.BenchmarkQuote
	if quote == "" {
		// crypto assets quote in USD pairs on the market providers
		quote = r.Benchmark + "-USD"
	}

	return &domain.EcosystemConfig{
		ID:                   r.ID,
		Name:                 name,
		BenchmarkSymbol:      r.Benchmark,
		BenchmarkQuoteSymbol: quote,
		YtdBaseDate:          baseDate,
		CorrelationWindow:    window,
		Companies:            companies,
	}, nil
}
