package provider

import (
	"context"
	"datdash/internal/domain"
	"datdash/internal/util"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.Equal(b)
})

func point(year, month, day int, value float64) domain.PricePoint {
	return domain.PricePoint{
		Date:  util.NewDate(year, month, day),
		Value: decimal.NewFromFloat(value),
	}
}

func testRange() domain.DateRange {
	return domain.DateRange{
		Start: util.NewDate(2026, 1, 1),
		End:   util.NewDate(2026, 3, 1),
	}
}

// scriptedSource runs a per-call script, counting calls. used to drive the
// retry and cache wrappers.
type scriptedSource struct {
	mu     sync.Mutex
	calls  int
	script func(call int) ([]domain.PricePoint, error)
}

func (s *scriptedSource) Fetch(ctx context.Context, symbol string, kind domain.SeriesKind, r domain.DateRange) ([]domain.PricePoint, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.script(call)
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func Test_KindRouter(t *testing.T) {
	ctx := context.Background()

	market := &scriptedSource{script: func(int) ([]domain.PricePoint, error) {
		return []domain.PricePoint{point(2026, 1, 2, 100)}, nil
	}}
	router := NewKindRouter(map[domain.SeriesKind]DataSource{
		domain.SeriesKindSharePrice: market,
	})

	t.Run("routes to the registered source", func(t *testing.T) {
		out, err := router.Fetch(ctx, "ABCD", domain.SeriesKindSharePrice, testRange())
		require.NoError(t, err)
		require.Len(t, out, 1)
	})

	t.Run("unregistered kind is unavailable", func(t *testing.T) {
		_, err := router.Fetch(ctx, "ABCD", domain.SeriesKindTreasuryHoldings, testRange())
		require.Error(t, err)
		require.ErrorAs(t, err, new(*domain.DataUnavailableError))
	})
}

func Test_normalizePoints(t *testing.T) {
	t.Run("sorts and keeps the last observation per date", func(t *testing.T) {
		out := normalizePoints([]domain.PricePoint{
			point(2026, 1, 3, 12),
			point(2026, 1, 2, 10),
			point(2026, 1, 2, 11),
		})

		require.Equal(t, "", cmp.Diff(
			[]domain.PricePoint{
				point(2026, 1, 2, 11),
				point(2026, 1, 3, 12),
			},
			out,
			decimalComparer,
		))
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		require.Empty(t, normalizePoints(nil))
	})
}
