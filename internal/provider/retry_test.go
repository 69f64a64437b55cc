package provider

import (
	"context"
	"datdash/internal/domain"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_RetryingSource(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers from transient failures", func(t *testing.T) {
		source := &scriptedSource{script: func(call int) ([]domain.PricePoint, error) {
			if call < 3 {
				return nil, fmt.Errorf("rate limited")
			}
			return []domain.PricePoint{point(2026, 1, 2, 100)}, nil
		}}

		out, err := NewRetryingSource(source, 3, time.Millisecond).Fetch(ctx, "ABCD", domain.SeriesKindSharePrice, testRange())
		require.NoError(t, err)
		require.Len(t, out, 1)
		require.Equal(t, 3, source.callCount())
	})

	t.Run("exhausted attempts surface as unavailable", func(t *testing.T) {
		source := &scriptedSource{script: func(int) ([]domain.PricePoint, error) {
			return nil, fmt.Errorf("rate limited")
		}}

		_, err := NewRetryingSource(source, 3, time.Millisecond).Fetch(ctx, "ABCD", domain.SeriesKindSharePrice, testRange())
		require.Error(t, err)
		require.ErrorAs(t, err, new(*domain.DataUnavailableError))
		require.Equal(t, 3, source.callCount())
	})

	t.Run("does not double-wrap unavailable errors", func(t *testing.T) {
		inner := &domain.DataUnavailableError{
			Symbol: "ABCD",
			Kind:   domain.SeriesKindSharePrice,
			Err:    fmt.Errorf("no quote"),
		}
		source := &scriptedSource{script: func(int) ([]domain.PricePoint, error) {
			return nil, inner
		}}

		_, err := NewRetryingSource(source, 2, time.Millisecond).Fetch(ctx, "ABCD", domain.SeriesKindSharePrice, testRange())
		require.Equal(t, inner, err)
	})

	t.Run("a cancelled context stops retrying", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		source := &scriptedSource{script: func(int) ([]domain.PricePoint, error) {
			return nil, context.Canceled
		}}

		_, err := NewRetryingSource(source, 5, time.Millisecond).Fetch(cancelled, "ABCD", domain.SeriesKindSharePrice, testRange())
		require.Error(t, err)
		require.Equal(t, 1, source.callCount())
	})
}
