package provider

import (
	"context"
	"datdash/internal/domain"
	"datdash/internal/logger"
	"errors"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
)

// NewRetryingSource wraps a source with bounded exponential backoff. The
// delay doubles per attempt; after maxAttempts the last error surfaces as a
// DataUnavailableError and the caller treats the company as unavailable.
func NewRetryingSource(next DataSource, maxAttempts int, baseDelay time.Duration) DataSource {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	return &retryingSourceHandler{
		next:        next,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

type retryingSourceHandler struct {
	next        DataSource
	maxAttempts int
	baseDelay   time.Duration
}

func (h retryingSourceHandler) Fetch(ctx context.Context, symbol string, kind domain.SeriesKind, r domain.DateRange) ([]domain.PricePoint, error) {
	log := logger.FromContext(ctx)

	var lastErr error
	delay := h.baseDelay
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		points, err := h.next.Fetch(ctx, symbol, kind, r)
		if err == nil {
			return points, nil
		}
		lastErr = err

		// a cancelled build should not burn the remaining attempts
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
		if attempt == h.maxAttempts {
			break
		}

		log.Warnf("fetch %s %s failed (attempt %d/%d), retrying in %v: %s", symbol, kind, attempt, h.maxAttempts, delay, err.Error())
		select {
		case <-ctx.Done():
			return nil, &domain.DataUnavailableError{Symbol: symbol, Kind: kind, Err: ctx.Err()}
		case <-time.After(delay):
		}
		delay *= 2
	}

	var unavailable *domain.DataUnavailableError
	if errors.As(lastErr, &unavailable) {
		return nil, lastErr
	}
	return nil, &domain.DataUnavailableError{Symbol: symbol, Kind: kind, Err: lastErr}
}
