package provider

import (
	"context"
	"datdash/internal/domain"
	"sync"
	"time"
)

// dashboard refreshes are frequent but market data updates at most daily, so
// a short ttl saves redundant provider calls. matches the original
// dashboard's 5 minute fetch cache.
const DefaultCacheTTL = 5 * time.Minute

type cacheKey struct {
	Symbol string
	Kind   domain.SeriesKind
	Start  string
	End    string
}

type cacheEntry struct {
	points    []domain.PricePoint
	expiresAt time.Time
}

// NewCachingSource wraps a source with a ttl cache keyed by
// (symbol, kind, date range). A stale entry is never served past expiry.
func NewCachingSource(next DataSource, ttl time.Duration) DataSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &cachingSourceHandler{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: map[cacheKey]cacheEntry{},
	}
}

type cachingSourceHandler struct {
	next DataSource
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
}

func (h *cachingSourceHandler) Fetch(ctx context.Context, symbol string, kind domain.SeriesKind, r domain.DateRange) ([]domain.PricePoint, error) {
	key := cacheKey{
		Symbol: symbol,
		Kind:   kind,
		Start:  r.Start.Format(time.DateOnly),
		End:    r.End.Format(time.DateOnly),
	}

	h.mu.RLock()
	entry, ok := h.entries[key]
	h.mu.RUnlock()
	if ok && h.now().Before(entry.expiresAt) {
		return copyPoints(entry.points), nil
	}

	points, err := h.next.Fetch(ctx, symbol, kind, r)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.entries[key] = cacheEntry{
		points:    copyPoints(points),
		expiresAt: h.now().Add(h.ttl),
	}
	h.mu.Unlock()

	return points, nil
}

// callers may re-sort or trim what they get back; hand out copies so cached
// data stays intact
func copyPoints(points []domain.PricePoint) []domain.PricePoint {
	out := make([]domain.PricePoint, len(points))
	copy(out, points)
	return out
}
