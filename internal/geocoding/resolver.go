package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/fieldtrack-backend-go/internal/cache"
)

const (
	// CacheTTL keeps resolved addresses for a day; addresses rarely change,
	// so this is deliberately much longer than the ingestion-side TTLs
	CacheTTL = 24 * time.Hour

	maxAttempts = 3
	backoffUnit = time.Second // attempt N waits N * backoffUnit
)

// cacheEntry is the JSON record kept per coordinate bucket. Miss marks a
// cached negative result so unresolvable coordinates are not re-queried.
type cacheEntry struct {
	Address string `json:"address"`
	Miss    bool   `json:"miss,omitempty"`
}

// Resolver turns coordinates into addresses, consulting the cache before
// the external provider and retrying transient failures
type Resolver struct {
	geocoder ReverseGeocoder
	store    cache.Store
	logger   *zap.Logger
	backoff  time.Duration
}

// NewResolver creates a resolver over the given provider and cache store
func NewResolver(geocoder ReverseGeocoder, store cache.Store, logger *zap.Logger) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		store:    store,
		logger:   logger,
		backoff:  backoffUnit,
	}
}

// CacheKey buckets coordinates to 4 decimal places, roughly 11 m, so
// near-identical samples share one resolution
func CacheKey(lat, lon float64) string {
	return fmt.Sprintf("geo:%.4f,%.4f", lat, lon)
}

// Resolve returns the address for a coordinate pair. A cache hit returns
// immediately; a miss calls the provider with up to maxAttempts tries and
// linear backoff on rate-limit or transient failures. Definitive empty
// answers are cached as negatives and surface as ErrZeroResults.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	key := CacheKey(lat, lon)

	if raw, ok := r.store.Get(key); ok {
		var e cacheEntry
		if err := json.Unmarshal(raw, &e); err == nil {
			if e.Miss {
				return "", ErrZeroResults
			}
			return e.Address, nil
		}
	}

	address, err := r.resolveWithRetry(ctx, lat, lon)
	if err != nil {
		if errors.Is(err, ErrZeroResults) {
			r.cachePut(key, cacheEntry{Miss: true})
			return "", ErrZeroResults
		}
		return "", err
	}

	r.cachePut(key, cacheEntry{Address: address})
	return address, nil
}

func (r *Resolver) cachePut(key string, e cacheEntry) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	r.store.Set(key, raw, CacheTTL)
}

// resolveWithRetry calls the provider, retrying only transient outcomes:
// rate limiting and provider unavailability. ErrZeroResults is a different
// outcome from a failure, and definitive provider errors (unknown statuses,
// missing configuration) are just as final; neither is ever retried.
func (r *Resolver) resolveWithRetry(ctx context.Context, lat, lon float64) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		address, err := r.geocoder.ReverseGeocode(callCtx, lat, lon)
		cancel()

		if err == nil {
			return address, nil
		}
		if !errors.Is(err, ErrRateLimited) && !errors.Is(err, ErrUnavailable) {
			return "", err
		}

		lastErr = err
		r.logger.Debug("geocoding attempt failed",
			zap.Int("attempt", attempt),
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))

		if attempt < maxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * r.backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("geocoding failed after %d attempts: %w", maxAttempts, lastErr)
}
