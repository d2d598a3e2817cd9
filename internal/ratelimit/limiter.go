// Package ratelimit enforces the per-identity ingestion cap with a fixed
// window kept in the shared expiring store.
package ratelimit

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/fieldtrack-backend-go/internal/cache"
)

// Default ingestion cadence: at most 2 accepted points per 60 s window
const (
	DefaultLimit  = 2
	DefaultWindow = 60 * time.Second
)

// Result reports the outcome of a rate-limit check
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// window is the JSON record kept in the store per identity
type window struct {
	Count   int   `json:"count"`
	ResetAt int64 `json:"resetAt"` // Unix seconds
}

// Limiter is a fixed-window counter per identity. The window is
// deliberately fixed rather than sliding; the cap is small enough that the
// boundary burst a fixed window admits does not matter here.
type Limiter struct {
	store  cache.Store
	logger *zap.Logger
	limit  int
	win    time.Duration

	now func() time.Time
}

// NewLimiter creates a limiter enforcing limit accepted points per window
func NewLimiter(store cache.Store, logger *zap.Logger, limit int, win time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if win <= 0 {
		win = DefaultWindow
	}
	return &Limiter{
		store:  store,
		logger: logger,
		limit:  limit,
		win:    win,
		now:    time.Now,
	}
}

// CheckAndConsume atomically consumes one slot for identity, or rejects
// when the live window is at the cap. On a store fault the limiter fails
// open: ingestion availability beats strict enforcement.
func (l *Limiter) CheckAndConsume(identity int64) Result {
	key := fmt.Sprintf("ratelimit:ingest:%d", identity)
	now := l.now()

	var res Result
	err := l.store.Update(key, l.win, func(old []byte, exists bool) ([]byte, error) {
		var w window
		if exists {
			if err := json.Unmarshal(old, &w); err != nil {
				w = window{}
			}
		}

		// Missing or expired window: start a fresh one with this request
		if !exists || now.Unix() >= w.ResetAt {
			w = window{Count: 1, ResetAt: now.Add(l.win).Unix()}
			res = Result{Allowed: true, Remaining: l.limit - 1, ResetAt: time.Unix(w.ResetAt, 0)}
			return json.Marshal(w)
		}

		if w.Count >= l.limit {
			res = Result{Allowed: false, Remaining: 0, ResetAt: time.Unix(w.ResetAt, 0)}
			return old, nil
		}

		w.Count++
		res = Result{Allowed: true, Remaining: l.limit - w.Count, ResetAt: time.Unix(w.ResetAt, 0)}
		return json.Marshal(w)
	})
	if err != nil {
		l.logger.Warn("rate limit store failed, allowing request",
			zap.Int64("identity", identity), zap.Error(err))
		return Result{Allowed: true, Remaining: l.limit, ResetAt: now.Add(l.win)}
	}

	return res
}
