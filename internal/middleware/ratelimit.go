package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldops/fieldtrack-backend-go/internal/cache"
)

// ipWindow is the fixed-window record kept per client IP
type ipWindow struct {
	Count   int   `json:"count"`
	ResetAt int64 `json:"resetAt"`
}

// RateLimit limits API requests per client IP using the shared expiring
// store. This guards the HTTP surface; the per-identity ingestion cap is
// enforced separately inside the pipeline.
func RateLimit(store cache.Store, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:api:" + c.ClientIP()
		now := time.Now()

		allowed := true
		err := store.Update(key, window, func(old []byte, exists bool) ([]byte, error) {
			var w ipWindow
			if exists {
				if err := json.Unmarshal(old, &w); err != nil {
					w = ipWindow{}
				}
			}

			if !exists || now.Unix() >= w.ResetAt {
				w = ipWindow{Count: 1, ResetAt: now.Add(window).Unix()}
				return json.Marshal(w)
			}
			if w.Count >= limit {
				allowed = false
				return old, nil
			}
			w.Count++
			return json.Marshal(w)
		})
		// Fail open on store faults, same policy as the ingestion limiter
		if err == nil && !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
