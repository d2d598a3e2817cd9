package geocoding

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fieldops/fieldtrack-backend-go/internal/models"
	"github.com/fieldops/fieldtrack-backend-go/internal/spatial"
)

const (
	// groupRadiusMeters clusters nearby points so one provider call covers
	// all of them
	groupRadiusMeters = 89.0

	// Consecutive near-duplicate samples inherit the previous candidate's
	// address instead of costing a call
	duplicateRadiusMeters = 10.0
	duplicateMaxGap       = 5 * time.Minute

	// Groups are resolved in bounded batches with a pause in between; this
	// is a self-throttle toward the provider, not a negotiated limit
	batchSize = 5

	// breakerThreshold consecutive failed groups abort the rest of the run
	breakerThreshold = 3
)

// Summary reports what a backfill run did. SkippedGroups counts groups
// abandoned after the circuit breaker opened.
type Summary struct {
	ResolvedPoints int
	FailedPoints   int
	TotalGroups    int
	SkippedGroups  int
}

// AddressWriter persists the outcome of address resolution for a point.
// Address and addressError are mutually exclusive.
type AddressWriter interface {
	UpdateAddress(ctx context.Context, id int64, address, addressError string) error
}

// Backfiller resolves addresses for stored points in spatial groups
type Backfiller struct {
	resolver *Resolver
	writer   AddressWriter
	logger   *zap.Logger

	batchSize  int
	batchPause time.Duration
}

// NewBackfiller creates a batch address backfiller
func NewBackfiller(resolver *Resolver, writer AddressWriter, logger *zap.Logger) *Backfiller {
	return &Backfiller{
		resolver:   resolver,
		writer:     writer,
		logger:     logger,
		batchSize:  batchSize,
		batchPause: time.Second,
	}
}

// candidate is a point to resolve plus the trailing near-duplicates that
// inherit its result
type candidate struct {
	point     *models.TrackingPoint
	followers []*models.TrackingPoint
}

// group is a spatial cluster of candidates resolved with one provider call
type group struct {
	rep     *models.TrackingPoint
	members []*candidate
}

// Backfill resolves addresses for every point that has neither an address
// nor a recorded resolution error. Points already resolved are never
// touched, so re-running a backfill is safe and issues no new calls for
// them. Each run gets a fresh circuit breaker: once breakerThreshold
// consecutive groups fail, the run terminates early and every remaining
// group is reported as skipped rather than retried.
func (b *Backfiller) Backfill(ctx context.Context, points []*models.TrackingPoint) Summary {
	candidates := b.collectCandidates(points)
	groups := b.groupCandidates(candidates)

	summary := Summary{TotalGroups: len(groups)}
	if len(groups) == 0 {
		return summary
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name: "reverse-geocoding",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerThreshold
		},
		IsSuccessful: func(err error) bool {
			// A definitive empty answer is an answer, not a provider fault
			return err == nil || errors.Is(err, ErrZeroResults)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("geocoding circuit breaker state change",
				zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	throttle := rate.NewLimiter(rate.Every(b.batchPause), 1)

	for i, g := range groups {
		// Pause between batches, not between every group
		if i%b.batchSize == 0 {
			if err := throttle.Wait(ctx); err != nil {
				summary.SkippedGroups += len(groups) - i
				break
			}
		}

		address, err := breaker.Execute(func() (string, error) {
			return b.resolver.Resolve(ctx, g.rep.Latitude, g.rep.Longitude)
		})

		switch {
		case err == nil:
			summary.ResolvedPoints += b.applyAddress(ctx, g, address)
		case errors.Is(err, ErrZeroResults):
			summary.FailedPoints += b.applyError(ctx, g, "no address for coordinates")
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			// The breaker opened: the provider is degraded, so the rest of
			// the run ends now instead of burning throttle waits group by
			// group or half-opening into fresh calls later in the run
			summary.SkippedGroups += len(groups) - i
			return summary
		default:
			b.logger.Warn("geocoding group failed",
				zap.Float64("lat", g.rep.Latitude),
				zap.Float64("lon", g.rep.Longitude),
				zap.Error(err))
			summary.FailedPoints += b.applyError(ctx, g, err.Error())
		}
	}

	return summary
}

// collectCandidates filters to unresolved points and folds consecutive
// near-duplicates onto the previous candidate
func (b *Backfiller) collectCandidates(points []*models.TrackingPoint) []*candidate {
	var candidates []*candidate
	for _, p := range points {
		if p.Address != "" || p.AddressError != "" {
			continue
		}

		if n := len(candidates); n > 0 {
			prev := candidates[n-1]
			dist := spatial.Distance(prev.point.Latitude, prev.point.Longitude, p.Latitude, p.Longitude)
			gap := time.Duration(p.CapturedAt-prev.point.CapturedAt) * time.Second
			if dist < duplicateRadiusMeters && gap < duplicateMaxGap && gap >= 0 {
				prev.followers = append(prev.followers, p)
				continue
			}
		}

		candidates = append(candidates, &candidate{point: p})
	}
	return candidates
}

// groupCandidates clusters candidates within groupRadiusMeters of a group's
// representative point
func (b *Backfiller) groupCandidates(candidates []*candidate) []*group {
	var groups []*group
	for _, c := range candidates {
		placed := false
		for _, g := range groups {
			if spatial.Distance(g.rep.Latitude, g.rep.Longitude, c.point.Latitude, c.point.Longitude) <= groupRadiusMeters {
				g.members = append(g.members, c)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, &group{rep: c.point, members: []*candidate{c}})
		}
	}
	return groups
}

// applyAddress writes the resolved address to every member and follower,
// returning how many points it touched
func (b *Backfiller) applyAddress(ctx context.Context, g *group, address string) int {
	count := 0
	for _, c := range g.members {
		for _, p := range append([]*models.TrackingPoint{c.point}, c.followers...) {
			p.Address = address
			p.AddressError = ""
			if err := b.writer.UpdateAddress(ctx, p.ID, address, ""); err != nil {
				b.logger.Warn("failed to persist address", zap.Int64("point", p.ID), zap.Error(err))
				continue
			}
			count++
		}
	}
	return count
}

// applyError records a resolution error; display falls back to the raw
// coordinate string
func (b *Backfiller) applyError(ctx context.Context, g *group, message string) int {
	count := 0
	for _, c := range g.members {
		for _, p := range append([]*models.TrackingPoint{c.point}, c.followers...) {
			p.AddressError = message
			if err := b.writer.UpdateAddress(ctx, p.ID, "", message); err != nil {
				b.logger.Warn("failed to persist address error", zap.Int64("point", p.ID), zap.Error(err))
				continue
			}
			count++
		}
	}
	return count
}
