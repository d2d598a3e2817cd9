package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/fieldtrack-backend-go/internal/analysis"
	"github.com/fieldops/fieldtrack-backend-go/internal/cache"
	"github.com/fieldops/fieldtrack-backend-go/internal/geocoding"
	"github.com/fieldops/fieldtrack-backend-go/internal/models"
)

// DefaultAnalyticsCacheTTL keeps a computed report for an hour unless a
// fresh ingestion invalidates it first
const DefaultAnalyticsCacheTTL = time.Hour

// AnalyticsQuery selects what to analyze
type AnalyticsQuery struct {
	OwnerID        int64
	Timeframe      models.Timeframe
	Start          *time.Time // required for the custom timeframe
	End            *time.Time
	OrganizationID *int64
	BranchID       *int64
}

// AnalyticsService combines address backfill, the trip analyzer, the stop
// detector and the insight derivations into composite reports. Reports are
// cached per identity and period; ingestion invalidates them eagerly by
// bumping the identity's version key, which makes stale entries
// unreachable until their TTL reaps them.
type AnalyticsService struct {
	store      TrackStore
	directory  OwnerDirectory
	backfiller *geocoding.Backfiller
	cache      cache.Store
	logger     *zap.Logger
	ttl        time.Duration
	tripOpts   analysis.TripOptions
	stopOpts   analysis.StopOptions

	now func() time.Time
}

// NewAnalyticsService creates the analytics aggregation service
func NewAnalyticsService(store TrackStore, directory OwnerDirectory, backfiller *geocoding.Backfiller, cacheStore cache.Store, logger *zap.Logger, ttl time.Duration) *AnalyticsService {
	if ttl <= 0 {
		ttl = DefaultAnalyticsCacheTTL
	}
	return &AnalyticsService{
		store:      store,
		directory:  directory,
		backfiller: backfiller,
		cache:      cacheStore,
		logger:     logger,
		ttl:        ttl,
		tripOpts:   analysis.DefaultTripOptions(),
		stopOpts:   analysis.DefaultStopOptions(),
		now:        time.Now,
	}
}

// GetUserAnalytics computes (or serves from cache) the composite report
// for one identity and timeframe
func (s *AnalyticsService) GetUserAnalytics(ctx context.Context, q AnalyticsQuery) (*models.AnalyticsReport, error) {
	owner, err := s.directory.FindOwner(ctx, q.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up owner: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: unknown owner %d", ErrInvalidInput, q.OwnerID)
	}

	period, err := models.ResolvePeriod(q.Timeframe, s.now().UTC(), q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	key := s.reportKey(q, period)
	if raw, ok := s.cache.Get(key); ok {
		var cached models.AnalyticsReport
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	}

	points, err := s.store.QueryByTimeRange(ctx, q.OwnerID, period.Start, period.End, q.OrganizationID, q.BranchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracking points: %w", err)
	}

	// Backfill addresses on demand; stored points carry none until read
	refs := make([]*models.TrackingPoint, len(points))
	for i := range points {
		refs[i] = &points[i]
	}
	backfill := s.backfiller.Backfill(ctx, refs)

	report := &models.AnalyticsReport{
		User:           owner,
		Timeframe:      q.Timeframe,
		Period:         period,
		TotalPoints:    len(points),
		TrackingPoints: points,
		TripSummary:    analysis.AnalyzeTrip(points, s.tripOpts),
		Stops:          analysis.DetectStops(points, s.stopOpts),
	}
	report.Analytics = analysis.BuildInsights(points, report.TripSummary, report.Stops, s.tripOpts)
	report.GeocodingStatus = geocodingStatus(points, backfill)
	report.Warnings = geocodingWarnings(backfill)

	if raw, err := json.Marshal(report); err == nil {
		s.cache.Set(key, raw, s.ttl)
	}

	return report, nil
}

// GetTeamAnalytics aggregates reports across several identities
func (s *AnalyticsService) GetTeamAnalytics(ctx context.Context, ownerIDs []int64, q AnalyticsQuery) (*models.TeamAnalyticsReport, error) {
	if len(ownerIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one owner is required", ErrInvalidInput)
	}

	period, err := models.ResolvePeriod(q.Timeframe, s.now().UTC(), q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	team := &models.TeamAnalyticsReport{
		Timeframe: q.Timeframe,
		Period:    period,
		Members:   make([]models.AnalyticsReport, 0, len(ownerIDs)),
	}

	for _, id := range ownerIDs {
		memberQuery := q
		memberQuery.OwnerID = id
		report, err := s.GetUserAnalytics(ctx, memberQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze owner %d: %w", id, err)
		}
		team.Members = append(team.Members, *report)
		team.TotalDistanceKm += report.TripSummary.TotalDistanceKm
		team.TotalStops += len(report.Stops.Stops)
		team.TotalPoints += report.TotalPoints
	}

	return team, nil
}

// BackfillUngeocoded resolves addresses for stored points that have none;
// exposed for the manual backfill endpoint
func (s *AnalyticsService) BackfillUngeocoded(ctx context.Context, limit int) (geocoding.Summary, error) {
	points, err := s.store.GetUngeocoded(ctx, limit)
	if err != nil {
		return geocoding.Summary{}, fmt.Errorf("failed to load ungeocoded points: %w", err)
	}

	refs := make([]*models.TrackingPoint, len(points))
	for i := range points {
		refs[i] = &points[i]
	}
	return s.backfiller.Backfill(ctx, refs), nil
}

// reportKey builds the cache key for a report. It embeds the identity's
// current version so an ingestion-time bump abandons older entries.
func (s *AnalyticsService) reportKey(q AnalyticsQuery, period models.Period) string {
	key := fmt.Sprintf("analytics:report:%d:%d:%d:%d",
		q.OwnerID, AnalyticsVersion(s.cache, q.OwnerID), period.Start.Unix(), period.End.Unix())
	if q.OrganizationID != nil {
		key += ":org" + strconv.FormatInt(*q.OrganizationID, 10)
	}
	if q.BranchID != nil {
		key += ":br" + strconv.FormatInt(*q.BranchID, 10)
	}
	return key
}

func geocodingStatus(points []models.TrackingPoint, backfill geocoding.Summary) models.GeocodingStatus {
	status := models.GeocodingStatus{Skipped: backfill.SkippedGroups}
	for _, p := range points {
		switch {
		case p.Address != "":
			status.Successful++
		case p.AddressError != "":
			status.Failed++
			status.UsedFallback++
		default:
			status.UsedFallback++
		}
	}
	return status
}

// geocodingWarnings surfaces degraded address resolution on the report.
// Like ingestion warnings these are expected noise, not errors: the report
// itself is complete, with raw coordinates standing in for addresses.
func geocodingWarnings(backfill geocoding.Summary) []models.Warning {
	var warnings []models.Warning
	if backfill.FailedPoints > 0 {
		warnings = append(warnings, models.Warning{
			Type:    models.WarningGeocodingError,
			Message: fmt.Sprintf("address resolution failed for %d points, raw coordinates shown instead", backfill.FailedPoints),
		})
	}
	if backfill.SkippedGroups > 0 {
		warnings = append(warnings, models.Warning{
			Type:    models.WarningGeocodingError,
			Message: fmt.Sprintf("address resolution aborted with %d location groups unresolved", backfill.SkippedGroups),
		})
	}
	return warnings
}

// analyticsVersionTTL only has to outlive the report TTL
const analyticsVersionTTL = 24 * time.Hour

// AnalyticsVersion reads the identity's current cache version
func AnalyticsVersion(store cache.Store, ownerID int64) int64 {
	raw, ok := store.Get(versionKey(ownerID))
	if !ok {
		return 0
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// BumpAnalyticsVersion invalidates every cached report for the identity
func BumpAnalyticsVersion(store cache.Store, ownerID int64) {
	next := AnalyticsVersion(store, ownerID) + 1
	store.Set(versionKey(ownerID), []byte(strconv.FormatInt(next, 10)), analyticsVersionTTL)
}

func versionKey(ownerID int64) string {
	return fmt.Sprintf("analytics:version:%d", ownerID)
}
