package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldops/fieldtrack-backend-go/internal/cache"
	"github.com/fieldops/fieldtrack-backend-go/internal/geocoding"
	"github.com/fieldops/fieldtrack-backend-go/internal/models"
	"github.com/fieldops/fieldtrack-backend-go/internal/ratelimit"
	"github.com/fieldops/fieldtrack-backend-go/internal/validation"
)

// countingStore wraps fakeStore to observe cache effectiveness
type countingStore struct {
	*fakeStore
	queryCalls int
}

func (c *countingStore) QueryByTimeRange(ctx context.Context, ownerID int64, start, end time.Time, orgID, branchID *int64) ([]models.TrackingPoint, error) {
	c.queryCalls++
	return c.fakeStore.QueryByTimeRange(ctx, ownerID, start, end, orgID, branchID)
}

// fixedGeocoder resolves every coordinate to one address, or fails every
// call when err is set
type fixedGeocoder struct {
	address string
	err     error
	calls   int
}

func (f *fixedGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.address, nil
}

func newAnalyticsFixture(t *testing.T) (*AnalyticsService, *countingStore, *fixedGeocoder, cache.Store) {
	t.Helper()
	store := &countingStore{fakeStore: &fakeStore{}}
	directory := &fakeDirectory{owners: map[int64]*models.Owner{
		7: {ID: 7, Name: "Dana"},
		8: {ID: 8, Name: "Sam"},
	}}
	cacheStore := cache.NewMemory(100, 24*time.Hour)
	geocoder := &fixedGeocoder{address: "14 Quay St"}
	resolver := geocoding.NewResolver(geocoder, cacheStore, zap.NewNop())
	backfiller := geocoding.NewBackfiller(resolver, store, zap.NewNop())

	svc := NewAnalyticsService(store, directory, backfiller, cacheStore, zap.NewNop(), time.Hour)
	svc.now = func() time.Time { return time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC) }
	return svc, store, geocoder, cacheStore
}

func acc10() *float64 { v := 10.0; return &v }

// seedTrip stores a short morning drive for the owner on 2025-06-04
func seedTrip(store *countingStore, ownerID int64) {
	base := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC).Unix()
	for i := 0; i < 3; i++ {
		store.points = append(store.points, models.TrackingPoint{
			ID:         int64(len(store.points) + 1),
			OwnerID:    ownerID,
			Latitude:   40.0 + float64(i)*0.01,
			Longitude:  -74.0,
			Accuracy:   acc10(),
			CapturedAt: base + int64(i)*600,
		})
	}
}

func TestGetUserAnalyticsComposesReport(t *testing.T) {
	svc, store, geocoder, _ := newAnalyticsFixture(t)
	seedTrip(store, 7)

	report, err := svc.GetUserAnalytics(context.Background(), AnalyticsQuery{
		OwnerID:   7,
		Timeframe: models.TimeframeToday,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalPoints)
	assert.Equal(t, "Dana", report.User.Name)
	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), report.Period.Start)
	assert.InDelta(t, 2.2, report.TripSummary.TotalDistanceKm, 0.1)
	assert.Contains(t, []string{"High", "Medium", "Low"}, report.Analytics.EfficiencyRating)

	// Addresses were backfilled on read and persisted
	assert.Equal(t, 3, report.GeocodingStatus.Successful)
	assert.Zero(t, report.GeocodingStatus.Failed)
	assert.Positive(t, geocoder.calls)
	assert.Equal(t, "14 Quay St", store.points[0].Address)
	assert.Empty(t, report.Warnings)
}

func TestGetUserAnalyticsWarnsOnGeocodingFailure(t *testing.T) {
	svc, store, geocoder, _ := newAnalyticsFixture(t)
	geocoder.err = errors.New("geocoding api error: REQUEST_DENIED")
	seedTrip(store, 7)

	report, err := svc.GetUserAnalytics(context.Background(), AnalyticsQuery{
		OwnerID:   7,
		Timeframe: models.TimeframeToday,
	})
	require.NoError(t, err)

	// The report survives a dead provider; degraded resolution surfaces
	// as a warning, never a failure
	assert.Equal(t, 3, report.TotalPoints)
	assert.Equal(t, 3, report.GeocodingStatus.Failed)
	require.NotEmpty(t, report.Warnings)
	assert.Equal(t, models.WarningGeocodingError, report.Warnings[0].Type)
}

func TestGetUserAnalyticsServedFromCache(t *testing.T) {
	svc, store, _, _ := newAnalyticsFixture(t)
	seedTrip(store, 7)

	q := AnalyticsQuery{OwnerID: 7, Timeframe: models.TimeframeToday}

	first, err := svc.GetUserAnalytics(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 1, store.queryCalls)

	second, err := svc.GetUserAnalytics(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, store.queryCalls, "second read should hit the cache")
	assert.Equal(t, first.TotalPoints, second.TotalPoints)
	assert.InDelta(t, first.TripSummary.TotalDistanceKm, second.TripSummary.TotalDistanceKm, 0.001)
}

func TestIngestInvalidatesCachedReport(t *testing.T) {
	svc, store, _, cacheStore := newAnalyticsFixture(t)
	seedTrip(store, 7)

	q := AnalyticsQuery{OwnerID: 7, Timeframe: models.TimeframeToday}

	_, err := svc.GetUserAnalytics(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 1, store.queryCalls)

	// A fresh point bumps the identity's version, abandoning the entry
	BumpAnalyticsVersion(cacheStore, 7)

	_, err = svc.GetUserAnalytics(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, store.queryCalls, "report should be recomputed after invalidation")
}

func TestGetUserAnalyticsRejectsBadQueries(t *testing.T) {
	svc, _, _, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	_, err := svc.GetUserAnalytics(ctx, AnalyticsQuery{OwnerID: 99, Timeframe: models.TimeframeToday})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.GetUserAnalytics(ctx, AnalyticsQuery{OwnerID: 7, Timeframe: "fortnight"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.GetUserAnalytics(ctx, AnalyticsQuery{OwnerID: 7, Timeframe: models.TimeframeCustom})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetTeamAnalyticsSumsMembers(t *testing.T) {
	svc, store, _, _ := newAnalyticsFixture(t)
	seedTrip(store, 7)
	seedTrip(store, 8)

	team, err := svc.GetTeamAnalytics(context.Background(), []int64{7, 8}, AnalyticsQuery{
		Timeframe: models.TimeframeToday,
	})
	require.NoError(t, err)

	require.Len(t, team.Members, 2)
	assert.Equal(t, 6, team.TotalPoints)
	assert.InDelta(t,
		team.Members[0].TripSummary.TotalDistanceKm+team.Members[1].TripSummary.TotalDistanceKm,
		team.TotalDistanceKm, 0.001)
}

func TestGetTeamAnalyticsRequiresOwners(t *testing.T) {
	svc, _, _, _ := newAnalyticsFixture(t)
	_, err := svc.GetTeamAnalytics(context.Background(), nil, AnalyticsQuery{Timeframe: models.TimeframeToday})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIngestThenAnalyzeRoundTrip(t *testing.T) {
	analytics, store, _, cacheStore := newAnalyticsFixture(t)

	directory := &fakeDirectory{owners: map[int64]*models.Owner{7: {ID: 7, Name: "Dana"}}}
	tracker := NewTrackService(
		store,
		directory,
		validation.NewValidator(validation.MaxAccuracyMeters),
		ratelimit.NewLimiter(cacheStore, zap.NewNop(), 2, 60*time.Second),
		cacheStore,
		zap.NewNop(),
	)

	// A slow crawl in Johannesburg: two samples ten minutes apart
	first := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC).Unix()
	for i, sample := range []struct {
		lat, lon, speed float64
	}{
		{-26.2041, 28.0473, 0},
		{-26.2050, 28.0480, 40},
	} {
		lat, lon, speed, acc := sample.lat, sample.lon, sample.speed, 10.0
		res, err := tracker.Ingest(context.Background(), models.IngestInput{
			OwnerID:   7,
			Latitude:  &lat,
			Longitude: &lon,
			Speed:     &speed,
			Accuracy:  &acc,
			Timestamp: float64(first + int64(i)*600),
		})
		require.NoError(t, err)
		require.True(t, res.Stored)
	}

	report, err := analytics.GetUserAnalytics(context.Background(), AnalyticsQuery{
		OwnerID:   7,
		Timeframe: models.TimeframeToday,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalPoints)
	assert.Positive(t, report.TripSummary.TotalDistanceKm)
	assert.LessOrEqual(t, report.TripSummary.AverageSpeedKmh, 200.0)
	// Two fixes ~120 m apart never cluster into a stop
	assert.Empty(t, report.Stops.Stops)
}

func TestBackfillUngeocodedResolvesStoredPoints(t *testing.T) {
	svc, store, geocoder, _ := newAnalyticsFixture(t)
	seedTrip(store, 7)
	store.points[0].Address = "already here"

	summary, err := svc.BackfillUngeocoded(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ResolvedPoints)
	assert.Positive(t, geocoder.calls)
	for _, p := range store.points[1:] {
		assert.Equal(t, "14 Quay St", p.Address)
	}
}
