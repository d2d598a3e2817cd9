package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldtrack-backend-go/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

// point builds a usable tracking point; 0.001 degrees of latitude is about
// 111 m
func point(lat, lon float64, capturedAt int64) models.TrackingPoint {
	return models.TrackingPoint{
		Latitude:   lat,
		Longitude:  lon,
		Accuracy:   floatPtr(10),
		CapturedAt: capturedAt,
	}
}

func TestUsablePointsFiltersOnAccuracy(t *testing.T) {
	points := []models.TrackingPoint{
		{Latitude: 40, Longitude: -74, Accuracy: floatPtr(5)},
		{Latitude: 40, Longitude: -74, Accuracy: floatPtr(20)}, // boundary kept
		{Latitude: 40, Longitude: -74, Accuracy: floatPtr(25)},
		{Latitude: 40, Longitude: -74, Accuracy: nil},
	}

	usable := UsablePoints(points, 20)
	assert.Len(t, usable, 2)
}

func TestAnalyzeTripFewerThanTwoUsablePoints(t *testing.T) {
	cases := map[string][]models.TrackingPoint{
		"no points":  {},
		"one point":  {point(40, -74, 1700000000)},
		"only noisy": {{Latitude: 40, Longitude: -74, Accuracy: floatPtr(50), CapturedAt: 1700000000}},
	}

	for name, points := range cases {
		t.Run(name, func(t *testing.T) {
			summary := AnalyzeTrip(points, TripOptions{})
			assert.Zero(t, summary.TotalDistanceKm)
			assert.Zero(t, summary.TotalTimeMinutes)
			assert.Zero(t, summary.AverageSpeedKmh)
			assert.Equal(t, "0 m", summary.DistanceDisplay)
			assert.Equal(t, "0m", summary.DurationDisplay)
			assert.NotNil(t, summary.TimePerAddress)
		})
	}
}

func TestAnalyzeTripMovingPlusStationaryEqualsTotal(t *testing.T) {
	base := int64(1700000000)
	points := []models.TrackingPoint{
		point(40.0, -74.0, base),
		// 10 minutes parked: same spot, folded as jitter
		point(40.0, -74.0, base+600),
		// then 10 minutes driving ~1.11 km north
		point(40.01, -74.0, base+1200),
	}

	summary := AnalyzeTrip(points, TripOptions{})

	assert.InDelta(t, 20.0, summary.TotalTimeMinutes, 0.01)
	assert.InDelta(t, 10.0, summary.MovingTimeMinutes, 0.01)
	assert.InDelta(t, 10.0, summary.StationaryTimeMinutes, 0.01)
	assert.InDelta(t, summary.TotalTimeMinutes,
		summary.MovingTimeMinutes+summary.StationaryTimeMinutes, 0.001)

	assert.InDelta(t, 1.11, summary.TotalDistanceKm, 0.02)
	// Average speed counts moving time only
	assert.InDelta(t, 6.7, summary.AverageSpeedKmh, 0.2)
	assert.InDelta(t, summary.AverageSpeedKmh, summary.MaxSpeedKmh, 0.2)
	assert.Equal(t, "1.1 km", summary.DistanceDisplay)
	assert.Equal(t, "20m", summary.DurationDisplay)
}

func TestBuildSegmentsDropsJitterPairs(t *testing.T) {
	base := int64(1700000000)

	t.Run("below minimum interval", func(t *testing.T) {
		points := []models.TrackingPoint{
			point(40.0, -74.0, base),
			point(40.01, -74.0, base+2), // 2 s apart, however far
		}
		assert.Empty(t, BuildSegments(points, TripOptions{}))
	})

	t.Run("below minimum distance", func(t *testing.T) {
		points := []models.TrackingPoint{
			point(40.0, -74.0, base),
			point(40.00001, -74.0, base+60), // ~1 m apart
		}
		assert.Empty(t, BuildSegments(points, TripOptions{}))
	})

	t.Run("real movement kept", func(t *testing.T) {
		points := []models.TrackingPoint{
			point(40.0, -74.0, base),
			point(40.001, -74.0, base+60),
		}
		segments := BuildSegments(points, TripOptions{})
		require.Len(t, segments, 1)
		assert.InDelta(t, 111.3, segments[0].Meters, 1)
		assert.True(t, segments[0].Moving)
	})
}

func TestAnalyzeTripCapsImplausibleSpeed(t *testing.T) {
	base := int64(1700000000)
	// ~11 km in one minute is a GPS spike, not driving
	points := []models.TrackingPoint{
		point(40.0, -74.0, base),
		point(40.1, -74.0, base+60),
	}

	summary := AnalyzeTrip(points, TripOptions{})

	assert.InDelta(t, 200.0, summary.MaxSpeedKmh, 0.001)
	assert.InDelta(t, 200.0, summary.AverageSpeedKmh, 0.001)
}

func TestAnalyzeTripTimePerAddress(t *testing.T) {
	base := int64(1700000000)
	p1 := point(40.0, -74.0, base)
	p1.Address = "12 Harbour St"
	p2 := point(40.01, -74.0, base+600)
	p2.Address = "7 Mill Lane"
	p3 := point(40.02, -74.0, base+1200)

	summary := AnalyzeTrip([]models.TrackingPoint{p1, p2, p3}, TripOptions{})

	assert.InDelta(t, 10.0, summary.TimePerAddress["12 Harbour St"], 0.01)
	assert.InDelta(t, 10.0, summary.TimePerAddress["7 Mill Lane"], 0.01)
}
