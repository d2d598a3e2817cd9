package analysis

import (
	"fmt"
	"time"

	"github.com/fieldops/fieldtrack-backend-go/internal/models"
	"github.com/fieldops/fieldtrack-backend-go/internal/spatial"
	"github.com/fieldops/fieldtrack-backend-go/internal/stats"
)

// routeSavingsThresholdKm is how much shorter the reversed stop order has
// to be before it is worth surfacing
const routeSavingsThresholdKm = 2.0

// BuildInsights layers advisory derivations on top of the trip and stop
// computation. It reads the summary and stops but never mutates them.
func BuildInsights(points []models.TrackingPoint, summary models.TripSummary, stopReport models.StopReport, opts TripOptions) models.Insights {
	opts.applyDefaults()

	score := efficiencyScore(summary, stopReport)

	insights := models.Insights{
		EfficiencyScore:  score,
		EfficiencyRating: ratingFor(score),
		HourlyMovementKm: hourlyMovement(points, opts),
	}
	insights.RouteSuggestion = routeSuggestion(points, stopReport.Stops)
	return insights
}

// efficiencyScore weighs average speed, average stop duration and distance
// covered per hour into a 0-100 score
func efficiencyScore(summary models.TripSummary, stopReport models.StopReport) float64 {
	speedScore := stats.Clamp(summary.AverageSpeedKmh/60.0, 0, 1) * 100

	stopScore := 50.0 // neutral when the window has no stops
	if len(stopReport.Stops) > 0 {
		switch avg := stopReport.AverageStopDurationMinutes; {
		case avg <= 15:
			stopScore = 100
		case avg <= 30:
			stopScore = 60
		default:
			stopScore = 30
		}
	}

	distScore := 0.0
	if summary.TotalTimeMinutes > 0 {
		perHour := summary.TotalDistanceKm / (summary.TotalTimeMinutes / 60.0)
		distScore = stats.Clamp(perHour/40.0, 0, 1) * 100
	}

	return stats.WeightedMean(
		[]float64{speedScore, stopScore, distScore},
		[]float64{0.4, 0.3, 0.3},
	)
}

func ratingFor(score float64) string {
	switch {
	case score >= 70:
		return "High"
	case score >= 40:
		return "Medium"
	default:
		return "Low"
	}
}

// routeSuggestion compares the travelled stop order against visiting the
// same stops in reverse from the day's starting point. A meaningfully
// shorter reversal is surfaced as a recommendation, never applied.
func routeSuggestion(points []models.TrackingPoint, stops []models.Stop) *models.RouteSuggestion {
	if len(points) == 0 || len(stops) < 2 {
		return nil
	}

	anchor := points[0]

	forward := chainDistanceKm(anchor, stops, false)
	reversed := chainDistanceKm(anchor, stops, true)

	savings := forward - reversed
	if savings <= routeSavingsThresholdKm {
		return nil
	}

	return &models.RouteSuggestion{
		SavingsKm: savings,
		Message: fmt.Sprintf("Visiting the same stops in reverse order would have saved about %s of travel",
			spatial.FormatDistance(savings)),
	}
}

// chainDistanceKm sums the leg distances from the anchor through the stops
func chainDistanceKm(anchor models.TrackingPoint, stops []models.Stop, reverse bool) float64 {
	lat, lon := anchor.Latitude, anchor.Longitude
	total := 0.0
	for i := range stops {
		idx := i
		if reverse {
			idx = len(stops) - 1 - i
		}
		total += spatial.DistanceKm(lat, lon, stops[idx].Latitude, stops[idx].Longitude)
		lat, lon = stops[idx].Latitude, stops[idx].Longitude
	}
	return total
}

// hourlyMovement attributes each retained segment's distance to the UTC
// hour it started in, surfacing peak activity windows
func hourlyMovement(points []models.TrackingPoint, opts TripOptions) map[int]float64 {
	histogram := make(map[int]float64)
	usable := UsablePoints(points, opts.MaxAccuracyMeters)
	for _, seg := range BuildSegments(usable, opts) {
		hour := time.Unix(seg.From.CapturedAt, 0).UTC().Hour()
		histogram[hour] += seg.Meters / 1000.0
	}
	return histogram
}
