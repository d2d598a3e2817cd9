// Package analysis derives trip summaries, stops and secondary insights
// from time-ordered tracking points. All computation here is pure and
// CPU-bound; points are read-only and callers may run analyses for
// independent identities in parallel.
package analysis

import (
	"math"
	"time"

	"github.com/fieldops/fieldtrack-backend-go/internal/models"
	"github.com/fieldops/fieldtrack-backend-go/internal/spatial"
)

// TripOptions tunes the trip analyzer. Zero values fall back to defaults.
type TripOptions struct {
	MaxAccuracyMeters  float64       // accuracy pre-filter
	MinSegmentInterval time.Duration // pairs closer in time are jitter
	MinSegmentMeters   float64       // pairs closer in space are jitter
	MaxSpeedKmh        float64       // cap against GPS spikes
	MovingThresholdKmh float64       // below this a segment is stationary
}

// DefaultTripOptions returns the production thresholds
func DefaultTripOptions() TripOptions {
	return TripOptions{
		MaxAccuracyMeters:  20.0,
		MinSegmentInterval: 5 * time.Second,
		MinSegmentMeters:   5.0,
		MaxSpeedKmh:        200.0,
		MovingThresholdKmh: 2.0,
	}
}

func (o *TripOptions) applyDefaults() {
	d := DefaultTripOptions()
	if o.MaxAccuracyMeters <= 0 {
		o.MaxAccuracyMeters = d.MaxAccuracyMeters
	}
	if o.MinSegmentInterval <= 0 {
		o.MinSegmentInterval = d.MinSegmentInterval
	}
	if o.MinSegmentMeters <= 0 {
		o.MinSegmentMeters = d.MinSegmentMeters
	}
	if o.MaxSpeedKmh <= 0 {
		o.MaxSpeedKmh = d.MaxSpeedKmh
	}
	if o.MovingThresholdKmh <= 0 {
		o.MovingThresholdKmh = d.MovingThresholdKmh
	}
}

// Segment is one retained movement observation between two consecutive
// usable points
type Segment struct {
	From     *models.TrackingPoint
	To       *models.TrackingPoint
	Meters   float64
	Duration time.Duration
	SpeedKmh float64 // capped
	Moving   bool
}

// UsablePoints applies the accuracy pre-filter. Stored points may predate
// the ingestion-side gate or come from bulk import, so the analyzer filters
// again rather than trusting the store.
func UsablePoints(points []models.TrackingPoint, maxAccuracy float64) []models.TrackingPoint {
	usable := make([]models.TrackingPoint, 0, len(points))
	for _, p := range points {
		if p.Accuracy == nil || *p.Accuracy > maxAccuracy {
			continue
		}
		usable = append(usable, p)
	}
	return usable
}

// BuildSegments walks consecutive pairs of usable points and keeps only
// real movement observations: pairs below the minimum interval or minimum
// distance are GPS jitter folded into a single stationary observation.
func BuildSegments(points []models.TrackingPoint, opts TripOptions) []Segment {
	opts.applyDefaults()

	var segments []Segment
	for i := 1; i < len(points); i++ {
		from, to := &points[i-1], &points[i]

		elapsed := time.Duration(to.CapturedAt-from.CapturedAt) * time.Second
		if elapsed < opts.MinSegmentInterval {
			continue
		}

		meters := spatial.Distance(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
		if meters < opts.MinSegmentMeters {
			continue
		}

		speed := (meters / 1000.0) / elapsed.Hours()
		if speed > opts.MaxSpeedKmh {
			speed = opts.MaxSpeedKmh
		}

		segments = append(segments, Segment{
			From:     from,
			To:       to,
			Meters:   meters,
			Duration: elapsed,
			SpeedKmh: speed,
			Moving:   speed >= opts.MovingThresholdKmh,
		})
	}
	return segments
}

// AnalyzeTrip computes the trip summary for a time-ordered point sequence.
// With fewer than 2 usable points it returns a zeroed summary: an empty
// trip is valid, not exceptional.
func AnalyzeTrip(points []models.TrackingPoint, opts TripOptions) models.TripSummary {
	opts.applyDefaults()

	summary := models.TripSummary{
		TimePerAddress: make(map[string]float64),
	}

	usable := UsablePoints(points, opts.MaxAccuracyMeters)
	if len(usable) < 2 {
		summary.DistanceDisplay = spatial.FormatDistance(0)
		summary.DurationDisplay = spatial.FormatDuration(0)
		return summary
	}

	totalElapsed := time.Duration(usable[len(usable)-1].CapturedAt-usable[0].CapturedAt) * time.Second
	summary.TotalTimeMinutes = totalElapsed.Minutes()

	var totalMeters float64
	var movingTime time.Duration
	for _, seg := range BuildSegments(usable, opts) {
		totalMeters += seg.Meters
		if seg.SpeedKmh > summary.MaxSpeedKmh {
			summary.MaxSpeedKmh = seg.SpeedKmh
		}
		if seg.Moving {
			movingTime += seg.Duration
		}
		summary.TimePerAddress[seg.From.DisplayAddress()] += seg.Duration.Minutes()
	}

	summary.TotalDistanceKm = totalMeters / 1000.0
	summary.MovingTimeMinutes = movingTime.Minutes()
	summary.StationaryTimeMinutes = summary.TotalTimeMinutes - summary.MovingTimeMinutes
	if summary.StationaryTimeMinutes < 0 {
		summary.StationaryTimeMinutes = 0
	}

	if movingTime > 0 {
		avg := summary.TotalDistanceKm / movingTime.Hours()
		summary.AverageSpeedKmh = math.Min(avg, opts.MaxSpeedKmh)
	}

	summary.DistanceDisplay = spatial.FormatDistance(summary.TotalDistanceKm)
	summary.DurationDisplay = spatial.FormatDuration(summary.TotalTimeMinutes)
	return summary
}
