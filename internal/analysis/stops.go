package analysis

import (
	"sort"
	"time"

	"github.com/fieldops/fieldtrack-backend-go/internal/models"
	"github.com/fieldops/fieldtrack-backend-go/internal/spatial"
	"github.com/fieldops/fieldtrack-backend-go/internal/stats"
)

// StopOptions tunes the stop detector. Zero values fall back to defaults.
type StopOptions struct {
	RadiusMeters float64       // cluster absorption radius
	MinDwell     time.Duration // clusters shorter than this are not stops
}

// DefaultStopOptions returns the production thresholds
func DefaultStopOptions() StopOptions {
	return StopOptions{
		RadiusMeters: 50.0,
		MinDwell:     3 * time.Minute,
	}
}

func (o *StopOptions) applyDefaults() {
	d := DefaultStopOptions()
	if o.RadiusMeters <= 0 {
		o.RadiusMeters = d.RadiusMeters
	}
	if o.MinDwell <= 0 {
		o.MinDwell = d.MinDwell
	}
}

// cluster is the running state of the current candidate stop
type cluster struct {
	lat, lon   float64 // weighted center
	address    string
	startedAt  int64
	endedAt    int64
	pointCount int
}

func (c *cluster) absorb(p *models.TrackingPoint) {
	n := float64(c.pointCount)
	c.lat = (c.lat*n + p.Latitude) / (n + 1)
	c.lon = (c.lon*n + p.Longitude) / (n + 1)
	c.pointCount++
	c.endedAt = p.CapturedAt
	// Prefer the most recent resolved address for the cluster
	if p.Address != "" {
		c.address = p.Address
	}
}

func (c *cluster) displayAddress() string {
	if c.address != "" {
		return c.address
	}
	return models.FormatRawCoords(c.lat, c.lon)
}

// DetectStops clusters consecutive points into discrete stop events with a
// single forward scan. A point within RadiusMeters of the current cluster's
// weighted center extends the cluster; anything farther closes it and
// anchors a new one. A stop interrupted by a brief excursion outside the
// radius therefore shows up as two stops; the trade is O(n) and streaming
// friendly.
func DetectStops(points []models.TrackingPoint, opts StopOptions) models.StopReport {
	opts.applyDefaults()

	report := models.StopReport{
		Stops:     []models.Stop{},
		Locations: []models.StopLocation{},
	}
	if len(points) == 0 {
		return report
	}

	var current *cluster
	for i := range points {
		p := &points[i]
		if current == nil {
			current = newCluster(p)
			continue
		}

		if spatial.Distance(current.lat, current.lon, p.Latitude, p.Longitude) <= opts.RadiusMeters {
			current.absorb(p)
			continue
		}

		report.Stops = appendStop(report.Stops, current, opts.MinDwell)
		current = newCluster(p)
	}
	report.Stops = appendStop(report.Stops, current, opts.MinDwell)

	report.Locations = rollupLocations(report.Stops)

	durations := make([]float64, len(report.Stops))
	for i, s := range report.Stops {
		durations[i] = s.DurationMinutes
	}
	report.AverageStopDurationMinutes = stats.Mean(durations)

	return report
}

func newCluster(p *models.TrackingPoint) *cluster {
	return &cluster{
		lat:        p.Latitude,
		lon:        p.Longitude,
		address:    p.Address,
		startedAt:  p.CapturedAt,
		endedAt:    p.CapturedAt,
		pointCount: 1,
	}
}

// appendStop materializes a closed cluster as a Stop when it met the
// minimum dwell time
func appendStop(stops []models.Stop, c *cluster, minDwell time.Duration) []models.Stop {
	if c == nil {
		return stops
	}
	dwell := time.Duration(c.endedAt-c.startedAt) * time.Second
	if dwell < minDwell {
		return stops
	}
	return append(stops, models.Stop{
		Latitude:        c.lat,
		Longitude:       c.lon,
		Address:         c.displayAddress(),
		StartTime:       time.Unix(c.startedAt, 0).UTC(),
		EndTime:         time.Unix(c.endedAt, 0).UTC(),
		DurationMinutes: dwell.Minutes(),
		PointCount:      c.pointCount,
	})
}

// rollupLocations groups stops sharing a display address, most visited
// first
func rollupLocations(stops []models.Stop) []models.StopLocation {
	byAddress := make(map[string]*models.StopLocation)
	for _, s := range stops {
		loc, ok := byAddress[s.Address]
		if !ok {
			loc = &models.StopLocation{Address: s.Address}
			byAddress[s.Address] = loc
		}
		loc.Visits++
		loc.TotalMinutes += s.DurationMinutes
	}

	locations := make([]models.StopLocation, 0, len(byAddress))
	for _, loc := range byAddress {
		locations = append(locations, *loc)
	}
	sort.Slice(locations, func(i, j int) bool {
		if locations[i].Visits != locations[j].Visits {
			return locations[i].Visits > locations[j].Visits
		}
		return locations[i].TotalMinutes > locations[j].TotalMinutes
	})
	return locations
}
