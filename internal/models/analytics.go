package models

import "time"

// TripSummary aggregates movement over a time window for one identity
type TripSummary struct {
	TotalDistanceKm       float64            `json:"totalDistanceKm"`
	TotalTimeMinutes      float64            `json:"totalTimeMinutes"`
	MovingTimeMinutes     float64            `json:"movingTimeMinutes"`
	StationaryTimeMinutes float64            `json:"stationaryTimeMinutes"`
	AverageSpeedKmh       float64            `json:"averageSpeedKmh"`
	MaxSpeedKmh           float64            `json:"maxSpeedKmh"`
	TimePerAddress        map[string]float64 `json:"timePerAddress"` // minutes per display address
	DistanceDisplay       string             `json:"distanceDisplay"`
	DurationDisplay       string             `json:"durationDisplay"`
}

// Stop is a materialized cluster of consecutive points held within a
// spatial radius for at least the minimum dwell time. Stops are derived,
// never stored.
type Stop struct {
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Address         string    `json:"address"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes float64   `json:"durationMinutes"`
	PointCount      int       `json:"pointCount"`
}

// StopLocation rolls up stops sharing a display address
type StopLocation struct {
	Address      string  `json:"address"`
	Visits       int     `json:"visits"`
	TotalMinutes float64 `json:"totalMinutes"`
}

// StopReport is the stop detector output
type StopReport struct {
	Stops                      []Stop         `json:"stops"`
	Locations                  []StopLocation `json:"locations"`
	AverageStopDurationMinutes float64        `json:"averageStopDurationMinutes"`
}

// RouteSuggestion is an advisory recommendation, never auto-applied
type RouteSuggestion struct {
	SavingsKm float64 `json:"savingsKm"`
	Message   string  `json:"message"`
}

// Insights are presentational derivations layered on top of the trip and
// stop computation; they must not alter the underlying values
type Insights struct {
	EfficiencyRating string           `json:"efficiencyRating"` // High | Medium | Low
	EfficiencyScore  float64          `json:"efficiencyScore"`
	RouteSuggestion  *RouteSuggestion `json:"routeSuggestion,omitempty"`
	HourlyMovementKm map[int]float64  `json:"hourlyMovementKm"` // km moved per hour-of-day
}

// GeocodingStatus summarizes address resolution for a report
type GeocodingStatus struct {
	Successful   int `json:"successful"`
	Failed       int `json:"failed"`
	UsedFallback int `json:"usedFallback"`
	Skipped      int `json:"skipped"` // groups abandoned by the circuit breaker
}

// Period is the resolved [start, end] range of a timeframe
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AnalyticsReport is the composite analytics output for one identity
type AnalyticsReport struct {
	User            *Owner          `json:"user"`
	Timeframe       Timeframe       `json:"timeframe"`
	Period          Period          `json:"period"`
	TotalPoints     int             `json:"totalPoints"`
	TrackingPoints  []TrackingPoint `json:"trackingPoints"`
	TripSummary     TripSummary     `json:"tripSummary"`
	Stops           StopReport      `json:"stops"`
	Analytics       Insights        `json:"analytics"`
	GeocodingStatus GeocodingStatus `json:"geocodingStatus"`
	Warnings        []Warning       `json:"warnings,omitempty"`
}

// TeamAnalyticsReport aggregates reports across several identities
type TeamAnalyticsReport struct {
	Timeframe       Timeframe         `json:"timeframe"`
	Period          Period            `json:"period"`
	Members         []AnalyticsReport `json:"members"`
	TotalDistanceKm float64           `json:"totalDistanceKm"`
	TotalStops      int               `json:"totalStops"`
	TotalPoints     int               `json:"totalPoints"`
}
