package models

import "fmt"

// TrackingPoint represents a single GPS sample reported by a field device
type TrackingPoint struct {
	ID             int64    `json:"id" db:"id"`
	OwnerID        int64    `json:"ownerId" db:"owner_id"`
	Latitude       float64  `json:"latitude" db:"latitude"`
	Longitude      float64  `json:"longitude" db:"longitude"`
	Accuracy       *float64 `json:"accuracy,omitempty" db:"accuracy"`      // meters
	Speed          *float64 `json:"speed,omitempty" db:"speed"`            // km/h
	Heading        *float64 `json:"heading,omitempty" db:"heading"`        // degrees
	Altitude       *float64 `json:"altitude,omitempty" db:"altitude"`      // meters
	CapturedAt     int64    `json:"capturedAt" db:"captured_at"`           // Unix seconds, device clock
	ReceivedAt     int64    `json:"receivedAt" db:"received_at"`           // Unix seconds, server clock
	Address        string   `json:"address,omitempty" db:"address"`
	AddressError   string   `json:"addressError,omitempty" db:"address_error"`
	RawCoords      string   `json:"rawCoords" db:"raw_coords"` // "lat,lon" fallback for display
	OrganizationID *int64   `json:"organizationId,omitempty" db:"organization_id"`
	BranchID       *int64   `json:"branchId,omitempty" db:"branch_id"`
}

// DisplayAddress returns the resolved address, falling back to the raw
// coordinate string when resolution has not happened or failed
func (p *TrackingPoint) DisplayAddress() string {
	if p.Address != "" {
		return p.Address
	}
	return p.RawCoords
}

// FormatRawCoords builds the coordinate-string fallback address
func FormatRawCoords(lat, lon float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lon)
}

// Coords is the nested coordinate shape some device firmwares send
type Coords struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
	Speed     *float64 `json:"speed"`
	Heading   *float64 `json:"heading"`
	Altitude  *float64 `json:"altitude"`
}

// IngestInput is the ingestion request body. Devices send either flat
// lat/lon fields or a nested coords object; Normalize flattens the latter.
type IngestInput struct {
	OwnerID   int64    `json:"owner" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
	Speed     *float64 `json:"speed"`
	Heading   *float64 `json:"heading"`
	Altitude  *float64 `json:"altitude"`
	Timestamp float64  `json:"timestamp"` // Unix seconds, may carry a fractional part
	Coords    *Coords  `json:"coords"`
}

// Normalize flattens the nested coords shape into the flat fields.
// Flat fields win when both are present.
func (in *IngestInput) Normalize() {
	if in.Coords == nil {
		return
	}
	if in.Latitude == nil {
		in.Latitude = &in.Coords.Latitude
	}
	if in.Longitude == nil {
		in.Longitude = &in.Coords.Longitude
	}
	if in.Accuracy == nil {
		in.Accuracy = in.Coords.Accuracy
	}
	if in.Speed == nil {
		in.Speed = in.Coords.Speed
	}
	if in.Heading == nil {
		in.Heading = in.Coords.Heading
	}
	if in.Altitude == nil {
		in.Altitude = in.Coords.Altitude
	}
}

// Warning types. The first three come from the ingestion pipeline;
// GEOCODING_ERROR comes from the deferred address-resolution stage on
// analytics reports.
const (
	WarningVirtualLocation   = "VIRTUAL_LOCATION"
	WarningLowAccuracyGPS    = "LOW_ACCURACY_GPS"
	WarningRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	WarningGeocodingError    = "GEOCODING_ERROR"
)

// Warning describes an expected-noise outcome of the pipeline. Warnings
// are not errors: the device stream and the analytics response continue
// regardless.
type Warning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	ResetAt int64  `json:"resetAt,omitempty"` // only for RATE_LIMIT_EXCEEDED
}

// IngestResult is the structured outcome of an ingestion attempt
type IngestResult struct {
	Stored   bool           `json:"stored"`
	Data     *TrackingPoint `json:"data"`
	Warnings []Warning      `json:"warnings"`
}

// TrackingPointFilter represents filter parameters for querying track points
type TrackingPointFilter struct {
	OwnerID        int64  `form:"ownerId" binding:"required"`
	StartTime      int64  `form:"startTime"` // Unix timestamp
	EndTime        int64  `form:"endTime"`   // Unix timestamp
	OrganizationID *int64 `form:"organizationId"`
	BranchID       *int64 `form:"branchId"`
	Page           int    `form:"page"`
	PageSize       int    `form:"pageSize"`
}

// TrackingPointsResponse represents a paginated response of track points
type TrackingPointsResponse struct {
	Data       []TrackingPoint `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}
