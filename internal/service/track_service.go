package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/fieldtrack-backend-go/internal/cache"
	"github.com/fieldops/fieldtrack-backend-go/internal/models"
	"github.com/fieldops/fieldtrack-backend-go/internal/ratelimit"
	"github.com/fieldops/fieldtrack-backend-go/internal/validation"
)

// TrackService is the ingestion pipeline: normalize, validate, rate-limit,
// persist. Address resolution is deliberately deferred to retrieval time
// to keep the ingestion path fast; it can be retried independently without
// reprocessing ingestion.
type TrackService struct {
	store     TrackStore
	directory OwnerDirectory
	validator *validation.Validator
	limiter   *ratelimit.Limiter
	cache     cache.Store
	logger    *zap.Logger

	now func() time.Time
}

// NewTrackService creates the ingestion pipeline service
func NewTrackService(store TrackStore, directory OwnerDirectory, validator *validation.Validator, limiter *ratelimit.Limiter, cacheStore cache.Store, logger *zap.Logger) *TrackService {
	return &TrackService{
		store:     store,
		directory: directory,
		validator: validator,
		limiter:   limiter,
		cache:     cacheStore,
		logger:    logger,
		now:       time.Now,
	}
}

// Ingest processes one GPS sample. Validation and rate-limit rejections
// are expected noise: they come back as warnings with Stored=false, never
// as errors, so a device's stream is not interrupted by one bad sample.
// Malformed input is an ErrInvalidInput; only a persistence fault is a
// hard error.
func (s *TrackService) Ingest(ctx context.Context, input models.IngestInput) (*models.IngestResult, error) {
	input.Normalize()

	if input.OwnerID == 0 {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if input.Latitude == nil || input.Longitude == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", ErrInvalidInput)
	}
	lat, lon := *input.Latitude, *input.Longitude

	owner, err := s.directory.FindOwner(ctx, input.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up owner: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: unknown owner %d", ErrInvalidInput, input.OwnerID)
	}

	result := &models.IngestResult{Warnings: []models.Warning{}}

	switch s.validator.Check(lat, lon, input.Accuracy) {
	case validation.RejectOutOfRange:
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)

	case validation.RejectVirtual:
		// Accepted-and-discarded: expected simulator noise, no storage and
		// no rate-limit consumption
		result.Warnings = append(result.Warnings, models.Warning{
			Type:    models.WarningVirtualLocation,
			Message: "virtual location detected, point discarded",
		})
		return result, nil

	case validation.RejectInaccurate:
		result.Warnings = append(result.Warnings, models.Warning{
			Type:    models.WarningLowAccuracyGPS,
			Message: fmt.Sprintf("GPS accuracy beyond %.0f m threshold, point discarded", validation.MaxAccuracyMeters),
		})
		return result, nil
	}

	limit := s.limiter.CheckAndConsume(owner.ID)
	if !limit.Allowed {
		result.Warnings = append(result.Warnings, models.Warning{
			Type:    models.WarningRateLimitExceeded,
			Message: "ingestion rate limit exceeded",
			ResetAt: limit.ResetAt.Unix(),
		})
		return result, nil
	}

	now := s.now().UTC()
	capturedAt := int64(math.Floor(input.Timestamp))
	if capturedAt <= 0 {
		capturedAt = now.Unix()
	}

	point := &models.TrackingPoint{
		OwnerID:        owner.ID,
		Latitude:       lat,
		Longitude:      lon,
		Accuracy:       input.Accuracy,
		Speed:          input.Speed,
		Heading:        input.Heading,
		Altitude:       input.Altitude,
		CapturedAt:     capturedAt,
		ReceivedAt:     now.Unix(),
		RawCoords:      models.FormatRawCoords(lat, lon),
		OrganizationID: owner.OrganizationID,
		BranchID:       owner.BranchID,
	}

	if err := s.store.Insert(ctx, point); err != nil {
		return nil, fmt.Errorf("failed to store tracking point: %w", err)
	}

	// A fresh point makes any cached analytics for this identity stale
	BumpAnalyticsVersion(s.cache, owner.ID)

	result.Stored = true
	result.Data = point
	return result, nil
}

// List retrieves tracking points with filtering and pagination
func (s *TrackService) List(ctx context.Context, filter models.TrackingPointFilter) (*models.TrackingPointsResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}

	points, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking points: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.PageSize)))
	return &models.TrackingPointsResponse{
		Data:       points,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetUngeocoded returns points still awaiting address resolution
func (s *TrackService) GetUngeocoded(ctx context.Context, limit int) ([]models.TrackingPoint, error) {
	if limit < 1 {
		limit = 1000
	}
	if limit > 10000 {
		limit = 10000
	}

	points, err := s.store.GetUngeocoded(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ungeocoded points: %w", err)
	}
	return points, nil
}

// Delete soft-deletes a tracking point; the analytics path never hard
// deletes
func (s *TrackService) Delete(ctx context.Context, id int64) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete tracking point: %w", err)
	}
	return nil
}
