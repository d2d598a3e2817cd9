package service

import (
	"context"
	"errors"
	"time"

	"github.com/fieldops/fieldtrack-backend-go/internal/models"
)

// Sentinel errors the handler layer maps to HTTP statuses
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// TrackStore is the persistence port the services depend on. The analytics
// core never talks to a database client directly, only to this interface.
type TrackStore interface {
	Insert(ctx context.Context, p *models.TrackingPoint) error
	List(ctx context.Context, filter models.TrackingPointFilter) ([]models.TrackingPoint, int64, error)
	QueryByTimeRange(ctx context.Context, ownerID int64, start, end time.Time, orgID, branchID *int64) ([]models.TrackingPoint, error)
	GetUngeocoded(ctx context.Context, limit int) ([]models.TrackingPoint, error)
	UpdateAddress(ctx context.Context, id int64, address, addressError string) error
	SoftDelete(ctx context.Context, id int64) error
}

// OwnerDirectory is the consumed collaborator interface: an identity
// lookup used to validate existence and obtain organizational scope
type OwnerDirectory interface {
	FindOwner(ctx context.Context, id int64) (*models.Owner, error)
}
