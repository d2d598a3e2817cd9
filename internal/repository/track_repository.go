package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fieldops/fieldtrack-backend-go/internal/models"
)

// TrackRepository handles database operations for tracking points
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new track repository
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

const trackColumns = `id, owner_id, latitude, longitude, accuracy, speed, heading, altitude,
	captured_at, received_at, address, address_error, raw_coords, organization_id, branch_id`

// Insert persists a new tracking point and fills in its ID
func (r *TrackRepository) Insert(ctx context.Context, p *models.TrackingPoint) error {
	query := `INSERT INTO tracking_points
		(owner_id, latitude, longitude, accuracy, speed, heading, altitude,
		 captured_at, received_at, address, address_error, raw_coords, organization_id, branch_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		p.OwnerID, p.Latitude, p.Longitude, p.Accuracy, p.Speed, p.Heading, p.Altitude,
		p.CapturedAt, p.ReceivedAt, p.Address, p.AddressError, p.RawCoords,
		p.OrganizationID, p.BranchID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tracking point: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	p.ID = id
	return nil
}

// QueryByTimeRange returns an identity's points within [start, end),
// ordered by capture time, excluding soft-deleted rows. Organization and
// branch scope narrow the result when set.
func (r *TrackRepository) QueryByTimeRange(ctx context.Context, ownerID int64, start, end time.Time, orgID, branchID *int64) ([]models.TrackingPoint, error) {
	query := fmt.Sprintf(`SELECT %s FROM tracking_points`, trackColumns)

	conditions := []string{"owner_id = ?", "captured_at >= ?", "captured_at < ?", "deleted_at IS NULL"}
	args := []interface{}{ownerID, start.Unix(), end.Unix()}

	if orgID != nil {
		conditions = append(conditions, "organization_id = ?")
		args = append(args, *orgID)
	}
	if branchID != nil {
		conditions = append(conditions, "branch_id = ?")
		args = append(args, *branchID)
	}

	query += " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY captured_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracking points: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// List retrieves tracking points with filtering and pagination
func (r *TrackRepository) List(ctx context.Context, filter models.TrackingPointFilter) ([]models.TrackingPoint, int64, error) {
	conditions := []string{"owner_id = ?", "deleted_at IS NULL"}
	args := []interface{}{filter.OwnerID}

	if filter.StartTime > 0 {
		conditions = append(conditions, "captured_at >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "captured_at <= ?")
		args = append(args, filter.EndTime)
	}
	if filter.OrganizationID != nil {
		conditions = append(conditions, "organization_id = ?")
		args = append(args, *filter.OrganizationID)
	}
	if filter.BranchID != nil {
		conditions = append(conditions, "branch_id = ?")
		args = append(args, *filter.BranchID)
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tracking_points"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tracking points: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}
	offset := (filter.Page - 1) * filter.PageSize

	query := fmt.Sprintf(`SELECT %s FROM tracking_points`, trackColumns) + where +
		" ORDER BY captured_at DESC LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tracking points: %w", err)
	}
	defer rows.Close()

	points, err := scanPoints(rows)
	if err != nil {
		return nil, 0, err
	}
	return points, total, nil
}

// GetUngeocoded returns points that have neither an address nor a recorded
// resolution error, oldest first
func (r *TrackRepository) GetUngeocoded(ctx context.Context, limit int) ([]models.TrackingPoint, error) {
	if limit < 1 {
		limit = 1000
	}

	query := fmt.Sprintf(`SELECT %s FROM tracking_points
		WHERE address = '' AND address_error = '' AND deleted_at IS NULL
		ORDER BY captured_at ASC LIMIT ?`, trackColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ungeocoded points: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// UpdateAddress attaches the outcome of address resolution to a point.
// Address and addressError are mutually exclusive; writing one clears the
// other, which also makes re-resolution idempotent.
func (r *TrackRepository) UpdateAddress(ctx context.Context, id int64, address, addressError string) error {
	if address != "" && addressError != "" {
		return fmt.Errorf("address and address error are mutually exclusive")
	}

	query := `UPDATE tracking_points SET address = ?, address_error = ? WHERE id = ? AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, address, addressError, id); err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}
	return nil
}

// SoftDelete hides a point from every analytics query without removing the
// row
func (r *TrackRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE tracking_points SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to soft delete tracking point: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanPoints(rows *sql.Rows) ([]models.TrackingPoint, error) {
	var points []models.TrackingPoint
	for rows.Next() {
		var p models.TrackingPoint
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.Latitude, &p.Longitude, &p.Accuracy, &p.Speed, &p.Heading, &p.Altitude,
			&p.CapturedAt, &p.ReceivedAt, &p.Address, &p.AddressError, &p.RawCoords,
			&p.OrganizationID, &p.BranchID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tracking point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracking points: %w", err)
	}
	return points, nil
}
