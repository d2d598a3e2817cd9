package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fieldops/fieldtrack-backend-go/internal/models"
)

// UserRepository is the engine's view of the user directory: it only
// validates that a reporting identity exists and reads its organizational
// scope
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindOwner looks up a reporting identity, nil when it does not exist
func (r *UserRepository) FindOwner(ctx context.Context, id int64) (*models.Owner, error) {
	query := `SELECT id, name, organization_id, branch_id FROM users WHERE id = ?`

	var o models.Owner
	err := r.db.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.Name, &o.OrganizationID, &o.BranchID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find owner: %w", err)
	}
	return &o, nil
}
