package models

// Owner is a reporting identity from the user directory. The engine only
// consumes it to validate existence and to tag points with organizational
// scope; the directory itself is an external collaborator.
type Owner struct {
	ID             int64  `json:"id" db:"id"`
	Name           string `json:"name" db:"name"`
	OrganizationID *int64 `json:"organizationId,omitempty" db:"organization_id"`
	BranchID       *int64 `json:"branchId,omitempty" db:"branch_id"`
}
