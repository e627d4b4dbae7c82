package overrides

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines persistence operations for override records.
type RepositoryPort interface {
	ExistsForUser(ctx context.Context, resourceType string, resourceID, userID, permissionID uuid.UUID, allowed bool) (bool, error)
	ExistsForRoles(ctx context.Context, resourceType string, resourceID uuid.UUID, roleIDs []uuid.UUID, permissionID uuid.UUID, allowed bool) (bool, error)
	Upsert(ctx context.Context, resourceType string, resourceID uuid.UUID, granteeType GranteeType, granteeID, permissionID uuid.UUID, allowed bool) (Override, error)
	DeleteUserGrant(ctx context.Context, resourceType string, resourceID, userID, permissionID uuid.UUID) (int64, error)
}

// PGRepository implements RepositoryPort using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ExistsForUser reports whether a user-grantee record matches the tuple.
func (r *PGRepository) ExistsForUser(ctx context.Context, resourceType string, resourceID, userID, permissionID uuid.UUID, allowed bool) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM resource_permissions
		WHERE resource_type = $1 AND resource_id = $2
		  AND grantee_type = 'user' AND grantee_id = $3
		  AND permission_id = $4 AND is_allowed = $5)`,
		resourceType, resourceID, userID, permissionID, allowed).Scan(&exists)
	return exists, err
}

// ExistsForRoles reports whether a role-grantee record matches the tuple for
// any of the given role IDs.
func (r *PGRepository) ExistsForRoles(ctx context.Context, resourceType string, resourceID uuid.UUID, roleIDs []uuid.UUID, permissionID uuid.UUID, allowed bool) (bool, error) {
	if len(roleIDs) == 0 {
		return false, nil
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM resource_permissions
		WHERE resource_type = $1 AND resource_id = $2
		  AND grantee_type = 'role' AND grantee_id = ANY($3)
		  AND permission_id = $4 AND is_allowed = $5)`,
		resourceType, resourceID, roleIDs, permissionID, allowed).Scan(&exists)
	return exists, err
}

// Upsert creates or updates the record for the tuple, setting is_allowed.
func (r *PGRepository) Upsert(ctx context.Context, resourceType string, resourceID uuid.UUID, granteeType GranteeType, granteeID, permissionID uuid.UUID, allowed bool) (Override, error) {
	var o Override
	err := r.pool.QueryRow(ctx, `INSERT INTO resource_permissions
		(id, resource_type, resource_id, grantee_type, grantee_id, permission_id, is_allowed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (resource_type, resource_id, grantee_type, grantee_id, permission_id)
		DO UPDATE SET is_allowed = EXCLUDED.is_allowed, updated_at = NOW()
		RETURNING id, resource_type, resource_id, grantee_type, grantee_id, permission_id, is_allowed, created_at, updated_at`,
		uuid.New(), resourceType, resourceID, granteeType, granteeID, permissionID, allowed).
		Scan(&o.ID, &o.ResourceType, &o.ResourceID, &o.GranteeType, &o.GranteeID, &o.PermissionID, &o.IsAllowed, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Override{}, err
	}
	return o, nil
}

// DeleteUserGrant removes the user-grantee record for the tuple and reports
// affected rows.
func (r *PGRepository) DeleteUserGrant(ctx context.Context, resourceType string, resourceID, userID, permissionID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM resource_permissions
		WHERE resource_type = $1 AND resource_id = $2
		  AND grantee_type = 'user' AND grantee_id = $3 AND permission_id = $4`,
		resourceType, resourceID, userID, permissionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ RepositoryPort = (*PGRepository)(nil)
