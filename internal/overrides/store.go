package overrides

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrPermissionNotFound indicates a grant referenced a permission name that
// does not exist in the catalog. Surfaced explicitly because it points at a
// caller or configuration bug, not a deny.
var ErrPermissionNotFound = errors.New("overrides: permission not found")

// PermissionResolver resolves permission names to IDs. The found flag is
// false when the name is absent from the catalog.
type PermissionResolver interface {
	LookupPermissionID(ctx context.Context, name string) (uuid.UUID, bool, error)
}

// RoleSource supplies the role IDs assigned to a user.
type RoleSource interface {
	UserRoleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Store answers resource-scoped allow/deny lookups and performs the two
// mutations (grant, revoke). Precedence between allow-override, deny-override
// and base RBAC is decided by the calling engine per resource type; the store
// only reports existence.
type Store struct {
	repo  RepositoryPort
	perms PermissionResolver
	roles RoleSource
}

// NewStore constructs a Store.
func NewStore(repo RepositoryPort, perms PermissionResolver, roles RoleSource) *Store {
	return &Store{repo: repo, perms: perms, roles: roles}
}

// HasOverride reports whether an is_allowed=true record exists for the user
// directly or for any of the user's roles. User-grantee records are consulted
// before role-grantee records; the results are OR'd.
func (s *Store) HasOverride(ctx context.Context, resourceType string, resourceID, userID uuid.UUID, permission string) (bool, error) {
	return s.exists(ctx, resourceType, resourceID, userID, permission, true)
}

// HasDenial reports whether an is_allowed=false record exists for the user
// directly or for any of the user's roles.
func (s *Store) HasDenial(ctx context.Context, resourceType string, resourceID, userID uuid.UUID, permission string) (bool, error) {
	return s.exists(ctx, resourceType, resourceID, userID, permission, false)
}

func (s *Store) exists(ctx context.Context, resourceType string, resourceID, userID uuid.UUID, permission string, allowed bool) (bool, error) {
	permID, found, err := s.perms.LookupPermissionID(ctx, permission)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	ok, err := s.repo.ExistsForUser(ctx, resourceType, resourceID, userID, permID, allowed)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	roleIDs, err := s.roles.UserRoleIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.repo.ExistsForRoles(ctx, resourceType, resourceID, roleIDs, permID, allowed)
}

// Grant upserts an is_allowed=true user-grantee record for the tuple.
// Granting twice with identical arguments leaves exactly one effective row.
// Returns ErrPermissionNotFound when the permission name is unknown.
func (s *Store) Grant(ctx context.Context, resourceType string, resourceID, userID uuid.UUID, permission string) (Override, error) {
	permID, found, err := s.perms.LookupPermissionID(ctx, permission)
	if err != nil {
		return Override{}, err
	}
	if !found {
		return Override{}, ErrPermissionNotFound
	}
	return s.repo.Upsert(ctx, resourceType, resourceID, GranteeUser, userID, permID, true)
}

// Deny upserts an is_allowed=false user-grantee record for the tuple.
func (s *Store) Deny(ctx context.Context, resourceType string, resourceID, userID uuid.UUID, permission string) (Override, error) {
	permID, found, err := s.perms.LookupPermissionID(ctx, permission)
	if err != nil {
		return Override{}, err
	}
	if !found {
		return Override{}, ErrPermissionNotFound
	}
	return s.repo.Upsert(ctx, resourceType, resourceID, GranteeUser, userID, permID, false)
}

// Revoke deletes the matching user-grantee record and reports whether one
// was removed. An unknown permission name means there is nothing to revoke.
func (s *Store) Revoke(ctx context.Context, resourceType string, resourceID, userID uuid.UUID, permission string) (bool, error) {
	permID, found, err := s.perms.LookupPermissionID(ctx, permission)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	rows, err := s.repo.DeleteUserGrant(ctx, resourceType, resourceID, userID, permID)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
