package rbac

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/commonsphere/commonsphere/internal/shared"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// VerdictInvalidator discards cached authorization verdicts. Every role
// mutation must go through it; a stale cached allow outlives the role
// assignment that produced it otherwise.
type VerdictInvalidator interface {
	Bump(ctx context.Context) error
}

// Service orchestrates role and permission resolution.
type Service struct {
	repo     RepositoryPort
	verdicts VerdictInvalidator
}

// NewService constructs a Service backed by the provided repository. The
// invalidator may be nil when no verdict cache is in play.
func NewService(repo RepositoryPort, verdicts VerdictInvalidator) *Service {
	return &Service{repo: repo, verdicts: verdicts}
}

func (s *Service) bumpVerdicts(ctx context.Context) error {
	if s.verdicts == nil {
		return nil
	}
	return s.verdicts.Bump(ctx)
}

// HasPermission reports whether any role assigned to the user grants the
// named permission. A role granting admin_all satisfies every check,
// including names absent from the catalog.
func (s *Service) HasPermission(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	granted, err := s.repo.UserPermissionNames(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range granted {
		if p == shared.PermAdminAll || p == name {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyPermission reports whether the user holds at least one of the names.
func (s *Service) HasAnyPermission(ctx context.Context, userID uuid.UUID, names ...string) (bool, error) {
	if len(names) == 0 {
		return false, nil
	}
	granted, err := s.repo.UserPermissionNames(ctx, userID)
	if err != nil {
		return false, err
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		if p == shared.PermAdminAll {
			return true, nil
		}
		set[p] = struct{}{}
	}
	for _, name := range names {
		if _, ok := set[name]; ok {
			return true, nil
		}
	}
	return false, nil
}

// IsAdmin reports whether the user holds the admin_all bypass.
func (s *Service) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	granted, err := s.repo.UserPermissionNames(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range granted {
		if p == shared.PermAdminAll {
			return true, nil
		}
	}
	return false, nil
}

// RoleHasPermission reports whether the role's own permission set contains
// the name. admin_all receives no special treatment here; the bypass applies
// only when resolving a user's effective permissions.
func (s *Service) RoleHasPermission(ctx context.Context, roleID uuid.UUID, name string) (bool, error) {
	granted, err := s.repo.RolePermissionNames(ctx, roleID)
	if err != nil {
		return false, err
	}
	for _, p := range granted {
		if p == name {
			return true, nil
		}
	}
	return false, nil
}

// EffectivePermissions returns deduplicated permission names for a user.
// Intended for introspection and UI; decision verbs go through HasPermission.
func (s *Service) EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.repo.UserPermissionNames(ctx, userID)
}

// UserRoleIDs returns the IDs of the user's assigned roles.
func (s *Service) UserRoleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.UserRoleIDs(ctx, userID)
}

// LookupPermissionID resolves a permission name to its ID. The found flag is
// false when the name is absent from the catalog.
func (s *Service) LookupPermissionID(ctx context.Context, name string) (uuid.UUID, bool, error) {
	return s.repo.PermissionIDByName(ctx, name)
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

// UpdateRole updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	role, err := s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// DeleteRole removes a role by ID. Returns ErrNotFound if nothing was deleted.
func (s *Service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	rows, err := s.repo.DeleteRole(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return s.bumpVerdicts(ctx)
}

// ListPermissions returns all permissions ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// EnsurePermission upserts a permission ensuring description is stored.
func (s *Service) EnsurePermission(ctx context.Context, name, description string) (Permission, error) {
	return s.repo.UpsertPermission(ctx, strings.TrimSpace(name), strings.TrimSpace(description))
}

// SyncCatalog upserts every named permission, used at startup to keep the
// stored catalog aligned with the declared scopes.
func (s *Service) SyncCatalog(ctx context.Context, names []string) error {
	for _, name := range names {
		if _, err := s.EnsurePermission(ctx, name, ""); err != nil {
			return err
		}
	}
	return nil
}

// SetRolePermissions replaces permissions for a role.
func (s *Service) SetRolePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	existingIDs, err := s.repo.ListRolePermissionIDs(ctx, roleID)
	if err != nil {
		return err
	}
	existing := make(map[uuid.UUID]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = struct{}{}
	}
	keep := make(map[uuid.UUID]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		keep[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			if err := s.repo.AttachPermission(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	for id := range existing {
		if _, ok := keep[id]; !ok {
			if err := s.repo.DetachPermission(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	return s.bumpVerdicts(ctx)
}

// AssignRole assigns a role to the given user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID uuid.UUID) error {
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	return s.bumpVerdicts(ctx)
}

// RemoveRole removes a role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID uuid.UUID) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	return s.bumpVerdicts(ctx)
}
