package rbac

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/commonsphere/commonsphere/internal/shared"
	_ "github.com/commonsphere/commonsphere/testing"
)

type fakeRepo struct {
	roles       map[uuid.UUID]Role
	permissions map[string]Permission
	rolePerms   map[uuid.UUID][]uuid.UUID
	userRoles   map[uuid.UUID][]uuid.UUID
	userPerms   map[uuid.UUID][]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		roles:       map[uuid.UUID]Role{},
		permissions: map[string]Permission{},
		rolePerms:   map[uuid.UUID][]uuid.UUID{},
		userRoles:   map[uuid.UUID][]uuid.UUID{},
		userPerms:   map[uuid.UUID][]string{},
	}
}

func (f *fakeRepo) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(f.roles))
	for _, role := range f.roles {
		out = append(out, role)
	}
	return out, nil
}

func (f *fakeRepo) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	role, ok := f.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	return role, nil
}

func (f *fakeRepo) CreateRole(ctx context.Context, name, description string) (Role, error) {
	role := Role{ID: uuid.New(), Name: name, Description: description}
	f.roles[role.ID] = role
	return role, nil
}

func (f *fakeRepo) UpdateRole(ctx context.Context, id uuid.UUID, name, description string) (Role, error) {
	role, ok := f.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	role.Name = name
	role.Description = description
	f.roles[id] = role
	return role, nil
}

func (f *fakeRepo) DeleteRole(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := f.roles[id]; !ok {
		return 0, nil
	}
	delete(f.roles, id)
	return 1, nil
}

func (f *fakeRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(f.permissions))
	for _, p := range f.permissions {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) UpsertPermission(ctx context.Context, name, description string) (Permission, error) {
	if p, ok := f.permissions[name]; ok {
		return p, nil
	}
	p := Permission{ID: uuid.New(), Name: name, Description: description}
	f.permissions[name] = p
	return p, nil
}

func (f *fakeRepo) PermissionIDByName(ctx context.Context, name string) (uuid.UUID, bool, error) {
	p, ok := f.permissions[name]
	if !ok {
		return uuid.Nil, false, nil
	}
	return p.ID, true, nil
}

func (f *fakeRepo) RolePermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	var names []string
	for _, permID := range f.rolePerms[roleID] {
		for name, p := range f.permissions {
			if p.ID == permID {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func (f *fakeRepo) ListRolePermissionIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	return f.rolePerms[roleID], nil
}

func (f *fakeRepo) AttachPermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	f.rolePerms[roleID] = append(f.rolePerms[roleID], permissionID)
	return nil
}

func (f *fakeRepo) DetachPermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	kept := f.rolePerms[roleID][:0]
	for _, id := range f.rolePerms[roleID] {
		if id != permissionID {
			kept = append(kept, id)
		}
	}
	f.rolePerms[roleID] = kept
	return nil
}

func (f *fakeRepo) AssignRole(ctx context.Context, userID, roleID uuid.UUID) error {
	f.userRoles[userID] = append(f.userRoles[userID], roleID)
	return nil
}

func (f *fakeRepo) RemoveRole(ctx context.Context, userID, roleID uuid.UUID) error {
	kept := f.userRoles[userID][:0]
	for _, id := range f.userRoles[userID] {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	f.userRoles[userID] = kept
	return nil
}

func (f *fakeRepo) UserRoleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return f.userRoles[userID], nil
}

func (f *fakeRepo) UserPermissionNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return f.userPerms[userID], nil
}

var _ RepositoryPort = (*fakeRepo)(nil)

func TestHasPermissionAdminAllSatisfiesEverything(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)
	userID := uuid.New()
	repo.userPerms[userID] = []string{shared.PermAdminAll}
	ctx := context.Background()

	ok, err := service.HasPermission(ctx, userID, shared.PermViewProgram)
	require.NoError(t, err)
	require.True(t, ok)

	// Names outside the catalog are satisfied too.
	ok, err = service.HasPermission(ctx, userID, "launch_rockets")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = service.IsAdmin(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHasPermissionExactMatch(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)
	userID := uuid.New()
	repo.userPerms[userID] = []string{shared.PermViewProgram}
	ctx := context.Background()

	ok, err := service.HasPermission(ctx, userID, shared.PermViewProgram)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = service.HasPermission(ctx, userID, shared.PermEditProgram)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = service.IsAdmin(ctx, userID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasAnyPermission(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)
	userID := uuid.New()
	repo.userPerms[userID] = []string{shared.PermCreateEvent}
	ctx := context.Background()

	ok, err := service.HasAnyPermission(ctx, userID, shared.PermManageEvents, shared.PermCreateEvent)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = service.HasAnyPermission(ctx, userID)
	require.NoError(t, err)
	require.False(t, ok, "empty name list never matches")
}

func TestRoleHasPermissionDoesNotBypass(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)
	ctx := context.Background()

	adminPerm, err := repo.UpsertPermission(ctx, shared.PermAdminAll, "")
	require.NoError(t, err)
	role, err := repo.CreateRole(ctx, "admins", "")
	require.NoError(t, err)
	require.NoError(t, repo.AttachPermission(ctx, role.ID, adminPerm.ID))

	// The role-level check answers only about the exact name; admin_all is
	// a user-level bypass and must not leak into it.
	ok, err := service.RoleHasPermission(ctx, role.ID, shared.PermViewProgram)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = service.RoleHasPermission(ctx, role.ID, shared.PermAdminAll)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLookupPermissionID(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)
	ctx := context.Background()

	perm, err := repo.UpsertPermission(ctx, shared.PermViewEvent, "")
	require.NoError(t, err)

	id, found, err := service.LookupPermissionID(ctx, shared.PermViewEvent)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, perm.ID, id)

	_, found, err = service.LookupPermissionID(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestSyncCatalog(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)
	ctx := context.Background()

	require.NoError(t, service.SyncCatalog(ctx, shared.AllScopes()))
	perms, err := service.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, perms, len(shared.AllScopes()))

	// Running twice leaves the catalog unchanged.
	require.NoError(t, service.SyncCatalog(ctx, shared.AllScopes()))
	perms, err = service.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, perms, len(shared.AllScopes()))
}

func TestSetRolePermissionsDiffs(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)
	ctx := context.Background()

	role, err := repo.CreateRole(ctx, "facilitators", "")
	require.NoError(t, err)
	a, _ := repo.UpsertPermission(ctx, "a", "")
	b, _ := repo.UpsertPermission(ctx, "b", "")
	c, _ := repo.UpsertPermission(ctx, "c", "")

	require.NoError(t, service.SetRolePermissions(ctx, role.ID, []uuid.UUID{a.ID, b.ID}))
	ids, err := repo.ListRolePermissionIDs(ctx, role.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, ids)

	require.NoError(t, service.SetRolePermissions(ctx, role.ID, []uuid.UUID{b.ID, c.ID}))
	ids, err = repo.ListRolePermissionIDs(ctx, role.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{b.ID, c.ID}, ids)
}

func TestDeleteRoleNotFound(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, nil)

	err := service.DeleteRole(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

type fakeInvalidator struct {
	bumps int
}

func (f *fakeInvalidator) Bump(ctx context.Context) error {
	f.bumps++
	return nil
}

func TestRoleMutationsInvalidateVerdicts(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeInvalidator{}
	service := NewService(repo, cache)
	ctx := context.Background()

	role, err := service.CreateRole(ctx, "editors", "")
	require.NoError(t, err)
	perm, err := service.EnsurePermission(ctx, shared.PermEditProgram, "")
	require.NoError(t, err)
	require.Zero(t, cache.bumps, "catalog and role creation do not touch verdicts")

	userID := uuid.New()
	require.NoError(t, service.AssignRole(ctx, userID, role.ID))
	require.Equal(t, 1, cache.bumps)

	require.NoError(t, service.SetRolePermissions(ctx, role.ID, []uuid.UUID{perm.ID}))
	require.Equal(t, 2, cache.bumps)

	require.NoError(t, service.RemoveRole(ctx, userID, role.ID))
	require.Equal(t, 3, cache.bumps)

	require.NoError(t, service.DeleteRole(ctx, role.ID))
	require.Equal(t, 4, cache.bumps)
}

func TestDeleteRoleNotFoundKeepsVerdicts(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeInvalidator{}
	service := NewService(repo, cache)

	err := service.DeleteRole(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, cache.bumps)
}
