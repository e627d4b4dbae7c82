package overrides

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	_ "github.com/commonsphere/commonsphere/testing"
)

type fakeResolver struct {
	ids map[string]uuid.UUID
}

func (f *fakeResolver) LookupPermissionID(ctx context.Context, name string) (uuid.UUID, bool, error) {
	id, ok := f.ids[name]
	return id, ok, nil
}

type fakeRoles struct {
	roleIDs []uuid.UUID
}

func (f *fakeRoles) UserRoleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return f.roleIDs, nil
}

type recordKey struct {
	resourceType string
	resourceID   uuid.UUID
	granteeType  GranteeType
	granteeID    uuid.UUID
	permissionID uuid.UUID
}

type fakeRepo struct {
	records map[recordKey]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[recordKey]bool{}}
}

func (f *fakeRepo) ExistsForUser(ctx context.Context, resourceType string, resourceID, userID, permissionID uuid.UUID, allowed bool) (bool, error) {
	val, ok := f.records[recordKey{resourceType, resourceID, GranteeUser, userID, permissionID}]
	return ok && val == allowed, nil
}

func (f *fakeRepo) ExistsForRoles(ctx context.Context, resourceType string, resourceID uuid.UUID, roleIDs []uuid.UUID, permissionID uuid.UUID, allowed bool) (bool, error) {
	for _, roleID := range roleIDs {
		val, ok := f.records[recordKey{resourceType, resourceID, GranteeRole, roleID, permissionID}]
		if ok && val == allowed {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) Upsert(ctx context.Context, resourceType string, resourceID uuid.UUID, granteeType GranteeType, granteeID, permissionID uuid.UUID, allowed bool) (Override, error) {
	f.records[recordKey{resourceType, resourceID, granteeType, granteeID, permissionID}] = allowed
	return Override{
		ID:           uuid.New(),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		GranteeType:  granteeType,
		GranteeID:    granteeID,
		PermissionID: permissionID,
		IsAllowed:    allowed,
	}, nil
}

func (f *fakeRepo) DeleteUserGrant(ctx context.Context, resourceType string, resourceID, userID, permissionID uuid.UUID) (int64, error) {
	key := recordKey{resourceType, resourceID, GranteeUser, userID, permissionID}
	if _, ok := f.records[key]; !ok {
		return 0, nil
	}
	delete(f.records, key)
	return 1, nil
}

func newStoreFixture() (*Store, *fakeRepo, *fakeResolver, *fakeRoles) {
	repo := newFakeRepo()
	resolver := &fakeResolver{ids: map[string]uuid.UUID{"view_program": uuid.New()}}
	roles := &fakeRoles{}
	return NewStore(repo, resolver, roles), repo, resolver, roles
}

func TestGrantUnknownPermission(t *testing.T) {
	store, _, _, _ := newStoreFixture()
	_, err := store.Grant(context.Background(), "program", uuid.New(), uuid.New(), "no_such_permission")
	require.ErrorIs(t, err, ErrPermissionNotFound)
}

func TestGrantIsIdempotent(t *testing.T) {
	store, repo, _, _ := newStoreFixture()
	ctx := context.Background()
	resourceID := uuid.New()
	userID := uuid.New()

	first, err := store.Grant(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)
	require.True(t, first.IsAllowed)

	second, err := store.Grant(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)
	require.True(t, second.IsAllowed)
	require.Len(t, repo.records, 1)
}

func TestGrantFlipsDenial(t *testing.T) {
	store, _, _, _ := newStoreFixture()
	ctx := context.Background()
	resourceID := uuid.New()
	userID := uuid.New()

	_, err := store.Deny(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)

	denied, err := store.HasDenial(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)
	require.True(t, denied)

	_, err = store.Grant(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)

	denied, err = store.HasDenial(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)
	require.False(t, denied, "granting replaces the denial record in place")

	allowed, err := store.HasOverride(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestRevoke(t *testing.T) {
	store, _, _, _ := newStoreFixture()
	ctx := context.Background()
	resourceID := uuid.New()
	userID := uuid.New()

	revoked, err := store.Revoke(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)
	require.False(t, revoked, "nothing to revoke")

	_, err = store.Grant(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)

	revoked, err = store.Revoke(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)
	require.True(t, revoked)

	allowed, err := store.HasOverride(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestRevokeUnknownPermissionReturnsFalseWithoutError(t *testing.T) {
	store, _, _, _ := newStoreFixture()
	revoked, err := store.Revoke(context.Background(), "program", uuid.New(), uuid.New(), "no_such_permission")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestLookupUnknownPermissionIsNotAnError(t *testing.T) {
	store, _, _, _ := newStoreFixture()
	allowed, err := store.HasOverride(context.Background(), "program", uuid.New(), uuid.New(), "no_such_permission")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestRoleGranteeRecordsApply(t *testing.T) {
	store, repo, resolver, roles := newStoreFixture()
	ctx := context.Background()
	resourceID := uuid.New()
	userID := uuid.New()
	roleID := uuid.New()
	roles.roleIDs = []uuid.UUID{roleID}

	permID := resolver.ids["view_program"]
	_, err := repo.Upsert(ctx, "program", resourceID, GranteeRole, roleID, permID, true)
	require.NoError(t, err)

	allowed, err := store.HasOverride(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)
	require.True(t, allowed, "a record granted to one of the user's roles counts")

	denied, err := store.HasDenial(ctx, "program", resourceID, userID, "view_program")
	require.NoError(t, err)
	require.False(t, denied)
}
