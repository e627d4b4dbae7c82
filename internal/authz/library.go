package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/commonsphere/commonsphere/internal/shared"
)

// CanViewLibraryItem decides view access to a library item. Both override
// directions are consulted before the access-level match; a denial here
// beats anything the enumeration would grant.
func (e *Engine) CanViewLibraryItem(ctx context.Context, userID uuid.UUID, item LibraryItem) (bool, error) {
	return e.evaluate(ctx, userID, "library_item.view", []rule{
		{"override-allow", e.overrideAllow(ResourceTypeLibraryItem, item.ID, userID, shared.PermViewLibraryItem)},
		{"override-deny", e.overrideDeny(ResourceTypeLibraryItem, item.ID, userID, shared.PermViewLibraryItem)},
		{"access-level", func(ctx context.Context) (outcome, error) {
			switch item.AccessLevel {
			case LibraryPublic:
				return ruleAllow, nil
			case LibraryMembers:
				ok, err := e.perms.HasPermission(ctx, userID, shared.PermViewLibraryItem)
				if err != nil {
					return ruleNext, err
				}
				return allowIf(ok), nil
			case LibraryProgramMembers:
				if item.ProgramID == uuid.Nil {
					return ruleNext, nil
				}
				ok, err := e.members.IsProgramMember(ctx, userID, item.ProgramID)
				if err != nil {
					return ruleNext, err
				}
				return allowIf(ok), nil
			case LibraryCohortMembers:
				if item.CohortID == uuid.Nil {
					return ruleNext, nil
				}
				ok, err := e.members.IsCohortMember(ctx, userID, item.CohortID)
				if err != nil {
					return ruleNext, err
				}
				return allowIf(ok), nil
			default:
				return ruleDeny, nil
			}
		}},
	})
}

// CanEditLibraryItem decides edit access to a library item.
func (e *Engine) CanEditLibraryItem(ctx context.Context, userID uuid.UUID, item LibraryItem) (bool, error) {
	return e.evaluate(ctx, userID, "library_item.edit", []rule{
		{"edit-permission", e.permitted(shared.PermEditLibraryItem, userID)},
		{"author", func(ctx context.Context) (outcome, error) {
			return allowIf(item.AuthorID != uuid.Nil && item.AuthorID == userID), nil
		}},
		{"cohort-facilitator", func(ctx context.Context) (outcome, error) {
			if item.CohortID == uuid.Nil {
				return ruleNext, nil
			}
			ok, err := e.members.IsCohortFacilitator(ctx, userID, item.CohortID)
			if err != nil {
				return ruleNext, err
			}
			return allowIf(ok), nil
		}},
		{"override-allow", e.overrideAllow(ResourceTypeLibraryItem, item.ID, userID, shared.PermEditLibraryItem)},
	})
}

// CanCreateLibraryItem decides creation access.
func (e *Engine) CanCreateLibraryItem(ctx context.Context, userID uuid.UUID) (bool, error) {
	return e.evaluate(ctx, userID, "library_item.create", []rule{
		{"create-permission", e.permitted(shared.PermCreateLibraryItem, userID)},
	})
}

// CanDeleteLibraryItem decides delete access: admin, the author, or anyone
// holding edit_library_item.
func (e *Engine) CanDeleteLibraryItem(ctx context.Context, userID uuid.UUID, item LibraryItem) (bool, error) {
	return e.evaluate(ctx, userID, "library_item.delete", []rule{
		{"author", func(ctx context.Context) (outcome, error) {
			return allowIf(item.AuthorID != uuid.Nil && item.AuthorID == userID), nil
		}},
		{"edit-permission", e.permitted(shared.PermEditLibraryItem, userID)},
	})
}

// CanPublishLibraryItem decides publish access.
func (e *Engine) CanPublishLibraryItem(ctx context.Context, userID uuid.UUID, item LibraryItem) (bool, error) {
	return e.evaluate(ctx, userID, "library_item.publish", []rule{
		{"publish-permission", e.permitted(shared.PermPublishLibraryItem, userID)},
	})
}
