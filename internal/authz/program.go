package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/commonsphere/commonsphere/internal/shared"
)

// CanViewProgram decides view access to a program. Structural rules run
// before the override lookup; a deny falls out of the chain end.
func (e *Engine) CanViewProgram(ctx context.Context, userID uuid.UUID, p Program) (bool, error) {
	return e.evaluate(ctx, userID, "program.view", []rule{
		{"public-with-view-permission", func(ctx context.Context) (outcome, error) {
			if !p.IsPublic {
				return ruleNext, nil
			}
			ok, err := e.perms.HasPermission(ctx, userID, shared.PermViewProgram)
			if err != nil {
				return ruleNext, err
			}
			return allowIf(ok), nil
		}},
		{"program-member", func(ctx context.Context) (outcome, error) {
			ok, err := e.members.IsProgramMember(ctx, userID, p.ID)
			if err != nil {
				return ruleNext, err
			}
			return allowIf(ok), nil
		}},
		{"override-allow", e.overrideAllow(ResourceTypeProgram, p.ID, userID, shared.PermViewProgram)},
	})
}

// CanEditProgram decides edit access to a program. Facilitating any cohort of
// the program grants edit without a permission grant.
func (e *Engine) CanEditProgram(ctx context.Context, userID uuid.UUID, p Program) (bool, error) {
	return e.evaluate(ctx, userID, "program.edit", []rule{
		{"edit-permission", e.permitted(shared.PermEditProgram, userID)},
		{"program-facilitator", func(ctx context.Context) (outcome, error) {
			ok, err := e.members.IsProgramFacilitator(ctx, userID, p.ID)
			if err != nil {
				return ruleNext, err
			}
			return allowIf(ok), nil
		}},
		{"override-allow", e.overrideAllow(ResourceTypeProgram, p.ID, userID, shared.PermEditProgram)},
	})
}

// CanCreateProgram decides whether the user may create programs.
func (e *Engine) CanCreateProgram(ctx context.Context, userID uuid.UUID) (bool, error) {
	return e.evaluate(ctx, userID, "program.create", []rule{
		{"edit-permission", e.permitted(shared.PermEditProgram, userID)},
	})
}

// CanManageProgramCohorts decides cohort management access.
func (e *Engine) CanManageProgramCohorts(ctx context.Context, userID uuid.UUID, p Program) (bool, error) {
	return e.evaluate(ctx, userID, "program.manage_cohorts", []rule{
		{"manage-cohort-permission", e.permitted(shared.PermManageProgramCohort, userID)},
	})
}

// CanDeleteProgram is admin-only, as are restore and force-delete.
func (e *Engine) CanDeleteProgram(ctx context.Context, userID uuid.UUID, p Program) (bool, error) {
	return e.evaluate(ctx, userID, "program.delete", nil)
}
