package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/commonsphere/commonsphere/internal/shared"
)

// CanViewProject decides view access to a project. Only active memberships
// count; a deactivated membership row behaves as if absent.
func (e *Engine) CanViewProject(ctx context.Context, userID uuid.UUID, p Project) (bool, error) {
	return e.evaluate(ctx, userID, "project.view", []rule{
		{"view-all-permission", e.permitted(shared.PermViewAllProjects, userID)},
		{"active-member", func(ctx context.Context) (outcome, error) {
			ok, err := e.members.IsProjectMember(ctx, userID, p.ID)
			if err != nil {
				return ruleNext, err
			}
			return allowIf(ok), nil
		}},
		{"override-allow", e.overrideAllow(ResourceTypeProject, p.ID, userID, shared.PermViewAllProjects)},
	})
}

// CanEditProject decides edit access to a project. The lead rule stands on
// its own: a lead edits without holding edit_own_project.
func (e *Engine) CanEditProject(ctx context.Context, userID uuid.UUID, p Project) (bool, error) {
	return e.evaluate(ctx, userID, "project.edit", []rule{
		{"edit-any-permission", e.permitted(shared.PermEditAnyProject, userID)},
		{"edit-own-as-member", func(ctx context.Context) (outcome, error) {
			ok, err := e.perms.HasPermission(ctx, userID, shared.PermEditOwnProject)
			if err != nil {
				return ruleNext, err
			}
			if !ok {
				return ruleNext, nil
			}
			member, err := e.members.IsProjectMember(ctx, userID, p.ID)
			if err != nil {
				return ruleNext, err
			}
			return allowIf(member), nil
		}},
		{"project-lead", func(ctx context.Context) (outcome, error) {
			ok, err := e.members.IsProjectLead(ctx, userID, p.ID)
			if err != nil {
				return ruleNext, err
			}
			return allowIf(ok), nil
		}},
		{"override-allow", e.overrideAllow(ResourceTypeProject, p.ID, userID, shared.PermEditAnyProject)},
	})
}

// CanCreateProject decides whether the user may create projects.
func (e *Engine) CanCreateProject(ctx context.Context, userID uuid.UUID) (bool, error) {
	return e.evaluate(ctx, userID, "project.create", []rule{
		{"create-permission", e.permitted(shared.PermCreateProject, userID)},
	})
}

// CanDeleteProject decides delete access: admin or project lead.
func (e *Engine) CanDeleteProject(ctx context.Context, userID uuid.UUID, p Project) (bool, error) {
	return e.evaluate(ctx, userID, "project.delete", []rule{
		{"project-lead", func(ctx context.Context) (outcome, error) {
			ok, err := e.members.IsProjectLead(ctx, userID, p.ID)
			if err != nil {
				return ruleNext, err
			}
			return allowIf(ok), nil
		}},
	})
}

// CanListProjects is the listing gate for project indexes.
func (e *Engine) CanListProjects(ctx context.Context, userID uuid.UUID) (bool, error) {
	return e.evaluate(ctx, userID, "project.view_any", []rule{
		{"view-all-or-create", func(ctx context.Context) (outcome, error) {
			ok, err := e.perms.HasAnyPermission(ctx, userID, shared.PermViewAllProjects, shared.PermCreateProject)
			if err != nil {
				return ruleNext, err
			}
			return allowIf(ok), nil
		}},
	})
}
