package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/commonsphere/commonsphere/internal/shared"
)

// CanViewEvent decides view access to an event. The allow-override runs
// before the visibility match.
func (e *Engine) CanViewEvent(ctx context.Context, userID uuid.UUID, ev Event) (bool, error) {
	return e.evaluate(ctx, userID, "event.view", []rule{
		{"override-allow", e.overrideAllow(ResourceTypeEvent, ev.ID, userID, shared.PermViewEvent)},
		{"visibility", func(ctx context.Context) (outcome, error) {
			switch ev.Visibility {
			case EventPublic:
				return ruleAllow, nil
			case EventMembers:
				ok, err := e.perms.HasPermission(ctx, userID, shared.PermViewEvent)
				if err != nil {
					return ruleNext, err
				}
				return allowIf(ok), nil
			case EventProgramOnly:
				if ev.ProgramID == uuid.Nil {
					return ruleNext, nil
				}
				ok, err := e.members.IsProgramMember(ctx, userID, ev.ProgramID)
				if err != nil {
					return ruleNext, err
				}
				return allowIf(ok), nil
			case EventCohortOnly:
				if ev.CohortID == uuid.Nil {
					return ruleNext, nil
				}
				ok, err := e.members.IsCohortMember(ctx, userID, ev.CohortID)
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

// CanManageEvent decides edit and delete access; both verbs route here.
func (e *Engine) CanManageEvent(ctx context.Context, userID uuid.UUID, ev Event) (bool, error) {
	return e.evaluate(ctx, userID, "event.manage", []rule{
		{"manage-permission", e.permitted(shared.PermManageEvents, userID)},
		{"creator", func(ctx context.Context) (outcome, error) {
			return allowIf(ev.CreatedBy != uuid.Nil && ev.CreatedBy == userID), nil
		}},
		{"cohort-facilitator", func(ctx context.Context) (outcome, error) {
			if ev.CohortID == uuid.Nil {
				return ruleNext, nil
			}
			ok, err := e.members.IsCohortFacilitator(ctx, userID, ev.CohortID)
			if err != nil {
				return ruleNext, err
			}
			return allowIf(ok), nil
		}},
		{"override-allow", e.overrideAllow(ResourceTypeEvent, ev.ID, userID, shared.PermManageEvents)},
	})
}

// CanCreateEvent decides creation access.
func (e *Engine) CanCreateEvent(ctx context.Context, userID uuid.UUID) (bool, error) {
	return e.evaluate(ctx, userID, "event.create", []rule{
		{"create-or-manage", func(ctx context.Context) (outcome, error) {
			ok, err := e.perms.HasAnyPermission(ctx, userID, shared.PermCreateEvent, shared.PermManageEvents)
			if err != nil {
				return ruleNext, err
			}
			return allowIf(ok), nil
		}},
	})
}
