package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/commonsphere/commonsphere/internal/shared"
)

// CanPostChannel decides posting access to a channel. A read-only channel
// admits moderators only; overrides and visibility are not consulted at all
// in that case. Otherwise an allow-override wins before a deny-override, and
// the visibility enumeration settles the rest.
func (e *Engine) CanPostChannel(ctx context.Context, userID uuid.UUID, ch Channel) (bool, error) {
	return e.evaluate(ctx, userID, "channel.post", []rule{
		{"read-only-moderators", func(ctx context.Context) (outcome, error) {
			if !ch.IsReadOnly {
				return ruleNext, nil
			}
			ok, err := e.perms.HasPermission(ctx, userID, shared.PermModerateCommunity)
			if err != nil {
				return ruleNext, err
			}
			if ok {
				return ruleAllow, nil
			}
			return ruleDeny, nil
		}},
		{"override-allow", e.overrideAllow(ResourceTypeChannel, ch.ID, userID, shared.PermPostCommunityMessage)},
		{"override-deny", e.overrideDeny(ResourceTypeChannel, ch.ID, userID, shared.PermPostCommunityMessage)},
		{"visibility", func(ctx context.Context) (outcome, error) {
			switch ch.Visibility {
			case ChannelPublic, ChannelMembers:
				ok, err := e.perms.HasPermission(ctx, userID, shared.PermPostCommunityMessage)
				if err != nil {
					return ruleNext, err
				}
				return allowIf(ok), nil
			case ChannelProgramOnly:
				if ch.ProgramID == uuid.Nil {
					return ruleNext, nil
				}
				ok, err := e.members.IsProgramMember(ctx, userID, ch.ProgramID)
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

// CanViewChannel decides view access to a channel. Unlike CanPostChannel
// there is no denial lookup here; the asymmetry is carried over from the
// platform's established behavior and is flagged for product review rather
// than silently changed.
func (e *Engine) CanViewChannel(ctx context.Context, userID uuid.UUID, ch Channel) (bool, error) {
	return e.evaluate(ctx, userID, "channel.view", []rule{
		{"override-allow", e.overrideAllow(ResourceTypeChannel, ch.ID, userID, shared.PermViewCommunityChannel)},
		{"visibility", func(ctx context.Context) (outcome, error) {
			switch ch.Visibility {
			case ChannelPublic:
				return ruleAllow, nil
			case ChannelMembers:
				ok, err := e.perms.HasPermission(ctx, userID, shared.PermViewCommunityChannel)
				if err != nil {
					return ruleNext, err
				}
				return allowIf(ok), nil
			case ChannelProgramOnly:
				if ch.ProgramID == uuid.Nil {
					return ruleNext, nil
				}
				ok, err := e.members.IsProgramMember(ctx, userID, ch.ProgramID)
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

// CanCreateChannel decides creation access: admin or moderator.
func (e *Engine) CanCreateChannel(ctx context.Context, userID uuid.UUID) (bool, error) {
	return e.evaluate(ctx, userID, "channel.create", []rule{
		{"moderate-permission", e.permitted(shared.PermModerateCommunity, userID)},
	})
}

// CanUpdateChannel decides update access: admin or moderator.
func (e *Engine) CanUpdateChannel(ctx context.Context, userID uuid.UUID, ch Channel) (bool, error) {
	return e.evaluate(ctx, userID, "channel.update", []rule{
		{"moderate-permission", e.permitted(shared.PermModerateCommunity, userID)},
	})
}

// CanDeleteChannel is admin-only, as are restore and force-delete.
func (e *Engine) CanDeleteChannel(ctx context.Context, userID uuid.UUID, ch Channel) (bool, error) {
	return e.evaluate(ctx, userID, "channel.delete", nil)
}
