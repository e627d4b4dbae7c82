// Package authz is the authorization engine: per-resource decision verbs
// composing role-based permissions, resource-scoped overrides and structural
// membership into a single allow/deny verdict. Each verb is an ordered rule
// chain evaluated short-circuit; the chain spells out the precedence the
// surrounding application relies on, which differs per resource type.
package authz

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// PermissionSource resolves role-based permission checks for a user.
type PermissionSource interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	HasPermission(ctx context.Context, userID uuid.UUID, name string) (bool, error)
	HasAnyPermission(ctx context.Context, userID uuid.UUID, names ...string) (bool, error)
}

// OverrideSource looks up resource-scoped allow/deny records.
type OverrideSource interface {
	HasOverride(ctx context.Context, resourceType string, resourceID, userID uuid.UUID, permission string) (bool, error)
	HasDenial(ctx context.Context, resourceType string, resourceID, userID uuid.UUID, permission string) (bool, error)
}

// MembershipSource answers structural membership queries.
type MembershipSource interface {
	IsProgramMember(ctx context.Context, userID, programID uuid.UUID) (bool, error)
	IsProjectMember(ctx context.Context, userID, projectID uuid.UUID) (bool, error)
	IsProjectLead(ctx context.Context, userID, projectID uuid.UUID) (bool, error)
	IsCohortMember(ctx context.Context, userID, cohortID uuid.UUID) (bool, error)
	IsCohortFacilitator(ctx context.Context, userID, cohortID uuid.UUID) (bool, error)
	IsProgramFacilitator(ctx context.Context, userID, programID uuid.UUID) (bool, error)
}

// Engine evaluates decision verbs. It is stateless and safe for concurrent
// use; every verb takes the acting user explicitly.
type Engine struct {
	perms     PermissionSource
	overrides OverrideSource
	members   MembershipSource
	logger    *slog.Logger
}

// NewEngine constructs an Engine. The logger may be nil.
func NewEngine(perms PermissionSource, overrides OverrideSource, members MembershipSource, logger *slog.Logger) *Engine {
	return &Engine{perms: perms, overrides: overrides, members: members, logger: logger}
}

// outcome is the result of a single rule: pass to the next rule, or settle
// the verdict.
type outcome int8

const (
	ruleNext outcome = iota
	ruleAllow
	ruleDeny
)

// rule is one named (condition -> verdict) pair of a decision chain.
type rule struct {
	name string
	eval func(ctx context.Context) (outcome, error)
}

// evaluate runs the admin_all bypass and then the chain in order. The chain
// falling through without a verdict is a deny; unrecognized state never
// widens access.
func (e *Engine) evaluate(ctx context.Context, userID uuid.UUID, verb string, chain []rule) (bool, error) {
	admin, err := e.perms.IsAdmin(ctx, userID)
	if err != nil {
		return false, err
	}
	if admin {
		e.logRule(verb, "admin-bypass", true)
		return true, nil
	}
	for _, r := range chain {
		out, err := r.eval(ctx)
		if err != nil {
			return false, err
		}
		switch out {
		case ruleAllow:
			e.logRule(verb, r.name, true)
			return true, nil
		case ruleDeny:
			e.logRule(verb, r.name, false)
			return false, nil
		}
	}
	e.logRule(verb, "default", false)
	return false, nil
}

func (e *Engine) logRule(verb, rule string, allowed bool) {
	if e.logger == nil {
		return
	}
	e.logger.Debug("authz decision",
		slog.String("verb", verb),
		slog.String("rule", rule),
		slog.Bool("allowed", allowed),
	)
}

// allowIf lifts a boolean check into a rule outcome: allow on true, pass on
// false.
func allowIf(ok bool) outcome {
	if ok {
		return ruleAllow
	}
	return ruleNext
}

// permitted is the common "has base RBAC permission" rule body.
func (e *Engine) permitted(name string, userID uuid.UUID) func(ctx context.Context) (outcome, error) {
	return func(ctx context.Context) (outcome, error) {
		ok, err := e.perms.HasPermission(ctx, userID, name)
		if err != nil {
			return ruleNext, err
		}
		return allowIf(ok), nil
	}
}

// overrideAllow is the common "resource override grants it" rule body.
func (e *Engine) overrideAllow(resourceType string, resourceID, userID uuid.UUID, permission string) func(ctx context.Context) (outcome, error) {
	return func(ctx context.Context) (outcome, error) {
		ok, err := e.overrides.HasOverride(ctx, resourceType, resourceID, userID, permission)
		if err != nil {
			return ruleNext, err
		}
		return allowIf(ok), nil
	}
}

// overrideDeny is the common "resource override denies it" rule body. It
// settles to deny when a denial record exists and passes otherwise.
func (e *Engine) overrideDeny(resourceType string, resourceID, userID uuid.UUID, permission string) func(ctx context.Context) (outcome, error) {
	return func(ctx context.Context) (outcome, error) {
		denied, err := e.overrides.HasDenial(ctx, resourceType, resourceID, userID, permission)
		if err != nil {
			return ruleNext, err
		}
		if denied {
			return ruleDeny, nil
		}
		return ruleNext, nil
	}
}
