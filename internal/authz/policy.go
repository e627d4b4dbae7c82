package authz

import (
	"context"

	"github.com/google/uuid"
)

// The policy types adapt the engine's decision verbs to the CRUD-shaped
// surface the route layer calls. Each verb is a pure function of
// (acting user, target resource); a false verdict maps to a forbidden
// response upstream.

// ProgramPolicy gates program actions.
type ProgramPolicy struct {
	engine *Engine
}

// NewProgramPolicy constructs a ProgramPolicy.
func NewProgramPolicy(engine *Engine) *ProgramPolicy {
	return &ProgramPolicy{engine: engine}
}

func (p *ProgramPolicy) View(ctx context.Context, userID uuid.UUID, program Program) (bool, error) {
	return p.engine.CanViewProgram(ctx, userID, program)
}

func (p *ProgramPolicy) Create(ctx context.Context, userID uuid.UUID) (bool, error) {
	return p.engine.CanCreateProgram(ctx, userID)
}

func (p *ProgramPolicy) Update(ctx context.Context, userID uuid.UUID, program Program) (bool, error) {
	return p.engine.CanEditProgram(ctx, userID, program)
}

func (p *ProgramPolicy) ManageCohorts(ctx context.Context, userID uuid.UUID, program Program) (bool, error) {
	return p.engine.CanManageProgramCohorts(ctx, userID, program)
}

func (p *ProgramPolicy) Delete(ctx context.Context, userID uuid.UUID, program Program) (bool, error) {
	return p.engine.CanDeleteProgram(ctx, userID, program)
}

func (p *ProgramPolicy) Restore(ctx context.Context, userID uuid.UUID, program Program) (bool, error) {
	return p.engine.CanDeleteProgram(ctx, userID, program)
}

func (p *ProgramPolicy) ForceDelete(ctx context.Context, userID uuid.UUID, program Program) (bool, error) {
	return p.engine.CanDeleteProgram(ctx, userID, program)
}

// ProjectPolicy gates project actions.
type ProjectPolicy struct {
	engine *Engine
}

// NewProjectPolicy constructs a ProjectPolicy.
func NewProjectPolicy(engine *Engine) *ProjectPolicy {
	return &ProjectPolicy{engine: engine}
}

func (p *ProjectPolicy) ViewAny(ctx context.Context, userID uuid.UUID) (bool, error) {
	return p.engine.CanListProjects(ctx, userID)
}

func (p *ProjectPolicy) View(ctx context.Context, userID uuid.UUID, project Project) (bool, error) {
	return p.engine.CanViewProject(ctx, userID, project)
}

func (p *ProjectPolicy) Create(ctx context.Context, userID uuid.UUID) (bool, error) {
	return p.engine.CanCreateProject(ctx, userID)
}

func (p *ProjectPolicy) Update(ctx context.Context, userID uuid.UUID, project Project) (bool, error) {
	return p.engine.CanEditProject(ctx, userID, project)
}

func (p *ProjectPolicy) Delete(ctx context.Context, userID uuid.UUID, project Project) (bool, error) {
	return p.engine.CanDeleteProject(ctx, userID, project)
}

// ChannelPolicy gates community channel actions.
type ChannelPolicy struct {
	engine *Engine
}

// NewChannelPolicy constructs a ChannelPolicy.
func NewChannelPolicy(engine *Engine) *ChannelPolicy {
	return &ChannelPolicy{engine: engine}
}

func (p *ChannelPolicy) View(ctx context.Context, userID uuid.UUID, channel Channel) (bool, error) {
	return p.engine.CanViewChannel(ctx, userID, channel)
}

func (p *ChannelPolicy) Post(ctx context.Context, userID uuid.UUID, channel Channel) (bool, error) {
	return p.engine.CanPostChannel(ctx, userID, channel)
}

func (p *ChannelPolicy) Create(ctx context.Context, userID uuid.UUID) (bool, error) {
	return p.engine.CanCreateChannel(ctx, userID)
}

func (p *ChannelPolicy) Update(ctx context.Context, userID uuid.UUID, channel Channel) (bool, error) {
	return p.engine.CanUpdateChannel(ctx, userID, channel)
}

func (p *ChannelPolicy) Delete(ctx context.Context, userID uuid.UUID, channel Channel) (bool, error) {
	return p.engine.CanDeleteChannel(ctx, userID, channel)
}

func (p *ChannelPolicy) Restore(ctx context.Context, userID uuid.UUID, channel Channel) (bool, error) {
	return p.engine.CanDeleteChannel(ctx, userID, channel)
}

func (p *ChannelPolicy) ForceDelete(ctx context.Context, userID uuid.UUID, channel Channel) (bool, error) {
	return p.engine.CanDeleteChannel(ctx, userID, channel)
}

// EventPolicy gates event actions.
type EventPolicy struct {
	engine *Engine
}

// NewEventPolicy constructs an EventPolicy.
func NewEventPolicy(engine *Engine) *EventPolicy {
	return &EventPolicy{engine: engine}
}

func (p *EventPolicy) View(ctx context.Context, userID uuid.UUID, event Event) (bool, error) {
	return p.engine.CanViewEvent(ctx, userID, event)
}

func (p *EventPolicy) Create(ctx context.Context, userID uuid.UUID) (bool, error) {
	return p.engine.CanCreateEvent(ctx, userID)
}

func (p *EventPolicy) Update(ctx context.Context, userID uuid.UUID, event Event) (bool, error) {
	return p.engine.CanManageEvent(ctx, userID, event)
}

func (p *EventPolicy) Delete(ctx context.Context, userID uuid.UUID, event Event) (bool, error) {
	return p.engine.CanManageEvent(ctx, userID, event)
}

// LibraryItemPolicy gates library item actions.
type LibraryItemPolicy struct {
	engine *Engine
}

// NewLibraryItemPolicy constructs a LibraryItemPolicy.
func NewLibraryItemPolicy(engine *Engine) *LibraryItemPolicy {
	return &LibraryItemPolicy{engine: engine}
}

func (p *LibraryItemPolicy) View(ctx context.Context, userID uuid.UUID, item LibraryItem) (bool, error) {
	return p.engine.CanViewLibraryItem(ctx, userID, item)
}

func (p *LibraryItemPolicy) Create(ctx context.Context, userID uuid.UUID) (bool, error) {
	return p.engine.CanCreateLibraryItem(ctx, userID)
}

func (p *LibraryItemPolicy) Update(ctx context.Context, userID uuid.UUID, item LibraryItem) (bool, error) {
	return p.engine.CanEditLibraryItem(ctx, userID, item)
}

func (p *LibraryItemPolicy) Delete(ctx context.Context, userID uuid.UUID, item LibraryItem) (bool, error) {
	return p.engine.CanDeleteLibraryItem(ctx, userID, item)
}

func (p *LibraryItemPolicy) Publish(ctx context.Context, userID uuid.UUID, item LibraryItem) (bool, error) {
	return p.engine.CanPublishLibraryItem(ctx, userID, item)
}
