package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/commonsphere/commonsphere/internal/overrides"
	"github.com/commonsphere/commonsphere/internal/platform/httpx"
	"github.com/commonsphere/commonsphere/internal/rbac"
	"github.com/commonsphere/commonsphere/internal/shared"
	"github.com/commonsphere/commonsphere/jobs"
)

// CatalogSource exposes the effective permission names of a user.
type CatalogSource interface {
	EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// AuditEnqueuer pushes audit tasks onto the background queue.
// Satisfied by asynq.Client.
type AuditEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DecisionRecorder counts authorization verdicts for observability.
type DecisionRecorder interface {
	ObserveDecision(resourceType, action string, allowed bool)
}

// HandlerDeps bundles the collaborators of the authorization handler.
// Audit and Metrics may be nil.
type HandlerDeps struct {
	Logger    *slog.Logger
	Engine    *Engine
	Directory Directory
	Overrides *overrides.Store
	Catalog   CatalogSource
	Cache     *VerdictCache
	Access    rbac.Middleware
	Audit     AuditEnqueuer
	Metrics   DecisionRecorder
}

// Handler exposes the authorization check and override grant endpoints.
type Handler struct {
	logger    *slog.Logger
	programs  *ProgramPolicy
	projects  *ProjectPolicy
	channels  *ChannelPolicy
	events    *EventPolicy
	library   *LibraryItemPolicy
	directory Directory
	overrides *overrides.Store
	catalog   CatalogSource
	cache     *VerdictCache
	access    rbac.Middleware
	audit     AuditEnqueuer
	metrics   DecisionRecorder
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		logger:    deps.Logger,
		programs:  NewProgramPolicy(deps.Engine),
		projects:  NewProjectPolicy(deps.Engine),
		channels:  NewChannelPolicy(deps.Engine),
		events:    NewEventPolicy(deps.Engine),
		library:   NewLibraryItemPolicy(deps.Engine),
		directory: deps.Directory,
		overrides: deps.Overrides,
		catalog:   deps.Catalog,
		cache:     deps.Cache,
		access:    deps.Access,
		audit:     deps.Audit,
		metrics:   deps.Metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers authorization routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/check", h.check)
	r.Get("/permissions", h.effectivePermissions)
	r.Group(func(r chi.Router) {
		r.Use(h.access.RequireAny(shared.PermAdminAll))
		r.Post("/grants", h.grant)
		r.Post("/grants/revoke", h.revoke)
	})
}

type checkForm struct {
	ResourceType string `json:"resource_type" validate:"required"`
	ResourceID   string `json:"resource_id" validate:"omitempty,uuid"`
	Action       string `json:"action" validate:"required"`
}

type verdictResponse struct {
	Allowed bool `json:"allowed"`
}

// errUnknownCheck marks a resource type or action the engine has no
// rule chain for. Distinct from a deny: the request itself is invalid.
var errUnknownCheck = errors.New("authz: unknown resource type or action")

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	var form checkForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var resourceID uuid.UUID
	if form.ResourceID != "" {
		parsed, err := uuid.Parse(form.ResourceID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "resource id must be a uuid")
			return
		}
		resourceID = parsed
	}

	key, err := h.cache.Key(r.Context(), userID, form.ResourceType, resourceID, form.Action)
	if err != nil {
		h.logger.Error("verdict cache key", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	allowed, err := h.cache.Fetch(r.Context(), key, func(ctx context.Context) (bool, error) {
		return h.decide(ctx, userID, form.ResourceType, resourceID, form.Action)
	})
	if err != nil {
		if errors.Is(err, errUnknownCheck) {
			httpx.Problem(w, http.StatusBadRequest, "Unknown Check", err.Error())
			return
		}
		h.logger.Error("authorization check",
			slog.String("resource_type", form.ResourceType),
			slog.String("action", form.Action),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveDecision(form.ResourceType, form.Action, allowed)
	}
	httpx.JSON(w, http.StatusOK, verdictResponse{Allowed: allowed})
}

// decide routes one check to the matching policy method. A missing
// resource yields a plain deny so the endpoint never leaks existence.
func (h *Handler) decide(ctx context.Context, userID uuid.UUID, resourceType string, resourceID uuid.UUID, action string) (bool, error) {
	switch resourceType {
	case ResourceTypeProgram:
		return h.decideProgram(ctx, userID, resourceID, action)
	case ResourceTypeProject:
		return h.decideProject(ctx, userID, resourceID, action)
	case ResourceTypeChannel:
		return h.decideChannel(ctx, userID, resourceID, action)
	case ResourceTypeEvent:
		return h.decideEvent(ctx, userID, resourceID, action)
	case ResourceTypeLibraryItem:
		return h.decideLibraryItem(ctx, userID, resourceID, action)
	default:
		return false, errUnknownCheck
	}
}

func (h *Handler) decideProgram(ctx context.Context, userID, resourceID uuid.UUID, action string) (bool, error) {
	if action == "create" {
		return h.programs.Create(ctx, userID)
	}
	program, err := h.directory.ProgramByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	switch action {
	case "view":
		return h.programs.View(ctx, userID, program)
	case "update":
		return h.programs.Update(ctx, userID, program)
	case "manage_cohorts":
		return h.programs.ManageCohorts(ctx, userID, program)
	case "delete":
		return h.programs.Delete(ctx, userID, program)
	case "restore":
		return h.programs.Restore(ctx, userID, program)
	case "force_delete":
		return h.programs.ForceDelete(ctx, userID, program)
	default:
		return false, errUnknownCheck
	}
}

func (h *Handler) decideProject(ctx context.Context, userID, resourceID uuid.UUID, action string) (bool, error) {
	switch action {
	case "create":
		return h.projects.Create(ctx, userID)
	case "view_any":
		return h.projects.ViewAny(ctx, userID)
	}
	project, err := h.directory.ProjectByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	switch action {
	case "view":
		return h.projects.View(ctx, userID, project)
	case "update":
		return h.projects.Update(ctx, userID, project)
	case "delete":
		return h.projects.Delete(ctx, userID, project)
	default:
		return false, errUnknownCheck
	}
}

func (h *Handler) decideChannel(ctx context.Context, userID, resourceID uuid.UUID, action string) (bool, error) {
	if action == "create" {
		return h.channels.Create(ctx, userID)
	}
	channel, err := h.directory.ChannelByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	switch action {
	case "view":
		return h.channels.View(ctx, userID, channel)
	case "post":
		return h.channels.Post(ctx, userID, channel)
	case "update":
		return h.channels.Update(ctx, userID, channel)
	case "delete":
		return h.channels.Delete(ctx, userID, channel)
	case "restore":
		return h.channels.Restore(ctx, userID, channel)
	case "force_delete":
		return h.channels.ForceDelete(ctx, userID, channel)
	default:
		return false, errUnknownCheck
	}
}

func (h *Handler) decideEvent(ctx context.Context, userID, resourceID uuid.UUID, action string) (bool, error) {
	if action == "create" {
		return h.events.Create(ctx, userID)
	}
	event, err := h.directory.EventByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	switch action {
	case "view":
		return h.events.View(ctx, userID, event)
	case "update":
		return h.events.Update(ctx, userID, event)
	case "delete":
		return h.events.Delete(ctx, userID, event)
	default:
		return false, errUnknownCheck
	}
}

func (h *Handler) decideLibraryItem(ctx context.Context, userID, resourceID uuid.UUID, action string) (bool, error) {
	if action == "create" {
		return h.library.Create(ctx, userID)
	}
	item, err := h.directory.LibraryItemByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	switch action {
	case "view":
		return h.library.View(ctx, userID, item)
	case "update":
		return h.library.Update(ctx, userID, item)
	case "delete":
		return h.library.Delete(ctx, userID, item)
	case "publish":
		return h.library.Publish(ctx, userID, item)
	default:
		return false, errUnknownCheck
	}
}

func (h *Handler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	perms, err := h.catalog.EffectivePermissions(r.Context(), userID)
	if err != nil {
		h.logger.Error("effective permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

type grantForm struct {
	ResourceType string `json:"resource_type" validate:"required"`
	ResourceID   string `json:"resource_id" validate:"required,uuid"`
	UserID       string `json:"user_id" validate:"required,uuid"`
	Permission   string `json:"permission" validate:"required"`
	Allowed      *bool  `json:"allowed"`
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	actorID, _ := currentUserID(r)
	var form grantForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	resourceID, subjectID, ok := parseGrantIDs(w, form.ResourceID, form.UserID)
	if !ok {
		return
	}

	allowed := form.Allowed == nil || *form.Allowed
	var (
		override overrides.Override
		err      error
		auditOp  string
	)
	if allowed {
		override, err = h.overrides.Grant(r.Context(), form.ResourceType, resourceID, subjectID, form.Permission)
		auditOp = jobs.AuthzAuditGranted
	} else {
		override, err = h.overrides.Deny(r.Context(), form.ResourceType, resourceID, subjectID, form.Permission)
		auditOp = jobs.AuthzAuditDenied
	}
	if err != nil {
		if errors.Is(err, overrides.ErrPermissionNotFound) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Permission", "permission is not in the catalog")
			return
		}
		h.logger.Error("grant override", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Error("verdict cache bump", slog.Any("error", err))
	}
	h.enqueueAudit(actorID, auditOp, form.ResourceType, resourceID, subjectID, form.Permission)
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"resource_type": override.ResourceType,
		"resource_id":   override.ResourceID,
		"user_id":       subjectID,
		"permission":    form.Permission,
		"allowed":       override.IsAllowed,
	})
}

type revokeForm struct {
	ResourceType string `json:"resource_type" validate:"required"`
	ResourceID   string `json:"resource_id" validate:"required,uuid"`
	UserID       string `json:"user_id" validate:"required,uuid"`
	Permission   string `json:"permission" validate:"required"`
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	actorID, _ := currentUserID(r)
	var form revokeForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	resourceID, subjectID, ok := parseGrantIDs(w, form.ResourceID, form.UserID)
	if !ok {
		return
	}
	revoked, err := h.overrides.Revoke(r.Context(), form.ResourceType, resourceID, subjectID, form.Permission)
	if err != nil {
		h.logger.Error("revoke override", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if revoked {
		if err := h.cache.Bump(r.Context()); err != nil {
			h.logger.Error("verdict cache bump", slog.Any("error", err))
		}
		h.enqueueAudit(actorID, jobs.AuthzAuditRevoked, form.ResourceType, resourceID, subjectID, form.Permission)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"revoked": revoked})
}

func (h *Handler) enqueueAudit(actorID uuid.UUID, op, resourceType string, resourceID, subjectID uuid.UUID, permission string) {
	if h.audit == nil {
		return
	}
	task, err := jobs.NewAuthzAuditTask(jobs.AuthzAuditPayload{
		ActorID:      actorID,
		Operation:    op,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		SubjectID:    subjectID,
		Permission:   permission,
	})
	if err != nil {
		h.logger.Error("build audit task", slog.Any("error", err))
		return
	}
	if _, err := h.audit.Enqueue(task); err != nil {
		h.logger.Error("enqueue audit task", slog.Any("error", err))
	}
}

func parseGrantIDs(w http.ResponseWriter, resourceID, userID string) (uuid.UUID, uuid.UUID, bool) {
	rid, err := uuid.Parse(resourceID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "resource id must be a uuid")
		return uuid.Nil, uuid.Nil, false
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "user id must be a uuid")
		return uuid.Nil, uuid.Nil, false
	}
	return rid, uid, true
}

func currentUserID(r *http.Request) (uuid.UUID, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return uuid.Nil, false
	}
	raw := sess.User()
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
