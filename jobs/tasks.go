package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/commonsphere/commonsphere/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuthzAudit records an override mutation in the audit trail.
	TaskAuthzAudit = "authz:audit"
	// TaskAuthzCatalogSync reconciles the permission catalog with the
	// names the binaries know about.
	TaskAuthzCatalogSync = "authz:catalog_sync"
)

// Audit operations recorded for override mutations.
const (
	AuthzAuditGranted = "override_granted"
	AuthzAuditDenied  = "override_denied"
	AuthzAuditRevoked = "override_revoked"
)

// AuthzAuditPayload describes one override mutation.
type AuthzAuditPayload struct {
	ActorID      uuid.UUID `json:"actor_id"`
	Operation    string    `json:"operation"`
	ResourceType string    `json:"resource_type"`
	ResourceID   uuid.UUID `json:"resource_id"`
	SubjectID    uuid.UUID `json:"subject_id"`
	Permission   string    `json:"permission"`
}

// NewAuthzAuditTask constructs an Asynq task.
func NewAuthzAuditTask(payload AuthzAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuthzAudit, data), nil
}

// AuthzAuditJob persists audit payloads into audit_logs.
type AuthzAuditJob struct {
	recorder *shared.AuditLogger
	logger   *slog.Logger
}

// NewAuthzAuditJob constructs the audit job.
func NewAuthzAuditJob(recorder *shared.AuditLogger, logger *slog.Logger) *AuthzAuditJob {
	return &AuthzAuditJob{recorder: recorder, logger: logger}
}

// Handle processes TaskAuthzAudit tasks.
func (j *AuthzAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AuthzAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	err := j.recorder.Record(ctx, shared.AuditLog{
		ActorID:  payload.ActorID,
		Action:   payload.Operation,
		Entity:   payload.ResourceType,
		EntityID: payload.ResourceID.String(),
		Meta: map[string]any{
			"subject_id": payload.SubjectID.String(),
			"permission": payload.Permission,
		},
	})
	if err != nil {
		j.logger.Error("record authz audit", slog.Any("error", err))
		return err
	}
	return nil
}

// CatalogSyncer reconciles permission names into the catalog.
type CatalogSyncer interface {
	SyncCatalog(ctx context.Context, names []string) error
}

// NewCatalogSyncTask constructs an Asynq task.
func NewCatalogSyncTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskAuthzCatalogSync, nil), nil
}

// CatalogSyncJob re-seeds the permission catalog on a schedule so a
// store restored from backup converges without manual intervention.
type CatalogSyncJob struct {
	syncer CatalogSyncer
	logger *slog.Logger
}

// NewCatalogSyncJob constructs the catalog sync job.
func NewCatalogSyncJob(syncer CatalogSyncer, logger *slog.Logger) *CatalogSyncJob {
	return &CatalogSyncJob{syncer: syncer, logger: logger}
}

// Handle processes TaskAuthzCatalogSync tasks.
func (j *CatalogSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if err := j.syncer.SyncCatalog(ctx, shared.AllScopes()); err != nil {
		j.logger.Error("sync permission catalog", slog.Any("error", err))
		return err
	}
	j.logger.Info("permission catalog synced", slog.Int("permissions", len(shared.AllScopes())))
	return nil
}
