package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/commonsphere/commonsphere/internal/shared"
	_ "github.com/commonsphere/commonsphere/testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthzAuditJobSkipsMalformedPayload(t *testing.T) {
	job := NewAuthzAuditJob(nil, discardLogger())

	err := job.Handle(context.Background(), asynq.NewTask(TaskAuthzAudit, []byte("not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for malformed payload, got %v", err)
	}
}

type fakeSyncer struct {
	names []string
	err   error
}

func (f *fakeSyncer) SyncCatalog(ctx context.Context, names []string) error {
	f.names = names
	return f.err
}

func TestCatalogSyncJobSeedsEveryPermission(t *testing.T) {
	syncer := &fakeSyncer{}
	job := NewCatalogSyncJob(syncer, discardLogger())

	task, err := NewCatalogSyncTask()
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(syncer.names) != len(shared.AllScopes()) {
		t.Fatalf("expected %d permission names, got %d", len(shared.AllScopes()), len(syncer.names))
	}
}

func TestCatalogSyncJobPropagatesErrorForRetry(t *testing.T) {
	wantErr := errors.New("pool gone")
	job := NewCatalogSyncJob(&fakeSyncer{err: wantErr}, discardLogger())

	task, _ := NewCatalogSyncTask()
	if err := job.Handle(context.Background(), task); !errors.Is(err, wantErr) {
		t.Fatalf("expected syncer error to propagate, got %v", err)
	}
}
