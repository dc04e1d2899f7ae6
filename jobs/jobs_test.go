package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/rbac"
)

type stubSyncer struct {
	report rbac.SyncReport
	err    error
	calls  int
}

func (s *stubSyncer) SyncCatalog(ctx context.Context) (rbac.SyncReport, error) {
	s.calls++
	return s.report, s.err
}

type stubAuditor struct {
	dangling []string
	err      error
}

func (s *stubAuditor) DanglingGrants(ctx context.Context) ([]string, error) {
	return s.dangling, s.err
}

func mustTask(t *testing.T, taskType string, payload any) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(taskType, data)
}

func TestCatalogSyncJobRunsSync(t *testing.T) {
	syncer := &stubSyncer{report: rbac.SyncReport{Inserted: []string{"hr.payroll.generate"}}}
	job := NewCatalogSyncJob(syncer, slog.New(slog.DiscardHandler), nil)

	task := mustTask(t, TaskTypeCatalogSync, CatalogSyncPayload{Reason: "manual"})
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, syncer.calls)
}

func TestCatalogSyncJobPropagatesError(t *testing.T) {
	syncer := &stubSyncer{err: errors.New("db down")}
	job := NewCatalogSyncJob(syncer, slog.New(slog.DiscardHandler), nil)

	task := mustTask(t, TaskTypeCatalogSync, CatalogSyncPayload{})
	assert.Error(t, job.Handle(context.Background(), task))
}

func TestCatalogSyncJobSkipsRetryOnBadPayload(t *testing.T) {
	job := NewCatalogSyncJob(&stubSyncer{}, slog.New(slog.DiscardHandler), nil)

	task := asynq.NewTask(TaskTypeCatalogSync, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestGrantAuditJobReportsDangling(t *testing.T) {
	auditor := &stubAuditor{dangling: []string{"legacy.menu.action"}}
	job := NewGrantAuditJob(auditor, slog.New(slog.DiscardHandler), nil)

	task := mustTask(t, TaskTypeGrantAudit, GrantAuditPayload{})
	assert.NoError(t, job.Handle(context.Background(), task))

	task = mustTask(t, TaskTypeGrantAudit, GrantAuditPayload{FailOnDangling: true})
	assert.Error(t, job.Handle(context.Background(), task))
}

func TestGrantAuditJobCleanCatalog(t *testing.T) {
	job := NewGrantAuditJob(&stubAuditor{}, slog.New(slog.DiscardHandler), nil)

	task := mustTask(t, TaskTypeGrantAudit, GrantAuditPayload{FailOnDangling: true})
	assert.NoError(t, job.Handle(context.Background(), task))
}
