package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/atelier-erp/atelier-erp/internal/jobs"
	"github.com/atelier-erp/atelier-erp/internal/rbac"
)

// CatalogSyncer reconciles the permissions table with the compiled catalog.
type CatalogSyncer interface {
	SyncCatalog(ctx context.Context) (rbac.SyncReport, error)
}

// CatalogSyncJob seeds newly declared permission codes into the database.
// It runs at startup and nightly, so a release that declares new actions
// needs no manual migration step.
type CatalogSyncJob struct {
	Syncer  CatalogSyncer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCatalogSyncJob initialises the catalog sync handler.
func NewCatalogSyncJob(syncer CatalogSyncer, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogSyncJob {
	return &CatalogSyncJob{Syncer: syncer, Logger: logger, Metrics: metrics}
}

// Handle executes the catalog sync.
func (j *CatalogSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Syncer == nil {
		return errors.New("catalog sync: handler not configured")
	}
	var payload CatalogSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskTypeCatalogSync)
	report, err := j.Syncer.SyncCatalog(ctx)
	if err != nil {
		j.logger().Error("catalog sync failed", slog.Any("error", err))
		return tracker.End(err)
	}

	j.Metrics.SetDanglingGrants(len(report.Dangling))
	j.logger().Info("catalog sync complete",
		slog.String("reason", payload.Reason),
		slog.Int("inserted", len(report.Inserted)),
		slog.Int("dangling", len(report.Dangling)),
	)
	if len(report.Inserted) > 0 {
		j.logger().Info("new permission codes seeded", slog.Any("codes", report.Inserted))
	}
	return tracker.End(nil)
}

func (j *CatalogSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
