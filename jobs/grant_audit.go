package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/atelier-erp/atelier-erp/internal/jobs"
)

// GrantAuditor lists granted permission codes the catalog no longer declares.
type GrantAuditor interface {
	DanglingGrants(ctx context.Context) ([]string, error)
}

// GrantAuditJob surfaces dangling grants. Dangling codes still resolve for
// their holders, so this is the signal that a release removed an action
// without cleaning up the role grants.
type GrantAuditJob struct {
	Auditor GrantAuditor
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewGrantAuditJob initialises the grant audit handler.
func NewGrantAuditJob(auditor GrantAuditor, logger *slog.Logger, metrics *jobmetrics.Metrics) *GrantAuditJob {
	return &GrantAuditJob{Auditor: auditor, Logger: logger, Metrics: metrics}
}

// Handle executes the grant audit.
func (j *GrantAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Auditor == nil {
		return errors.New("grant audit: handler not configured")
	}
	var payload GrantAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskTypeGrantAudit)
	dangling, err := j.Auditor.DanglingGrants(ctx)
	if err != nil {
		j.logger().Error("grant audit failed", slog.Any("error", err))
		return tracker.End(err)
	}

	j.Metrics.SetDanglingGrants(len(dangling))
	if len(dangling) == 0 {
		j.logger().Info("grant audit complete, no dangling grants")
		return tracker.End(nil)
	}

	j.logger().Warn("dangling grants detected", slog.Int("count", len(dangling)), slog.Any("codes", dangling))
	if payload.FailOnDangling {
		return tracker.End(fmt.Errorf("grant audit: %d dangling grants", len(dangling)))
	}
	return tracker.End(nil)
}

func (j *GrantAuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
