// Package jobs defines the background tasks of the back office and the
// Asynq worker that runs them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeCatalogSync reconciles the permissions table with the
	// compiled catalog.
	TaskTypeCatalogSync = "authz:catalog_sync"
	// TaskTypeGrantAudit reports granted codes the catalog no longer
	// declares.
	TaskTypeGrantAudit = "authz:grant_audit"
)

// CatalogSyncPayload configures a catalog sync run.
type CatalogSyncPayload struct {
	// Reason tags the run in logs: "startup", "cron" or "manual".
	Reason string `json:"reason"`
}

// GrantAuditPayload configures a grant audit run.
type GrantAuditPayload struct {
	// FailOnDangling makes the task return an error when dangling grants
	// exist, so the failure shows up in job metrics and retries alert.
	FailOnDangling bool `json:"fail_on_dangling"`
}

// NewCatalogSyncTask constructs an Asynq task.
func NewCatalogSyncTask(payload CatalogSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCatalogSync, data), nil
}

// NewGrantAuditTask constructs an Asynq task.
func NewGrantAuditTask(payload GrantAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeGrantAudit, data), nil
}
