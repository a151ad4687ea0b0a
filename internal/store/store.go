package store

import (
    "context"
    "errors"
    "time"

    "cdsplan/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
    // Plan runs
    CreateRun(ctx context.Context, tenantID string) (model.Run, error)
    UpdateRun(ctx context.Context, tenantID, id string, fn func(*model.Run)) (model.Run, error)
    GetRun(ctx context.Context, tenantID, id string) (model.Run, error)
    ListRuns(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Run, string, error)

    // Port directory overrides (code -> name)
    ListPorts(ctx context.Context) (map[string]string, error)
    SavePorts(ctx context.Context, ports map[string]string) error

    // Optimizer config per tenant
    GetOptimizerConfig(ctx context.Context, tenantID string) (map[string]any, error)
    SaveOptimizerConfig(ctx context.Context, tenantID string, cfg map[string]any) error

    // Webhook deliveries
    EnqueueWebhook(ctx context.Context, tenantID, runID, eventType, url, secret string, payload []byte) (string, error)
    FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
    MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
    FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
    ListWebhookDeliveries(ctx context.Context, tenantID, status string) ([]map[string]any, error)
}

var ErrNotFound = errors.New("not found")
