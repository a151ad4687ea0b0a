package store

import (
    "context"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"

    "cdsplan/internal/model"
)

// maxRunsPerTenant bounds the in-memory run registry; the oldest finished runs go first.
const maxRunsPerTenant = 1000

type Memory struct {
    mu     sync.Mutex
    runs   map[string]*model.Run          // id -> run
    byTen  map[string][]string            // tenant -> run ids, oldest first
    ports  map[string]string              // code -> name
    optCfg map[string]map[string]any      // tenant -> config
    // Webhooks queue state
    deliveries         map[string]*memDelivery // id -> delivery state
    deliveryOrder      []string                // insertion order
    deliveriesByTenant map[string][]string     // tenant -> delivery ids
    dlq                []map[string]any        // dead-lettered deliveries
}

func NewMemory() *Memory {
    return &Memory{
        runs: map[string]*model.Run{},
        byTen: map[string][]string{},
        ports: map[string]string{},
        optCfg: map[string]map[string]any{},
        deliveries: map[string]*memDelivery{},
        deliveriesByTenant: map[string][]string{},
        dlq: []map[string]any{},
    }
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
    WebhookDelivery
    NextAttemptAt time.Time
    LastError     string
    ResponseCode  int
    LatencyMs     int
    DeliveredAt   *time.Time
}

func (m *Memory) CreateRun(ctx context.Context, tenantID string) (model.Run, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    r := &model.Run{
        ID: "run_" + uuid.New().String(),
        TenantID: tenantID,
        Status: model.RunPending,
        CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
    }
    m.runs[r.ID] = r
    m.byTen[tenantID] = append(m.byTen[tenantID], r.ID)
    m.evictLocked(tenantID)
    return *r, nil
}

func (m *Memory) evictLocked(tenantID string) {
    ids := m.byTen[tenantID]
    for len(ids) > maxRunsPerTenant {
        victim := -1
        for i, id := range ids {
            if st := m.runs[id].Status; st == model.RunSucceeded || st == model.RunFailed {
                victim = i
                break
            }
        }
        if victim < 0 { break }
        delete(m.runs, ids[victim])
        ids = append(ids[:victim], ids[victim+1:]...)
    }
    m.byTen[tenantID] = ids
}

// UpdateRun applies fn to the stored run under the store lock.
func (m *Memory) UpdateRun(ctx context.Context, tenantID, id string, fn func(*model.Run)) (model.Run, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    r, ok := m.runs[id]
    if !ok || r.TenantID != tenantID { return model.Run{}, ErrNotFound }
    fn(r)
    r.ID, r.TenantID = id, tenantID
    return *r, nil
}

func (m *Memory) GetRun(ctx context.Context, tenantID, id string) (model.Run, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    r, ok := m.runs[id]
    if !ok || r.TenantID != tenantID { return model.Run{}, ErrNotFound }
    return *r, nil
}

// ListRuns returns runs newest first. The cursor is an opaque offset.
func (m *Memory) ListRuns(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Run, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if limit <= 0 || limit > 500 { limit = 100 }
    start := 0
    if cursor != "" {
        if n, err := strconv.Atoi(cursor); err == nil && n > 0 { start = n }
    }
    ids := m.byTen[tenantID]
    out := []model.Run{}
    seen := 0
    next := ""
    for i := len(ids) - 1; i >= 0; i-- {
        r := m.runs[ids[i]]
        if status != "" && r.Status != status { continue }
        if seen < start { seen++; continue }
        if len(out) == limit { next = strconv.Itoa(start + limit); break }
        summary := *r
        summary.Plan = nil
        out = append(out, summary)
    }
    return out, next, nil
}

func (m *Memory) ListPorts(ctx context.Context) (map[string]string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := make(map[string]string, len(m.ports))
    for k, v := range m.ports { out[k] = v }
    return out, nil
}

func (m *Memory) SavePorts(ctx context.Context, ports map[string]string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    for k, v := range ports {
        k = strings.ToUpper(strings.TrimSpace(k))
        if k == "" { continue }
        if strings.TrimSpace(v) == "" { delete(m.ports, k); continue }
        m.ports[k] = strings.TrimSpace(v)
    }
    return nil
}

func (m *Memory) GetOptimizerConfig(ctx context.Context, tenantID string) (map[string]any, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if cfg, ok := m.optCfg[tenantID]; ok { return cfg, nil }
    return nil, nil
}

func (m *Memory) SaveOptimizerConfig(ctx context.Context, tenantID string, cfg map[string]any) error {
    m.mu.Lock(); defer m.mu.Unlock()
    m.optCfg[tenantID] = cfg
    return nil
}

// EnqueueWebhook queues a delivery. A payload whose dedup key matches a
// delivery still pending for the same URL returns that delivery instead.
func (m *Memory) EnqueueWebhook(ctx context.Context, tenantID, runID, eventType, url, secret string, payload []byte) (string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    key := computeDedupKey(payload)
    for _, id := range m.deliveriesByTenant[tenantID] {
        d := m.deliveries[id]
        if d.DedupKey == key && d.URL == url && (d.Status == "pending" || d.Status == "retry") {
            return d.ID, nil
        }
    }
    id := uuid.New().String()
    d := &memDelivery{WebhookDelivery: WebhookDelivery{ID: id, TenantID: tenantID, RunID: runID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending", Attempts: 0, DedupKey: key}, NextAttemptAt: time.Now()}
    m.deliveries[id] = d
    m.deliveryOrder = append(m.deliveryOrder, id)
    m.deliveriesByTenant[tenantID] = append(m.deliveriesByTenant[tenantID], id)
    return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    now := time.Now()
    out := []WebhookDelivery{}
    for _, id := range m.deliveryOrder {
        d := m.deliveries[id]
        if d == nil { continue }
        if (d.Status == "pending" || d.Status == "retry") && !d.NextAttemptAt.After(now) {
            out = append(out, d.WebhookDelivery)
            if limit > 0 && len(out) >= limit { break }
        }
    }
    return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d == nil { return ErrNotFound }
    d.Attempts++
    d.ResponseCode = responseCode
    d.LatencyMs = latencyMs
    if success {
        d.Status = "delivered"
        now := time.Now()
        d.DeliveredAt = &now
    } else {
        d.Status = "retry"
        d.LastError = lastError
        if nextAttemptAt != nil { d.NextAttemptAt = *nextAttemptAt } else { d.NextAttemptAt = time.Now().Add(1 * time.Minute) }
    }
    return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d == nil { return ErrNotFound }
    d.Attempts++
    d.Status = "failed"
    d.LastError = lastError
    d.ResponseCode = responseCode
    m.dlq = append(m.dlq, map[string]any{"id": id, "runId": d.RunID, "eventType": d.EventType, "lastError": lastError, "responseCode": responseCode, "latencyMs": latencyMs})
    return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, tenantID, status string) ([]map[string]any, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := []map[string]any{}
    for _, id := range m.deliveriesByTenant[tenantID] {
        d := m.deliveries[id]
        if d == nil { continue }
        if status == "" || d.Status == status {
            item := map[string]any{"id": d.ID, "runId": d.RunID, "eventType": d.EventType, "status": d.Status, "attempts": d.Attempts, "url": d.URL}
            if !d.NextAttemptAt.IsZero() && d.Status != "delivered" && d.Status != "failed" { item["nextAttemptAt"] = d.NextAttemptAt }
            if d.LastError != "" { item["lastError"] = d.LastError }
            if d.ResponseCode != 0 { item["responseCode"] = d.ResponseCode }
            out = append(out, item)
        }
    }
    return out, nil
}

// DeadLetters returns a copy of the dead-letter list.
func (m *Memory) DeadLetters() []map[string]any {
    m.mu.Lock(); defer m.mu.Unlock()
    return append([]map[string]any(nil), m.dlq...)
}
