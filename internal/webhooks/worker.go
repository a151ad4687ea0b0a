package webhooks

import (
    "bytes"
    "context"
    "fmt"
    "net/http"
    "strconv"
    "sync"
    "time"

    "go.uber.org/zap"

    "cdsplan/internal/config"
    "cdsplan/internal/metrics"
    "cdsplan/internal/store"
)

type Worker struct {
    Store        store.Store
    HTTP         *http.Client
    MaxAttempts  int
    PollInterval time.Duration
    Log          *zap.Logger

    stop chan struct{}
    done sync.WaitGroup
    once sync.Once
}

func NewWorker(s store.Store, cfg config.WebhookConfig, log *zap.Logger) *Worker {
    if log == nil { log = zap.NewNop() }
    max := cfg.MaxAttempts
    if max <= 0 { max = 8 }
    poll := cfg.PollInterval
    if poll <= 0 { poll = time.Second }
    timeout := cfg.Timeout
    if timeout <= 0 { timeout = 10 * time.Second }
    return &Worker{Store: s, HTTP: &http.Client{Timeout: timeout}, MaxAttempts: max, PollInterval: poll, Log: log, stop: make(chan struct{})}
}

// Start polls the delivery queue until Stop is called.
func (w *Worker) Start() {
    w.done.Add(1)
    go func() {
        defer w.done.Done()
        ticker := time.NewTicker(w.PollInterval)
        defer ticker.Stop()
        for {
            select {
            case <-w.stop:
                return
            case <-ticker.C:
                w.processOnce()
            }
        }
    }()
}

// Stop ends the polling loop and waits for the batch in flight.
func (w *Worker) Stop() {
    w.once.Do(func() { close(w.stop) })
    w.done.Wait()
}

func (w *Worker) processOnce() {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    items, err := w.Store.FetchDueWebhookDeliveries(ctx, 50)
    if err != nil {
        w.Log.Warn("fetch webhook deliveries", zap.Error(err))
        return
    }
    for _, it := range items {
        w.deliver(ctx, it)
    }
}

func (w *Worker) deliver(ctx context.Context, it store.WebhookDelivery) {
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, it.URL, bytes.NewReader(it.Payload))
    if err != nil {
        _ = w.Store.FailWebhookDelivery(ctx, it.ID, err.Error(), 0, 0)
        metrics.WebhookDeliveries.WithLabelValues(it.EventType, "failed").Inc()
        return
    }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set(HeaderEventType, it.EventType)
    req.Header.Set(HeaderEventID, it.DedupKey)
    if it.Secret != "" {
        req.Header.Set(HeaderSignature, Sign(it.Secret, it.Payload))
    }
    start := time.Now()
    resp, err := w.HTTP.Do(req)
    latency := int(time.Since(start).Milliseconds())
    code := 0
    success := false
    if err == nil && resp != nil {
        code = resp.StatusCode
        if resp.Body != nil { _ = resp.Body.Close() }
        success = code >= 200 && code < 300
    }
    lastErr := ""
    if !success {
        if err != nil { lastErr = err.Error() } else { lastErr = fmt.Sprintf("status %d", code) }
    }
    status := "delivered"
    switch {
    case success:
        _ = w.Store.MarkWebhookDelivery(ctx, it.ID, true, nil, "", code, latency)
    case it.Attempts+1 >= w.MaxAttempts:
        status = "failed"
        _ = w.Store.FailWebhookDelivery(ctx, it.ID, lastErr, code, latency)
        w.Log.Warn("webhook dead-lettered",
            zap.String("delivery", it.ID),
            zap.String("run", it.RunID),
            zap.Int("attempts", it.Attempts+1),
            zap.String("error", lastErr))
    default:
        status = "retry"
        next := time.Now().Add(nextBackoff(it.Attempts))
        _ = w.Store.MarkWebhookDelivery(ctx, it.ID, false, &next, lastErr, code, latency)
        w.Log.Debug("webhook retry scheduled", zap.String("delivery", it.ID), zap.Time("next", next))
    }
    metrics.WebhookDeliveries.WithLabelValues(it.EventType, status).Inc()
    metrics.WebhookLatency.WithLabelValues(it.EventType, strconv.FormatBool(success)).Observe(float64(latency))
}

func nextBackoff(attempts int) time.Duration {
    if attempts < 0 { attempts = 0 }
    if attempts > 12 { attempts = 12 }
    base := time.Second * time.Duration(1<<attempts)
    if base > time.Hour { base = time.Hour }
    return base
}
