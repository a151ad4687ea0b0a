package metrics

import (
    "sync"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, route, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )
    // HTTPThrottled counts requests rejected by the rate limiter
    HTTPThrottled = prometheus.NewCounter(
        prometheus.CounterOpts{Name: "http_requests_throttled_total", Help: "Requests rejected by the rate limiter."},
    )

    // ParsedSegments counts tokenized segments by message type
    ParsedSegments = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "cds_parsed_segments_total", Help: "EDI segments tokenized, by message type."},
        []string{"message"},
    )
    // ParserRecoveries counts values the parsers defaulted or segments they dropped
    ParserRecoveries = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "cds_parser_recoveries_total", Help: "Malformed or orphaned segments absorbed by the parsers."},
        []string{"message", "kind"},
    )

    // PlanRuns counts pipeline runs by outcome (succeeded, missing_key, empty_result, failed, cancelled)
    PlanRuns = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "cds_plan_runs_total", Help: "Discharge planning runs by outcome."},
        []string{"outcome"},
    )
    // OptimizerDuration records optimizer wall time in seconds
    OptimizerDuration = prometheus.NewHistogram(
        prometheus.HistogramOpts{Name: "cds_optimizer_duration_seconds", Help: "Genetic optimizer wall time.", Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}},
    )
    // OptimizerGenerations records completed generations per run
    OptimizerGenerations = prometheus.NewHistogram(
        prometheus.HistogramOpts{Name: "cds_optimizer_generations", Help: "Generations completed per optimizer run.", Buckets: []float64{0, 5, 10, 20, 40, 80, 160}},
    )
    // OptimizerTruncated counts runs cut short by their time budget
    OptimizerTruncated = prometheus.NewCounter(
        prometheus.CounterOpts{Name: "cds_optimizer_truncated_total", Help: "Optimizer runs stopped by the time budget."},
    )
    // Containers records merged table sizes
    Containers = prometheus.NewHistogram(
        prometheus.HistogramOpts{Name: "cds_plan_containers", Help: "Rows in the merged container table.", Buckets: prometheus.ExponentialBuckets(1, 4, 8)},
    )

    // WebhookDeliveries counts webhook delivery outcomes by event type and status
    WebhookDeliveries = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
        []string{"event_type", "status"},
    )
    // WebhookLatency tracks webhook delivery latencies in milliseconds
    WebhookLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
        []string{"event_type", "status"},
    )
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests, HTTPDuration, HTTPThrottled)
        Registry.MustRegister(ParsedSegments, ParserRecoveries)
        Registry.MustRegister(PlanRuns, OptimizerDuration, OptimizerGenerations, OptimizerTruncated, Containers)
        Registry.MustRegister(WebhookDeliveries, WebhookLatency)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
