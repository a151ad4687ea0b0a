package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"cdsplan/internal/metrics"
)

// Handler returns the service mux wrapped in CORS, access logging, metrics
// and rate limiting.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Parsing and planning
	mux.HandleFunc("/v1/manifests/parse", s.ParseHandler)
	mux.HandleFunc("/v1/plans", s.PlansHandler)

	// Runs
	mux.HandleFunc("/v1/runs", s.RunsIndexHandler)
	mux.HandleFunc("/v1/runs/ws", s.RunsWSHandler)
	mux.HandleFunc("/v1/runs/", s.RunByIDHandler) // includes /events/stream

	// Optimizer config
	mux.HandleFunc("/v1/optimizer/config", s.OptimizerConfigHandler)

	// Admin
	mux.HandleFunc("/v1/admin/optimizer/config", s.AdminOptimizerConfigHandler)
	mux.HandleFunc("/v1/admin/ports", s.AdminPortsHandler)
	mux.HandleFunc("/v1/admin/webhook-deliveries", s.WebhookDeliveriesHandler)

	// Health, metrics, docs
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("/openapi.json", s.OpenAPIJSONHandler)
	mux.HandleFunc("/docs", s.DocsHandler)
	mux.HandleFunc("/v1/debug", s.DebugJSON)

	var h http.Handler = mux
	if s.Cfg.HTTP.RateRPS > 0 {
		h = rateLimit(newLimiter(s.Cfg.HTTP.RateRPS, s.Cfg.HTTP.RateBurst), h)
	}
	h = observe(s.Log, h)
	return cors.New(cors.Options{
		AllowedOrigins: s.Cfg.HTTP.AllowOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Tenant-Id"},
		ExposedHeaders: []string{"Location", "Retry-After"},
	}).Handler(h)
}
