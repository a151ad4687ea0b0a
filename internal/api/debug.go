package api

import (
    "net/http"
    "time"

    "cdsplan/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
    info := map[string]any{
        "build": buildinfo.Info(),
        "time":  time.Now().UTC().Format(time.RFC3339),
        "config": map[string]any{
            "addr":                 s.Cfg.HTTP.Addr,
            "allow_origins":        s.Cfg.HTTP.AllowOrigins,
            "rate_rps":             s.Cfg.HTTP.RateRPS,
            "rate_burst":           s.Cfg.HTTP.RateBurst,
            "log_level":            s.Cfg.Log.Level,
            "webhook_max_attempts": s.Cfg.Webhook.MaxAttempts,
            "has_database_url":     s.Cfg.DatabaseURL != "",
            "has_redis_url":        s.Cfg.RedisURL != "",
            "ports_file":           s.Cfg.PortsFile,
            "optimizer":            s.Cfg.Optimizer,
        },
    }
    writeJSON(w, http.StatusOK, info)
}
