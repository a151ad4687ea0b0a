package api

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "cdsplan/internal/model"
    "cdsplan/internal/opt"
    "cdsplan/internal/planner"
)

// ParseHandler handles POST /v1/manifests/parse
func (s *Server) ParseHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req model.ParseRequest
    if !s.decodeJSON(w, r, &req) { return }
    if strings.TrimSpace(req.Manifest) == "" {
        writeProblem(w, http.StatusBadRequest, "Invalid parse request", "manifest is required", r.URL.Path)
        return
    }
    parsed := s.planner(r.Context()).Parse([]byte(req.Manifest), []byte(req.DischargeOrder))
    writeJSON(w, http.StatusOK, model.ParseResponse{
        Vessel:      parsed.Manifest.Vessel,
        Containers:  parsed.Manifest.Containers,
        Discharge:   parsed.Discharge.Containers,
        Diagnostics: parsed.Diagnostics,
    })
}

// PlansHandler handles POST /v1/plans
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req model.PlanRequest
    if !s.decodeJSON(w, r, &req) { return }
    if err := validatePlanRequest(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path)
        return
    }
    if req.TenantID == "" { _, req.TenantID = s.withTenant(r) }
    cfg, objectives, err := s.optimizerConfig(r.Context(), req.TenantID, req.Optimizer)
    if err != nil { writeError(w, r, err); return }
    preq := planner.Request{
        Manifest:       []byte(req.Manifest),
        DischargeOrder: []byte(req.DischargeOrder),
        Equipment:      []byte(req.EquipmentCSV),
        Optimizer:      cfg,
        Objectives:     objectives,
    }

    if req.Async {
        run, err := s.startRun(r.Context(), req.TenantID, preq, callback{URL: req.CallbackURL, Secret: req.CallbackSecret})
        if err != nil { writeError(w, r, err); return }
        w.Header().Set("Location", "/v1/runs/"+run.ID)
        writeJSON(w, http.StatusAccepted, map[string]any{
            "runId":  run.ID,
            "status": run.Status,
            "links": map[string]string{
                "self":   "/v1/runs/" + run.ID,
                "events": "/v1/runs/" + run.ID + "/events/stream",
            },
        })
        return
    }

    plan, err := s.planner(r.Context()).Plan(r.Context(), preq, nil)
    if err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, plan)
}

// RunsIndexHandler handles GET /v1/runs
func (s *Server) RunsIndexHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    _, tenant := s.withTenant(r)
    q := r.URL.Query()
    limit := 100
    if v := q.Get("limit"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n <= 0 { writeProblem(w, 400, "Invalid limit", v, r.URL.Path); return }
        limit = n
    }
    items, next, err := s.Store.ListRuns(r.Context(), tenant, q.Get("status"), q.Get("cursor"), limit)
    if err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// RunByIDHandler handles GET /v1/runs/{id} and GET /v1/runs/{id}/events/stream
func (s *Server) RunByIDHandler(w http.ResponseWriter, r *http.Request) {
    path := r.URL.Path
    rest := strings.TrimPrefix(path, "/v1/runs/")
    if rest == path || rest == "" {
        writeProblem(w, http.StatusNotFound, "Not Found", "missing id", path)
        return
    }
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    parts := strings.Split(rest, "/")
    id := parts[0]
    _, tenant := s.withTenant(r)
    switch {
    case len(parts) == 1:
        run, err := s.Store.GetRun(r.Context(), tenant, id)
        if err != nil { writeError(w, r, err); return }
        writeJSON(w, http.StatusOK, run)
    case len(parts) == 3 && parts[1] == "events" && parts[2] == "stream":
        s.streamRun(w, r, tenant, id)
    default:
        writeProblem(w, http.StatusNotFound, "Not Found", "", path)
    }
}

// streamRun writes run events as SSE until the run finishes or the client goes away.
func (s *Server) streamRun(w http.ResponseWriter, r *http.Request, tenant, id string) {
    flusher, ok := w.(http.Flusher)
    if !ok { writeProblem(w, 500, "Streaming unsupported", "", r.URL.Path); return }
    // subscribe before the snapshot so no terminal event falls between them
    ch := s.Broker.Subscribe(id)
    defer s.Broker.Unsubscribe(id, ch)
    run, err := s.Store.GetRun(r.Context(), tenant, id)
    if err != nil { writeError(w, r, err); return }

    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("Connection", "keep-alive")
    writeSSE(w, "snapshot", map[string]any{"runId": id, "status": run.Status, "progress": run.Progress})
    flusher.Flush()
    if terminal(run.Status) { return }

    heartbeat := time.NewTicker(15 * time.Second)
    defer heartbeat.Stop()
    for {
        select {
        case <-r.Context().Done():
            return
        case evt, ok := <-ch:
            if !ok { return }
            writeSSE(w, evt.Type, evt.Data)
            flusher.Flush()
            if evt.Type == EventRunCompleted || evt.Type == EventRunFailed { return }
        case <-heartbeat.C:
            writeSSE(w, "heartbeat", map[string]any{"runId": id, "ts": time.Now().UTC().Format(time.RFC3339)})
            flusher.Flush()
        }
    }
}

func writeSSE(w http.ResponseWriter, event string, data any) {
    b, _ := json.Marshal(data)
    fmt.Fprintf(w, "event: %s\n", event)
    fmt.Fprintf(w, "data: %s\n\n", b)
}

// OptimizerConfigHandler returns the effective optimizer configuration
func (s *Server) OptimizerConfigHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    _, tenant := s.withTenant(r)
    cfg, objectives, err := s.optimizerConfig(r.Context(), tenant, nil)
    if err != nil { writeError(w, r, err); return }
    if objectives == nil {
        objectives = map[string]float64{opt.ObjWeight: 1, opt.ObjFootprint: 1, opt.ObjImbalance: 1}
    }
    writeJSON(w, 200, map[string]any{"defaults": map[string]any{
        "populationSize": cfg.PopulationSize,
        "generations":    cfg.Generations,
        "crossoverProb":  cfg.CrossoverProb,
        "mutationProb":   cfg.MutationProb,
        "indexProb":      cfg.IndexProb,
        "tournamentSize": cfg.TournamentSize,
        "seed":           cfg.Seed,
        "timeBudgetMs":   cfg.TimeBudget.Milliseconds(),
        "objectives":     objectives,
    }})
}

// AdminOptimizerConfigHandler gets or replaces the tenant's stored optimizer config
func (s *Server) AdminOptimizerConfigHandler(w http.ResponseWriter, r *http.Request) {
    _, tenant := s.withTenant(r)
    switch r.Method {
    case http.MethodGet:
        cfg, err := s.Store.GetOptimizerConfig(r.Context(), tenant)
        if err != nil { writeError(w, r, err); return }
        if cfg == nil { cfg = map[string]any{} }
        writeJSON(w, 200, map[string]any{"config": cfg})
    case http.MethodPut:
        var body struct{ Config map[string]any `json:"config"` }
        if !s.decodeJSON(w, r, &body) { return }
        if body.Config == nil { writeProblem(w, 400, "Missing config", "", r.URL.Path); return }
        o, err := decodeOptions(body.Config)
        if err == nil { err = validateOptimizerOptions(o) }
        if err == nil {
            merged, _ := planner.Apply(s.Cfg.Optimizer.Opt(), o)
            err = merged.Validate()
        }
        if err != nil { writeProblem(w, 400, "Invalid optimizer config", err.Error(), r.URL.Path); return }
        if err := s.Store.SaveOptimizerConfig(r.Context(), tenant, body.Config); err != nil { writeError(w, r, err); return }
        writeJSON(w, 200, map[string]bool{"ok": true})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// AdminPortsHandler lists the effective port directory or stores overrides.
// A blank name removes an override.
func (s *Server) AdminPortsHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodGet:
        overrides, err := s.Store.ListPorts(r.Context())
        if err != nil { writeError(w, r, err); return }
        writeJSON(w, 200, map[string]any{"ports": s.ports.With(overrides), "overrides": overrides})
    case http.MethodPut:
        var body struct{ Ports map[string]string `json:"ports"` }
        if !s.decodeJSON(w, r, &body) { return }
        if len(body.Ports) == 0 { writeProblem(w, 400, "Missing ports", "", r.URL.Path); return }
        if err := s.Store.SavePorts(r.Context(), body.Ports); err != nil { writeError(w, r, err); return }
        writeJSON(w, 200, map[string]bool{"ok": true})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// WebhookDeliveriesHandler lists callback deliveries for the tenant
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    _, tenant := s.withTenant(r)
    items, err := s.Store.ListWebhookDeliveries(r.Context(), tenant, r.URL.Query().Get("status"))
    if err != nil { writeError(w, r, err); return }
    writeJSON(w, 200, map[string]any{"items": items})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type pinger interface{ Ping(ctx context.Context) error }

// ReadyHandler pings the database when one is configured.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    if p, ok := s.Store.(pinger); ok {
        ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
        defer cancel()
        if err := p.Ping(ctx); err != nil {
            writeProblem(w, http.StatusServiceUnavailable, "Not ready", err.Error(), r.URL.Path)
            return
        }
    }
    writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
