package api

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "os"
    "strings"
    "sync"

    "go.uber.org/zap"

    "cdsplan/internal/config"
    "cdsplan/internal/manifest"
    "cdsplan/internal/model"
    "cdsplan/internal/opt"
    "cdsplan/internal/planner"
    "cdsplan/internal/store"
    "cdsplan/internal/webhooks"
)

type Server struct {
    Store  store.Store
    Pub    *webhooks.Publisher
    Broker EventBroker
    Cfg    *config.Config
    Log    *zap.Logger

    ports   manifest.Ports
    mu      sync.Mutex // guards closing and runs.Add
    closing bool
    runs    sync.WaitGroup
    ctx     context.Context // parent of async runs
    cancel  context.CancelFunc
}

// ErrShuttingDown rejects async plans submitted after Shutdown began.
var ErrShuttingDown = errors.New("server is shutting down")

// NewServer creates a Server. Without a database URL the in-memory store is
// used; without a Redis URL, the in-process broker.
func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
    if log == nil { log = zap.NewNop() }
    var s store.Store
    if strings.TrimSpace(cfg.DatabaseURL) == "" {
        s = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(cfg.DatabaseURL)
        if err != nil {
            return nil, fmt.Errorf("connect postgres: %w", err)
        }
        if cfg.DBMigrate {
            if err := sp.Migrate(context.Background()); err != nil {
                _ = sp.Close()
                return nil, err
            }
        }
        s = sp
    }
    // Broker selection
    var broker EventBroker = NewBroker()
    if cfg.RedisURL != "" {
        if rb, err := NewRedisBroker(cfg.RedisURL, log); err == nil {
            broker = rb
        } else {
            log.Warn("redis unavailable, using in-process broker", zap.Error(err))
        }
    }
    ports := manifest.DefaultPorts()
    if cfg.PortsFile != "" {
        p, err := loadPortsFile(cfg.PortsFile)
        if err != nil { return nil, err }
        ports = p
    }
    ctx, cancel := context.WithCancel(context.Background())
    return &Server{Store: s, Pub: webhooks.NewPublisher(s), Broker: broker, Cfg: cfg, Log: log, ports: ports, ctx: ctx, cancel: cancel}, nil
}

func loadPortsFile(path string) (manifest.Ports, error) {
    f, err := os.Open(path)
    if err != nil { return nil, fmt.Errorf("open ports file: %w", err) }
    defer f.Close()
    p, err := manifest.LoadPorts(f)
    if err != nil { return nil, fmt.Errorf("ports file %s: %w", path, err) }
    return p, nil
}

func (s *Server) withTenant(r *http.Request) (context.Context, string) {
    tenant := r.Header.Get("X-Tenant-Id")
    if tenant == "" { tenant = "t_demo" }
    ctx := context.WithValue(r.Context(), ctxKeyTenant{}, tenant)
    return ctx, tenant
}

type ctxKeyTenant struct{}

// portDirectory is the built-in/file directory overlaid with stored overrides.
func (s *Server) portDirectory(ctx context.Context) manifest.Ports {
    extra, err := s.Store.ListPorts(ctx)
    if err != nil {
        s.Log.Warn("list ports", zap.Error(err))
        return s.ports
    }
    return s.ports.With(extra)
}

func (s *Server) planner(ctx context.Context) *planner.Planner {
    return planner.New(planner.WithPorts(s.portDirectory(ctx)), planner.WithLogger(s.Log))
}

// optimizerConfig layers the service defaults, the tenant's stored config and
// the request options, in that order.
func (s *Server) optimizerConfig(ctx context.Context, tenant string, req *model.OptimizerOptions) (opt.Config, map[string]float64, error) {
    cfg := s.Cfg.Optimizer.Opt()
    objectives := map[string]float64{}
    stored, err := s.Store.GetOptimizerConfig(ctx, tenant)
    if err != nil { return cfg, nil, err }
    if stored != nil {
        to, err := decodeOptions(stored)
        if err != nil { return cfg, nil, fmt.Errorf("%w: stored tenant config: %v", opt.ErrInvalidConfig, err) }
        var obj map[string]float64
        cfg, obj = planner.Apply(cfg, to)
        for k, v := range obj { objectives[k] = v }
    }
    var obj map[string]float64
    cfg, obj = planner.Apply(cfg, req)
    for k, v := range obj { objectives[k] = v }
    if err := cfg.Validate(); err != nil { return cfg, nil, err }
    if len(objectives) == 0 { objectives = nil }
    return cfg, objectives, nil
}

func decodeOptions(m map[string]any) (*model.OptimizerOptions, error) {
    b, err := json.Marshal(m)
    if err != nil { return nil, err }
    var o model.OptimizerOptions
    if err := json.Unmarshal(b, &o); err != nil { return nil, err }
    return &o, nil
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
    return webhooks.NewWorker(s.Store, s.Cfg.Webhook, s.Log.Named("webhooks"))
}

// Shutdown cancels async runs, waits for them to record their outcome and
// releases the store and broker connections.
func (s *Server) Shutdown(ctx context.Context) error {
    s.mu.Lock()
    s.closing = true
    s.mu.Unlock()
    s.cancel()
    done := make(chan struct{})
    go func() { s.runs.Wait(); close(done) }()
    select {
    case <-done:
    case <-ctx.Done():
        return ctx.Err()
    }
    if c, ok := s.Broker.(io.Closer); ok { _ = c.Close() }
    if c, ok := s.Store.(io.Closer); ok { return c.Close() }
    return nil
}
