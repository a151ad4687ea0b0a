package main

import (
    "context"
    "errors"
    "flag"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "go.uber.org/zap"

    "cdsplan/internal/api"
    "cdsplan/internal/buildinfo"
    "cdsplan/internal/config"
    "cdsplan/internal/logging"
    "cdsplan/internal/metrics"
)

func main() {
    configPath := flag.String("config", os.Getenv("CDS_CONFIG"), "path to a YAML config file")
    flag.Parse()

    // .env is optional; real environment variables win
    if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
        fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
    }

    cfg, err := config.Load(*configPath)
    if err != nil {
        fmt.Fprintf(os.Stderr, "config: %v\n", err)
        os.Exit(1)
    }
    if err := cfg.Validate(); err != nil {
        fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
        os.Exit(1)
    }
    log, err := logging.New(cfg.Log.Level)
    if err != nil {
        fmt.Fprintf(os.Stderr, "logger: %v\n", err)
        os.Exit(1)
    }
    defer func() { _ = log.Sync() }()

    if err := run(cfg, log); err != nil {
        log.Fatal("server error", zap.Error(err))
    }
}

func run(cfg *config.Config, log *zap.Logger) error {
    metrics.RegisterDefault()

    srvDeps, err := api.NewServer(cfg, log)
    if err != nil {
        return fmt.Errorf("failed to init server: %w", err)
    }

    srv := &http.Server{
        Addr:              cfg.HTTP.Addr,
        Handler:           srvDeps.Handler(),
        ReadHeaderTimeout: 5 * time.Second,
    }

    // Start webhook worker
    worker := srvDeps.NewWebhookWorker()
    worker.Start()
    defer worker.Stop()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    errCh := make(chan error, 1)
    go func() {
        log.Info("API listening", zap.String("addr", cfg.HTTP.Addr), zap.Any("build", buildinfo.Info()))
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errCh <- err
        }
        close(errCh)
    }()

    select {
    case err := <-errCh:
        return err
    case <-ctx.Done():
    }
    log.Info("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        log.Warn("http shutdown", zap.Error(err))
    }
    return srvDeps.Shutdown(shutdownCtx)
}
