//go:build postgres_integration

package store

import (
    "os"
    "testing"
)

func TestPostgresConnectivityAndMigrate(t *testing.T) {
    dsn := os.Getenv("DATABASE_URL")
    if dsn == "" { t.Skip("DATABASE_URL not set; skipping integration test") }
    p, err := NewPostgres(dsn)
    if err != nil { t.Fatalf("NewPostgres: %v", err) }
    defer p.Close()
    if err := p.Ping(t.Context()); err != nil { t.Fatalf("Ping: %v", err) }
    if err := p.Migrate(t.Context()); err != nil { t.Fatalf("Migrate: %v", err) }

    if err := p.SavePorts(t.Context(), map[string]string{"zzitg": "Integration Port"}); err != nil { t.Fatalf("SavePorts: %v", err) }
    ports, err := p.ListPorts(t.Context())
    if err != nil { t.Fatalf("ListPorts: %v", err) }
    if ports["ZZITG"] != "Integration Port" { t.Fatalf("port not saved: %v", ports) }
    _ = p.SavePorts(t.Context(), map[string]string{"ZZITG": ""})

    cfg := map[string]any{"generations": float64(10)}
    if err := p.SaveOptimizerConfig(t.Context(), "t_itest", cfg); err != nil { t.Fatalf("SaveOptimizerConfig: %v", err) }
    got, err := p.GetOptimizerConfig(t.Context(), "t_itest")
    if err != nil { t.Fatalf("GetOptimizerConfig: %v", err) }
    if got["generations"] != float64(10) { t.Fatalf("unexpected config %v", got) }
}
