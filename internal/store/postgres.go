package store

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "strings"

    _ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres keeps reference data (port directory, optimizer config) in
// Postgres. Plan runs and the callback queue live in the embedded Memory;
// plan results are not persisted.
type Postgres struct {
    *Memory
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        _ = db.Close()
        return nil, err
    }
    return &Postgres{Memory: NewMemory(), db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS ports (
    code       text PRIMARY KEY,
    name       text NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS optimizer_config (
    tenant_id  text PRIMARY KEY,
    config     jsonb NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT now()
);`

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
    if _, err := p.db.ExecContext(ctx, schema); err != nil {
        return fmt.Errorf("migrate: %w", err)
    }
    return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) ListPorts(ctx context.Context) (map[string]string, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT code, name FROM ports ORDER BY code`)
    if err != nil { return nil, err }
    defer rows.Close()
    out := map[string]string{}
    for rows.Next() {
        var code, name string
        if err := rows.Scan(&code, &name); err != nil { return nil, err }
        out[code] = name
    }
    return out, rows.Err()
}

// SavePorts upserts ports; a blank name deletes the code.
func (p *Postgres) SavePorts(ctx context.Context, ports map[string]string) error {
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil { return err }
    defer func(){ _ = tx.Rollback() }()
    for code, name := range ports {
        code = strings.ToUpper(strings.TrimSpace(code))
        name = strings.TrimSpace(name)
        if code == "" { continue }
        if name == "" {
            if _, err := tx.ExecContext(ctx, `DELETE FROM ports WHERE code=$1`, code); err != nil { return err }
            continue
        }
        _, err := tx.ExecContext(ctx, `INSERT INTO ports (code, name, updated_at) VALUES ($1, $2, now())
            ON CONFLICT (code) DO UPDATE SET name=$2, updated_at=now()`, code, name)
        if err != nil { return err }
    }
    return tx.Commit()
}

func (p *Postgres) GetOptimizerConfig(ctx context.Context, tenantID string) (map[string]any, error) {
    row := p.db.QueryRowContext(ctx, `SELECT config FROM optimizer_config WHERE tenant_id=$1`, tenantID)
    var js []byte
    if err := row.Scan(&js); err != nil {
        if errors.Is(err, sql.ErrNoRows) { return nil, nil }
        return nil, err
    }
    var cfg map[string]any
    if err := json.Unmarshal(js, &cfg); err != nil { return nil, err }
    return cfg, nil
}

func (p *Postgres) SaveOptimizerConfig(ctx context.Context, tenantID string, cfg map[string]any) error {
    js, err := json.Marshal(cfg)
    if err != nil { return err }
    _, err = p.db.ExecContext(ctx, `INSERT INTO optimizer_config (tenant_id, config, updated_at) VALUES ($1, $2::jsonb, now())
        ON CONFLICT (tenant_id) DO UPDATE SET config=$2::jsonb, updated_at=now()`, tenantID, string(js))
    return err
}
