// Package planner runs the discharge planning pipeline: parse the manifest
// and the discharge order, check the equipment listing, merge, optimize.
package planner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cdsplan/internal/equipment"
	"cdsplan/internal/manifest"
	"cdsplan/internal/merge"
	"cdsplan/internal/metrics"
	"cdsplan/internal/model"
	"cdsplan/internal/opt"
)

// Diagnostics keys in parse and plan results.
const (
	SourceManifest  = "manifest"
	SourceDischarge = "dischargeOrder"
)

// Request is one pipeline invocation over in-memory buffers.
type Request struct {
	Manifest       []byte
	DischargeOrder []byte
	Equipment      []byte // optional CSV
	Optimizer      opt.Config
	Objectives     map[string]float64
}

// Parsed holds both parser outputs.
type Parsed struct {
	Manifest    manifest.Manifest
	Discharge   manifest.DischargeOrder
	Diagnostics map[string]model.Diagnostics
}

type Planner struct {
	ports manifest.PortLookup
	log   *zap.Logger
}

type Option func(*Planner)

func WithPorts(p manifest.PortLookup) Option {
	return func(pl *Planner) {
		if p != nil {
			pl.ports = p
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(pl *Planner) {
		if l != nil {
			pl.log = l
		}
	}
}

func New(opts ...Option) *Planner {
	p := &Planner{ports: manifest.DefaultPorts(), log: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse runs both parsers. The discharge order may be empty.
func (p *Planner) Parse(manifestData, dischargeData []byte) Parsed {
	m, md := manifest.ParseManifest(manifestData, p.ports)
	out := Parsed{Manifest: m, Diagnostics: map[string]model.Diagnostics{SourceManifest: md}}
	p.observe(SourceManifest, md)
	if len(bytes.TrimSpace(dischargeData)) > 0 {
		d, dd := manifest.ParseDischargeOrder(dischargeData)
		out.Discharge = d
		out.Diagnostics[SourceDischarge] = dd
		p.observe(SourceDischarge, dd)
	}
	return out
}

func (p *Planner) observe(source string, d model.Diagnostics) {
	metrics.ParsedSegments.WithLabelValues(source).Add(float64(d.Segments))
	if d.Recovered > 0 {
		metrics.ParserRecoveries.WithLabelValues(source, "recovered").Add(float64(d.Recovered))
	}
	if d.Orphaned > 0 {
		metrics.ParserRecoveries.WithLabelValues(source, "orphaned").Add(float64(d.Orphaned))
	}
	if d.Recovered > 0 || d.Orphaned > 0 {
		p.log.Info("parse recovered malformed segments",
			zap.String("source", source),
			zap.Int("segments", d.Segments),
			zap.Int("recovered", d.Recovered),
			zap.Int("orphaned", d.Orphaned))
	}
}

// Plan runs the whole pipeline. progress, when set, receives every
// generation's statistics. Input problems surface as merge.ErrMissingJoinKey
// or merge.ErrEmptyResult.
func (p *Planner) Plan(ctx context.Context, req Request, progress func(opt.GenerationStats)) (*model.Plan, error) {
	plan, err := p.plan(ctx, req, progress)
	metrics.PlanRuns.WithLabelValues(Outcome(err)).Inc()
	if err != nil {
		p.log.Warn("plan failed", zap.String("outcome", Outcome(err)), zap.Error(err))
	}
	return plan, err
}

func (p *Planner) plan(ctx context.Context, req Request, progress func(opt.GenerationStats)) (*model.Plan, error) {
	parsed := p.Parse(req.Manifest, req.DischargeOrder)

	var tbl *equipment.Table
	if len(bytes.TrimSpace(req.Equipment)) > 0 {
		t, err := equipment.Load(bytes.NewReader(req.Equipment))
		if errors.Is(err, equipment.ErrMissingKeyColumn) {
			return nil, fmt.Errorf("%w: %w", merge.ErrMissingJoinKey, err)
		}
		if err != nil {
			return nil, err
		}
		tbl = t
	}

	rows, err := merge.Merge(parsed.Manifest.Containers, parsed.Discharge.Containers)
	if err != nil {
		return nil, err
	}
	metrics.Containers.Observe(float64(len(rows)))

	opts := []opt.Option{opt.WithLogger(p.log)}
	if progress != nil {
		opts = append(opts, opt.WithProgress(progress))
	}
	start := time.Now()
	seq, err := opt.Sequence(ctx, rows, req.Optimizer, req.Objectives, opts...)
	metrics.OptimizerDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	metrics.OptimizerGenerations.Observe(float64(seq.Generations))
	if seq.Truncated {
		metrics.OptimizerTruncated.Inc()
	}

	plan := &model.Plan{
		Vessel:      parsed.Manifest.Vessel,
		Containers:  rows,
		Sequence:    seq.Best,
		Ordered:     seq.Ordered,
		Cost:        seq.Cost,
		Breakdown:   seq.Breakdown,
		Seed:        seq.Seed,
		Generations: seq.Generations,
		Evaluations: seq.Evaluations,
		Truncated:   seq.Truncated,
		ElapsedMs:   seq.Elapsed.Milliseconds(),
		Diagnostics: parsed.Diagnostics,
	}
	if tbl != nil {
		plan.EquipmentRows = tbl.Len()
		numbers := make([]string, len(rows))
		for i, r := range rows {
			numbers[i] = r.ContainerNumber
		}
		plan.UnlistedContainers = tbl.Unlisted(numbers)
		for i := range plan.Ordered {
			if row, ok := tbl.Row(plan.Ordered[i].ContainerNumber); ok {
				plan.Ordered[i].Equipment = row
			}
		}
	}
	p.log.Info("plan computed",
		zap.String("vessel", plan.Vessel.VesselName),
		zap.Int("containers", len(rows)),
		zap.Float64("cost", plan.Cost),
		zap.Int("generations", plan.Generations),
		zap.Bool("truncated", plan.Truncated),
		zap.Int64("elapsedMs", plan.ElapsedMs))
	return plan, nil
}

// Outcome labels an error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "succeeded"
	case errors.Is(err, merge.ErrMissingJoinKey):
		return "missing_key"
	case errors.Is(err, merge.ErrEmptyResult):
		return "empty_result"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "failed"
	}
}

// Apply overlays request options on base. Zero values keep the base value.
func Apply(base opt.Config, o *model.OptimizerOptions) (opt.Config, map[string]float64) {
	if o == nil {
		return base, nil
	}
	if o.PopulationSize > 0 {
		base.PopulationSize = o.PopulationSize
	}
	if o.Generations > 0 {
		base.Generations = o.Generations
	}
	if o.CrossoverProb > 0 {
		base.CrossoverProb = o.CrossoverProb
	}
	if o.MutationProb > 0 {
		base.MutationProb = o.MutationProb
	}
	if o.IndexProb > 0 {
		base.IndexProb = o.IndexProb
	}
	if o.TournamentSize > 0 {
		base.TournamentSize = o.TournamentSize
	}
	if o.Seed != 0 {
		base.Seed = o.Seed
	}
	if o.TimeBudgetMs > 0 {
		base.TimeBudget = time.Duration(o.TimeBudgetMs) * time.Millisecond
	}
	return base, o.Objectives
}
