package opt

import (
	"context"

	"cdsplan/internal/model"
)

// Lightweight API surface for higher-level callers.

// Plan is a scored discharge order over a container table.
type Plan struct {
	Result
	Breakdown Breakdown
	Ordered   []model.SequencedContainer
}

// Sequence builds an Evaluator for rows and runs the genetic search on it.
func Sequence(ctx context.Context, rows []model.ContainerDetail, cfg Config, objectives map[string]float64, opts ...Option) (Plan, error) {
	ev := NewEvaluator(rows, objectives)
	o, err := New(cfg, ev.Fitness(), opts...)
	if err != nil {
		return Plan{}, err
	}
	res, err := o.Run(ctx, len(rows))
	if err != nil {
		return Plan{Result: res}, err
	}
	return Plan{Result: res, Breakdown: ev.Breakdown(res.Best), Ordered: Resolve(rows, res.Best)}, nil
}

// Resolve lists rows in perm order with 1-based discharge positions.
func Resolve(rows []model.ContainerDetail, perm []int) []model.SequencedContainer {
	out := make([]model.SequencedContainer, 0, len(perm))
	for pos, idx := range perm {
		x, y, z := rows[idx].Coordinates()
		out = append(out, model.SequencedContainer{Seq: pos + 1, Index: idx, Coords: [3]int{x, y, z}, ContainerDetail: rows[idx]})
	}
	return out
}
