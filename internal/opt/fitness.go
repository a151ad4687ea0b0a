package opt

import (
	"math"
	"strconv"
	"strings"

	"cdsplan/internal/model"
)

// Objective keys accepted in an objectives map.
const (
	ObjWeight    = "weight"
	ObjFootprint = "footprint"
	ObjImbalance = "imbalance"
)

// Fitness maps a permutation to a cost. Lower is better. Implementations
// must be safe for concurrent use.
type Fitness func(perm []int) float64

// Breakdown is the unweighted contribution of each cost term.
type Breakdown = model.CostBreakdown

// Evaluator scores discharge orders over a fixed container table.
type Evaluator struct {
	terms  []Breakdown
	wW     float64
	wF     float64
	wI     float64
	scores []float64
}

// NewEvaluator precomputes the per-row cost terms. A missing objective key
// weighs 1; a key present with 0 switches that term off.
func NewEvaluator(rows []model.ContainerDetail, objectives map[string]float64) *Evaluator {
	e := &Evaluator{
		terms:  make([]Breakdown, len(rows)),
		scores: make([]float64, len(rows)),
		wW:     objective(objectives, ObjWeight),
		wF:     objective(objectives, ObjFootprint),
		wI:     objective(objectives, ObjImbalance),
	}
	for i, r := range rows {
		t := Breakdown{Weight: r.Weight, Footprint: r.Length * r.Width}
		if d, ok := Imbalance(r.Location); ok {
			t.Imbalance = float64(d) * r.Weight
		}
		e.terms[i] = t
		e.scores[i] = e.wW*t.Weight + e.wF*t.Footprint + e.wI*t.Imbalance
	}
	return e
}

func objective(m map[string]float64, k string) float64 {
	if w, ok := m[k]; ok {
		return w
	}
	return 1
}

// Len is the number of rows the evaluator was built with.
func (e *Evaluator) Len() int { return len(e.terms) }

// Cost sums the weighted terms of every row in perm.
func (e *Evaluator) Cost(perm []int) float64 {
	total := 0.0
	for _, idx := range perm {
		total += e.scores[idx]
	}
	return total
}

// Breakdown sums the unweighted terms of every row in perm.
func (e *Evaluator) Breakdown(perm []int) Breakdown {
	var b Breakdown
	for _, idx := range perm {
		t := e.terms[idx]
		b.Weight += t.Weight
		b.Footprint += t.Footprint
		b.Imbalance += t.Imbalance
	}
	return b
}

// Fitness adapts Cost to the optimizer.
func (e *Evaluator) Fitness() Fitness { return e.Cost }

// Imbalance returns |row-column| for a "row,column" location. Anything else
// has no imbalance and ok is false.
func Imbalance(location string) (int, bool) {
	rs, cs, found := strings.Cut(location, ",")
	if !found || strings.Contains(cs, ",") {
		return 0, false
	}
	r, err := strconv.Atoi(strings.TrimSpace(rs))
	if err != nil {
		return 0, false
	}
	c, err := strconv.Atoi(strings.TrimSpace(cs))
	if err != nil {
		return 0, false
	}
	return int(math.Abs(float64(r - c))), true
}
