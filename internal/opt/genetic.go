package opt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidConfig = errors.New("invalid optimizer config")

// Config parameterizes one generational search.
type Config struct {
	PopulationSize int
	Generations    int
	CrossoverProb  float64
	MutationProb   float64
	IndexProb      float64
	TournamentSize int
	Workers        int           // parallel fitness evaluations; 0 uses GOMAXPROCS
	Seed           int64         // 0 seeds from the clock
	TimeBudget     time.Duration // 0 means no wall-clock limit
}

func DefaultConfig() Config {
	return Config{
		PopulationSize: 300,
		Generations:    40,
		CrossoverProb:  0.5,
		MutationProb:   0.2,
		IndexProb:      0.05,
		TournamentSize: 3,
	}
}

func (c Config) Validate() error {
	switch {
	case c.PopulationSize < 1:
		return fmt.Errorf("%w: population size %d", ErrInvalidConfig, c.PopulationSize)
	case c.Generations < 0:
		return fmt.Errorf("%w: generations %d", ErrInvalidConfig, c.Generations)
	case !prob(c.CrossoverProb), !prob(c.MutationProb), !prob(c.IndexProb):
		return fmt.Errorf("%w: probabilities must be within [0,1]", ErrInvalidConfig)
	case c.TournamentSize < 1:
		return fmt.Errorf("%w: tournament size %d", ErrInvalidConfig, c.TournamentSize)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	case c.TimeBudget < 0:
		return fmt.Errorf("%w: negative time budget", ErrInvalidConfig)
	}
	return nil
}

func prob(p float64) bool { return p >= 0 && p <= 1 }

// GenerationStats summarises the population after one generation.
// Generation 0 is the initial population.
type GenerationStats struct {
	Generation  int
	Best        float64
	Mean        float64
	Worst       float64
	GlobalBest  float64
	Evaluations int
}

// Result is the cheapest individual seen over the whole run.
type Result struct {
	Best        []int
	Cost        float64
	Seed        int64
	Generations int // completed generations after the initial one
	Evaluations int
	Truncated   bool
	Elapsed     time.Duration
	History     []GenerationStats
}

// Optimizer is a generational genetic search over permutations. It holds no
// mutable state, so one value may serve concurrent runs.
type Optimizer struct {
	cfg      Config
	fitness  Fitness
	log      *zap.Logger
	progress func(GenerationStats)
}

type Option func(*Optimizer)

func WithLogger(l *zap.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.log = l
		}
	}
}

// WithProgress registers a callback invoked after every generation, on the
// goroutine running the search.
func WithProgress(fn func(GenerationStats)) Option {
	return func(o *Optimizer) { o.progress = fn }
}

func New(cfg Config, fitness Fitness, opts ...Option) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fitness == nil {
		return nil, fmt.Errorf("%w: nil fitness", ErrInvalidConfig)
	}
	o := &Optimizer{cfg: cfg, fitness: fitness, log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

type individual struct {
	genes []int
	cost  float64
	dirty bool
}

// Run searches permutations of 0..n-1. With n <= 1 the identity is returned
// at once. Cancelling ctx stops the search between generations; the best
// result so far is returned together with ctx.Err().
func (o *Optimizer) Run(ctx context.Context, n int) (Result, error) {
	start := time.Now()
	seed := o.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	res := Result{Seed: seed}
	if n <= 1 {
		res.Best = make([]int, n)
		res.Cost = o.fitness(res.Best)
		res.Evaluations = 1
		res.Elapsed = time.Since(start)
		return res, nil
	}

	rng := rand.New(rand.NewSource(seed))
	pop := make([]individual, o.cfg.PopulationSize)
	for i := range pop {
		pop[i] = individual{genes: RandomPermutation(rng, n), dirty: true}
	}
	evals, err := o.evaluate(ctx, pop)
	if err != nil {
		return res, err
	}
	res.Evaluations += evals
	res.Cost = math.Inf(1)
	o.observe(&res, pop, 0, evals)

	costs := make([]float64, len(pop))
	for gen := 1; gen <= o.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}
		if o.cfg.TimeBudget > 0 && time.Since(start) >= o.cfg.TimeBudget {
			res.Truncated = true
			break
		}
		for i := range pop {
			costs[i] = pop[i].cost
		}
		pop = o.breed(rng, pop, costs)
		evals, err := o.evaluate(ctx, pop)
		if err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}
		res.Evaluations += evals
		res.Generations = gen
		o.observe(&res, pop, gen, evals)
	}
	res.Elapsed = time.Since(start)
	o.log.Debug("optimizer finished",
		zap.Int("n", n),
		zap.Int64("seed", seed),
		zap.Int("generations", res.Generations),
		zap.Int("evaluations", res.Evaluations),
		zap.Float64("cost", res.Cost),
		zap.Bool("truncated", res.Truncated),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// breed selects a full mating pool, then applies crossover to consecutive
// pairs and mutation to single offspring. Untouched offspring keep their cost.
func (o *Optimizer) breed(rng *rand.Rand, pop []individual, costs []float64) []individual {
	picks := SelectTournament(rng, costs, o.cfg.TournamentSize, len(pop))
	off := make([]individual, len(pop))
	for i, p := range picks {
		off[i] = individual{genes: append([]int(nil), pop[p].genes...), cost: pop[p].cost, dirty: pop[p].dirty}
	}
	for i := 1; i < len(off); i += 2 {
		if rng.Float64() < o.cfg.CrossoverProb {
			off[i-1].genes, off[i].genes = OrderedCrossover(rng, off[i-1].genes, off[i].genes)
			off[i-1].dirty, off[i].dirty = true, true
		}
	}
	for i := range off {
		if rng.Float64() < o.cfg.MutationProb {
			ShuffleIndexes(rng, off[i].genes, o.cfg.IndexProb)
			off[i].dirty = true
		}
	}
	return off
}

func (o *Optimizer) evaluate(ctx context.Context, pop []individual) (int, error) {
	workers := o.cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	count := 0
	for i := range pop {
		if !pop[i].dirty {
			continue
		}
		count++
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pop[i].cost = o.fitness(pop[i].genes)
			pop[i].dirty = false
			return nil
		})
	}
	return count, g.Wait()
}

func (o *Optimizer) observe(res *Result, pop []individual, gen, evals int) {
	st := GenerationStats{Generation: gen, Best: math.Inf(1), Worst: math.Inf(-1), Evaluations: evals}
	sum := 0.0
	bestIdx := 0
	for i := range pop {
		c := pop[i].cost
		sum += c
		if c < st.Best {
			st.Best, bestIdx = c, i
		}
		if c > st.Worst {
			st.Worst = c
		}
	}
	st.Mean = sum / float64(len(pop))
	if st.Best < res.Cost || res.Best == nil {
		res.Cost = st.Best
		res.Best = append([]int(nil), pop[bestIdx].genes...)
	}
	st.GlobalBest = res.Cost
	res.History = append(res.History, st)
	if o.progress != nil {
		o.progress(st)
	}
}
