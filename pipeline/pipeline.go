// Package pipeline runs the symdiff core end to end: generate an
// expression, differentiate it, simplify the derivative to a fixed point and
// render it as LaTeX. Batches run concurrently; every item draws from its
// own seeded source so output does not depend on scheduling.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/symdiff"
	"github.com/njchilds90/symdiff/config"
	"github.com/njchilds90/symdiff/metrics"
)

// Expr is the expression type the pipeline works on.
type Expr = symdiff.Expr[symdiff.Char, symdiff.Int]

// Result is one processed expression.
type Result struct {
	Index      int
	Input      Expr
	Derivative Expr
	Simplified Expr
	// Iterations is the number of simplification passes; 0 when the
	// simplified form came from the cache.
	Iterations int
	Cached     bool
	LaTeX      string
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	cfg        config.Config
	variable   symdiff.Char
	seed       uint64
	log        *slog.Logger
	metrics    *metrics.Recorder
	simplifier *symdiff.Simplifier[symdiff.Char, symdiff.Int]
	cache      *lru.Cache[string, Expr]
}

// New builds a Pipeline. A nil log uses slog.Default; a nil rec gets
// unregistered collectors.
func New(cfg config.Config, log *slog.Logger, rec *metrics.Recorder) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	v, err := symdiff.ParseChar(cfg.Generator.Variable)
	if err != nil {
		return nil, errors.Wrap(err, "invalid variable")
	}
	if log == nil {
		log = slog.Default()
	}
	if rec == nil {
		rec = metrics.New(nil)
	}

	p := &Pipeline{
		cfg:      cfg,
		variable: v,
		seed:     cfg.Generator.Seed,
		log:      log,
		metrics:  rec,
	}
	if p.seed == 0 {
		p.seed = rand.Uint64()
	}
	p.simplifier = &symdiff.Simplifier[symdiff.Char, symdiff.Int]{
		OnRule:        rec.RecordRule,
		MaxIterations: cfg.Simplify.MaxIterations,
		Observe: func(i int, e Expr) {
			log.Debug("converge", "i", i, "expr", e.String())
		},
	}
	if cfg.Simplify.CacheSize > 0 {
		p.cache, err = lru.New[string, Expr](cfg.Simplify.CacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "creating cache")
		}
	}
	return p, nil
}

// Variable returns the differentiation variable.
func (p *Pipeline) Variable() symdiff.Char { return p.variable }

// Generator returns the generator for batch item i.
func (p *Pipeline) Generator(i int) *symdiff.Generator[symdiff.Char, symdiff.Int] {
	g := symdiff.NewGenerator[symdiff.Int](p.variable, rand.New(rand.NewPCG(p.seed, uint64(i))))
	g.VariableWeight = p.cfg.Generator.VariableWeight
	g.MaxConstant = p.cfg.Generator.MaxConstant
	g.MaxExponent = p.cfg.Generator.MaxExponent
	return g
}

// Process differentiates e, simplifies the derivative and renders it.
func (p *Pipeline) Process(ctx context.Context, e Expr) (Result, error) {
	start := time.Now()
	defer func() { p.metrics.RecordDuration(time.Since(start).Seconds()) }()

	d, err := symdiff.DifferentiateChecked(e, p.variable)
	if err != nil {
		return Result{}, errors.Wrap(err, "differentiate")
	}
	s, iterations, cached, err := p.Simplify(ctx, d)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Input:      e,
		Derivative: d,
		Simplified: s,
		Iterations: iterations,
		Cached:     cached,
		LaTeX:      s.LaTeX(),
	}, nil
}

// Simplify drives e to a fixed point, consulting the cache first.
func (p *Pipeline) Simplify(ctx context.Context, e Expr) (Expr, int, bool, error) {
	var key string
	if p.cache != nil {
		// String() is ambiguous between Variable('1') and Constant(1); the
		// wire form tags every node with its type.
		data, err := symdiff.IntCodec.Marshal(e)
		if err != nil {
			return nil, 0, false, errors.Wrap(err, "cache key")
		}
		key = string(data)
		if hit, ok := p.cache.Get(key); ok {
			p.metrics.RecordCache(true)
			return hit, 0, true, nil
		}
		p.metrics.RecordCache(false)
	}

	if p.cfg.Pipeline.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Pipeline.Timeout)
		defer cancel()
	}
	s, iterations, err := p.simplifier.Simplify(ctx, e)
	p.metrics.RecordConvergence(iterations, err)
	if err != nil {
		p.log.Warn("simplification failed", "expr", e.String(), "iterations", iterations, "error", err)
		return nil, iterations, false, errors.Wrap(err, "simplify")
	}

	if p.cache != nil {
		p.cache.Add(key, s)
	}
	return s, iterations, false, nil
}

// Run generates count expressions of the configured depth and processes
// them with at most cfg.Pipeline.Workers in flight. Results are in index
// order.
func (p *Pipeline) Run(ctx context.Context, count int) ([]Result, error) {
	if count < 0 {
		return nil, errors.Errorf("invalid count %d", count)
	}
	p.log.Info("pipeline started", "count", count, "depth", p.cfg.Generator.Depth, "seed", p.seed)

	results := make([]Result, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Pipeline.Workers)
	for i := range count {
		g.Go(func() error {
			e := p.Generator(i).Generate(p.cfg.Generator.Depth)
			res, err := p.Process(gctx, e)
			if err != nil {
				return errors.Wrapf(err, "expression %d", i)
			}
			res.Index = i
			results[i] = res
			p.log.Debug("processed", "index", i, "iterations", res.Iterations, "cached", res.Cached)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.log.Info("pipeline finished", "count", count)
	return results, nil
}

// Render concatenates results into one LaTeX fragment, one display
// equation per result.
func Render(results []Result, v symdiff.Char) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "$$\\frac{d}{d%s} %s = %s$$\n", v, r.Input.LaTeX(), r.LaTeX)
	}
	return b.String()
}
