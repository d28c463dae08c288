// Package geoaid is the module's programmatic entry point: Compile and
// Generate together are spec.md §6's "the core exposes a programmatic
// entry point taking source text + options and returning either a figure
// document or a diagnostic list" — the CLI driver itself stays out of
// scope (spec.md §1), a thin adapter a caller builds on top of this API.
package geoaid

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/geo-aid/geoaid/config"
	"github.com/geo-aid/geoaid/critic"
	"github.com/geo-aid/geoaid/figure"
	"github.com/geo-aid/geoaid/generator"
	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/lower"
	"github.com/geo-aid/geoaid/parser"
	"github.com/geo-aid/geoaid/pool"
	"github.com/geo-aid/geoaid/unroll"
)

// Options configures a Generate run: the generator's strictness profile,
// the exported canvas size, and which Engine strategy drives proposals
// (spec.md §4.5 "Rage" or "Glide").
type Options struct {
	Profile       config.StrictnessProfile
	Width, Height float64
	Engine        string // "rage" (default) or "glide"
}

// DefaultOptions returns spec.md §4.5's default strictness profile, a
// conventional canvas size, and the Rage engine.
func DefaultOptions() Options {
	return Options{Profile: config.Default(), Width: 800, Height: 600, Engine: "rage"}
}

// Compile parses and lowers GeoScript source text into a ready-to-run
// Program (spec.md §3 "Lifecycle": lex/parse → unroll → math lowering).
// A non-nil error always collects every diagnostic found rather than
// stopping at the first (package parser and package unroll's own
// resume-and-collect discipline, spec.md §4.2).
func Compile(source string) (*lower.Program, error) {
	ps, err := parser.New(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	file, err := ps.Parse()
	if err != nil {
		return nil, err
	}
	up, err := unroll.New().Unroll(file)
	if err != nil {
		return nil, err
	}
	return lower.Lower(up)
}

// Generate runs the generator to convergence over lp's critic program,
// starting from a random initial assignment, then exports the settled
// figure document (spec.md §4.5 "Generator cycle", §4.6 "the figure
// program is re-evaluated at x*").
func Generate(ctx context.Context, lp *lower.Program, opts Options) (*figure.Document, generator.Result, error) {
	prog := critic.New(lp.Pool, lp.Entities, lp.Rules)

	rng := rand.New(rand.NewSource(opts.Profile.Seed))
	x0 := initialAssignment(lp.Entities, rng)

	engine, err := buildEngine(opts.Engine, lp.Entities, prog, x0)
	if err != nil {
		return nil, generator.Result{}, err
	}

	coord := generator.NewCoordinator(opts.Profile, engine, nil, nil, nil)
	result, err := coord.Run(ctx, prog, x0)
	if err != nil {
		return nil, generator.Result{}, err
	}

	doc, err := figure.Build(lp, result.X, opts.Width, opts.Height)
	if err != nil {
		return nil, result, err
	}
	return doc, result, nil
}

func buildEngine(name string, entities *pool.EntityTable, prog *critic.Program, x0 []float64) (generator.Engine, error) {
	switch name {
	case "", "rage":
		return generator.NewRageEngine(entities), nil
	case "glide":
		return generator.NewGlideEngine(func(x []float64) (float64, error) {
			res, err := prog.Evaluate(x)
			if err != nil {
				return 0, err
			}
			return res.Total, nil
		}), nil
	default:
		return nil, geoerr.ErrInternal.New(fmt.Sprintf("geoaid: unknown engine %q", name))
	}
}

// initialAssignment draws a starting adjustable vector: FreePoint and
// FreeReal components uniform in [-initialSpread, initialSpread],
// PointOnLine's curve parameter uniform over the same range, and
// PointOnCircle's angle uniform over a full turn (spec.md does not
// specify an initial-assignment distribution, only that the generator
// "starts from x0" — see DESIGN.md).
const initialSpread = 5.0

func initialAssignment(entities *pool.EntityTable, rng *rand.Rand) []float64 {
	x := make([]float64, entities.NumAdj)
	for _, e := range entities.Entities {
		switch e.Kind {
		case pool.FreePoint:
			x[e.AdjustOffset] = uniform(rng, initialSpread)
			x[e.AdjustOffset+1] = uniform(rng, initialSpread)
		case pool.FreeReal:
			x[e.AdjustOffset] = uniform(rng, initialSpread)
		case pool.PointOnLine:
			x[e.AdjustOffset] = uniform(rng, initialSpread)
		case pool.PointOnCircle:
			x[e.AdjustOffset] = rng.Float64() * 2 * math.Pi
		}
	}
	return x
}

func uniform(rng *rand.Rand, spread float64) float64 {
	return (rng.Float64()*2 - 1) * spread
}
