package generator

import (
	"math"
	"math/rand"

	"github.com/geo-aid/geoaid/pool"
)

// Engine proposes a perturbed candidate from the current base assignment
// and the per-adjustable quality estimates from the previous cycle
// (spec.md §4.4 "Implementers may use either the quality-vector
// formulation... (Rage) or a gradient-descent engine... (Glide)"). Both
// satisfy the same contract: given a base, per-adjustable qualities, and
// a private RNG stream, return a same-length candidate vector.
type Engine interface {
	Name() string
	Propose(base []float64, perAdjQuality []float64, rng *rand.Rand) []float64
}

// entityOffsets groups adjustable-vector slices by entity so a Propose
// implementation can perturb "on the unit sphere of the adjustable's
// subspace" (spec.md §4.5) rather than independently per scalar.
func entityOffsets(entities *pool.EntityTable) [][2]int {
	spans := make([][2]int, len(entities.Entities))
	for i, e := range entities.Entities {
		spans[i] = [2]int{e.AdjustOffset, e.Kind.Dims()}
	}
	return spans
}

// RageEngine implements the quality-vector random-walk strategy (spec.md
// §4.5 worker cycle step 2): perturbation magnitude is drawn from an
// exponential distribution with mean proportional to (1 − q_i), direction
// uniform on the unit sphere of the entity's adjustable subspace.
type RageEngine struct {
	Entities *pool.EntityTable
	// MeanScale multiplies (1-q) to get the exponential's mean step size.
	MeanScale float64
}

// NewRageEngine returns a RageEngine over entities with the default mean
// scale from spec.md's worked example (perturbation comparable to the
// current error magnitude).
func NewRageEngine(entities *pool.EntityTable) *RageEngine {
	return &RageEngine{Entities: entities, MeanScale: 1.0}
}

func (e *RageEngine) Name() string { return "rage" }

func (e *RageEngine) Propose(base, perAdjQuality []float64, rng *rand.Rand) []float64 {
	cand := append([]float64(nil), base...)
	spans := entityOffsets(e.Entities)
	for _, sp := range spans {
		off, dims := sp[0], sp[1]
		if dims == 0 {
			continue
		}
		q := meanOf(perAdjQuality, off, dims)
		mean := e.MeanScale * (1 - q)
		if mean <= 0 {
			mean = 1e-6
		}
		mag := expFloat(rng) * mean
		switch dims {
		case 1:
			sign := 1.0
			if randFloat(rng) < 0.5 {
				sign = -1.0
			}
			cand[off] += sign * mag
		case 2:
			theta := randFloat(rng) * 2 * math.Pi
			cand[off] += mag * math.Cos(theta)
			cand[off+1] += mag * math.Sin(theta)
		default:
			for i := 0; i < dims; i++ {
				cand[off+i] += mag * (2*randFloat(rng) - 1)
			}
		}
	}
	return cand
}

func meanOf(v []float64, off, n int) float64 {
	if v == nil {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += v[off+i]
	}
	return sum / float64(n)
}

func randFloat(rng *rand.Rand) float64 {
	if rng != nil {
		return rng.Float64()
	}
	return rand.Float64()
}

// expFloat draws from an exponential distribution with mean 1 (the
// inverse-CDF method), so it works the same whether rng is a private
// per-worker stream or nil (falls back to the global source).
func expFloat(rng *rand.Rand) float64 {
	return -math.Log(1 - randFloat(rng))
}

// GlideEngine implements the finite-difference gradient-descent strategy
// (spec.md §4.4 "a gradient-descent engine... that computes ∂q/∂x by
// finite differences on small probing perturbations"). Eval evaluates
// total quality at an arbitrary point, used only to probe the local
// gradient; Propose itself never calls the critic more than 2×len(base)+1
// times per cycle.
type GlideEngine struct {
	Eval func(x []float64) (float64, error)
	Step float64
}

// NewGlideEngine returns a GlideEngine that probes quality via eval.
func NewGlideEngine(eval func(x []float64) (float64, error)) *GlideEngine {
	return &GlideEngine{Eval: eval, Step: 1e-4}
}

func (g *GlideEngine) Name() string { return "glide" }

func (g *GlideEngine) Propose(base, perAdjQuality []float64, rng *rand.Rand) []float64 {
	grad := make([]float64, len(base))
	h := g.Step
	base0, err := g.Eval(base)
	if err != nil {
		return append([]float64(nil), base...)
	}
	for i := range base {
		probe := append([]float64(nil), base...)
		probe[i] += h
		qp, err := g.Eval(probe)
		if err != nil {
			continue
		}
		grad[i] = (qp - base0) / h
	}
	cand := make([]float64, len(base))
	// Ascend the quality gradient (we are maximizing quality, not
	// minimizing a loss), scaled so a single step is comparable to Rage's
	// perturbation magnitude.
	lr := 10 * h
	for i := range base {
		cand[i] = base[i] + lr*grad[i]
	}
	return cand
}
