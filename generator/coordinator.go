// Package generator implements the parallel, iterative coordinate-descent
// optimizer (spec.md §4.5): a worker pool proposing perturbed adjustable
// vectors in lockstep with a coordinator that adopts the best proposal
// each cycle and decides termination.
package generator

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/geo-aid/geoaid/config"
	"github.com/geo-aid/geoaid/critic"
	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/glog"
)

// Status reports why a Run call returned.
type Status int

const (
	// Ok means quality reached the strictness profile's Tau.
	Ok Status = iota
	// Exhausted means Patience consecutive cycles made no improvement
	// greater than Epsilon.
	Exhausted
	// MaxCyclesReached means the hard cycle cap was hit.
	MaxCyclesReached
	// Timeout means the wall-clock Budget elapsed.
	Timeout
	// Cancelled means the caller's context was cancelled.
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "Ok"
	case Exhausted:
		return "Exhausted"
	case MaxCyclesReached:
		return "MaxCyclesReached"
	case Timeout:
		return "Timeout"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Result is a completed (or aborted) generator run.
type Result struct {
	X       []float64
	Quality float64
	Cycles  int
	Status  Status
	RunID   string
}

// Coordinator owns the base assignment, the worker pool, and the
// termination decision (spec.md §4.5 "Coordinator cycle").
type Coordinator struct {
	Profile  config.StrictnessProfile
	Engine   Engine
	Logger   *logrus.Entry
	Tracer   opentracing.Tracer
	Registry *prometheus.Registry

	metrics *metrics
}

// NewCoordinator returns a Coordinator. A nil Logger defaults to a
// discarding logger; a nil Tracer defaults to opentracing's no-op tracer;
// a nil Registry gets a fresh private registry (never the global default
// one, so concurrent runs in one process cannot collide on metric
// registration — SPEC_FULL.md §4.5).
func NewCoordinator(profile config.StrictnessProfile, engine Engine, logger *logrus.Entry, tracer opentracing.Tracer, registry *prometheus.Registry) *Coordinator {
	if logger == nil {
		logger = glog.Discard()
	}
	if tracer == nil {
		tracer = opentracing.NoopTracer{}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Coordinator{
		Profile:  profile,
		Engine:   engine,
		Logger:   logger,
		Tracer:   tracer,
		Registry: registry,
		metrics:  newMetrics(registry),
	}
}

type submission struct {
	workerID int
	x        []float64
	q        float64
	perAdj   []float64
	err      error
}

// Run drives the worker/coordinator loop to termination against prog,
// starting from x0 (spec.md §4.5, §4.7 "Worker: Idle → Proposing →
// Submitted → Idle"). x0 is never mutated.
func (c *Coordinator) Run(ctx context.Context, prog *critic.Program, x0 []float64) (Result, error) {
	runUUID, err := uuid.NewV4()
	if err != nil {
		return Result{}, geoerr.ErrInternal.New(err.Error())
	}
	runID := runUUID.String()
	log := c.Logger.WithField("run_id", runID)

	span := c.Tracer.StartSpan("generator.run")
	defer span.Finish()
	spanCtx := opentracing.ContextWithSpan(ctx, span)

	start := time.Now()
	var deadline <-chan time.Time
	if c.Profile.Budget > 0 {
		timer := time.NewTimer(c.Profile.Budget)
		defer timer.Stop()
		deadline = timer.C
	}

	workers := c.Profile.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	base := append([]float64(nil), x0...)
	res, err := prog.Evaluate(base)
	if err != nil {
		return Result{}, geoerr.ErrInternal.New(err.Error())
	}
	baseQ := res.Total
	perAdj := attributePerAdjustable(prog, res, nil)

	rngs := make([]*rand.Rand, workers)
	for i := range rngs {
		rngs[i] = rand.New(rand.NewSource(c.Profile.Seed + int64(i)))
	}

	noImprove := 0
	cycle := 0
	status := MaxCyclesReached

cycleLoop:
	for ; c.Profile.MaxCycles <= 0 || cycle < c.Profile.MaxCycles; cycle++ {
		select {
		case <-spanCtx.Done():
			status = Cancelled
			break cycleLoop
		case <-deadline:
			status = Timeout
			break cycleLoop
		default:
		}

		cycleSpan := c.Tracer.StartSpan("generator.cycle", opentracing.ChildOf(span.Context()))
		subs := c.runCycle(workers, base, perAdj, rngs, prog)
		cycleSpan.Finish()
		c.metrics.cyclesRun.Inc()

		best := pickBest(subs)
		if best != nil && best.q > baseQ {
			improvement := best.q - baseQ
			base = best.x
			baseQ = best.q
			perAdj = best.perAdj
			c.metrics.cyclesAccepted.Inc()
			if improvement > c.Profile.Epsilon {
				noImprove = 0
			} else {
				noImprove++
			}
			log.WithField("cycle", cycle).WithField("quality", baseQ).Debug("accepted new base")
		} else {
			noImprove++
		}

		if baseQ >= c.Profile.Tau {
			status = Ok
			cycle++
			break cycleLoop
		}
		if noImprove >= c.Profile.Patience {
			status = Exhausted
			cycle++
			break cycleLoop
		}
	}

	c.metrics.finalQuality.Set(baseQ)
	c.metrics.duration.Observe(time.Since(start).Seconds())
	log.WithField("status", status).WithField("cycles", cycle).WithField("quality", baseQ).Info("generator run finished")

	return Result{X: base, Quality: baseQ, Cycles: cycle, Status: status, RunID: runID}, nil
}

// runCycle fans a cycle's proposals out over workers goroutines and
// collects every submission (spec.md §5 "workers run in lockstep by
// cycle (barrier between cycles)"): this call does not return until
// every worker has submitted or failed.
func (c *Coordinator) runCycle(workers int, base, perAdj []float64, rngs []*rand.Rand, prog *critic.Program) []submission {
	subs := make([]submission, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			cand := c.Engine.Propose(base, perAdj, rngs[id])
			res, err := prog.Evaluate(cand)
			if err != nil {
				subs[id] = submission{workerID: id, err: err}
				return
			}
			delta := make([]float64, len(cand))
			for i := range delta {
				delta[i] = cand[i] - base[i]
			}
			subs[id] = submission{workerID: id, x: cand, q: res.Total, perAdj: attributePerAdjustable(prog, res, delta)}
		}(w)
	}
	wg.Wait()
	return subs
}

// pickBest returns the highest-quality successful submission, breaking
// ties by the lowest worker id (spec.md §5 "Ordering").
func pickBest(subs []submission) *submission {
	var best *submission
	for i := range subs {
		s := &subs[i]
		if s.err != nil || s.x == nil {
			continue
		}
		if best == nil || s.q > best.q {
			best = s
		}
	}
	return best
}

// attributePerAdjustable estimates each adjustable's quality q_i (spec.md
// §4.4 "Per-adjustable quality is computed by attributing each rule's
// (1 − q) proportionally to the sensitivity of q to each adjustable x_i,
// estimated by the last accepted perturbation's magnitude"). delta is the
// candidate-minus-base displacement that produced res, one entry per
// adjustable; it is the "last accepted perturbation" once this submission
// wins a cycle (spec.md §4.5 "Update per-adjustable quality estimates
// from the winning proposal"). A nil or all-zero delta means no
// perturbation history exists yet, so every adjustable falls back to the
// global estimate (spec.md §4.5 worker-cycle step 2, "the global (1−Q*)
// if unknown").
//
// Adjustables that moved further in the accepted step are taken to be
// more sensitive, so they absorb a larger share of the deficit
// (1 − Total) below the global baseline; adjustables barely touched sit
// above it. sensitivityDamping keeps an untouched adjustable's estimate
// short of 1: without it, an adjustable skipped by one winning proposal
// would get mean-zero perturbations forever after (Propose's exponential
// mean is proportional to 1 − q_i), freezing it out of every future
// cycle. A touched-at-the-average-share adjustable (w_i·n = 1) reproduces
// Total exactly, so the estimate is continuous with the no-history
// fallback below.
const sensitivityDamping = 0.5

func attributePerAdjustable(prog *critic.Program, res critic.Result, delta []float64) []float64 {
	n := prog.Entities.NumAdj
	out := make([]float64, n)

	var sum float64
	if len(delta) == n {
		for _, d := range delta {
			sum += math.Abs(d)
		}
	}
	if sum == 0 {
		for i := range out {
			out[i] = res.Total
		}
		return out
	}

	deficit := 1 - res.Total
	for i, d := range delta {
		w := math.Abs(d) / sum
		q := res.Total - deficit*(w*float64(n)-1)*sensitivityDamping
		if q < 0 {
			q = 0
		}
		if q > 1 {
			q = 1
		}
		out[i] = q
	}
	return out
}
