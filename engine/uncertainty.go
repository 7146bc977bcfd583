package engine

import (
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"
)

// trendSimulation estimates trend uncertainty beyond the training range by
// replaying the learned changepoint behavior forward: future changepoints
// arrive as a Poisson process at the training-span rate, each with a rate
// change drawn from a Laplace distribution matching the learned mean
// absolute delta. Each run owns an explicit seeded generator, so results are
// reproducible and runs are independent.
type trendSimulation struct {
	changepoints []float64
	delta        []float64
	k, m         float64

	rate          float64 // changepoints per unit normalized time
	deltaScale    float64 // Laplace scale of simulated rate changes
	samples       int
	seed          int64
	intervalWidth float64
}

func (m *Model) newTrendSimulation() trendSimulation {
	sim := trendSimulation{
		changepoints:  m.changepoints,
		delta:         m.params.Delta,
		k:             m.params.K,
		m:             m.params.M,
		samples:       m.cfg.TrendSamples,
		seed:          m.cfg.Seed,
		intervalWidth: m.cfg.IntervalWidth,
	}
	if n := len(m.changepoints); n > 0 {
		sim.rate = float64(n) / m.cfg.ChangepointRange
		sum := 0.0
		for _, d := range m.params.Delta {
			sum += math.Abs(d)
		}
		sim.deltaScale = sum / float64(n)
	}
	return sim
}

// run produces one simulated trend trajectory over the normalized grid. The
// deterministic trend is perturbed by hinge terms d*(t - s) for each
// simulated future changepoint, which keeps every trajectory continuous.
func (sim trendSimulation) run(tNorm []float64, rng *rand.Rand) []float64 {
	out := make([]float64, len(tNorm))
	laplace := distuv.Laplace{Mu: 0, Scale: sim.deltaScale, Src: rng}

	type hinge struct{ s, d float64 }
	var hinges []hinge

	prev := 1.0
	for i, t := range tNorm {
		out[i] = trendAt(t, sim.changepoints, sim.k, sim.m, sim.delta)
		if t <= 1 {
			continue
		}
		lo := math.Max(prev, 1)
		if t > lo && sim.deltaScale > 0 {
			// expected arrivals over (lo, t]
			n := distuv.Poisson{Lambda: sim.rate * (t - lo), Src: rng}.Rand()
			for c := 0; c < int(n); c++ {
				s := lo + rng.Float64()*(t-lo)
				hinges = append(hinges, hinge{s: s, d: laplace.Rand()})
			}
		}
		for _, h := range hinges {
			if t >= h.s {
				out[i] += h.d * (t - h.s)
			}
		}
		prev = t
	}
	return out
}

// simulateTrendBounds returns per-row trend bounds on the normalized linked
// scale. Rows inside the training range, or any run with trend_samples == 0,
// degenerate to the deterministic trend.
func (m *Model) simulateTrendBounds(tNorm []float64) (lower, upper []float64, err error) {
	det := trendValues(tNorm, m.changepoints, m.params.K, m.params.M, m.params.Delta)
	lower = append([]float64(nil), det...)
	upper = append([]float64(nil), det...)

	sim := m.newTrendSimulation()
	if sim.samples == 0 {
		return lower, upper, nil
	}

	trajectories := make([][]float64, sim.samples)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < sim.samples; i++ {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(sim.seed), uint64(i)+1))
			trajectories[i] = sim.run(tNorm, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	pLo := (1 - sim.intervalWidth) / 2
	pHi := 1 - pLo
	sample := make([]float64, sim.samples)
	for row, t := range tNorm {
		if t <= 1 {
			continue
		}
		for i := range trajectories {
			sample[i] = trajectories[i][row]
		}
		lo, err := stats.Percentile(sample, 100*pLo)
		if err != nil {
			return nil, nil, err
		}
		hi, err := stats.Percentile(sample, 100*pHi)
		if err != nil {
			return nil, nil, err
		}
		// the simulated band widens around the deterministic trend; keep
		// it anchored so it always brackets the point trend
		lower[row] = math.Min(lo, det[row])
		upper[row] = math.Max(hi, det[row])
	}
	return lower, upper, nil
}
