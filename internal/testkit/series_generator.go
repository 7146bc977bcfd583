// Package testkit provides synthetic observation series with known
// structure for tests: constant-rate counts, linear trends with and without
// changepoints, and bounded proportions.
package testkit

import (
	"math"
	"math/rand/v2"
	"time"

	"goglam/domain/series"

	"gonum.org/v1/gonum/stat/distuv"
)

// GeneratorConfig configures the synthetic series generators.
type GeneratorConfig struct {
	Rows  int           `json:"rows"`
	Start time.Time     `json:"start"`
	Step  time.Duration `json:"step"`
	Seed  int64         `json:"seed"`
}

// DefaultGeneratorConfig returns 100 daily rows starting 2024-01-01.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Rows:  100,
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Step:  24 * time.Hour,
		Seed:  42,
	}
}

// SeriesGenerator generates deterministic synthetic series.
type SeriesGenerator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewSeriesGenerator creates a generator seeded from the config.
func NewSeriesGenerator(config GeneratorConfig) *SeriesGenerator {
	return &SeriesGenerator{
		config: config,
		rng:    rand.New(rand.NewPCG(uint64(config.Seed), uint64(config.Seed)+1)),
	}
}

func (g *SeriesGenerator) timestamps() []time.Time {
	out := make([]time.Time, g.config.Rows)
	for i := range out {
		out[i] = g.config.Start.Add(time.Duration(i) * g.config.Step)
	}
	return out
}

// ConstantRatePoisson draws counts from a Poisson process with a fixed rate.
func (g *SeriesGenerator) ConstantRatePoisson(rate float64) *series.Series {
	dist := distuv.Poisson{Lambda: rate, Src: g.rng}
	values := make([]float64, g.config.Rows)
	for i := range values {
		values[i] = dist.Rand()
	}
	return &series.Series{Timestamps: g.timestamps(), Values: values}
}

// LinearTrendNormal generates slope*day + intercept with Gaussian noise.
func (g *SeriesGenerator) LinearTrendNormal(slope, intercept, sigma float64) *series.Series {
	noise := distuv.Normal{Mu: 0, Sigma: sigma, Src: g.rng}
	values := make([]float64, g.config.Rows)
	for i := range values {
		values[i] = slope*float64(i) + intercept + noise.Rand()
	}
	return &series.Series{Timestamps: g.timestamps(), Values: values}
}

// TrendWithChangepoint generates a piecewise-linear series whose slope
// switches at the given row fraction.
func (g *SeriesGenerator) TrendWithChangepoint(slopeBefore, slopeAfter, intercept, sigma, breakFraction float64) *series.Series {
	noise := distuv.Normal{Mu: 0, Sigma: sigma, Src: g.rng}
	breakRow := int(breakFraction * float64(g.config.Rows))
	values := make([]float64, g.config.Rows)
	level := intercept
	for i := range values {
		slope := slopeBefore
		if i >= breakRow {
			slope = slopeAfter
		}
		if i > 0 {
			level += slope
		}
		values[i] = level + noise.Rand()
	}
	return &series.Series{Timestamps: g.timestamps(), Values: values}
}

// BoundedProportion generates values in [0, 1] wobbling around a mean, for
// the beta family and for comparing bounded against unbounded families.
func (g *SeriesGenerator) BoundedProportion(mean, amplitude float64) *series.Series {
	values := make([]float64, g.config.Rows)
	for i := range values {
		phase := 2 * math.Pi * float64(i) / 30
		v := mean + amplitude*math.Sin(phase) + 0.02*(g.rng.Float64()-0.5)
		values[i] = math.Min(1, math.Max(0, v))
	}
	return &series.Series{Timestamps: g.timestamps(), Values: values}
}

// BinomialCounts generates success counts out of a fixed capacity with the
// given success probability.
func (g *SeriesGenerator) BinomialCounts(capacity int, p float64) *series.Series {
	dist := distuv.Binomial{N: float64(capacity), P: p, Src: g.rng}
	values := make([]float64, g.config.Rows)
	caps := make([]float64, g.config.Rows)
	for i := range values {
		values[i] = dist.Rand()
		caps[i] = float64(capacity)
	}
	return &series.Series{Timestamps: g.timestamps(), Values: values, Capacity: caps}
}
