package engine

import (
	"context"
	"math"
	"time"

	"goglam/domain/model"
	"goglam/domain/series"
	"goglam/engine/family"
	"goglam/internal/errors"
	"goglam/ports"
)

// Model is one forecasting model instance. A zero-fitted model only carries
// configuration; Fit populates the scaling context, changepoints and
// parameters atomically, so a failed fit never leaves partial state behind.
// Once fitted, the model is immutable and safe for concurrent Predict calls.
type Model struct {
	cfg model.Config
	fam family.Family

	scaling      model.ScalingContext
	changepoints []float64

	trainEnd  time.Time
	trainFreq time.Duration
	trainRows int

	params    model.Params
	posterior *model.Posterior
	fitted    bool
}

// New validates the configuration, resolves the likelihood family and
// returns an unfitted model.
func New(cfg model.Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fam, err := family.Lookup(cfg.Family)
	if err != nil {
		return nil, err
	}
	return &Model{cfg: cfg, fam: fam}, nil
}

// Family returns the model's resolved likelihood family.
func (m *Model) Family() family.Family { return m.fam }

// Config returns a copy of the resolved configuration.
func (m *Model) Config() model.Config { return m.cfg }

// Fitted reports whether Fit has completed successfully.
func (m *Model) Fitted() bool { return m.fitted }

// Params returns the fitted parameter set.
func (m *Model) Params() (model.Params, error) {
	if !m.fitted {
		return model.Params{}, errors.NotFitted("model has not been fit")
	}
	return m.params.Clone(), nil
}

// Scaling returns the fitted scaling context.
func (m *Model) Scaling() (model.ScalingContext, error) {
	if !m.fitted {
		return model.ScalingContext{}, errors.NotFitted("model has not been fit")
	}
	return m.scaling, nil
}

// Changepoints returns the candidate changepoints in normalized time.
func (m *Model) Changepoints() []float64 {
	return append([]float64(nil), m.changepoints...)
}

func (m *Model) builder() *designBuilder {
	return &designBuilder{cfg: &m.cfg, scaling: &m.scaling, changepoints: m.changepoints}
}

// linkedObservation maps one raw observation onto the linked scale, using
// the per-trial proportion for capacity-bounded families.
func (m *Model) linkedObservation(y, capacity float64) float64 {
	if m.fam.Domain() == series.DomainBoundedInt && capacity > 0 {
		return m.fam.Link(y / capacity)
	}
	return m.fam.Link(y)
}

// Fit estimates the MAP parameter set for the series via the fitter backend,
// optionally requesting Laplace-approximation posterior draws. The series
// must satisfy the family's value domain; violations fail before any
// optimization is attempted.
func (m *Model) Fit(ctx context.Context, s *series.Series, fitter ports.FitterPort) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := s.ValidateDomain(m.fam.Domain()); err != nil {
		return err
	}

	scaling, err := NewScaling(m.fam, &m.cfg, s)
	if err != nil {
		return err
	}
	changepoints := placeChangepoints(&m.cfg, &scaling)

	b := &designBuilder{cfg: &m.cfg, scaling: &scaling, changepoints: changepoints}
	design, err := b.Build(s.Timestamps, s.Regressors)
	if err != nil {
		return err
	}

	shape := paramShape{
		nDelta:        len(changepoints),
		nBeta:         len(design.Columns),
		hasDispersion: m.fam.HasDispersion(),
	}

	negLogPost := m.negLogPosterior(design, &scaling, changepoints, shape, s)

	problem := ports.FitProblem{
		Init:            m.initVector(shape, &scaling, s),
		NegLogPosterior: negLogPost,
		Seed:            m.cfg.Seed,
	}
	if m.cfg.UseLaplace {
		problem.Draws = m.cfg.LaplaceDraws
	}

	result, err := fitter.Maximize(ctx, problem)
	if err != nil {
		return errors.Optimization("model fit did not converge", err)
	}

	// publish fitted state only after the backend succeeded
	m.scaling = scaling
	m.changepoints = changepoints
	m.params = shape.unpack(result.Mode)
	m.posterior = nil
	if len(result.DrawsOut) > 0 {
		draws := make([]model.Params, 0, len(result.DrawsOut))
		for _, d := range result.DrawsOut {
			draws = append(draws, shape.unpack(d))
		}
		m.posterior = &model.Posterior{Draws: draws}
	}
	m.trainEnd = s.Timestamps[len(s.Timestamps)-1]
	m.trainFreq = s.Frequency()
	m.trainRows = s.Len()
	m.fitted = true
	return nil
}

// initVector builds the optimizer starting point: trend slope and offset
// from the first and last linked observations, everything else at zero.
func (m *Model) initVector(shape paramShape, sc *model.ScalingContext, s *series.Series) []float64 {
	capFirst, capLast := 0.0, 0.0
	if s.Capacity != nil {
		capFirst = s.Capacity[0]
		capLast = s.Capacity[len(s.Capacity)-1]
	}
	zFirst := (m.linkedObservation(s.Values[0], capFirst) - sc.LinkedOffset) / sc.LinkedScale
	zLast := (m.linkedObservation(s.Values[len(s.Values)-1], capLast) - sc.LinkedOffset) / sc.LinkedScale

	x := make([]float64, shape.dim())
	x[0] = zLast - zFirst
	x[1] = zFirst
	return x
}

// negLogPosterior returns the objective forwarded to the fitter backend. It
// is a pure function of the flat parameter vector and safe for concurrent
// evaluation.
func (m *Model) negLogPosterior(d *Design, sc *model.ScalingContext, changepoints []float64, shape paramShape, s *series.Series) func(x []float64) float64 {
	fam := m.fam
	cfg := m.cfg
	cols := d.Columns
	varianceMax := sc.VarianceMax

	return func(x []float64) float64 {
		p := shape.unpack(x)
		ll := 0.0
		for i := 0; i < d.Rows(); i++ {
			eta := trendAt(d.TNorm[i], changepoints, p.K, p.M, p.Delta)
			for c := range cols {
				eta += d.X.At(i, c) * p.Beta[c]
			}
			etaLinked := eta*sc.LinkedScale + sc.LinkedOffset
			capacity := 0.0
			if s.Capacity != nil {
				capacity = s.Capacity[i]
			}
			ll += fam.LogLikelihood(s.Values[i], etaLinked, p.Kappa, capacity, varianceMax)
		}
		lp := logPriors(x, shape, &cfg, cols)

		nlp := -(ll + lp)
		if math.IsNaN(nlp) {
			return math.Inf(1)
		}
		return nlp
	}
}

// Snapshot exports the fitted model for serialization and persistence.
func (m *Model) Snapshot() (*model.Snapshot, error) {
	if !m.fitted {
		return nil, errors.NotFitted("cannot snapshot an unfitted model")
	}
	return &model.Snapshot{
		Config:           m.cfg,
		Scaling:          m.scaling,
		ChangepointTimes: append([]float64(nil), m.changepoints...),
		TrainEnd:         m.trainEnd,
		TrainFrequency:   m.trainFreq,
		TrainRows:        m.trainRows,
		Params:           m.params.Clone(),
		Posterior:        m.posterior,
		FittedAt:         time.Now().UTC(),
	}, nil
}

// FromSnapshot rebuilds a fitted model from its serialized form. The result
// can predict immediately without refitting.
func FromSnapshot(snap *model.Snapshot) (*Model, error) {
	m, err := New(snap.Config)
	if err != nil {
		return nil, err
	}
	m.scaling = snap.Scaling
	m.changepoints = append([]float64(nil), snap.ChangepointTimes...)
	m.trainEnd = snap.TrainEnd
	m.trainFreq = snap.TrainFrequency
	m.trainRows = snap.TrainRows
	m.params = snap.Params.Clone()
	m.posterior = snap.Posterior
	m.fitted = true
	return m, nil
}
